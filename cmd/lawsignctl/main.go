package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ruteri/lawsign-backend/api"
	"github.com/ruteri/lawsign-backend/api/clients"
	"github.com/ruteri/lawsign-backend/cmd/flags"
	"github.com/urfave/cli/v2"
)

var flagBot = &cli.StringFlag{
	Name:  "bot",
	Value: api.BotClient,
	Usage: "bot to talk to: 'lawyer' or 'client'",
}
var flagChatID = &cli.Int64Flag{
	Name:     "chat-id",
	Required: true,
	Usage:    "chat the events are sent from",
}
var flagOutDir = &cli.StringFlag{
	Name:  "out-dir",
	Value: ".",
	Usage: "directory attached documents are written to",
}

func main() {
	app := &cli.App{
		Name:  "lawsignctl",
		Usage: "Drive the lawsign bots over HTTP",
		Flags: []cli.Flag{
			flags.ServerAddrFlag,
			flagBot,
			flagChatID,
			flagOutDir,
		},
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "reset the chat and show the main menu",
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					reply, err := c.Start(cCtx.Context)
					if err != nil {
						return err
					}
					return printReply(cCtx, reply)
				},
			},
			{
				Name:      "text",
				Usage:     "send a text message",
				ArgsUsage: "<message>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() == 0 {
						return errors.New("message is required")
					}
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					reply, err := c.Text(cCtx.Context, strings.Join(cCtx.Args().Slice(), " "))
					if err != nil {
						return err
					}
					return printReply(cCtx, reply)
				},
			},
			{
				Name:      "press",
				Aliases:   []string{"callback"},
				Usage:     "press an inline button by its callback data",
				ArgsUsage: "<callback>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return errors.New("exactly one callback is required")
					}
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					reply, err := c.Callback(cCtx.Context, cCtx.Args().First())
					if err != nil {
						return err
					}
					return printReply(cCtx, reply)
				},
			},
			{
				Name:      "upload",
				Usage:     "upload a PDF document",
				ArgsUsage: "<file.pdf>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return errors.New("exactly one file is required")
					}
					path := cCtx.Args().First()
					data, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					reply, err := c.Upload(cCtx.Context, filepath.Base(path), data)
					if err != nil {
						return err
					}
					return printReply(cCtx, reply)
				},
			},
			{
				Name:      "pending",
				Usage:     "list documents awaiting a client's signature",
				ArgsUsage: "<client-id>",
				Action: func(cCtx *cli.Context) error {
					clientID, err := strconv.ParseInt(cCtx.Args().First(), 10, 64)
					if err != nil || clientID <= 0 {
						return fmt.Errorf("invalid client id %q", cCtx.Args().First())
					}
					c, err := newClient(cCtx)
					if err != nil {
						return err
					}
					resp, err := c.Pending(cCtx.Context, clientID)
					if err != nil {
						return err
					}
					if len(resp.Documents) == 0 {
						fmt.Println("No documents awaiting signature.")
						return nil
					}
					for _, doc := range resp.Documents {
						fmt.Printf("#%d\t%s\tsigned by %s at %s\t%s\n",
							doc.ID, doc.OriginalName, doc.LawyerName,
							doc.LawyerSignedAt.Format("02.01.2006 15:04:05"), doc.DocumentHash)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newClient(cCtx *cli.Context) (*clients.BotClient, error) {
	bot := cCtx.String(flagBot.Name)
	if bot != api.BotLawyer && bot != api.BotClient {
		return nil, fmt.Errorf("unknown bot %q", bot)
	}
	return clients.NewBotClient(cCtx.String(flags.ServerAddrFlag.Name), bot, cCtx.Int64(flagChatID.Name)), nil
}

func printReply(cCtx *cli.Context, reply *api.Reply) error {
	fmt.Println(reply.Text)
	for _, button := range reply.Buttons {
		if button.URL != "" {
			fmt.Printf("  [%s] -> %s\n", button.Label, button.URL)
			continue
		}
		fmt.Printf("  [%s] press %s\n", button.Label, button.Callback)
	}

	if reply.Attachment == nil {
		return nil
	}
	out := filepath.Join(cCtx.String(flagOutDir.Name), filepath.Base(reply.Attachment.Filename))
	if err := os.WriteFile(out, reply.Attachment.Data, 0o644); err != nil {
		return fmt.Errorf("saving attachment: %w", err)
	}
	fmt.Printf("Saved %s (%d bytes)\n", out, len(reply.Attachment.Data))
	return nil
}
