/*
Package clients provides a Go client for the lawsign HTTP transport.

BotClient speaks to one bot (lawyer or client) on behalf of one chat and is
what lawsignctl uses to drive conversations from the command line:

	c := clients.NewBotClient("http://localhost:8080", api.BotLawyer, 1001)
	reply, err := c.Start(ctx)
	reply, err = c.Callback(ctx, "add_client")
	reply, err = c.Text(ctx, "ivan@example.com")
	reply, err = c.Upload(ctx, "agreement.pdf", pdfBytes)

Pending lists the documents awaiting a client's signature.
*/
package clients
