package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ruteri/lawsign-backend/interfaces"
	"github.com/ruteri/lawsign-backend/signing"
)

const (
	callbackAddClient = "add_client"
	callbackSign      = "sign_"
)

// LawyerBot drives client intake and the lawyer's signature.
type LawyerBot struct {
	core     Signing
	roster   *Roster
	sessions *SessionStore
	callback callbackRouter
	log      *slog.Logger
}

var _ Bot = (*LawyerBot)(nil)

// NewLawyerBot creates the lawyer bot. Only chats in roster are served.
func NewLawyerBot(core Signing, roster *Roster, log *slog.Logger) *LawyerBot {
	b := &LawyerBot{
		core:     core,
		roster:   roster,
		sessions: NewSessionStore(),
		log:      log.With("bot", "lawyer"),
	}
	b.callback.Exact(callbackAddClient, b.addClient)
	b.callback.Prefix(callbackSign, b.requestSignature)
	return b
}

// Sessions exposes the bot's session store.
func (b *LawyerBot) Sessions() *SessionStore {
	return b.sessions
}

// withLawyer runs fn for an authorised lawyer, or denies access.
func (b *LawyerBot) withLawyer(chatID int64, fn func(*Session, Lawyer) Reply) Reply {
	lawyer, ok := b.roster.Lookup(chatID)
	if !ok {
		b.log.Warn("Access denied", "chatID", chatID)
		return Reply{Text: msgAccessDenied}
	}
	return b.sessions.Do(chatID, func(s *Session) Reply {
		return fn(s, lawyer)
	})
}

// Start resets the session and shows the menu.
func (b *LawyerBot) Start(ctx context.Context, chatID int64) Reply {
	return b.withLawyer(chatID, func(s *Session, _ Lawyer) Reply {
		s.Reset()
		return Reply{
			Text:    "Welcome! Choose a section:",
			Buttons: []Button{callbackButton("Add client", callbackAddClient)},
		}
	})
}

// HandleCallback dispatches button presses.
func (b *LawyerBot) HandleCallback(ctx context.Context, chatID int64, data string) Reply {
	return b.withLawyer(chatID, func(s *Session, _ Lawyer) Reply {
		reply, ok := b.callback.dispatch(ctx, s, data)
		if !ok {
			s.Reset()
			return Reply{Text: msgUnknownCommand}
		}
		return reply
	})
}

// HandleText advances the intake conversation or checks a signature code.
func (b *LawyerBot) HandleText(ctx context.Context, chatID int64, text string) Reply {
	if strings.TrimSpace(text) == startCommand {
		return b.Start(ctx, chatID)
	}

	return b.withLawyer(chatID, func(s *Session, lawyer Lawyer) Reply {
		text = strings.TrimSpace(text)

		switch s.Step {
		case StepAwaitClientEmail:
			if !validEmail(text) {
				return Reply{Text: "The email is invalid. Please try again:"}
			}
			s.ClientEmail = text
			s.Step = StepAwaitClientName
			return Reply{Text: "Email accepted. Enter the client's full name:"}

		case StepAwaitClientName:
			if !validName(text) {
				return Reply{Text: "The name is too short. Enter it again:"}
			}
			s.ClientFullName = text
			s.Step = StepAwaitDocument
			return Reply{Text: "Upload the agreement (PDF) to be signed:"}

		case StepAwaitDocument:
			return Reply{Text: "Please upload a PDF file:"}

		case StepAwaitCode:
			return b.submitCode(ctx, s, lawyer, text)

		default:
			return Reply{Text: msgStartFirst}
		}
	})
}

// HandleUpload accepts the agreement at the end of client intake.
func (b *LawyerBot) HandleUpload(ctx context.Context, chatID int64, upload Upload) Reply {
	return b.withLawyer(chatID, func(s *Session, _ Lawyer) Reply {
		if s.Step != StepAwaitDocument {
			return Reply{Text: msgStartFirst}
		}

		if err := validateUpload(upload); err != nil {
			b.log.Info("Upload rejected", "chatID", chatID, "err", err)
			if upload.MimeType != interfaces.PDFMimeType {
				return Reply{Text: "The file must be a PDF. Upload it again:"}
			}
			return Reply{Text: "The file is too large (20 MB max) or empty. Upload another file:"}
		}

		doc, client, err := b.core.Intake(ctx, signing.IntakeRequest{
			ClientEmail:    s.ClientEmail,
			ClientFullName: s.ClientFullName,
			Filename:       upload.Filename,
			Data:           upload.Data,
		})
		s.Reset()
		if err != nil {
			b.log.Error("Intake failed", "chatID", chatID, "err", err)
			return Reply{Text: "Failed to save the document. Please try again."}
		}

		return Reply{
			Text: fmt.Sprintf("Document saved!\nClient: %s\nEmail: %s\nClient ID: %d\nDocument hash: %s",
				client.FullName, client.Email, client.ID, shortHash(doc.DocumentHash)),
			Buttons: []Button{callbackButton("Sign", signCallback(doc.ID))},
		}
	})
}

func signCallback(documentID int64) string {
	return fmt.Sprintf("%s%d", callbackSign, documentID)
}

func (b *LawyerBot) addClient(ctx context.Context, s *Session, _ string) Reply {
	s.Reset()
	s.Step = StepAwaitClientEmail
	return Reply{Text: "Enter the client's email:"}
}

func (b *LawyerBot) requestSignature(ctx context.Context, s *Session, arg string) Reply {
	documentID, ok := parseID(arg)
	if !ok {
		return Reply{Text: msgUnknownCommand}
	}

	lawyer, _ := b.roster.Lookup(s.ChatID)
	s.Reset()

	_, err := b.core.RequestCode(ctx, documentID, interfaces.RoleLawyer, lawyerSigner(lawyer))
	switch {
	case err == nil:
	case errors.Is(err, interfaces.ErrNotFound):
		return Reply{Text: msgDocumentNotFound}
	case errors.Is(err, interfaces.ErrAlreadySigned):
		return Reply{Text: msgAlreadySigned}
	case errors.Is(err, interfaces.ErrDeliveryFailed):
		return Reply{
			Text:    msgDeliveryFailed,
			Buttons: []Button{callbackButton("Try again", signCallback(documentID))},
		}
	default:
		b.log.Error("Failed to request signature code", "documentID", documentID, "role", interfaces.RoleLawyer, "err", err)
		return Reply{Text: msgSystemError}
	}

	s.Step = StepAwaitCode
	s.DocumentID = documentID
	s.Role = interfaces.RoleLawyer
	return Reply{Text: codeSentText(lawyer.Email)}
}

func (b *LawyerBot) submitCode(ctx context.Context, s *Session, lawyer Lawyer, candidate string) Reply {
	documentID := s.DocumentID

	result, err := b.core.Sign(ctx, documentID, interfaces.RoleLawyer, lawyerSigner(lawyer), candidate)
	if err != nil {
		b.log.Error("Lawyer signature failed", "documentID", documentID, "role", interfaces.RoleLawyer, "err", err)
		s.Reset()
		return signError(err)
	}

	if !result.Signed() {
		reply, clear := rejectedCode(result.Outcome, signCallback(documentID))
		if clear {
			s.Reset()
		}
		return reply
	}

	s.Reset()
	clientName := "the client"
	if client, err := b.core.Client(ctx, result.Document.ClientID); err == nil {
		clientName = client.FullName
	}
	return Reply{
		Text: fmt.Sprintf("Document signed!\n\nThe document for %s is ready to be sent to the client.\n"+
			"The electronic signature stamp has been added.\nUse /start to return to the menu.", clientName),
	}
}

func lawyerSigner(l Lawyer) signing.Signer {
	return signing.Signer{Name: l.FullName, Email: l.Email}
}
