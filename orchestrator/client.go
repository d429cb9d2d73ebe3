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
	callbackViewDocument = "view_doc_"
	callbackClientSign   = "client_sign_"
)

// ClientBot lets a registered client open and countersign pending documents.
type ClientBot struct {
	core       Signing
	supportURL string
	sessions   *SessionStore
	callback   callbackRouter
	log        *slog.Logger
}

var _ Bot = (*ClientBot)(nil)

// NewClientBot creates the client bot. supportURL is offered to unknown emails.
func NewClientBot(core Signing, supportURL string, log *slog.Logger) *ClientBot {
	b := &ClientBot{
		core:       core,
		supportURL: supportURL,
		sessions:   NewSessionStore(),
		log:        log.With("bot", "client"),
	}
	b.callback.Prefix(callbackViewDocument, b.viewDocument)
	b.callback.Prefix(callbackClientSign, b.requestSignature)
	return b
}

// Sessions exposes the bot's session store.
func (b *ClientBot) Sessions() *SessionStore {
	return b.sessions
}

// Start resets the session and asks for the client's email.
func (b *ClientBot) Start(ctx context.Context, chatID int64) Reply {
	return b.sessions.Do(chatID, func(s *Session) Reply {
		s.Reset()
		s.Step = StepAwaitLoginEmail
		return Reply{Text: "Welcome to the electronic signature system!\n\nEnter your email to begin:"}
	})
}

// HandleText resolves the client's email or checks a signature code.
func (b *ClientBot) HandleText(ctx context.Context, chatID int64, text string) Reply {
	if strings.TrimSpace(text) == startCommand {
		return b.Start(ctx, chatID)
	}

	return b.sessions.Do(chatID, func(s *Session) Reply {
		text = strings.TrimSpace(text)

		switch s.Step {
		case StepAwaitLoginEmail:
			return b.login(ctx, s, text)
		case StepAwaitCode:
			return b.submitCode(ctx, s, text)
		default:
			return Reply{Text: msgStartFirst}
		}
	})
}

// HandleCallback dispatches button presses.
func (b *ClientBot) HandleCallback(ctx context.Context, chatID int64, data string) Reply {
	return b.sessions.Do(chatID, func(s *Session) Reply {
		reply, ok := b.callback.dispatch(ctx, s, data)
		if !ok {
			return Reply{Text: msgUnknownCommand}
		}
		return reply
	})
}

// HandleUpload rejects files; clients never upload.
func (b *ClientBot) HandleUpload(ctx context.Context, chatID int64, upload Upload) Reply {
	return Reply{Text: msgUploadsIgnored}
}

func (b *ClientBot) login(ctx context.Context, s *Session, email string) Reply {
	email = strings.ToLower(email)
	s.Reset()

	client, err := b.core.ClientByEmail(ctx, email)
	if errors.Is(err, interfaces.ErrNotFound) {
		reply := Reply{
			Text: fmt.Sprintf("Email %s was not found.\n\nPossible reasons:\n"+
				"- the email was mistyped\n- your lawyer has not added you yet\n- please contact your lawyer", email),
		}
		if b.supportURL != "" {
			reply.Buttons = []Button{{Label: "Chat with support", URL: b.supportURL}}
		}
		return reply
	}
	if err != nil {
		b.log.Error("Client lookup failed", "err", err)
		return Reply{Text: "System error. Please try again later."}
	}

	s.ClientID = client.ID
	s.ClientName = client.FullName

	pending, err := b.core.PendingForClient(ctx, client.ID)
	if err != nil {
		b.log.Error("Failed to list pending documents", "clientID", client.ID, "err", err)
		return Reply{Text: "System error. Please try again later."}
	}

	if len(pending) == 0 {
		return Reply{
			Text: fmt.Sprintf("Welcome, %s!\nThere are no documents to sign at the moment.\n"+
				"You will be notified by your lawyer.", client.FullName),
		}
	}
	return Reply{
		Text:    fmt.Sprintf("Welcome, %s!\nDocuments awaiting your signature: %d", client.FullName, len(pending)),
		Buttons: []Button{callbackButton("Open document", fmt.Sprintf("%s%d", callbackViewDocument, client.ID))},
	}
}

func (b *ClientBot) viewDocument(ctx context.Context, s *Session, arg string) Reply {
	clientID, ok := parseID(arg)
	if !ok {
		return Reply{Text: msgUnknownCommand}
	}
	if s.ClientID == 0 || clientID != s.ClientID {
		return Reply{Text: "Enter your email with /start first."}
	}

	pending, err := b.core.PendingForClient(ctx, clientID)
	if err != nil {
		b.log.Error("Failed to list pending documents", "clientID", clientID, "err", err)
		return Reply{Text: "Failed to load the document."}
	}
	if len(pending) == 0 {
		return Reply{Text: "Document not found or already signed."}
	}
	doc := pending[0]

	data, err := b.core.CurrentRevision(ctx, doc)
	if err != nil {
		if errors.Is(err, interfaces.ErrRevisionNotFound) {
			return Reply{Text: "The document file was not found on the server."}
		}
		return Reply{Text: "Failed to load the document."}
	}

	client, err := b.core.Client(ctx, clientID)
	if err != nil {
		b.log.Error("Client lookup failed", "clientID", clientID, "err", err)
		return Reply{Text: "Failed to load the document."}
	}

	s.DocumentID = doc.ID
	return Reply{
		Text: fmt.Sprintf("Document: %s\nFor: %s\nEmail: %s\nDocument ID: %s\nSigned by the lawyer\nAwaiting your signature",
			doc.OriginalName, client.FullName, client.Email, doc.DocumentHash),
		Buttons: []Button{callbackButton("Sign document", clientSignCallback(doc.ID))},
		Attachment: &Attachment{
			Filename: fmt.Sprintf("document_%d.pdf", doc.ID),
			Caption:  "Your document for signature",
			Data:     data,
		},
	}
}

func clientSignCallback(documentID int64) string {
	return fmt.Sprintf("%s%d", callbackClientSign, documentID)
}

func (b *ClientBot) requestSignature(ctx context.Context, s *Session, arg string) Reply {
	documentID, ok := parseID(arg)
	if !ok {
		return Reply{Text: msgUnknownCommand}
	}
	if s.ClientID == 0 {
		return Reply{Text: "Enter your email with /start first."}
	}

	doc, err := b.core.Document(ctx, documentID)
	if err != nil || doc.ClientID != s.ClientID {
		return Reply{Text: msgDocumentNotFound}
	}
	client, err := b.core.Client(ctx, s.ClientID)
	if err != nil {
		b.log.Error("Client lookup failed", "clientID", s.ClientID, "err", err)
		return Reply{Text: msgSystemError}
	}

	s.Step = StepIdle
	_, err = b.core.RequestCode(ctx, documentID, interfaces.RoleClient, clientSigner(client))
	switch {
	case err == nil:
	case errors.Is(err, interfaces.ErrNotEligible):
		return Reply{Text: "The document has not been signed by the lawyer yet."}
	case errors.Is(err, interfaces.ErrAlreadySigned):
		return Reply{Text: msgAlreadySigned}
	case errors.Is(err, interfaces.ErrDeliveryFailed):
		return Reply{
			Text:    msgDeliveryFailed,
			Buttons: []Button{callbackButton("Try again", clientSignCallback(documentID))},
		}
	default:
		b.log.Error("Failed to request signature code", "documentID", documentID, "role", interfaces.RoleClient, "err", err)
		return Reply{Text: msgSystemError}
	}

	s.Step = StepAwaitCode
	s.DocumentID = documentID
	s.Role = interfaces.RoleClient
	s.ClientName = client.FullName
	return Reply{Text: codeSentText(client.Email) + "\n\nRecipient: " + client.FullName}
}

func (b *ClientBot) submitCode(ctx context.Context, s *Session, candidate string) Reply {
	documentID := s.DocumentID

	client, err := b.core.Client(ctx, s.ClientID)
	if err != nil {
		b.log.Error("Client lookup failed", "clientID", s.ClientID, "err", err)
		s.Reset()
		return Reply{Text: msgSystemError}
	}

	result, err := b.core.Sign(ctx, documentID, interfaces.RoleClient, clientSigner(client), candidate)
	if err != nil {
		b.log.Error("Client signature failed", "documentID", documentID, "role", interfaces.RoleClient, "err", err)
		s.Reset()
		return signError(err)
	}

	if !result.Signed() {
		reply, clear := rejectedCode(result.Outcome, clientSignCallback(documentID))
		if clear {
			s.Reset()
		}
		return reply
	}

	s.Reset()
	reply := Reply{
		Text: fmt.Sprintf("Document signed!\n\n%s, your signature has been added to the document.\n"+
			"Signing is complete. Use /start to check other documents.", client.FullName),
	}

	data, err := b.core.CurrentRevision(ctx, result.Document)
	if err != nil {
		b.log.Error("Failed to load final revision", "documentID", documentID, "err", err)
		return reply
	}
	reply.Attachment = &Attachment{
		Filename: fmt.Sprintf("signed_document_%d.pdf", documentID),
		Caption:  "Document signed by you and the lawyer",
		Data:     data,
	}
	return reply
}

func clientSigner(c interfaces.Client) signing.Signer {
	return signing.Signer{Name: c.FullName, Email: c.Email}
}
