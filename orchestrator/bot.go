package orchestrator

import (
	"context"

	"github.com/ruteri/lawsign-backend/interfaces"
	"github.com/ruteri/lawsign-backend/signing"
)

// Bot reacts to the events of one chat.
type Bot interface {
	Start(ctx context.Context, chatID int64) Reply
	HandleText(ctx context.Context, chatID int64, text string) Reply
	HandleCallback(ctx context.Context, chatID int64, data string) Reply
	HandleUpload(ctx context.Context, chatID int64, upload Upload) Reply
}

// Signing is the part of the signing core the bots call into.
type Signing interface {
	Intake(ctx context.Context, req signing.IntakeRequest) (interfaces.Document, interfaces.Client, error)
	RequestCode(ctx context.Context, documentID int64, role interfaces.Role, signer signing.Signer) (interfaces.SignatureCode, error)
	Sign(ctx context.Context, documentID int64, role interfaces.Role, signer signing.Signer, candidate string) (signing.SignResult, error)
	PendingForClient(ctx context.Context, clientID int64) ([]interfaces.Document, error)
	CurrentRevision(ctx context.Context, doc interfaces.Document) ([]byte, error)
	Document(ctx context.Context, documentID int64) (interfaces.Document, error)
	ClientByEmail(ctx context.Context, email string) (interfaces.Client, error)
	Client(ctx context.Context, id int64) (interfaces.Client, error)
}

var _ Signing = (*signing.Service)(nil)

const startCommand = "/start"
