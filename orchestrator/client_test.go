package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ruteri/lawsign-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clientChat = 2002

func TestClientBot_UnknownEmail(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.client.Start(ctx, clientChat)
	reply := f.client.HandleText(ctx, clientChat, "Nobody@Example.com")
	assert.Contains(t, reply.Text, "nobody@example.com was not found")
	require.Len(t, reply.Buttons, 1)
	assert.Equal(t, "https://support.example/chat", reply.Buttons[0].URL)
	assert.Equal(t, StepIdle, f.client.Sessions().Get(clientChat).Step)
}

func TestClientBot_NothingPending(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()
	doc := f.intake(t, "ivan@example.com", "Ivan Petrov")

	f.client.Start(ctx, clientChat)
	reply := f.client.HandleText(ctx, clientChat, "ivan@example.com")
	assert.Contains(t, reply.Text, "no documents to sign")
	assert.Empty(t, reply.Buttons)

	// the client cannot get ahead of the lawyer
	reply = f.client.HandleCallback(ctx, clientChat, clientSignCallback(doc.ID))
	assert.Contains(t, reply.Text, "not been signed by the lawyer")
	assert.Empty(t, f.mailer.Messages())
}

func TestClientBot_SignFlow(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()
	doc := f.intake(t, "ivan@example.com", "Ivan Petrov")
	f.lawyerSigns(t, doc)

	f.client.Start(ctx, clientChat)
	reply := f.client.HandleText(ctx, clientChat, "IVAN@example.com")
	assert.Contains(t, reply.Text, "Welcome, Ivan Petrov!")
	assert.Contains(t, reply.Text, "awaiting your signature: 1")
	require.Len(t, reply.Buttons, 1)
	viewCallback := reply.Buttons[0].Callback
	assert.Equal(t, fmt.Sprintf("view_doc_%d", doc.ClientID), viewCallback)

	other := f.client.HandleCallback(ctx, clientChat, fmt.Sprintf("view_doc_%d", doc.ClientID+1))
	assert.Nil(t, other.Attachment)

	reply = f.client.HandleCallback(ctx, clientChat, viewCallback)
	assert.Contains(t, reply.Text, doc.DocumentHash)
	require.NotNil(t, reply.Attachment)
	assert.NotEmpty(t, reply.Attachment.Data)
	require.Len(t, reply.Buttons, 1)
	assert.Equal(t, clientSignCallback(doc.ID), reply.Buttons[0].Callback)

	f.queueCodes("CL1ENT")
	reply = f.client.HandleCallback(ctx, clientChat, clientSignCallback(doc.ID))
	assert.Contains(t, reply.Text, "Code sent to ivan@example.com")
	assert.Contains(t, reply.Text, "Recipient: Ivan Petrov")

	msg, ok := f.mailer.Last()
	require.True(t, ok)
	assert.Equal(t, "ivan@example.com", msg.To)

	reply = f.client.HandleText(ctx, clientChat, "WRONG1")
	assert.Contains(t, reply.Text, "Attempts: 1/3")

	reply = f.client.HandleText(ctx, clientChat, "cl1ent")
	assert.Contains(t, reply.Text, "Document signed!")
	require.NotNil(t, reply.Attachment)
	assert.Equal(t, fmt.Sprintf("signed_document_%d.pdf", doc.ID), reply.Attachment.Filename)

	stored, err := f.core.Document(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, interfaces.StateFullySigned, stored.State())

	final, err := f.core.CurrentRevision(ctx, stored)
	require.NoError(t, err)
	assert.Equal(t, final, reply.Attachment.Data)

	assert.Equal(t, msgStartFirst, f.client.HandleText(ctx, clientChat, "cl1ent").Text)
}

func TestClientBot_ForeignDocument(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()
	mine := f.intake(t, "ivan@example.com", "Ivan Petrov")
	theirs := f.intake(t, "olga@example.com", "Olga Smirnova")
	f.lawyerSigns(t, mine)
	f.lawyerSigns(t, theirs)

	assert.Contains(t, f.client.HandleCallback(ctx, clientChat, clientSignCallback(mine.ID)).Text, "/start")

	f.client.Start(ctx, clientChat)
	f.client.HandleText(ctx, clientChat, "ivan@example.com")

	reply := f.client.HandleCallback(ctx, clientChat, clientSignCallback(theirs.ID))
	assert.Equal(t, msgDocumentNotFound, reply.Text)
	assert.Len(t, f.mailer.Messages(), 2, "only the lawyer codes were sent")
}

func TestClientBot_DeliveryFailure(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()
	doc := f.intake(t, "ivan@example.com", "Ivan Petrov")
	f.lawyerSigns(t, doc)

	f.client.Start(ctx, clientChat)
	f.client.HandleText(ctx, clientChat, "ivan@example.com")

	f.mailer.SetErr(errors.New("relay down"))
	f.queueCodes("CL1ENT")
	reply := f.client.HandleCallback(ctx, clientChat, clientSignCallback(doc.ID))
	assert.Equal(t, msgDeliveryFailed, reply.Text)
	require.Len(t, reply.Buttons, 1)
	assert.Equal(t, clientSignCallback(doc.ID), reply.Buttons[0].Callback)

	assert.Equal(t, msgUploadsIgnored, f.client.HandleUpload(ctx, clientChat, pdfUpload("x.pdf")).Text)
}
