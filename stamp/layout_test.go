package stamp

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/ruteri/lawsign-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_Render(t *testing.T) {
	moscow, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	layout := DefaultLayout(moscow)

	lawyerAt := time.Date(2024, 3, 1, 9, 30, 15, 0, time.UTC)
	clientAt := time.Date(2024, 3, 2, 18, 5, 0, 0, time.UTC)

	t.Run("no signers", func(t *testing.T) {
		block := layout.Render(Facts{DocumentHash: "abc"})
		assert.Equal(t, 41.0, block.Height)
		require.Len(t, block.Lines, 2)
		assert.Equal(t, Line{Text: "Document signed with a simple electronic signature", Bold: true}, block.Lines[0])
		assert.Equal(t, Line{Text: "Document ID: abc"}, block.Lines[1])
	})

	t.Run("lawyer signed", func(t *testing.T) {
		facts := Facts{DocumentHash: "abc"}.With(interfaces.RoleLawyer, SignerFacts{Name: "Anna Lawyer", SignedAt: lawyerAt})
		block := layout.Render(facts)

		assert.Equal(t, 62.0, block.Height)
		assert.Equal(t, 54.0, block.X)
		assert.Equal(t, 50.0, block.Y)
		assert.Equal(t, 303.0, block.Width)
		assert.Equal(t, []Line{
			{Text: "Document signed with a simple electronic signature", Bold: true},
			{Text: "Document ID: abc"},
			{Text: "Lawyer", Bold: true},
			{Text: "Signer: Anna Lawyer"},
			{Text: "Signed at: 01.03.2024 12:30:15 MSK"},
		}, block.Lines)
	})

	t.Run("both signed", func(t *testing.T) {
		facts := Facts{DocumentHash: "abc"}.
			With(interfaces.RoleLawyer, SignerFacts{Name: "Anna Lawyer", SignedAt: lawyerAt}).
			With(interfaces.RoleClient, SignerFacts{Name: "Ivan Petrov", SignedAt: clientAt})
		block := layout.Render(facts)

		assert.Equal(t, 83.0, block.Height)
		require.Len(t, block.Lines, 8)
		assert.Equal(t, Line{Text: "Client", Bold: true}, block.Lines[5])
		assert.Equal(t, "Signer: Ivan Petrov", block.Lines[6].Text)
		assert.Equal(t, "Signed at: 02.03.2024 21:05:00 MSK", block.Lines[7].Text)
	})
}

func TestFactsFor(t *testing.T) {
	signedAt := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	doc := interfaces.Document{
		DocumentHash:   "abc",
		LawyerSigned:   true,
		LawyerName:     "Anna Lawyer",
		LawyerSignedAt: signedAt,
	}

	facts := FactsFor(doc, "Ivan Petrov")
	require.NotNil(t, facts.Lawyer)
	assert.Equal(t, "Anna Lawyer", facts.Lawyer.Name)
	assert.Nil(t, facts.Client)

	withClient := facts.With(interfaces.RoleClient, SignerFacts{Name: "Ivan Petrov", SignedAt: signedAt})
	assert.NotNil(t, withClient.Client)
	assert.Nil(t, facts.Client, "With does not modify the receiver")
}
