package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/lawsign-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRoster(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lawyers.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"chat_id": 1001, "full_name": "Anna Lawyer", "email": "anna@lawfirm.example"},
		{"chat_id": 1002, "full_name": "Boris Counsel", "email": "boris@lawfirm.example"}
	]`), 0o600))

	roster, err := LoadRoster(path)
	require.NoError(t, err)
	assert.Equal(t, 2, roster.Len())

	lawyer, ok := roster.Lookup(1002)
	require.True(t, ok)
	assert.Equal(t, "Boris Counsel", lawyer.FullName)

	_, ok = roster.Lookup(7)
	assert.False(t, ok)

	_, err = LoadRoster(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestNewRoster_Invalid(t *testing.T) {
	_, err := NewRoster(testLawyer, testLawyer)
	assert.ErrorContains(t, err, "duplicate")

	_, err = NewRoster(Lawyer{ChatID: 5, FullName: "No Mail"})
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	assert.True(t, validEmail("first.last+tag@sub.example.org"))
	assert.False(t, validEmail("first@localhost"))
	assert.False(t, validEmail("@example.com"))

	assert.True(t, validName("Li"))
	assert.True(t, validName("Юл"))
	assert.False(t, validName(" J "))

	assert.NoError(t, validateUpload(pdfUpload("a.pdf")))
	assert.ErrorIs(t, validateUpload(Upload{MimeType: "image/png", Data: []byte("x")}), interfaces.ErrInvalidUpload)
	assert.ErrorIs(t, validateUpload(Upload{MimeType: interfaces.PDFMimeType}), interfaces.ErrInvalidUpload)
	assert.ErrorIs(t, validateUpload(Upload{MimeType: interfaces.PDFMimeType, Size: interfaces.MaxUploadSize + 1, Data: []byte("x")}), interfaces.ErrInvalidUpload)
}

func TestCallbackRouter(t *testing.T) {
	var r callbackRouter
	var got []string
	record := func(name string) callbackHandler {
		return func(_ context.Context, _ *Session, arg string) Reply {
			got = append(got, name+":"+arg)
			return Reply{}
		}
	}
	r.Exact("add_client", record("add"))
	r.Prefix("client_sign_", record("client"))
	r.Prefix("sign_", record("sign"))

	for _, data := range []string{"add_client", "client_sign_7", "sign_3", "add_client_x"} {
		r.dispatch(context.Background(), &Session{}, data)
	}
	assert.Equal(t, []string{"add:", "client:7", "sign:3"}, got)

	id, ok := parseID("42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
	_, ok = parseID("-1")
	assert.False(t, ok)
}
