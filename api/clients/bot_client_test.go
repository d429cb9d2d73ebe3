package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ruteri/lawsign-backend/api"
	"github.com/ruteri/lawsign-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBotClient(t *testing.T) {
	var lastPath string
	var lastBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastPath = r.URL.Path
		lastBody = nil

		switch r.URL.Path {
		case "/api/bots/lawyer/upload":
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			file, header, err := r.FormFile(api.UploadFileField)
			assert.NoError(t, err)
			data, _ := io.ReadAll(file)
			json.NewEncoder(w).Encode(api.Reply{
				Text: r.FormValue(api.UploadChatIDField) + " " + header.Filename + " " + header.Header.Get("Content-Type") + " " + string(data),
			})
		case "/api/clients/5/pending":
			json.NewEncoder(w).Encode(api.PendingResponse{ClientID: 5, Documents: []api.PendingDocument{{ID: 9}}})
		case "/api/bots/lawyer/fail":
			http.Error(w, "nope", http.StatusTeapot)
		default:
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&lastBody))
			json.NewEncoder(w).Encode(api.Reply{
				Text:    "ok",
				Buttons: []api.Button{{Label: "Sign", Callback: "sign_1"}},
			})
		}
	}))
	defer server.Close()

	ctx := context.Background()
	c := NewBotClient(server.URL, api.BotLawyer, 1001)

	reply, err := c.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/api/bots/lawyer/start", lastPath)
	assert.Equal(t, float64(1001), lastBody["chat_id"])
	assert.Equal(t, "sign_1", reply.Buttons[0].Callback)

	_, err = c.Text(ctx, "AB12CD")
	require.NoError(t, err)
	assert.Equal(t, "/api/bots/lawyer/text", lastPath)
	assert.Equal(t, "AB12CD", lastBody["text"])

	_, err = c.Callback(ctx, "sign_1")
	require.NoError(t, err)
	assert.Equal(t, "sign_1", lastBody["data"])

	reply, err = c.Upload(ctx, "agreement.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "1001 agreement.pdf "+interfaces.PDFMimeType+" %PDF", reply.Text)

	pending, err := c.Pending(ctx, 5)
	require.NoError(t, err)
	require.Len(t, pending.Documents, 1)
	assert.Equal(t, int64(9), pending.Documents[0].ID)

	_, err = c.postJSON(ctx, "fail", api.StartRequest{ChatID: 1})
	assert.ErrorContains(t, err, "status 418: nope")
}
