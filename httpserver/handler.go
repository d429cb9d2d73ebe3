package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/lawsign-backend/api"
	"github.com/ruteri/lawsign-backend/interfaces"
	"github.com/ruteri/lawsign-backend/orchestrator"
)

const (
	// maxBodySize is the maximum allowed size of a JSON request body (1MB).
	maxBodySize = 1024 * 1024

	// multipartOverhead is added to the intake limit for form fields and boundaries.
	multipartOverhead = 1024 * 1024
)

// RequestError provides structured error information for HTTP responses.
// It includes both an HTTP status code and the underlying error.
type RequestError struct {
	// StatusCode is the HTTP status code to return.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error returns the error message from the underlying error.
func (e *RequestError) Error() string {
	return e.Err.Error()
}

// PendingLister lists the documents awaiting a client's signature.
type PendingLister interface {
	PendingForClient(ctx context.Context, clientID int64) ([]interfaces.Document, error)
}

// Handler translates HTTP requests into bot events.
type Handler struct {
	bots      map[string]orchestrator.Bot
	pending   PendingLister
	maxUpload int64
	log       *slog.Logger
}

// NewHandler creates a handler serving the lawyer and client bots.
//
// Parameters:
//   - lawyer: bot served under /api/bots/lawyer
//   - client: bot served under /api/bots/client
//   - pending: source of the pending document listing
//   - maxUpload: upload body limit in bytes, zero for the default
//   - log: structured logger
func NewHandler(lawyer, client orchestrator.Bot, pending PendingLister, maxUpload int64, log *slog.Logger) *Handler {
	if maxUpload <= 0 {
		maxUpload = interfaces.MaxUploadSize + multipartOverhead
	}
	return &Handler{
		bots: map[string]orchestrator.Bot{
			api.BotLawyer: lawyer,
			api.BotClient: client,
		},
		pending:   pending,
		maxUpload: maxUpload,
		log:       log,
	}
}

func (h *Handler) bot(r *http.Request) (orchestrator.Bot, error) {
	name := chi.URLParam(r, "bot")
	bot, ok := h.bots[name]
	if !ok || bot == nil {
		return nil, &RequestError{StatusCode: http.StatusNotFound, Err: fmt.Errorf("unknown bot %q", name)}
	}
	return bot, nil
}

// HandleStart resets the chat and returns the bot's greeting.
//
// URL format: POST /api/bots/{bot}/start
// Request body: api.StartRequest
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	bot, err := h.bot(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req api.StartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := validChatID(req.ChatID); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeReply(w, bot.Start(r.Context(), req.ChatID))
}

// HandleText delivers a text message.
//
// URL format: POST /api/bots/{bot}/text
// Request body: api.TextRequest
func (h *Handler) HandleText(w http.ResponseWriter, r *http.Request) {
	bot, err := h.bot(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req api.TextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := validChatID(req.ChatID); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeReply(w, bot.HandleText(r.Context(), req.ChatID, req.Text))
}

// HandleCallback delivers a button press.
//
// URL format: POST /api/bots/{bot}/callback
// Request body: api.CallbackRequest
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	bot, err := h.bot(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req api.CallbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := validChatID(req.ChatID); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Data == "" {
		h.writeError(w, &RequestError{StatusCode: http.StatusBadRequest, Err: errors.New("missing callback data")})
		return
	}

	h.writeReply(w, bot.HandleCallback(r.Context(), req.ChatID, req.Data))
}

// HandleUpload delivers a file.
//
// URL format: POST /api/bots/{bot}/upload
// Request body: multipart/form-data with a chat_id field and a file part.
// The part's Content-Type header is passed to the bot as the MIME type.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	bot, err := h.bot(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			h.writeError(w, &RequestError{StatusCode: http.StatusRequestEntityTooLarge, Err: err})
			return
		}
		h.writeError(w, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("invalid multipart form: %w", err)})
		return
	}
	defer r.MultipartForm.RemoveAll()

	chatID, err := strconv.ParseInt(r.FormValue(api.UploadChatIDField), 10, 64)
	if err != nil {
		h.writeError(w, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("invalid chat_id: %w", err)})
		return
	}
	if err := validChatID(chatID); err != nil {
		h.writeError(w, err)
		return
	}

	file, header, err := r.FormFile(api.UploadFileField)
	if err != nil {
		h.writeError(w, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("missing file: %w", err)})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("reading file: %w", err)})
		return
	}

	reply := bot.HandleUpload(r.Context(), chatID, orchestrator.Upload{
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Size:     header.Size,
		Data:     data,
	})
	h.writeReply(w, reply)
}

// HandlePending lists the documents awaiting a client's signature.
//
// URL format: GET /api/clients/{client_id}/pending
func (h *Handler) HandlePending(w http.ResponseWriter, r *http.Request) {
	clientID, err := strconv.ParseInt(chi.URLParam(r, "client_id"), 10, 64)
	if err != nil || clientID <= 0 {
		h.writeError(w, &RequestError{StatusCode: http.StatusBadRequest, Err: errors.New("invalid client id")})
		return
	}

	docs, err := h.pending.PendingForClient(r.Context(), clientID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := api.PendingResponse{ClientID: clientID, Documents: make([]api.PendingDocument, 0, len(docs))}
	for _, doc := range docs {
		resp.Documents = append(resp.Documents, api.PendingDocument{
			ID:             doc.ID,
			OriginalName:   doc.OriginalName,
			DocumentHash:   doc.DocumentHash,
			LawyerName:     doc.LawyerName,
			LawyerSignedAt: doc.LawyerSignedAt,
			CreatedAt:      doc.CreatedAt,
		})
	}
	h.writeJSON(w, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("invalid request body: %w", err)}
	}
	return nil
}

func validChatID(chatID int64) error {
	if chatID == 0 {
		return &RequestError{StatusCode: http.StatusBadRequest, Err: errors.New("missing chat_id")}
	}
	return nil
}

func toAPIReply(reply orchestrator.Reply) api.Reply {
	out := api.Reply{Text: reply.Text}
	for _, b := range reply.Buttons {
		out.Buttons = append(out.Buttons, api.Button{Label: b.Label, Callback: b.Callback, URL: b.URL})
	}
	if a := reply.Attachment; a != nil {
		out.Attachment = &api.Attachment{Filename: a.Filename, Caption: a.Caption, Data: a.Data}
	}
	return out
}

func (h *Handler) writeReply(w http.ResponseWriter, reply orchestrator.Reply) {
	h.writeJSON(w, toAPIReply(reply))
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// writeError maps err to a status code and writes it as plain text.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var reqErr *RequestError
	switch {
	case errors.As(err, &reqErr):
		status = reqErr.StatusCode
	case errors.Is(err, interfaces.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, interfaces.ErrStorage):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "status", status, "err", err)
	} else {
		h.log.Debug("Request rejected", "status", status, "err", err)
	}
	http.Error(w, err.Error(), status)
}
