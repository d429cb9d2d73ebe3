package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"github.com/ruteri/lawsign-backend/api"
	"github.com/ruteri/lawsign-backend/interfaces"
)

// BotClient sends the events of one chat to one bot.
type BotClient struct {
	baseURL    string
	bot        string
	chatID     int64
	httpClient *http.Client
}

// NewBotClient creates a client for bot (api.BotLawyer or api.BotClient).
//
// Parameters:
//   - baseURL: The base URL of the server (e.g., "http://localhost:8080")
//   - bot: The bot name
//   - chatID: The chat user id events are sent as
//   - timeout: Request timeout duration (optional, default 30 seconds)
func NewBotClient(baseURL, bot string, chatID int64, timeout ...time.Duration) *BotClient {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &BotClient{
		baseURL:    baseURL,
		bot:        bot,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

// Start resets the chat.
func (c *BotClient) Start(ctx context.Context) (*api.Reply, error) {
	return c.postJSON(ctx, "start", api.StartRequest{ChatID: c.chatID})
}

// Text sends a typed message.
func (c *BotClient) Text(ctx context.Context, text string) (*api.Reply, error) {
	return c.postJSON(ctx, "text", api.TextRequest{ChatID: c.chatID, Text: text})
}

// Callback presses the button carrying data.
func (c *BotClient) Callback(ctx context.Context, data string) (*api.Reply, error) {
	return c.postJSON(ctx, "callback", api.CallbackRequest{ChatID: c.chatID, Data: data})
}

// Upload sends a PDF file.
func (c *BotClient) Upload(ctx context.Context, filename string, data []byte) (*api.Reply, error) {
	return c.UploadAs(ctx, filename, interfaces.PDFMimeType, data)
}

// UploadAs sends a file with an explicit content type.
func (c *BotClient) UploadAs(ctx context.Context, filename, contentType string, data []byte) (*api.Reply, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField(api.UploadChatIDField, strconv.FormatInt(c.chatID, 10)); err != nil {
		return nil, err
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, api.UploadFileField, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.botURL("upload"), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var reply api.Reply
	if err := c.do(req, &reply); err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	return &reply, nil
}

// Pending lists the documents awaiting clientID's signature.
func (c *BotClient) Pending(ctx context.Context, clientID int64) (*api.PendingResponse, error) {
	url := fmt.Sprintf("%s/api/clients/%d/pending", c.baseURL, clientID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var resp api.PendingResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("pending request failed: %w", err)
	}
	return &resp, nil
}

func (c *BotClient) botURL(event string) string {
	return fmt.Sprintf("%s/api/bots/%s/%s", c.baseURL, c.bot, event)
}

func (c *BotClient) postJSON(ctx context.Context, event string, payload any) (*api.Reply, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.botURL(event), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var reply api.Reply
	if err := c.do(req, &reply); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", event, err)
	}
	return &reply, nil
}

func (c *BotClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not parse response: %w", err)
	}
	return nil
}
