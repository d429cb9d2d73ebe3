package api

import "time"

// Bot names used in request paths.
const (
	BotLawyer = "lawyer"
	BotClient = "client"
)

// Form field names of the upload endpoint.
const (
	UploadChatIDField = "chat_id"
	UploadFileField   = "file"
)

// StartRequest resets a chat.
type StartRequest struct {
	ChatID int64 `json:"chat_id"`
}

// TextRequest carries a text message typed by the user.
type TextRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// CallbackRequest carries the data of a pressed button.
type CallbackRequest struct {
	ChatID int64  `json:"chat_id"`
	Data   string `json:"data"`
}

// Button is an inline button in a reply.
type Button struct {
	Label    string `json:"label"`
	Callback string `json:"callback,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Attachment is a file attached to a reply. Data is base64 in JSON.
type Attachment struct {
	Filename string `json:"filename"`
	Caption  string `json:"caption,omitempty"`
	Data     []byte `json:"data"`
}

// Reply is a bot's answer to one event.
type Reply struct {
	Text       string      `json:"text"`
	Buttons    []Button    `json:"buttons,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// PendingDocument summarises a document awaiting the client's signature.
type PendingDocument struct {
	ID             int64     `json:"id"`
	OriginalName   string    `json:"original_name"`
	DocumentHash   string    `json:"document_hash"`
	LawyerName     string    `json:"lawyer_name"`
	LawyerSignedAt time.Time `json:"lawyer_signed_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// PendingResponse lists the documents awaiting a client, newest first.
type PendingResponse struct {
	ClientID  int64             `json:"client_id"`
	Documents []PendingDocument `json:"documents"`
}
