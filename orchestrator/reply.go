package orchestrator

// Button is an inline button. Exactly one of Callback and URL is set.
type Button struct {
	Label    string `json:"label"`
	Callback string `json:"callback,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Attachment is a file sent along with a reply.
type Attachment struct {
	Filename string `json:"filename"`
	Caption  string `json:"caption,omitempty"`
	Data     []byte `json:"data"`
}

// Reply is what a bot answers to one event.
type Reply struct {
	Text       string      `json:"text"`
	Buttons    []Button    `json:"buttons,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Upload is a file sent by the user.
type Upload struct {
	Filename string
	MimeType string
	Size     int64
	Data     []byte
}

func callbackButton(label, callback string) Button {
	return Button{Label: label, Callback: callback}
}
