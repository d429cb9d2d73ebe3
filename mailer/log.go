package mailer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ruteri/lawsign-backend/interfaces"
)

// LogMailer logs messages instead of delivering them. Codes end up in the
// log, so it must not be used in production.
type LogMailer struct {
	log *slog.Logger
}

// NewLogMailer creates a mailer that writes every message to log.
func NewLogMailer(log *slog.Logger) *LogMailer {
	log.Warn("SMTP is not configured, signature codes will be written to the log")
	return &LogMailer{log: log}
}

// Send logs the message and always succeeds.
func (m *LogMailer) Send(ctx context.Context, msg interfaces.Message) error {
	m.log.Info("Email (not sent)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body))
	return nil
}

// Recorder keeps sent messages in memory. SetErr makes every send fail.
type Recorder struct {
	mu       sync.Mutex
	messages []interfaces.Message
	err      error
}

// Send records msg, or fails with the error set by SetErr.
func (r *Recorder) Send(ctx context.Context, msg interfaces.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

// SetErr changes the failure returned by subsequent sends.
func (r *Recorder) SetErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Messages returns a copy of everything sent so far.
func (r *Recorder) Messages() []interfaces.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]interfaces.Message(nil), r.messages...)
}

// Last returns the most recent message.
func (r *Recorder) Last() (interfaces.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return interfaces.Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}
