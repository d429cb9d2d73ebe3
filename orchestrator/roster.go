package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Lawyer is an authorised lawyer, keyed by chat user id.
type Lawyer struct {
	ChatID   int64  `json:"chat_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Roster is the set of lawyers allowed to use the lawyer bot.
type Roster struct {
	lawyers map[int64]Lawyer
}

// NewRoster builds a roster from lawyers. Duplicate chat ids are rejected.
func NewRoster(lawyers ...Lawyer) (*Roster, error) {
	r := &Roster{lawyers: make(map[int64]Lawyer, len(lawyers))}
	for _, l := range lawyers {
		if _, dup := r.lawyers[l.ChatID]; dup {
			return nil, fmt.Errorf("duplicate lawyer chat id %d", l.ChatID)
		}
		if strings.TrimSpace(l.FullName) == "" || !validEmail(l.Email) {
			return nil, fmt.Errorf("lawyer %d needs a name and a valid email", l.ChatID)
		}
		r.lawyers[l.ChatID] = l
	}
	return r, nil
}

// LoadRoster reads a JSON array of lawyers from path.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}

	var lawyers []Lawyer
	if err := json.Unmarshal(data, &lawyers); err != nil {
		return nil, fmt.Errorf("parsing roster %s: %w", path, err)
	}
	return NewRoster(lawyers...)
}

// Lookup returns the lawyer for chatID.
func (r *Roster) Lookup(chatID int64) (Lawyer, bool) {
	l, ok := r.lawyers[chatID]
	return l, ok
}

// Len returns the number of lawyers.
func (r *Roster) Len() int {
	return len(r.lawyers)
}
