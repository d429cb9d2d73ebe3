package interfaces

import (
	"fmt"
	"strings"
	"time"
)

const (
	// CodeLength is the number of characters in a one-time signature code.
	CodeLength = 6

	// CodeAlphabet is the set of characters a code is drawn from.
	CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// CodeTTL is how long an issued code stays valid.
	CodeTTL = 10 * time.Minute

	// MaxCodeAttempts is the number of wrong guesses after which a code is exhausted.
	MaxCodeAttempts = 3

	// MaxUploadSize is the largest PDF accepted at intake.
	MaxUploadSize = 20 * 1024 * 1024

	// PDFMimeType is the only MIME type accepted at intake.
	PDFMimeType = "application/pdf"
)

// Role identifies which party a signature or code belongs to.
type Role string

const (
	RoleLawyer Role = "lawyer"
	RoleClient Role = "client"
)

// ParseRole converts a stored role string back to a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(s)) {
	case RoleLawyer:
		return RoleLawyer, nil
	case RoleClient:
		return RoleClient, nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

func (r Role) String() string {
	return string(r)
}

// Client is the signing counterparty registered by a lawyer.
type Client struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentState is the signing lifecycle position of a document.
type DocumentState int

const (
	StateCreated DocumentState = iota
	StateLawyerSigned
	StateFullySigned
)

func (s DocumentState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateLawyerSigned:
		return "lawyer_signed"
	case StateFullySigned:
		return "fully_signed"
	default:
		return "unknown"
	}
}

// Document is a PDF under signature. FilePath always names the latest revision.
type Document struct {
	ID             int64     `json:"id"`
	ClientID       int64     `json:"client_id"`
	FilePath       string    `json:"file_path"`
	OriginalName   string    `json:"original_name"`
	DocumentHash   string    `json:"document_hash"`
	LawyerSigned   bool      `json:"lawyer_signed"`
	ClientSigned   bool      `json:"client_signed"`
	LawyerName     string    `json:"lawyer_name,omitempty"`
	LawyerSignedAt time.Time `json:"lawyer_signed_at,omitempty"`
	ClientSignedAt time.Time `json:"client_signed_at,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// State derives the lifecycle state from the signing flags.
func (d *Document) State() DocumentState {
	switch {
	case d.LawyerSigned && d.ClientSigned:
		return StateFullySigned
	case d.LawyerSigned:
		return StateLawyerSigned
	default:
		return StateCreated
	}
}

// SignedBy reports whether the given role has already signed.
func (d *Document) SignedBy(role Role) bool {
	switch role {
	case RoleLawyer:
		return d.LawyerSigned
	case RoleClient:
		return d.ClientSigned
	default:
		return false
	}
}

// SignatureCode is a one-time code issued for a (document, role) pair.
// Only the most recently created row per pair is authoritative.
type SignatureCode struct {
	ID         int64
	DocumentID int64
	Role       Role
	Code       string
	Attempts   int
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the code is past its TTL at the given instant.
func (c *SignatureCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Exhausted reports whether the attempt cap has been reached.
func (c *SignatureCode) Exhausted() bool {
	return c.Attempts >= MaxCodeAttempts
}

// SignatureCommit carries everything persisted when a signature succeeds.
// PrevFilePath guards the update: the commit only applies if the document
// still points at the revision the stamp was composed from.
type SignatureCommit struct {
	DocumentID   int64
	Role         Role
	SignerName   string
	SignedAt     time.Time
	PrevFilePath string
	NewFilePath  string
}
