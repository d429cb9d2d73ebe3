package orchestrator

import (
	"errors"
	"fmt"

	"github.com/ruteri/lawsign-backend/interfaces"
)

const (
	msgAccessDenied     = "Access denied."
	msgUnknownCommand   = "Unknown command."
	msgStartFirst       = "Start the signing process from the menu first."
	msgSystemError      = "System error. Please try again."
	msgDocumentNotFound = "Document not found."
	msgUploadsIgnored   = "Files are not accepted here."
	msgDeliveryFailed   = "Failed to send the email. Please try again."
	msgAlreadySigned    = "The document is already signed."
	msgCodeNotFound     = "Code not found. Start the signing process again."
	msgCodeExpired      = "The code has expired. Start again."
	msgCodeExhausted    = "Too many attempts.\nRequest a new signature code."
	msgStampFailed      = "The signature stamp could not be added. The document was not signed, please try again."
	msgConflict         = "The document was changed in the meantime. Start again."
)

func codeSentText(email string) string {
	return fmt.Sprintf("Code sent to %s\n\nEnter the 6-character code here:\n(valid for 10 minutes)", email)
}

func mismatchText(outcome interfaces.VerifyOutcome) string {
	return fmt.Sprintf("Wrong code. Attempts: %d/%d\nAttempts left: %d\nEnter the code again:",
		outcome.AttemptsUsed, interfaces.MaxCodeAttempts, outcome.AttemptsRemaining)
}

func shortHash(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "..."
}

// rejectedCode translates a verification outcome that did not sign. It
// reports whether the session should be cleared and may add a reissue
// button pointing at reissue.
func rejectedCode(outcome interfaces.VerifyOutcome, reissue string) (Reply, bool) {
	switch outcome.Kind {
	case interfaces.OutcomeMismatch:
		return Reply{Text: mismatchText(outcome)}, false
	case interfaces.OutcomeExhausted:
		return Reply{
			Text:    msgCodeExhausted,
			Buttons: []Button{callbackButton("Request a new code", reissue)},
		}, true
	case interfaces.OutcomeExpired:
		return Reply{
			Text:    msgCodeExpired,
			Buttons: []Button{callbackButton("Request a new code", reissue)},
		}, true
	case interfaces.OutcomeNotFound:
		return Reply{Text: msgCodeNotFound}, true
	case interfaces.OutcomeAlreadySigned:
		return Reply{Text: msgAlreadySigned}, true
	default:
		return Reply{Text: msgSystemError}, true
	}
}

// signError translates a Sign error. All of them end the pending signature.
func signError(err error) Reply {
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		return Reply{Text: msgDocumentNotFound}
	case errors.Is(err, interfaces.ErrNotEligible):
		return Reply{Text: "The document is not ready for your signature yet."}
	case errors.Is(err, interfaces.ErrStampFailed):
		return Reply{Text: msgStampFailed}
	case errors.Is(err, interfaces.ErrConflict):
		return Reply{Text: msgConflict}
	default:
		return Reply{Text: msgSystemError}
	}
}
