package orchestrator

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ruteri/lawsign-backend/interfaces"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const minNameLength = 2

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func validName(name string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(name)) >= minNameLength
}

// validateUpload accepts PDFs up to interfaces.MaxUploadSize.
func validateUpload(u Upload) error {
	if u.MimeType != interfaces.PDFMimeType {
		return fmt.Errorf("%w: mime type %q", interfaces.ErrInvalidUpload, u.MimeType)
	}
	size := u.Size
	if n := int64(len(u.Data)); n > size {
		size = n
	}
	if size > interfaces.MaxUploadSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", interfaces.ErrInvalidUpload, size, interfaces.MaxUploadSize)
	}
	if len(u.Data) == 0 {
		return fmt.Errorf("%w: empty file", interfaces.ErrInvalidUpload)
	}
	return nil
}
