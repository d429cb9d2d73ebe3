package stamp

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/ruteri/lawsign-backend/interfaces"
)

// Revision names the revision a signature produces.
type Revision int

const (
	// RevisionSigned follows the lawyer's signature.
	RevisionSigned Revision = iota + 1
	// RevisionFinal follows the client's signature.
	RevisionFinal
)

// RevisionFor maps the signing role to the revision it produces.
func RevisionFor(role interfaces.Role) Revision {
	if role == interfaces.RoleClient {
		return RevisionFinal
	}
	return RevisionSigned
}

func (r Revision) suffix() string {
	switch r {
	case RevisionSigned:
		return "_signed"
	case RevisionFinal:
		return "_final"
	default:
		return "_rev"
	}
}

func (r Revision) String() string {
	return strings.TrimPrefix(r.suffix(), "_")
}

// RevisionKey derives the key of the next revision from the current one:
// "<base>_signed.pdf" or "<base>_final.pdf".
func RevisionKey(currentKey string, rev Revision) string {
	base := currentKey
	if ext := path.Ext(currentKey); strings.EqualFold(ext, ".pdf") {
		base = strings.TrimSuffix(currentKey, ext)
	}
	return base + rev.suffix() + ".pdf"
}

// OriginalKey names the uploaded original: "<clientID>_<8 hex chars>_<filename>".
func OriginalKey(clientID int64, filename string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d_%s_%s", clientID, id, sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == '/', r == ':':
			return '_'
		default:
			return r
		}
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "document.pdf"
	}
	return name
}
