package cryptoutils

import (
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"
)

// DocumentHashSize is the digest size in bytes; the hex form is twice as long.
const DocumentHashSize = 16

// GenerateDocumentHash derives a display identifier for a document instance.
//
// Parameters:
//   - clientID: owner of the document
//   - originalFilename: name of the uploaded file
//   - now: intake time, used as a salt so repeated filenames do not collide
//
// Returns a 32 character lowercase hex string.
func GenerateDocumentHash(clientID int64, originalFilename string, now time.Time) string {
	// New only fails for invalid sizes or oversized keys.
	h, err := blake2b.New(DocumentHashSize, nil)
	if err != nil {
		panic(fmt.Sprintf("blake2b: %v", err))
	}
	fmt.Fprintf(h, "%d_%s_%d", clientID, originalFilename, now.UnixNano())
	return hex.EncodeToString(h.Sum(nil))
}
