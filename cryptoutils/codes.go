package cryptoutils

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ruteri/lawsign-backend/interfaces"
)

// GenerateCode returns a one-time code of interfaces.CodeLength characters
// drawn uniformly from interfaces.CodeAlphabet.
func GenerateCode() (string, error) {
	return generateCode(rand.Reader)
}

func generateCode(r io.Reader) (string, error) {
	alphabet := big.NewInt(int64(len(interfaces.CodeAlphabet)))
	var sb strings.Builder
	sb.Grow(interfaces.CodeLength)
	for i := 0; i < interfaces.CodeLength; i++ {
		n, err := rand.Int(r, alphabet)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		sb.WriteByte(interfaces.CodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// NormalizeCode trims whitespace and upper-cases a user supplied code.
func NormalizeCode(candidate string) string {
	return strings.ToUpper(strings.TrimSpace(candidate))
}

// EqualCodes compares a stored code and a candidate case-insensitively in constant time.
func EqualCodes(stored, candidate string) bool {
	a := []byte(NormalizeCode(stored))
	b := []byte(NormalizeCode(candidate))
	return subtle.ConstantTimeCompare(a, b) == 1
}
