// Package cryptoutils provides the small cryptographic primitives used by the
// signing workflow.
//
// # Document Hash
//
// GenerateDocumentHash derives the identifier printed in every stamp. It is a
// BLAKE2b-128 digest of the client id, the original filename and a nanosecond
// timestamp, hex encoded to 32 characters:
//
//	blake2b-128("<clientID>_<filename>_<unix nanos>")
//
// The identifier is unique per intake with overwhelming probability. It is NOT
// a hash of the PDF content and therefore does not detect tampering with the
// file; it exists for display and audit correlation only.
//
// # One-Time Codes
//
// GenerateCode draws CodeLength characters uniformly from CodeAlphabet using
// crypto/rand. EqualCodes compares a stored code with a user supplied candidate
// case-insensitively and in constant time.
package cryptoutils
