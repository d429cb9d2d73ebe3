package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// RevisionLocation represents the URI of a revision storage backend.
type RevisionLocation struct {
	Raw    string     // Original URI
	Scheme string     // Protocol
	Host   string     // Hostname or bucket
	Path   string     // Resource path
	Query  url.Values // Query parameters
	Auth   string     // Authentication info
}

// NewRevisionLocation creates a new storage location from a URI string with validation.
func NewRevisionLocation(uri string) (RevisionLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return RevisionLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	switch scheme {
	case "file", "s3", "ipfs":
	default:
		return RevisionLocation{}, fmt.Errorf("%w: unsupported storage scheme: %q", ErrInvalidLocationURI, parsed.Scheme)
	}

	var auth string
	if parsed.User != nil {
		auth = parsed.User.String()
	}

	return RevisionLocation{
		Raw:    uri,
		Scheme: scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
		Auth:   auth,
	}, nil
}

// String returns the original URI string.
func (loc RevisionLocation) String() string {
	return loc.Raw
}

// GetParam returns a query parameter value.
func (loc RevisionLocation) GetParam(name string) string {
	return loc.Query.Get(name)
}

// GetParamBool returns a boolean query parameter value.
func (loc RevisionLocation) GetParamBool(name string) bool {
	value := loc.Query.Get(name)
	return value == "true" || value == "1" || value == "yes"
}

var (
	// ErrRevisionNotFound is returned when a requested revision does not exist in a backend.
	ErrRevisionNotFound = errors.New("revision not found")

	// ErrBackendUnavailable is returned when a storage backend is not accessible.
	// This could be due to network issues, authentication failures, or service outages.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned when a storage location URI is malformed or unsupported.
	// URIs must follow the format: [scheme]://[auth@]host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid storage location URI")

	// ErrInvalidRevisionKey is returned for keys that are empty or escape the backend root.
	ErrInvalidRevisionKey = errors.New("invalid revision key")
)

// CleanRevisionKey normalises a revision key and rejects keys that are empty,
// absolute or that would escape the backend root.
func CleanRevisionKey(key string) (string, error) {
	cleaned := path.Clean(strings.ReplaceAll(key, "\\", "/"))
	if cleaned == "." || cleaned == "" || strings.HasPrefix(cleaned, "/") || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRevisionKey, key)
	}
	return cleaned, nil
}

// RevisionBackend stores PDF revisions under string keys. Revisions are
// written once and never modified; a new signature produces a new key.
type RevisionBackend interface {
	// Fetch retrieves a revision by key.
	Fetch(ctx context.Context, key string) ([]byte, error)

	// Store writes a revision under key.
	Store(ctx context.Context, key string, data []byte) error

	// Delete removes a revision. Used only to discard a revision that was
	// written but never committed.
	Delete(ctx context.Context, key string) error

	// Available checks if backend is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this backend.
	LocationURI() string
}

// RevisionBackendFactory creates revision storage backends.
type RevisionBackendFactory interface {
	// BackendFor creates backend from URI.
	// Supports file://, s3://, ipfs://
	BackendFor(location RevisionLocation) (RevisionBackend, error)

	// CreateMultiBackend creates aggregated storage backend.
	CreateMultiBackend(locations []RevisionLocation) (RevisionBackend, error)
}
