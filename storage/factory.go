package storage

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/lawsign-backend/interfaces"
)

// RevisionBackendFactory creates revision backends from location URIs and
// combines them into multi-backends for redundant storage.
type RevisionBackendFactory struct {
	log *slog.Logger
}

var _ interfaces.RevisionBackendFactory = (*RevisionBackendFactory)(nil)

// NewRevisionBackendFactory creates a new factory instance.
func NewRevisionBackendFactory(logger *slog.Logger) *RevisionBackendFactory {
	return &RevisionBackendFactory{log: logger}
}

// BackendFor creates a revision backend from a location.
//
// Supported schemes:
//   - file:// - Local upload directory
//   - s3:// - Amazon S3 or compatible object storage
//   - ipfs:// - IPFS node MFS
func (f *RevisionBackendFactory) BackendFor(location interfaces.RevisionLocation) (interfaces.RevisionBackend, error) {
	switch location.Scheme {
	case "ipfs":
		return f.createIPFSBackend(location)
	case "s3":
		return f.createS3Backend(location)
	case "file":
		return f.createFileBackend(location)
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme: %s", interfaces.ErrInvalidLocationURI, location.Scheme)
	}
}

// CreateMultiBackend aggregates all valid backends. Invalid locations are
// logged and skipped; an error is returned only if none could be created.
func (f *RevisionBackendFactory) CreateMultiBackend(locations []interfaces.RevisionLocation) (interfaces.RevisionBackend, error) {
	backends := make([]interfaces.RevisionBackend, 0, len(locations))

	for _, location := range locations {
		backend, err := f.BackendFor(location)
		if err != nil {
			f.log.Warn("Failed to create storage backend",
				"err", err,
				slog.String("locationURI", location.String()))
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no valid storage backends created")
	}
	if len(backends) == 1 {
		return backends[0], nil
	}

	return NewMultiRevisionBackend(backends, f.log), nil
}

// BackendFromURIs parses location URIs and builds a (multi-)backend from them.
func BackendFromURIs(uris []string, logger *slog.Logger) (interfaces.RevisionBackend, error) {
	locations := make([]interfaces.RevisionLocation, 0, len(uris))
	for _, uri := range uris {
		location, err := interfaces.NewRevisionLocation(uri)
		if err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}
	return NewRevisionBackendFactory(logger).CreateMultiBackend(locations)
}

// createIPFSBackend creates an IPFS MFS backend.
// URI format: ipfs://host:port/mfs/root?timeout=30s
func (f *RevisionBackendFactory) createIPFSBackend(location interfaces.RevisionLocation) (interfaces.RevisionBackend, error) {
	f.log.Debug("Creating IPFS backend", slog.String("uri", location.String()))

	host, port := location.Host, "5001"
	if i := strings.LastIndex(location.Host, ":"); i >= 0 {
		host, port = location.Host[:i], location.Host[i+1:]
	}

	timeout := 30 * time.Second
	if raw := location.GetParam("timeout"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid timeout %q", interfaces.ErrInvalidLocationURI, raw)
		}
		timeout = parsed
	}

	return NewIPFSBackend(host, port, location.Path, timeout, f.log)
}

// createS3Backend creates an S3 or S3-compatible storage backend.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/prefix/?region=eu-central-1&endpoint=minio:9000&path_style=true
func (f *RevisionBackendFactory) createS3Backend(location interfaces.RevisionLocation) (interfaces.RevisionBackend, error) {
	f.log.Debug("Creating S3 backend", slog.String("uri", location.String()))

	if location.Host == "" {
		return nil, fmt.Errorf("%w: missing bucket", interfaces.ErrInvalidLocationURI)
	}

	cfg := S3Config{
		Bucket:    location.Host,
		Prefix:    strings.TrimPrefix(location.Path, "/"),
		Region:    location.GetParam("region"),
		Endpoint:  location.GetParam("endpoint"),
		PathStyle: location.GetParamBool("path_style"),
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	if location.Auth != "" {
		accessKey, secretKey, _ := strings.Cut(location.Auth, ":")
		cfg.AccessKey = accessKey
		cfg.SecretKey = secretKey
	}

	return NewS3Backend(cfg, f.log)
}

// createFileBackend creates a local upload directory backend.
// URI format: file:///absolute/path/ or file://./relative/path/
func (f *RevisionBackendFactory) createFileBackend(location interfaces.RevisionLocation) (interfaces.RevisionBackend, error) {
	f.log.Debug("Creating file backend", slog.String("uri", location.String()))

	path := location.Path
	if location.Host != "" {
		path = location.Host + "/" + strings.TrimPrefix(path, "/")
	}

	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI: %s", interfaces.ErrInvalidLocationURI, location.String())
	}

	return NewFileBackend(path, f.log)
}
