package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/lawsign-backend/interfaces"
)

// MultiRevisionBackend writes revisions to every available backend and
// reads from the first backend that has them.
type MultiRevisionBackend struct {
	backends []interfaces.RevisionBackend
	log      *slog.Logger
}

// NewMultiRevisionBackend creates a multi-backend with fallback.
func NewMultiRevisionBackend(backends []interfaces.RevisionBackend, logger *slog.Logger) *MultiRevisionBackend {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiRevisionBackend{
		backends: backends,
		log:      logger,
	}
}

// Fetch returns the revision from the first available backend that has it.
func (m *MultiRevisionBackend) Fetch(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	var errs []error
	notFound := 0

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable",
				slog.String("backend_name", backend.Name()),
				slog.String("key", key))
			continue
		}

		data, err := backend.Fetch(ctx, key)
		if err == nil {
			m.log.Debug("Fetched revision",
				slog.String("backend_name", backend.Name()),
				slog.String("key", key),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		if errors.Is(err, interfaces.ErrRevisionNotFound) {
			notFound++
		}
		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		m.log.Debug("Failed to fetch from backend",
			slog.String("backend_name", backend.Name()),
			slog.String("key", key),
			"err", err)
	}

	if notFound > 0 && notFound == len(errs) {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrRevisionNotFound, key)
	}

	m.log.Error("All backends failed to fetch revision",
		slog.String("key", key),
		slog.Int("failed_backends", len(errs)),
		slog.Duration("duration", time.Since(start)))

	if len(errs) == 0 {
		return nil, interfaces.ErrBackendUnavailable
	}
	return nil, fmt.Errorf("all backends failed to fetch %s: %w", key, errors.Join(errs...))
}

// Store saves the revision to all available backends. It succeeds if at
// least one backend accepted the write.
func (m *MultiRevisionBackend) Store(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	var errs []error
	stored := 0

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", slog.String("backend_name", backend.Name()))
			continue
		}

		if err := backend.Store(ctx, key, data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Warn("Failed to store to backend",
				slog.String("backend_name", backend.Name()),
				slog.String("key", key),
				"err", err)
			continue
		}
		stored++
	}

	if stored == 0 {
		m.log.Error("All backends failed to store revision",
			slog.String("key", key),
			slog.Int("failed_backends", len(errs)),
			slog.Duration("duration", time.Since(start)))
		if len(errs) == 0 {
			return interfaces.ErrBackendUnavailable
		}
		return fmt.Errorf("all backends failed to store %s: %w", key, errors.Join(errs...))
	}

	m.log.Debug("Stored revision",
		slog.String("key", key),
		slog.Int("backends", stored),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Delete removes the revision from every backend, collecting errors.
func (m *MultiRevisionBackend) Delete(ctx context.Context, key string) error {
	var errs []error
	for _, backend := range m.backends {
		if err := backend.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Available checks if any backend is available.
func (m *MultiRevisionBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns the name of this backend.
func (m *MultiRevisionBackend) Name() string {
	return "multi-storage"
}

// LocationURI combines the location URIs of all backends.
func (m *MultiRevisionBackend) LocationURI() string {
	var locations []string
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}
