package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/ruteri/lawsign-backend/interfaces"
)

// IPFSBackend stores revisions in the mutable file system (MFS) of an IPFS
// node, so that revisions keep human-readable keys while their content is
// pinned and content-addressed by the node.
type IPFSBackend struct {
	shell       *shell.Shell
	host        string
	port        string
	root        string
	log         *slog.Logger
	locationURI string
}

// NewIPFSBackend creates a backend talking to the node's HTTP API at host:port.
// Revisions are written below root in MFS.
func NewIPFSBackend(host, port, root string, timeout time.Duration, log *slog.Logger) (*IPFSBackend, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)

	if root == "" {
		root = "/lawsign"
	}
	root = "/" + strings.Trim(root, "/")

	sh := shell.NewShell(apiURL)
	if timeout > 0 {
		sh.SetTimeout(timeout)
	}

	return &IPFSBackend{
		shell:       sh,
		host:        host,
		port:        port,
		root:        root,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s%s?timeout=%s", apiURL, root, timeout),
	}, nil
}

// Fetch reads a revision from MFS.
// Returns ErrBackendUnavailable if the node is down, ErrRevisionNotFound if the file is missing.
func (b *IPFSBackend) Fetch(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	mfsPath, err := b.mfsPath(key)
	if err != nil {
		return nil, err
	}

	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable",
			slog.String("host", b.host),
			slog.String("port", b.port))
		return nil, interfaces.ErrBackendUnavailable
	}

	reader, err := b.shell.FilesRead(ctx, mfsPath)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") || strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrRevisionNotFound, key)
		}
		b.log.Error("Failed to read revision from IPFS",
			slog.String("path", mfsPath),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to read from IPFS: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from IPFS: %w", err)
	}

	b.log.Debug("Fetched revision from IPFS",
		slog.String("path", mfsPath),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Store writes a revision into MFS, creating parent directories as needed.
func (b *IPFSBackend) Store(ctx context.Context, key string, data []byte) error {
	mfsPath, err := b.mfsPath(key)
	if err != nil {
		return err
	}

	if !b.shell.IsUp() {
		return interfaces.ErrBackendUnavailable
	}

	err = b.shell.FilesWrite(ctx, mfsPath, bytes.NewReader(data),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true),
	)
	if err != nil {
		return fmt.Errorf("failed to write to IPFS: %w", err)
	}

	b.log.Debug("Stored revision in IPFS",
		slog.String("path", mfsPath),
		slog.Int("size", len(data)))

	return nil
}

// Delete removes a revision from MFS.
func (b *IPFSBackend) Delete(ctx context.Context, key string) error {
	mfsPath, err := b.mfsPath(key)
	if err != nil {
		return err
	}
	if err := b.shell.FilesRm(ctx, mfsPath, true); err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			return nil
		}
		return fmt.Errorf("failed to delete from IPFS: %w", err)
	}
	return nil
}

// Available checks if the IPFS node is accessible.
func (b *IPFSBackend) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

// Name returns a unique identifier for this storage backend.
func (b *IPFSBackend) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", b.host, b.port)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *IPFSBackend) LocationURI() string {
	return b.locationURI
}

func (b *IPFSBackend) mfsPath(key string) (string, error) {
	cleaned, err := interfaces.CleanRevisionKey(key)
	if err != nil {
		return "", err
	}
	return path.Join(b.root, cleaned), nil
}
