package stamp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruteri/lawsign-backend/interfaces"
	"github.com/ruteri/lawsign-backend/metrics"
)

// Compositor produces stamped revisions in revision storage.
type Compositor struct {
	backend interfaces.RevisionBackend
	layout  Layout
	merger  Merger
	log     *slog.Logger
}

// NewCompositor creates a compositor reading and writing revisions through backend.
func NewCompositor(backend interfaces.RevisionBackend, layout Layout, merger Merger, log *slog.Logger) *Compositor {
	return &Compositor{
		backend: backend,
		layout:  layout,
		merger:  merger,
		log:     log,
	}
}

// Layout returns the compositor's layout.
func (c *Compositor) Layout() Layout {
	return c.layout
}

// Apply stamps the revision at currentKey with facts and stores the result
// under the key for rev, which it returns. On failure the error wraps
// interfaces.ErrStampFailed and nothing is stored.
func (c *Compositor) Apply(ctx context.Context, currentKey string, facts Facts, rev Revision) (string, error) {
	start := time.Now()
	newKey := RevisionKey(currentKey, rev)
	log := c.log.With("currentKey", currentKey, "newKey", newKey, "revision", rev.String())

	newKey, err := c.apply(ctx, currentKey, newKey, facts)
	if err != nil {
		metrics.IncStamp(rev.String(), "failed")
		log.Error("Failed to stamp revision", "err", err)
		return "", fmt.Errorf("%w: %v", interfaces.ErrStampFailed, err)
	}

	metrics.IncStamp(rev.String(), "ok")
	metrics.ObserveStampDuration(time.Since(start))
	log.Info("Revision stamped", "duration", time.Since(start))
	return newKey, nil
}

func (c *Compositor) apply(ctx context.Context, currentKey, newKey string, facts Facts) (string, error) {
	if newKey == currentKey {
		return "", fmt.Errorf("revision key %q would overwrite the current revision", newKey)
	}

	original, err := c.backend.Fetch(ctx, currentKey)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", currentKey, err)
	}

	var out bytes.Buffer
	if err := c.merger.MergeLastPage(ctx, bytes.NewReader(original), c.layout.Render(facts), &out); err != nil {
		return "", err
	}

	if err := c.backend.Store(ctx, newKey, out.Bytes()); err != nil {
		return "", fmt.Errorf("storing %s: %w", newKey, err)
	}
	return newKey, nil
}

// Discard deletes a revision that was stored but never committed.
func (c *Compositor) Discard(ctx context.Context, key string) {
	if err := c.backend.Delete(ctx, key); err != nil {
		c.log.Warn("Failed to discard uncommitted revision", "key", key, "err", err)
	}
}
