package stamp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Merger overlays a rendered block on the last page of a PDF.
type Merger interface {
	MergeLastPage(ctx context.Context, original io.ReadSeeker, block Block, out io.Writer) error
}

// PDFCPUMerger implements Merger with pdfcpu stamps.
type PDFCPUMerger struct{}

// NewPDFCPUMerger creates a merger and installs the stamp fonts into fontDir,
// or into a temporary directory when fontDir is empty.
func NewPDFCPUMerger(fontDir string) (*PDFCPUMerger, error) {
	if err := installFonts(fontDir); err != nil {
		return nil, fmt.Errorf("installing stamp fonts: %w", err)
	}
	return &PDFCPUMerger{}, nil
}

// newConfiguration returns a relaxed pdfcpu configuration that never touches
// the user's pdfcpu config directory. pdfcpu commands mutate their
// configuration, so every call gets its own.
func newConfiguration() *model.Configuration {
	api.DisableConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// MergeLastPage writes original to out with block stamped on its last page.
func (m *PDFCPUMerger) MergeLastPage(ctx context.Context, original io.ReadSeeker, block Block, out io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pageCount, err := api.PageCount(original, newConfiguration())
	if err != nil {
		return fmt.Errorf("reading page count: %w", err)
	}
	if pageCount == 0 {
		return errors.New("document has no pages")
	}
	if _, err := original.Seek(0, io.SeekStart); err != nil {
		return err
	}

	page, err := renderPage(blockSpec(block), newConfiguration())
	if err != nil {
		return fmt.Errorf("rendering stamp page: %w", err)
	}

	desc := fmt.Sprintf("pos:bl, off:%s %s, scale:1 abs, rot:0", num(block.X), num(block.Y))
	wm, err := api.PDFWatermarkForReadSeeker(bytes.NewReader(page), 1, desc, true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("preparing stamp: %w", err)
	}

	if err := api.AddWatermarks(original, out, []string{strconv.Itoa(pageCount)}, wm, newConfiguration()); err != nil {
		return fmt.Errorf("applying stamp: %w", err)
	}
	return nil
}

// PageCount returns the number of pages in a PDF.
func (m *PDFCPUMerger) PageCount(rs io.ReadSeeker) (int, error) {
	return api.PageCount(rs, newConfiguration())
}

// Validate checks that rs is a readable PDF.
func (m *PDFCPUMerger) Validate(rs io.ReadSeeker) error {
	return api.Validate(rs, newConfiguration())
}
