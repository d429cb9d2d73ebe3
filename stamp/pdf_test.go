package stamp

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ruteri/lawsign-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMerger(t *testing.T) *PDFCPUMerger {
	t.Helper()
	merger, err := NewPDFCPUMerger("")
	require.NoError(t, err)
	return merger
}

// decodedPage returns the decoded content of page pageNr followed by the
// content of every form XObject the page draws, and the number of forms.
func decodedPage(t *testing.T, pdf []byte, pageNr int) ([]byte, int) {
	t.Helper()
	ctx, err := api.ReadAndValidate(bytes.NewReader(pdf), newConfiguration())
	require.NoError(t, err)

	d, _, inh, err := ctx.PageDict(pageNr, true)
	require.NoError(t, err)
	content, err := ctx.PageContent(d)
	require.NoError(t, err)

	xobjects, err := ctx.DereferenceDict(inh.Resources["XObject"])
	require.NoError(t, err)
	for _, o := range xobjects {
		sd, _, err := ctx.DereferenceStreamDict(o)
		require.NoError(t, err)
		require.NotNil(t, sd)
		require.NoError(t, sd.Decode())
		content = append(content, sd.Content...)
	}
	return content, len(xobjects)
}

// shown returns the string operand pdfcpu writes when it shows s in one of
// the stamp fonts.
func shown(fontName, s string) []byte {
	xrt := &model.XRefTable{UsedGIDs: map[string]map[uint16]bool{}}
	return []byte("(" + model.PrepBytes(xrt, s, fontName, true, false, false) + ")")
}

func TestInstallFonts(t *testing.T) {
	newTestMerger(t)

	for _, name := range []string{RegularFont, BoldFont} {
		require.True(t, font.IsUserFont(name), name)

		font.UserFontMetricsLock.RLock()
		chars := font.UserFontMetrics[name].Chars
		font.UserFontMetricsLock.RUnlock()
		for _, r := range "Иван Петров Anna Müller 0123456789.:" {
			assert.Contains(t, chars, uint32(r), "%s has no glyph for %q", name, r)
		}
	}

	// later merges reuse the installed fonts whatever directory they name
	_, err := NewPDFCPUMerger(t.TempDir())
	require.NoError(t, err)
}

func TestBlankDocument(t *testing.T) {
	merger := newTestMerger(t)
	for _, pages := range []int{1, 3} {
		doc := BlankDocument(pages)
		require.NoError(t, merger.Validate(bytes.NewReader(doc)))
		n, err := merger.PageCount(bytes.NewReader(doc))
		require.NoError(t, err)
		assert.Equal(t, pages, n)
	}
}

func TestBlockSpec(t *testing.T) {
	facts := Facts{DocumentHash: "abc"}.
		With(interfaces.RoleLawyer, SignerFacts{Name: "Anna Lawyer", SignedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)})
	block := DefaultLayout(time.UTC).Render(facts)
	spec := blockSpec(block)

	assert.Equal(t, "[0 0 303 62]", spec.Crop)
	assert.Equal(t, fontSpec{Name: RegularFont, Size: 7, Col: "#8FA8DB"}, spec.Fonts["regular"])
	assert.Equal(t, fontSpec{Name: BoldFont, Size: 7, Col: "#8FA8DB"}, spec.Fonts["bold"])

	content := spec.Pages["1"].Content
	require.Len(t, content.Boxes, 2)
	assert.Equal(t, boxSpec{Pos: [2]float64{0, 0}, Width: 303, Height: 62, FillCol: "#8FA8DB"}, content.Boxes[0])
	assert.Equal(t, boxSpec{Pos: [2]float64{1.5, 1.5}, Width: 300, Height: 59, FillCol: "#FFFFFF"}, content.Boxes[1])

	require.Len(t, content.Texts, 5)
	assert.Equal(t, textSpec{Value: noticeText, Pos: [2]float64{8, 52}, Font: fontSpec{Name: "$bold"}}, content.Texts[0])
	assert.Equal(t, textSpec{Value: "Signer: Anna Lawyer", Pos: [2]float64{8, 31}, Font: fontSpec{Name: "$regular"}}, content.Texts[3])

	js, err := json.Marshal(spec)
	require.NoError(t, err)
	assert.Contains(t, string(js), `"box":[{"pos":[0,0],"width":303,"height":62,"fillCol":"#8FA8DB"}`)
}

func TestRenderPage(t *testing.T) {
	merger := newTestMerger(t)
	facts := Facts{DocumentHash: "abc"}.
		With(interfaces.RoleClient, SignerFacts{Name: "Иван Петров", SignedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)})

	page, err := renderPage(blockSpec(DefaultLayout(time.UTC).Render(facts)), newConfiguration())
	require.NoError(t, err)
	require.NoError(t, merger.Validate(bytes.NewReader(page)))

	content, _ := decodedPage(t, page, 1)
	assert.Contains(t, string(content), string(shown(RegularFont, "Signer: Иван Петров")))
	assert.Contains(t, string(content), string(shown(BoldFont, "Client")))
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, "#8FA8DB", hexColor([3]float64{0.56, 0.66, 0.86}))
	assert.Equal(t, "#FF0000", hexColor([3]float64{1.2, 0, -1}))
}
