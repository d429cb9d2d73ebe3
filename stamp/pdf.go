package stamp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// pdfcpu registers user fonts under their PostScript names.
const (
	RegularFont = "GoRegular"
	BoldFont    = "Go-Bold"
)

var (
	fontsOnce sync.Once
	fontsErr  error
)

// installFonts registers the Go TrueType fonts, which cover Latin and
// Cyrillic, as pdfcpu user fonts. pdfcpu keeps user fonts in one process-wide
// directory, so only the first call installs and later calls reuse it. An
// empty dir installs into a fresh temporary directory.
func installFonts(dir string) error {
	fontsOnce.Do(func() {
		if dir == "" {
			dir, fontsErr = os.MkdirTemp("", "lawsign-fonts-")
		} else {
			fontsErr = os.MkdirAll(dir, 0o755)
		}
		if fontsErr != nil {
			return
		}

		for name, ttf := range map[string][]byte{"goregular": goregular.TTF, "gobold": gobold.TTF} {
			if err := font.InstallFontFromBytes(dir, name, ttf); err != nil {
				fontsErr = fmt.Errorf("installing %s: %w", name, err)
				return
			}
		}

		font.UserFontDir = dir
		fontsErr = font.LoadUserFonts()
	})
	return fontsErr
}

// pdfcpu JSON page description, see pdfcpu's "create" command.
type pageSpec struct {
	Paper  string                 `json:"paper"`
	Crop   string                 `json:"crop,omitempty"`
	Origin string                 `json:"origin"`
	Fonts  map[string]fontSpec    `json:"fonts,omitempty"`
	Pages  map[string]pageContent `json:"pages"`
}

type pageContent struct {
	Content contentSpec `json:"content"`
}

type contentSpec struct {
	Boxes []boxSpec  `json:"box,omitempty"`
	Texts []textSpec `json:"text,omitempty"`
}

type boxSpec struct {
	Pos     [2]float64 `json:"pos"`
	Width   float64    `json:"width"`
	Height  float64    `json:"height"`
	FillCol string     `json:"fillCol"`
}

type fontSpec struct {
	Name string `json:"name"`
	Size int    `json:"size,omitempty"`
	Col  string `json:"col,omitempty"`
}

type textSpec struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  fontSpec   `json:"font"`
}

// blockSpec describes block as a single page cropped to the block's size.
// The border is a box in the block color under a white box inset by the
// border width.
func blockSpec(block Block) pageSpec {
	color := hexColor(block.Color)
	bw := block.BorderWidth

	content := contentSpec{
		Boxes: []boxSpec{
			{Pos: [2]float64{0, 0}, Width: block.Width, Height: block.Height, FillCol: color},
			{Pos: [2]float64{bw, bw}, Width: block.Width - 2*bw, Height: block.Height - 2*bw, FillCol: "#FFFFFF"},
		},
	}

	y := block.Height - block.PaddingTop
	for _, line := range block.Lines {
		f := fontSpec{Name: "$regular"}
		if line.Bold {
			f.Name = "$bold"
		}
		content.Texts = append(content.Texts, textSpec{
			Value: line.Text,
			Pos:   [2]float64{block.PaddingLeft, y},
			Font:  f,
		})
		y -= block.LineHeight
	}

	size := int(math.Round(block.FontSize))
	return pageSpec{
		Paper:  "A4",
		Crop:   fmt.Sprintf("[0 0 %s %s]", num(block.Width), num(block.Height)),
		Origin: "LowerLeft",
		Fonts: map[string]fontSpec{
			"regular": {Name: RegularFont, Size: size, Col: color},
			"bold":    {Name: BoldFont, Size: size, Col: color},
		},
		Pages: map[string]pageContent{"1": {Content: content}},
	}
}

// renderPage runs spec through pdfcpu's JSON page generator.
func renderPage(spec pageSpec, conf *model.Configuration) ([]byte, error) {
	js, err := json.Marshal(spec)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := api.Create(nil, bytes.NewReader(js), &buf, conf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BlankDocument returns an A4 PDF with pageCount pages, each carrying only a
// "Page N of M" line. It panics if pdfcpu cannot render it and is meant for
// tests and fixtures.
func BlankDocument(pageCount int) []byte {
	spec := pageSpec{
		Paper:  "A4",
		Origin: "LowerLeft",
		Pages:  map[string]pageContent{},
	}
	for i := 1; i <= pageCount; i++ {
		spec.Pages[strconv.Itoa(i)] = pageContent{Content: contentSpec{
			Texts: []textSpec{{
				Value: fmt.Sprintf("Page %d of %d", i, pageCount),
				Pos:   [2]float64{54, 780},
				Font:  fontSpec{Name: "Helvetica", Size: 12},
			}},
		}}
	}

	pdf, err := renderPage(spec, newConfiguration())
	if err != nil {
		panic(fmt.Sprintf("stamp: rendering blank document: %v", err))
	}
	return pdf
}

func hexColor(c [3]float64) string {
	channel := func(v float64) int {
		return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return fmt.Sprintf("#%02X%02X%02X", channel(c[0]), channel(c[1]), channel(c[2]))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
