package stamp

import (
	"fmt"
	"time"

	"github.com/ruteri/lawsign-backend/interfaces"
)

// SignerFacts is what the stamp shows about one signer.
type SignerFacts struct {
	Name     string
	SignedAt time.Time
}

// Facts are the signer facts accumulated on a document. A nil signer has not signed.
type Facts struct {
	DocumentHash string
	Lawyer       *SignerFacts
	Client       *SignerFacts
}

// FactsFor collects the facts already recorded on doc.
func FactsFor(doc interfaces.Document, clientName string) Facts {
	facts := Facts{DocumentHash: doc.DocumentHash}
	if doc.LawyerSigned {
		facts.Lawyer = &SignerFacts{Name: doc.LawyerName, SignedAt: doc.LawyerSignedAt}
	}
	if doc.ClientSigned {
		facts.Client = &SignerFacts{Name: clientName, SignedAt: doc.ClientSignedAt}
	}
	return facts
}

// With returns a copy of f with role's signer set.
func (f Facts) With(role interfaces.Role, signer SignerFacts) Facts {
	switch role {
	case interfaces.RoleLawyer:
		f.Lawyer = &signer
	case interfaces.RoleClient:
		f.Client = &signer
	}
	return f
}

// Line is one line of stamp text.
type Line struct {
	Text string
	Bold bool
}

// Block is a rendered stamp: a bordered box at (X, Y) from the lower-left
// page corner, in PDF points.
type Block struct {
	X, Y          float64
	Width, Height float64
	LineHeight    float64
	FontSize      float64
	PaddingLeft   float64
	PaddingTop    float64
	BorderWidth   float64
	Color         [3]float64
	Lines         []Line
}

// Layout holds the stamp geometry and the zone signing times are shown in.
type Layout struct {
	X, Y        float64
	Width       float64
	LineHeight  float64
	FontSize    float64
	PaddingLeft float64
	PaddingTop  float64
	BorderWidth float64
	Color       [3]float64
	Location    *time.Location
}

// DefaultLayout places a 303pt wide block 54pt from the left and 50pt from
// the bottom edge, in 7pt type.
func DefaultLayout(loc *time.Location) Layout {
	if loc == nil {
		loc = time.UTC
	}
	return Layout{
		X:           54,
		Y:           50,
		Width:       303,
		LineHeight:  7,
		FontSize:    7,
		PaddingLeft: 8,
		PaddingTop:  10,
		BorderWidth: 1.5,
		Color:       [3]float64{0.56, 0.66, 0.86},
		Location:    loc,
	}
}

const (
	noticeText     = "Document signed with a simple electronic signature"
	timestampFmt   = "02.01.2006 15:04:05 MST"
	baseLineCount  = 3
	roleLineCount  = 3
	verticalMargin = 20
)

// Render lays out the stamp for facts. The height grows by three lines per
// signed role: (3 + 3*roles) * LineHeight + 20.
func (l Layout) Render(facts Facts) Block {
	lines := []Line{
		{Text: noticeText, Bold: true},
		{Text: "Document ID: " + facts.DocumentHash},
	}

	roles := 0
	if facts.Lawyer != nil {
		lines = append(lines, l.signerLines("Lawyer", *facts.Lawyer)...)
		roles++
	}
	if facts.Client != nil {
		lines = append(lines, l.signerLines("Client", *facts.Client)...)
		roles++
	}

	return Block{
		X:           l.X,
		Y:           l.Y,
		Width:       l.Width,
		Height:      float64(baseLineCount+roleLineCount*roles)*l.LineHeight + verticalMargin,
		LineHeight:  l.LineHeight,
		FontSize:    l.FontSize,
		PaddingLeft: l.PaddingLeft,
		PaddingTop:  l.PaddingTop,
		BorderWidth: l.BorderWidth,
		Color:       l.Color,
		Lines:       lines,
	}
}

func (l Layout) signerLines(heading string, signer SignerFacts) []Line {
	return []Line{
		{Text: heading, Bold: true},
		{Text: "Signer: " + signer.Name},
		{Text: fmt.Sprintf("Signed at: %s", signer.SignedAt.In(l.Location).Format(timestampFmt))},
	}
}
