package source

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
)

// DefaultCellGap is the horizontal distance, in points, that separates two
// table cells on the same text row.
const DefaultCellGap = 6.0

// PDFSource reads bulletins directly from their PDF text layer.
type PDFSource struct {
	// CellGap splits a text row into fragments; 0 keeps one fragment per row.
	CellGap float64
}

// NewPDFSource returns a source with the default cell gap.
func NewPDFSource() *PDFSource {
	return &PDFSource{CellGap: DefaultCellGap}
}

// Extract reads every page's text rows top to bottom.
func (s *PDFSource) Extract(data []byte) (*Bulletin, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	b := &Bulletin{Title: r.Trailer().Key("Info").Key("Title").Text()}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		page := record.Page{Number: i}
		if p.V.IsNull() {
			b.Pages = append(b.Pages, page)
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("failed to read text of page %d: %w", i, err)
		}
		for _, row := range rows {
			page.Fragments = append(page.Fragments, rowFragments(row, s.CellGap)...)
		}
		b.Pages = append(b.Pages, page)
	}
	return b, nil
}

// rowFragments joins the glyph runs of a row, starting a new fragment when
// the gap to the previous run exceeds gap.
func rowFragments(row *pdf.Row, gap float64) []string {
	var (
		out     []string
		b       strings.Builder
		lastEnd float64
	)
	flush := func() {
		if text := strings.TrimSpace(b.String()); text != "" {
			out = append(out, text)
		}
		b.Reset()
	}
	for i, t := range row.Content {
		if i > 0 && gap > 0 && t.X-lastEnd > gap {
			flush()
		}
		b.WriteString(t.S)
		lastEnd = t.X + t.W
	}
	flush()
	return out
}
