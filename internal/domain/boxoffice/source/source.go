// Package source turns downloaded bulletins into per-page fragment sequences.
//
// Two converters are supported: pdf2htmlEX output, where every positioned
// text box is one fragment, and PDF files read directly, where text rows are
// split into fragments at horizontal gaps.
package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/sniffer"
)

// ErrUnsupported is returned for files that are neither HTML nor PDF.
var ErrUnsupported = errors.New("unsupported bulletin format")

// Bulletin is a converted source file.
type Bulletin struct {
	Kind  sniffer.Kind
	Title string
	Pages []record.Page
}

// Headline returns the document title, or the opening fragments of the first
// page when the file carries no title metadata.
func (b *Bulletin) Headline() string {
	if strings.TrimSpace(b.Title) != "" {
		return b.Title
	}
	if len(b.Pages) == 0 {
		return ""
	}
	frags := b.Pages[0].Fragments
	if len(frags) > 6 {
		frags = frags[:6]
	}
	return strings.Join(frags, " ")
}

// Extractor converts the raw bytes of one format.
type Extractor interface {
	Extract(data []byte) (*Bulletin, error)
}

// Loader dispatches on the sniffed format.
type Loader struct {
	HTML Extractor
	PDF  Extractor
}

// NewLoader returns a loader with the default extractors.
func NewLoader() *Loader {
	return &Loader{HTML: NewHTMLSource(), PDF: NewPDFSource()}
}

// Load converts data with the extractor matching its format.
func (l *Loader) Load(data []byte) (*Bulletin, error) {
	kind := sniffer.Detect(data)
	var ex Extractor
	switch kind {
	case sniffer.KindHTML:
		ex = l.HTML
	case sniffer.KindPDF:
		ex = l.PDF
	}
	if ex == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, kind)
	}
	b, err := ex.Extract(data)
	if err != nil {
		return nil, err
	}
	b.Kind = kind
	return b, nil
}
