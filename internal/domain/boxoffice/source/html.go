package source

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
)

// pdf2htmlEX layout: div.pf[data-page-no] > div.pc > div.t, with span._ used
// as horizontal spacing inside a text box.
const (
	pageSelector     = "div[data-page-no]"
	fragmentSelector = "div > div > div"
	spacerSelector   = "span._"
)

// HTMLSource reads pdf2htmlEX output.
type HTMLSource struct {
	PageSelector     string
	FragmentSelector string
}

// NewHTMLSource returns a source using the pdf2htmlEX selectors.
func NewHTMLSource() *HTMLSource {
	return &HTMLSource{PageSelector: pageSelector, FragmentSelector: fragmentSelector}
}

// Extract returns one page per page container, in document order. Empty text
// boxes are dropped.
func (s *HTMLSource) Extract(data []byte) (*Bulletin, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	doc.Find(spacerSelector).Each(func(_ int, sp *goquery.Selection) {
		sp.ReplaceWithHtml(" ")
	})

	b := &Bulletin{Title: strings.TrimSpace(doc.Find("title").First().Text())}
	doc.Find(s.PageSelector).Each(func(i int, pg *goquery.Selection) {
		page := record.Page{Number: i + 1}
		pg.Find(s.FragmentSelector).Each(func(_ int, el *goquery.Selection) {
			// nested boxes are reported through their innermost element
			if el.Find("div").Length() > 0 {
				return
			}
			if text := strings.TrimSpace(el.Text()); text != "" {
				page.Fragments = append(page.Fragments, text)
			}
		})
		b.Pages = append(b.Pages, page)
	})

	if len(b.Pages) == 0 {
		return nil, fmt.Errorf("no %s elements found", s.PageSelector)
	}
	return b, nil
}
