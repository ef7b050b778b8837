package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/profile"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
)

// ErrMalformedLine is returned when a reconstructed line cannot be split into fields.
var ErrMalformedLine = errors.New("malformed line")

// ReleaseDateLayout accepts both zero-padded and unpadded month and day.
const ReleaseDateLayout = "2006/1/2"

var (
	dateSplitRe = regexp.MustCompile(`(.+?)(\d{4}/\d{1,2}/\d{1,2})`)
	leadIndexRe = regexp.MustCompile(`^(\d{1,3})(?:\s+|$)`)
)

// Fields is the content of one reconstructed line.
type Fields struct {
	Line         int
	ExplicitLine bool
	Country      string
	Title        string
	ReleaseDate  time.Time
	Counts       map[profile.Column]record.Count
	Rates        map[profile.Column]decimal.NullDecimal
}

// Record builds the RawRecord for this line. Columns absent from the source
// stay NULL.
func (f Fields) Record(document, page int) record.RawRecord {
	r := record.RawRecord{
		Document:    document,
		Page:        page,
		Line:        f.Line,
		Country:     f.Country,
		Title:       f.Title,
		ReleaseDate: f.ReleaseDate,
	}
	for c, v := range f.Counts {
		r.SetCount(c, v)
	}
	for c, v := range f.Rates {
		r.SetRate(c, v)
	}
	return r
}

func malformed(line, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %q", ErrMalformedLine, fmt.Sprintf(format, args...), line)
}

// ExtractFields splits a normalized line into its logical columns. position is
// the 1-based position of the line on its page; cursor is the last line index
// of the previous page.
func ExtractFields(line string, p profile.FormatProfile, position, cursor int) (Fields, error) {
	f := Fields{
		Counts: make(map[profile.Column]record.Count),
		Rates:  make(map[profile.Column]decimal.NullDecimal),
	}
	rest := line

	if p.Present(profile.LineIndex) {
		m := leadIndexRe.FindStringSubmatch(rest)
		if m == nil {
			return Fields{}, malformed(line, "missing line counter")
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Fields{}, malformed(line, "line counter %q", m[1])
		}
		f.Line = n
		f.ExplicitLine = true
		rest = rest[len(m[0]):]
	} else {
		f.Line = cursor + position
	}

	loc := dateSplitRe.FindStringSubmatchIndex(rest)
	if loc == nil {
		return Fields{}, malformed(line, "no release date")
	}
	prefix, date := rest[loc[2]:loc[3]], rest[loc[4]:loc[5]]
	tail := rest[loc[5]:]

	country, title, ok := splitCountryTitle(strings.Fields(prefix))
	if !ok {
		return Fields{}, malformed(line, "cannot separate country and title")
	}
	f.Country, f.Title = country, title

	released, err := time.Parse(ReleaseDateLayout, date)
	if err != nil {
		return Fields{}, malformed(line, "release date %q", date)
	}
	f.ReleaseDate = released

	cols := p.PresentNumeric()
	tokens := strings.Fields(tail)
	if len(tokens) < len(cols) {
		return Fields{}, malformed(line, "want %d numeric values, got %d", len(cols), len(tokens))
	}
	tokens = tokens[len(tokens)-len(cols):]

	for i, c := range cols {
		if c.IsRate() {
			v, err := parseRate(tokens[i])
			if err != nil {
				return Fields{}, malformed(line, "%s %q", c, tokens[i])
			}
			f.Rates[c] = v
			continue
		}
		v, err := ParseCount(tokens[i])
		if err != nil {
			return Fields{}, malformed(line, "%s %q", c, tokens[i])
		}
		f.Counts[c] = v
	}
	return f, nil
}

// splitCountryTitle takes the first token as the country, or the first two
// when together they form a known compound name. The remaining tokens are
// joined without separators as the title.
func splitCountryTitle(tokens []string) (country, title string, ok bool) {
	if len(tokens) == 0 {
		return "", "", false
	}
	consumed := 1
	country = tokens[0]
	if len(tokens) >= 2 {
		if joined, found := compoundCountries[[2]string{tokens[0], tokens[1]}]; found {
			country = joined
			consumed = 2
		}
	}
	title = strings.Join(tokens[consumed:], "")
	return country, title, title != ""
}

// ParseCount parses a thousands-grouped integer. "-" is the NULL placeholder.
func ParseCount(s string) (record.Count, error) {
	s = strings.TrimSpace(s)
	if s == "-" || s == "" {
		return record.Null, nil
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil {
		return record.Null, fmt.Errorf("failed to parse count %q: %w", s, err)
	}
	return record.Known(n), nil
}

func parseRate(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "-" || s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSuffix(s, "%"), ",", ""))
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("failed to parse rate %q: %w", s, err)
	}
	return decimal.NewNullDecimal(d), nil
}
