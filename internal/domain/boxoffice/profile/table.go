package profile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed table.yaml
var defaultTableYAML []byte

// ErrNoProfile means no template revision covers a publication id. It indicates
// a template change the table has not been taught yet and fails the whole run.
var ErrNoProfile = errors.New("no format profile for document")

type tableFile struct {
	Eras       []eraSpec       `yaml:"eras"`
	Exceptions []exceptionSpec `yaml:"exceptions"`
}

type eraSpec struct {
	Name               string   `yaml:"name"`
	From               int      `yaml:"from"`
	To                 int      `yaml:"to"` // 0 = open-ended
	Strategy           string   `yaml:"strategy"`
	Trailing           string   `yaml:"trailing"`
	FragmentsPerRecord int      `yaml:"fragments_per_record"`
	RecordStartOffset  int      `yaml:"record_start_offset"`
	HeaderRepeats      *bool    `yaml:"header_repeats"`
	Missing            []string `yaml:"missing"`
}

type insertionSpec struct {
	Page    int    `yaml:"page"`
	Index   int    `yaml:"index"`
	Literal string `yaml:"literal"`
}

type exceptionSpec struct {
	ID                   int             `yaml:"id"`
	Note                 string          `yaml:"note"`
	DropTrailingFragment bool            `yaml:"drop_trailing_fragment"`
	Insert               []insertionSpec `yaml:"insert"`
	HeaderRepeats        *bool           `yaml:"header_repeats"`
	RecordStartOffset    *int            `yaml:"record_start_offset"`
	Skip                 bool            `yaml:"skip"`
}

type era struct {
	name     string
	from, to int
	base     FormatProfile
}

func (e era) contains(id int) bool {
	return id >= e.from && (e.to == 0 || id <= e.to)
}

// Table is the immutable profile lookup built once at start-up.
type Table struct {
	eras       []era
	exceptions map[int]exceptionSpec
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default returns the table shipped with the binary.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = Load(bytes.NewReader(defaultTableYAML))
	})
	return defaultTable, defaultErr
}

// Load parses and validates a profile table.
func Load(r io.Reader) (*Table, error) {
	var f tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode profile table: %w", err)
	}
	if len(f.Eras) == 0 {
		return nil, errors.New("profile table declares no eras")
	}

	t := &Table{exceptions: make(map[int]exceptionSpec, len(f.Exceptions))}
	for _, spec := range f.Eras {
		e, err := buildEra(spec)
		if err != nil {
			return nil, err
		}
		t.eras = append(t.eras, e)
	}

	sort.Slice(t.eras, func(i, j int) bool { return t.eras[i].from < t.eras[j].from })
	for i := 1; i < len(t.eras); i++ {
		prev, cur := t.eras[i-1], t.eras[i]
		if prev.to == 0 || prev.to >= cur.from {
			return nil, fmt.Errorf("era %q overlaps era %q", prev.name, cur.name)
		}
	}

	for _, ex := range f.Exceptions {
		if _, dup := t.exceptions[ex.ID]; dup {
			return nil, fmt.Errorf("duplicate exception for document %d", ex.ID)
		}
		for _, ins := range ex.Insert {
			if ins.Page < 1 || ins.Index < 0 {
				return nil, fmt.Errorf("exception %d: invalid insertion at page %d index %d", ex.ID, ins.Page, ins.Index)
			}
		}
		t.exceptions[ex.ID] = ex
	}

	return t, nil
}

func buildEra(spec eraSpec) (era, error) {
	if spec.From < 1 || (spec.To != 0 && spec.To < spec.From) {
		return era{}, fmt.Errorf("era %q: invalid id range [%d, %d]", spec.Name, spec.From, spec.To)
	}

	strategy := Strategy(spec.Strategy)
	if strategy != Indexed && strategy != CountryAnchored {
		return era{}, fmt.Errorf("era %q: unknown strategy %q", spec.Name, spec.Strategy)
	}
	trailing := TrailingPattern(spec.Trailing)
	if trailing != TwoIntTwoGroup && trailing != OneIntFourGroup {
		return era{}, fmt.Errorf("era %q: unknown trailing pattern %q", spec.Name, spec.Trailing)
	}
	if spec.FragmentsPerRecord < 1 || spec.RecordStartOffset < 0 {
		return era{}, fmt.Errorf("era %q: fragments_per_record must be >= 1 and record_start_offset >= 0", spec.Name)
	}

	var missing ColumnSet
	for _, name := range spec.Missing {
		c, err := ParseColumn(name)
		if err != nil {
			return era{}, fmt.Errorf("era %q: %w", spec.Name, err)
		}
		if c == Country || c == Title || c == ReleaseDate {
			return era{}, fmt.Errorf("era %q: column %s cannot be missing", spec.Name, c)
		}
		missing = missing.With(c)
	}
	if strategy == CountryAnchored && !missing.Has(LineIndex) {
		return era{}, fmt.Errorf("era %q: country-anchored eras carry no line counter", spec.Name)
	}
	if strategy == Indexed && missing.Has(LineIndex) {
		return era{}, fmt.Errorf("era %q: indexed eras require the line counter", spec.Name)
	}

	headerRepeats := true
	if spec.HeaderRepeats != nil {
		headerRepeats = *spec.HeaderRepeats
	}

	return era{
		name: spec.Name,
		from: spec.From,
		to:   spec.To,
		base: FormatProfile{
			Era:                      spec.Name,
			Strategy:                 strategy,
			Trailing:                 trailing,
			FragmentsPerRecord:       spec.FragmentsPerRecord,
			RecordStartOffset:        spec.RecordStartOffset,
			Missing:                  missing,
			HeaderRepeatsOnEveryPage: headerRepeats,
		},
	}, nil
}

// Resolve returns the profile for a publication id.
func (t *Table) Resolve(id int) (FormatProfile, error) {
	var (
		p     FormatProfile
		found bool
	)
	for _, e := range t.eras {
		if e.contains(id) {
			p = e.base
			found = true
			break
		}
	}
	if !found {
		return FormatProfile{}, fmt.Errorf("%w %d", ErrNoProfile, id)
	}
	p.DocumentID = id

	ex, ok := t.exceptions[id]
	if !ok {
		return p, nil
	}
	p.SuppressTrailingFragmentOnLastPage = ex.DropTrailingFragment
	p.SkipEntirely = ex.Skip
	if ex.HeaderRepeats != nil {
		p.HeaderRepeatsOnEveryPage = *ex.HeaderRepeats
	}
	if ex.RecordStartOffset != nil {
		p.RecordStartOffset = *ex.RecordStartOffset
	}
	if len(ex.Insert) > 0 {
		p.Insertions = make([]Insertion, len(ex.Insert))
		for i, ins := range ex.Insert {
			p.Insertions[i] = Insertion{Page: ins.Page, Index: ins.Index, Literal: ins.Literal}
		}
	}
	return p, nil
}

// Exceptions lists the ids carrying a per-file exception, ascending.
func (t *Table) Exceptions() []int {
	ids := make([]int, 0, len(t.exceptions))
	for id := range t.exceptions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
