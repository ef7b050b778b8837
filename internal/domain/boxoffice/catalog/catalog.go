// Package catalog keeps a full-text index of the reconciled movie groups.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
)

// Entry is the indexed summary of one (title, release date) group.
type Entry struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	TitleExact        string  `json:"title_exact"`
	Country           string  `json:"country"`
	ReleaseDate       string  `json:"release_date"`
	FirstDocument     float64 `json:"first_document"`
	LastDocument      float64 `json:"last_document"`
	CumulativeTickets float64 `json:"cumulative_tickets"`
	CumulativeSales   float64 `json:"cumulative_sales"`
}

// Hit is a search result with its relevance score.
type Hit struct {
	Entry Entry
	Score float64
}

// Index is a bleve index over movie groups. Titles are analysed with CJK
// bigrams so partial Chinese titles match.
type Index struct {
	index bleve.Index
	mu    sync.RWMutex
	path  string // empty for in-memory
}

// Open creates an in-memory index when path is empty, otherwise it creates
// or opens the on-disk index at path.
func Open(path string) (*Index, error) {
	idx := &Index{path: path}

	var (
		index bleve.Index
		err   error
	)
	if path == "" {
		index, err = bleve.NewMemOnly(buildMapping())
	} else if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		if mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755); mkdirErr != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", mkdirErr)
		}
		index, err = bleve.New(path, buildMapping())
	} else {
		index, err = bleve.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}

	idx.index = index
	return idx, nil
}

func buildMapping() mapping.IndexMapping {
	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = cjk.AnalyzerName

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = keyword.Name

	numericField := bleve.NewNumericFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("title", titleField)
	doc.AddFieldMappingsAt("title_exact", keywordField)
	doc.AddFieldMappingsAt("country", keywordField)
	doc.AddFieldMappingsAt("release_date", keywordField)
	doc.AddFieldMappingsAt("first_document", numericField)
	doc.AddFieldMappingsAt("last_document", numericField)
	doc.AddFieldMappingsAt("cumulative_tickets", numericField)
	doc.AddFieldMappingsAt("cumulative_sales", numericField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = cjk.AnalyzerName
	return m
}

// Entries folds reconciled records into one entry per group. The figures
// come from the group's latest record. Entries are ordered by ID.
func Entries(records []record.ReconciledRecord) []Entry {
	byGroup := make(map[record.GroupKey]*Entry)
	for _, r := range records {
		gk := r.GroupKey()
		e, ok := byGroup[gk]
		if !ok {
			e = &Entry{
				ID:            gk.Title + "|" + gk.ReleaseDate,
				Title:         gk.Title,
				TitleExact:    gk.Title,
				ReleaseDate:   gk.ReleaseDate,
				FirstDocument: float64(r.Document),
			}
			byGroup[gk] = e
		}
		if float64(r.Document) < e.FirstDocument {
			e.FirstDocument = float64(r.Document)
		}
		if float64(r.Document) >= e.LastDocument {
			e.LastDocument = float64(r.Document)
			e.Country = r.Country
			if r.CumulativeTickets.Valid {
				e.CumulativeTickets = float64(r.CumulativeTickets.N)
			}
			if r.CumulativeSales.Valid {
				e.CumulativeSales = float64(r.CumulativeSales.N)
			}
		}
	}

	out := make([]Entry, 0, len(byGroup))
	for _, e := range byGroup {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IndexRecords replaces the indexed groups with those of records.
func (x *Index) IndexRecords(ctx context.Context, records []record.ReconciledRecord) error {
	if err := x.Clear(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	batch := x.index.NewBatch()
	for _, e := range Entries(records) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(e.ID, e); err != nil {
			return fmt.Errorf("failed to index group %s: %w", e.ID, err)
		}
	}

	if err := x.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch index: %w", err)
	}
	return nil
}

// Search matches text against titles. An exact title match ranks first.
func (x *Index) Search(text string, limit int) ([]Hit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	match := bleve.NewMatchQuery(text)
	match.SetField("title")

	exact := bleve.NewTermQuery(text)
	exact.SetField("title_exact")
	exact.SetBoost(10)

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(match, exact))
	req.Size = limit
	req.Fields = []string{"*"}

	res, err := x.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return convertHits(res), nil
}

// ByCountry lists the groups whose latest record carries country.
func (x *Index) ByCountry(country string, limit int) ([]Hit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	term := bleve.NewTermQuery(country)
	term.SetField("country")

	req := bleve.NewSearchRequest(term)
	req.Size = limit
	req.Fields = []string{"*"}
	req.SortBy([]string{"-cumulative_tickets"})

	res, err := x.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("country search failed: %w", err)
	}
	return convertHits(res), nil
}

func convertHits(res *bleve.SearchResult) []Hit {
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		e := Entry{ID: h.ID}
		if v, ok := h.Fields["title"].(string); ok {
			e.Title = v
		}
		if v, ok := h.Fields["title_exact"].(string); ok {
			e.TitleExact = v
		}
		if v, ok := h.Fields["country"].(string); ok {
			e.Country = v
		}
		if v, ok := h.Fields["release_date"].(string); ok {
			e.ReleaseDate = v
		}
		if v, ok := h.Fields["first_document"].(float64); ok {
			e.FirstDocument = v
		}
		if v, ok := h.Fields["last_document"].(float64); ok {
			e.LastDocument = v
		}
		if v, ok := h.Fields["cumulative_tickets"].(float64); ok {
			e.CumulativeTickets = v
		}
		if v, ok := h.Fields["cumulative_sales"].(float64); ok {
			e.CumulativeSales = v
		}
		hits = append(hits, Hit{Entry: e, Score: h.Score})
	}
	return hits
}

// Clear removes every document from the index.
func (x *Index) Clear() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for {
		req := bleve.NewSearchRequest(query.NewMatchAllQuery())
		req.Size = 1000

		res, err := x.index.Search(req)
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		if len(res.Hits) == 0 {
			return nil
		}

		batch := x.index.NewBatch()
		for _, h := range res.Hits {
			batch.Delete(h.ID)
		}
		if err := x.index.Batch(batch); err != nil {
			return fmt.Errorf("failed to delete documents: %w", err)
		}
	}
}

// Count returns the number of indexed groups.
func (x *Index) Count() (uint64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.index.DocCount()
}

// Close closes the index
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.index != nil {
		return x.index.Close()
	}
	return nil
}
