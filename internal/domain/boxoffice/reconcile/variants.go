package reconcile

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
)

// TitleVariants reports titles sharing a release date that differ by a single
// character, usually a converter glitch splitting one movie into two groups.
// Grouping itself stays exact.
func TitleVariants(keys []record.GroupKey, groups map[record.GroupKey][]record.RawRecord) []record.Issue {
	byDate := make(map[string][]string)
	for _, k := range keys {
		byDate[k.ReleaseDate] = append(byDate[k.ReleaseDate], k.Title)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var issues []record.Issue
	for _, d := range dates {
		titles := byDate[d]
		sort.Strings(titles)
		for i := 0; i < len(titles); i++ {
			for j := i + 1; j < len(titles); j++ {
				if fuzzy.LevenshteinDistance(titles[i], titles[j]) != 1 {
					continue
				}
				a := groups[record.GroupKey{Title: titles[i], ReleaseDate: d}]
				b := groups[record.GroupKey{Title: titles[j], ReleaseDate: d}]
				issues = append(issues, record.Issue{
					Document: lastDocument(b),
					Kind:     record.TitleVariant,
					Severity: record.SeverityWarning,
					Detail: fmt.Sprintf("%q (%d records) and %q (%d records) released %s",
						titles[i], len(a), titles[j], len(b), d),
				})
			}
		}
	}
	return issues
}

func lastDocument(members []record.RawRecord) int {
	last := 0
	for _, r := range members {
		if r.Document > last {
			last = r.Document
		}
	}
	return last
}
