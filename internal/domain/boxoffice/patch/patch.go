// Package patch applies manual corrections to the parsed record set.
package patch

import (
	"fmt"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
)

// Apply removes every record whose key is in the drop set, then adds every
// append row. Rows that target a key absent from the input are reported as
// PatchKeyMismatch warnings and never fail the run. The result is sorted by key.
func Apply(records []record.RawRecord, set record.PatchSet) ([]record.RawRecord, []record.Issue) {
	existing := make(map[record.Key]struct{}, len(records))
	for _, r := range records {
		existing[r.Key()] = struct{}{}
	}

	var issues []record.Issue
	dropped := make(map[record.Key]struct{}, len(set.Drop))
	for _, k := range set.Drop {
		if _, ok := existing[k]; !ok {
			issues = append(issues, mismatch(k, fmt.Sprintf("drop row %s matches no record", k)))
			continue
		}
		dropped[k] = struct{}{}
	}

	out := make([]record.RawRecord, 0, len(records)+len(set.Append))
	kept := make(map[record.Key]struct{}, len(records))
	for _, r := range records {
		if _, ok := dropped[r.Key()]; ok {
			continue
		}
		out = append(out, r)
		kept[r.Key()] = struct{}{}
	}

	for _, r := range set.Append {
		k := r.Key()
		if _, ok := existing[k]; !ok {
			issues = append(issues, mismatch(k, fmt.Sprintf("append row %s matches no record", k)))
		} else if _, ok := kept[k]; ok {
			issues = append(issues, mismatch(k, fmt.Sprintf("append row %s duplicates a record that was not dropped", k)))
		}
		out = append(out, r)
	}

	record.SortByKey(out)
	return out, issues
}

func mismatch(k record.Key, detail string) record.Issue {
	return record.Issue{
		Document: k.Document,
		Page:     k.Page,
		Kind:     record.PatchKeyMismatch,
		Severity: record.SeverityWarning,
		Detail:   detail,
	}
}
