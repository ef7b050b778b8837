package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
)

func TestValidatePage(t *testing.T) {
	tests := []struct {
		name       string
		trailing   []string
		lines      []int
		cursor     int
		lenient    bool
		wantNumber int
		wantLast   int
		wantKinds  map[record.IssueKind]record.Severity
	}{
		{
			name:       "contiguous run after cursor",
			trailing:   []string{"第 2 頁 共 5 頁"},
			lines:      []int{41, 42, 43},
			cursor:     40,
			wantNumber: 2,
			wantLast:   43,
		},
		{
			name:       "english footer split over fragments",
			trailing:   []string{"page", "3 of 5"},
			lines:      []int{2, 1},
			wantNumber: 3,
			wantLast:   2,
		},
		{
			name:       "missing footer falls back to position",
			lines:      []int{1},
			wantNumber: 4,
			wantLast:   1,
			wantKinds:  map[record.IssueKind]record.Severity{record.PageNumberMissing: record.SeverityInfo},
		},
		{
			name:       "annotation is flagged",
			trailing:   []string{"page 1 of 1", "* 本週資料含預售"},
			lines:      []int{1, 2},
			wantNumber: 1,
			wantLast:   2,
			wantKinds:  map[record.IssueKind]record.Severity{record.AnnotationDetected: record.SeverityWarning},
		},
		{
			name:       "gap is fatal",
			trailing:   []string{"page 1 of 1"},
			lines:      []int{1, 2, 4},
			wantNumber: 1,
			wantLast:   4,
			wantKinds:  map[record.IssueKind]record.Severity{record.IndexGap: record.SeverityFatal},
		},
		{
			name:       "first line must follow the cursor",
			trailing:   []string{"page 2 of 2"},
			lines:      []int{12, 13},
			cursor:     10,
			lenient:    true,
			wantNumber: 2,
			wantLast:   13,
			wantKinds:  map[record.IssueKind]record.Severity{record.IndexGap: record.SeverityWarning},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := ValidatePage(7, 4, tt.trailing, tt.lines, tt.cursor, tt.lenient)
			assert.Equal(t, tt.wantNumber, report.Number)
			assert.Equal(t, tt.wantLast, report.LastLine)

			got := make(map[record.IssueKind]record.Severity)
			for _, is := range report.Issues {
				assert.Equal(t, 7, is.Document)
				got[is.Kind] = is.Severity
			}
			if tt.wantKinds == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.wantKinds, got)
			}
		})
	}
}

func TestValidatePage_ContiguityLaw(t *testing.T) {
	for cursor := 0; cursor < 50; cursor += 7 {
		for n := 1; n < 30; n += 4 {
			lines := make([]int, n)
			for i := range lines {
				lines[n-1-i] = cursor + 1 + i
			}
			report := ValidatePage(1, 1, []string{"page 1 of 1"}, lines, cursor, false)
			require.False(t, report.Fatal(), "cursor=%d n=%d", cursor, n)
			assert.Equal(t, cursor+n, report.LastLine)
		}
	}
}
