// Package sniffer identifies downloaded bulletins: the source format, the
// publication id in the filename and the reporting period in the title.
package sniffer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/parser"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
)

// Kind is the format of a bulletin file.
type Kind string

const (
	KindUnknown Kind = "unknown"
	KindHTML    Kind = "html"
	KindPDF     Kind = "pdf"
)

var (
	ErrNoFileID = errors.New("filename carries no publication id")
	ErrNoPeriod = errors.New("no reporting period in title")
)

var (
	fileIDRe = regexp.MustCompile(`\d+`)
	// 2017年12月11日至12月17日, 2017年12月25日至2018年1月1日, 106年12月11日~106年12月17日
	weeklyRe = regexp.MustCompile(
		`(\d{2,4})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*日\s*[至~～\-－]\s*(?:(\d{2,4})\s*年\s*)?(\d{1,2})\s*月\s*(\d{1,2})\s*日`)
	monthlyRe = regexp.MustCompile(`(\d{2,4})\s*年\s*(\d{1,2})\s*月`)
)

// Detect sniffs the leading bytes of a bulletin.
func Detect(data []byte) Kind {
	head := bytes.TrimLeft(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), " \t\r\n")
	if len(head) > 512 {
		head = head[:512]
	}
	switch {
	case bytes.HasPrefix(head, []byte("%PDF-")):
		return KindPDF
	case hasFoldPrefix(head, "<!doctype html"), hasFoldPrefix(head, "<html"):
		return KindHTML
	case bytes.Contains(bytes.ToLower(head), []byte("<html")):
		return KindHTML
	}
	return KindUnknown
}

func hasFoldPrefix(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && bytes.EqualFold(b[:len(prefix)], []byte(prefix))
}

// FileID extracts the publication id: the first run of digits in the base name.
func FileID(name string) (int, error) {
	m := fileIDRe.FindString(filepath.Base(name))
	if m == "" {
		return 0, fmt.Errorf("%w: %s", ErrNoFileID, name)
	}
	id, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNoFileID, name)
	}
	return id, nil
}

// Fingerprint is the sha256 of the file contents, used to skip duplicate downloads.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Period is the reporting window of a bulletin.
type Period struct {
	Cadence record.Cadence
	Start   time.Time
	End     time.Time
}

// ProbePeriod reads the cadence and period from a bulletin title. Years below
// 1911 are taken as Minguo years.
func ProbePeriod(title string) (Period, error) {
	title = parser.Normalize(title)

	if m := weeklyRe.FindStringSubmatch(title); m != nil {
		sy := year(m[1])
		start, err := civil(sy, m[2], m[3])
		if err != nil {
			return Period{}, err
		}
		ey := sy
		if m[4] != "" {
			ey = year(m[4])
		}
		end, err := civil(ey, m[5], m[6])
		if err != nil {
			return Period{}, err
		}
		if m[4] == "" && end.Before(start) {
			end = end.AddDate(1, 0, 0)
		}
		return Period{Cadence: record.Weekly, Start: start, End: end}, nil
	}

	if m := monthlyRe.FindStringSubmatch(title); m != nil {
		start, err := civil(year(m[1]), m[2], "1")
		if err != nil {
			return Period{}, err
		}
		return Period{Cadence: record.Monthly, Start: start, End: start.AddDate(0, 1, -1)}, nil
	}

	return Period{}, fmt.Errorf("%w: %q", ErrNoPeriod, truncate(title))
}

func year(s string) int {
	y, _ := strconv.Atoi(s)
	if y < 1911 {
		y += 1911
	}
	return y
}

func civil(y int, month, day string) (time.Time, error) {
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if m < 1 || m > 12 || t.Day() != d {
		return time.Time{}, fmt.Errorf("invalid date %d/%s/%s", y, month, day)
	}
	return t, nil
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= 60 {
		return s
	}
	return string([]rune(s)[:60]) + "…"
}
