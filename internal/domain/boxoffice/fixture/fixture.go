// Package fixture generates synthetic converted bulletins for tests. Pages are
// rendered in the fragment layout the converter produces for each template
// revision, so they go through the same parser as the real corpus.
package fixture

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/profile"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
)

var (
	countries = []string{"美國", "英國", "法國", "日本", "韓國", "中華民國", "香港", "印度", "泰國", "西班牙"}

	titleHeads = []string{"星際", "夜行", "無聲", "海角", "暗黑", "迷途", "烈火", "紅色", "寂寞", "極地", "少年", "明日"}
	titleTails = []string{"大戰", "列車", "之歌", "任務", "俠客", "王國", "行動", "追緝", "奇航", "戀人", "風暴", "審判"}

	headerCells = []string{"序號", "國別", "中文片名", "上映日期", "申請人", "出品", "院數", "銷售票數", "銷售金額", "累計銷售票數", "累計銷售金額", "備註", "統計"}
)

var printer = message.NewPrinter(language.English)

// Movie is one (title, release date) entity.
type Movie struct {
	Country  string
	Title    string
	Released time.Time
}

// Row holds the figures printed for a movie in one bulletin.
type Row struct {
	Movie
	Days              int64
	Theaters          int64
	MaxTheaters       int64
	Tickets           int64
	Sales             int64
	CumulativeTickets int64
	CumulativeSales   int64
}

// Generator produces reproducible bulletin data.
type Generator struct {
	faker *gofakeit.Faker
}

// New creates a generator; the same seed yields the same bulletins.
func New(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Movies returns n movies with distinct titles released in 2017.
func (g *Generator) Movies(n int) []Movie {
	seen := make(map[string]bool, n)
	movies := make([]Movie, 0, n)
	for len(movies) < n {
		title := g.faker.RandomString(titleHeads) + g.faker.RandomString(titleTails)
		if seen[title] {
			title += g.faker.RandomString(titleTails)
			if seen[title] {
				continue
			}
		}
		seen[title] = true
		d := g.faker.DateRange(time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2017, 6, 30, 0, 0, 0, 0, time.UTC))
		movies = append(movies, Movie{
			Country:  g.faker.RandomString(countries),
			Title:    title,
			Released: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
		})
	}
	return movies
}

// Series returns the rows of movies across docs consecutive weekly bulletins.
// Cumulative figures grow by the period figures of every bulletin. Every
// third movie is a small release whose counts stay below 1,000, the range a
// line counter is printed in.
func (g *Generator) Series(movies []Movie, docs int) [][]Row {
	out := make([][]Row, docs)
	cumTickets := make([]int64, len(movies))
	cumSales := make([]int64, len(movies))
	maxTheaters := make([]int64, len(movies))

	for d := 0; d < docs; d++ {
		rows := make([]Row, len(movies))
		for i, m := range movies {
			theaters := int64(g.faker.Number(10, 99))
			tickets := int64(g.faker.Number(1000, 90000))
			if i%3 == 2 {
				theaters = int64(g.faker.Number(1, 9))
				tickets = int64(g.faker.Number(20, 300))
			}
			sales := tickets * int64(g.faker.Number(220, 320))
			cumTickets[i] += tickets
			cumSales[i] += sales
			if theaters > maxTheaters[i] {
				maxTheaters[i] = theaters
			}
			rows[i] = Row{
				Movie:             m,
				Days:              7,
				Theaters:          theaters,
				MaxTheaters:       maxTheaters[i],
				Tickets:           tickets,
				Sales:             sales,
				CumulativeTickets: cumTickets[i],
				CumulativeSales:   cumSales[i],
			}
		}
		out[d] = rows
	}
	return out
}

// Pages renders rows as converted pages of at most perPage records each.
func Pages(p profile.FormatProfile, rows []Row, perPage int) []record.Page {
	if perPage < 1 {
		perPage = len(rows)
	}
	total := (len(rows) + perPage - 1) / perPage
	if total == 0 {
		total = 1
	}

	pages := make([]record.Page, 0, total)
	line := 0
	for n := 1; n <= total; n++ {
		var frags []string
		frags = append(frags, header(p.StartOffset(n == 1))...)

		lo := (n - 1) * perPage
		hi := min(lo+perPage, len(rows))
		for _, r := range rows[lo:hi] {
			line++
			frags = append(frags, fragments(p, line, r)...)
		}
		frags = append(frags, fmt.Sprintf("第 %d 頁 共 %d 頁", n, total))
		pages = append(pages, record.Page{Number: n, Fragments: frags})
	}
	return pages
}

// header returns n heading cells, none of which can open a record.
func header(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = headerCells[i%len(headerCells)]
	}
	return out
}

func fragments(p profile.FormatProfile, line int, r Row) []string {
	var out []string
	if p.Present(profile.LineIndex) {
		out = append(out, fmt.Sprint(line))
	}
	out = append(out, r.Country, r.Title, r.Released.Format("2006/1/2"))
	for _, c := range p.PresentNumeric() {
		out = append(out, cell(c, r))
	}
	return out
}

func cell(c profile.Column, r Row) string {
	switch c {
	case profile.PeriodDays:
		return fmt.Sprint(r.Days)
	case profile.PeriodTheaters:
		return fmt.Sprint(r.Theaters)
	case profile.MaxTheaters:
		return fmt.Sprint(r.MaxTheaters)
	case profile.PeriodTickets:
		return Group(r.Tickets)
	case profile.PeriodSales:
		return Group(r.Sales)
	case profile.CumulativeTickets:
		return Group(r.CumulativeTickets)
	case profile.CumulativeSales:
		return Group(r.CumulativeSales)
	}
	return "-"
}

// Group formats n with thousands separators, the way bulletins print counts.
func Group(n int64) string {
	return printer.Sprintf("%d", n)
}

// HTML renders pages in the pdf2htmlEX markup read by the HTML source: one
// div[data-page-no] per page holding one text box per fragment.
func HTML(title string, pages []record.Page) []byte {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title></head><body>\n")
	for _, pg := range pages {
		fmt.Fprintf(&b, "<div id=\"pf%x\" class=\"pf\" data-page-no=\"%x\"><div class=\"pc\">\n", pg.Number, pg.Number)
		for _, f := range pg.Fragments {
			fmt.Fprintf(&b, "<div class=\"t\">%s</div>\n", html.EscapeString(f))
		}
		b.WriteString("</div></div>\n")
	}
	b.WriteString("</body></html>\n")
	return []byte(b.String())
}

// WeeklyTitle is a bulletin headline carrying the period start..end.
func WeeklyTitle(start, end time.Time) string {
	return fmt.Sprintf("全國電影票房%d年%d月%d日至%d年%d月%d日統計資訊",
		start.Year(), start.Month(), start.Day(), end.Year(), end.Month(), end.Day())
}
