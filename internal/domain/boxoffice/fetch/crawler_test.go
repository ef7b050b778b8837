package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/sniffer"
	"github.com/FACorreiaa/box-office-tracker/pkg/storage"
)

const listing = `<html><body>
<ul>
  <li><a href="viewfile.asp?id=263">全國電影票房 106年12月11日至12月17日</a></li>
  <li><a href="viewfile.asp?id=263">重複連結</a></li>
  <li><a href="viewfile.asp?id=262">全國電影票房 106年12月4日至12月10日</a></li>
  <li><a href="viewfile.asp?id=261">相同內容</a></li>
  <li><a href="viewfile.asp?id=404">遺失</a></li>
  <li><a href="/news.asp">最新消息</a></li>
</ul>
</body></html>`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/about-publicinfo04.asp", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, listing)
	})
	mux.HandleFunc("/viewfile.asp", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id") {
		case "263":
			w.Header().Set("Content-Disposition", `attachment; filename="box_263.pdf"`)
			fmt.Fprint(w, "%PDF-1.4 bulletin 263")
		case "262", "261":
			fmt.Fprint(w, "%PDF-1.4 bulletin 262")
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newCrawler(t *testing.T, srv *httptest.Server, store storage.Storage) *Crawler {
	t.Helper()
	c, err := NewCrawler(srv.Client(), store, Options{
		ListingURL:    srv.URL + "/about-publicinfo04.asp",
		LinkSelector:  "a[href^=viewfile]",
		RatePerSecond: 100,
		UserAgent:     "box-office-tracker/test",
	}, nil)
	require.NoError(t, err)
	return c
}

func TestCrawler_Links(t *testing.T) {
	srv := newServer(t)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	links, err := newCrawler(t, srv, store).Links(context.Background())
	require.NoError(t, err)
	require.Len(t, links, 4, "duplicate hrefs and unrelated links are dropped")
	assert.Equal(t, srv.URL+"/viewfile.asp?id=263", links[0].URL.String())
	assert.Equal(t, "全國電影票房 106年12月11日至12月17日", links[0].Text)
}

func TestCrawler_Crawl(t *testing.T) {
	srv := newServer(t)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	c := newCrawler(t, srv, store)
	result, err := c.Crawl(ctx)
	require.NoError(t, err)

	require.Len(t, result.Downloaded, 2)
	assert.Equal(t, "box_263.pdf", result.Downloaded[0].Name)
	assert.Equal(t, "bulletin-262.pdf", result.Downloaded[1].Name)
	assert.Equal(t, 1, result.Duplicates, "261 serves the same bytes as 262")
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0].Error(), "404")

	t.Run("second crawl stores nothing new", func(t *testing.T) {
		again, err := c.Crawl(ctx)
		require.NoError(t, err)
		assert.Empty(t, again.Downloaded)
		assert.Equal(t, 3, again.Duplicates)
	})

	files, err := store.List(ctx, storage.KindSource)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestCrawler_Limit(t *testing.T) {
	srv := newServer(t)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	c := newCrawler(t, srv, store)
	c.opts.Limit = 1

	result, err := c.Crawl(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Downloaded, 1)
	assert.Equal(t, "box_263.pdf", result.Downloaded[0].Name)
}

func TestNewCrawler_Validation(t *testing.T) {
	_, err := NewCrawler(nil, nil, Options{LinkSelector: "a"}, nil)
	assert.Error(t, err)

	_, err = NewCrawler(nil, nil, Options{ListingURL: "http://example.com"}, nil)
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	mustURL := func(s string) *url.URL {
		u, err := url.Parse(s)
		require.NoError(t, err)
		return u
	}

	tests := []struct {
		name        string
		link        Link
		disposition string
		kind        sniffer.Kind
		want        string
	}{
		{"content disposition", Link{URL: mustURL("http://x/viewfile.asp?id=9")}, `attachment; filename="box_0047.pdf"`, sniffer.KindPDF, "box_0047.pdf"},
		{"disposition without id", Link{URL: mustURL("http://x/viewfile.asp?id=9")}, `attachment; filename="box.pdf"`, sniffer.KindPDF, "bulletin-9.pdf"},
		{"query id", Link{URL: mustURL("http://x/viewfile.asp?id=263")}, "", sniffer.KindPDF, "bulletin-263.pdf"},
		{"path id", Link{URL: mustURL("http://x/files/150.html")}, "", sniffer.KindHTML, "bulletin-150.html"},
		{"text id", Link{URL: mustURL("http://x/latest"), Text: "第51期"}, "", sniffer.KindPDF, "bulletin-51.pdf"},
		{"no id", Link{URL: mustURL("http://x/latest")}, "", sniffer.KindPDF, "bulletin.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.link, tt.disposition, tt.kind))
		})
	}
}
