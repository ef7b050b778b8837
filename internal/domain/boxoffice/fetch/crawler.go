// Package fetch downloads bulletins linked from the publication listing.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/sniffer"
	"github.com/FACorreiaa/box-office-tracker/pkg/storage"
)

// MaxBulletinSize bounds a single download.
const MaxBulletinSize = 64 << 20

var digitsRe = regexp.MustCompile(`\d+`)

// Link is one bulletin reference found on the listing page.
type Link struct {
	URL  *url.URL
	Text string
}

// Result summarises one crawl.
type Result struct {
	Downloaded []*storage.FileInfo
	Duplicates int
	Failed     []error
}

// Options configures a Crawler.
type Options struct {
	ListingURL    string
	LinkSelector  string
	RatePerSecond int
	UserAgent     string
	// Limit caps the number of links followed; 0 follows all of them.
	Limit int
}

// Crawler lists bulletin links and stores the files it has not seen.
type Crawler struct {
	client  *http.Client
	store   storage.Storage
	limiter *rate.Limiter
	opts    Options
	logger  *slog.Logger
}

// NewCrawler creates a crawler. A nil client uses a client with a 60s timeout.
func NewCrawler(client *http.Client, store storage.Storage, opts Options, logger *slog.Logger) (*Crawler, error) {
	if _, err := url.Parse(opts.ListingURL); err != nil || opts.ListingURL == "" {
		return nil, fmt.Errorf("invalid listing url %q", opts.ListingURL)
	}
	if opts.LinkSelector == "" {
		return nil, errors.New("link selector is required")
	}
	if opts.RatePerSecond < 1 {
		opts.RatePerSecond = 1
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		client:  client,
		store:   store,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1),
		opts:    opts,
		logger:  logger,
	}, nil
}

// Links returns the bulletin links of the listing page in page order, with
// duplicate targets removed.
func (c *Crawler) Links(ctx context.Context) ([]Link, error) {
	base, err := url.Parse(c.opts.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing url: %w", err)
	}

	resp, err := c.get(ctx, base.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}

	var links []Link
	seen := make(map[string]bool)
	doc.Find(c.opts.LinkSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			c.logger.Warn("Skipping malformed link", slog.String("href", href))
			return
		}
		u := base.ResolveReference(ref)
		if seen[u.String()] {
			return
		}
		seen[u.String()] = true
		links = append(links, Link{URL: u, Text: strings.TrimSpace(s.Text())})
	})

	if c.opts.Limit > 0 && len(links) > c.opts.Limit {
		links = links[:c.opts.Limit]
	}
	return links, nil
}

// Crawl downloads every listed bulletin whose content is not already in the
// store. A failed download is recorded and the crawl continues.
func (c *Crawler) Crawl(ctx context.Context) (*Result, error) {
	links, err := c.Links(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := c.store.List(ctx, storage.KindSource)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored sources: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, info := range existing {
		known[info.Fingerprint] = true
	}

	result := &Result{}
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		info, dup, err := c.download(ctx, link, known)
		switch {
		case err != nil:
			c.logger.Warn("Bulletin download failed",
				slog.String("url", link.URL.String()),
				slog.Any("error", err))
			result.Failed = append(result.Failed, fmt.Errorf("%s: %w", link.URL, err))
		case dup:
			result.Duplicates++
		default:
			known[info.Fingerprint] = true
			result.Downloaded = append(result.Downloaded, info)
			c.logger.Info("Bulletin stored",
				slog.String("name", info.Name),
				slog.Int64("size", info.Size))
		}
	}

	c.logger.Info("Crawl finished",
		slog.Int("links", len(links)),
		slog.Int("downloaded", len(result.Downloaded)),
		slog.Int("duplicates", result.Duplicates),
		slog.Int("failed", len(result.Failed)))
	return result, nil
}

func (c *Crawler) download(ctx context.Context, link Link, known map[string]bool) (*storage.FileInfo, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	resp, err := c.get(ctx, link.URL.String())
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBulletinSize+1))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read body: %w", err)
	}
	if len(data) > MaxBulletinSize {
		return nil, false, fmt.Errorf("bulletin exceeds %d bytes", MaxBulletinSize)
	}

	if known[sniffer.Fingerprint(data)] {
		return nil, true, nil
	}

	kind := sniffer.Detect(data)
	if kind == sniffer.KindUnknown {
		return nil, false, errors.New("response is neither PDF nor HTML")
	}

	name := Filename(link, resp.Header.Get("Content-Disposition"), kind)
	info, err := c.store.Put(ctx, storage.KindSource, name, contentType(kind), bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("failed to store bulletin: %w", err)
	}
	return info, false, nil
}

func (c *Crawler) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp, nil
}

// Filename picks the stored name of a bulletin. The server-provided name wins
// when it carries a publication id; otherwise the first number in the link
// becomes the id.
func Filename(link Link, disposition string, kind sniffer.Kind) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := path.Base(params["filename"]); digitsRe.MatchString(name) {
				return name
			}
		}
	}

	ext := ".pdf"
	if kind == sniffer.KindHTML {
		ext = ".html"
	}

	for _, candidate := range []string{link.URL.RawQuery, path.Base(link.URL.Path), link.Text} {
		if id := digitsRe.FindString(candidate); id != "" {
			return "bulletin-" + id + ext
		}
	}
	return "bulletin" + ext
}

func contentType(kind sniffer.Kind) string {
	if kind == sniffer.KindHTML {
		return "text/html"
	}
	return "application/pdf"
}
