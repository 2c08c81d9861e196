package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/sethgrid/pester"

	"github.com/nafan/nafan/pkg/nafan/internalerr"
)

// Sitemap harvests the documents listed in an XML sitemap. Entries of a
// sitemap index are followed one level deep.
type Sitemap struct {
	URL string
	// Since skips entries whose lastmod is before it. Entries without a
	// parseable lastmod are always kept.
	Since time.Time

	client *pester.Client
}

// defaultClient serves a Sitemap built without NewSitemap.
var defaultClient = newClient()

func newClient() *pester.Client {
	client := pester.New()
	client.Backoff = pester.ExponentialBackoff
	client.RetryOnHTTP429 = true
	return client
}

// NewSitemap returns a sitemap harvester with a retrying HTTP client.
func NewSitemap(u string, maxRetries int, timeout time.Duration) *Sitemap {
	client := newClient()
	if maxRetries > 0 {
		client.MaxRetries = maxRetries
	}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return &Sitemap{URL: u, client: client}
}

func (h *Sitemap) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	client := h.client
	if client == nil {
		client = defaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s: %w", u, resp.Status, internalerr.ErrNotFound)
	}
	return resp, nil
}

func (h *Sitemap) List(ctx context.Context) ([]string, error) {
	locs, nested, err := h.fetch(ctx, h.URL)
	if err != nil {
		return nil, err
	}
	for _, sm := range nested {
		more, _, err := h.fetch(ctx, sm)
		if err != nil {
			return nil, err
		}
		locs = append(locs, more...)
	}
	return locs, nil
}

// fetch returns the document locations and nested sitemaps of one sitemap.
func (h *Sitemap) fetch(ctx context.Context, u string) (locs, nested []string, err error) {
	resp, err := h.get(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	body, err := Decompress(resp.Body, u)
	if err != nil {
		resp.Body.Close()
		return nil, nil, fmt.Errorf("sitemap %s: %w", u, err)
	}
	defer body.Close()
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, nil, fmt.Errorf("sitemap %s: %w", u, internalerr.ErrParse)
	}
	doc.Find("sitemap").Each(func(i int, s *goquery.Selection) {
		if loc := strings.TrimSpace(s.Find("loc").First().Text()); loc != "" {
			nested = append(nested, loc)
		}
	})
	doc.Find("url").Each(func(i int, s *goquery.Selection) {
		loc := strings.TrimSpace(s.Find("loc").First().Text())
		if loc == "" || !h.fresh(s.Find("lastmod").First().Text()) {
			return
		}
		locs = append(locs, loc)
	})
	return locs, nested, nil
}

func (h *Sitemap) fresh(lastmod string) bool {
	lastmod = strings.TrimSpace(lastmod)
	if h.Since.IsZero() || lastmod == "" {
		return true
	}
	t, err := dateparse.ParseAny(lastmod)
	if err != nil {
		return true
	}
	return !t.Before(h.Since)
}

func (h *Sitemap) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	resp, err := h.get(ctx, locator)
	if err != nil {
		return nil, err
	}
	name := locator
	if u, err := url.Parse(locator); err == nil {
		name = path.Base(u.Path)
	}
	rc, err := Decompress(resp.Body, name)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", locator, err)
	}
	return rc, nil
}
