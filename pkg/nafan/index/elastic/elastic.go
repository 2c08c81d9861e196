// Package elastic writes finding aid summaries to an Elasticsearch-compatible
// index over its REST API.
package elastic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/sethgrid/pester"

	"github.com/nafan/nafan/pkg/nafan/index"
	"github.com/nafan/nafan/pkg/nafan/internalerr"
)

// DefaultIndexName is the index finding aids are written to.
const DefaultIndexName = "nafan"

// Config configures a Client.
type Config struct {
	URL        string // e.g. http://localhost:9200
	Name       string
	MaxRetries int
	Timeout    time.Duration
}

// Client is an index.Indexer backed by the Elasticsearch document API.
type Client struct {
	http *pester.Client
	base string
	name string
}

// New creates a client. Requests are retried with exponential backoff on
// transport errors, 5xx and 429 responses.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("elastic url: %w", internalerr.ErrInvalidConfig)
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("elastic url %q: %v: %w", cfg.URL, err, internalerr.ErrInvalidConfig)
	}
	name := cfg.Name
	if name == "" {
		name = DefaultIndexName
	}

	client := pester.New()
	client.Backoff = pester.ExponentialBackoff
	client.RetryOnHTTP429 = true
	if cfg.MaxRetries > 0 {
		client.MaxRetries = cfg.MaxRetries
	}
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}
	return &Client{http: client, base: strings.TrimRight(cfg.URL, "/"), name: name}, nil
}

type writeResponse struct {
	ID     string `json:"_id"`
	Result string `json:"result"`
}

// Index creates a document and returns the id the index assigned.
func (c *Client) Index(ctx context.Context, s index.Summary) (string, error) {
	var resp writeResponse
	if err := c.do(ctx, http.MethodPost, c.base+"/"+c.name+"/_doc", s, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("index response without _id: %w", internalerr.ErrIndex)
	}
	return resp.ID, nil
}

// Update replaces the fields of an existing document.
func (c *Client) Update(ctx context.Context, id string, s index.Summary) (string, error) {
	body := struct {
		Doc index.Summary `json:"doc"`
	}{Doc: s}
	var resp writeResponse
	if err := c.do(ctx, http.MethodPost, c.base+"/"+c.name+"/_update/"+url.PathEscape(id), body, &resp); err != nil {
		return "", err
	}
	if resp.ID != "" {
		return resp.ID, nil
	}
	return id, nil
}

// Delete removes a document.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.base+"/"+c.name+"/_doc/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, u string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, u, err, internalerr.ErrIndex)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %s: %s: %w", method, u, resp.Status, bytes.TrimSpace(msg), internalerr.ErrIndex)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %v: %w", u, err, internalerr.ErrIndex)
	}
	return nil
}

var _ index.Indexer = (*Client)(nil)
