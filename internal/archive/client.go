// Package archive is a client for the Internet Archive's public JSON
// API: catalog search by subject, per-item metadata and file download.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/noisylabs/speechset/pkg/logger"
	"github.com/noisylabs/speechset/pkg/utils"
)

const DefaultBaseURL = "https://archive.org"

const defaultUserAgent = "speechset/1.0"

// Item is one search hit: a catalog entry identified by its stable
// identifier.
type Item struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
}

// FileEntry describes one file attached to an item. The archive reports
// numeric fields as strings.
type FileEntry struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Format string `json:"format"`
	Length string `json:"length"`
	Size   string `json:"size"`
}

// SizeBytes parses the reported size, 0 when absent or malformed.
func (f FileEntry) SizeBytes() int64 {
	n, err := strconv.ParseInt(f.Size, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Duration parses the reported length, which the archive emits either
// as fractional seconds ("123.45") or as a clock string ("1:02:03").
func (f FileEntry) Duration() time.Duration {
	if f.Length == "" {
		return 0
	}
	if !strings.Contains(f.Length, ":") {
		secs, err := strconv.ParseFloat(f.Length, 64)
		if err != nil {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}

	parts := strings.Split(f.Length, ":")
	total := 0.0
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0
		}
		total = total*60 + v
	}
	return time.Duration(total * float64(time.Second))
}

// Review is a user review attached to an item.
type Review struct {
	Title string `json:"reviewtitle"`
	Body  string `json:"reviewbody"`
}

// ItemMetadata is the /metadata response for one item.
type ItemMetadata struct {
	Metadata struct {
		Identifier string `json:"identifier"`
		Title      string `json:"title"`
		Mediatype  string `json:"mediatype"`
	} `json:"metadata"`
	Files   []FileEntry `json:"files"`
	Reviews []Review    `json:"reviews"`
}

type searchResponse struct {
	Response struct {
		NumFound int    `json:"numFound"`
		Docs     []Item `json:"docs"`
	} `json:"response"`
}

// Client talks to one archive endpoint. It is created at run start,
// shared across workers and safe for concurrent use.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	log        *logger.Logger

	maxRetries int
	backoff    time.Duration
	rps        float64
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

func WithBackoffFactor(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

func WithRequestsPerSecond(rps float64) Option {
	return func(c *Client) { c.rps = rps }
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  defaultUserAgent,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoffFactor,
		rps:        DefaultRequestsPerSecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.GetLogger().Named("archive")
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: newRetryTransport(c.maxRetries, c.backoff, c.rps),
		}
	}
	return c
}

// Search returns one page of items whose subject matches, restricted to
// audio mediatype, along with the total number of matches the archive
// reports for the query.
func (c *Client) Search(ctx context.Context, subject string, rows, page int) ([]Item, int, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("subject:(%s) AND mediatype:(audio)", subject))
	q.Add("fl[]", "identifier")
	q.Add("fl[]", "title")
	q.Set("rows", strconv.Itoa(rows))
	q.Set("page", strconv.Itoa(page))
	q.Set("output", "json")

	var sr searchResponse
	if err := c.getJSON(ctx, c.baseURL+"/advancedsearch.php?"+q.Encode(), &sr); err != nil {
		return nil, 0, fmt.Errorf("search subject %q: %w", subject, err)
	}

	c.log.Debugf("search %q page %d: %d of %d items", subject, page, len(sr.Response.Docs), sr.Response.NumFound)
	return sr.Response.Docs, sr.Response.NumFound, nil
}

// Metadata fetches the full metadata record for one item.
func (c *Client) Metadata(ctx context.Context, identifier string) (*ItemMetadata, error) {
	var meta ItemMetadata
	if err := c.getJSON(ctx, c.baseURL+"/metadata/"+url.PathEscape(identifier), &meta); err != nil {
		return nil, fmt.Errorf("metadata for %s: %w", identifier, err)
	}
	return &meta, nil
}

// Download streams one file of an item to destPath and returns the byte
// count. The body goes to a .part file that is renamed into place on
// success, so an interrupted download never leaves a final file behind.
func (c *Client) Download(ctx context.Context, identifier, filename, destPath string) (int64, error) {
	u := c.baseURL + "/download/" + url.PathEscape(identifier) + "/" + url.PathEscape(filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s/%s: %w", identifier, filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download %s/%s: unexpected status %s", identifier, filename, resp.Status)
	}

	if err := utils.MakeDir(filepath.Dir(destPath)); err != nil {
		return 0, err
	}

	tmpPath := destPath + ".part"
	out, err := os.Create(tmpPath)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		out.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("download %s/%s: %w", identifier, filename, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}

	if err := utils.MoveFile(tmpPath, destPath); err != nil {
		return 0, err
	}

	c.log.Debugf("downloaded %s/%s (%d bytes)", identifier, filename, n)
	return n, nil
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
