package navitia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"idfmcal/internal/cache"
	appLog "idfmcal/internal/log"
)

// DefaultBaseURL is the IDFM PRIM marketplace Navitia deployment.
// API keys are issued at https://connect.iledefrance-mobilites.fr/.
const DefaultBaseURL = "https://prim.iledefrance-mobilites.fr/marketplace/v2/navitia/"

// Paging carries the start_page/count query parameters. The query is
// rendered in this fixed order so the resulting URL, which doubles as
// the cache key, is deterministic.
type Paging struct {
	StartPage int
	Count     int
}

// Stats counts upstream calls and cache hits for one client. Values are
// only meaningful within a single process.
type Stats struct {
	calls     atomic.Int64
	cacheHits atomic.Int64
}

func (s *Stats) Calls() int64     { return s.calls.Load() }
func (s *Stats) CacheHits() int64 { return s.cacheHits.Load() }

// StatusError reports a non-success HTTP status for a request URL. A
// cached 404 reproduces the exact error of the original request.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: response status %d", e.URL, e.Status)
}

// Client issues authenticated GETs against the API, consulting a cache
// store keyed by the canonical request URL before any network call.
type Client struct {
	baseURL    string
	apiKey     string
	store      cache.Store
	httpClient *http.Client
	stats      *Stats
}

// NewClient creates a client. store may be nil, which disables caching
// entirely; stats may be nil, in which case counters go to a private
// sink.
func NewClient(baseURL, apiKey string, store cache.Store, stats *Stats) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if stats == nil {
		stats = &Stats{}
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		store:   store,
		// The default transport follows redirects, which the API uses
		// for coverage aliases.
		httpClient: &http.Client{Timeout: 60 * time.Second},
		stats:      stats,
	}
}

// Stats exposes the client's counters.
func (c *Client) Stats() *Stats { return c.stats }

// RequestURL canonicalizes a request into the absolute URL used both on
// the wire and as the cache key.
func (c *Client) RequestURL(path string, paging *Paging) string {
	u := JoinURLPath(c.baseURL, path)
	if paging == nil {
		return u
	}
	query := "start_page=" + strconv.Itoa(paging.StartPage) + "&count=" + strconv.Itoa(paging.Count)
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + query
}

// Get fetches path (with optional paging) and returns the raw JSON
// payload. Responses are cached by URL; a 404 is cached as a not-found
// marker so repeating the request stays cheap and fails identically.
func (c *Client) Get(ctx context.Context, path string, paging *Paging) (json.RawMessage, error) {
	u := c.RequestURL(path, paging)

	if c.store != nil {
		entry, ok, err := c.store.Get(ctx, u)
		if err != nil {
			return nil, errors.Wrapf(err, "cache lookup for %s", u)
		}
		if ok {
			if entry.NotFound {
				return nil, &StatusError{URL: u, Status: entry.Status}
			}
			c.stats.cacheHits.Add(1)
			appLog.Debug("loaded from cache", "url", u)
			return entry.Payload, nil
		}
	}

	appLog.Info("download started", "url", u)
	c.stats.calls.Add(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", u)
	}
	req.Header.Set("APIKey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", u)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		if c.store != nil {
			if serr := c.store.Set(ctx, u, cache.NotFoundEntry(http.StatusNotFound)); serr != nil {
				appLog.Error("failed to cache not-found marker", serr, "url", u)
			}
		}
		return nil, &StatusError{URL: u, Status: http.StatusNotFound}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		statusErr := &StatusError{URL: u, Status: resp.StatusCode}
		body, _ := io.ReadAll(resp.Body)
		appLog.Error("unexpected response status", statusErr, "url", u, "status", resp.StatusCode, "body", string(body))
		return nil, statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read response body of %s", u)
	}
	if !json.Valid(body) {
		return nil, errors.Errorf("GET %s: response body is not valid JSON", u)
	}

	if c.store != nil {
		if serr := c.store.Set(ctx, u, cache.PayloadEntry(body)); serr != nil {
			appLog.Error("failed to cache response", serr, "url", u)
		}
	}

	return body, nil
}
