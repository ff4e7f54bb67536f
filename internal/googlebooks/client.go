// Package googlebooks fetches book metadata from the Google Books API
// by ISBN, with rate limiting and a persistent response cache.
package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jhakala/libris/internal/cache"
	"github.com/jhakala/libris/internal/config"
	apierrors "github.com/jhakala/libris/internal/errors"
	"github.com/jhakala/libris/internal/ratelimit"
	"github.com/jhakala/libris/internal/types"
)

const defaultBaseURL = "https://www.googleapis.com/books/v1"

// Client talks to the Google Books volumes endpoint.
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.Limiter
	baseURL     string
	apiKey      string
	clientOnce  sync.Once
	limiterOnce sync.Once
}

// NewClient creates a Google Books client using the configured API key.
// The key is optional; anonymous requests work with tighter quotas.
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  config.GoogleBooksAPIKey,
	}
}

// Ping tests the connection to the Google Books API.
func (c *Client) Ping(ctx context.Context) error {
	// A search that should always return results
	url := fmt.Sprintf("%s/volumes?q=isbn:0140447938&maxResults=1", c.getBaseURL())

	client := c.getHTTPClient()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating ping request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("google books ping failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("google books returned status %d", resp.StatusCode)
	}

	return nil
}

// FetchByISBN looks up one book by ISBN. The ISBN is normalized before the
// lookup, and responses (including not-found) are cached.
// Returns a NotFoundError when the API knows no volume for the ISBN.
func (c *Client) FetchByISBN(ctx context.Context, isbn string) (*types.BookRecord, error) {
	normalized := NormalizeISBN(isbn)
	if normalized == "" {
		return nil, fmt.Errorf("empty ISBN")
	}

	cached, _, err := cache.GetOrFetchWithTTL("googlebooks_cache", normalized, func() (*cachedVolumeResult, error) {
		return c.fetchFromAPI(ctx, normalized)
	}, cache.SelectNegativeCacheTTL(func(r *cachedVolumeResult) bool {
		return r.NotFound
	}))
	if err != nil {
		return nil, err
	}

	if cached.NotFound {
		return nil, apierrors.NewNotFoundError("ISBN " + normalized)
	}

	return cached.Record, nil
}

// cachedVolumeResult wraps a book record with metadata for negative caching.
type cachedVolumeResult struct {
	Record   *types.BookRecord `json:"record"`
	NotFound bool              `json:"not_found"`
}

// volumesResponse matches the Google Books API response structure.
type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title         string   `json:"title"`
			Authors       []string `json:"authors"`
			Publisher     string   `json:"publisher"`
			PublishedDate string   `json:"publishedDate"`
			Description   string   `json:"description"`
			PageCount     int      `json:"pageCount"`
			PrintType     string   `json:"printType"`
			Categories    []string `json:"categories"`
			Language      string   `json:"language"`
			InfoLink      string   `json:"infoLink"`
			ImageLinks    struct {
				Thumbnail      string `json:"thumbnail"`
				SmallThumbnail string `json:"smallThumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

func (c *Client) fetchFromAPI(ctx context.Context, isbn string) (*cachedVolumeResult, error) {
	limiter := c.getRateLimiter()
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	client := c.getHTTPClient()

	url := fmt.Sprintf("%s/volumes?q=isbn:%s", c.getBaseURL(), isbn)
	if c.apiKey != "" {
		url = fmt.Sprintf("%s&key=%s", url, c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		if retryAfter > 0 {
			return nil, apierrors.NewRateLimitErrorWithRetry("google books rate limit exceeded", retryAfter)
		}
		return nil, apierrors.NewRateLimitError("google books rate limit exceeded")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if result.TotalItems == 0 || len(result.Items) == 0 {
		// Not found is a cacheable answer, not an error
		return &cachedVolumeResult{NotFound: true}, nil
	}

	// Use first item (best match)
	vol := result.Items[0].VolumeInfo

	record := &types.BookRecord{
		ISBN:           isbn,
		Title:          vol.Title,
		Publisher:      vol.Publisher,
		PublishedDate:  vol.PublishedDate,
		Description:    vol.Description,
		PrintType:      vol.PrintType,
		Language:       vol.Language,
		InfoLink:       vol.InfoLink,
		SmallThumbnail: vol.ImageLinks.SmallThumbnail,
		Authors:        vol.Authors,
		Categories:     vol.Categories,
	}

	if record.SmallThumbnail == "" {
		record.SmallThumbnail = vol.ImageLinks.Thumbnail
	}

	if vol.PageCount > 0 {
		pages := vol.PageCount
		record.PageCount = &pages
	}

	return &cachedVolumeResult{Record: record}, nil
}

func (c *Client) getBaseURL() string {
	if c.baseURL == "" {
		return defaultBaseURL
	}
	return c.baseURL
}

func (c *Client) getHTTPClient() *http.Client {
	c.clientOnce.Do(func() {
		if c.httpClient == nil {
			c.httpClient = &http.Client{Timeout: 10 * time.Second}
		}
	})
	return c.httpClient
}

func (c *Client) getRateLimiter() *ratelimit.Limiter {
	c.limiterOnce.Do(func() {
		if c.rateLimiter == nil {
			c.rateLimiter = ratelimit.New("GoogleBooks", 1)
		}
	})
	return c.rateLimiter
}

// parseRetryAfter interprets a Retry-After header given in seconds.
// HTTP-date values are not expected from this API and yield zero.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// NormalizeISBN strips hyphens and spaces from an ISBN.
func NormalizeISBN(isbn string) string {
	normalized := strings.ReplaceAll(isbn, "-", "")
	normalized = strings.ReplaceAll(normalized, " ", "")
	return normalized
}
