package googlebooks

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apierrors "github.com/jhakala/libris/internal/errors"
	"github.com/jhakala/libris/internal/ratelimit"
	"github.com/jhakala/libris/internal/testutil"
	"github.com/stretchr/testify/require"
)

func newIPv4TestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)

	server := httptest.NewUnstartedServer(handler)
	server.Listener = listener
	server.Start()

	t.Cleanup(server.Close)
	return server
}

// newTestClient wires a client against a local test server with a fresh
// cache database so tests never touch the real cache or API.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	testutil.ResetConfig(t)
	env := testutil.NewTestEnv(t)
	testutil.SetupTestCache(t, env)

	server := newIPv4TestServer(t, handler)

	return &Client{
		baseURL:     server.URL,
		httpClient:  server.Client(),
		rateLimiter: ratelimit.New("test", 100),
	}
}

const catcherResponse = `{
	"totalItems": 1,
	"items": [{
		"volumeInfo": {
			"title": "The Catcher in the Rye",
			"authors": ["J.D. Salinger"],
			"publisher": "Little, Brown Books for Young Readers",
			"publishedDate": "1991-05-01",
			"description": "The hero-narrator of The Catcher in the Rye...",
			"pageCount": 277,
			"printType": "BOOK",
			"categories": ["Fiction", "Classics"],
			"imageLinks": {
				"thumbnail": "http://books.google.com/books/content?id=PCDengEACAAJ&zoom=1",
				"smallThumbnail": "http://books.google.com/books/content?id=PCDengEACAAJ&zoom=5"
			},
			"language": "en",
			"infoLink": "https://books.google.com/books?id=PCDengEACAAJ"
		}
	}]
}`

func TestFetchByISBNSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/volumes", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "isbn:9780316769488", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(catcherResponse))
	})

	client := newTestClient(t, mux)

	record, err := client.FetchByISBN(context.Background(), "978-0-316-76948-8")
	require.NoError(t, err)
	require.Equal(t, "9780316769488", record.ISBN)
	require.Equal(t, "The Catcher in the Rye", record.Title)
	require.Equal(t, []string{"J.D. Salinger"}, record.Authors)
	require.Equal(t, []string{"Fiction", "Classics"}, record.Categories)
	require.Equal(t, "Little, Brown Books for Young Readers", record.Publisher)
	require.Equal(t, "1991-05-01", record.PublishedDate)
	require.Equal(t, "BOOK", record.PrintType)
	require.Equal(t, "en", record.Language)
	require.NotNil(t, record.PageCount)
	require.Equal(t, 277, *record.PageCount)
	require.Contains(t, record.SmallThumbnail, "zoom=5")
	require.Contains(t, record.InfoLink, "books.google.com")
}

func TestFetchByISBNThumbnailFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/volumes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"totalItems": 1,
			"items": [{
				"volumeInfo": {
					"title": "No Small Thumbnail",
					"imageLinks": {"thumbnail": "http://books.google.com/full"}
				}
			}]
		}`))
	})

	client := newTestClient(t, mux)

	record, err := client.FetchByISBN(context.Background(), "1234567890")
	require.NoError(t, err)
	require.Equal(t, "http://books.google.com/full", record.SmallThumbnail)
	require.Nil(t, record.PageCount)
}

func TestFetchByISBNNotFound(t *testing.T) {
	var requests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/volumes", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(`{"totalItems": 0, "items": []}`))
	})

	client := newTestClient(t, mux)

	record, err := client.FetchByISBN(context.Background(), "0000000000")
	require.Error(t, err)
	require.Nil(t, record)
	require.True(t, apierrors.IsNotFoundError(err))

	// Second lookup should be answered from the negative cache
	_, err = client.FetchByISBN(context.Background(), "0000000000")
	require.Error(t, err)
	require.True(t, apierrors.IsNotFoundError(err))
	require.Equal(t, int32(1), requests.Load())
}

func TestFetchByISBNCachesSuccess(t *testing.T) {
	var requests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/volumes", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(catcherResponse))
	})

	client := newTestClient(t, mux)

	first, err := client.FetchByISBN(context.Background(), "9780316769488")
	require.NoError(t, err)

	second, err := client.FetchByISBN(context.Background(), "9780316769488")
	require.NoError(t, err)

	require.Equal(t, first.Title, second.Title)
	require.Equal(t, int32(1), requests.Load())
}

func TestFetchByISBNRateLimited(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/volumes", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	client := newTestClient(t, mux)

	record, err := client.FetchByISBN(context.Background(), "9780316769488")
	require.Error(t, err)
	require.Nil(t, record)
	require.True(t, apierrors.IsRateLimitError(err))

	var rlErr *apierrors.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	require.Equal(t, 7*time.Second, rlErr.RetryAfter)
}

func TestFetchByISBNHTTPError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/volumes", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	})

	client := newTestClient(t, mux)

	record, err := client.FetchByISBN(context.Background(), "9780316769488")
	require.Error(t, err)
	require.Nil(t, record)
	require.Contains(t, err.Error(), "status 500")
}

func TestFetchByISBNMalformedJSON(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/volumes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{invalid json`))
	})

	client := newTestClient(t, mux)

	record, err := client.FetchByISBN(context.Background(), "9780316769488")
	require.Error(t, err)
	require.Nil(t, record)
	require.Contains(t, err.Error(), "decoding response")
}

func TestFetchByISBNEmpty(t *testing.T) {
	client := &Client{}

	record, err := client.FetchByISBN(context.Background(), "  - ")
	require.Error(t, err)
	require.Nil(t, record)
}

func TestNormalizeISBN(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "ISBN with hyphens",
			input:    "978-0-316-76948-8",
			expected: "9780316769488",
		},
		{
			name:     "ISBN with spaces",
			input:    "978 0 316 76948 8",
			expected: "9780316769488",
		},
		{
			name:     "ISBN with hyphens and spaces",
			input:    "978-0-316 76948-8",
			expected: "9780316769488",
		},
		{
			name:     "ISBN already clean",
			input:    "9780316769488",
			expected: "9780316769488",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, NormalizeISBN(tt.input))
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	require.Equal(t, time.Duration(0), parseRetryAfter(""))
	require.Equal(t, time.Duration(0), parseRetryAfter("soon"))
	require.Equal(t, time.Duration(0), parseRetryAfter("-1"))
	require.Equal(t, 30*time.Second, parseRetryAfter("30"))
}
