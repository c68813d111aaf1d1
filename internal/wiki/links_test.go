package wiki

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html><body>
<p><a href="/wiki/%E6%A4%9C%E7%B4%A2" title="検索">検索</a></p>
<p><a href="https://ja.wikipedia.org/wiki/NLS">NLS</a></p>
<p><a href="/wiki/Category:World_Wide_Web">Category</a></p>
<p><a href="https://example.com/wiki/Elsewhere">Elsewhere</a></p>
<p><a href="https://evilwikipedia.org/wiki/Lookalike">Lookalike</a></p>
<p><a name="anchor">no href</a></p>
</body></html>`

func TestArticleTarget(t *testing.T) {
	target, err := ArticleTarget("https://ja.wikipedia.org/wiki/%E6%A4%9C%E7%B4%A2")
	require.NoError(t, err)
	assert.Equal(t, "/wiki/検索", target)

	target, err = ArticleTarget("https://ja.wikipedia.org/wiki/NLS#History")
	require.NoError(t, err)
	assert.Equal(t, "/wiki/NLS", target)

	_, err = ArticleTarget("https://ja.wikipedia.org")
	assert.Error(t, err)
}

func TestContainsLink(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   bool
	}{
		{"relative percent-encoded", "/wiki/検索", true},
		{"absolute wikipedia", "/wiki/NLS", true},
		{"category", "/wiki/Category:World_Wide_Web", true},
		{"other host", "/wiki/Elsewhere", false},
		{"lookalike host", "/wiki/Lookalike", false},
		{"absent", "/wiki/Missing", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ContainsLink([]byte(samplePage), tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type stubFetcher struct {
	pages map[string]string
	err   error
}

func (f *stubFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.pages[url]), nil
}

func TestLinkCheckerHasLink(t *testing.T) {
	checker := NewLinkChecker(&stubFetcher{pages: map[string]string{
		"https://ja.wikipedia.org/wiki/World_Wide_Web": samplePage,
	}})

	ok, err := checker.HasLink(context.Background(),
		"https://ja.wikipedia.org/wiki/World_Wide_Web",
		"https://ja.wikipedia.org/wiki/%E6%A4%9C%E7%B4%A2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = checker.HasLink(context.Background(),
		"https://ja.wikipedia.org/wiki/World_Wide_Web",
		"https://ja.wikipedia.org/wiki/%E8%B2%AA%E6%AC%B2%E6%B3%95")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsArticleURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://ja.wikipedia.org/wiki/A", true},
		{"http://wikipedia.org/wiki/A", true},
		{"https://EN.Wikipedia.org/wiki/A", true},
		{"https://evilwikipedia.org/wiki/A", false},
		{"https://wikipedia.org.example.com/wiki/A", false},
		{"https://127.0.0.1/internal/admin", false},
		{"ftp://ja.wikipedia.org/wiki/A", false},
		{"https://ja.wikipedia.org", false},
		{"/wiki/A", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsArticleURL(tt.url))
		})
	}
}

func TestLinkCheckerRefusesForeignPage(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`<a href="/wiki/B">B</a>`))
	}))
	defer server.Close()

	checker := NewLinkChecker(NewHTTPFetcher(server.Client(), 0, ""))
	ok, err := checker.HasLink(context.Background(), server.URL+"/internal/admin", "https://ja.wikipedia.org/wiki/B")
	assert.ErrorIs(t, err, ErrForeignHost)
	assert.False(t, ok)
	assert.Zero(t, hits.Load())
}

func TestCheckRedirect(t *testing.T) {
	inside, err := http.NewRequest(http.MethodGet, "https://ja.m.wikipedia.org/wiki/A", nil)
	require.NoError(t, err)
	assert.NoError(t, CheckRedirect(inside, nil))

	outside, err := http.NewRequest(http.MethodGet, "http://169.254.169.254/latest", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, CheckRedirect(outside, nil), ErrForeignHost)
}

func TestLinkCheckerPropagatesFetchError(t *testing.T) {
	errDown := errors.New("network down")
	checker := NewLinkChecker(&stubFetcher{err: errDown})

	_, err := checker.HasLink(context.Background(), "https://ja.wikipedia.org/wiki/A", "https://ja.wikipedia.org/wiki/B")
	assert.ErrorIs(t, err, errDown)
}

func TestHTTPFetcher(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(samplePage))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.Client(), 0, "wikirace-test")

	body, err := fetcher.Fetch(context.Background(), server.URL+"/wiki/A")
	require.NoError(t, err)
	assert.Equal(t, samplePage, string(body))
	assert.Equal(t, "wikirace-test", userAgent)

	_, err = fetcher.Fetch(context.Background(), server.URL+"/missing")
	assert.Error(t, err)
}

func TestHTTPFetcherSpacesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	delay := 50 * time.Millisecond
	fetcher := NewHTTPFetcher(server.Client(), delay, "")

	started := time.Now()
	for i := 0; i < 3; i++ {
		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(started), 2*delay-5*time.Millisecond)
}
