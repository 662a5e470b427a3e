package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, "custom-icon-badges-test")
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("https://img.shields.io/", time.Second, "")
	assert.Equal(t, "https://img.shields.io", c.BaseURL)
	assert.Equal(t, time.Second, c.HTTPClient.Timeout)
}

func TestFetch_Success(t *testing.T) {
	var gotUA, gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "image/svg+xml;charset=utf-8")
		w.Header().Set("Cache-Control", "max-age=300")
		_, _ = w.Write([]byte("<svg/>"))
	})

	resp, err := c.Fetch(context.Background(), c.BaseURL+"/badge/a%20b-c-d?logo=x&style=flat")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", resp.StatusText)
	assert.Equal(t, "image/svg+xml;charset=utf-8", resp.ContentType())
	assert.Equal(t, "max-age=300", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "<svg/>", string(resp.Body))
	assert.Equal(t, "custom-icon-badges-test", gotUA)
	assert.Equal(t, "/badge/a%20b-c-d", gotPath)
	assert.Equal(t, "logo=x&style=flat", gotQuery)
}

func TestFetch_ErrorStatusIsNotAnError(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusRequestURITooLong, http.StatusInternalServerError} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
			_, _ = w.Write([]byte("<svg>error</svg>"))
		})

		resp, err := c.Fetch(context.Background(), c.BaseURL+"/badge/x")
		require.NoError(t, err)
		assert.Equal(t, code, resp.StatusCode)
		assert.Equal(t, http.StatusText(code), resp.StatusText)
		assert.Equal(t, "<svg>error</svg>", string(resp.Body))
	}
}

func TestFetch_DefaultContentType(t *testing.T) {
	resp := &Response{Header: http.Header{}}
	assert.Equal(t, DefaultContentType, resp.ContentType())
}

func TestFetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, time.Second, "")
	_, err := c.Fetch(context.Background(), url+"/badge/x")
	require.Error(t, err)
}

func TestFetch_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Fetch(ctx, c.BaseURL+"/badge/x")
	require.Error(t, err)
}

func TestDefaultBadgeURL(t *testing.T) {
	c := New("https://img.shields.io", time.Second, "")
	assert.Equal(t, "https://img.shields.io/badge/-test-blue?logo=github", c.DefaultBadgeURL("github"))
	assert.Equal(t, "https://img.shields.io/badge/-test-blue?logo=a%26b", c.DefaultBadgeURL("a&b"))
}

func TestStatusText_FallsBackToStandardText(t *testing.T) {
	assert.Equal(t, "Not Found", statusText(&http.Response{StatusCode: 404, Status: "404"}))
	assert.Equal(t, "Custom Reason", statusText(&http.Response{StatusCode: 400, Status: "400 Custom Reason"}))
}
