package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchExtractsTitleAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Breaking &amp; Entering</title>
			<script>var x = "ignore me";</script></head>
			<body><h1>Breaking &amp; Entering</h1>
			<p>Police reported   the incident on Tuesday.</p></body></html>`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Breaking & Entering", page.Title)
	assert.Contains(t, page.Body, "Police reported the incident on Tuesday.")
	assert.NotContains(t, page.Body, "ignore me", "script content must be stripped")
	assert.NotContains(t, page.Body, "<p>", "markup must be stripped")
	assert.False(t, page.Restricted)
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 410")
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	f := NewHTTPFetcher(time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchDetectsLoginWall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Sign in - Google Accounts</title></head>
			<body>Sign in to continue to Google Docs</body></html>`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, page.Restricted)
}

func TestFetchCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewHTTPFetcher(5 * time.Second)
	_, err := f.Fetch(ctx, srv.URL)
	assert.Error(t, err)
}

func TestIsLoginWalled(t *testing.T) {
	cases := []struct {
		name  string
		title string
		body  string
		want  bool
	}{
		{"google sign-in page", "Sign in - Google Accounts", "sign in to continue", true},
		{"generic login page", "Login", "please login to view", true},
		{"news article mentioning login", "Data breach hits bank", "users asked to sign in and reset passwords", false},
		{"plain article", "Weather report", "sunny all week", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isLoginWalled(tc.title, tc.body))
		})
	}
}
