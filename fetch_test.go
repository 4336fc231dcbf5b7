package media_archiver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestHTTPFetcher(t *testing.T) {
	assert := assert_.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"id": 1}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher()

	body, err := fetcher.Fetch(context.Background(), server.URL+"/ok", "thing", "downloading info")
	assert.NoError(err)
	assert.Equal(`{"id": 1}`, body)

	_, err = fetcher.Fetch(context.Background(), server.URL+"/missing", "thing", "downloading info")
	assert.ErrorContains(err, "unexpected status")
}

func TestHTTPFetcherContextCancelled(t *testing.T) {
	assert := assert_.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("slow"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fetcher := NewHTTPFetcher()
	_, err := fetcher.Fetch(ctx, server.URL, "thing", "downloading info")
	assert.ErrorIs(err, context.Canceled)
}
