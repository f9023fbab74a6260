package pagetitle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><head><title> Film Gecesi </title></head><body></body></html>"))
	}))
	defer srv.Close()

	title, err := NewScraper(nil).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Film Gecesi", title)
}

func TestGetNoTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>no title here</body></html>"))
	}))
	defer srv.Close()

	_, err := NewScraper(nil).Get(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrNoTitle)
}

func TestGetErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewScraper(nil).Get(context.Background(), srv.URL)
	assert.Error(t, err)
}
