package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPExtractor_Extract(t *testing.T) {
	paragraph := "Researchers announced a new method for storing energy in sand batteries, " +
		"which can keep heat for months and release it during the winter when demand is highest. "
	page := `<html><head><title>Sand batteries</title></head><body>
<nav><a href="/">home</a></nav>
<article><h1>Sand batteries</h1><p>` + strings.Repeat(paragraph, 5) + `</p><p>` + strings.Repeat(paragraph, 5) + `</p></article>
<footer>copyright</footer></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Readrec/test")
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	e := NewHTTPExtractor(5*time.Second, "Readrec/test")

	t.Run("article page", func(t *testing.T) {
		text, err := e.Extract(context.Background(), server.URL+"/article")
		require.NoError(t, err)
		assert.Contains(t, text, "sand batteries")
		assert.NotContains(t, text, "copyright")
	})

	t.Run("not found", func(t *testing.T) {
		_, err := e.Extract(context.Background(), server.URL+"/missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status code 404")
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := e.Extract(context.Background(), "not-a-url")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid URL")
	})
}
