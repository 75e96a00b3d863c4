package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ProxyPull/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>"Stripe IPO" - Google News</title>
<item>
  <title>Stripe weighs listing in 2027 - Example Times</title>
  <link>https://news.example.com/a</link>
  <pubDate>Fri, 16 Oct 2026 09:00:00 GMT</pubDate>
  <source url="https://example.com">Example Times</source>
</item>
<item>
  <title>No separator here</title>
  <link>https://news.example.com/b</link>
  <source url="https://wire.example">Wire</source>
</item>
<item>
  <title></title>
  <link>https://news.example.com/c</link>
</item>
<item>
  <title>Payments - a - story - Daily</title>
  <link>https://news.example.com/d</link>
</item>
</channel></rss>`

func TestSearchParsesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rss/search", r.URL.Path)
		assert.Equal(t, "Stripe IPO", r.URL.Query().Get("q"))
		assert.Equal(t, "US:en", r.URL.Query().Get("ceid"))
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	items, err := New(srv.URL, nil).Search(context.Background(), "Stripe IPO", 10)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "Stripe weighs listing in 2027", items[0].Title)
	assert.Equal(t, "Example Times", items[0].Source)
	assert.Equal(t, time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC), items[0].PublishedAt)

	assert.Equal(t, "No separator here", items[1].Title)
	assert.Equal(t, "Wire", items[1].Source)
	assert.True(t, items[1].PublishedAt.IsZero())

	assert.Equal(t, "Payments - a - story", items[2].Title)
	assert.Equal(t, "Daily", items[2].Source)
}

func TestSearchLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	items, err := New(srv.URL, nil).Search(context.Background(), "x", 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSearchMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<rss><channel><item>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Search(context.Background(), "x", 5)
	se, ok := models.AsSourceError(err)
	require.True(t, ok)
	assert.Equal(t, models.MalformedResponse, se.Kind)
}

func TestSplitTitle(t *testing.T) {
	title, source := SplitTitle("  - Leading")
	assert.Equal(t, "- Leading", title)
	assert.Empty(t, source)
}
