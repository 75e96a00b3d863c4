package news

import (
	"context"
	"encoding/xml"
	"strings"
	"time"

	"ProxyPull/internal/domain/models"
	"ProxyPull/internal/service/upstream"
	xhttp "ProxyPull/pkg/http"
	"ProxyPull/pkg/util"
)

const SourceName = "news"

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
	Source  struct {
		Text string `xml:",chardata"`
	} `xml:"source"`
}

// Client searches the Google News RSS feed.
type Client struct {
	*upstream.Base
}

func New(baseURL string, client *xhttp.Client) *Client {
	return &Client{Base: upstream.NewBase(SourceName, baseURL, client)}
}

// Search returns up to limit headlines for query, newest first as served.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.Headline, error) {
	body, err := c.GetBytes(ctx, "/rss/search", map[string][]string{
		"q":    {query},
		"hl":   {"en-US"},
		"gl":   {"US"},
		"ceid": {"US:en"},
	})
	if err != nil {
		return nil, err
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, c.Malformed("parse rss: %v", err)
	}

	out := make([]models.Headline, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.TrimSpace(item.Title) == "" || strings.TrimSpace(item.Link) == "" {
			continue
		}
		title, source := SplitTitle(item.Title)
		if source == "" {
			source = strings.TrimSpace(item.Source.Text)
		}
		h := models.Headline{Title: title, Source: source, Link: strings.TrimSpace(item.Link)}
		if ts, ok := parsePubDate(item.PubDate); ok {
			h.PublishedAt = ts
		}
		out = append(out, h)
	}
	return out, nil
}

// SplitTitle splits a "Title - Source" headline at its last separator.
func SplitTitle(full string) (title, source string) {
	full = strings.TrimSpace(full)
	if idx := strings.LastIndex(full, " - "); idx > 0 {
		return strings.TrimSpace(full[:idx]), strings.TrimSpace(full[idx+3:])
	}
	return full, ""
}

func parsePubDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if t, ok := util.ParseTime(s); ok {
		return t.UTC(), true
	}
	return time.Time{}, false
}
