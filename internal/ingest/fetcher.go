// Package ingest fetches learning content from RSS/Atom feeds and blog
// pages and normalizes it into items ready for indexing.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
)

const (
	userAgent            = "Mozilla/5.0 (compatible; learning-coach/1.0)"
	defaultMaxContentLen = 8000
	summaryLen           = 500

	// DefaultMaxItems caps how many entries a single feed fetch returns
	// when the caller does not say.
	DefaultMaxItems = 10
)

// Item is one piece of fetched learning content, normalized across source
// kinds so the indexer does not care where it came from.
type Item struct {
	Title      string
	Link       string
	Summary    string
	Content    string
	Published  string // RFC3339, fetch time when the source does not say
	Author     string
	Tags       []string
	SourceType string
	SourceURL  string
}

// Fetcher pulls content from feeds and blog pages.
type Fetcher struct {
	httpClient    *http.Client
	feeds         *gofeed.Parser
	maxContentLen int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.httpClient.Timeout = d
	}
}

// WithMaxContentLength sets the maximum extracted content length.
func WithMaxContentLength(n int) Option {
	return func(f *Fetcher) {
		f.maxContentLen = n
	}
}

// NewFetcher creates a content fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		feeds:         gofeed.NewParser(),
		maxContentLen: defaultMaxContentLen,
	}
	f.feeds.UserAgent = userAgent
	for _, opt := range opts {
		opt(f)
	}
	f.feeds.Client = f.httpClient
	return f
}

// FetchFeed fetches an RSS or Atom feed and returns up to maxItems entries,
// newest entries first as the feed lists them.
func (f *Fetcher) FetchFeed(ctx context.Context, feedURL string, maxItems int) ([]Item, error) {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	feed, err := f.feeds.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	items := make([]Item, 0, min(len(feed.Items), maxItems))
	for _, entry := range feed.Items {
		if len(items) >= maxItems {
			break
		}
		items = append(items, f.feedItem(entry, feedURL))
	}
	return items, nil
}

func (f *Fetcher) feedItem(entry *gofeed.Item, feedURL string) Item {
	// Full content when the feed carries it, otherwise the summary text.
	content := entry.Content
	if content == "" {
		content = entry.Description
	}
	content = stripHTML(content)
	if len(content) > f.maxContentLen {
		content = content[:f.maxContentLen]
	}

	published := time.Now().UTC().Format(time.RFC3339)
	switch {
	case entry.PublishedParsed != nil:
		published = entry.PublishedParsed.UTC().Format(time.RFC3339)
	case entry.UpdatedParsed != nil:
		published = entry.UpdatedParsed.UTC().Format(time.RFC3339)
	}

	author := ""
	if entry.Author != nil {
		author = entry.Author.Name
	}
	if author == "" && len(entry.Authors) > 0 && entry.Authors[0] != nil {
		author = entry.Authors[0].Name
	}

	return Item{
		Title:      strings.TrimSpace(entry.Title),
		Link:       entry.Link,
		Summary:    truncate(stripHTML(entry.Description), summaryLen),
		Content:    content,
		Published:  published,
		Author:     author,
		Tags:       entry.Categories,
		SourceType: "rss",
		SourceURL:  feedURL,
	}
}

// FetchBlogPost fetches a single page and extracts its readable content
// plus whatever metadata the page declares.
func (f *Fetcher) FetchBlogPost(ctx context.Context, pageURL string) (*Item, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %s", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status fetching %s: %d", pageURL, resp.StatusCode)
	}

	// The body is parsed twice: readability for the article text, goquery
	// for the page's declared metadata.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("extract content: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = article.Title
	}

	summary, _ := doc.Find(`meta[name="description"]`).First().Attr("content")

	author, _ := doc.Find(`meta[name="author"]`).First().Attr("content")
	if author == "" {
		author = strings.TrimSpace(article.Byline)
	}

	var tags []string
	if keywords, ok := doc.Find(`meta[name="keywords"]`).First().Attr("content"); ok {
		for _, kw := range strings.Split(keywords, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				tags = append(tags, kw)
			}
		}
	}

	published := time.Now().UTC().Format(time.RFC3339)
	if declared, ok := doc.Find(`meta[property="article:published_time"]`).First().Attr("content"); ok {
		if t, err := dateparse.ParseAny(declared); err == nil {
			published = t.UTC().Format(time.RFC3339)
		}
	}

	content := strings.TrimSpace(article.TextContent)
	if len(content) > f.maxContentLen {
		content = content[:f.maxContentLen]
	}

	return &Item{
		Title:      title,
		Link:       pageURL,
		Summary:    truncate(strings.TrimSpace(summary), summaryLen),
		Content:    content,
		Published:  published,
		Author:     author,
		Tags:       tags,
		SourceType: "blog",
		SourceURL:  pageURL,
	}, nil
}

// stripHTML reduces markup to its text. Plain text passes through.
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
