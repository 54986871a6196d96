package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel>
<title>ML Weekly</title>
<link>https://example.com</link>
<description>Machine learning digest</description>
<item>
	<title>Understanding Attention</title>
	<link>https://example.com/attention</link>
	<description>&lt;p&gt;A short intro to attention.&lt;/p&gt;</description>
	<content:encoded><![CDATA[<p>Full text about <b>attention</b> mechanisms.</p>]]></content:encoded>
	<pubDate>Mon, 17 Aug 2026 10:00:00 +0000</pubDate>
	<dc:creator>Ada Lovelace</dc:creator>
	<category>transformers</category>
	<category>nlp</category>
</item>
<item>
	<title>Tokenizer Notes</title>
	<link>https://example.com/tokenizers</link>
	<description>Plain description only.</description>
</item>
<item>
	<title>Third Post</title>
	<link>https://example.com/third</link>
	<description>Third description.</description>
</item>
</channel>
</rss>`

const blogHTML = `<!DOCTYPE html>
<html>
<head>
<title>Attention Explained | ML Blog</title>
<meta name="description" content="A walkthrough of scaled dot-product attention.">
<meta name="author" content="Grace Hopper">
<meta name="keywords" content="attention, transformers , deep learning">
<meta property="article:published_time" content="2026-08-15T08:30:00Z">
</head>
<body>
<article>
<h1>Attention Explained</h1>
<p>Scaled dot-product attention computes a weighted average of value vectors,
where the weights come from the similarity between queries and keys. This
article walks through the computation one matrix at a time.</p>
<p>We start with the query, key and value matrices, then apply the softmax
over the scaled scores. The scaling factor keeps gradients stable when the
key dimension grows large.</p>
<p>Finally we look at multi-head attention, which runs several attention
functions in parallel and concatenates their outputs before a final linear
projection back to the model dimension.</p>
</article>
</body>
</html>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedXML))
	})
	mux.HandleFunc("/post", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(blogHTML))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchFeed(t *testing.T) {
	srv := newTestServer(t)
	fetcher := NewFetcher()
	feedURL := srv.URL + "/feed.xml"

	items, err := fetcher.FetchFeed(context.Background(), feedURL, 0)
	if err != nil {
		t.Fatalf("FetchFeed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	first := items[0]
	if first.Title != "Understanding Attention" {
		t.Errorf("title: got %q", first.Title)
	}
	if first.Link != "https://example.com/attention" {
		t.Errorf("link: got %q", first.Link)
	}
	if first.Content != "Full text about attention mechanisms." {
		t.Errorf("content should prefer content:encoded with markup stripped, got %q", first.Content)
	}
	if first.Summary != "A short intro to attention." {
		t.Errorf("summary: got %q", first.Summary)
	}
	if first.Published != "2026-08-17T10:00:00Z" {
		t.Errorf("published: got %q", first.Published)
	}
	if first.Author != "Ada Lovelace" {
		t.Errorf("author: got %q", first.Author)
	}
	if len(first.Tags) != 2 || first.Tags[0] != "transformers" || first.Tags[1] != "nlp" {
		t.Errorf("tags: got %v", first.Tags)
	}
	if first.SourceType != "rss" || first.SourceURL != feedURL {
		t.Errorf("source fields: got type %q url %q", first.SourceType, first.SourceURL)
	}

	// No full content in the entry: summary text stands in.
	if items[1].Content != "Plain description only." {
		t.Errorf("fallback content: got %q", items[1].Content)
	}
	// Entries without dates still get a published timestamp.
	if items[1].Published == "" {
		t.Error("published should default to fetch time")
	}
}

func TestFetchFeedMaxItems(t *testing.T) {
	srv := newTestServer(t)
	fetcher := NewFetcher()

	items, err := fetcher.FetchFeed(context.Background(), srv.URL+"/feed.xml", 2)
	if err != nil {
		t.Fatalf("FetchFeed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}
}

func TestFetchFeedBadURL(t *testing.T) {
	srv := newTestServer(t)
	fetcher := NewFetcher()

	if _, err := fetcher.FetchFeed(context.Background(), srv.URL+"/missing.xml", 5); err == nil {
		t.Error("expected error for missing feed")
	}
}

func TestFetchBlogPost(t *testing.T) {
	srv := newTestServer(t)
	fetcher := NewFetcher()
	pageURL := srv.URL + "/post"

	item, err := fetcher.FetchBlogPost(context.Background(), pageURL)
	if err != nil {
		t.Fatalf("FetchBlogPost: %v", err)
	}

	if item.Title != "Attention Explained" {
		t.Errorf("title should come from the h1, got %q", item.Title)
	}
	if item.Summary != "A walkthrough of scaled dot-product attention." {
		t.Errorf("summary: got %q", item.Summary)
	}
	if item.Author != "Grace Hopper" {
		t.Errorf("author: got %q", item.Author)
	}
	if len(item.Tags) != 3 || item.Tags[2] != "deep learning" {
		t.Errorf("tags: got %v", item.Tags)
	}
	if item.Published != "2026-08-15T08:30:00Z" {
		t.Errorf("published should come from the page metadata, got %q", item.Published)
	}
	if !strings.Contains(item.Content, "Scaled dot-product attention") ||
		!strings.Contains(item.Content, "multi-head attention") {
		t.Errorf("content missing article text: %q", item.Content)
	}
	if item.SourceType != "blog" || item.SourceURL != pageURL || item.Link != pageURL {
		t.Errorf("source fields: %+v", item)
	}
}

func TestFetchBlogPostBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	fetcher := NewFetcher()
	if _, err := fetcher.FetchBlogPost(context.Background(), srv.URL); err == nil {
		t.Error("expected error for 404 page")
	}
}

func TestFetchBlogPostInvalidURL(t *testing.T) {
	fetcher := NewFetcher()
	if _, err := fetcher.FetchBlogPost(context.Background(), "not-a-url"); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"plain text stays", "plain text stays"},
		{"  padded  ", "padded"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := stripHTML(tc.in); got != tc.want {
			t.Errorf("stripHTML(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

