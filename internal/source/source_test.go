package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTransformDefaults(t *testing.T) {
	items := []Item{
		{Title: "A proper headline", URL: "https://x.test/1"},
	}
	got := Transform(items, "1000")
	if len(got) != 1 {
		t.Fatalf("expected 1 article, got %d", len(got))
	}
	a := got[0]
	if a.Description != "No description" {
		t.Errorf("expected default description, got %q", a.Description)
	}
	if a.Content != "No content available" {
		t.Errorf("expected default content, got %q", a.Content)
	}
	if a.FullContent != "" {
		t.Errorf("expected empty full content without body, got %q", a.FullContent)
	}
	if a.Source != "Unknown" {
		t.Errorf("expected default source, got %q", a.Source)
	}
	if a.BatchID != "1000" {
		t.Errorf("expected batch id stamped, got %q", a.BatchID)
	}
	if a.PublishedAt.IsZero() {
		t.Error("expected published_at defaulted to now")
	}
}

func TestTransformFiltersShortTitles(t *testing.T) {
	items := []Item{
		{Title: "short", URL: "https://x.test/1"},
		{Title: "Long enough title", URL: "https://x.test/2"},
		{Title: "No URL either"},
	}
	got := Transform(items, "1000")
	if len(got) != 1 {
		t.Fatalf("expected 1 usable article, got %d", len(got))
	}
	if got[0].URL != "https://x.test/2" {
		t.Errorf("wrong article kept: %s", got[0].URL)
	}
}

func TestTransformTruncatesDescription(t *testing.T) {
	body := strings.Repeat("x", 300)
	got := Transform([]Item{{Title: "A proper headline", URL: "https://x.test/1", Body: body}}, "1000")
	if len(got) != 1 {
		t.Fatalf("expected 1 article, got %d", len(got))
	}
	if len(got[0].Description) != 203 { // 200 chars + "..."
		t.Errorf("expected 203-char description, got %d", len(got[0].Description))
	}
	if !strings.HasSuffix(got[0].Description, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got[0].Description[190:])
	}
	if got[0].FullContent != body {
		t.Error("expected full body carried into FullContent")
	}
}

func TestAPISourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Write([]byte(`{"articles":{"results":[
			{"title":"Big news today","body":"The story.","url":"https://n.test/1",
			 "image":"https://n.test/1.png","dateTime":"2026-08-29T10:00:00Z","source":{"title":"NTest"}}
		]}}`))
	}))
	defer srv.Close()

	src := NewAPISource(srv.Client(), srv.URL, "key", "eng", 10, "date")
	items, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	it := items[0]
	if it.Title != "Big news today" || it.Source != "NTest" || it.Image != "https://n.test/1.png" {
		t.Errorf("unexpected item: %+v", it)
	}
	want := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	if !it.PublishedAt.Equal(want) {
		t.Errorf("expected published %v, got %v", want, it.PublishedAt)
	}
}

func TestAPISourceErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer srv.Close()

	src := NewAPISource(srv.Client(), srv.URL, "bad", "", 0, "")
	_, err := src.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error on non-200")
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("expected the remote's own message surfaced, got %v", err)
	}
}

func TestAPISourceEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"articles":{"results":[]}}`))
	}))
	defer srv.Close()

	src := NewAPISource(srv.Client(), srv.URL, "key", "", 0, "")
	items, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestRSSSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(`<?xml version="1.0"?>
<rss version="2.0"><channel><title>Feed</title>
<item><title>Feed item one</title><link>https://f.test/1</link>
<description>Something happened.</description>
<pubDate>Fri, 28 Aug 2026 09:00:00 GMT</pubDate></item>
</channel></rss>`))
	}))
	defer srv.Close()

	src := NewRSSSource("FTest", srv.URL)
	items, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Source != "FTest" {
		t.Errorf("expected source FTest, got %q", items[0].Source)
	}
	if items[0].Body != "Something happened." {
		t.Errorf("expected description as body, got %q", items[0].Body)
	}
}

func TestFetchAllCollectsErrors(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"articles":{"results":[{"title":"Working origin","body":"b","url":"https://g.test/1"}]}}`))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{}`))
	}))
	defer bad.Close()

	result := FetchAll(context.Background(), []Source{
		NewAPISource(good.Client(), good.URL, "k", "", 0, ""),
		NewAPISource(bad.Client(), bad.URL, "k", "", 0, ""),
	})
	if len(result.Items) != 1 {
		t.Errorf("expected 1 item from the working origin, got %d", len(result.Items))
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 collected error, got %d", len(result.Errors))
	}
}
