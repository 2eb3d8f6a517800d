package enrich

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mnery/newsvault/internal/relay"
	"github.com/mnery/newsvault/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var articlePage = `<html><body><article>
<p>` + strings.Repeat("A real paragraph of article text for the extractor. ", 3) + `</p>
<p>` + strings.Repeat("Another paragraph with enough length to keep. ", 3) + `</p>
<p>` + strings.Repeat("And one more so the container qualifies. ", 3) + `</p>
</article></body></html>`

func newPipeline(t *testing.T, s *store.Store, relayHandler http.HandlerFunc) (*Pipeline, *httptest.Server) {
	t.Helper()
	relaySrv := httptest.NewServer(relayHandler)
	t.Cleanup(relaySrv.Close)
	rc := relay.NewClient(relaySrv.Client(), relaySrv.URL+"/raw?url=")
	return New(s, rc, &http.Client{}, discardLogger()), relaySrv
}

func TestImageDirectDownload(t *testing.T) {
	imgBytes := []byte{0x89, 0x50, 0x4e, 0x47, 1, 2, 3}
	imgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(imgBytes)
	}))
	defer imgSrv.Close()

	s := testStore(t)
	a := store.Article{URL: "https://n.test/1", Title: "Article one", Image: imgSrv.URL + "/y.png",
		FullContent: strings.Repeat("x", 150), PublishedAt: time.Now(), BatchID: "1000"}
	if err := s.UpsertArticles([]store.Article{a}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	p, _ := newPipeline(t, s, func(w http.ResponseWriter, r *http.Request) {
		t.Error("relay should not be used when direct download works")
	})

	res, err := p.Run(context.Background(), []store.Article{a})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ImagesCached != 1 {
		t.Errorf("expected 1 image cached, got %d", res.ImagesCached)
	}

	got, _ := s.GetAllArticles()
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(imgBytes)
	if got[0].CachedImage != want {
		t.Errorf("cached image = %q, want %q", got[0].CachedImage, want)
	}
}

func TestImageProxyFallback(t *testing.T) {
	imgBytes := []byte("proxied image bytes")
	// Direct server always fails.
	imgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer imgSrv.Close()

	s := testStore(t)
	a := store.Article{URL: "https://n.test/1", Title: "Article one", Image: imgSrv.URL + "/y.png",
		FullContent: strings.Repeat("x", 150), PublishedAt: time.Now(), BatchID: "1000"}
	s.UpsertArticles([]store.Article{a})

	p, _ := newPipeline(t, s, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") != imgSrv.URL+"/y.png" {
			t.Errorf("relay asked for wrong target: %s", r.URL.Query().Get("url"))
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(imgBytes)
	})

	if _, err := p.Run(context.Background(), []store.Article{a}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, _ := s.GetAllArticles()
	want := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imgBytes)
	if got[0].CachedImage != want {
		t.Errorf("cached image = %q, want %q", got[0].CachedImage, want)
	}
}

func TestImageFailureLeavesFieldUnset(t *testing.T) {
	imgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer imgSrv.Close()

	s := testStore(t)
	a := store.Article{URL: "https://n.test/1", Title: "Article one", Image: imgSrv.URL + "/y.png",
		FullContent: strings.Repeat("x", 150), PublishedAt: time.Now(), BatchID: "1000"}
	s.UpsertArticles([]store.Article{a})

	p, _ := newPipeline(t, s, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway) // relay fails too
	})

	res, err := p.Run(context.Background(), []store.Article{a})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ImagesCached != 0 {
		t.Errorf("expected 0 images cached, got %d", res.ImagesCached)
	}

	got, _ := s.GetAllArticles()
	if got[0].CachedImage != "" {
		t.Errorf("expected cached image unset after both attempts fail, got %q", got[0].CachedImage)
	}
}

func TestFullTextExtractionPersisted(t *testing.T) {
	s := testStore(t)
	a := store.Article{URL: "https://n.test/story", Title: "Story title",
		PublishedAt: time.Now(), BatchID: "1000"}
	s.UpsertArticles([]store.Article{a})

	p, _ := newPipeline(t, s, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articlePage))
	})

	res, err := p.Run(context.Background(), []store.Article{a})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ArticlesCached != 1 {
		t.Errorf("expected 1 article cached, got %d", res.ArticlesCached)
	}

	got, _ := s.GetAllArticles()
	if !strings.Contains(got[0].FullContent, "A real paragraph of article text") {
		t.Errorf("full content not persisted: %q", got[0].FullContent)
	}
}

func TestPaywalledContentNeverPersisted(t *testing.T) {
	page := `<html><body><article>
<p>` + strings.Repeat("The article teases its content at some length here. ", 3) + `</p>
<p>Subscribe to read the full story and support our newsroom today.</p>
<p>` + strings.Repeat("More filler so the container has enough paragraphs. ", 3) + `</p>
</article></body></html>`

	s := testStore(t)
	a := store.Article{URL: "https://n.test/story", Title: "Story title",
		PublishedAt: time.Now(), BatchID: "1000"}
	s.UpsertArticles([]store.Article{a})

	p, _ := newPipeline(t, s, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	})

	res, err := p.Run(context.Background(), []store.Article{a})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ArticlesCached != 0 {
		t.Errorf("expected paywalled article not counted, got %d", res.ArticlesCached)
	}

	got, _ := s.GetAllArticles()
	if got[0].FullContent != "" {
		t.Errorf("paywalled content persisted: %q", got[0].FullContent)
	}
}

func TestEnrichmentIdempotent(t *testing.T) {
	var relayHits, imageHits atomic.Int32
	imgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		imageHits.Add(1)
		w.Write([]byte("img"))
	}))
	defer imgSrv.Close()

	s := testStore(t)
	a := store.Article{
		URL: "https://n.test/1", Title: "Article one",
		Image:       imgSrv.URL + "/y.png",
		CachedImage: "data:image/png;base64,AAAA",
		FullContent: strings.Repeat("already extracted text. ", 10),
		PublishedAt: time.Now(), BatchID: "1000",
	}
	s.UpsertArticles([]store.Article{a})

	p, _ := newPipeline(t, s, func(w http.ResponseWriter, r *http.Request) {
		relayHits.Add(1)
		w.Write([]byte(articlePage))
	})

	if _, err := p.Run(context.Background(), []store.Article{a}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if n := imageHits.Load(); n != 0 {
		t.Errorf("expected zero image fetches for already-cached article, got %d", n)
	}
	if n := relayHits.Load(); n != 0 {
		t.Errorf("expected zero relay fetches for already-cached article, got %d", n)
	}

	got, _ := s.GetAllArticles()
	if got[0].CachedImage != a.CachedImage || got[0].FullContent != a.FullContent {
		t.Error("already-enriched record should be unchanged")
	}
}

func TestRunSetsLastSync(t *testing.T) {
	s := testStore(t)
	p, _ := newPipeline(t, s, func(w http.ResponseWriter, r *http.Request) {})

	if _, err := p.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	v, err := s.GetMeta(store.MetaLastSync)
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if _, err := time.Parse(time.RFC3339, v); err != nil {
		t.Errorf("lastSync not an RFC3339 timestamp: %q", v)
	}
}

func TestCountsRederivedFromStore(t *testing.T) {
	// Articles enriched by a previous (possibly overlapping) pipeline count
	// too: the report reflects persisted state, not this run's writes.
	s := testStore(t)
	previous := store.Article{URL: "https://n.test/old", Title: "Older story",
		CachedImage: "data:image/png;base64,AAAA",
		FullContent: strings.Repeat("previously cached text. ", 10),
		PublishedAt: time.Now(), BatchID: "900"}
	s.UpsertArticles([]store.Article{previous})

	p, _ := newPipeline(t, s, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	fresh := store.Article{URL: "https://n.test/new", Title: "Newer story",
		PublishedAt: time.Now(), BatchID: "1000"}
	s.UpsertArticles([]store.Article{fresh})

	res, err := p.Run(context.Background(), []store.Article{fresh})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ImagesCached != 1 || res.ArticlesCached != 1 {
		t.Errorf("expected counts from the whole store (1,1), got (%d,%d)",
			res.ImagesCached, res.ArticlesCached)
	}
}
