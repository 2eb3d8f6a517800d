package extract

import (
	"errors"
	"strings"
	"testing"
)

func para(s string) string { return "<p>" + s + "</p>" }

var fillerParas = para(strings.Repeat("First paragraph of real article text. ", 3)) +
	para(strings.Repeat("Second paragraph with more detail. ", 3)) +
	para(strings.Repeat("Third paragraph wrapping things up. ", 3))

func TestExtractFromArticleTag(t *testing.T) {
	html := `<html><body>
		<nav>Home | World | Sports</nav>
		<article>` + fillerParas + `</article>
		<footer>Copyright</footer>
	</body></html>`

	text, err := Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(text, "First paragraph of real article text.") {
		t.Errorf("article text missing: %q", text)
	}
	if strings.Contains(text, "Home | World") {
		t.Error("navigation leaked into extracted text")
	}
	if strings.Contains(text, "Copyright") {
		t.Error("footer leaked into extracted text")
	}
}

func TestExtractFromClassSelector(t *testing.T) {
	html := `<html><body><div class="article-body">` + fillerParas + `</div></body></html>`

	text, err := Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(text, "Second paragraph") {
		t.Errorf("expected content from .article-body, got %q", text)
	}
}

func TestContainerNeedsEnoughParagraphs(t *testing.T) {
	// The <article> tag has only two paragraphs, so the chain must skip it
	// and fall through to the body-paragraph strategy.
	long := strings.Repeat("Substantial body paragraph text here. ", 3)
	html := `<html><body>
		<article><p>only one</p><p>and two</p></article>
		` + para(long) + para(long) + para(long) + para(long) + `
	</body></html>`

	text, err := Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(text, "Substantial body paragraph") {
		t.Errorf("expected body fallback content, got %q", text)
	}
}

func TestBodyFallbackFiltersShortParagraphs(t *testing.T) {
	long := strings.Repeat("A genuinely substantial paragraph of text. ", 3)
	html := `<html><body>
		` + para("tiny") + para(long) + para(long) + para(long) + `
	</body></html>`

	text, err := Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if strings.Contains(text, "tiny") {
		t.Error("short paragraph should have been filtered out")
	}
}

func TestExtractStripsJunkAndFlattensLinks(t *testing.T) {
	html := `<html><body><article>
		<p>Opening paragraph long enough to count as real content here.</p>
		<p>Read the <a href="https://x.test">full report</a> for the details of it all.</p>
		<div class="social-share-buttons">Share on socials!</div>
		<p class="byline-author">By A Reporter</p>
		<form><input name="email"><button>Subscribe</button></form>
		<p>Closing paragraph also long enough to count as real content.</p>
	</article></body></html>`

	text, err := Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(text, "full report") {
		t.Error("link text should survive flattening")
	}
	if strings.Contains(text, "Share on socials") {
		t.Error("share widget leaked into extracted text")
	}
	if strings.Contains(text, "By A Reporter") {
		t.Error("byline leaked into extracted text")
	}
}

func TestExtractNoContent(t *testing.T) {
	html := `<html><body><div>nothing much</div></body></html>`
	_, err := Extract(html)
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("expected ErrNoContent, got %v", err)
	}
}

func TestExtractTooShort(t *testing.T) {
	html := `<html><body><article>
		<p>Short but over twenty chars.</p>
		<p>Also just over twenty chars.</p>
		<p>Still not a lot here.</p>
	</article></body></html>`
	_, err := Extract(html)
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("expected ErrNoContent for sub-100-char result, got %v", err)
	}
}

func TestExtractPaywalled(t *testing.T) {
	html := `<html><body><article>
		<p>` + strings.Repeat("This story begins normally with plenty of text. ", 3) + `</p>
		<p>Subscribe to read the full story and support our journalism today.</p>
		<p>` + strings.Repeat("More teaser text to pad out the page markup. ", 3) + `</p>
	</article></body></html>`

	_, err := Extract(html)
	if !errors.Is(err, ErrPaywalled) {
		t.Errorf("expected ErrPaywalled, got %v", err)
	}
}

func TestPaywalled(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Subscribe to read the full story", true},
		{"SUBSCRIBE TO READ the full story", true},
		{"This content is members only.", true},
		{"Unlock this article with an account", true},
		{"An ordinary article about subscriptions in business", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Paywalled(tt.text); got != tt.want {
			t.Errorf("Paywalled(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestStrategyOrder(t *testing.T) {
	// Both <article> and .content match; the earlier strategy must win.
	html := `<html><body>
		<article>` + fillerParas + `</article>
		<div class="content">` + para(strings.Repeat("Content div text that should lose. ", 3)) +
		para(strings.Repeat("Second content div paragraph. ", 3)) +
		para(strings.Repeat("Third content div paragraph. ", 3)) + `</div>
	</body></html>`

	text, err := Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(text, "First paragraph of real article text.") {
		t.Error("expected the article strategy to win")
	}
	if strings.Contains(text, "should lose") {
		t.Error("later strategy output leaked in")
	}
}

func TestExtractWithCustomChain(t *testing.T) {
	html := `<html><body><div id="special">` + fillerParas + `</div></body></html>`

	text, err := ExtractWith(html, []Strategy{selectorStrategy("#special")})
	if err != nil {
		t.Fatalf("ExtractWith: %v", err)
	}
	if !strings.Contains(text, "Third paragraph") {
		t.Errorf("custom strategy failed: %q", text)
	}
}

func TestBlankLineFallback(t *testing.T) {
	// Paragraph elements too short individually, but the overall blob splits
	// into substantial blank-line separated chunks.
	blob := strings.Repeat("Running text without paragraph markup at all. ", 3) +
		"\n\n" + strings.Repeat("A second chunk separated by a blank line. ", 3)
	html := `<html><body><article><p>a</p><p>b</p><p>c</p><div>` + blob + `</div></article></body></html>`

	text, err := Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(text, "second chunk") {
		t.Errorf("expected blank-line fallback output, got %q", text)
	}
}
