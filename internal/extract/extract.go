// Package extract turns raw article pages into readable plain-text bodies.
// It is best-effort by design: an ordered strategy chain locates the content
// fragment, the fragment is scrubbed of non-article elements, and anything
// that looks like a paywall prompt is discarded entirely.
package extract

import (
	"errors"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrNoContent means no strategy produced enough readable text.
	ErrNoContent = errors.New("no extractable content")
	// ErrPaywalled means the page yielded only a subscription prompt.
	ErrPaywalled = errors.New("paywalled content")
)

// MinContentLen is the minimum text length worth persisting.
const MinContentLen = 100

// minParagraphLen filters out captions, bylines and other stray fragments.
const minParagraphLen = 20

// strippedElements never contain article text and confuse the selector
// probes, so they are removed before any strategy runs.
const strippedElements = "script, style, iframe, nav, header, footer, " +
	".ad, .advertisement, .social-share, .comments, aside, .sidebar, .related-articles"

// junkSelectors are removed from the winning fragment: media, interactive
// controls, and anything whose class or id hints at sharing, ads,
// subscription prompts or author bylines.
var junkSelectors = []string{
	"video", "iframe", "audio", "embed", "object", "source",
	"script", "style", "noscript", "form", "input", "button", "textarea",
	"nav", "aside", "footer", "figure", "figcaption", "img",
	"[class*=\"share\"]", "[class*=\"social\"]", "[class*=\"comment\"]",
	"[class*=\"related\"]", "[class*=\"recommend\"]", "[class*=\"sidebar\"]",
	"[class*=\"ad\"]", "[class*=\"promo\"]", "[class*=\"newsletter\"]",
	"[class*=\"subscribe\"]", "[class*=\"author\"]", "[class*=\"byline\"]",
	"[class*=\"paywall\"]", "[class*=\"premium\"]", "[class*=\"locked\"]",
	"[id*=\"comment\"]", "[id*=\"disqus\"]", "[id*=\"paywall\"]",
}

var blankLine = regexp.MustCompile(`\n\s*\n`)

// Extract pulls the readable article text out of raw page markup using the
// default strategy chain. The result is plain paragraphs separated by blank
// lines, at least MinContentLen characters long.
func Extract(rawHTML string) (string, error) {
	return ExtractWith(rawHTML, DefaultStrategies())
}

// ExtractWith runs an explicit strategy chain, first match wins.
func ExtractWith(rawHTML string, strategies []Strategy) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	doc.Find(strippedElements).Remove()

	var fragment *goquery.Selection
	for _, st := range strategies {
		if sel := st.Find(doc); sel != nil {
			fragment = sel
			break
		}
	}
	if fragment == nil {
		return "", ErrNoContent
	}

	cleanFragment(fragment)

	text := assembleParagraphs(fragment)
	if Paywalled(text) {
		return "", ErrPaywalled
	}
	if len(text) < MinContentLen {
		return "", ErrNoContent
	}
	return text, nil
}

// cleanFragment strips the junk elements remaining inside the chosen
// fragment and flattens hyperlinks to their plain text.
func cleanFragment(sel *goquery.Selection) {
	sel.Find(strings.Join(junkSelectors, ", ")).Remove()
	sel.Find("a").Each(func(i int, a *goquery.Selection) {
		a.ReplaceWithHtml(html.EscapeString(a.Text()))
	})
}

// assembleParagraphs rebuilds plain text from the fragment's paragraph
// elements. When those yield too little, the whole remaining text blob is
// split on blank-line boundaries instead.
func assembleParagraphs(sel *goquery.Selection) string {
	var paragraphs []string
	sel.Find("p").Each(func(i int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if len(text) > minParagraphLen {
			paragraphs = append(paragraphs, text)
		}
	})
	// A filtered "body p" selection is itself the paragraph set.
	if len(paragraphs) == 0 {
		sel.Each(func(i int, p *goquery.Selection) {
			if goquery.NodeName(p) != "p" {
				return
			}
			text := strings.TrimSpace(p.Text())
			if len(text) > minParagraphLen {
				paragraphs = append(paragraphs, text)
			}
		})
	}

	text := strings.Join(paragraphs, "\n\n")
	if len(text) >= MinContentLen {
		return text
	}

	// Fallback: split whatever text is left on blank lines.
	blob := strings.TrimSpace(sel.Text())
	var parts []string
	for _, part := range blankLine.Split(blob, -1) {
		part = strings.TrimSpace(part)
		if len(part) > minParagraphLen {
			parts = append(parts, part)
		}
	}
	if joined := strings.Join(parts, "\n\n"); len(joined) > len(text) {
		return joined
	}
	return text
}
