package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy locates the main content fragment of a page. Strategies are tried
// in order; the first one returning a non-nil selection wins.
type Strategy struct {
	Name string
	Find func(doc *goquery.Document) *goquery.Selection
}

// containerSelectors are probed in order: article containers first, then
// semantic roles, then the class and id names content sites commonly use.
var containerSelectors = []string{
	"article",
	"[role=\"article\"]",
	".article-body",
	".article-content",
	".post-content",
	".entry-content",
	".story-body",
	"main article",
	"main",
	"#article-body",
	"#main-content",
	".content",
}

// minContainerParagraphs is the paragraph count a container must exceed to
// be accepted as the article body.
const minContainerParagraphs = 2

// minBodyParagraphLen filters the body-wide fallback down to substantial
// paragraphs.
const minBodyParagraphLen = 50

func selectorStrategy(selector string) Strategy {
	return Strategy{
		Name: selector,
		Find: func(doc *goquery.Document) *goquery.Selection {
			sel := doc.Find(selector).First()
			if sel.Length() == 0 {
				return nil
			}
			if sel.Find("p").Length() <= minContainerParagraphs {
				return nil
			}
			return sel
		},
	}
}

// bodyParagraphStrategy is the last resort: collect every substantial
// paragraph under the page body, provided the page has more than three
// paragraphs at all.
func bodyParagraphStrategy() Strategy {
	return Strategy{
		Name: "body paragraphs",
		Find: func(doc *goquery.Document) *goquery.Selection {
			all := doc.Find("body p")
			if all.Length() <= 3 {
				return nil
			}
			kept := all.FilterFunction(func(i int, p *goquery.Selection) bool {
				return len(strings.TrimSpace(p.Text())) > minBodyParagraphLen
			})
			if kept.Length() == 0 {
				return nil
			}
			return kept
		},
	}
}

// DefaultStrategies is the ordered fallback chain used by Extract.
func DefaultStrategies() []Strategy {
	strategies := make([]Strategy, 0, len(containerSelectors)+1)
	for _, sel := range containerSelectors {
		strategies = append(strategies, selectorStrategy(sel))
	}
	return append(strategies, bodyParagraphStrategy())
}
