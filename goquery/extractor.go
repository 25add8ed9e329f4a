package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/webrag"
)

// Ensure Extractor implements webrag.Extractor at compile time.
var _ webrag.Extractor = (*Extractor)(nil)

// boilerplateSelectors name elements that never carry main content.
var boilerplateSelectors = []string{
	"script", "style", "noscript", "iframe",
	"nav", "header", "footer", "aside",
	"[role=navigation]", "[role=banner]", "[role=contentinfo]",
	".nav", ".navbar", ".menu", ".sidebar", ".footer", ".header",
	".breadcrumb", ".breadcrumbs", ".cookie-banner", ".advertisement",
	"#nav", "#navbar", "#menu", "#sidebar", "#footer", "#header",
}

// contentSelectors are tried in priority order; the first non-empty match
// wins. Patterns cover common CMS and documentation layouts.
var contentSelectors = []string{
	"#mw-content-text",
	".markdown-body",
	"main",
	"article",
	"[role=main]",
	"#content",
	".content",
	".post-content",
	".article-content",
	".entry-content",
	".doc-content",
}

// Extractor extracts main content with CSS-selector heuristics: strip known
// boilerplate, then try content selectors in priority order, then fall back
// to the element subtree with the most text.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML fetched from pageURL and returns the main
// content. Returns EEXTRACT when the input is empty, binary, or yields no
// usable content.
func (e *Extractor) Extract(rawHTML string, pageURL string) (*webrag.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, webrag.Errorf(webrag.EEXTRACT, "empty input for %s", pageURL)
	}
	if strings.HasPrefix(rawHTML, "%PDF-") {
		return nil, webrag.Errorf(webrag.EEXTRACT, "binary content for %s", pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, webrag.Errorf(webrag.EEXTRACT, "parsing %s: %v", pageURL, err)
	}

	title := extractTitle(doc)

	for _, sel := range boilerplateSelectors {
		doc.Find(sel).Remove()
	}

	content := findContent(doc)
	if content == nil {
		return nil, webrag.Errorf(webrag.EEXTRACT, "no usable content for %s", pageURL)
	}

	contentHTML, err := goquery.OuterHtml(content)
	if err != nil {
		return nil, webrag.Errorf(webrag.EEXTRACT, "rendering content for %s: %v", pageURL, err)
	}
	if strings.TrimSpace(content.Text()) == "" {
		return nil, webrag.Errorf(webrag.EEXTRACT, "no usable content for %s", pageURL)
	}

	return &webrag.ExtractResult{
		Title:       title,
		ContentHTML: contentHTML,
	}, nil
}

// extractTitle resolves the page title: <title> first, then the first h1,
// then OpenGraph and Twitter metadata.
func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	if tw, ok := doc.Find(`meta[name="twitter:title"]`).Attr("content"); ok && strings.TrimSpace(tw) != "" {
		return strings.TrimSpace(tw)
	}
	return ""
}

// findContent locates the main content element after boilerplate removal.
func findContent(doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentSelectors {
		found := doc.Find(sel).First()
		if found.Length() > 0 && strings.TrimSpace(found.Text()) != "" {
			return found
		}
	}
	return largestTextBlock(doc)
}

// largestTextBlock returns the direct child of <body> carrying the most
// text, or the body itself when it has no element children.
func largestTextBlock(doc *goquery.Document) *goquery.Selection {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil
	}

	var best *goquery.Selection
	bestLen := 0
	body.Children().Each(func(_ int, child *goquery.Selection) {
		n := len(strings.TrimSpace(child.Text()))
		if n > bestLen {
			best = child
			bestLen = n
		}
	})
	if best != nil {
		return best
	}
	if strings.TrimSpace(body.Text()) != "" {
		return body
	}
	return nil
}
