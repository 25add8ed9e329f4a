package webrag

// ExtractResult holds the extracted content from an HTML page.
type ExtractResult struct {
	// Title is the page title. Extraction falls back through page metadata
	// (<title>, first heading, OpenGraph tags) when no explicit title is
	// found.
	Title string

	// ContentHTML is the main content as clean HTML.
	// Boilerplate (nav, header, footer, sidebar, scripts) has been removed.
	ContentHTML string
}

// Extractor extracts main content from HTML pages, removing boilerplate.
// The exact heuristic is a pluggable strategy; implementations differ in how
// aggressively they prune and what they fall back to.
type Extractor interface {
	// Extract processes raw HTML fetched from pageURL and returns the main
	// content. Returns EEXTRACT when the input is empty, binary, or yields
	// no usable text.
	Extract(html string, pageURL string) (*ExtractResult, error)
}
