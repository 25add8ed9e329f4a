package webrag

// LinkExtractor discovers followable links in a fetched page.
type LinkExtractor interface {
	// ExtractLinks returns the absolute URLs of links found in the HTML,
	// resolved against baseURL, in document order and deduplicated.
	// Links to non-page resources (images, stylesheets, archives) are
	// skipped.
	ExtractLinks(html string, baseURL string) ([]string, error)
}
