package webrag

import (
	"net/url"
	"strings"
)

// NormalizeURL returns the canonical form of a web page URL used for
// deduplication: lowercased scheme and host, path with the trailing slash
// removed, and no query string or fragment. Two URLs that normalize to the
// same string identify the same Document.
//
// Returns EINVALID if the URL is not an absolute http or https URL.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", Errorf(EINVALID, "invalid URL %q", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", Errorf(EINVALID, "URL %q must use http or https", raw)
	}
	host := strings.ToLower(u.Host)
	if host == "" {
		return "", Errorf(EINVALID, "URL %q has no host", raw)
	}

	path := strings.TrimRight(u.EscapedPath(), "/")
	return scheme + "://" + host + path, nil
}

// DomainOf returns the lowercased hostname of a URL, without the port.
// Returns EINVALID if the URL cannot be normalized.
func DomainOf(raw string) (string, error) {
	normalized, err := NormalizeURL(raw)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return "", Errorf(EINVALID, "invalid URL %q", raw)
	}
	return u.Hostname(), nil
}
