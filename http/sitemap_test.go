package http_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/fwojciec/webrag"
	webraghttp "github.com/fwojciec/webrag/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSitemapService_DiscoverURLs(t *testing.T) {
	t.Parallel()

	t.Run("reads sitemap listed in robots.txt", func(t *testing.T) {
		t.Parallel()

		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/robots.txt":
				fmt.Fprintf(w, "User-agent: *\nSitemap: %s/custom-sitemap.xml\n", srv.URL)
			case "/custom-sitemap.xml":
				fmt.Fprintf(w, `<?xml version="1.0"?>
					<urlset>
						<url><loc>%s/page1</loc></url>
						<url><loc>%s/page2</loc></url>
					</urlset>`, srv.URL, srv.URL)
			default:
				http.NotFound(w, r)
			}
		}))
		defer srv.Close()

		svc := webraghttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/page1", srv.URL + "/page2"}, urls)
	})

	t.Run("falls back to sitemap.xml when robots.txt is missing", func(t *testing.T) {
		t.Parallel()

		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/sitemap.xml" {
				fmt.Fprintf(w, `<urlset><url><loc>%s/docs</loc></url></urlset>`, srv.URL)
				return
			}
			http.NotFound(w, r)
		}))
		defer srv.Close()

		svc := webraghttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/docs"}, urls)
	})

	t.Run("resolves sitemap indexes recursively", func(t *testing.T) {
		t.Parallel()

		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/sitemap.xml":
				fmt.Fprintf(w, `<sitemapindex>
					<sitemap><loc>%s/sitemap-a.xml</loc></sitemap>
					<sitemap><loc>%s/sitemap-b.xml</loc></sitemap>
				</sitemapindex>`, srv.URL, srv.URL)
			case "/sitemap-a.xml":
				fmt.Fprintf(w, `<urlset><url><loc>%s/a</loc></url></urlset>`, srv.URL)
			case "/sitemap-b.xml":
				fmt.Fprintf(w, `<urlset><url><loc>%s/b</loc></url></urlset>`, srv.URL)
			default:
				http.NotFound(w, r)
			}
		}))
		defer srv.Close()

		svc := webraghttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{srv.URL + "/a", srv.URL + "/b"}, urls)
	})

	t.Run("scopes results to the base URL path prefix", func(t *testing.T) {
		t.Parallel()

		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/sitemap.xml" {
				fmt.Fprintf(w, `<urlset>
					<url><loc>%s/docs/intro</loc></url>
					<url><loc>%s/blog/post</loc></url>
					<url><loc>%s/documentation/other</loc></url>
				</urlset>`, srv.URL, srv.URL, srv.URL)
				return
			}
			http.NotFound(w, r)
		}))
		defer srv.Close()

		svc := webraghttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL+"/docs", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/docs/intro"}, urls)
	})

	t.Run("applies the URL filter", func(t *testing.T) {
		t.Parallel()

		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/sitemap.xml" {
				fmt.Fprintf(w, `<urlset>
					<url><loc>%s/guide/one</loc></url>
					<url><loc>%s/api/two</loc></url>
				</urlset>`, srv.URL, srv.URL)
				return
			}
			http.NotFound(w, r)
		}))
		defer srv.Close()

		svc := webraghttp.NewSitemapService(srv.Client())
		filter := &webrag.URLFilter{Include: []*regexp.Regexp{regexp.MustCompile(`/guide/`)}}
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, filter)
		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/guide/one"}, urls)
	})

	t.Run("returns empty slice when no sitemap exists", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		svc := webraghttp.NewSitemapService(srv.Client())
		urls, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)
		require.NoError(t, err)
		assert.Empty(t, urls)
	})
}
