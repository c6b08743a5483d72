// Package provider implements the external collaborators the caches
// call on a miss: a DuckDuckGo lyrics search and an Ollama-backed
// vocabulary extractor. Both are plain blocking HTTP clients; callers
// needing bounded latency pass a context with a deadline.
package provider

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/jbisetto/songvocab/internal/cache"
)

const ddgEndpoint = "https://html.duckduckgo.com/html/"

// snippetPattern pulls result snippets out of the DuckDuckGo HTML
// response. The markup has been stable for years; if it changes, the
// provider degrades to "no results" rather than crashing.
var (
	snippetPattern = regexp.MustCompile(`(?s)<a[^>]+class="result__snippet"[^>]+href="([^"]+)"[^>]*>(.*?)</a>`)
	tagPattern     = regexp.MustCompile(`<[^>]+>`)
	uddgPattern    = regexp.MustCompile(`uddg=([^&]+)`)
)

// DuckDuckGo searches the DuckDuckGo HTML endpoint for lyrics and
// returns the top result's snippet as the lyrics body.
type DuckDuckGo struct {
	client   *http.Client
	endpoint string
}

// NewDuckDuckGo creates a search provider. A nil client uses
// http.DefaultClient.
func NewDuckDuckGo(client *http.Client) *DuckDuckGo {
	if client == nil {
		client = http.DefaultClient
	}
	return &DuckDuckGo{client: client, endpoint: ddgEndpoint}
}

// Search implements cache.LyricsProvider.
func (d *DuckDuckGo) Search(ctx context.Context, song, artist string) (string, string, error) {
	query := song + " lyrics"
	if artist != "" {
		query = artist + " " + query
	}
	log.Debug("searching for lyrics", "query", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		d.endpoint+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", cache.ErrProvider, err)
	}
	req.Header.Set("User-Agent", "songvocab/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", cache.ErrProvider, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("%w: HTTP status %d", cache.ErrProvider, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", cache.ErrProvider, err)
	}

	lyrics, sourceURL := topResult(string(body))
	if lyrics == "" {
		return "", "", cache.ErrNoResults
	}
	return lyrics, sourceURL, nil
}

// topResult extracts the first result snippet and its target URL from
// the search response HTML.
func topResult(page string) (snippet, sourceURL string) {
	m := snippetPattern.FindStringSubmatch(page)
	if m == nil {
		return "", ""
	}

	snippet = strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(m[2], "")))
	sourceURL = html.UnescapeString(m[1])

	// DuckDuckGo wraps targets in a redirect; unwrap the uddg param
	// when present so the stored source locator is the real page.
	if u := uddgPattern.FindStringSubmatch(sourceURL); u != nil {
		if decoded, err := url.QueryUnescape(u[1]); err == nil {
			sourceURL = decoded
		}
	}
	return snippet, sourceURL
}
