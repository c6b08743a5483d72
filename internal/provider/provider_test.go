package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jbisetto/songvocab/internal/cache"
)

const ddgResultPage = `<html><body>
<div class="result">
<a class="result__snippet" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Flemon-lyrics&amp;rut=abc">
Yume naraba <b>doredake</b> yokatta deshou &amp; more
</a>
</div>
</body></html>`

func TestDuckDuckGo_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Kenshi Yonezu Lemon lyrics" {
			t.Errorf("query = %q", got)
		}
		_, _ = w.Write([]byte(ddgResultPage))
	}))
	defer srv.Close()

	d := NewDuckDuckGo(srv.Client())
	d.endpoint = srv.URL

	lyrics, sourceURL, err := d.Search(context.Background(), "Lemon", "Kenshi Yonezu")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !strings.Contains(lyrics, "Yume naraba doredake yokatta deshou & more") {
		t.Errorf("lyrics = %q", lyrics)
	}
	if strings.Contains(lyrics, "<b>") {
		t.Errorf("lyrics contain markup: %q", lyrics)
	}
	if sourceURL != "https://example.com/lemon-lyrics" {
		t.Errorf("sourceURL = %q", sourceURL)
	}
}

func TestDuckDuckGo_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>no results here</body></html>`))
	}))
	defer srv.Close()

	d := NewDuckDuckGo(srv.Client())
	d.endpoint = srv.URL

	_, _, err := d.Search(context.Background(), "gibberish", "")
	if !errors.Is(err, cache.ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
}

func TestDuckDuckGo_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := NewDuckDuckGo(srv.Client())
	d.endpoint = srv.URL

	_, _, err := d.Search(context.Background(), "Lemon", "")
	if !errors.Is(err, cache.ErrProvider) {
		t.Errorf("expected ErrProvider, got %v", err)
	}
}

func TestOllama_Extract(t *testing.T) {
	vocab := `{"vocabulary":[{"kanji":"夢","romaji":"yume","english":"dream","parts":[]}]}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Model != "mistral:7b" || req.Stream {
			t.Errorf("request = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(generateResponse{Response: vocab})
	}))
	defer srv.Close()

	o := NewOllama(srv.Client(), srv.URL, "mistral:7b")
	got, err := o.Extract(context.Background(), "夢ならば どれほど よかったでしょう")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if string(got) != vocab {
		t.Errorf("vocab = %s", got)
	}
}

func TestOllama_InvalidModelOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "sorry, I cannot do that"})
	}))
	defer srv.Close()

	o := NewOllama(srv.Client(), srv.URL, "mistral:7b")
	if _, err := o.Extract(context.Background(), "some lyrics"); !errors.Is(err, cache.ErrProvider) {
		t.Errorf("expected ErrProvider, got %v", err)
	}
}

func TestOllama_EmptyLyrics(t *testing.T) {
	o := NewOllama(nil, "http://localhost:11434", "mistral:7b")
	if _, err := o.Extract(context.Background(), "   "); !errors.Is(err, cache.ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
}

func TestTruncateWords(t *testing.T) {
	long := strings.Repeat("word ", 500)
	got := truncateWords(long, maxLyricsWords)
	if n := len(strings.Fields(got)); n != maxLyricsWords {
		t.Errorf("truncated to %d words, want %d", n, maxLyricsWords)
	}

	short := "just a few words"
	if truncateWords(short, maxLyricsWords) != short {
		t.Error("short text should be unchanged")
	}
}
