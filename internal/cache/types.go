package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jbisetto/songvocab/internal/codec"
)

// Common errors for cache operations.
var (
	// ErrNoResults is returned by collaborators when the search or
	// derivation found nothing for the key. It is a user-facing "no
	// result", distinct from a collaborator fault.
	ErrNoResults = errors.New("no results found")

	// ErrProvider wraps collaborator faults (network, rate limits).
	// These are caught at the orchestrator boundary and never crash
	// the process.
	ErrProvider = errors.New("provider error")
)

// LyricsProvider supplies raw lyrics on a cache miss. Implementations
// return ErrNoResults when the search comes back empty.
type LyricsProvider interface {
	Search(ctx context.Context, song, artist string) (lyrics, sourceURL string, err error)
}

// VocabExtractor derives a vocabulary record from lyrics. The returned
// JSON is stored verbatim by the vocabulary cache.
type VocabExtractor interface {
	Extract(ctx context.Context, lyrics string) (json.RawMessage, error)
}

// Info is the provenance attached to every successful result. FromCache
// and the compression ratio are contract fields the API layer depends
// on.
type Info struct {
	FromCache   bool         `json:"from_cache"`
	CachedAt    time.Time    `json:"cached_at"`
	Compression *codec.Stats `json:"compression,omitempty"`
	Language    string       `json:"language,omitempty"`
}

// Result is the outcome of a fetch. Failures are structured: Success is
// false and Error carries the cause, but the call itself does not
// return a Go error for provider faults.
type Result struct {
	Success    bool              `json:"success"`
	Lyrics     string            `json:"lyrics,omitempty"`
	Vocabulary json.RawMessage   `json:"vocabulary,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CacheInfo  *Info             `json:"cache_info,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Listing is the outcome of a cache listing.
type Listing struct {
	Success bool        `json:"success"`
	Entries []ListEntry `json:"entries"`
	Count   int         `json:"count"`
}

// ListEntry is one row of a Listing, in the external wire shape.
type ListEntry struct {
	Song         string    `json:"song"`
	Artist       string    `json:"artist"`
	CachedAt     time.Time `json:"cached_at"`
	LastAccessed time.Time `json:"last_accessed"`
	Degraded     bool      `json:"degraded,omitempty"`
}
