package store

import (
	"errors"
	"time"

	"github.com/jbisetto/songvocab/internal/codec"
	"github.com/jbisetto/songvocab/internal/songkey"
)

// ErrStore wraps backend failures (unavailable database, malformed
// on-disk state). Callers treat wrapped read failures as cache misses.
var ErrStore = errors.New("cache store error")

// MetaSource tags where a listing entry's metadata came from, so
// degraded listings are distinguishable from clean ones.
type MetaSource int

const (
	// MetaParsed means the metadata was read from the stored record.
	MetaParsed MetaSource = iota

	// MetaFromFilename means the record was unreadable and the
	// metadata was reconstructed from its filename, best effort.
	MetaFromFilename
)

// String returns the string representation of the metadata source.
func (m MetaSource) String() string {
	switch m {
	case MetaParsed:
		return "parsed"
	case MetaFromFilename:
		return "filename"
	default:
		return "unknown"
	}
}

// Entry is one cached artifact. Payload is text: the encoded compressed
// lyrics for the tabular backend, or the raw derived JSON for the
// file backend.
type Entry struct {
	Song        string            `json:"song"`
	Artist      string            `json:"artist,omitempty"`
	Payload     string            `json:"payload"`
	Compression *codec.Stats      `json:"compression,omitempty"`
	Meta        map[string]string `json:"metadata,omitempty"`
	Language    string            `json:"language,omitempty"`
	SourceURL   string            `json:"source_url,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	AccessedAt  time.Time         `json:"accessed_at"`
}

// ListEntry is one row of a cache listing.
type ListEntry struct {
	Song       string     `json:"song"`
	Artist     string     `json:"artist,omitempty"`
	CreatedAt  time.Time  `json:"cached_at"`
	AccessedAt time.Time  `json:"last_accessed"`
	Size       int64      `json:"size_bytes"`
	MetaSource MetaSource `json:"-"`
}

// Store is durable key-to-payload storage shared by both cache
// backends. All methods open and release their backend handle per
// call; no handle is held across calls.
//
// Get returns (nil, nil) on a miss and refreshes the entry's
// last-access timestamp on a hit. Put inserts or updates in place;
// it never duplicates an entry for the same key, and a reader never
// observes a half-written record. List returns a fresh snapshot
// ordered by most-recently-accessed first.
type Store interface {
	Get(key songkey.Key) (*Entry, error)
	Put(key songkey.Key, e *Entry) error
	List() ([]ListEntry, error)

	// DeleteOlderThan removes entries created before cutoff and
	// reports how many were removed.
	DeleteOlderThan(cutoff time.Time) (int, error)

	// DeleteExcess removes least-recently-accessed entries until at
	// most keep remain. Ties on access time break by creation time.
	DeleteExcess(keep int) (int, error)

	Count() (int, error)
	TotalBytes() (int64, error)
	Close() error
}
