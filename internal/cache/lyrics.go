package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/jbisetto/songvocab/internal/codec"
	"github.com/jbisetto/songvocab/internal/songkey"
	"github.com/jbisetto/songvocab/internal/store"
)

// Lyrics is the read-through cache for raw lyrics. Hits are decompressed
// and returned with provenance; misses go to the provider (or the mock
// generator) and are written through to the store.
type Lyrics struct {
	store    store.Store
	codec    *codec.Codec
	provider LyricsProvider

	// Collapses concurrent misses for the same key into a single
	// provider call. Cross-process callers still race; there the
	// contract stays last writer wins.
	group singleflight.Group
}

// NewLyrics creates a lyrics cache over the given store and codec. The
// provider may be nil when only mock fetches are expected.
func NewLyrics(st store.Store, cdc *codec.Codec, provider LyricsProvider) *Lyrics {
	return &Lyrics{store: st, codec: cdc, provider: provider}
}

// Fetch returns the lyrics for a song, from cache when possible. With
// allowMock set, misses synthesize a deterministic placeholder instead
// of calling the provider. Provider faults and empty search results
// come back as structured failures, never as a panic or a returned
// error; the returned error is reserved for invalid input.
func (l *Lyrics) Fetch(ctx context.Context, song, artist string, allowMock bool) (*Result, error) {
	key, err := songkey.Normalize(song, artist)
	if err != nil {
		return nil, err
	}

	if res := l.probe(key); res != nil {
		log.Debug("lyrics cache hit", "song", key.Song, "artist", key.Artist)
		return res, nil
	}

	log.Debug("lyrics cache miss", "song", key.Song, "artist", key.Artist, "mock", allowMock)

	v, err, _ := l.group.Do(key.String(), func() (any, error) {
		return l.fetchAndStore(ctx, key, song, artist, allowMock), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// probe checks the store for a usable entry. Store and decode failures
// degrade to a miss: the cache is an optimization, not a correctness
// dependency.
func (l *Lyrics) probe(key songkey.Key) *Result {
	entry, err := l.store.Get(key)
	if err != nil {
		log.Warn("lyrics store probe failed, treating as miss", "song", key.Song, "err", err)
		return nil
	}
	if entry == nil {
		return nil
	}

	lyrics, err := l.codec.Decompress(entry.Payload)
	if err != nil {
		// Corrupt payload. Refetching replaces it, which is the only
		// way to surface real text instead of garbage.
		log.Error("cached lyrics failed to decode, refetching", "song", key.Song, "err", err)
		return nil
	}

	return &Result{
		Success:  true,
		Lyrics:   lyrics,
		Metadata: entry.Meta,
		CacheInfo: &Info{
			FromCache:   true,
			CachedAt:    entry.CreatedAt,
			Compression: entry.Compression,
			Language:    entry.Language,
		},
	}
}

// fetchAndStore runs the miss path: collaborator call, language hint,
// compression, write-through.
func (l *Lyrics) fetchAndStore(ctx context.Context, key songkey.Key, song, artist string, allowMock bool) *Result {
	var (
		lyrics    string
		sourceURL string
		meta      map[string]string
	)

	if allowMock {
		lyrics = MockLyrics(song, artist)
		sourceURL = "mock_data"
		meta = map[string]string{
			"title":      song,
			"artist":     artistOrUnknown(artist),
			"source":     "mock_data",
			"fetched_at": time.Now().Format(time.RFC3339),
			"is_mock":    "true",
		}
	} else {
		if l.provider == nil {
			return &Result{Success: false, Error: "no lyrics provider configured"}
		}

		var err error
		lyrics, sourceURL, err = l.provider.Search(ctx, song, artist)
		if errors.Is(err, ErrNoResults) {
			return &Result{Success: false, Error: "no lyrics found for the given song and artist"}
		}
		if err != nil {
			log.Error("lyrics provider failed", "song", key.Song, "err", err)
			return &Result{Success: false, Error: fmt.Sprintf("error fetching lyrics: %s", err)}
		}

		meta = map[string]string{
			"title":      song,
			"artist":     artistOrUnknown(artist),
			"source":     sourceURL,
			"fetched_at": time.Now().Format(time.RFC3339),
		}
	}

	language := DetectLanguage(lyrics)
	encoded, stats := l.codec.Compress(lyrics)

	entry := &store.Entry{
		Payload:     encoded,
		Compression: &stats,
		Meta:        meta,
		Language:    language,
		SourceURL:   sourceURL,
	}
	if err := l.store.Put(key, entry); err != nil {
		// The caller still gets their lyrics; only the next request
		// pays for the failed write.
		log.Warn("failed to write lyrics through to cache", "song", key.Song, "err", err)
	} else {
		log.Info("cached lyrics", "song", key.Song, "artist", key.Artist, "compression", stats.String())
	}

	return &Result{
		Success:  true,
		Lyrics:   lyrics,
		Metadata: meta,
		CacheInfo: &Info{
			FromCache:   false,
			Compression: &stats,
			Language:    language,
		},
	}
}

// List returns every cached song, most recently accessed first.
func (l *Lyrics) List() (*Listing, error) {
	return listStore(l.store)
}

// Evict bounds the lyrics store by age and count.
func (l *Lyrics) Evict(maxEntries, maxAgeDays int) (EvictStats, error) {
	return Evict(l.store, maxEntries, maxAgeDays)
}

func artistOrUnknown(artist string) string {
	if artist == "" {
		return "Unknown"
	}
	return artist
}

// listStore adapts a store listing to the external wire shape.
func listStore(st store.Store) (*Listing, error) {
	rows, err := st.List()
	if err != nil {
		return nil, err
	}

	listing := &Listing{Success: true, Entries: make([]ListEntry, 0, len(rows)), Count: len(rows)}
	for _, r := range rows {
		listing.Entries = append(listing.Entries, ListEntry{
			Song:         r.Song,
			Artist:       artistOrUnknown(r.Artist),
			CachedAt:     r.CreatedAt,
			LastAccessed: r.AccessedAt,
			Degraded:     r.MetaSource == store.MetaFromFilename,
		})
	}
	return listing, nil
}
