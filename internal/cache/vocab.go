package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/jbisetto/songvocab/internal/songkey"
	"github.com/jbisetto/songvocab/internal/store"
)

// Vocab is the cache for derived vocabulary records. Records are stored
// as plain JSON, one file per key; unlike lyrics they are not
// compressed, so a hit is returned as-is.
type Vocab struct {
	store     store.Store
	extractor VocabExtractor
	lyrics    *Lyrics

	group singleflight.Group
}

// NewVocab creates a vocabulary cache over the given store. The
// extractor and lyrics cache are optional; without them Generate
// reports a structured failure and only Fetch (probe) and Save work.
func NewVocab(st store.Store, extractor VocabExtractor, lyrics *Lyrics) *Vocab {
	return &Vocab{store: st, extractor: extractor, lyrics: lyrics}
}

// Fetch probes the cache for a previously derived vocabulary record.
// It never triggers derivation; a miss is a structured "no result".
func (v *Vocab) Fetch(ctx context.Context, song, artist string) (*Result, error) {
	key, err := songkey.Normalize(song, artist)
	if err != nil {
		return nil, err
	}

	if res := v.probe(key); res != nil {
		log.Debug("vocab cache hit", "song", key.Song, "artist", key.Artist)
		return res, nil
	}

	return &Result{Success: false, Error: "no cached vocabulary for the given song and artist"}, nil
}

// Generate returns cached vocabulary or derives it: on a miss it
// fetches the lyrics (cache-first), runs the extractor, and writes the
// record through.
func (v *Vocab) Generate(ctx context.Context, song, artist string, allowMock bool) (*Result, error) {
	key, err := songkey.Normalize(song, artist)
	if err != nil {
		return nil, err
	}

	if res := v.probe(key); res != nil {
		log.Debug("vocab cache hit", "song", key.Song, "artist", key.Artist)
		return res, nil
	}
	if v.extractor == nil || v.lyrics == nil {
		return &Result{Success: false, Error: "no vocabulary extractor configured"}, nil
	}

	res, err, _ := v.group.Do(key.String(), func() (any, error) {
		lyricsRes, err := v.lyrics.Fetch(ctx, song, artist, allowMock)
		if err != nil {
			return nil, err
		}
		if !lyricsRes.Success {
			return &Result{Success: false, Error: lyricsRes.Error}, nil
		}

		vocab, err := v.extractor.Extract(ctx, lyricsRes.Lyrics)
		if err != nil {
			log.Error("vocabulary extraction failed", "song", key.Song, "err", err)
			return &Result{Success: false, Error: fmt.Sprintf("error extracting vocabulary: %s", err)}, nil
		}

		v.save(key, vocab)
		return &Result{
			Success:    true,
			Vocabulary: vocab,
			CacheInfo:  &Info{FromCache: false},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*Result), nil
}

// Save stores a vocabulary record produced elsewhere (e.g. by the agent
// pipeline) under the given song and artist.
func (v *Vocab) Save(song, artist string, vocab json.RawMessage) error {
	key, err := songkey.Normalize(song, artist)
	if err != nil {
		return err
	}
	return v.store.Put(key, &store.Entry{Payload: string(vocab)})
}

// probe checks the store, degrading failures to a miss.
func (v *Vocab) probe(key songkey.Key) *Result {
	entry, err := v.store.Get(key)
	if err != nil {
		log.Warn("vocab store probe failed, treating as miss", "song", key.Song, "err", err)
		return nil
	}
	if entry == nil {
		return nil
	}

	payload := json.RawMessage(entry.Payload)
	if !json.Valid(payload) {
		log.Error("cached vocabulary is not valid JSON, treating as miss", "song", key.Song)
		return nil
	}

	return &Result{
		Success:    true,
		Vocabulary: payload,
		CacheInfo: &Info{
			FromCache: true,
			CachedAt:  entry.CreatedAt,
		},
	}
}

// List returns every cached vocabulary record, most recently accessed
// first. Corrupt records appear with filename-derived metadata rather
// than breaking the listing.
func (v *Vocab) List() (*Listing, error) {
	return listStore(v.store)
}

// Evict bounds the vocabulary store by age and count.
func (v *Vocab) Evict(maxEntries, maxAgeDays int) (EvictStats, error) {
	return Evict(v.store, maxEntries, maxAgeDays)
}

// save writes a derived record through to the store, logging rather
// than failing on error.
func (v *Vocab) save(key songkey.Key, vocab json.RawMessage) {
	if err := v.store.Put(key, &store.Entry{Payload: string(vocab)}); err != nil {
		log.Warn("failed to write vocabulary through to cache", "song", key.Song, "err", err)
		return
	}
	log.Info("cached vocabulary", "song", key.Song, "artist", key.Artist, "bytes", len(vocab))
}
