package cache

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	gap "github.com/muesli/go-app-paths"

	"github.com/jbisetto/songvocab/internal/codec"
	"github.com/jbisetto/songvocab/internal/store"
)

// Config locates the backing stores and tunes the codec. Paths are
// explicit here; flag and config-file overrides are the CLI layer's
// job.
type Config struct {
	// LyricsDB is the path of the tabular lyrics database file.
	LyricsDB string `env:"SONGVOCAB_LYRICS_DB"`

	// VocabDir is the directory holding one record file per cached
	// vocabulary entry.
	VocabDir string `env:"SONGVOCAB_VOCAB_DIR"`

	// CompressionLevel is the zstd level for lyrics payloads (1-22).
	CompressionLevel int `env:"SONGVOCAB_COMPRESSION_LEVEL" envDefault:"3"`
}

// DefaultConfig resolves the user-scoped cache locations and applies
// any environment overrides.
func DefaultConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("error parsing cache config: %w", err)
	}

	scope := gap.NewScope(gap.User, "songvocab")
	if cfg.LyricsDB == "" {
		cfg.LyricsDB, err = scope.DataPath("lyrics_cache.db")
		if err != nil {
			return Config{}, fmt.Errorf("could not resolve lyrics cache path: %w", err)
		}
	}
	if cfg.VocabDir == "" {
		cfg.VocabDir, err = scope.DataPath("vocab_cache")
		if err != nil {
			return Config{}, fmt.Errorf("could not resolve vocab cache path: %w", err)
		}
	}
	return cfg, nil
}

// Caches bundles the two content caches built from one Config.
type Caches struct {
	Lyrics *Lyrics
	Vocab  *Vocab

	codec  *codec.Codec
	lyrics store.Store
	vocab  store.Store
}

// Open builds both caches. The provider and extractor collaborators may
// be nil for cache-only or mock operation.
func Open(cfg Config, provider LyricsProvider, extractor VocabExtractor) (*Caches, error) {
	cdc, err := codec.New(cfg.CompressionLevel)
	if err != nil {
		return nil, err
	}

	lyricsStore, err := store.OpenBolt(cfg.LyricsDB)
	if err != nil {
		cdc.Close()
		return nil, err
	}

	vocabStore, err := store.OpenFileStore(cfg.VocabDir)
	if err != nil {
		cdc.Close()
		_ = lyricsStore.Close()
		return nil, err
	}

	lyrics := NewLyrics(lyricsStore, cdc, provider)
	return &Caches{
		Lyrics: lyrics,
		Vocab:  NewVocab(vocabStore, extractor, lyrics),
		codec:  cdc,
		lyrics: lyricsStore,
		vocab:  vocabStore,
	}, nil
}

// Close releases both stores and the codec.
func (c *Caches) Close() error {
	c.codec.Close()
	err := c.lyrics.Close()
	if cerr := c.vocab.Close(); err == nil {
		err = cerr
	}
	return err
}
