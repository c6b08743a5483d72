package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/jbisetto/songvocab/internal/songkey"
)

const lyricsBucket = "lyrics_cache"

// BoltStore is the tabular backend: one bbolt bucket holding one JSON
// row per normalized (song, artist) key.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (creating if necessary) a bbolt-backed store at path.
// Each Store method runs in its own transaction, which is committed or
// rolled back before the method returns.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create database directory: %s", ErrStore, err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %s", ErrStore, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(lyricsBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to create bucket: %s", ErrStore, err)
	}

	return &BoltStore{db: db}, nil
}

// Get probes the bucket for the normalized key. A hit refreshes the
// row's last-access timestamp in the same transaction.
func (s *BoltStore) Get(key songkey.Key) (*Entry, error) {
	var entry *Entry

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(lyricsBucket))
		raw := b.Get([]byte(key.String()))
		if raw == nil {
			return nil
		}

		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return fmt.Errorf("malformed row for %q: %w", key.String(), err)
		}

		e.AccessedAt = time.Now()
		updated, err := json.Marshal(&e)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(key.String()), updated); err != nil {
			return err
		}

		entry = &e
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStore, err)
	}
	return entry, nil
}

// Put inserts or updates the row for key. An update keeps the original
// creation timestamp and refreshes the access timestamp; it never
// produces a second row for the same key.
func (s *BoltStore) Put(key songkey.Key, e *Entry) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(lyricsBucket))

		now := time.Now()
		row := *e
		row.Song = key.Song
		row.Artist = key.Artist
		row.CreatedAt = now
		row.AccessedAt = now

		if raw := b.Get([]byte(key.String())); raw != nil {
			var prev Entry
			if err := json.Unmarshal(raw, &prev); err == nil {
				row.CreatedAt = prev.CreatedAt
			}
		}

		data, err := json.Marshal(&row)
		if err != nil {
			return err
		}
		return b.Put([]byte(key.String()), data)
	})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrStore, err)
	}
	return nil
}

// List returns a snapshot of every row, most recently accessed first.
func (s *BoltStore) List() ([]ListEntry, error) {
	var entries []ListEntry

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(lyricsBucket)).ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("malformed row for %q: %w", k, err)
			}
			entries = append(entries, ListEntry{
				Song:       e.Song,
				Artist:     e.Artist,
				CreatedAt:  e.CreatedAt,
				AccessedAt: e.AccessedAt,
				Size:       int64(len(e.Payload)),
				MetaSource: MetaParsed,
			})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStore, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AccessedAt.After(entries[j].AccessedAt)
	})
	return entries, nil
}

// DeleteOlderThan removes every row created before cutoff.
func (s *BoltStore) DeleteOlderThan(cutoff time.Time) (int, error) {
	deleted := 0

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(lyricsBucket))

		var doomed [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				// Malformed rows are reaped along with expired ones.
				doomed = append(doomed, append([]byte(nil), k...))
				return nil
			}
			if e.CreatedAt.Before(cutoff) {
				doomed = append(doomed, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range doomed {
			if err := b.Delete(k); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return deleted, fmt.Errorf("%w: %s", ErrStore, err)
	}
	return deleted, nil
}

// DeleteExcess removes least-recently-accessed rows until at most keep
// remain.
func (s *BoltStore) DeleteExcess(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	deleted := 0

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(lyricsBucket))

		type candidate struct {
			key        []byte
			accessedAt time.Time
			createdAt  time.Time
		}
		var rows []candidate
		err := b.ForEach(func(k, v []byte) error {
			var e Entry
			c := candidate{key: append([]byte(nil), k...)}
			if err := json.Unmarshal(v, &e); err == nil {
				c.accessedAt = e.AccessedAt
				c.createdAt = e.CreatedAt
			}
			rows = append(rows, c)
			return nil
		})
		if err != nil {
			return err
		}
		if len(rows) <= keep {
			return nil
		}

		// Oldest access first; ties fall back to insertion order.
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].accessedAt.Equal(rows[j].accessedAt) {
				return rows[i].createdAt.Before(rows[j].createdAt)
			}
			return rows[i].accessedAt.Before(rows[j].accessedAt)
		})

		for _, c := range rows[:len(rows)-keep] {
			if err := b.Delete(c.key); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return deleted, fmt.Errorf("%w: %s", ErrStore, err)
	}
	return deleted, nil
}

// Count returns the number of rows in the store.
func (s *BoltStore) Count() (int, error) {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket([]byte(lyricsBucket)).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrStore, err)
	}
	return count, nil
}

// TotalBytes returns the total size of all stored payloads.
func (s *BoltStore) TotalBytes() (int64, error) {
	var total int64
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(lyricsBucket)).ForEach(func(_, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err == nil {
				total += int64(len(e.Payload))
			}
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrStore, err)
	}
	return total, nil
}

// Close releases the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
