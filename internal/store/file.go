package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jbisetto/songvocab/internal/songkey"
)

// recordVersion is the on-disk format version embedded in every record.
const recordVersion = "1.0"

// fileExt is the extension of persisted records.
const fileExt = ".json"

// FileStore is the one-file-per-key backend. Each entry is a discrete
// JSON file named after the key's storage id, holding the payload and
// an embedded metadata block.
type FileStore struct {
	dir string
}

// fileMeta is the metadata block embedded in every record.
type fileMeta struct {
	Song       string    `json:"song"`
	Artist     string    `json:"artist,omitempty"`
	CachedAt   time.Time `json:"cached_at"`
	AccessedAt time.Time `json:"accessed_at"`
	Version    string    `json:"version"`
}

// fileRecord is the full on-disk shape of one entry.
type fileRecord struct {
	Payload json.RawMessage `json:"payload"`
	Meta    fileMeta        `json:"_cache_metadata"`
}

// OpenFileStore opens (creating if necessary) a file-backed store
// rooted at dir.
func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create cache directory: %s", ErrStore, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key songkey.Key) string {
	return filepath.Join(s.dir, key.StorageID()+fileExt)
}

// Get reads the record for key, touching its last-access timestamp.
// A missing file is a plain miss.
func (s *FileStore) Get(key songkey.Key) (*Entry, error) {
	path := s.path(key)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStore, err)
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: malformed record %s: %s", ErrStore, filepath.Base(path), err)
	}

	// Touch the record. Access tracking must survive restarts, so the
	// timestamp lives in the record itself rather than in atime.
	rec.Meta.AccessedAt = time.Now()
	if err := s.writeRecord(path, &rec); err != nil {
		return nil, err
	}

	return &Entry{
		Song:       rec.Meta.Song,
		Artist:     rec.Meta.Artist,
		Payload:    payloadText(rec.Payload),
		CreatedAt:  rec.Meta.CachedAt,
		AccessedAt: rec.Meta.AccessedAt,
	}, nil
}

// Put writes the record for key atomically: the old record stays
// readable until the new one is fully committed. An update keeps the
// original cached-at timestamp.
func (s *FileStore) Put(key songkey.Key, e *Entry) error {
	path := s.path(key)
	now := time.Now()

	rec := fileRecord{
		Payload: payloadJSON(e.Payload),
		Meta: fileMeta{
			Song:       key.Song,
			Artist:     key.Artist,
			CachedAt:   now,
			AccessedAt: now,
			Version:    recordVersion,
		},
	}

	if data, err := os.ReadFile(path); err == nil {
		var prev fileRecord
		if err := json.Unmarshal(data, &prev); err == nil && !prev.Meta.CachedAt.IsZero() {
			rec.Meta.CachedAt = prev.Meta.CachedAt
		}
	}

	return s.writeRecord(path, &rec)
}

// List enumerates every record, most recently accessed first. Corrupt
// records do not fail the listing; their metadata falls back to the
// filename and file timestamps, tagged MetaFromFilename.
func (s *FileStore) List() ([]ListEntry, error) {
	files, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStore, err)
	}

	var entries []ListEntry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), fileExt) {
			continue
		}

		info, err := f.Info()
		if err != nil {
			continue
		}

		le := ListEntry{Size: info.Size()}
		rec, err := s.readRecord(filepath.Join(s.dir, f.Name()))
		if err == nil {
			le.Song = rec.Meta.Song
			le.Artist = rec.Meta.Artist
			le.CreatedAt = rec.Meta.CachedAt
			le.AccessedAt = rec.Meta.AccessedAt
			le.MetaSource = MetaParsed
		} else {
			le.Song, le.Artist = parseRecordName(f.Name())
			le.CreatedAt = info.ModTime()
			le.AccessedAt = info.ModTime()
			le.MetaSource = MetaFromFilename
		}
		entries = append(entries, le)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AccessedAt.After(entries[j].AccessedAt)
	})
	return entries, nil
}

// DeleteOlderThan removes every record cached before cutoff. Unreadable
// records age by file modification time.
func (s *FileStore) DeleteOlderThan(cutoff time.Time) (int, error) {
	infos, err := s.scan()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, fi := range infos {
		if fi.createdAt.Before(cutoff) {
			if err := os.Remove(fi.path); err != nil {
				return deleted, fmt.Errorf("%w: %s", ErrStore, err)
			}
			deleted++
		}
	}
	return deleted, nil
}

// DeleteExcess removes least-recently-accessed records until at most
// keep remain.
func (s *FileStore) DeleteExcess(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	infos, err := s.scan()
	if err != nil {
		return 0, err
	}
	if len(infos) <= keep {
		return 0, nil
	}

	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].accessedAt.Equal(infos[j].accessedAt) {
			return infos[i].createdAt.Before(infos[j].createdAt)
		}
		return infos[i].accessedAt.Before(infos[j].accessedAt)
	})

	deleted := 0
	for _, fi := range infos[:len(infos)-keep] {
		if err := os.Remove(fi.path); err != nil {
			return deleted, fmt.Errorf("%w: %s", ErrStore, err)
		}
		deleted++
	}
	return deleted, nil
}

// Count returns the number of records in the store.
func (s *FileStore) Count() (int, error) {
	infos, err := s.scan()
	if err != nil {
		return 0, err
	}
	return len(infos), nil
}

// TotalBytes returns the total size of all record files.
func (s *FileStore) TotalBytes() (int64, error) {
	infos, err := s.scan()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, fi := range infos {
		total += fi.size
	}
	return total, nil
}

// Close is a no-op; the file store holds no persistent handle.
func (s *FileStore) Close() error {
	return nil
}

type recordInfo struct {
	path       string
	createdAt  time.Time
	accessedAt time.Time
	size       int64
}

// scan collects per-record timestamps for the eviction paths. A
// missing directory yields an empty result, not an error.
func (s *FileStore) scan() ([]recordInfo, error) {
	files, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStore, err)
	}

	var infos []recordInfo
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), fileExt) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}

		ri := recordInfo{
			path:       filepath.Join(s.dir, f.Name()),
			createdAt:  info.ModTime(),
			accessedAt: info.ModTime(),
			size:       info.Size(),
		}
		if rec, err := s.readRecord(ri.path); err == nil {
			ri.createdAt = rec.Meta.CachedAt
			ri.accessedAt = rec.Meta.AccessedAt
		}
		infos = append(infos, ri)
	}
	return infos, nil
}

func (s *FileStore) readRecord(path string) (*fileRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if rec.Meta.Song == "" && rec.Meta.CachedAt.IsZero() {
		return nil, fmt.Errorf("record %s has no metadata block", filepath.Base(path))
	}
	return &rec, nil
}

// writeRecord writes to a temp file then renames, so a reader never
// observes a half-written record.
func (s *FileStore) writeRecord(path string, rec *fileRecord) error {
	// Compact marshaling keeps embedded JSON payloads byte-stable
	// across a write/read cycle.
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrStore, err)
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrStore, err)
	}

	_, err = file.Write(data)
	closeErr := file.Close()

	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tempPath, path)
	}
	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("%w: %s", ErrStore, err)
	}
	return nil
}

// payloadJSON embeds a payload in a record. JSON payloads (the usual
// case for derived vocabulary) are embedded as-is; anything else is
// stored as a JSON string.
func payloadJSON(payload string) json.RawMessage {
	trimmed := strings.TrimSpace(payload)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	quoted, _ := json.Marshal(payload)
	return quoted
}

// payloadText reverses payloadJSON.
func payloadText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// parseRecordName reconstructs best-effort song/artist metadata from a
// record filename, for records whose contents cannot be read.
func parseRecordName(name string) (song, artist string) {
	base := strings.TrimSuffix(name, fileExt)
	parts := strings.Split(base, "_")
	song, artist = "Unknown", "Unknown"
	if len(parts) > 0 && parts[0] != "" {
		song = parts[0]
	}
	// The last component is the hash suffix; anything between belongs
	// to the slugs. Attribute the second component to the artist, same
	// best effort the listing has always made.
	if len(parts) > 2 && parts[1] != "" {
		artist = parts[1]
	}
	return song, artist
}
