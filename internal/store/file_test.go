package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := OpenFileStore(filepath.Join(t.TempDir(), "vocab_cache"))
	if err != nil {
		t.Fatalf("failed to open file store: %v", err)
	}
	return s
}

func TestFileStore_RecordNaming(t *testing.T) {
	s := newFileStore(t)
	key := mustKey(t, "Lemon", "Kenshi Yonezu")

	if err := s.Put(key, &Entry{Payload: `{"vocabulary":[]}`}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	want := filepath.Join(s.Dir(), key.StorageID()+".json")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected record at %s: %v", want, err)
	}
	if !strings.HasPrefix(filepath.Base(want), "lemon_kenshi_yonezu_") {
		t.Errorf("record name %q lacks readable slug", filepath.Base(want))
	}
}

func TestFileStore_JSONPayloadRoundTrip(t *testing.T) {
	s := newFileStore(t)
	key := mustKey(t, "Lemon", "Kenshi Yonezu")

	payload := `{"vocabulary":[{"kanji":"夢","romaji":"yume","english":"dream","parts":[{"kanji":"夢","romaji":["yu","me"]}]}]}`
	if err := s.Put(key, &Entry{Payload: payload}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	e, err := s.Get(key)
	if err != nil || e == nil {
		t.Fatalf("Get: entry=%v err=%v", e, err)
	}
	if e.Payload != payload {
		t.Errorf("payload round trip mismatch:\ngot  %s\nwant %s", e.Payload, payload)
	}
}

func TestFileStore_NonJSONPayloadRoundTrip(t *testing.T) {
	s := newFileStore(t)
	key := mustKey(t, "Plain", "Text")

	payload := "not json at all\nsecond line\t日本語"
	if err := s.Put(key, &Entry{Payload: payload}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	e, err := s.Get(key)
	if err != nil || e == nil {
		t.Fatalf("Get: entry=%v err=%v", e, err)
	}
	if e.Payload != payload {
		t.Errorf("payload round trip mismatch: got %q, want %q", e.Payload, payload)
	}
}

func TestFileStore_EmbeddedMetadataBlock(t *testing.T) {
	s := newFileStore(t)
	key := mustKey(t, "Lemon", "Kenshi Yonezu")

	if err := s.Put(key, &Entry{Payload: `{"vocabulary":[]}`}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(), key.StorageID()+".json"))
	if err != nil {
		t.Fatalf("failed to read record: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("record is not valid JSON: %v", err)
	}
	metaRaw, ok := raw["_cache_metadata"]
	if !ok {
		t.Fatal("record has no _cache_metadata block")
	}

	var meta map[string]any
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		t.Fatalf("metadata block is not valid JSON: %v", err)
	}
	if meta["song"] != "lemon" {
		t.Errorf("metadata song = %v, want lemon", meta["song"])
	}
	if meta["artist"] != "kenshi yonezu" {
		t.Errorf("metadata artist = %v, want kenshi yonezu", meta["artist"])
	}
	if meta["version"] != recordVersion {
		t.Errorf("metadata version = %v, want %s", meta["version"], recordVersion)
	}
	if _, ok := meta["cached_at"]; !ok {
		t.Error("metadata has no cached_at")
	}
}

func TestFileStore_CorruptRecordFallsBackToFilename(t *testing.T) {
	s := newFileStore(t)

	good := mustKey(t, "Good Song", "Good Artist")
	if err := s.Put(good, &Entry{Payload: `{"vocabulary":[]}`}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Plant a record that is not valid JSON.
	corrupt := filepath.Join(s.Dir(), "broken_band_deadbeef.json")
	if err := os.WriteFile(corrupt, []byte("{{{ not json"), 0o644); err != nil {
		t.Fatalf("failed to plant corrupt record: %v", err)
	}

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List failed on store with corrupt record: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(entries))
	}

	var sawFallback, sawParsed bool
	for _, e := range entries {
		switch e.MetaSource {
		case MetaFromFilename:
			sawFallback = true
			if e.Song != "broken" {
				t.Errorf("fallback song = %q, want broken", e.Song)
			}
			if e.Artist != "band" {
				t.Errorf("fallback artist = %q, want band", e.Artist)
			}
		case MetaParsed:
			sawParsed = true
			if e.Song != "good song" {
				t.Errorf("parsed song = %q, want good song", e.Song)
			}
		}
	}
	if !sawFallback || !sawParsed {
		t.Errorf("expected one parsed and one fallback entry, got %+v", entries)
	}
}

func TestFileStore_NoTempFilesLeftBehind(t *testing.T) {
	s := newFileStore(t)
	key := mustKey(t, "Lemon", "Kenshi Yonezu")

	if err := s.Put(key, &Entry{Payload: `{"vocabulary":[]}`}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := s.Get(key); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	files, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, f := range files {
		if strings.HasSuffix(f.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", f.Name())
		}
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vocab_cache")
	key := mustKey(t, "Lemon", "Kenshi Yonezu")

	s, err := OpenFileStore(dir)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := s.Put(key, &Entry{Payload: `{"vocabulary":[]}`}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	s.Close()

	reopened, err := OpenFileStore(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	e, err := reopened.Get(key)
	if err != nil || e == nil {
		t.Fatalf("entry lost across reopen: entry=%v err=%v", e, err)
	}
}
