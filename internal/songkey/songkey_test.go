package songkey

import (
	"strings"
	"testing"
)

func TestNormalize_FoldsCaseAndWhitespace(t *testing.T) {
	tests := []struct {
		name       string
		song       string
		artist     string
		wantSong   string
		wantArtist string
	}{
		{"lowercase passthrough", "lemon", "kenshi yonezu", "lemon", "kenshi yonezu"},
		{"mixed case", "LeMoN", "Kenshi YONEZU", "lemon", "kenshi yonezu"},
		{"surrounding whitespace", "  Lemon\t", " Kenshi Yonezu\n", "lemon", "kenshi yonezu"},
		{"no artist", "Flamingo", "", "flamingo", ""},
		{"unicode title", "打上花火", "DAOKO", "打上花火", "daoko"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := Normalize(tt.song, tt.artist)
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			if k.Song != tt.wantSong || k.Artist != tt.wantArtist {
				t.Errorf("Normalize(%q, %q) = %+v, want song=%q artist=%q",
					tt.song, tt.artist, k, tt.wantSong, tt.wantArtist)
			}
		})
	}
}

func TestNormalize_EmptySong(t *testing.T) {
	if _, err := Normalize("", "Artist"); err != ErrEmptySong {
		t.Errorf("expected ErrEmptySong, got %v", err)
	}
	if _, err := Normalize("   ", "Artist"); err != ErrEmptySong {
		t.Errorf("whitespace-only song: expected ErrEmptySong, got %v", err)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	k, err := Normalize("  Same Song ", "Artist One")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	again, err := Normalize(k.Song, k.Artist)
	if err != nil {
		t.Fatalf("second Normalize failed: %v", err)
	}
	if again != k {
		t.Errorf("normalization not idempotent: %+v != %+v", again, k)
	}
}

func TestStorageID_CollisionSafety(t *testing.T) {
	mustKey := func(song, artist string) Key {
		t.Helper()
		k, err := Normalize(song, artist)
		if err != nil {
			t.Fatalf("Normalize(%q, %q) failed: %v", song, artist, err)
		}
		return k
	}

	// Same title under different artists, including an absent artist,
	// must map to distinct storage units.
	ids := map[string]string{
		"artist 1": mustKey("Same Song", "Artist 1").StorageID(),
		"artist 2": mustKey("Same Song", "Artist 2").StorageID(),
		"absent":   mustKey("Same Song", "").StorageID(),
	}
	seen := map[string]string{}
	for label, id := range ids {
		if prev, dup := seen[id]; dup {
			t.Errorf("storage id collision between %q and %q: %s", label, prev, id)
		}
		seen[id] = label
	}

	// Slugs collide here ("Artist 1" and "Artist_1" sanitize identically);
	// only the hash suffix keeps the ids apart.
	a := mustKey("Same Song", "Artist 1").StorageID()
	b := mustKey("Same Song", "Artist_1").StorageID()
	if a == b {
		t.Errorf("hash suffix failed to disambiguate sanitized twins: %s", a)
	}
}

func TestStorageID_FilesystemSafe(t *testing.T) {
	k, err := Normalize("What's Up? (Live/Remix)", "4 Non Blondes")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	id := k.StorageID()
	for _, r := range id {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !ok {
			t.Fatalf("storage id %q contains unsafe rune %q", id, r)
		}
	}
	if !strings.HasPrefix(id, "what_s_up") {
		t.Errorf("expected readable slug prefix, got %q", id)
	}
}

func TestStorageID_Deterministic(t *testing.T) {
	k, _ := Normalize("Lemon", "Kenshi Yonezu")
	if k.StorageID() != k.StorageID() {
		t.Error("storage id not deterministic")
	}
}
