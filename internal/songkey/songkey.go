// Package songkey derives stable cache identities from song/artist pairs.
// Keys are case-folded and trimmed so that "Lemon"/"LEMON " address the
// same entry, and the storage id adds a hash suffix so two different
// artists can never collide on disk even when their slugs do.
package songkey

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// ErrEmptySong is returned when a key is requested for an empty song title.
var ErrEmptySong = errors.New("song title must not be empty")

// keySeparator joins song and artist before hashing. A unit separator
// never occurs in natural text, so "a|b"+"c" and "a"+"b|c" style
// ambiguities cannot produce the same hash input.
const keySeparator = "\x1f"

// hashPrefixLen is the number of hex characters of the key hash kept in
// storage ids.
const hashPrefixLen = 8

var folder = cases.Fold()

// Key is a normalized (song, artist) pair. An empty Artist means the
// artist is unknown, which is a distinct identity from any named artist.
type Key struct {
	Song   string
	Artist string
}

// Normalize builds a Key from raw user input. The song is required;
// the artist may be empty. Both are case-folded and whitespace-trimmed.
func Normalize(song, artist string) (Key, error) {
	k := Key{
		Song:   folder.String(strings.TrimSpace(song)),
		Artist: folder.String(strings.TrimSpace(artist)),
	}
	if k.Song == "" {
		return Key{}, ErrEmptySong
	}
	return k, nil
}

// String returns the canonical flat form of the key, used as the record
// key by the tabular store.
func (k Key) String() string {
	return k.Song + keySeparator + k.Artist
}

// HasArtist reports whether the key carries a named artist.
func (k Key) HasArtist() bool {
	return k.Artist != ""
}

// StorageID returns a filesystem-safe identifier for the key: a
// human-readable slug for discoverability plus a short hash suffix for
// collision safety. Distinct keys always produce distinct ids because
// the suffix hashes the full normalized pair.
func (k Key) StorageID() string {
	sum := sha256.Sum256([]byte(k.String()))
	suffix := hex.EncodeToString(sum[:])[:hashPrefixLen]

	slug := slugify(k.Song)
	if k.HasArtist() {
		slug += "_" + slugify(k.Artist)
	}
	return slug + "_" + suffix
}

// slugify reduces s to lowercase alphanumerics, replacing everything
// else with underscores. Multi-byte letters are kept as underscores
// rather than transliterated; the hash suffix carries the identity.
func slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
