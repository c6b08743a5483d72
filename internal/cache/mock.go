package cache

import "fmt"

// MockLyrics synthesizes a deterministic placeholder for offline
// operation and tests. The text is long and repetitive on purpose so
// compression has something to chew on.
func MockLyrics(song, artist string) string {
	return fmt.Sprintf(`This is a mock lyrics for %s by %s

Verse 1:
Imagine the first verse of the song here
With multiple lines of text to simulate real lyrics
This helps us exercise the compression path
Without relying on external APIs that might have rate limits

Chorus:
This is the %s chorus
Repeated a few times
This is the %s chorus
To make it more realistic

Verse 2:
Second verse continues the song
With more lines to increase the text size
So we can properly exercise compression
And see how well the caching system works

Bridge:
A bridge section with different lyrics
To add variety to our mock song

Chorus:
This is the %s chorus
Repeated a few times
This is the %s chorus
One last time for the end

(End)
`, song, artistOrUnknown(artist), song, song, song, song)
}
