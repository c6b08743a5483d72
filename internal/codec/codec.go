// Package codec provides the reversible text compression used by the
// content caches. Payloads are zstd-compressed and base64-encoded so
// the stores can treat them as plain text fields.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
)

// ErrDecode is returned when an encoded payload cannot be reversed,
// meaning the stored value is corrupt or was not produced by Compress.
var ErrDecode = errors.New("payload is not valid encoded cache data")

// DefaultLevel is a balanced speed/ratio trade-off, matching zstd's
// own default.
const DefaultLevel = 3

// Stats describes a single compression operation.
type Stats struct {
	OriginalBytes   int     `json:"original_size_bytes"`
	CompressedBytes int     `json:"compressed_size_bytes"`
	EncodedBytes    int     `json:"encoded_size_bytes"`
	Ratio           float64 `json:"compression_ratio"`
	Method          string  `json:"compression_method"`
	Level           int     `json:"compression_level"`
}

// String renders the stats in a human-readable form for logs and CLI
// output.
func (s Stats) String() string {
	return fmt.Sprintf("%s -> %s (%.2fx, %s level %d)",
		humanize.Bytes(uint64(s.OriginalBytes)),
		humanize.Bytes(uint64(s.EncodedBytes)),
		s.Ratio,
		s.Method,
		s.Level)
}

// Codec compresses text payloads for storage. The zero value is not
// usable; construct with New.
type Codec struct {
	level   int
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// New creates a codec with the given zstd compression level (1-22).
// Levels outside that range fall back to DefaultLevel. Decompression
// is level-independent: any codec can decode any codec's output.
func New(level int) (*Codec, error) {
	if level < 1 || level > 22 {
		level = DefaultLevel
	}

	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &Codec{level: level, encoder: encoder, decoder: decoder}, nil
}

// Compress compresses text and encodes the result as base64 so it can
// be persisted in a text column. The returned stats report sizes at
// every stage plus the original/encoded ratio.
func (c *Codec) Compress(text string) (string, Stats) {
	original := []byte(text)
	compressed := c.encoder.EncodeAll(original, nil)
	encoded := base64.StdEncoding.EncodeToString(compressed)

	stats := Stats{
		OriginalBytes:   len(original),
		CompressedBytes: len(compressed),
		EncodedBytes:    len(encoded),
		Method:          "zstd+base64",
		Level:           c.level,
	}
	if stats.EncodedBytes > 0 {
		stats.Ratio = float64(stats.OriginalBytes) / float64(stats.EncodedBytes)
	}
	return encoded, stats
}

// Decompress reverses Compress. It fails with ErrDecode when the input
// is not valid output of Compress; it never silently returns empty
// text for corrupt data.
func (c *Codec) Decompress(encoded string) (string, error) {
	compressed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: bad base64: %s", ErrDecode, err)
	}

	original, err := c.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: bad zstd stream: %s", ErrDecode, err)
	}
	return string(original), nil
}

// Close releases the underlying zstd coders.
func (c *Codec) Close() {
	_ = c.encoder.Close()
	c.decoder.Close()
}
