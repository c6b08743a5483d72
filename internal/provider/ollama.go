package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/jbisetto/songvocab/internal/cache"
)

// maxLyricsWords bounds the prompt size sent to the model.
const maxLyricsWords = 400

const vocabPrompt = `Extract Japanese vocabulary from these song lyrics.
For Japanese lyrics, extract the vocabulary directly. For English lyrics,
identify nouns, verbs and adjectives and translate them to Japanese.
Respond with JSON only, in this shape:
{"vocabulary":[{"kanji":"レモン","romaji":"remon","english":"lemon","parts":[{"kanji":"レ","romaji":["re"]}]}]}

Lyrics:
`

// Ollama derives vocabulary records from lyrics via a local Ollama
// server.
type Ollama struct {
	client *http.Client
	host   string
	model  string
}

// NewOllama creates an extractor talking to the given Ollama host
// (e.g. "http://localhost:11434") with the given model name. A nil
// client uses http.DefaultClient.
func NewOllama(client *http.Client, host, model string) *Ollama {
	if client == nil {
		client = http.DefaultClient
	}
	return &Ollama{client: client, host: strings.TrimSuffix(host, "/"), model: model}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Extract implements cache.VocabExtractor.
func (o *Ollama) Extract(ctx context.Context, lyrics string) (json.RawMessage, error) {
	if strings.TrimSpace(lyrics) == "" {
		return nil, cache.ErrNoResults
	}
	lyrics = truncateWords(lyrics, maxLyricsWords)

	payload, err := json.Marshal(generateRequest{
		Model:  o.model,
		Prompt: vocabPrompt + lyrics,
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", cache.ErrProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", cache.ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug("extracting vocabulary", "model", o.model, "lyrics_bytes", len(lyrics))

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", cache.ErrProvider, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: HTTP status %d: %s", cache.ErrProvider, resp.StatusCode, bytes.TrimSpace(body))
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %s", cache.ErrProvider, err)
	}

	vocab := json.RawMessage(strings.TrimSpace(gen.Response))
	if len(vocab) == 0 || !json.Valid(vocab) {
		return nil, fmt.Errorf("%w: model returned invalid JSON", cache.ErrProvider)
	}
	return vocab, nil
}

// truncateWords limits text to the first n whitespace-separated words.
func truncateWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return text
	}
	log.Debug("lyrics truncated for extraction", "from", len(words), "to", n)
	return strings.Join(words[:n], " ")
}
