// Package tts converts coaching reviews to speech with the ElevenLabs API.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	modelID        = "eleven_multilingual_v2"
	outputFormat   = "mp3_44100_128"

	// DefaultVoice is used when no voice is requested.
	DefaultVoice = "george"
)

// Voices maps the selectable voice names to their ElevenLabs voice IDs.
var Voices = map[string]string{
	"george":  "JBFqnCBsd6RMkjVDRZzb",
	"adam":    "pNInz6obpgDQGcFmaJgB",
	"bill":    "pqHfZKP75CvOlQylNhV4",
	"callum":  "N2lVS1w4EtoT3dr4eOWO",
	"charlie": "IKne3meq5aSn9XLyUdCD",
}

// VoiceNames returns the selectable voice names, sorted.
func VoiceNames() []string {
	names := make([]string, 0, len(Voices))
	for name := range Voices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VoiceID resolves a voice name to its ID, falling back to the default
// voice for unknown or empty names.
func VoiceID(name string) string {
	if id, ok := Voices[strings.ToLower(name)]; ok {
		return id
	}
	return Voices[DefaultVoice]
}

// Client synthesizes speech via the ElevenLabs text-to-speech endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a TTS client.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("tts: ElevenLabs API key not set")
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}, nil
}

type synthesizeRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize converts text to MP3 speech with the named voice and streams
// the audio into outputPath.
func (c *Client) Synthesize(ctx context.Context, text, voice, outputPath string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("tts: nothing to synthesize")
	}

	reqBody, err := json.Marshal(synthesizeRequest{Text: text, ModelID: modelID})
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", c.baseURL, VoiceID(voice), outputFormat)
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tts: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("tts: API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("tts: failed to create %s: %w", outputPath, err)
	}
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("tts: failed to write audio: %w", err)
	}
	fmt.Printf("[TTS] Wrote %s (%d bytes, voice %s)\n", outputPath, written, strings.ToLower(voice))
	return nil
}
