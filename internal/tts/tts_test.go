package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestVoiceID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"known voice", "adam", Voices["adam"]},
		{"mixed case", "GEORGE", Voices["george"]},
		{"unknown falls back", "nobody", Voices[DefaultVoice]},
		{"empty falls back", "", Voices[DefaultVoice]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VoiceID(tt.in); got != tt.want {
				t.Errorf("VoiceID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestVoiceNamesSorted(t *testing.T) {
	names := VoiceNames()
	if len(names) != len(Voices) {
		t.Fatalf("got %d names, want %d", len(names), len(Voices))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
}

func TestSynthesizeWritesAudio(t *testing.T) {
	audio := []byte("ID3fake-mp3-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/"+Voices["bill"] {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("output_format") != "mp3_44100_128" {
			t.Errorf("output_format = %s", r.URL.Query().Get("output_format"))
		}
		if r.Header.Get("xi-api-key") != "el-test" {
			t.Error("missing xi-api-key header")
		}
		var req synthesizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Text != "hello summoner" || req.ModelID != "eleven_multilingual_v2" {
			t.Errorf("request = %+v", req)
		}
		w.Write(audio)
	}))
	defer srv.Close()

	c := &Client{apiKey: "el-test", baseURL: srv.URL, httpClient: srv.Client()}
	out := filepath.Join(t.TempDir(), "review.mp3")

	if err := c.Synthesize(context.Background(), "hello summoner", "bill", out); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(got) != string(audio) {
		t.Error("audio bytes do not match response body")
	}
}

func TestSynthesizeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"invalid api key"}`))
	}))
	defer srv.Close()

	c := &Client{apiKey: "bad", baseURL: srv.URL, httpClient: srv.Client()}
	out := filepath.Join(t.TempDir(), "review.mp3")

	if err := c.Synthesize(context.Background(), "text", "george", out); err == nil {
		t.Fatal("expected error for 401")
	}
	if _, statErr := os.Stat(out); statErr == nil {
		t.Error("no file should be written on API error")
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	c := &Client{apiKey: "el-test", baseURL: "http://unused", httpClient: http.DefaultClient}
	if err := c.Synthesize(context.Background(), "   ", "george", "out.mp3"); err == nil {
		t.Error("expected error for empty text")
	}
}
