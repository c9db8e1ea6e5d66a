package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCompleteSendsMessagesRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "sk-test" {
			t.Error("missing x-api-key header")
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Error("missing anthropic-version header")
		}

		var req messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "claude-sonnet-4-5" || req.MaxTokens != maxTokens {
			t.Errorf("request = %+v", req)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{{"type": "text", "text": "the review"}},
		})
	}))
	defer srv.Close()

	c := &Client{apiKey: "sk-test", model: "claude-sonnet-4-5", baseURL: srv.URL, httpClient: srv.Client()}
	got, err := c.Complete(context.Background(), "analyze this")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "the review" {
		t.Errorf("Complete = %q", got)
	}
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "invalid_request_error", "message": "prompt too long"},
		})
	}))
	defer srv.Close()

	c := &Client{apiKey: "sk-test", model: "m", baseURL: srv.URL, httpClient: srv.Client()}
	_, err := c.Complete(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "prompt too long") {
		t.Errorf("want API error with message, got %v", err)
	}
}

func TestRoundNumbers(t *testing.T) {
	in := map[string]any{
		"a": 1.23456789,
		"b": []any{0.0001, float64(3)},
		"c": map[string]any{"d": 2.9999999},
		"s": "unchanged",
	}
	out := RoundNumbers(in, 3).(map[string]any)
	if out["a"] != 1.235 {
		t.Errorf("a = %v", out["a"])
	}
	b := out["b"].([]any)
	if b[0] != 0.0 || b[1] != 3.0 {
		t.Errorf("b = %v", b)
	}
	if out["c"].(map[string]any)["d"] != 3.0 {
		t.Errorf("d = %v", out["c"].(map[string]any)["d"])
	}
	if out["s"] != "unchanged" {
		t.Errorf("s = %v", out["s"])
	}
	if in["a"] != 1.23456789 {
		t.Error("input was modified")
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"first sentence", "Great game overall. You need to ward more.", "Great game overall."},
		{"no punctuation", "one long fragment", "one long fragment"},
		{"truncates", strings.Repeat("a", 300), strings.Repeat("a", 197) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.in); got != tt.want {
				t.Errorf("Summarize = %q, want %q", got, tt.want)
			}
		})
	}
}

func testMatchLog(puuid, champion string) map[string]any {
	return map[string]any{
		"info": map[string]any{
			"participants": []any{
				map[string]any{
					"puuid": puuid, "championName": champion,
					"teamId": float64(100), "riotIdGameName": "Player", "riotIdTagline": "EUW",
				},
			},
		},
	}
}

func TestMatchLogPrompt(t *testing.T) {
	prompt, err := MatchLogPrompt(testMatchLog("p1", "Lillia"), "p1")
	if err != nil {
		t.Fatalf("MatchLogPrompt: %v", err)
	}
	for _, want := range []string{"Player#EUW", "Lillia", "Blue Side (Team 100)", "MATCH LOG DATA"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	if _, err := MatchLogPrompt(testMatchLog("p1", "Lillia"), "nobody"); err == nil {
		t.Error("expected error for unknown player")
	}
}

func TestPhasePromptUnknownPhase(t *testing.T) {
	if _, err := PhasePrompt("overtime", map[string]any{}, "ctx", "p1", "Lillia"); err == nil {
		t.Error("expected error for unknown phase")
	}
}

func TestSynthesisPromptFillsMissingPhases(t *testing.T) {
	prompt := SynthesisPrompt("ctx", map[string]string{"early": "laning notes"}, "Lillia")
	if !strings.Contains(prompt, "laning notes") {
		t.Error("early analysis missing")
	}
	if !strings.Contains(prompt, "No mid game data") || !strings.Contains(prompt, "No late game data") {
		t.Error("missing phases should get placeholders")
	}
}

func TestGlobalPromptOrdersGames(t *testing.T) {
	prompt := GlobalPrompt(
		map[string]string{"EUW1_2": "review two", "EUW1_1": "review one"},
		map[string]string{"EUW1_1": "context one"},
	)
	if !strings.Contains(prompt, "GAME 1 (EUW1_1)") || !strings.Contains(prompt, "GAME 2 (EUW1_2)") {
		t.Errorf("games not in match-ID order:\n%s", prompt)
	}
	if strings.Index(prompt, "review one") > strings.Index(prompt, "review two") {
		t.Error("reviews out of order")
	}
}

// scriptedCompleter answers each prompt by inspecting its text.
type scriptedCompleter struct {
	mu      sync.Mutex
	prompts []string
}

func (s *scriptedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	switch {
	case strings.Contains(prompt, "MATCH LOG DATA"):
		return "match context summary", nil
	case strings.Contains(prompt, "EARLY GAME TIMELINE DATA"):
		return "early analysis", nil
	case strings.Contains(prompt, "MID GAME TIMELINE DATA"):
		return "mid analysis", nil
	case strings.Contains(prompt, "LATE GAME TIMELINE DATA"):
		return "late analysis", nil
	case strings.Contains(prompt, "multi-game analysis"):
		return "global patterns", nil
	case strings.Contains(prompt, "synthesize"):
		return "final spoken review", nil
	}
	return "", fmt.Errorf("unexpected prompt: %.80s", prompt)
}

func minuteFrame(min int, gold float64) map[string]any {
	return map[string]any{
		"timestamp": float64(min) * 60 * 1000,
		"events":    []any{},
		"participantFrames": map[string]any{
			"1": map[string]any{
				"participantId": float64(1),
				"currentGold":   gold,
				"position":      map[string]any{"x": float64(1000), "y": float64(1000)},
			},
		},
	}
}

func testTimeline(lastMinute int) map[string]any {
	var frames []any
	for min := 0; min <= lastMinute; min++ {
		frames = append(frames, minuteFrame(min, float64(min*100)))
	}
	return map[string]any{
		"metadata": map[string]any{"matchId": "EUW1_1"},
		"info": map[string]any{
			"frameInterval": float64(60000),
			"frames":        frames,
			"participants": []any{
				map[string]any{"participantId": float64(1), "puuid": "p1"},
			},
		},
	}
}

func TestAnalyzeMatchFullGame(t *testing.T) {
	c := &scriptedCompleter{}
	a := NewAnalyzer(c)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := a.AnalyzeMatch(ctx, "EUW1_1", testMatchLog("p1", "Lillia"), testTimeline(35), "p1")
	if err != nil {
		t.Fatalf("AnalyzeMatch: %v", err)
	}

	if result.MatchContext != "match context summary" {
		t.Errorf("MatchContext = %q", result.MatchContext)
	}
	want := map[string]string{"early": "early analysis", "mid": "mid analysis", "late": "late analysis"}
	for phase, text := range want {
		if result.PhaseAnalyses[phase] != text {
			t.Errorf("PhaseAnalyses[%s] = %q, want %q", phase, result.PhaseAnalyses[phase], text)
		}
	}
	if result.FinalReview != "final spoken review" {
		t.Errorf("FinalReview = %q", result.FinalReview)
	}

	// 1 context + 3 phases + 1 synthesis
	if len(c.prompts) != 5 {
		t.Errorf("made %d API calls, want 5", len(c.prompts))
	}
}

func TestAnalyzeMatchShortGameSkipsLatePhase(t *testing.T) {
	c := &scriptedCompleter{}
	a := NewAnalyzer(c)

	result, err := a.AnalyzeMatch(context.Background(), "EUW1_1", testMatchLog("p1", "Lillia"), testTimeline(20), "p1")
	if err != nil {
		t.Fatalf("AnalyzeMatch: %v", err)
	}
	if _, ok := result.PhaseAnalyses["late"]; ok {
		t.Error("20 minute game should have no late phase")
	}
	if len(result.PhaseAnalyses) != 2 {
		t.Errorf("PhaseAnalyses = %v", result.PhaseAnalyses)
	}
}

func TestGlobalAnalysisNeedsTwoGames(t *testing.T) {
	c := &scriptedCompleter{}
	a := NewAnalyzer(c)

	text, err := a.GlobalAnalysis(context.Background(), []*Result{{MatchID: "EUW1_1", FinalReview: "r"}})
	if err != nil {
		t.Fatalf("GlobalAnalysis: %v", err)
	}
	if text != "" {
		t.Errorf("single game should skip global analysis, got %q", text)
	}
	if len(c.prompts) != 0 {
		t.Error("no API call expected for a single game")
	}
}

func TestGlobalAnalysisMultipleGames(t *testing.T) {
	c := &scriptedCompleter{}
	a := NewAnalyzer(c)

	results := []*Result{
		{MatchID: "EUW1_1", MatchContext: "c1", FinalReview: "r1"},
		{MatchID: "EUW1_2", MatchContext: "c2", FinalReview: "r2"},
	}
	text, err := a.GlobalAnalysis(context.Background(), results)
	if err != nil {
		t.Fatalf("GlobalAnalysis: %v", err)
	}
	if text != "global patterns" {
		t.Errorf("GlobalAnalysis = %q", text)
	}
	if len(c.prompts) != 1 || !strings.Contains(c.prompts[0], "GAME 2 (EUW1_2)") {
		t.Errorf("global prompt = %v", c.prompts)
	}
}
