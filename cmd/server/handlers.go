package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"match-coach/internal/analysis"
	"match-coach/internal/archive"
	"match-coach/internal/config"
	"match-coach/internal/fetch"
	"match-coach/internal/store"
	"match-coach/internal/tts"
)

// How deep into the match history to look, and how many games to return.
const (
	searchCount  = 20
	maxGames     = 5
	historyLimit = 50
)

type server struct {
	cfg      *config.Config
	store    *store.Store
	finder   *fetch.Finder
	analyzer *analysis.Analyzer
	speech   *tts.Client      // nil when audio is disabled
	archive  *archive.Archive // nil when history is disabled
}

type fetchGamesRequest struct {
	GameName string `json:"game_name"`
	Tag      string `json:"tag"`
	Champion string `json:"champion"`
}

type gameInfo struct {
	ID       string `json:"id"`
	MatchID  string `json:"match_id"`
	Champion string `json:"champion"`
	Result   string `json:"result"` // "Victory" or "Defeat"
	KDA      string `json:"kda"`
	Duration string `json:"duration"` // MM:SS
	Date     string `json:"date"`     // YYYY-MM-DD
}

type fetchGamesResponse struct {
	Games    []gameInfo `json:"games"`
	Champion string     `json:"champion"`
	PUUID    string     `json:"puuid"`
}

type analyzeGamesRequest struct {
	GameIDs  []string `json:"game_ids"`
	Champion string   `json:"champion"`
	PUUID    string   `json:"puuid"`
	Voice    string   `json:"voice"`
}

type phaseAnalysis struct {
	Early string `json:"early,omitempty"`
	Mid   string `json:"mid,omitempty"`
	Late  string `json:"late,omitempty"`
}

type gameAnalysis struct {
	GameID           string         `json:"gameId"`
	MatchID          string         `json:"match_id"`
	Champion         string         `json:"champion"`
	AudioURL         string         `json:"audioUrl"`
	Summary          string         `json:"summary"`
	DetailedAnalysis string         `json:"detailedAnalysis,omitempty"`
	PhaseAnalyses    *phaseAnalysis `json:"phaseAnalyses,omitempty"`
}

type analyzeGamesResponse struct {
	GameAnalyses           []gameAnalysis `json:"gameAnalyses"`
	GlobalAnalysisURL      string         `json:"globalAnalysisUrl,omitempty"`
	GlobalSummary          string         `json:"globalSummary,omitempty"`
	GlobalDetailedAnalysis string         `json:"globalDetailedAnalysis,omitempty"`
}

// withCORS handles preflight and origin headers for the configured origins.
func (s *server) withCORS(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(s.cfg.AllowedOrigins))
	for _, o := range s.cfg.AllowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]string{"detail": fmt.Sprintf(format, args...)})
}

func formatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func formatDate(timestampMS int64) string {
	return time.UnixMilli(timestampMS).Format("2006-01-02")
}

func (s *server) handleFetchGames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req fetchGamesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	if req.GameName == "" || req.Tag == "" || req.Champion == "" {
		writeError(w, http.StatusBadRequest, "game_name, tag, and champion are required")
		return
	}

	found, err := s.finder.FindChampionGames(r.Context(), req.GameName, req.Tag, req.Champion, maxGames, searchCount)
	if err != nil {
		writeError(w, http.StatusNotFound, "%v", err)
		return
	}
	if len(found) == 0 {
		writeError(w, http.StatusNotFound,
			"No %s games found in latest %d matches", req.Champion, searchCount)
		return
	}

	resp := fetchGamesResponse{Champion: req.Champion, PUUID: found[0].PUUID}
	for _, g := range found {
		result := "Defeat"
		if g.Stats.Win {
			result = "Victory"
		}
		resp.Games = append(resp.Games, gameInfo{
			ID:       g.MatchID,
			MatchID:  g.MatchID,
			Champion: g.Champion,
			Result:   result,
			KDA:      fmt.Sprintf("%d/%d/%d", g.Stats.Kills, g.Stats.Deaths, g.Stats.Assists),
			Duration: formatDuration(g.Match.Info.GameDuration),
			Date:     formatDate(g.Match.Info.GameCreation),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleAnalyzeGames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req analyzeGamesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	if len(req.GameIDs) == 0 || req.Champion == "" || req.PUUID == "" {
		writeError(w, http.StatusBadRequest, "game_ids, champion, and puuid are required")
		return
	}
	if _, ok := tts.Voices[req.Voice]; !ok {
		req.Voice = tts.DefaultVoice
	}

	// All requested games must be on disk before any API spend.
	for _, gameID := range req.GameIDs {
		if !s.store.HasMatch(req.Champion, gameID) {
			writeError(w, http.StatusNotFound,
				"Game files not found for %s. Please fetch games first.", gameID)
			return
		}
	}

	fmt.Printf("[Server] Analyzing %d games in parallel...\n", len(req.GameIDs))

	var mu sync.Mutex
	results := make(map[string]*analysis.Result, len(req.GameIDs))
	g, gctx := errgroup.WithContext(r.Context())
	for _, gameID := range req.GameIDs {
		g.Go(func() error {
			matchLogRaw, tl, err := s.store.LoadMatch(req.Champion, gameID)
			if err != nil {
				return err
			}
			var matchLog map[string]any
			if err := json.Unmarshal(matchLogRaw, &matchLog); err != nil {
				return fmt.Errorf("failed to decode match log for %s: %w", gameID, err)
			}

			result, err := s.analyzer.AnalyzeMatch(gctx, gameID, matchLog, tl, req.PUUID)
			if err != nil {
				return err
			}
			mu.Lock()
			results[gameID] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		writeError(w, http.StatusInternalServerError, "Error analyzing games: %v", err)
		return
	}

	resp := analyzeGamesResponse{}
	allResults := make([]*analysis.Result, 0, len(req.GameIDs))
	for _, gameID := range req.GameIDs {
		result := results[gameID]
		allResults = append(allResults, result)

		audioURL := s.makeAudio(r, req.Champion, req.Voice,
			gameID+"_analysis.mp3", result.FinalReview)

		var phases *phaseAnalysis
		if len(result.PhaseAnalyses) > 0 {
			phases = &phaseAnalysis{
				Early: result.PhaseAnalyses["early"],
				Mid:   result.PhaseAnalyses["mid"],
				Late:  result.PhaseAnalyses["late"],
			}
		}

		resp.GameAnalyses = append(resp.GameAnalyses, gameAnalysis{
			GameID:           gameID,
			MatchID:          result.MatchID,
			Champion:         req.Champion,
			AudioURL:         audioURL,
			Summary:          analysis.Summarize(result.FinalReview),
			DetailedAnalysis: result.FinalReview,
			PhaseAnalyses:    phases,
		})

		s.archiveResult(r, req.Champion, req.PUUID, gameID, result, audioURL)
	}

	if len(allResults) >= 2 {
		global, err := s.analyzer.GlobalAnalysis(r.Context(), allResults)
		if err != nil {
			fmt.Printf("[Server] Global analysis failed: %v\n", err)
		} else if global != "" {
			resp.GlobalSummary = analysis.Summarize(global)
			resp.GlobalDetailedAnalysis = global
			resp.GlobalAnalysisURL = s.makeAudio(r, req.Champion, req.Voice,
				req.Champion+"_global_analysis.mp3", global)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// makeAudio synthesizes a review into the champion folder and returns its
// download URL. Audio failures never fail the analysis; they return "".
func (s *server) makeAudio(r *http.Request, champion, voice, filename, text string) string {
	if s.speech == nil {
		return ""
	}
	audioPath, err := s.store.AudioPath(champion, filename)
	if err != nil {
		fmt.Printf("[Server] Bad audio filename %s: %v\n", filename, err)
		return ""
	}
	if err := s.speech.Synthesize(r.Context(), text, voice, audioPath); err != nil {
		fmt.Printf("[Server] Audio generation failed for %s: %v\n", filename, err)
		return ""
	}
	return fmt.Sprintf("/api/audio/%s/%s", store.FolderName(champion), filename)
}

// archiveResult records a finished review in the history database.
func (s *server) archiveResult(r *http.Request, champion, puuid, gameID string, result *analysis.Result, audioURL string) {
	if s.archive == nil {
		return
	}

	rec := &archive.Record{
		MatchID:   result.MatchID,
		PUUID:     puuid,
		Champion:  champion,
		Summary:   analysis.Summarize(result.FinalReview),
		AudioPath: audioURL,
	}
	matchLogRaw, _, err := s.store.LoadMatch(champion, gameID)
	if err == nil {
		var matchLog struct {
			Info struct {
				Participants []struct {
					PUUID   string `json:"puuid"`
					Kills   int    `json:"kills"`
					Deaths  int    `json:"deaths"`
					Assists int    `json:"assists"`
					Win     bool   `json:"win"`
				} `json:"participants"`
			} `json:"info"`
		}
		if json.Unmarshal(matchLogRaw, &matchLog) == nil {
			for _, p := range matchLog.Info.Participants {
				if p.PUUID == puuid {
					rec.Win = p.Win
					rec.KDA = fmt.Sprintf("%d/%d/%d", p.Kills, p.Deaths, p.Assists)
					break
				}
			}
		}
	}

	if err := s.archive.Insert(r.Context(), rec); err != nil {
		fmt.Printf("[Server] Failed to archive %s: %v\n", result.MatchID, err)
	}
}

func (s *server) handleAudio(w http.ResponseWriter, r *http.Request) {
	// /api/audio/{champion}/{filename}
	rest := strings.TrimPrefix(r.URL.Path, "/api/audio/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, http.StatusBadRequest, "expected /api/audio/{champion}/{filename}")
		return
	}
	champion, filename := parts[0], path.Base(parts[1])

	audioPath, err := s.store.AudioPath(champion, filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	if _, err := os.Stat(audioPath); err != nil {
		writeError(w, http.StatusNotFound, "Audio file not found: %s", filename)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, audioPath)
}

func (s *server) handleVoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"voices": tts.VoiceNames()})
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "review history is not configured")
		return
	}
	records, err := s.archive.Recent(r.Context(), historyLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	if records == nil {
		records = []archive.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": records})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "match-coach API is running",
	})
}
