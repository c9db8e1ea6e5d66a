// Package store persists fetched match data and generated audio on disk.
// Each champion gets a folder ("lee_sin/") holding one pair of files per
// match: {matchID}_log.json and {matchID}_timeline.json, plus the
// {matchID}_analysis.mp3 reviews generated later.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store writes and reads the per-champion match folders.
type Store struct {
	mu      sync.Mutex
	baseDir string
}

// New creates a store rooted at baseDir, creating it if needed.
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", baseDir, err)
	}
	return &Store{baseDir: baseDir}, nil
}

// FolderName converts a champion name to its folder form: lowercased,
// spaces underscored, apostrophes stripped ("Lee Sin" -> "lee_sin").
func FolderName(champion string) string {
	name := strings.ToLower(champion)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "'", "")
	return name
}

// ChampionDir returns the folder for a champion, creating it if needed.
func (s *Store) ChampionDir(champion string) (string, error) {
	dir := filepath.Join(s.baseDir, FolderName(champion))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create champion folder %s: %w", dir, err)
	}
	return dir, nil
}

// SaveMatch writes the match log (raw API body) and timeline document for a
// match into the champion folder.
func (s *Store) SaveMatch(champion, matchID string, matchLog json.RawMessage, timeline map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := s.ChampionDir(champion)
	if err != nil {
		return err
	}

	var logPretty bytes.Buffer
	if err := json.Indent(&logPretty, matchLog, "", "  "); err != nil {
		return fmt.Errorf("failed to format match log: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, matchID+"_log.json"), logPretty.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write match log: %w", err)
	}

	tlData, err := json.MarshalIndent(timeline, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal timeline: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, matchID+"_timeline.json"), tlData, 0644); err != nil {
		return fmt.Errorf("failed to write timeline: %w", err)
	}

	return nil
}

// SaveTimeline rewrites just the timeline file (after enrichment).
func (s *Store) SaveTimeline(champion, matchID string, timeline map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := s.ChampionDir(champion)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(timeline, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal timeline: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, matchID+"_timeline.json"), data, 0644)
}

// HasMatch reports whether both files for a match are already on disk.
func (s *Store) HasMatch(champion, matchID string) bool {
	dir := filepath.Join(s.baseDir, FolderName(champion))
	for _, suffix := range []string{"_log.json", "_timeline.json"} {
		if _, err := os.Stat(filepath.Join(dir, matchID+suffix)); err != nil {
			return false
		}
	}
	return true
}

// LoadMatch reads a saved match log and timeline document.
func (s *Store) LoadMatch(champion, matchID string) (json.RawMessage, map[string]any, error) {
	dir := filepath.Join(s.baseDir, FolderName(champion))

	matchLog, err := os.ReadFile(filepath.Join(dir, matchID+"_log.json"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read match log: %w", err)
	}

	tlData, err := os.ReadFile(filepath.Join(dir, matchID+"_timeline.json"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read timeline: %w", err)
	}
	var timeline map[string]any
	if err := json.Unmarshal(tlData, &timeline); err != nil {
		return nil, nil, fmt.Errorf("failed to decode timeline: %w", err)
	}

	return matchLog, timeline, nil
}

// AudioPath returns the path for an audio file inside a champion folder.
// The filename must be a bare .mp3 name; anything that could escape the
// folder is rejected.
func (s *Store) AudioPath(champion, filename string) (string, error) {
	if filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return "", fmt.Errorf("invalid audio filename %q", filename)
	}
	if !strings.HasSuffix(filename, ".mp3") {
		return "", fmt.Errorf("only MP3 files are supported")
	}
	return filepath.Join(s.baseDir, FolderName(champion), filename), nil
}
