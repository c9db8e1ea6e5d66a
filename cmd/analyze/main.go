// Command analyze runs the full review pipeline from the terminal: fetch a
// player's games on a champion (unless match IDs are given), run the staged
// analysis, and write the review text and audio next to the match files.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"match-coach/internal/analysis"
	"match-coach/internal/config"
	"match-coach/internal/fetch"
	"match-coach/internal/riot"
	"match-coach/internal/store"
	"match-coach/internal/tts"
)

func main() {
	champion := flag.String("champion", "", "Champion name (e.g. 'Lee Sin')")
	riotID := flag.String("riot-id", "", "Riot ID of the player (e.g. 'Player#EUW')")
	puuid := flag.String("puuid", "", "PUUID (skips fetching; requires match IDs as arguments)")
	games := flag.Int("games", 1, "Number of recent champion games to analyze")
	voice := flag.String("voice", tts.DefaultVoice, "TTS voice name")
	noFetch := flag.Bool("no-fetch", false, "Analyze already-saved matches only")
	flag.Parse()
	matchIDs := flag.Args()

	if *champion == "" || (*riotID == "" && *puuid == "") {
		fmt.Println("Usage:")
		fmt.Println("  analyze --champion='Lee Sin' --riot-id='Player#EUW' [--games=1] [--voice=george]")
		fmt.Println("  analyze --champion='Lee Sin' --puuid=PUUID MATCH_ID [MATCH_ID...]")
		return
	}

	cfg := config.Load()
	ctx := context.Background()

	st, err := store.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open data store: %v", err)
	}
	client, err := analysis.NewClient(cfg.AnthropicAPIKey, cfg.Model)
	if err != nil {
		log.Fatalf("Failed to create Anthropic client: %v", err)
	}
	analyzer := analysis.NewAnalyzer(client)

	var speech *tts.Client
	if cfg.ElevenLabsAPIKey != "" {
		if speech, err = tts.NewClient(cfg.ElevenLabsAPIKey); err != nil {
			log.Fatalf("Failed to create TTS client: %v", err)
		}
	} else {
		log.Println("ELEVENLABS_API_KEY not set, writing text reviews only")
	}

	playerPUUID := *puuid
	if *riotID != "" && !*noFetch {
		gameName, tagLine, ok := strings.Cut(*riotID, "#")
		if !ok {
			log.Fatalf("Invalid Riot ID %q, expected 'name#tag'", *riotID)
		}
		riotClient, err := riot.NewClient(cfg.RiotAPIKey, cfg.Region, cfg.Platform)
		if err != nil {
			log.Fatalf("Failed to create Riot client: %v", err)
		}
		found, err := fetch.NewFinder(riotClient, st).FindChampionGames(
			ctx, gameName, tagLine, *champion, *games, 20)
		if err != nil {
			log.Fatalf("Fetch failed: %v", err)
		}
		if len(found) == 0 {
			log.Fatalf("No %s games found in the latest 20 matches", *champion)
		}
		playerPUUID = found[0].PUUID
		matchIDs = nil
		for _, g := range found {
			matchIDs = append(matchIDs, g.MatchID)
		}
	}

	if playerPUUID == "" || len(matchIDs) == 0 {
		log.Fatal("Nothing to analyze: need a PUUID and at least one match ID")
	}

	var results []*analysis.Result
	for _, matchID := range matchIDs {
		if !st.HasMatch(*champion, matchID) {
			log.Fatalf("Match %s not found for %s - run fetch first", matchID, *champion)
		}

		matchLogRaw, tl, err := st.LoadMatch(*champion, matchID)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", matchID, err)
		}
		var matchLog map[string]any
		if err := json.Unmarshal(matchLogRaw, &matchLog); err != nil {
			log.Fatalf("Failed to decode match log for %s: %v", matchID, err)
		}

		result, err := analyzer.AnalyzeMatch(ctx, matchID, matchLog, tl, playerPUUID)
		if err != nil {
			log.Fatalf("Analysis of %s failed: %v", matchID, err)
		}
		results = append(results, result)

		writeReview(st, *champion, matchID+"_review.txt", result.FinalReview)
		if speech != nil {
			audioPath, err := st.AudioPath(*champion, matchID+"_analysis.mp3")
			if err == nil {
				if err := speech.Synthesize(ctx, result.FinalReview, *voice, audioPath); err != nil {
					log.Printf("Audio generation for %s failed: %v", matchID, err)
				}
			}
		}

		fmt.Printf("\n%s\n%s\n", strings.Repeat("=", 70), result.FinalReview)
	}

	if len(results) >= 2 {
		global, err := analyzer.GlobalAnalysis(ctx, results)
		if err != nil {
			log.Fatalf("Global analysis failed: %v", err)
		}
		writeReview(st, *champion, "global_review.txt", global)
		if speech != nil {
			audioPath, err := st.AudioPath(*champion, store.FolderName(*champion)+"_global_analysis.mp3")
			if err == nil {
				if err := speech.Synthesize(ctx, global, *voice, audioPath); err != nil {
					log.Printf("Global audio generation failed: %v", err)
				}
			}
		}
		fmt.Printf("\n%s\nGLOBAL ANALYSIS\n%s\n%s\n",
			strings.Repeat("=", 70), strings.Repeat("=", 70), global)
	}
}

func writeReview(st *store.Store, champion, filename, text string) {
	dir, err := st.ChampionDir(champion)
	if err != nil {
		log.Printf("Failed to resolve champion folder: %v", err)
		return
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		log.Printf("Failed to write %s: %v", path, err)
		return
	}
	fmt.Printf("Review saved to %s\n", path)
}
