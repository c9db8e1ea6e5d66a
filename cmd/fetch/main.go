// Command fetch downloads a player's recent champion games into the data
// directory without running any analysis.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"match-coach/internal/config"
	"match-coach/internal/fetch"
	"match-coach/internal/riot"
	"match-coach/internal/store"
)

func main() {
	riotID := flag.String("riot-id", "", "Riot ID of the player (e.g. 'Player#EUW')")
	champion := flag.String("champion", "", "Champion name (e.g. 'Lee Sin')")
	games := flag.Int("games", 5, "Number of champion games to save")
	search := flag.Int("search", 20, "How many recent matches to scan")
	flag.Parse()

	if *riotID == "" || *champion == "" {
		fmt.Println("Usage:")
		fmt.Println("  fetch --riot-id='Player#EUW' --champion='Lee Sin' [--games=5] [--search=20]")
		return
	}

	gameName, tagLine, ok := strings.Cut(*riotID, "#")
	if !ok {
		log.Fatalf("Invalid Riot ID %q, expected 'name#tag'", *riotID)
	}

	cfg := config.Load()
	ctx := context.Background()

	client, err := riot.NewClient(cfg.RiotAPIKey, cfg.Region, cfg.Platform)
	if err != nil {
		log.Fatalf("Failed to create Riot client: %v", err)
	}
	st, err := store.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to create data store: %v", err)
	}

	found, err := fetch.NewFinder(client, st).FindChampionGames(
		ctx, gameName, tagLine, *champion, *games, *search)
	if err != nil {
		log.Fatalf("Fetch failed: %v", err)
	}
	if len(found) == 0 {
		fmt.Printf("No %s games found in the latest %d matches\n", *champion, *search)
		return
	}

	fmt.Printf("\nSaved %d game(s) under %s/%s:\n", len(found), cfg.DataDir, store.FolderName(*champion))
	for _, g := range found {
		result := "Defeat"
		if g.Stats.Win {
			result = "Victory"
		}
		fmt.Printf("  %s  %s  %d/%d/%d\n",
			g.MatchID, result, g.Stats.Kills, g.Stats.Deaths, g.Stats.Assists)
	}
}
