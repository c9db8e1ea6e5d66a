// Package fetch finds and downloads a player's recent games on a given
// champion, saving each match log and timeline into the on-disk store.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bits-and-blooms/bloom/v3"

	"match-coach/internal/riot"
	"match-coach/internal/store"
	"match-coach/internal/timeline"
)

// matchClient is the slice of the Riot client the finder uses.
type matchClient interface {
	GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*riot.Account, error)
	GetMatchIDs(ctx context.Context, puuid string, count int) ([]string, error)
	GetMatch(ctx context.Context, matchID string) (*riot.Match, error)
	GetTimeline(ctx context.Context, matchID string) (map[string]any, error)
}

// Finder locates champion games in a player's match history.
type Finder struct {
	client matchClient
	store  *store.Store

	// seen skips match IDs already checked this process, so repeated
	// requests for the same player don't re-fetch rejected matches.
	seen *bloom.BloomFilter
}

// A FoundGame is one saved champion game.
type FoundGame struct {
	MatchID  string
	Champion string
	PUUID    string
	Stats    *riot.Participant
	Match    *riot.Match
	Cached   bool
}

// NewFinder creates a finder over the given client and store.
func NewFinder(client matchClient, st *store.Store) *Finder {
	return &Finder{
		client: client,
		store:  st,
		// ~10k match IDs at 1% false positives; a false positive only
		// causes one redundant skip check.
		seen: bloom.NewWithEstimates(10000, 0.01),
	}
}

// FindChampionGames scans the player's latest searchCount matches and saves
// up to wanted games played on the given champion. Games already on disk
// count toward wanted without refetching.
func (f *Finder) FindChampionGames(ctx context.Context, gameName, tagLine, champion string, wanted, searchCount int) ([]FoundGame, error) {
	account, err := f.client.GetAccountByRiotID(ctx, gameName, tagLine)
	if err != nil {
		if err == riot.ErrNotFound {
			return nil, fmt.Errorf("player %s#%s not found", gameName, tagLine)
		}
		return nil, fmt.Errorf("failed to resolve %s#%s: %w", gameName, tagLine, err)
	}
	fmt.Printf("[Fetch] Resolved %s#%s -> %s...\n", gameName, tagLine, shortPUUID(account.PUUID))

	matchIDs, err := f.client.GetMatchIDs(ctx, account.PUUID, searchCount)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch match history: %w", err)
	}

	wantChamp := riot.NormalizeChampion(champion)
	var found []FoundGame

	for _, matchID := range matchIDs {
		if len(found) >= wanted {
			break
		}
		if f.seen.TestString(matchID) && !f.store.HasMatch(champion, matchID) {
			continue
		}

		if f.store.HasMatch(champion, matchID) {
			game, err := f.loadCached(account.PUUID, champion, matchID)
			if err == nil {
				fmt.Printf("[Fetch] %s already saved, skipping download\n", matchID)
				found = append(found, *game)
				continue
			}
			// fall through and refetch if the cached files are unreadable
		}

		match, err := f.client.GetMatch(ctx, matchID)
		if err != nil {
			fmt.Printf("[Fetch] Failed to fetch %s: %v\n", matchID, err)
			f.seen.AddString(matchID)
			continue
		}

		stats := match.PlayerStats(account.PUUID)
		if stats == nil || riot.NormalizeChampion(stats.ChampionName) != wantChamp {
			f.seen.AddString(matchID)
			continue
		}

		tl, err := f.client.GetTimeline(ctx, matchID)
		if err != nil {
			fmt.Printf("[Fetch] Failed to fetch timeline for %s: %v\n", matchID, err)
			f.seen.AddString(matchID)
			continue
		}
		if timeline.NeedsEnrichment(tl) {
			timeline.Enrich(tl)
		}

		if err := f.store.SaveMatch(stats.ChampionName, matchID, match.Raw, tl); err != nil {
			return found, fmt.Errorf("failed to save %s: %w", matchID, err)
		}
		fmt.Printf("[Fetch] Saved %s (%s, %d/%d/%d)\n",
			matchID, stats.ChampionName, stats.Kills, stats.Deaths, stats.Assists)

		f.seen.AddString(matchID)
		found = append(found, FoundGame{
			MatchID:  matchID,
			Champion: stats.ChampionName,
			PUUID:    account.PUUID,
			Stats:    stats,
			Match:    match,
		})
	}

	return found, nil
}

// loadCached rebuilds a FoundGame from the files already on disk.
func (f *Finder) loadCached(puuid, champion, matchID string) (*FoundGame, error) {
	matchLog, _, err := f.store.LoadMatch(champion, matchID)
	if err != nil {
		return nil, err
	}
	var match riot.Match
	if err := json.Unmarshal(matchLog, &match); err != nil {
		return nil, err
	}
	match.Raw = matchLog

	stats := match.PlayerStats(puuid)
	if stats == nil {
		return nil, fmt.Errorf("player %s not in cached match %s", shortPUUID(puuid), matchID)
	}
	return &FoundGame{
		MatchID:  matchID,
		Champion: stats.ChampionName,
		PUUID:    puuid,
		Stats:    stats,
		Match:    &match,
		Cached:   true,
	}, nil
}

func shortPUUID(puuid string) string {
	if len(puuid) > 8 {
		return puuid[:8]
	}
	return puuid
}
