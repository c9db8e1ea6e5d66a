package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"match-coach/internal/riot"
	"match-coach/internal/store"
)

// fakeClient serves canned matches and counts calls.
type fakeClient struct {
	account    *riot.Account
	matchIDs   []string
	matches    map[string]*riot.Match
	timelines  map[string]map[string]any
	matchCalls int
}

func (f *fakeClient) GetAccountByRiotID(_ context.Context, gameName, tagLine string) (*riot.Account, error) {
	if f.account == nil {
		return nil, riot.ErrNotFound
	}
	return f.account, nil
}

func (f *fakeClient) GetMatchIDs(_ context.Context, puuid string, count int) ([]string, error) {
	if count < len(f.matchIDs) {
		return f.matchIDs[:count], nil
	}
	return f.matchIDs, nil
}

func (f *fakeClient) GetMatch(_ context.Context, matchID string) (*riot.Match, error) {
	f.matchCalls++
	m, ok := f.matches[matchID]
	if !ok {
		return nil, riot.ErrNotFound
	}
	return m, nil
}

func (f *fakeClient) GetTimeline(_ context.Context, matchID string) (map[string]any, error) {
	tl, ok := f.timelines[matchID]
	if !ok {
		return nil, riot.ErrNotFound
	}
	return tl, nil
}

func fakeMatch(matchID, puuid, champion string) *riot.Match {
	m := &riot.Match{
		Metadata: riot.MatchMetadata{MatchID: matchID, Participants: []string{puuid}},
		Info: riot.MatchInfo{
			GameDuration: 1800,
			Participants: []riot.Participant{
				{ParticipantID: 1, PUUID: puuid, ChampionName: champion, TeamID: 100, Kills: 4, Deaths: 1, Assists: 7, Win: true},
			},
		},
	}
	raw, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	m.Raw = raw
	return m
}

func emptyTimeline() map[string]any {
	return map[string]any{
		"info": map[string]any{"frames": []any{}},
	}
}

func newTestFinder(t *testing.T, client *fakeClient) *Finder {
	t.Helper()
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return NewFinder(client, st)
}

func TestFindChampionGames(t *testing.T) {
	client := &fakeClient{
		account:  &riot.Account{PUUID: "p1", GameName: "Player", TagLine: "EUW"},
		matchIDs: []string{"EUW1_1", "EUW1_2", "EUW1_3"},
		matches: map[string]*riot.Match{
			"EUW1_1": fakeMatch("EUW1_1", "p1", "Lillia"),
			"EUW1_2": fakeMatch("EUW1_2", "p1", "Ahri"),
			"EUW1_3": fakeMatch("EUW1_3", "p1", "Lillia"),
		},
		timelines: map[string]map[string]any{
			"EUW1_1": emptyTimeline(),
			"EUW1_3": emptyTimeline(),
		},
	}
	f := newTestFinder(t, client)

	found, err := f.FindChampionGames(context.Background(), "Player", "EUW", "Lillia", 5, 20)
	if err != nil {
		t.Fatalf("FindChampionGames: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("found %d games, want 2", len(found))
	}
	if found[0].MatchID != "EUW1_1" || found[1].MatchID != "EUW1_3" {
		t.Errorf("found = %v", found)
	}
	if !f.store.HasMatch("Lillia", "EUW1_1") || !f.store.HasMatch("Lillia", "EUW1_3") {
		t.Error("saved games should be on disk")
	}
	if f.store.HasMatch("Ahri", "EUW1_2") {
		t.Error("off-champion game should not be saved")
	}
}

func TestFindStopsAtWanted(t *testing.T) {
	client := &fakeClient{
		account:  &riot.Account{PUUID: "p1"},
		matchIDs: []string{"EUW1_1", "EUW1_2"},
		matches: map[string]*riot.Match{
			"EUW1_1": fakeMatch("EUW1_1", "p1", "Lillia"),
			"EUW1_2": fakeMatch("EUW1_2", "p1", "Lillia"),
		},
		timelines: map[string]map[string]any{
			"EUW1_1": emptyTimeline(),
			"EUW1_2": emptyTimeline(),
		},
	}
	f := newTestFinder(t, client)

	found, err := f.FindChampionGames(context.Background(), "Player", "EUW", "Lillia", 1, 20)
	if err != nil {
		t.Fatalf("FindChampionGames: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("found %d games, want 1", len(found))
	}
	if client.matchCalls != 1 {
		t.Errorf("fetched %d matches, want 1", client.matchCalls)
	}
}

func TestFindUsesCachedGames(t *testing.T) {
	client := &fakeClient{
		account:  &riot.Account{PUUID: "p1"},
		matchIDs: []string{"EUW1_1"},
		matches: map[string]*riot.Match{
			"EUW1_1": fakeMatch("EUW1_1", "p1", "Lillia"),
		},
		timelines: map[string]map[string]any{"EUW1_1": emptyTimeline()},
	}
	f := newTestFinder(t, client)

	if _, err := f.FindChampionGames(context.Background(), "Player", "EUW", "Lillia", 1, 20); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	found, err := f.FindChampionGames(context.Background(), "Player", "EUW", "Lillia", 1, 20)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if len(found) != 1 || !found[0].Cached {
		t.Errorf("second pass should serve from disk, got %+v", found)
	}
	if client.matchCalls != 1 {
		t.Errorf("match endpoint called %d times, want 1", client.matchCalls)
	}
}

func TestFindSkipsRejectedMatchesOnRepeat(t *testing.T) {
	client := &fakeClient{
		account:   &riot.Account{PUUID: "p1"},
		matchIDs:  []string{"EUW1_1"},
		matches:   map[string]*riot.Match{"EUW1_1": fakeMatch("EUW1_1", "p1", "Ahri")},
		timelines: map[string]map[string]any{},
	}
	f := newTestFinder(t, client)

	for i := 0; i < 2; i++ {
		found, err := f.FindChampionGames(context.Background(), "Player", "EUW", "Lillia", 1, 20)
		if err != nil {
			t.Fatalf("pass %d: %v", i+1, err)
		}
		if len(found) != 0 {
			t.Fatalf("pass %d found %d games, want 0", i+1, len(found))
		}
	}
	if client.matchCalls != 1 {
		t.Errorf("rejected match refetched: %d calls, want 1", client.matchCalls)
	}
}

func TestFindUnknownPlayer(t *testing.T) {
	f := newTestFinder(t, &fakeClient{})
	_, err := f.FindChampionGames(context.Background(), "NoSuch", "EUW", "Lillia", 1, 20)
	if err == nil {
		t.Fatal("expected error for unknown player")
	}
	want := fmt.Sprintf("player %s#%s not found", "NoSuch", "EUW")
	if err.Error() != want {
		t.Errorf("err = %q, want %q", err, want)
	}
}
