package riot

import (
	"encoding/json"
	"strings"
)

// Account represents the response from /riot/account/v1/accounts/by-riot-id
type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// Match is a typed view over /lol/match/v5/matches/{matchId}. Raw keeps the
// complete response body: the typed fields cover what the backend reads
// directly, Raw is what gets archived and fed to the prompt builders.
type Match struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`

	Raw json.RawMessage `json:"-"`
}

type MatchMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"` // PUUIDs
}

type MatchInfo struct {
	GameCreation int64         `json:"gameCreation"` // unix ms
	GameDuration int           `json:"gameDuration"` // seconds
	GameMode     string        `json:"gameMode"`
	GameVersion  string        `json:"gameVersion"`
	QueueID      int           `json:"queueId"`
	Participants []Participant `json:"participants"`
}

type Participant struct {
	ParticipantID int    `json:"participantId"`
	PUUID         string `json:"puuid"`
	ChampionName  string `json:"championName"`
	TeamID        int    `json:"teamId"` // 100 = blue, 200 = red
	TeamPosition  string `json:"teamPosition"`
	Kills         int    `json:"kills"`
	Deaths        int    `json:"deaths"`
	Assists       int    `json:"assists"`
	Win           bool   `json:"win"`
}

// PlayerStats returns the participant entry for the given player, or nil.
func (m *Match) PlayerStats(puuid string) *Participant {
	for i := range m.Info.Participants {
		if m.Info.Participants[i].PUUID == puuid {
			return &m.Info.Participants[i]
		}
	}
	return nil
}

// RawDocument decodes the retained raw body into the generic JSON tree the
// timeline package and prompt builders work with.
func (m *Match) RawDocument() (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(m.Raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// NormalizeChampion canonicalizes a champion name for comparisons and
// folder names: lowercase, spaces and apostrophes removed ("Lee Sin" and
// "leesin" match).
func NormalizeChampion(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "")
	name = strings.ReplaceAll(name, "'", "")
	return name
}
