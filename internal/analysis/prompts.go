package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Stage prompts. Each stage sees only what it needs: the context stage gets
// the match log, each phase stage gets its slice of the timeline plus the
// context summary, and the synthesis stage gets text only.

const matchLogPrompt = `You are an expert League of Legends analyst. Analyze the MATCH LOG data to understand the overall game and the target player's performance. Your output feeds a detailed timeline review, so be analytical and factual rather than conversational.

Cover, focused on the TARGET PLAYER:
1. GAME CONTEXT - champion, role, lane matchup, side played (Red/Blue), result and duration, both team compositions, queue type.
2. PERFORMANCE METRICS - final KDA and kill participation, CS/min, gold, damage dealt and taken, vision score, objectives, and a performance grade (S-F) with reasoning.
3. BUILD AND RUNES - rune choices and item path versus the matchup; note good or questionable decisions.
4. COMPARISON - versus the lane opponent and the same role on the enemy team; standout stats and glaring weaknesses.
5. DEATHS - how many, when, good fights or solo misplays.
6. TEAM CONTRIBUTION - damage and gold share, objective participation.
7. KEY CONTEXT FOR TIMELINE REVIEW - the moments, time windows, and questions the detailed review should investigate.

FORMAT YOUR RESPONSE AS A STRUCTURED SUMMARY with clear sections and bullet points. Save the coaching tone for the final output.`

var phasePrompts = map[string]string{
	"early": `You are an expert League of Legends coach analyzing the EARLY GAME phase (0-15 minutes). You will receive the match context and the early game timeline slice. Champion names are directly in the data (championName, killerChampionName, victimChampionName fields).

Focus ONLY on the early game; separate mid and late game analyses are produced independently and combined later.

Analyze the laning phase with specific timestamps: the lane matchup and initial strategy, CS patterns and item timings, first blood and early kills or deaths, trading and wave management, jungle interactions, vision, level leads, roams, and tower plates. Also look for execution details the stats don't show: skill shot accuracy, combo execution, resource management, trading stance, and positioning micro-mistakes.

Reference specific timestamps (e.g. "at 8:30"), be detailed and analytical, keep it conversational and direct, and stay inside 0-15 minutes.

Provide your early game analysis:`,

	"mid": `You are an expert League of Legends coach analyzing the MID GAME phase (15-30 minutes). You will receive the match context and the mid game timeline slice. Champion names are directly in the data (championName, killerChampionName, victimChampionName fields).

Focus ONLY on the mid game; separate early and late game analyses are produced independently and combined later.

Analyze teamfighting and objective play with specific timestamps: the transition out of laning, major teamfights (positioning, target selection, execution), objective contests (dragons, herald, towers, baron setup), rotations, item power spikes, deaths and their impact, vision control, and team coordination. Also look for execution details in fights: ability usage and timing, positioning errors, missed skill shots, cooldown and summoner spell management, overextension or hesitation.

Reference specific timestamps, analyze decision-making AND execution, keep it conversational and direct, and stay inside 15-30 minutes.

Provide your mid game analysis:`,

	"late": `You are an expert League of Legends coach analyzing the LATE GAME phase (30+ minutes). You will receive the match context and the late game timeline slice. Champion names are directly in the data (championName, killerChampionName, victimChampionName fields).

Focus ONLY on the late game; separate early and mid game analyses are produced independently and combined later.

Analyze the high-stakes moments with specific timestamps: final teamfights and their outcomes, Baron and Elder fights, death timers, game-ending plays or mistakes, risk management, late game itemization, and how the game was won or lost. Also look for execution under pressure: clutch ability or summoner spell usage, positioning in deciding fights, target selection, item actives, and failures to execute the win condition.

Reference specific timestamps, emphasize decision-making AND execution under pressure, keep it conversational and direct, and stay inside 30+ minutes.

Provide your late game analysis:`,
}

const synthesisPrompt = `You are an expert League of Legends coach synthesizing a complete VOD review from a match context summary and independent early, mid, and late game analyses.

Create one natural, flowing spoken review: a short introduction with the game overview and an overall grade; the early, mid, and late game as connected narratives that keep the specific timestamps and turning points; 2-3 key strengths; 3-4 areas for improvement with examples; and 3-5 concrete, prioritized practice recommendations.

Write for SPOKEN delivery - natural, conversational, about 5-6 minutes when spoken. Use "you" and "your" to speak directly to the player, flow between sections without announcing them, and keep the tone constructive and motivating, like watching the VOD together.

START YOUR COACHING REVIEW NOW:`

const globalPrompt = `You are an expert League of Legends coach analyzing multiple games to identify patterns. You will receive coaching reviews for several games.

Provide:
**What you're good at:** 4 bullet points - specific strengths that appear consistently, referencing which games show them.
**What can be improved:** 4 bullet points - specific recurring weaknesses, their impact, and which games show them.

Write for SPOKEN delivery - natural, conversational, 1-2 minutes when spoken. Be direct and actionable.

Provide your multi-game analysis:`

// RoundNumbers recursively rounds every float in a JSON tree to the given
// number of decimals. Long fractions in the Riot data waste prompt tokens.
func RoundNumbers(v any, decimals int) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = RoundNumbers(child, decimals)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = RoundNumbers(child, decimals)
		}
		return out
	case float64:
		scale := math.Pow(10, float64(decimals))
		return math.Round(val*scale) / scale
	default:
		return v
	}
}

// EstimateTokens is a rough prompt-size estimate (~4 characters per token).
func EstimateTokens(s string) int {
	return len(s) / 4
}

// MatchLogPrompt builds the stage 1 prompt from the full match log.
func MatchLogPrompt(matchLog map[string]any, puuid string) (string, error) {
	target := findParticipant(matchLog, puuid)
	if target == nil {
		return "", fmt.Errorf("analysis: player not found in match data")
	}

	champion, _ := target["championName"].(string)
	gameName, _ := target["riotIdGameName"].(string)
	tagLine, _ := target["riotIdTagline"].(string)

	side := "Unknown"
	teamID := 0
	if id, ok := target["teamId"].(float64); ok {
		teamID = int(id)
		switch teamID {
		case 100:
			side = "Blue Side"
		case 200:
			side = "Red Side"
		}
	}

	logJSON, err := json.MarshalIndent(RoundNumbers(matchLog, 3), "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`%s

TARGET PLAYER INFORMATION:
- Summoner: %s#%s
- Champion: %s
- Side: %s (Team %d)
- PUUID: %s

MATCH LOG DATA:
`+"```json\n%s\n```"+`

Provide your structured analysis now:`,
		matchLogPrompt, gameName, tagLine, champion, side, teamID, puuid, logJSON), nil
}

// PhasePrompt builds the stage 2 prompt for one phase.
func PhasePrompt(phaseName string, phaseTimeline map[string]any, matchContext, puuid, champion string) (string, error) {
	base, ok := phasePrompts[phaseName]
	if !ok {
		return "", fmt.Errorf("analysis: unknown phase %q", phaseName)
	}

	tlJSON, err := json.MarshalIndent(RoundNumbers(phaseTimeline, 3), "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`%s

TARGET PLAYER:
- Champion: %s
- PUUID: %s

MATCH CONTEXT (from statistical analysis):
%s

%s GAME TIMELINE DATA:
`+"```json\n%s\n```"+`

Begin your %s game analysis:`,
		base, champion, puuid, matchContext, strings.ToUpper(phaseName), tlJSON, phaseName), nil
}

// SynthesisPrompt builds the final stage prompt from the phase analyses.
func SynthesisPrompt(matchContext string, phaseAnalyses map[string]string, champion string) string {
	section := func(name, fallback string) string {
		if text := phaseAnalyses[name]; text != "" {
			return text
		}
		return fallback
	}

	return fmt.Sprintf(`%s

TARGET CHAMPION: %s

MATCH CONTEXT (from statistical analysis):
%s

EARLY GAME ANALYSIS (0-15 minutes):
%s

MID GAME ANALYSIS (15-30 minutes):
%s

LATE GAME ANALYSIS (30+ minutes):
%s

Now synthesize this into a cohesive, engaging coaching review:`,
		synthesisPrompt, champion, matchContext,
		section("early", "No early game data"),
		section("mid", "No mid game data"),
		section("late", "No late game data"))
}

// GlobalPrompt builds the multi-game prompt from per-match reviews and
// context summaries, in stable match-ID order.
func GlobalPrompt(reviews, contexts map[string]string) string {
	matchIDs := make([]string, 0, len(reviews))
	for id := range reviews {
		matchIDs = append(matchIDs, id)
	}
	sort.Strings(matchIDs)

	var games strings.Builder
	for i, matchID := range matchIDs {
		if ctx := strings.TrimSpace(contexts[matchID]); ctx != "" {
			fmt.Fprintf(&games, "\nGAME %d (%s):\n%s\n\nREVIEW:\n%s\n\n", i+1, matchID, ctx, reviews[matchID])
		} else {
			fmt.Fprintf(&games, "\nGAME %d (%s):\n%s\n\n", i+1, matchID, reviews[matchID])
		}
	}

	return fmt.Sprintf(`%s

You have %d game(s) to analyze:

%s
Provide your multi-game analysis:`, globalPrompt, len(reviews), games.String())
}

// Summarize produces the short archive summary of a review: the first
// sentence, capped at 200 characters.
func Summarize(review string) string {
	s := strings.TrimSpace(review)
	if i := strings.IndexAny(s, ".!?"); i >= 0 {
		s = s[:i+1]
	}
	if len(s) > 200 {
		s = s[:197] + "..."
	}
	return s
}

func findParticipant(matchLog map[string]any, puuid string) map[string]any {
	info, _ := matchLog["info"].(map[string]any)
	if info == nil {
		return nil
	}
	participants, _ := info["participants"].([]any)
	for _, p := range participants {
		participant, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if participant["puuid"] == puuid {
			return participant
		}
	}
	return nil
}
