package analysis

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"match-coach/internal/timeline"
)

// completer is the one call the pipeline needs from the API client.
type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Analyzer runs the staged review pipeline for saved matches.
type Analyzer struct {
	client completer
	cfg    timeline.EncodeConfig
}

// Result holds the output of every stage for one match.
type Result struct {
	MatchID       string            `json:"matchId"`
	MatchContext  string            `json:"matchContext"`
	PhaseAnalyses map[string]string `json:"phaseAnalyses"`
	FinalReview   string            `json:"finalReview"`
}

// NewAnalyzer creates an analyzer over the given completion client.
func NewAnalyzer(client completer) *Analyzer {
	return &Analyzer{
		client: client,
		cfg:    timeline.DefaultEncodeConfig(),
	}
}

// AnalyzeMatch runs the full pipeline for one match:
//
//  1. Match context from the match log.
//  2. Champion mapping, phase split, and delta encoding of the timeline,
//     then one analysis per present phase, in parallel.
//  3. Synthesis of the phase analyses into the spoken review.
func (a *Analyzer) AnalyzeMatch(ctx context.Context, matchID string, matchLog, tl map[string]any, puuid string) (*Result, error) {
	target := findParticipant(matchLog, puuid)
	if target == nil {
		return nil, fmt.Errorf("analysis: player not found in match %s", matchID)
	}
	champion, _ := target["championName"].(string)

	fmt.Printf("[Analysis] %s: stage 1, match context (%s)\n", matchID, champion)
	contextPrompt, err := MatchLogPrompt(matchLog, puuid)
	if err != nil {
		return nil, err
	}
	fmt.Printf("[Analysis] %s: context prompt ~%d tokens\n", matchID, EstimateTokens(contextPrompt))
	matchContext, err := a.client.Complete(ctx, contextPrompt)
	if err != nil {
		return nil, fmt.Errorf("match context stage failed: %w", err)
	}

	timeline.MapChampions(tl, matchLog)
	phases, err := timeline.SplitPhases(tl, timeline.GamePhases)
	if err != nil {
		return nil, fmt.Errorf("failed to split timeline: %w", err)
	}

	fmt.Printf("[Analysis] %s: stage 2, %d phase(s) in parallel\n", matchID, len(phases))
	var mu sync.Mutex
	analyses := make(map[string]string, len(phases))
	g, gctx := errgroup.WithContext(ctx)
	for _, phase := range timeline.GamePhases {
		phaseTL, ok := phases[phase.Name]
		if !ok {
			fmt.Printf("[Analysis] %s: no %s phase (game ended early)\n", matchID, phase.Name)
			continue
		}
		g.Go(func() error {
			// Delta-encode each phase independently so every slice
			// carries its own baselines.
			encoded, err := timeline.Encode(phaseTL, a.cfg)
			if err != nil {
				return fmt.Errorf("%s phase encoding failed: %w", phase.Name, err)
			}
			prompt, err := PhasePrompt(phase.Name, encoded, matchContext, puuid, champion)
			if err != nil {
				return err
			}
			fmt.Printf("[Analysis] %s: %s prompt ~%d tokens\n", matchID, phase.Name, EstimateTokens(prompt))
			text, err := a.client.Complete(gctx, prompt)
			if err != nil {
				return fmt.Errorf("%s phase analysis failed: %w", phase.Name, err)
			}
			mu.Lock()
			analyses[phase.Name] = text
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fmt.Printf("[Analysis] %s: final stage, synthesis\n", matchID)
	review, err := a.client.Complete(ctx, SynthesisPrompt(matchContext, analyses, champion))
	if err != nil {
		return nil, fmt.Errorf("synthesis stage failed: %w", err)
	}

	return &Result{
		MatchID:       matchID,
		MatchContext:  matchContext,
		PhaseAnalyses: analyses,
		FinalReview:   review,
	}, nil
}

// GlobalAnalysis synthesizes patterns across multiple analyzed games.
// Returns "" without calling the API when fewer than two results are given.
func (a *Analyzer) GlobalAnalysis(ctx context.Context, results []*Result) (string, error) {
	if len(results) < 2 {
		fmt.Println("[Analysis] Only 1 game analyzed, skipping global analysis")
		return "", nil
	}

	reviews := make(map[string]string, len(results))
	contexts := make(map[string]string, len(results))
	for _, r := range results {
		reviews[r.MatchID] = r.FinalReview
		contexts[r.MatchID] = r.MatchContext
	}

	fmt.Printf("[Analysis] Global analysis across %d games\n", len(results))
	text, err := a.client.Complete(ctx, GlobalPrompt(reviews, contexts))
	if err != nil {
		return "", fmt.Errorf("global analysis failed: %w", err)
	}
	return text, nil
}
