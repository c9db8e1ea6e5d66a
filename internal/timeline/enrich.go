package timeline

import "fmt"

// Map-side detection. Summoner's Rift runs diagonally: blue base is
// bottom-left, red base top-right, center near (7000, 7000).
const sideThreshold = 14000

// FormatTimestamp renders a millisecond game timestamp as "M:SS:mmm".
// Minutes keep growing past 60 (e.g. "61:15:200").
func FormatTimestamp(ms int64) string {
	totalSeconds := ms / 1000
	milliseconds := ms % 1000
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%d:%02d:%03d", minutes, seconds, milliseconds)
}

// SideFromPosition reports which starting side a map position lies on.
// Returns false when the position lacks coordinates.
func SideFromPosition(position map[string]any) (string, bool) {
	x, okX := numericValue(position["x"])
	y, okY := numericValue(position["y"])
	if !okX || !okY {
		return "", false
	}
	if x+y < sideThreshold {
		return "Blue", true
	}
	return "Red", true
}

// Enrich adds formattedTimestamp to events and isOnSide to events and
// participant frames, in place. Documents with unexpected shapes are left
// untouched; enrichment is additive and best-effort.
func Enrich(doc map[string]any) {
	for _, f := range framesOrNil(doc) {
		fm, ok := f.(map[string]any)
		if !ok {
			continue
		}

		if events, ok := fm["events"].([]any); ok {
			for _, e := range events {
				em, ok := e.(map[string]any)
				if !ok {
					continue
				}
				if ts, ok := numericValue(em["timestamp"]); ok {
					em["formattedTimestamp"] = FormatTimestamp(int64(ts))
				}
				if pos, ok := em["position"].(map[string]any); ok {
					if side, ok := SideFromPosition(pos); ok {
						em["isOnSide"] = side
					}
				}
			}
		}

		if pfs, ok := fm["participantFrames"].(map[string]any); ok {
			for _, pv := range pfs {
				pm, ok := pv.(map[string]any)
				if !ok {
					continue
				}
				if pos, ok := pm["position"].(map[string]any); ok {
					if side, ok := SideFromPosition(pos); ok {
						pm["isOnSide"] = side
					}
				}
			}
		}
	}
}

// NeedsEnrichment samples the first few frames to decide whether Enrich has
// already run, so saved timelines are not rewritten on every load.
func NeedsEnrichment(doc map[string]any) bool {
	frames := framesOrNil(doc)
	if len(frames) > 5 {
		frames = frames[:5]
	}

	for _, f := range frames {
		fm, ok := f.(map[string]any)
		if !ok {
			continue
		}

		events, _ := fm["events"].([]any)
		if len(events) > 3 {
			events = events[:3]
		}
		for _, e := range events {
			em, ok := e.(map[string]any)
			if !ok {
				continue
			}
			if _, has := em["timestamp"]; has {
				if _, done := em["formattedTimestamp"]; !done {
					return true
				}
			}
			if _, has := em["position"]; has {
				if _, done := em["isOnSide"]; !done {
					return true
				}
			}
		}

		if pfs, ok := fm["participantFrames"].(map[string]any); ok {
			for _, pv := range pfs {
				pm, ok := pv.(map[string]any)
				if !ok {
					continue
				}
				if _, has := pm["position"]; has {
					if _, done := pm["isOnSide"]; !done {
						return true
					}
				}
			}
		}
	}
	return false
}

// framesOrNil is the tolerant counterpart of docFrames for enrichment
// passes, where a missing section just means nothing to do.
func framesOrNil(doc map[string]any) []any {
	info, ok := doc["info"].(map[string]any)
	if !ok {
		return nil
	}
	frames, _ := info["frames"].([]any)
	return frames
}
