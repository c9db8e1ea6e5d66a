package timeline

import (
	"fmt"
	"strings"
)

// EncodeConfig enumerates which participant-frame fields are delta-encoded
// across consecutive frames. The list is explicit configuration rather than
// runtime introspection so the encoding policy is visible in one place.
type EncodeConfig struct {
	// TrackedFields are scalar numeric stats tracked per participant.
	TrackedFields map[string]bool

	// TrackedGroups are nested stat objects (championStats, damageStats)
	// whose numeric members are all tracked individually.
	TrackedGroups map[string]bool
}

// DefaultEncodeConfig returns the field policy for Riot match-v5 timelines.
func DefaultEncodeConfig() EncodeConfig {
	return EncodeConfig{
		TrackedFields: map[string]bool{
			"currentGold":              true,
			"totalGold":                true,
			"xp":                       true,
			"level":                    true,
			"minionsKilled":            true,
			"jungleMinionsKilled":      true,
			"goldPerSecond":            true,
			"timeEnemySpentControlled": true,
		},
		TrackedGroups: map[string]bool{
			"championStats": true,
			"damageStats":   true,
		},
	}
}

// participantState holds the last known value per tracked field path
// ("currentGold", "championStats.armor") for one participant.
type participantState map[string]any

// Encode returns a token-efficient copy of a match timeline document.
//
// Trackable numeric fields inside each frame's participantFrames blocks are
// delta-encoded per participant, in frame order:
//
//   - the first nonzero occurrence is kept as an absolute baseline;
//   - zero values before any baseline are omitted (the sparse rule);
//   - unchanged values are omitted;
//   - changed values become a two-element [previous, current] pair, kept
//     even when the new value is zero;
//   - a field absent from the input frame means "unchanged", never zero.
//
// A participant whose first frame is mid-timeline is seeded with a baseline
// at that frame. After delta encoding the whole document is sparsified.
//
// The input document is never modified. Shape errors (info or frames of the
// wrong kind) are returned to the caller; there is no partial output.
func Encode(doc map[string]any, cfg EncodeConfig) (map[string]any, error) {
	frames, err := docFrames(doc)
	if err != nil {
		return nil, err
	}

	states := make(map[string]participantState)

	outFrames := make([]any, 0, len(frames))
	for i, f := range frames {
		fm, ok := f.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("timeline: frame %d is %T, expected object", i, f)
		}

		nf := make(map[string]any, len(fm))
		for k, v := range fm {
			if k != "participantFrames" {
				nf[k] = v
				continue
			}
			pfs, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("timeline: frame %d participantFrames is %T, expected object", i, v)
			}
			npfs := make(map[string]any, len(pfs))
			for pkey, pv := range pfs {
				pm, ok := pv.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("timeline: frame %d participant %q is %T, expected object", i, pkey, pv)
				}
				st := states[pkey]
				if st == nil {
					st = make(participantState)
					states[pkey] = st
				}
				npfs[pkey] = encodeParticipant(pm, st, cfg)
			}
			nf[k] = npfs
		}
		outFrames = append(outFrames, nf)
	}

	return Sparsify(withFrames(doc, outFrames)).(map[string]any), nil
}

// encodeParticipant builds the delta-encoded view of one participant frame.
func encodeParticipant(pm map[string]any, st participantState, cfg EncodeConfig) map[string]any {
	out := make(map[string]any, len(pm))
	for k, v := range pm {
		switch {
		case cfg.TrackedFields[k]:
			if enc, keep := encodeField(st, k, v); keep {
				out[k] = enc
			}
		case cfg.TrackedGroups[k]:
			gm, ok := v.(map[string]any)
			if !ok {
				out[k] = v
				continue
			}
			ng := make(map[string]any, len(gm))
			for gk, gv := range gm {
				if enc, keep := encodeField(st, k+"."+gk, gv); keep {
					ng[gk] = enc
				}
			}
			if len(ng) > 0 {
				out[k] = ng
			}
		default:
			out[k] = v
		}
	}
	return out
}

// encodeField applies the delta rules to a single tracked value. The second
// return is false when the field should be omitted from the output frame.
func encodeField(st participantState, path string, v any) (any, bool) {
	f, numeric := numericValue(v)
	if !numeric {
		// Identifiers and other non-numeric values pass through unchanged.
		return v, true
	}

	prev, seen := st[path]
	if !seen {
		if f == 0 {
			return nil, false
		}
		st[path] = v
		return v, true
	}

	pf, _ := numericValue(prev)
	if pf == f {
		return nil, false
	}
	st[path] = v
	return []any{prev, v}, true
}

// Decode is the explicit inverse of Encode for trackable fields: omitted
// fields are filled with the last known value (zero before any baseline),
// absolute baselines reset it, and [previous, current] pairs advance it.
// Every tracked scalar is materialized in every participant frame; group
// members are materialized once they have appeared. Fields dropped by the
// sparse rule outside the tracked set are not restored.
func Decode(doc map[string]any, cfg EncodeConfig) (map[string]any, error) {
	frames, err := docFrames(doc)
	if err != nil {
		return nil, err
	}

	states := make(map[string]participantState)

	outFrames := make([]any, 0, len(frames))
	for i, f := range frames {
		fm, ok := f.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("timeline: frame %d is %T, expected object", i, f)
		}

		nf := make(map[string]any, len(fm))
		for k, v := range fm {
			if k != "participantFrames" {
				nf[k] = v
				continue
			}
			pfs, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("timeline: frame %d participantFrames is %T, expected object", i, v)
			}
			npfs := make(map[string]any, len(pfs))
			for pkey, pv := range pfs {
				pm, ok := pv.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("timeline: frame %d participant %q is %T, expected object", i, pkey, pv)
				}
				st := states[pkey]
				if st == nil {
					st = make(participantState)
					states[pkey] = st
				}
				npfs[pkey] = decodeParticipant(pm, st, cfg)
			}
			nf[k] = npfs
		}
		outFrames = append(outFrames, nf)
	}

	return withFrames(doc, outFrames), nil
}

// decodeParticipant reconstructs absolute values for one participant frame.
func decodeParticipant(pm map[string]any, st participantState, cfg EncodeConfig) map[string]any {
	out := make(map[string]any, len(pm))

	for k, v := range pm {
		switch {
		case cfg.TrackedFields[k]:
			out[k] = decodeField(st, k, v)
		case cfg.TrackedGroups[k]:
			gm, ok := v.(map[string]any)
			if !ok {
				out[k] = v
				continue
			}
			ng := make(map[string]any, len(gm))
			for gk, gv := range gm {
				ng[gk] = decodeField(st, k+"."+gk, gv)
			}
			out[k] = ng
		default:
			out[k] = v
		}
	}

	// Omitted tracked scalars are unchanged since the previous frame, or
	// zero if never seen.
	for k := range cfg.TrackedFields {
		if _, present := out[k]; present {
			continue
		}
		if prev, seen := st[k]; seen {
			out[k] = prev
		} else {
			out[k] = float64(0)
		}
	}

	// Fill in omitted members of tracked groups from their last known
	// values; groups with no history stay absent.
	for g := range cfg.TrackedGroups {
		prefix := g + "."
		var gm map[string]any
		if existing, ok := out[g].(map[string]any); ok {
			gm = existing
		}
		for path, prev := range st {
			if !strings.HasPrefix(path, prefix) {
				continue
			}
			member := path[len(prefix):]
			if gm == nil {
				gm = make(map[string]any)
			}
			if _, present := gm[member]; !present {
				gm[member] = prev
			}
		}
		if gm != nil {
			out[g] = gm
		}
	}

	return out
}

// decodeField resolves one tracked value: a two-element array is a
// [previous, current] pair, anything else is an absolute baseline.
func decodeField(st participantState, path string, v any) any {
	if pair, ok := v.([]any); ok && len(pair) == 2 {
		st[path] = pair[1]
		return pair[1]
	}
	if _, numeric := numericValue(v); numeric {
		st[path] = v
	}
	return v
}

// numericValue normalizes JSON numbers for comparison. encoding/json
// produces float64; int variants show up in hand-built documents.
func numericValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

// docFrames extracts info.frames, validating the document shape.
func docFrames(doc map[string]any) ([]any, error) {
	info, ok := doc["info"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("timeline: info is missing or not an object")
	}
	frames, ok := info["frames"].([]any)
	if !ok {
		return nil, fmt.Errorf("timeline: info.frames is missing or not an array")
	}
	return frames, nil
}

// withFrames returns a copy of doc with info.frames replaced. Only the
// containers on the path are copied; untouched values are shared.
func withFrames(doc map[string]any, frames []any) map[string]any {
	info := doc["info"].(map[string]any)
	newInfo := make(map[string]any, len(info))
	for k, v := range info {
		newInfo[k] = v
	}
	newInfo["frames"] = frames

	newDoc := make(map[string]any, len(doc))
	for k, v := range doc {
		newDoc[k] = v
	}
	newDoc["info"] = newInfo
	return newDoc
}
