package timeline

// Phase is one analysis window of a game. EndMin < 0 means "until the end
// of the game".
type Phase struct {
	Name     string
	StartMin int
	EndMin   int
}

// GamePhases are the standard review windows: laning, mid game, late game.
var GamePhases = []Phase{
	{Name: "early", StartMin: 0, EndMin: 15},
	{Name: "mid", StartMin: 15, EndMin: 30},
	{Name: "late", StartMin: 30, EndMin: -1},
}

// participant identity fields rewritten by MapChampions: the raw ID on the
// left becomes the champion/side pair built from the right-hand prefix.
var eventIDFields = []struct {
	idField  string
	prefix   string
	removeID bool
}{
	{"participantId", "", true},
	{"killerId", "killer", false},
	{"victimId", "victim", false},
	{"creatorId", "creator", false},
}

// MapChampions rewrites participant IDs into champion names and starting
// sides throughout a timeline document, in place, using the match log's
// participant list. Events gain championName / killerChampionName /
// victimChampionName / creatorChampionName plus the matching
// *TeamStartingSide fields; participant frames gain championName and
// teamStartingSide. The plain participantId is dropped once replaced, since
// the LLM reasons in champion names, not slot numbers.
func MapChampions(doc, matchLog map[string]any) {
	idToChampion, idToSide := participantLookup(doc, matchLog)
	if len(idToChampion) == 0 {
		return
	}

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
				for _, field := range eventIDFields {
					id, ok := numericValue(em[field.idField])
					if !ok {
						continue
					}
					champion, known := idToChampion[int(id)]
					if !known {
						continue
					}
					if field.prefix == "" {
						em["championName"] = champion
						em["teamStartingSide"] = idToSide[int(id)]
					} else {
						em[field.prefix+"ChampionName"] = champion
						em[field.prefix+"TeamStartingSide"] = idToSide[int(id)]
					}
					if field.removeID {
						delete(em, field.idField)
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
				id, ok := numericValue(pm["participantId"])
				if !ok {
					continue
				}
				if champion, known := idToChampion[int(id)]; known {
					pm["championName"] = champion
					pm["teamStartingSide"] = idToSide[int(id)]
					delete(pm, "participantId")
				}
			}
		}
	}
}

// participantLookup joins the match log's puuid->champion/team mapping with
// the timeline's participantId->puuid mapping.
func participantLookup(doc, matchLog map[string]any) (map[int]string, map[int]string) {
	puuidToChampion := make(map[string]string)
	puuidToSide := make(map[string]string)

	if info, ok := matchLog["info"].(map[string]any); ok {
		if participants, ok := info["participants"].([]any); ok {
			for _, p := range participants {
				pm, ok := p.(map[string]any)
				if !ok {
					continue
				}
				puuid, _ := pm["puuid"].(string)
				if puuid == "" {
					continue
				}
				champion, _ := pm["championName"].(string)
				if champion == "" {
					champion = "Unknown"
				}
				puuidToChampion[puuid] = champion
				if teamID, ok := numericValue(pm["teamId"]); ok && int(teamID) == 100 {
					puuidToSide[puuid] = "Blue"
				} else {
					puuidToSide[puuid] = "Red"
				}
			}
		}
	}

	idToChampion := make(map[int]string)
	idToSide := make(map[int]string)

	if info, ok := doc["info"].(map[string]any); ok {
		if participants, ok := info["participants"].([]any); ok {
			for _, p := range participants {
				pm, ok := p.(map[string]any)
				if !ok {
					continue
				}
				id, ok := numericValue(pm["participantId"])
				if !ok {
					continue
				}
				puuid, _ := pm["puuid"].(string)
				if champion, known := puuidToChampion[puuid]; known {
					idToChampion[int(id)] = champion
					idToSide[int(id)] = puuidToSide[puuid]
				}
			}
		}
	}

	return idToChampion, idToSide
}

// SplitPhases slices a timeline document into per-phase documents. Frames
// and events are filtered by their timestamps; each phase document carries
// the original metadata plus a phase_info block. Phases with no frames
// (short games) are omitted from the result.
func SplitPhases(doc map[string]any, phases []Phase) (map[string]map[string]any, error) {
	frames, err := docFrames(doc)
	if err != nil {
		return nil, err
	}
	info := doc["info"].(map[string]any)

	// Last frame timestamp bounds the open-ended late phase.
	var lastTimestamp float64
	for _, f := range frames {
		fm, ok := f.(map[string]any)
		if !ok {
			continue
		}
		if ts, ok := numericValue(fm["timestamp"]); ok && ts > lastTimestamp {
			lastTimestamp = ts
		}
	}

	result := make(map[string]map[string]any, len(phases))

	for _, phase := range phases {
		startMS := float64(phase.StartMin) * 60 * 1000
		endMS := lastTimestamp + 1
		if phase.EndMin >= 0 {
			endMS = float64(phase.EndMin) * 60 * 1000
		}

		var phaseFrames []any
		for _, f := range frames {
			fm, ok := f.(map[string]any)
			if !ok {
				continue
			}
			ts, _ := numericValue(fm["timestamp"])
			if ts < startMS || ts >= endMS {
				continue
			}

			var phaseEvents []any
			if events, ok := fm["events"].([]any); ok {
				for _, e := range events {
					em, ok := e.(map[string]any)
					if !ok {
						continue
					}
					ets, _ := numericValue(em["timestamp"])
					if ets >= startMS && ets < endMS {
						phaseEvents = append(phaseEvents, em)
					}
				}
			}

			pf := map[string]any{
				"timestamp": fm["timestamp"],
				"events":    phaseEvents,
			}
			if pfs, ok := fm["participantFrames"]; ok {
				pf["participantFrames"] = pfs
			}
			phaseFrames = append(phaseFrames, pf)
		}

		if len(phaseFrames) == 0 {
			continue
		}

		endMin := float64(phase.EndMin)
		if phase.EndMin < 0 {
			endMin = lastTimestamp / 1000 / 60
		}

		result[phase.Name] = map[string]any{
			"metadata": doc["metadata"],
			"info": map[string]any{
				"endOfGameResult": info["endOfGameResult"],
				"frameInterval":   info["frameInterval"],
				"frames":          phaseFrames,
				"gameId":          info["gameId"],
				"participants":    info["participants"],
			},
			"phase_info": map[string]any{
				"phase_name":      phase.Name,
				"phase_start_ms":  startMS,
				"phase_end_ms":    endMS,
				"phase_start_min": phase.StartMin,
				"phase_end_min":   endMin,
				"num_frames":      len(phaseFrames),
			},
		}
	}

	return result, nil
}
