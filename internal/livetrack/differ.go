package livetrack

import (
	"fmt"
	"sort"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/event"
)

// Diff compares a snapshot to its immediate predecessor and returns the
// merged snapshot plus the transitions inferred between them.
//
// The merge is a monotonic union: a flag or result field set in either
// snapshot stays set, so a noisy poll that momentarily regresses a fight
// never emits a backward transition. A fight present before but absent from
// the new capture is kept rather than dropped; disappearance during a live
// session is treated as source noise, not a cancellation.
//
// prev == nil means the first tick of a session: every fight is reported as
// added, and an already-started event reports its current state once.
func Diff(prev *Snapshot, next Snapshot) (Snapshot, []ChangeRecord) {
	merged := Snapshot{
		CapturedAt:  next.CapturedAt,
		EventName:   next.EventName,
		EventStatus: event.StatusUpcoming,
		Fights:      make([]FightState, 0, len(next.Fights)),
	}
	changes := make([]ChangeRecord, 0, 4)

	prevByPair := make(map[string]FightState)
	prevStatus := event.StatusUpcoming
	if prev != nil {
		prevStatus = event.NormalizeStatus(prev.EventStatus)
		if merged.EventName == "" {
			merged.EventName = prev.EventName
		}
		for _, f := range prev.Fights {
			prevByPair[f.pairKey()] = f
		}
	}

	seen := make(map[string]bool, len(next.Fights))
	for _, incoming := range next.Fights {
		key := incoming.pairKey()
		seen[key] = true

		before, existed := prevByPair[key]
		if !existed {
			merged.Fights = append(merged.Fights, incoming)
			changes = append(changes, ChangeRecord{
				Type:        ChangeFightAdded,
				Description: "new fight: " + incoming.label(),
				At:          next.CapturedAt,
			})
			if incoming.IsComplete {
				changes = append(changes, completionRecord(incoming, next))
			} else if incoming.HasStarted {
				changes = append(changes, startedRecord(incoming, next))
			}
			continue
		}

		after := unionFight(before, incoming)
		merged.Fights = append(merged.Fights, after)

		if !before.IsComplete && after.IsComplete {
			changes = append(changes, completionRecord(after, next))
		} else if !before.HasStarted && after.HasStarted && !after.IsComplete {
			changes = append(changes, startedRecord(after, next))
		}
	}

	// Carry fights the new capture is missing.
	if prev != nil {
		for _, f := range prev.Fights {
			if !seen[f.pairKey()] {
				merged.Fights = append(merged.Fights, f)
			}
		}
	}

	sort.SliceStable(merged.Fights, func(i, j int) bool {
		return merged.Fights[i].OrderOnCard < merged.Fights[j].OrderOnCard
	})

	merged.EventStatus = deriveEventStatus(merged.Fights, prevStatus)
	if event.StatusRank(merged.EventStatus) > event.StatusRank(prevStatus) {
		switch merged.EventStatus {
		case event.StatusLive:
			changes = append(changes, ChangeRecord{
				Type:        ChangeEventStarted,
				Description: "event started: " + merged.EventName,
				At:          next.CapturedAt,
			})
		case event.StatusComplete:
			if prevStatus == event.StatusUpcoming {
				changes = append(changes, ChangeRecord{
					Type:        ChangeEventStarted,
					Description: "event started: " + merged.EventName,
					At:          next.CapturedAt,
				})
			}
			changes = append(changes, ChangeRecord{
				Type:        ChangeEventComplete,
				Description: "event complete: " + merged.EventName,
				At:          next.CapturedAt,
			})
		}
	}

	return merged, changes
}

func unionFight(before, incoming FightState) FightState {
	out := incoming
	out.HasStarted = before.HasStarted || incoming.HasStarted || out.IsComplete
	out.IsComplete = before.IsComplete || incoming.IsComplete
	if out.IsComplete {
		out.HasStarted = true
	}
	if out.WinnerName == "" {
		out.WinnerName = before.WinnerName
	}
	if out.Method == "" {
		out.Method = before.Method
	}
	if out.Round == 0 {
		out.Round = before.Round
	}
	if out.Time == "" {
		out.Time = before.Time
	}
	if out.OrderOnCard == 0 {
		out.OrderOnCard = before.OrderOnCard
	}
	return out
}

func startedRecord(f FightState, next Snapshot) ChangeRecord {
	return ChangeRecord{
		Type:        ChangeFightStarted,
		Description: "fight started: " + f.label(),
		At:          next.CapturedAt,
	}
}

func completionRecord(f FightState, next Snapshot) ChangeRecord {
	description := "fight complete: " + f.label()
	if f.WinnerName != "" {
		description = fmt.Sprintf("%s defeated %s", f.WinnerName, loserName(f))
		if f.Method != "" {
			description += " by " + f.Method
		}
		if f.Round > 0 {
			description += fmt.Sprintf(" (round %d", f.Round)
			if f.Time != "" {
				description += " " + f.Time
			}
			description += ")"
		}
	}
	return ChangeRecord{
		Type:        ChangeFightComplete,
		Description: description,
		At:          next.CapturedAt,
	}
}

func loserName(f FightState) string {
	winner := f.WinnerName
	if winner == f.Fighter1Name {
		return f.Fighter2Name
	}
	if winner == f.Fighter2Name {
		return f.Fighter1Name
	}
	// Winner text may be a last name only.
	if winner == f.Fighter1LastName {
		return f.Fighter2Name
	}
	return f.Fighter1Name
}
