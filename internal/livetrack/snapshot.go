package livetrack

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/event"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/normalize"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/scrape"
)

// Snapshot is one full capture of an event's fight list. It exists only in
// memory for the lifetime of a polling session and is immutable once built.
type Snapshot struct {
	CapturedAt  time.Time    `json:"capturedAt"`
	EventName   string       `json:"eventName"`
	EventStatus string       `json:"eventStatus"`
	Fights      []FightState `json:"fights"`
}

// FightState carries the started/complete flags the differ unions. Fight
// matching across polls is by the unordered last-name pair because the
// source does not expose stable fight identifiers.
type FightState struct {
	Fighter1Name     string `json:"fighter1Name"`
	Fighter2Name     string `json:"fighter2Name"`
	Fighter1LastName string `json:"fighter1LastName"`
	Fighter2LastName string `json:"fighter2LastName"`
	OrderOnCard      int    `json:"orderOnCard"`
	HasStarted       bool   `json:"hasStarted"`
	IsComplete       bool   `json:"isComplete"`
	WinnerName       string `json:"winnerName,omitempty"`
	Method           string `json:"method,omitempty"`
	Round            int    `json:"round,omitempty"`
	Time             string `json:"time,omitempty"`
}

// ChangeRecord is one inferred transition between two snapshots. Records are
// append-only; nothing ever mutates a prior record.
type ChangeRecord struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

const (
	ChangeEventStarted  = "event_started"
	ChangeEventComplete = "event_complete"
	ChangeFightAdded    = "fight_added"
	ChangeFightStarted  = "fight_started"
	ChangeFightComplete = "fight_completed"
)

func (f FightState) pairKey() string {
	a := strings.ToLower(f.Fighter1LastName)
	b := strings.ToLower(f.Fighter2LastName)
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

func (f FightState) label() string {
	return fmt.Sprintf("%s vs %s", lastOrFull(f.Fighter1Name, f.Fighter1LastName), lastOrFull(f.Fighter2Name, f.Fighter2LastName))
}

func lastOrFull(full, last string) string {
	if strings.TrimSpace(last) != "" {
		return last
	}
	return full
}

// BuildSnapshot converts one scraped event into a snapshot. Bouts whose
// names cannot be split are dropped; a live tracker tolerates partial cards.
func BuildSnapshot(raw scrape.RawEvent, capturedAt time.Time) Snapshot {
	snapshot := Snapshot{
		CapturedAt:  capturedAt.UTC(),
		EventName:   strings.Join(strings.Fields(raw.Name), " "),
		EventStatus: event.StatusUpcoming,
		Fights:      make([]FightState, 0, len(raw.Fights)),
	}

	for _, rawFight := range raw.Fights {
		_, last1, _, err1 := normalize.SplitName(rawFight.Fighter1Name)
		_, last2, _, err2 := normalize.SplitName(rawFight.Fighter2Name)
		if err1 != nil || err2 != nil {
			continue
		}
		state := FightState{
			Fighter1Name:     strings.TrimSpace(rawFight.Fighter1Name),
			Fighter2Name:     strings.TrimSpace(rawFight.Fighter2Name),
			Fighter1LastName: lastOrFull(strings.TrimSpace(rawFight.Fighter1Name), last1),
			Fighter2LastName: lastOrFull(strings.TrimSpace(rawFight.Fighter2Name), last2),
			OrderOnCard:      rawFight.OrderOnCard,
			HasStarted:       rawFight.Started || rawFight.Complete,
			IsComplete:       rawFight.Complete,
			WinnerName:       strings.TrimSpace(rawFight.WinnerName),
			Method:           strings.TrimSpace(rawFight.Method),
			Round:            parseRoundText(rawFight.RoundText),
			Time:             strings.TrimSpace(rawFight.TimeText),
		}
		snapshot.Fights = append(snapshot.Fights, state)
	}

	sort.SliceStable(snapshot.Fights, func(i, j int) bool {
		return snapshot.Fights[i].OrderOnCard < snapshot.Fights[j].OrderOnCard
	})
	snapshot.EventStatus = deriveEventStatus(snapshot.Fights, event.StatusUpcoming)
	return snapshot
}

func parseRoundText(raw string) int {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(raw)), "R"))
	value := 0
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return value
		}
		value = value*10 + int(r-'0')
	}
	return value
}

// CurrentlyLive returns the fight inferred to be in progress: the
// highest-order incomplete fight, under the convention that cards run in
// descending order with the main event listed highest and fought last. The
// source never confirms this directly; it is a heuristic and callers should
// treat it as one.
func CurrentlyLive(s Snapshot) *FightState {
	if s.EventStatus != event.StatusLive {
		return nil
	}
	for i := len(s.Fights) - 1; i >= 0; i-- {
		if !s.Fights[i].IsComplete {
			copied := s.Fights[i]
			return &copied
		}
	}
	return nil
}

func deriveEventStatus(fights []FightState, floor string) string {
	anyStarted := false
	allComplete := len(fights) > 0
	for _, f := range fights {
		if f.HasStarted || f.IsComplete {
			anyStarted = true
		}
		if !f.IsComplete {
			allComplete = false
		}
	}

	status := event.StatusUpcoming
	if anyStarted {
		status = event.StatusLive
	}
	if allComplete {
		status = event.StatusComplete
	}
	if event.StatusRank(floor) > event.StatusRank(status) {
		return event.NormalizeStatus(floor)
	}
	return status
}
