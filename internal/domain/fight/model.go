package fight

import (
	"strings"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fighter"
)

const (
	StatusUpcoming  = "UPCOMING"
	StatusLive      = "LIVE"
	StatusComplete  = "COMPLETE"
	StatusCancelled = "CANCELLED"
)

// Result is present only on completed fights.
type Result struct {
	WinnerID int64
	Method   string
	Round    int
	Time     string
}

// Fight links two fighters to an event. Identity is (EventID, fighter pair)
// with the pair unordered; Fighter1/Fighter2 order is preserved for display.
type Fight struct {
	ID              int64
	EventID         int64
	Fighter1ID      int64
	Fighter2ID      int64
	WeightClass     fighter.WeightClass
	IsTitle         bool
	ScheduledRounds int
	OrderOnCard     int
	Status          string
	Result          *Result
}

// Key is the natural upsert key. The fighter pair is stored low/high so that
// a re-scrape that flips corner order still matches the same row.
type Key struct {
	EventID  int64
	FighterA int64
	FighterB int64
}

func (f Fight) Key() Key {
	return NewKey(f.EventID, f.Fighter1ID, f.Fighter2ID)
}

func NewKey(eventID, fighter1ID, fighter2ID int64) Key {
	a, b := fighter1ID, fighter2ID
	if b < a {
		a, b = b, a
	}
	return Key{EventID: eventID, FighterA: a, FighterB: b}
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusUpcoming
	}
	return status
}

// StatusRank orders the forward-only lifecycle. CANCELLED sits outside the
// progression and is handled by IsValidTransition.
func StatusRank(status string) int {
	switch NormalizeStatus(status) {
	case StatusLive:
		return 1
	case StatusComplete:
		return 2
	default:
		return 0
	}
}

func IsValidTransition(from, to string) bool {
	from = NormalizeStatus(from)
	to = NormalizeStatus(to)
	if from == to {
		return true
	}
	switch from {
	case StatusUpcoming:
		return to == StatusLive || to == StatusComplete || to == StatusCancelled
	case StatusLive:
		return to == StatusComplete
	default:
		return false
	}
}
