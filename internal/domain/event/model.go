package event

import (
	"strings"
	"time"
)

const (
	StatusUpcoming = "UPCOMING"
	StatusLive     = "LIVE"
	StatusComplete = "COMPLETE"
)

// Event is one fight card. Identity is (Name, Date) where Date is the
// calendar date of the card in UTC.
type Event struct {
	ID               int64
	Name             string
	Date             time.Time
	Promotion        string
	Venue            string
	Location         string
	MainCardStartUTC time.Time
	PrelimStartUTC   *time.Time
	Status           string
	BannerImageRef   string
}

type Key struct {
	Name string
	Date string
}

func (e Event) Key() Key {
	return NewKey(e.Name, e.Date)
}

func NewKey(name string, date time.Time) Key {
	return Key{
		Name: strings.ToLower(strings.Join(strings.Fields(name), " ")),
		Date: date.UTC().Format("2006-01-02"),
	}
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusUpcoming
	}
	return status
}

// StatusRank orders statuses along the forward-only lifecycle.
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
