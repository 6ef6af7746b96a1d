package scrape

import (
	"context"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/rawdata"
)

// Source is one promotion-specific adapter. Adapters own the page-structure
// heuristics; everything they emit stays loosely typed until the normalizer.
type Source interface {
	Name() string
	FetchEvents(ctx context.Context) ([]RawEvent, []rawdata.Payload, error)
}

// Getter is the fetch capability adapters depend on. *Fetcher satisfies it;
// tests substitute canned bodies.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// RawEvent is the intermediate shape extractors produce. All fields are
// optional free text; validation happens at the normalizer boundary.
type RawEvent struct {
	Name      string
	Promotion string
	DateText  string
	TimeText  string
	Timezone  string
	Venue     string
	Location  string
	BannerURL string
	SourceURL string
	Fighters  []RawFighter
	Fights    []RawFight
}

type RawFighter struct {
	Name        string
	RecordText  string
	WeightClass string
	CountryCode string
	ImageURL    string
	Champion    bool
}

type RawFight struct {
	Fighter1Name    string
	Fighter2Name    string
	WeightClass     string
	IsTitle         bool
	ScheduledRounds string
	OrderOnCard     int
	Started         bool
	Complete        bool
	Cancelled       bool
	WinnerName      string
	Method          string
	RoundText       string
	TimeText        string
}
