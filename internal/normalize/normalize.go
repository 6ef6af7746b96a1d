package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/event"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fight"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fighter"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/scrape"
)

// Fight is a canonical fight that still references its fighters by name key.
// The importer resolves keys to persisted IDs; the differ matches on last
// names because sources do not expose stable identifiers.
type Fight struct {
	EventKey        event.Key
	Fighter1        fighter.NameKey
	Fighter2        fighter.NameKey
	Fighter1Display string
	Fighter2Display string
	WeightClass     fighter.WeightClass
	IsTitle         bool
	ScheduledRounds int
	OrderOnCard     int
	Status          string
	Result          *FightResult
}

type FightResult struct {
	Winner fighter.NameKey
	Method string
	Round  int
	Time   string
}

// Batch is one normalized scrape, ready for the importer.
type Batch struct {
	Fighters []fighter.Fighter
	Events   []event.Event
	Fights   []Fight
}

// Stats counts records the normalizer had to drop.
type Stats struct {
	Malformed int
	Errors    []error
}

// FighterFromRaw canonicalizes one extracted fighter. Identity fields are
// never fabricated; a fighter without a usable name is malformed.
func FighterFromRaw(raw scrape.RawFighter) (fighter.Fighter, error) {
	first, last, nickname, err := SplitName(raw.Name)
	if err != nil {
		return fighter.Fighter{}, err
	}

	out := fighter.Fighter{
		FirstName:       first,
		LastName:        last,
		Nickname:        nickname,
		Champion:        raw.Champion,
		CountryCode:     strings.ToUpper(strings.TrimSpace(raw.CountryCode)),
		ProfileImageRef: strings.TrimSpace(raw.ImageURL),
	}

	if strings.TrimSpace(raw.RecordText) != "" {
		record, err := ParseRecord(raw.RecordText)
		if err != nil {
			return fighter.Fighter{}, err
		}
		out.Record = &record
	}

	if class, ok := WeightClassFromName(raw.WeightClass); ok {
		out.WeightClass = class
		out.Gender = fighter.GenderForClass(class)
	}

	return out, nil
}

// EventFromRaw canonicalizes one extracted event. The event date is the UTC
// calendar date of the main card start.
func EventFromRaw(raw scrape.RawEvent) (event.Event, error) {
	name := strings.Join(strings.Fields(raw.Name), " ")
	if name == "" {
		return event.Event{}, fmt.Errorf("%w: event has no name", ErrMalformedInput)
	}

	start, err := ResolveLocalTime(raw.DateText, raw.TimeText, raw.Timezone)
	if err != nil {
		return event.Event{}, fmt.Errorf("event %q: %w", name, err)
	}

	return event.Event{
		Name:             name,
		Date:             time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		Promotion:        strings.TrimSpace(raw.Promotion),
		Venue:            strings.TrimSpace(raw.Venue),
		Location:         strings.TrimSpace(raw.Location),
		MainCardStartUTC: start,
		Status:           event.StatusUpcoming,
		BannerImageRef:   strings.TrimSpace(raw.BannerURL),
	}, nil
}

// FightFromRaw canonicalizes one extracted bout against its parent event.
func FightFromRaw(eventKey event.Key, raw scrape.RawFight) (Fight, error) {
	first1, last1, _, err := SplitName(raw.Fighter1Name)
	if err != nil {
		return Fight{}, fmt.Errorf("fighter 1: %w", err)
	}
	first2, last2, _, err := SplitName(raw.Fighter2Name)
	if err != nil {
		return Fight{}, fmt.Errorf("fighter 2: %w", err)
	}

	out := Fight{
		EventKey:        eventKey,
		Fighter1:        fighter.NewNameKey(first1, last1),
		Fighter2:        fighter.NewNameKey(first2, last2),
		Fighter1Display: strings.TrimSpace(raw.Fighter1Name),
		Fighter2Display: strings.TrimSpace(raw.Fighter2Name),
		IsTitle:         raw.IsTitle,
		ScheduledRounds: parseRounds(raw.ScheduledRounds, raw.IsTitle),
		OrderOnCard:     raw.OrderOnCard,
		Status:          fightStatus(raw),
	}

	if class, ok := WeightClassFromName(raw.WeightClass); ok {
		out.WeightClass = class
	}

	if out.Status == fight.StatusComplete && strings.TrimSpace(raw.WinnerName) != "" {
		winnerFirst, winnerLast, _, err := SplitName(raw.WinnerName)
		if err != nil {
			return Fight{}, fmt.Errorf("winner: %w", err)
		}
		out.Result = &FightResult{
			Winner: fighter.NewNameKey(winnerFirst, winnerLast),
			Method: strings.TrimSpace(raw.Method),
			Round:  parseRound(raw.RoundText),
			Time:   strings.TrimSpace(raw.TimeText),
		}
	}

	return out, nil
}

// BuildBatch normalizes a whole scrape. Malformed records are dropped and
// counted; they never abort the batch. Output ordering is deterministic.
func BuildBatch(raws []scrape.RawEvent) (Batch, Stats) {
	var stats Stats
	fightersByKey := make(map[fighter.NameKey]fighter.Fighter)
	eventsByKey := make(map[event.Key]event.Event)
	fights := make([]Fight, 0, 16)
	seenFights := make(map[string]bool)

	for _, rawEvent := range raws {
		canonicalEvent, err := EventFromRaw(rawEvent)
		if err != nil {
			stats.Malformed++
			stats.Errors = append(stats.Errors, err)
			continue
		}
		eventKey := canonicalEvent.Key()
		if existing, ok := eventsByKey[eventKey]; ok {
			eventsByKey[eventKey] = mergeEvents(existing, canonicalEvent)
		} else {
			eventsByKey[eventKey] = canonicalEvent
		}

		for _, rawFighter := range rawEvent.Fighters {
			canonicalFighter, err := FighterFromRaw(rawFighter)
			if err != nil {
				stats.Malformed++
				stats.Errors = append(stats.Errors, err)
				continue
			}
			key := canonicalFighter.Key()
			if existing, ok := fightersByKey[key]; ok {
				fightersByKey[key] = mergeFighters(existing, canonicalFighter)
			} else {
				fightersByKey[key] = canonicalFighter
			}
		}

		for _, rawFight := range rawEvent.Fights {
			canonicalFight, err := FightFromRaw(eventKey, rawFight)
			if err != nil {
				stats.Malformed++
				stats.Errors = append(stats.Errors, err)
				continue
			}
			dedupe := fightDedupeKey(canonicalFight)
			if seenFights[dedupe] {
				continue
			}
			seenFights[dedupe] = true
			fights = append(fights, canonicalFight)
		}
	}

	batch := Batch{
		Fighters: make([]fighter.Fighter, 0, len(fightersByKey)),
		Events:   make([]event.Event, 0, len(eventsByKey)),
		Fights:   fights,
	}
	for _, item := range fightersByKey {
		batch.Fighters = append(batch.Fighters, item)
	}
	for _, item := range eventsByKey {
		batch.Events = append(batch.Events, item)
	}

	sort.SliceStable(batch.Fighters, func(i, j int) bool {
		left, right := batch.Fighters[i].Key(), batch.Fighters[j].Key()
		if left.LastName != right.LastName {
			return left.LastName < right.LastName
		}
		return left.FirstName < right.FirstName
	})
	sort.SliceStable(batch.Events, func(i, j int) bool {
		left, right := batch.Events[i].Key(), batch.Events[j].Key()
		if left.Date != right.Date {
			return left.Date < right.Date
		}
		return left.Name < right.Name
	})
	sort.SliceStable(batch.Fights, func(i, j int) bool {
		if batch.Fights[i].EventKey != batch.Fights[j].EventKey {
			return batch.Fights[i].EventKey.Date < batch.Fights[j].EventKey.Date
		}
		return batch.Fights[i].OrderOnCard < batch.Fights[j].OrderOnCard
	})

	return batch, stats
}

func mergeFighters(existing, incoming fighter.Fighter) fighter.Fighter {
	existing.Nickname = firstNonEmpty(existing.Nickname, incoming.Nickname)
	existing.CountryCode = firstNonEmpty(existing.CountryCode, incoming.CountryCode)
	existing.ProfileImageRef = firstNonEmpty(existing.ProfileImageRef, incoming.ProfileImageRef)
	if existing.Record == nil {
		existing.Record = incoming.Record
	}
	if existing.WeightClass == fighter.WeightClassUnknown {
		existing.WeightClass = incoming.WeightClass
		existing.Gender = incoming.Gender
	}
	existing.Champion = existing.Champion || incoming.Champion
	return existing
}

func mergeEvents(existing, incoming event.Event) event.Event {
	existing.Promotion = firstNonEmpty(existing.Promotion, incoming.Promotion)
	existing.Venue = firstNonEmpty(existing.Venue, incoming.Venue)
	existing.Location = firstNonEmpty(existing.Location, incoming.Location)
	existing.BannerImageRef = firstNonEmpty(existing.BannerImageRef, incoming.BannerImageRef)
	if existing.PrelimStartUTC == nil {
		existing.PrelimStartUTC = incoming.PrelimStartUTC
	}
	return existing
}

func fightStatus(raw scrape.RawFight) string {
	switch {
	case raw.Cancelled:
		return fight.StatusCancelled
	case raw.Complete:
		return fight.StatusComplete
	case raw.Started:
		return fight.StatusLive
	default:
		return fight.StatusUpcoming
	}
}

func fightDedupeKey(f Fight) string {
	a := f.Fighter1.FirstName + " " + f.Fighter1.LastName
	b := f.Fighter2.FirstName + " " + f.Fighter2.LastName
	if b < a {
		a, b = b, a
	}
	return f.EventKey.Name + "|" + f.EventKey.Date + "|" + a + "|" + b
}

func parseRounds(raw string, isTitle bool) int {
	if value, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && value > 0 {
		return value
	}
	if isTitle {
		return 5
	}
	return 3
}

func parseRound(raw string) int {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(raw)), "R"))
	if value, err := strconv.Atoi(trimmed); err == nil && value > 0 {
		return value
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
