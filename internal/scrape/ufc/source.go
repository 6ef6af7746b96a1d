// Package ufc extracts fight cards from the promotion's hydration JSON
// endpoint. The payload shape has drifted before, so field access is
// defensive: a recursive walk collects anything that looks like an event
// node instead of trusting one envelope layout.
package ufc

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/rawdata"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/logging"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/scrape"
)

const (
	sourceName       = "ufc"
	defaultEventsURL = "https://www.ufc.com/api/v3/events/upcoming"
	maxWalkDepth     = 10
)

// ErrNoEvents reports a response that parsed as JSON but yielded no event
// nodes. The orchestrator treats it as a degraded source, not a fatal run.
var ErrNoEvents = crerr.New("ufc: no event nodes in payload")

type SourceConfig struct {
	Fetcher   scrape.Getter
	EventsURL string
	Logger    *logging.Logger
}

type Source struct {
	fetcher   scrape.Getter
	eventsURL string
	logger    *logging.Logger
}

func NewSource(cfg SourceConfig) *Source {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	eventsURL := strings.TrimSpace(cfg.EventsURL)
	if eventsURL == "" {
		eventsURL = defaultEventsURL
	}
	return &Source{
		fetcher:   cfg.Fetcher,
		eventsURL: eventsURL,
		logger:    logger,
	}
}

func (s *Source) Name() string { return sourceName }

func (s *Source) FetchEvents(ctx context.Context) ([]scrape.RawEvent, []rawdata.Payload, error) {
	body, err := s.fetcher.Get(ctx, s.eventsURL)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch events: %w", err)
	}
	payloads := []rawdata.Payload{scrape.NewPayload(sourceName, "api_response", s.eventsURL, body)}

	events, err := ParseEvents(body)
	if err != nil {
		return nil, payloads, err
	}

	s.logger.DebugContext(ctx, "ufc events extracted", "count", len(events))
	return events, payloads, nil
}

// ParseEvents decodes one hydration payload into intermediate records.
// Nothing here validates; malformed values pass through for the normalizer
// to reject.
func ParseEvents(body []byte) ([]scrape.RawEvent, error) {
	var envelope any
	if err := sonic.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode events payload: %w", err)
	}

	nodes := collectEventNodes(envelope)
	if len(nodes) == 0 {
		return nil, ErrNoEvents
	}

	events := make([]scrape.RawEvent, 0, len(nodes))
	for _, node := range nodes {
		events = append(events, mapEventNode(node))
	}
	return events, nil
}

// collectEventNodes walks the payload collecting maps that look like event
// nodes, whatever container the site wraps them in this week.
func collectEventNodes(root any) []map[string]any {
	out := make([]map[string]any, 0, 8)
	seen := make(map[string]struct{}, 16)

	var walk func(any, int)
	walk = func(current any, depth int) {
		if depth > maxWalkDepth || current == nil {
			return
		}
		switch typed := current.(type) {
		case []any:
			for _, child := range typed {
				walk(child, depth+1)
			}
		case map[string]any:
			if isEventNode(typed) {
				key := eventDedupKey(typed)
				if _, exists := seen[key]; !exists {
					seen[key] = struct{}{}
					out = append(out, typed)
				}
				return
			}
			// Well-known container keys first so ordering stays stable.
			for _, key := range []string{"events", "liveEvents", "data", "items", "results"} {
				if child, ok := typed[key]; ok {
					walk(child, depth+1)
				}
			}
			for _, child := range typed {
				walk(child, depth+1)
			}
		}
	}

	walk(root, 0)
	return out
}

func isEventNode(node map[string]any) bool {
	if getStringAny(node, "name", "title", "eventName") == "" {
		return false
	}
	if fightList(node) != nil {
		return true
	}
	return getStringAny(node, "date", "startDate", "eventDate") != ""
}

func eventDedupKey(node map[string]any) string {
	return strings.ToLower(getStringAny(node, "name", "title", "eventName")) +
		"|" + getStringAny(node, "date", "startDate", "eventDate")
}

func fightList(node map[string]any) []any {
	for _, key := range []string{"fights", "bouts", "fightCard", "card"} {
		if list, ok := node[key].([]any); ok {
			return list
		}
	}
	return nil
}

func mapEventNode(node map[string]any) scrape.RawEvent {
	raw := scrape.RawEvent{
		Name:      getStringAny(node, "name", "title", "eventName"),
		Promotion: "UFC",
		DateText:  getStringAny(node, "date", "startDate", "eventDate"),
		TimeText:  getStringAny(node, "mainCardTime", "startTime", "time"),
		Timezone:  getStringAny(node, "timezone", "timeZone"),
		Venue:     getStringAny(node, "venue", "arena"),
		Location:  getStringAny(node, "location", "city"),
		BannerURL: getStringAny(node, "bannerImage", "imageUrl", "image"),
		SourceURL: getStringAny(node, "url", "sourceUrl", "link"),
	}

	seenFighters := make(map[string]struct{}, 24)
	for _, item := range fightList(node) {
		fightNode, ok := item.(map[string]any)
		if !ok {
			continue
		}
		fight, fighters := mapFightNode(fightNode)
		if fight.Fighter1Name == "" || fight.Fighter2Name == "" {
			continue
		}
		raw.Fights = append(raw.Fights, fight)
		for _, fighter := range fighters {
			key := strings.ToLower(fighter.Name)
			if _, exists := seenFighters[key]; exists {
				continue
			}
			seenFighters[key] = struct{}{}
			raw.Fighters = append(raw.Fighters, fighter)
		}
	}
	return raw
}

func mapFightNode(node map[string]any) (scrape.RawFight, []scrape.RawFighter) {
	corner1 := cornerMap(node, "fighter1", "redCorner", "red")
	corner2 := cornerMap(node, "fighter2", "blueCorner", "blue")

	fight := scrape.RawFight{
		Fighter1Name:    fighterName(corner1, getStringAny(node, "fighter1Name")),
		Fighter2Name:    fighterName(corner2, getStringAny(node, "fighter2Name")),
		WeightClass:     getStringAny(node, "weightClass", "division"),
		IsTitle:         getBool(node, "isTitleFight") || getBool(node, "titleFight"),
		ScheduledRounds: getStringAny(node, "scheduledRounds", "rounds"),
		OrderOnCard:     getInt(node, "order", "fightOrder", "cardPosition"),
		Started:         getBool(node, "hasStarted") || getBool(node, "started") || statusIs(node, "live", "in_progress"),
		Complete:        getBool(node, "isComplete") || getBool(node, "complete") || statusIs(node, "complete", "final"),
		Cancelled:       getBool(node, "isCancelled") || getBool(node, "cancelled") || statusIs(node, "cancelled"),
		WinnerName:      winnerName(node, corner1, corner2),
		Method:          getStringAny(node, "method", "finishMethod", "result"),
		RoundText:       getStringAny(node, "round", "finishRound"),
		TimeText:        getStringAny(node, "time", "finishTime"),
	}

	fighters := make([]scrape.RawFighter, 0, 2)
	for _, corner := range []map[string]any{corner1, corner2} {
		name := fighterName(corner, "")
		if name == "" {
			continue
		}
		fighters = append(fighters, scrape.RawFighter{
			Name:        name,
			RecordText:  getStringAny(corner, "record"),
			WeightClass: fight.WeightClass,
			CountryCode: getStringAny(corner, "countryCode", "country"),
			ImageURL:    getStringAny(corner, "imageUrl", "headshot", "image"),
			Champion:    getBool(corner, "isChampion") || getBool(corner, "champion"),
		})
	}
	return fight, fighters
}

func cornerMap(node map[string]any, keys ...string) map[string]any {
	for _, key := range keys {
		if corner, ok := node[key].(map[string]any); ok {
			return corner
		}
	}
	return nil
}

func fighterName(corner map[string]any, fallback string) string {
	if corner == nil {
		return strings.TrimSpace(fallback)
	}
	if full := getStringAny(corner, "name", "fullName"); full != "" {
		return full
	}
	first := getStringAny(corner, "firstName")
	last := getStringAny(corner, "lastName")
	name := strings.TrimSpace(first + " " + last)
	if name != "" {
		return name
	}
	return strings.TrimSpace(fallback)
}

// winnerName resolves the winner either from an explicit name field or from
// a corner reference like "red"/"fighter1".
func winnerName(node, corner1, corner2 map[string]any) string {
	if name := getStringAny(node, "winnerName", "winner"); name != "" {
		switch strings.ToLower(name) {
		case "fighter1", "red", "redcorner":
			return fighterName(corner1, "")
		case "fighter2", "blue", "bluecorner":
			return fighterName(corner2, "")
		}
		return name
	}
	if winner, ok := node["winner"].(map[string]any); ok {
		return fighterName(winner, "")
	}
	return ""
}

func statusIs(node map[string]any, values ...string) bool {
	status := strings.ToLower(getStringAny(node, "status", "state"))
	for _, value := range values {
		if status == value {
			return true
		}
	}
	return false
}

func getStringAny(src map[string]any, keys ...string) string {
	if src == nil {
		return ""
	}
	for _, key := range keys {
		raw, ok := src[key]
		if !ok || raw == nil {
			continue
		}
		switch typed := raw.(type) {
		case string:
			if value := strings.TrimSpace(typed); value != "" {
				return value
			}
		case float64:
			return strconv.FormatFloat(typed, 'f', -1, 64)
		}
	}
	return ""
}

func getInt(src map[string]any, keys ...string) int {
	if src == nil {
		return 0
	}
	for _, key := range keys {
		switch typed := src[key].(type) {
		case float64:
			return int(typed)
		case string:
			if value, err := strconv.Atoi(strings.TrimSpace(typed)); err == nil {
				return value
			}
		}
	}
	return 0
}

func getBool(src map[string]any, key string) bool {
	if src == nil {
		return false
	}
	value, _ := src[key].(bool)
	return value
}
