// Package tapology extracts fight cards from event HTML pages. Tapology
// changes markup without notice, so every extraction runs an ordered list of
// selector strategies and falls through to the next on an empty result.
package tapology

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/rawdata"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/logging"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/scrape"
)

const (
	sourceName      = "tapology"
	defaultListURL  = "https://www.tapology.com/fightcenter?group=ufc"
	defaultMaxPages = 5
)

// ErrNoEventLinks reports a listing page that parsed but matched no event
// link strategy. Layout drift, not an outage.
var ErrNoEventLinks = crerr.New("tapology: no event links on listing page")

// resultRegex matches the completed-bout summary line, e.g.
// "Alex Smith def. Brian Jones via Submission (R2, 3:41)".
var resultRegex = regexp.MustCompile(`(?i)^(.+?)\s+def\.\s+(.+?)\s+via\s+(.+?)(?:\s*\(R(\d+),?\s*([\d:]+)\))?$`)

var eventLinkStrategies = []string{
	"a.promotion-event-link[href]",
	"section.fightcenterEvents a[href*='/fightcenter/events/']",
	"a[href*='/fightcenter/events/']",
}

var eventNameStrategies = []string{
	"h1.eventPageHeaderTitle",
	"div.eventPageHeader h1",
	"h1",
}

type SourceConfig struct {
	Fetcher   scrape.Getter
	ListURL   string
	BaseURL   string
	MaxEvents int
	Logger    *logging.Logger
}

type Source struct {
	fetcher   scrape.Getter
	listURL   string
	baseURL   string
	maxEvents int
	logger    *logging.Logger
}

func NewSource(cfg SourceConfig) *Source {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	listURL := strings.TrimSpace(cfg.ListURL)
	if listURL == "" {
		listURL = defaultListURL
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://www.tapology.com"
	}
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = defaultMaxPages
	}
	return &Source{
		fetcher:   cfg.Fetcher,
		listURL:   listURL,
		baseURL:   baseURL,
		maxEvents: maxEvents,
		logger:    logger,
	}
}

func (s *Source) Name() string { return sourceName }

func (s *Source) FetchEvents(ctx context.Context) ([]scrape.RawEvent, []rawdata.Payload, error) {
	listBody, err := s.fetcher.Get(ctx, s.listURL)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch listing: %w", err)
	}
	payloads := []rawdata.Payload{scrape.NewPayload(sourceName, "html_page", s.listURL, listBody)}

	links, err := ExtractEventLinks(listBody)
	if err != nil {
		return nil, payloads, err
	}
	if len(links) > s.maxEvents {
		links = links[:s.maxEvents]
	}

	events := make([]scrape.RawEvent, 0, len(links))
	for _, link := range links {
		pageURL := s.absoluteURL(link)
		pageBody, err := s.fetcher.Get(ctx, pageURL)
		if err != nil {
			// One broken event page degrades the source, not the run.
			s.logger.WarnContext(ctx, "event page fetch failed", "url", pageURL, "error", err)
			continue
		}
		payloads = append(payloads, scrape.NewPayload(sourceName, "html_page", pageURL, pageBody))

		raw, err := ParseEventPage(pageBody, pageURL)
		if err != nil {
			s.logger.WarnContext(ctx, "event page extraction failed", "url", pageURL, "error", err)
			continue
		}
		events = append(events, raw)
	}

	s.logger.DebugContext(ctx, "tapology events extracted", "count", len(events))
	return events, payloads, nil
}

func (s *Source) absoluteURL(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return s.baseURL + "/" + strings.TrimLeft(link, "/")
}

// ExtractEventLinks pulls event page paths from a fightcenter listing,
// preserving page order and dropping duplicates.
func ExtractEventLinks(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	for _, strategy := range eventLinkStrategies {
		links := make([]string, 0, 16)
		seen := make(map[string]struct{}, 16)
		doc.Find(strategy).Each(func(_ int, anchor *goquery.Selection) {
			href, ok := anchor.Attr("href")
			if !ok {
				return
			}
			href = strings.TrimSpace(href)
			if href == "" || !strings.Contains(href, "/fightcenter/events/") {
				return
			}
			if _, exists := seen[href]; exists {
				return
			}
			seen[href] = struct{}{}
			links = append(links, href)
		})
		if len(links) > 0 {
			return links, nil
		}
	}
	return nil, ErrNoEventLinks
}

// ParseEventPage extracts one event and its bout list. Fields it cannot find
// stay empty; the normalizer decides what is fatal.
func ParseEventPage(body []byte, sourceURL string) (scrape.RawEvent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return scrape.RawEvent{}, fmt.Errorf("parse event html: %w", err)
	}

	raw := scrape.RawEvent{
		Name:      firstText(doc, eventNameStrategies),
		Promotion: detailValue(doc, "promotion"),
		DateText:  detailValue(doc, "date"),
		TimeText:  detailValue(doc, "time"),
		Timezone:  detailValue(doc, "timezone"),
		Venue:     detailValue(doc, "venue"),
		Location:  detailValue(doc, "location"),
		SourceURL: sourceURL,
	}
	if banner, ok := doc.Find("img.eventPageBanner, div.eventBanner img").First().Attr("src"); ok {
		raw.BannerURL = banner
	}
	if raw.Name == "" {
		return scrape.RawEvent{}, fmt.Errorf("no event name matched any strategy")
	}

	fights := extractBouts(doc)
	raw.Fights = fights
	raw.Fighters = fightersFromBouts(doc, fights)
	return raw, nil
}

// detailValue reads the labelled event detail list, tolerating both the
// definition-list and the span-pair layouts.
func detailValue(doc *goquery.Document, field string) string {
	value := ""
	doc.Find("ul.eventDetails li, div.details li").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		label := strings.ToLower(strings.TrimSpace(item.Find("span.label, strong").First().Text()))
		if !strings.HasPrefix(label, field) {
			return true
		}
		value = strings.TrimSpace(item.Find("span.value").First().Text())
		if value == "" {
			value = strings.TrimSpace(strings.TrimPrefix(stripLabel(item.Text(), label), ":"))
		}
		return false
	})
	return value
}

func stripLabel(text, label string) string {
	trimmed := strings.TrimSpace(text)
	if idx := strings.Index(strings.ToLower(trimmed), label); idx >= 0 {
		return strings.TrimSpace(trimmed[idx+len(label):])
	}
	return trimmed
}

type boutStrategy func(*goquery.Document) []scrape.RawFight

func extractBouts(doc *goquery.Document) []scrape.RawFight {
	for _, strategy := range []boutStrategy{boutsFromCardList, boutsFromTable} {
		if fights := strategy(doc); len(fights) > 0 {
			return fights
		}
	}
	return nil
}

// boutsFromCardList reads the modern list layout. Bouts appear main event
// first; card order is derived from position so the normalizer sees the main
// event with the highest order.
func boutsFromCardList(doc *goquery.Document) []scrape.RawFight {
	items := doc.Find("ul.fightCard li.fightCardBout, div.fightCard div.bout")
	total := items.Length()
	if total == 0 {
		return nil
	}

	fights := make([]scrape.RawFight, 0, total)
	items.Each(func(position int, item *goquery.Selection) {
		names := item.Find("span.fightCardFighterName a, div.fighterName a")
		if names.Length() < 2 {
			names = item.Find("a[href*='/fighters/']")
		}
		if names.Length() < 2 {
			return
		}

		fight := scrape.RawFight{
			Fighter1Name:    strings.TrimSpace(names.Eq(0).Text()),
			Fighter2Name:    strings.TrimSpace(names.Eq(1).Text()),
			WeightClass:     strings.TrimSpace(item.Find("span.weightClass, span.bout-weight").First().Text()),
			IsTitle:         item.Find("span.titleBelt, img.belt").Length() > 0,
			ScheduledRounds: strings.TrimSpace(item.Find("span.boutRounds").First().Text()),
			OrderOnCard:     total - position,
			Cancelled:       item.HasClass("cancelled") || strings.EqualFold(strings.TrimSpace(item.Find("span.boutStatus").Text()), "cancelled"),
		}
		applyResultLine(&fight, strings.TrimSpace(item.Find("span.boutResult, div.result").First().Text()))
		fights = append(fights, fight)
	})
	return fights
}

// boutsFromTable is the legacy table layout fallback.
func boutsFromTable(doc *goquery.Document) []scrape.RawFight {
	rows := doc.Find("table.fightTable tbody tr, table.fightTable tr")
	total := rows.Length()
	if total == 0 {
		return nil
	}

	fights := make([]scrape.RawFight, 0, total)
	rows.Each(func(position int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		fight := scrape.RawFight{
			Fighter1Name: strings.TrimSpace(cells.Eq(0).Text()),
			Fighter2Name: strings.TrimSpace(cells.Eq(2).Text()),
			WeightClass:  strings.TrimSpace(cells.Eq(1).Text()),
			OrderOnCard:  total - position,
		}
		if fight.Fighter1Name == "" || fight.Fighter2Name == "" {
			return
		}
		if cells.Length() > 3 {
			applyResultLine(&fight, strings.TrimSpace(cells.Eq(3).Text()))
		}
		fights = append(fights, fight)
	})
	return fights
}

// applyResultLine folds a "X def. Y via Method (R2, 3:41)" summary into the
// bout's completion fields. Anything unmatched leaves the bout upcoming.
func applyResultLine(fight *scrape.RawFight, line string) {
	if line == "" {
		return
	}
	if strings.EqualFold(line, "live") || strings.EqualFold(line, "in progress") {
		fight.Started = true
		return
	}
	groups := resultRegex.FindStringSubmatch(line)
	if groups == nil {
		return
	}
	fight.Started = true
	fight.Complete = true
	fight.WinnerName = strings.TrimSpace(groups[1])
	fight.Method = strings.TrimSpace(groups[3])
	fight.RoundText = groups[4]
	fight.TimeText = groups[5]
}

// fightersFromBouts derives the fighter list from bout participants plus any
// per-fighter record spans near their links.
func fightersFromBouts(doc *goquery.Document, fights []scrape.RawFight) []scrape.RawFighter {
	records := make(map[string]string, len(fights)*2)
	doc.Find("a[href*='/fighters/']").Each(func(_ int, anchor *goquery.Selection) {
		name := strings.TrimSpace(anchor.Text())
		if name == "" {
			return
		}
		record := strings.TrimSpace(anchor.Parent().NextFiltered("span.fighterRecord, span.record").First().Text())
		if record != "" {
			records[strings.ToLower(name)] = record
		}
	})

	seen := make(map[string]struct{}, len(fights)*2)
	fighters := make([]scrape.RawFighter, 0, len(fights)*2)
	for _, fight := range fights {
		for _, name := range []string{fight.Fighter1Name, fight.Fighter2Name} {
			key := strings.ToLower(name)
			if name == "" {
				continue
			}
			if _, exists := seen[key]; exists {
				continue
			}
			seen[key] = struct{}{}
			fighters = append(fighters, scrape.RawFighter{
				Name:        name,
				RecordText:  records[key],
				WeightClass: fight.WeightClass,
			})
		}
	}
	return fighters
}

func firstText(doc *goquery.Document, strategies []string) string {
	for _, strategy := range strategies {
		if value := strings.TrimSpace(doc.Find(strategy).First().Text()); value != "" {
			return value
		}
	}
	return ""
}
