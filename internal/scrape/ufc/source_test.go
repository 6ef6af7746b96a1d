package ufc

import (
	"context"
	"errors"
	"testing"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/logging"
)

const hydrationPayload = `{
  "props": {
    "pageProps": {
      "liveEvents": [
        {
          "name": "UFC 300",
          "date": "2026-03-14",
          "mainCardTime": "5:00 PM",
          "timezone": "America/New_York",
          "venue": "T-Mobile Arena",
          "location": "Las Vegas",
          "fights": [
            {
              "order": 12,
              "weightClass": "Lightweight",
              "isTitleFight": true,
              "scheduledRounds": "5",
              "hasStarted": true,
              "isComplete": true,
              "winner": "red",
              "method": "Submission",
              "round": "2",
              "time": "3:41",
              "redCorner": {
                "firstName": "Alex",
                "lastName": "Smith",
                "record": "20-2",
                "countryCode": "US",
                "isChampion": true
              },
              "blueCorner": {
                "name": "Brian Jones",
                "record": "15-4-1"
              }
            },
            {
              "order": 11,
              "weightClass": "Welterweight",
              "fighter1": {"name": "Casey Nguyen"},
              "fighter2": {"name": "Drew Hall"}
            }
          ]
        }
      ]
    }
  }
}`

func TestParseEventsWalksDriftedEnvelope(t *testing.T) {
	t.Parallel()

	events, err := ParseEvents([]byte(hydrationPayload))
	if err != nil {
		t.Fatalf("ParseEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	got := events[0]
	if got.Name != "UFC 300" || got.DateText != "2026-03-14" || got.Timezone != "America/New_York" {
		t.Fatalf("event fields wrong: %+v", got)
	}
	if len(got.Fights) != 2 {
		t.Fatalf("expected 2 fights, got %d", len(got.Fights))
	}

	main := got.Fights[0]
	if main.Fighter1Name != "Alex Smith" || main.Fighter2Name != "Brian Jones" {
		t.Fatalf("corner names wrong: %+v", main)
	}
	if !main.Started || !main.Complete || main.Cancelled {
		t.Fatalf("status flags wrong: %+v", main)
	}
	if main.WinnerName != "Alex Smith" {
		t.Fatalf("corner winner reference not resolved: %q", main.WinnerName)
	}
	if main.Method != "Submission" || main.RoundText != "2" || main.TimeText != "3:41" {
		t.Fatalf("result fields wrong: %+v", main)
	}

	if len(got.Fighters) != 4 {
		t.Fatalf("expected 4 distinct fighters, got %d", len(got.Fighters))
	}
	if got.Fighters[0].RecordText != "20-2" || !got.Fighters[0].Champion {
		t.Fatalf("fighter details wrong: %+v", got.Fighters[0])
	}
}

func TestParseEventsRejectsPayloadWithoutEvents(t *testing.T) {
	t.Parallel()

	if _, err := ParseEvents([]byte(`{"props": {"ads": []}}`)); !errors.Is(err, ErrNoEvents) {
		t.Fatalf("expected ErrNoEvents, got %v", err)
	}
	if _, err := ParseEvents([]byte(`not json`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

type stubGetter struct {
	body []byte
	err  error
	urls []string
}

func (g *stubGetter) Get(_ context.Context, url string) ([]byte, error) {
	g.urls = append(g.urls, url)
	if g.err != nil {
		return nil, g.err
	}
	return g.body, nil
}

func TestFetchEventsArchivesRawPayload(t *testing.T) {
	t.Parallel()

	getter := &stubGetter{body: []byte(hydrationPayload)}
	source := NewSource(SourceConfig{Fetcher: getter, EventsURL: "https://example.com/events", Logger: logging.NewNop()})

	events, payloads, err := source.FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if len(payloads) != 1 {
		t.Fatalf("expected 1 archived payload, got %d", len(payloads))
	}
	archive := payloads[0]
	if archive.Source != "ufc" || archive.EntityType != "api_response" || archive.EntityKey != "https://example.com/events" {
		t.Fatalf("payload metadata wrong: %+v", archive)
	}
	if archive.PayloadHash == "" || archive.PayloadJSON != hydrationPayload {
		t.Fatalf("payload body or hash missing")
	}
}

func TestFetchEventsPropagatesFetchError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("connection reset")
	source := NewSource(SourceConfig{Fetcher: &stubGetter{err: wantErr}, Logger: logging.NewNop()})

	if _, _, err := source.FetchEvents(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}
