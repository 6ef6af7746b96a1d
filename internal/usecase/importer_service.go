package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/event"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fight"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fighter"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/normalize"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/logging"
)

// ImportStats aggregates one batch application. Per-record failures are
// counted, not raised; only structural failures abort the batch.
type ImportStats struct {
	FightersImported int `json:"fighters_imported"`
	EventsImported   int `json:"events_imported"`
	FightsImported   int `json:"fights_imported"`
	FightsSkipped    int `json:"fights_skipped"`
	Errored          int `json:"errored"`
}

func (s ImportStats) add(other ImportStats) ImportStats {
	s.FightersImported += other.FightersImported
	s.EventsImported += other.EventsImported
	s.FightsImported += other.FightsImported
	s.FightsSkipped += other.FightsSkipped
	s.Errored += other.Errored
	return s
}

// ImportService applies normalized batches to storage by natural key.
// Re-applying the same or an overlapping batch is safe: every write is an
// upsert and unset optional fields never clear stored values.
type ImportService struct {
	fighters fighter.Repository
	events   event.Repository
	fights   fight.Repository
	logger   *logging.Logger
}

func NewImportService(
	fighters fighter.Repository,
	events event.Repository,
	fights fight.Repository,
	logger *logging.Logger,
) *ImportService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ImportService{
		fighters: fighters,
		events:   events,
		fights:   fights,
		logger:   logger,
	}
}

// ImportBatch persists fighters, then events, then fights. The order is a
// correctness requirement: fights reference both by ID. A fight whose
// fighters cannot be resolved from this or any prior batch is skipped and
// counted, never given a placeholder fighter.
func (s *ImportService) ImportBatch(ctx context.Context, batch normalize.Batch) (ImportStats, error) {
	ctx, span := startUsecaseSpan(ctx, "ImportService.ImportBatch")
	defer span.End()

	var stats ImportStats

	backfilled := applyFightBackfills(batch)
	if len(backfilled.Fighters) > 0 {
		if err := s.fighters.UpsertMany(ctx, backfilled.Fighters); err != nil {
			return stats, fmt.Errorf("%w: upsert fighters: %v", ErrStructural, err)
		}
		stats.FightersImported = len(backfilled.Fighters)
	}

	if len(batch.Events) > 0 {
		if err := s.events.UpsertMany(ctx, batch.Events); err != nil {
			return stats, fmt.Errorf("%w: upsert events: %v", ErrStructural, err)
		}
		stats.EventsImported = len(batch.Events)
	}

	if len(batch.Fights) == 0 {
		return stats, nil
	}

	fighterIDs, err := s.fighters.ResolveIDs(ctx, collectFighterKeys(batch.Fights))
	if err != nil {
		return stats, fmt.Errorf("%w: resolve fighter ids: %v", ErrStructural, err)
	}
	eventIDs, err := s.events.ResolveIDs(ctx, collectEventKeys(batch.Fights))
	if err != nil {
		return stats, fmt.Errorf("%w: resolve event ids: %v", ErrStructural, err)
	}

	rows := make([]fight.Fight, 0, len(batch.Fights))
	for _, item := range batch.Fights {
		eventID, ok := eventIDs[item.EventKey]
		if !ok {
			stats.FightsSkipped++
			s.logger.WarnContext(ctx, "skipping fight: event not persisted",
				"event", item.EventKey.Name, "fight", fightLabel(item))
			continue
		}
		fighter1ID, ok1 := fighterIDs[item.Fighter1]
		fighter2ID, ok2 := fighterIDs[item.Fighter2]
		if !ok1 || !ok2 {
			stats.FightsSkipped++
			s.logger.WarnContext(ctx, "skipping fight: unresolved fighter",
				"fight", fightLabel(item), "fighter1_found", ok1, "fighter2_found", ok2)
			continue
		}

		row := fight.Fight{
			EventID:         eventID,
			Fighter1ID:      fighter1ID,
			Fighter2ID:      fighter2ID,
			WeightClass:     item.WeightClass,
			IsTitle:         item.IsTitle,
			ScheduledRounds: item.ScheduledRounds,
			OrderOnCard:     item.OrderOnCard,
			Status:          fight.NormalizeStatus(item.Status),
		}
		if item.Result != nil {
			winnerID, ok := fighterIDs[item.Result.Winner]
			if !ok {
				stats.Errored++
				s.logger.WarnContext(ctx, "dropping result: unresolved winner",
					"fight", fightLabel(item), "winner", item.Result.Winner.LastName)
			} else {
				row.Result = &fight.Result{
					WinnerID: winnerID,
					Method:   item.Result.Method,
					Round:    item.Result.Round,
					Time:     item.Result.Time,
				}
			}
		}
		rows = append(rows, row)
	}

	if len(rows) > 0 {
		if err := s.fights.UpsertMany(ctx, rows); err != nil {
			return stats, fmt.Errorf("%w: upsert fights: %v", ErrStructural, err)
		}
		stats.FightsImported = len(rows)
	}

	if err := s.updateEventStatuses(ctx, batch, eventIDs); err != nil {
		return stats, err
	}

	return stats, nil
}

// updateEventStatuses derives each scraped event's status from its fights
// and applies it. The repository guard keeps transitions forward-only, so a
// partial re-scrape can never walk an event back.
func (s *ImportService) updateEventStatuses(ctx context.Context, batch normalize.Batch, eventIDs map[event.Key]int64) error {
	type tally struct {
		total    int
		started  int
		complete int
	}
	tallies := make(map[event.Key]*tally)
	for _, item := range batch.Fights {
		status := fight.NormalizeStatus(item.Status)
		if status == fight.StatusCancelled {
			continue
		}
		counts := tallies[item.EventKey]
		if counts == nil {
			counts = &tally{}
			tallies[item.EventKey] = counts
		}
		counts.total++
		if status == fight.StatusLive || status == fight.StatusComplete {
			counts.started++
		}
		if status == fight.StatusComplete {
			counts.complete++
		}
	}

	for key, counts := range tallies {
		eventID, ok := eventIDs[key]
		if !ok || counts.started == 0 {
			continue
		}
		status := event.StatusLive
		if counts.complete == counts.total {
			status = event.StatusComplete
		}
		if err := s.events.UpdateStatus(ctx, eventID, status); err != nil {
			return fmt.Errorf("%w: update event status event_id=%d: %v", ErrStructural, eventID, err)
		}
	}

	return nil
}

// applyFightBackfills denormalizes fight-level inferences onto the fighters
// in the same batch: a sex-specific bout division fixes both fighters'
// gender, and winning a title fight marks the winner a champion. Both
// inferences are idempotent; applying them twice changes nothing.
func applyFightBackfills(batch normalize.Batch) normalize.Batch {
	byKey := make(map[fighter.NameKey]int, len(batch.Fighters))
	for i, item := range batch.Fighters {
		byKey[item.Key()] = i
	}

	for _, item := range batch.Fights {
		gender := fighter.GenderForClass(item.WeightClass)
		for _, key := range []fighter.NameKey{item.Fighter1, item.Fighter2} {
			idx, ok := byKey[key]
			if !ok {
				continue
			}
			if batch.Fighters[idx].Gender == fighter.GenderUnspecified && gender != fighter.GenderUnspecified {
				batch.Fighters[idx].Gender = gender
			}
			if batch.Fighters[idx].WeightClass == fighter.WeightClassUnknown {
				batch.Fighters[idx].WeightClass = item.WeightClass
			}
		}

		if item.IsTitle && item.Result != nil {
			if idx, ok := byKey[item.Result.Winner]; ok {
				batch.Fighters[idx].Champion = true
			}
		}
	}

	return batch
}

func collectFighterKeys(fights []normalize.Fight) []fighter.NameKey {
	seen := make(map[fighter.NameKey]bool, len(fights)*2)
	keys := make([]fighter.NameKey, 0, len(fights)*2)
	for _, item := range fights {
		candidates := []fighter.NameKey{item.Fighter1, item.Fighter2}
		if item.Result != nil {
			candidates = append(candidates, item.Result.Winner)
		}
		for _, key := range candidates {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	return keys
}

func collectEventKeys(fights []normalize.Fight) []event.Key {
	seen := make(map[event.Key]bool, 4)
	keys := make([]event.Key, 0, 4)
	for _, item := range fights {
		if !seen[item.EventKey] {
			seen[item.EventKey] = true
			keys = append(keys, item.EventKey)
		}
	}
	return keys
}

func fightLabel(item normalize.Fight) string {
	return strings.TrimSpace(item.Fighter1Display) + " vs " + strings.TrimSpace(item.Fighter2Display)
}
