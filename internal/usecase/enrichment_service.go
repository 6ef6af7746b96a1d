package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fight"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fighter"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/logging"
)

const defaultEnrichmentWorkers = 4

// EnrichmentResult counts one derived-stats recomputation pass.
type EnrichmentResult struct {
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// EnrichmentService recomputes per-fighter derived stats (finish count,
// current win streak) from persisted fights. It only reads committed storage,
// so the fan-out is safe to run concurrently behind a bounded pool.
type EnrichmentService struct {
	fighters fighter.Repository
	fights   fight.Repository
	workers  int
	logger   *logging.Logger
}

func NewEnrichmentService(
	fighters fighter.Repository,
	fights fight.Repository,
	workers int,
	logger *logging.Logger,
) *EnrichmentService {
	if workers <= 0 {
		workers = defaultEnrichmentWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &EnrichmentService{
		fighters: fighters,
		fights:   fights,
		workers:  workers,
		logger:   logger,
	}
}

func (s *EnrichmentService) EnrichFighters(ctx context.Context, fighterIDs []int64) (EnrichmentResult, error) {
	ctx, span := startUsecaseSpan(ctx, "EnrichmentService.EnrichFighters")
	defer span.End()

	if len(fighterIDs) == 0 {
		return EnrichmentResult{}, nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return EnrichmentResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var updated atomic.Int32
	var failed atomic.Int32

	var workers sync.WaitGroup
	for _, fighterID := range fighterIDs {
		fighterID := fighterID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			if err := s.enrichOne(ctx, fighterID); err != nil {
				failed.Add(1)
				s.logger.WarnContext(ctx, "fighter enrichment failed", "fighter_id", fighterID, "error", err)
				return
			}
			updated.Add(1)
		}); err != nil {
			workers.Done()
			return EnrichmentResult{}, fmt.Errorf("submit enrichment task: %w", err)
		}
	}
	workers.Wait()

	return EnrichmentResult{Updated: int(updated.Load()), Failed: int(failed.Load())}, nil
}

func (s *EnrichmentService) enrichOne(ctx context.Context, fighterID int64) error {
	fights, err := s.fights.ListByFighter(ctx, fighterID)
	if err != nil {
		return fmt.Errorf("list fights: %w", err)
	}

	stats := deriveFighterStats(fighterID, fights)
	if err := s.fighters.UpdateDerivedStats(ctx, fighterID, stats); err != nil {
		return fmt.Errorf("update derived stats: %w", err)
	}
	return nil
}

// deriveFighterStats walks a fighter's completed fights oldest first. The
// streak counts consecutive wins at the tail of the history; draws and
// cancellations leave it unchanged.
func deriveFighterStats(fighterID int64, fights []fight.Fight) fighter.DerivedStats {
	var stats fighter.DerivedStats
	for _, item := range fights {
		if fight.NormalizeStatus(item.Status) != fight.StatusComplete || item.Result == nil {
			continue
		}
		if item.Result.WinnerID == fighterID {
			stats.WinStreak++
			if isFinish(item.Result.Method) {
				stats.FinishCount++
			}
			continue
		}
		if item.Result.WinnerID != 0 {
			stats.WinStreak = 0
		}
	}
	return stats
}

func isFinish(method string) bool {
	normalized := strings.ToLower(strings.TrimSpace(method))
	return strings.Contains(normalized, "ko") ||
		strings.Contains(normalized, "knockout") ||
		strings.Contains(normalized, "submission")
}
