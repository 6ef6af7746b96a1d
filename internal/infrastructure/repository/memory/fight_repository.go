package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fight"
)

type FightRepository struct {
	mu    sync.RWMutex
	seq   int64
	byKey map[fight.Key]int64
	byID  map[int64]fight.Fight
}

func NewFightRepository() *FightRepository {
	return &FightRepository{
		byKey: make(map[fight.Key]int64),
		byID:  make(map[int64]fight.Fight),
	}
}

func (r *FightRepository) UpsertMany(_ context.Context, fights []fight.Fight) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, incoming := range fights {
		if incoming.EventID == 0 || incoming.Fighter1ID == 0 || incoming.Fighter2ID == 0 {
			return fmt.Errorf("fight is missing references event=%d f1=%d f2=%d",
				incoming.EventID, incoming.Fighter1ID, incoming.Fighter2ID)
		}

		key := incoming.Key()
		id, ok := r.byKey[key]
		if !ok {
			r.seq++
			id = r.seq
			incoming.ID = id
			incoming.Status = fight.NormalizeStatus(incoming.Status)
			r.byKey[key] = id
			r.byID[id] = incoming
			continue
		}

		existing := r.byID[id]
		if incoming.WeightClass != "" {
			existing.WeightClass = incoming.WeightClass
		}
		existing.IsTitle = existing.IsTitle || incoming.IsTitle
		if incoming.ScheduledRounds > 0 {
			existing.ScheduledRounds = incoming.ScheduledRounds
		}
		if incoming.OrderOnCard > 0 {
			existing.OrderOnCard = incoming.OrderOnCard
		}
		if incoming.Result != nil {
			existing.Result = incoming.Result
		}
		existing.Status = mergeFightStatus(existing.Status, incoming.Status)
		r.byID[id] = existing
	}

	return nil
}

// mergeFightStatus keeps the stored status when the incoming one would move
// backward. UPCOMING may replace CANCELLED: a fight returning to the card is
// a reinstatement, not a regression.
func mergeFightStatus(stored, incoming string) string {
	stored = fight.NormalizeStatus(stored)
	incoming = fight.NormalizeStatus(incoming)
	if stored == fight.StatusCancelled {
		return incoming
	}
	if incoming == fight.StatusCancelled {
		if stored == fight.StatusUpcoming {
			return incoming
		}
		return stored
	}
	if fight.StatusRank(incoming) > fight.StatusRank(stored) {
		return incoming
	}
	return stored
}

func (r *FightRepository) ListByEvent(_ context.Context, eventID int64) ([]fight.Fight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fight.Fight, 0, 8)
	for _, item := range r.byID {
		if item.EventID == eventID {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderOnCard < out[j].OrderOnCard })
	return out, nil
}

func (r *FightRepository) ListByFighter(_ context.Context, fighterID int64) ([]fight.Fight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fight.Fight, 0, 8)
	for _, item := range r.byID {
		if item.Fighter1ID == fighterID || item.Fighter2ID == fighterID {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *FightRepository) UpdateStatus(_ context.Context, id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("fight id=%d not found", id)
	}
	item.Status = mergeFightStatus(item.Status, status)
	r.byID[id] = item
	return nil
}

func (r *FightRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}

func (r *FightRepository) List() []fight.Fight {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fight.Fight, 0, len(r.byID))
	for _, item := range r.byID {
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
