package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/event"
)

type EventRepository struct {
	mu    sync.RWMutex
	seq   int64
	byKey map[event.Key]int64
	byID  map[int64]event.Event
}

func NewEventRepository() *EventRepository {
	return &EventRepository{
		byKey: make(map[event.Key]int64),
		byID:  make(map[int64]event.Event),
	}
}

func (r *EventRepository) UpsertMany(_ context.Context, events []event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, incoming := range events {
		key := incoming.Key()
		if key.Name == "" {
			return fmt.Errorf("event has empty name key")
		}

		id, ok := r.byKey[key]
		if !ok {
			r.seq++
			id = r.seq
			incoming.ID = id
			incoming.Status = event.NormalizeStatus(incoming.Status)
			r.byKey[key] = id
			r.byID[id] = incoming
			continue
		}

		existing := r.byID[id]
		existing.Promotion = overlay(existing.Promotion, incoming.Promotion)
		existing.Venue = overlay(existing.Venue, incoming.Venue)
		existing.Location = overlay(existing.Location, incoming.Location)
		existing.BannerImageRef = overlay(existing.BannerImageRef, incoming.BannerImageRef)
		if !incoming.MainCardStartUTC.IsZero() {
			existing.MainCardStartUTC = incoming.MainCardStartUTC
		}
		if incoming.PrelimStartUTC != nil {
			existing.PrelimStartUTC = incoming.PrelimStartUTC
		}
		if event.StatusRank(incoming.Status) > event.StatusRank(existing.Status) {
			existing.Status = event.NormalizeStatus(incoming.Status)
		}
		r.byID[id] = existing
	}

	return nil
}

func (r *EventRepository) ResolveIDs(_ context.Context, keys []event.Key) (map[event.Key]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[event.Key]int64, len(keys))
	for _, key := range keys {
		if id, ok := r.byKey[key]; ok {
			out[key] = id
		}
	}
	return out, nil
}

func (r *EventRepository) ListUpcoming(_ context.Context) ([]event.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]event.Event, 0, len(r.byID))
	for _, item := range r.byID {
		if event.NormalizeStatus(item.Status) == event.StatusUpcoming {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateStatus applies a forward-only transition; a regressing status is
// silently kept at the stored value.
func (r *EventRepository) UpdateStatus(_ context.Context, id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("event id=%d not found", id)
	}
	if event.StatusRank(status) > event.StatusRank(item.Status) {
		item.Status = event.NormalizeStatus(status)
		r.byID[id] = item
	}
	return nil
}

func (r *EventRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}

func (r *EventRepository) List() []event.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]event.Event, 0, len(r.byID))
	for _, item := range r.byID {
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
