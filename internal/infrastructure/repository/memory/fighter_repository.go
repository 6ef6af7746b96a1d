package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fighter"
)

type FighterRepository struct {
	mu     sync.RWMutex
	seq    int64
	byKey  map[fighter.NameKey]int64
	byID   map[int64]fighter.Fighter
}

func NewFighterRepository() *FighterRepository {
	return &FighterRepository{
		byKey: make(map[fighter.NameKey]int64),
		byID:  make(map[int64]fighter.Fighter),
	}
}

func (r *FighterRepository) UpsertMany(_ context.Context, fighters []fighter.Fighter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, incoming := range fighters {
		key := incoming.Key()
		if key.FirstName == "" && key.LastName == "" {
			return fmt.Errorf("fighter has empty name key")
		}

		id, ok := r.byKey[key]
		if !ok {
			r.seq++
			id = r.seq
			incoming.ID = id
			r.byKey[key] = id
			r.byID[id] = incoming
			continue
		}

		existing := r.byID[id]
		existing.Nickname = overlay(existing.Nickname, incoming.Nickname)
		existing.CountryCode = overlay(existing.CountryCode, incoming.CountryCode)
		existing.ProfileImageRef = overlay(existing.ProfileImageRef, incoming.ProfileImageRef)
		existing.Gender = overlay(existing.Gender, incoming.Gender)
		if incoming.Record != nil {
			existing.Record = incoming.Record
		}
		if incoming.WeightClass != fighter.WeightClassUnknown {
			existing.WeightClass = incoming.WeightClass
		}
		existing.Champion = existing.Champion || incoming.Champion
		r.byID[id] = existing
	}

	return nil
}

func (r *FighterRepository) ResolveIDs(_ context.Context, keys []fighter.NameKey) (map[fighter.NameKey]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[fighter.NameKey]int64, len(keys))
	for _, key := range keys {
		if id, ok := r.byKey[key]; ok {
			out[key] = id
		}
	}
	return out, nil
}

func (r *FighterRepository) GetByID(_ context.Context, id int64) (fighter.Fighter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byID[id]
	if !ok {
		return fighter.Fighter{}, fmt.Errorf("fighter id=%d not found", id)
	}
	return item, nil
}

func (r *FighterRepository) UpdateDerivedStats(_ context.Context, id int64, stats fighter.DerivedStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("fighter id=%d not found", id)
	}
	item.FinishCount = stats.FinishCount
	item.WinStreak = stats.WinStreak
	r.byID[id] = item
	return nil
}

func (r *FighterRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}

// List returns all fighters ordered by ID, for tests.
func (r *FighterRepository) List() []fighter.Fighter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fighter.Fighter, 0, len(r.byID))
	for _, item := range r.byID {
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func overlay(existing, incoming string) string {
	if incoming == "" {
		return existing
	}
	return incoming
}
