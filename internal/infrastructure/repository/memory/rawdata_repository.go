package memory

import (
	"context"
	"sync"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/rawdata"
)

type RawDataRepository struct {
	mu    sync.RWMutex
	items map[string]rawdata.Payload
}

func NewRawDataRepository() *RawDataRepository {
	return &RawDataRepository{items: make(map[string]rawdata.Payload)}
}

func (r *RawDataRepository) UpsertMany(_ context.Context, items []rawdata.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		key := item.Source + "|" + item.EntityType + "|" + item.EntityKey
		r.items[key] = item
	}
	return nil
}

func (r *RawDataRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.items)), nil
}
