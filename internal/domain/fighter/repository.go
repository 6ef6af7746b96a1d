package fighter

import "context"

// DerivedStats are recomputed from persisted fights, never scraped.
type DerivedStats struct {
	FinishCount int
	WinStreak   int
}

type Repository interface {
	UpsertMany(ctx context.Context, fighters []Fighter) error
	ResolveIDs(ctx context.Context, keys []NameKey) (map[NameKey]int64, error)
	GetByID(ctx context.Context, id int64) (Fighter, error)
	UpdateDerivedStats(ctx context.Context, id int64, stats DerivedStats) error
	Count(ctx context.Context) (int64, error)
}
