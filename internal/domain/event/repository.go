package event

import "context"

type Repository interface {
	UpsertMany(ctx context.Context, events []Event) error
	ResolveIDs(ctx context.Context, keys []Key) (map[Key]int64, error)
	ListUpcoming(ctx context.Context) ([]Event, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	Count(ctx context.Context) (int64, error)
}
