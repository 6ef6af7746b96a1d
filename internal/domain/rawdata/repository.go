package rawdata

import "context"

type Repository interface {
	UpsertMany(ctx context.Context, items []Payload) error
	Count(ctx context.Context) (int64, error)
}
