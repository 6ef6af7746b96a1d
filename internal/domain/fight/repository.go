package fight

import "context"

type Repository interface {
	UpsertMany(ctx context.Context, fights []Fight) error
	ListByEvent(ctx context.Context, eventID int64) ([]Fight, error)
	ListByFighter(ctx context.Context, fighterID int64) ([]Fight, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	Count(ctx context.Context) (int64, error)
}
