package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/event"
	qb "github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/querybuilder"
)

type EventRepository struct {
	db *sqlx.DB
}

var eventSelectColumns = []string{
	"id",
	"name",
	"name_key",
	"event_date",
	"promotion",
	"venue",
	"location",
	"main_card_start_utc",
	"prelim_start_utc",
	"status",
	"banner_image_ref",
	"created_at",
	"updated_at",
	"deleted_at",
}

// eventStatusGuard only ever moves status forward. UPCOMING -> LIVE ->
// COMPLETE; stale scrapes cannot walk an event back.
const eventStatusGuard = `CASE
        WHEN events.status = 'UPCOMING' THEN EXCLUDED.status
        WHEN events.status = 'LIVE' AND EXCLUDED.status = 'COMPLETE' THEN EXCLUDED.status
        ELSE events.status
    END`

const eventUpsertSuffix = `ON CONFLICT (name_key, event_date) WHERE deleted_at IS NULL
DO UPDATE SET
    name = EXCLUDED.name,
    promotion = COALESCE(NULLIF(EXCLUDED.promotion, ''), events.promotion),
    venue = COALESCE(NULLIF(EXCLUDED.venue, ''), events.venue),
    location = COALESCE(NULLIF(EXCLUDED.location, ''), events.location),
    main_card_start_utc = COALESCE(EXCLUDED.main_card_start_utc, events.main_card_start_utc),
    prelim_start_utc = COALESCE(EXCLUDED.prelim_start_utc, events.prelim_start_utc),
    status = ` + eventStatusGuard + `,
    banner_image_ref = COALESCE(NULLIF(EXCLUDED.banner_image_ref, ''), events.banner_image_ref),
    updated_at = NOW()`

func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) UpsertMany(ctx context.Context, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert events: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range events {
		query, args, err := qb.InsertModel("events", eventInsertFromDomain(item), eventUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert event query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert event %s: %w", item.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert events tx: %w", err)
	}
	return nil
}

func (r *EventRepository) ResolveIDs(ctx context.Context, keys []event.Key) (map[event.Key]int64, error) {
	out := make(map[event.Key]int64, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	names := make([]any, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, exists := seen[key.Name]; exists {
			continue
		}
		seen[key.Name] = struct{}{}
		names = append(names, key.Name)
	}

	query, args, err := qb.Select("id", "name", "event_date").From("events").
		Where(
			qb.In("name_key", names),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build resolve event ids query: %w", err)
	}

	var rows []eventTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("resolve event ids: %w", err)
	}

	byKey := make(map[event.Key]int64, len(rows))
	for _, row := range rows {
		byKey[event.NewKey(row.Name, row.EventDate)] = row.ID
	}
	for _, key := range keys {
		if id, ok := byKey[key]; ok {
			out[key] = id
		}
	}
	return out, nil
}

func (r *EventRepository) ListUpcoming(ctx context.Context) ([]event.Event, error) {
	query, args, err := qb.Select(eventSelectColumns...).From("events").
		Where(
			qb.Eq("status", event.StatusUpcoming),
			qb.IsNull("deleted_at"),
		).
		OrderBy("event_date", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list upcoming events query: %w", err)
	}

	var rows []eventTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}

	out := make([]event.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, eventFromRow(row))
	}
	return out, nil
}

func (r *EventRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	normalized := event.NormalizeStatus(status)
	query, args, err := qb.Update("events").
		SetExpr("status", `CASE
            WHEN events.status = 'UPCOMING' THEN ?
            WHEN events.status = 'LIVE' AND ? = 'COMPLETE' THEN 'COMPLETE'
            ELSE events.status
        END`, normalized, normalized).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("id", id),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update event status query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update event status id=%d: %w", id, err)
	}
	return nil
}

func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	query, args, err := qb.Select("COUNT(*)").From("events").
		Where(qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count events query: %w", err)
	}

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}
