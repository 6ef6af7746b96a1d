package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fight"
	qb "github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/querybuilder"
)

type FightRepository struct {
	db *sqlx.DB
}

var fightSelectColumns = []string{
	"id",
	"event_id",
	"fighter1_id",
	"fighter2_id",
	"weight_class",
	"is_title",
	"scheduled_rounds",
	"order_on_card",
	"status",
	"winner_id",
	"method",
	"result_round",
	"result_time",
	"created_at",
	"updated_at",
	"deleted_at",
}

// fightStatusGuard enforces the one-way state machine with the single
// reinstatement exception: a CANCELLED fight that reappears in a scrape takes
// the incoming status.
const fightStatusGuard = `CASE
        WHEN fights.status = 'CANCELLED' THEN EXCLUDED.status
        WHEN EXCLUDED.status = 'CANCELLED' AND fights.status = 'UPCOMING' THEN 'CANCELLED'
        WHEN EXCLUDED.status = 'CANCELLED' THEN fights.status
        WHEN fights.status = 'UPCOMING' THEN EXCLUDED.status
        WHEN fights.status = 'LIVE' AND EXCLUDED.status = 'COMPLETE' THEN 'COMPLETE'
        ELSE fights.status
    END`

// The conflict target matches the unordered-pair unique index, so the same
// bout upserts regardless of which corner the source listed first.
const fightUpsertSuffix = `ON CONFLICT (event_id, LEAST(fighter1_id, fighter2_id), GREATEST(fighter1_id, fighter2_id)) WHERE deleted_at IS NULL
DO UPDATE SET
    weight_class = COALESCE(NULLIF(EXCLUDED.weight_class, ''), fights.weight_class),
    is_title = fights.is_title OR EXCLUDED.is_title,
    scheduled_rounds = CASE WHEN EXCLUDED.scheduled_rounds > 0 THEN EXCLUDED.scheduled_rounds ELSE fights.scheduled_rounds END,
    order_on_card = CASE WHEN EXCLUDED.order_on_card > 0 THEN EXCLUDED.order_on_card ELSE fights.order_on_card END,
    status = ` + fightStatusGuard + `,
    winner_id = COALESCE(EXCLUDED.winner_id, fights.winner_id),
    method = COALESCE(EXCLUDED.method, fights.method),
    result_round = COALESCE(EXCLUDED.result_round, fights.result_round),
    result_time = COALESCE(EXCLUDED.result_time, fights.result_time),
    updated_at = NOW()`

func NewFightRepository(db *sqlx.DB) *FightRepository {
	return &FightRepository{db: db}
}

func (r *FightRepository) UpsertMany(ctx context.Context, fights []fight.Fight) error {
	if len(fights) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert fights: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range fights {
		query, args, err := qb.InsertModel("fights", fightInsertFromDomain(item), fightUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert fight query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert fight event_id=%d fighters=%d/%d: %w",
				item.EventID, item.Fighter1ID, item.Fighter2ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert fights tx: %w", err)
	}
	return nil
}

func (r *FightRepository) ListByEvent(ctx context.Context, eventID int64) ([]fight.Fight, error) {
	query, args, err := qb.Select(fightSelectColumns...).From("fights").
		Where(
			qb.Eq("event_id", eventID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("order_on_card", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fights by event query: %w", err)
	}

	var rows []fightTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fights by event: %w", err)
	}

	out := make([]fight.Fight, 0, len(rows))
	for _, row := range rows {
		out = append(out, fightFromRow(row))
	}
	return out, nil
}

func (r *FightRepository) ListByFighter(ctx context.Context, fighterID int64) ([]fight.Fight, error) {
	query, args, err := qb.Select(fightSelectColumns...).From("fights").
		Where(
			qb.Expr("(fighter1_id = ? OR fighter2_id = ?)", fighterID, fighterID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fights by fighter query: %w", err)
	}

	var rows []fightTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fights by fighter: %w", err)
	}

	out := make([]fight.Fight, 0, len(rows))
	for _, row := range rows {
		out = append(out, fightFromRow(row))
	}
	return out, nil
}

func (r *FightRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	normalized := fight.NormalizeStatus(status)
	query, args, err := qb.Update("fights").
		SetExpr("status", `CASE
            WHEN fights.status = 'CANCELLED' THEN ?
            WHEN ? = 'CANCELLED' AND fights.status = 'UPCOMING' THEN 'CANCELLED'
            WHEN ? = 'CANCELLED' THEN fights.status
            WHEN fights.status = 'UPCOMING' THEN ?
            WHEN fights.status = 'LIVE' AND ? = 'COMPLETE' THEN 'COMPLETE'
            ELSE fights.status
        END`, normalized, normalized, normalized, normalized, normalized).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("id", id),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update fight status query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update fight status id=%d: %w", id, err)
	}
	return nil
}

func (r *FightRepository) Count(ctx context.Context) (int64, error) {
	query, args, err := qb.Select("COUNT(*)").From("fights").
		Where(qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count fights query: %w", err)
	}

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count fights: %w", err)
	}
	return count, nil
}
