package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fighter"
	qb "github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/querybuilder"
)

type FighterRepository struct {
	db *sqlx.DB
}

var fighterSelectColumns = []string{
	"id",
	"first_name",
	"last_name",
	"first_name_key",
	"last_name_key",
	"nickname",
	"wins",
	"losses",
	"draws",
	"weight_class",
	"gender",
	"is_champion",
	"country_code",
	"profile_image_ref",
	"finish_count",
	"win_streak",
	"created_at",
	"updated_at",
	"deleted_at",
}

// fighterUpsertSuffix keeps re-imports lossless: unset optional fields never
// clear stored values, and the champion flag only turns on.
const fighterUpsertSuffix = `ON CONFLICT (first_name_key, last_name_key) WHERE deleted_at IS NULL
DO UPDATE SET
    first_name = EXCLUDED.first_name,
    last_name = EXCLUDED.last_name,
    nickname = COALESCE(NULLIF(EXCLUDED.nickname, ''), fighters.nickname),
    wins = COALESCE(EXCLUDED.wins, fighters.wins),
    losses = COALESCE(EXCLUDED.losses, fighters.losses),
    draws = COALESCE(EXCLUDED.draws, fighters.draws),
    weight_class = COALESCE(NULLIF(EXCLUDED.weight_class, ''), fighters.weight_class),
    gender = COALESCE(NULLIF(EXCLUDED.gender, ''), fighters.gender),
    is_champion = fighters.is_champion OR EXCLUDED.is_champion,
    country_code = COALESCE(NULLIF(EXCLUDED.country_code, ''), fighters.country_code),
    profile_image_ref = COALESCE(NULLIF(EXCLUDED.profile_image_ref, ''), fighters.profile_image_ref),
    updated_at = NOW()`

func NewFighterRepository(db *sqlx.DB) *FighterRepository {
	return &FighterRepository{db: db}
}

func (r *FighterRepository) UpsertMany(ctx context.Context, fighters []fighter.Fighter) error {
	if len(fighters) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert fighters: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range fighters {
		query, args, err := qb.InsertModel("fighters", fighterInsertFromDomain(item), fighterUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert fighter query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert fighter %s %s: %w", item.FirstName, item.LastName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert fighters tx: %w", err)
	}
	return nil
}

func (r *FighterRepository) ResolveIDs(ctx context.Context, keys []fighter.NameKey) (map[fighter.NameKey]int64, error) {
	out := make(map[fighter.NameKey]int64, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	lastKeys := make([]any, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, exists := seen[key.LastName]; exists {
			continue
		}
		seen[key.LastName] = struct{}{}
		lastKeys = append(lastKeys, key.LastName)
	}

	// Candidates by last name; the exact (first, last) match happens in Go so
	// the query stays a simple IN.
	query, args, err := qb.Select("id", "first_name_key", "last_name_key").From("fighters").
		Where(
			qb.In("last_name_key", lastKeys),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build resolve fighter ids query: %w", err)
	}

	var rows []struct {
		ID           int64  `db:"id"`
		FirstNameKey string `db:"first_name_key"`
		LastNameKey  string `db:"last_name_key"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("resolve fighter ids: %w", err)
	}

	byKey := make(map[fighter.NameKey]int64, len(rows))
	for _, row := range rows {
		byKey[fighter.NameKey{FirstName: row.FirstNameKey, LastName: row.LastNameKey}] = row.ID
	}
	for _, key := range keys {
		if id, ok := byKey[key]; ok {
			out[key] = id
		}
	}
	return out, nil
}

func (r *FighterRepository) GetByID(ctx context.Context, id int64) (fighter.Fighter, error) {
	query, args, err := qb.Select(fighterSelectColumns...).From("fighters").
		Where(
			qb.Eq("id", id),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fighter.Fighter{}, fmt.Errorf("build get fighter query: %w", err)
	}

	var row fighterTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fighter.Fighter{}, fmt.Errorf("fighter id=%d not found", id)
		}
		return fighter.Fighter{}, fmt.Errorf("get fighter id=%d: %w", id, err)
	}
	return fighterFromRow(row), nil
}

func (r *FighterRepository) UpdateDerivedStats(ctx context.Context, id int64, stats fighter.DerivedStats) error {
	query, args, err := qb.Update("fighters").
		Set("finish_count", stats.FinishCount).
		Set("win_streak", stats.WinStreak).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("id", id),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update fighter stats query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update fighter stats id=%d: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("fighter id=%d not found", id)
	}
	return nil
}

func (r *FighterRepository) Count(ctx context.Context) (int64, error) {
	query, args, err := qb.Select("COUNT(*)").From("fighters").
		Where(qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count fighters query: %w", err)
	}

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count fighters: %w", err)
	}
	return count, nil
}
