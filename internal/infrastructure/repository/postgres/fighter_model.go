package postgres

import (
	"database/sql"
	"time"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fighter"
)

type fighterTableModel struct {
	ID              int64         `db:"id"`
	FirstName       string        `db:"first_name"`
	LastName        string        `db:"last_name"`
	FirstNameKey    string        `db:"first_name_key"`
	LastNameKey     string        `db:"last_name_key"`
	Nickname        string        `db:"nickname"`
	Wins            sql.NullInt64 `db:"wins"`
	Losses          sql.NullInt64 `db:"losses"`
	Draws           sql.NullInt64 `db:"draws"`
	WeightClass     string        `db:"weight_class"`
	Gender          string        `db:"gender"`
	IsChampion      bool          `db:"is_champion"`
	CountryCode     string        `db:"country_code"`
	ProfileImageRef string        `db:"profile_image_ref"`
	FinishCount     int           `db:"finish_count"`
	WinStreak       int           `db:"win_streak"`
	CreatedAt       time.Time     `db:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at"`
	DeletedAt       *time.Time    `db:"deleted_at"`
}

type fighterInsertModel struct {
	FirstName       string `db:"first_name"`
	LastName        string `db:"last_name"`
	FirstNameKey    string `db:"first_name_key"`
	LastNameKey     string `db:"last_name_key"`
	Nickname        string `db:"nickname"`
	Wins            *int64 `db:"wins"`
	Losses          *int64 `db:"losses"`
	Draws           *int64 `db:"draws"`
	WeightClass     string `db:"weight_class"`
	Gender          string `db:"gender"`
	IsChampion      bool   `db:"is_champion"`
	CountryCode     string `db:"country_code"`
	ProfileImageRef string `db:"profile_image_ref"`
}

func fighterInsertFromDomain(item fighter.Fighter) fighterInsertModel {
	key := item.Key()
	model := fighterInsertModel{
		FirstName:       item.FirstName,
		LastName:        item.LastName,
		FirstNameKey:    key.FirstName,
		LastNameKey:     key.LastName,
		Nickname:        item.Nickname,
		WeightClass:     string(item.WeightClass),
		Gender:          item.Gender,
		IsChampion:      item.Champion,
		CountryCode:     item.CountryCode,
		ProfileImageRef: item.ProfileImageRef,
	}
	if item.Record != nil {
		wins, losses, draws := int64(item.Record.Wins), int64(item.Record.Losses), int64(item.Record.Draws)
		model.Wins, model.Losses, model.Draws = &wins, &losses, &draws
	}
	return model
}

func fighterFromRow(row fighterTableModel) fighter.Fighter {
	out := fighter.Fighter{
		ID:              row.ID,
		FirstName:       row.FirstName,
		LastName:        row.LastName,
		Nickname:        row.Nickname,
		WeightClass:     fighter.WeightClass(row.WeightClass),
		Gender:          row.Gender,
		Champion:        row.IsChampion,
		CountryCode:     row.CountryCode,
		ProfileImageRef: row.ProfileImageRef,
		FinishCount:     row.FinishCount,
		WinStreak:       row.WinStreak,
	}
	if row.Wins.Valid || row.Losses.Valid || row.Draws.Valid {
		out.Record = &fighter.Record{
			Wins:   int(row.Wins.Int64),
			Losses: int(row.Losses.Int64),
			Draws:  int(row.Draws.Int64),
		}
	}
	return out
}
