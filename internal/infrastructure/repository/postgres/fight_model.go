package postgres

import (
	"database/sql"
	"time"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fight"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fighter"
)

type fightTableModel struct {
	ID              int64          `db:"id"`
	EventID         int64          `db:"event_id"`
	Fighter1ID      int64          `db:"fighter1_id"`
	Fighter2ID      int64          `db:"fighter2_id"`
	WeightClass     string         `db:"weight_class"`
	IsTitle         bool           `db:"is_title"`
	ScheduledRounds int            `db:"scheduled_rounds"`
	OrderOnCard     int            `db:"order_on_card"`
	Status          string         `db:"status"`
	WinnerID        sql.NullInt64  `db:"winner_id"`
	Method          sql.NullString `db:"method"`
	ResultRound     sql.NullInt64  `db:"result_round"`
	ResultTime      sql.NullString `db:"result_time"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	DeletedAt       *time.Time     `db:"deleted_at"`
}

type fightInsertModel struct {
	EventID         int64   `db:"event_id"`
	Fighter1ID      int64   `db:"fighter1_id"`
	Fighter2ID      int64   `db:"fighter2_id"`
	WeightClass     string  `db:"weight_class"`
	IsTitle         bool    `db:"is_title"`
	ScheduledRounds int     `db:"scheduled_rounds"`
	OrderOnCard     int     `db:"order_on_card"`
	Status          string  `db:"status"`
	WinnerID        *int64  `db:"winner_id"`
	Method          *string `db:"method"`
	ResultRound     *int64  `db:"result_round"`
	ResultTime      *string `db:"result_time"`
}

func fightInsertFromDomain(item fight.Fight) fightInsertModel {
	model := fightInsertModel{
		EventID:         item.EventID,
		Fighter1ID:      item.Fighter1ID,
		Fighter2ID:      item.Fighter2ID,
		WeightClass:     string(item.WeightClass),
		IsTitle:         item.IsTitle,
		ScheduledRounds: item.ScheduledRounds,
		OrderOnCard:     item.OrderOnCard,
		Status:          fight.NormalizeStatus(item.Status),
	}
	if item.Result != nil {
		winnerID := item.Result.WinnerID
		method := item.Result.Method
		round := int64(item.Result.Round)
		finishTime := item.Result.Time
		model.WinnerID = &winnerID
		model.Method = &method
		model.ResultRound = &round
		model.ResultTime = &finishTime
	}
	return model
}

func fightFromRow(row fightTableModel) fight.Fight {
	out := fight.Fight{
		ID:              row.ID,
		EventID:         row.EventID,
		Fighter1ID:      row.Fighter1ID,
		Fighter2ID:      row.Fighter2ID,
		WeightClass:     fighter.WeightClass(row.WeightClass),
		IsTitle:         row.IsTitle,
		ScheduledRounds: row.ScheduledRounds,
		OrderOnCard:     row.OrderOnCard,
		Status:          row.Status,
	}
	if row.WinnerID.Valid {
		out.Result = &fight.Result{
			WinnerID: row.WinnerID.Int64,
			Method:   row.Method.String,
			Round:    int(row.ResultRound.Int64),
			Time:     row.ResultTime.String,
		}
	}
	return out
}
