package postgres

import (
	"time"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/event"
)

type eventTableModel struct {
	ID               int64      `db:"id"`
	Name             string     `db:"name"`
	NameKey          string     `db:"name_key"`
	EventDate        time.Time  `db:"event_date"`
	Promotion        string     `db:"promotion"`
	Venue            string     `db:"venue"`
	Location         string     `db:"location"`
	MainCardStartUTC *time.Time `db:"main_card_start_utc"`
	PrelimStartUTC   *time.Time `db:"prelim_start_utc"`
	Status           string     `db:"status"`
	BannerImageRef   string     `db:"banner_image_ref"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
	DeletedAt        *time.Time `db:"deleted_at"`
}

type eventInsertModel struct {
	Name             string     `db:"name"`
	NameKey          string     `db:"name_key"`
	EventDate        time.Time  `db:"event_date"`
	Promotion        string     `db:"promotion"`
	Venue            string     `db:"venue"`
	Location         string     `db:"location"`
	MainCardStartUTC *time.Time `db:"main_card_start_utc"`
	PrelimStartUTC   *time.Time `db:"prelim_start_utc"`
	Status           string     `db:"status"`
	BannerImageRef   string     `db:"banner_image_ref"`
}

func eventInsertFromDomain(item event.Event) eventInsertModel {
	key := item.Key()
	model := eventInsertModel{
		Name:           item.Name,
		NameKey:        key.Name,
		EventDate:      item.Date,
		Promotion:      item.Promotion,
		Venue:          item.Venue,
		Location:       item.Location,
		PrelimStartUTC: item.PrelimStartUTC,
		Status:         event.NormalizeStatus(item.Status),
		BannerImageRef: item.BannerImageRef,
	}
	if !item.MainCardStartUTC.IsZero() {
		start := item.MainCardStartUTC
		model.MainCardStartUTC = &start
	}
	return model
}

func eventFromRow(row eventTableModel) event.Event {
	out := event.Event{
		ID:             row.ID,
		Name:           row.Name,
		Date:           row.EventDate,
		Promotion:      row.Promotion,
		Venue:          row.Venue,
		Location:       row.Location,
		PrelimStartUTC: row.PrelimStartUTC,
		Status:         row.Status,
		BannerImageRef: row.BannerImageRef,
	}
	if row.MainCardStartUTC != nil {
		out.MainCardStartUTC = *row.MainCardStartUTC
	}
	return out
}
