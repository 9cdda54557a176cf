package data_model

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedEntry caches story ID list of one story page.
type FeedEntry struct {
	Page      string `gorm:"primaryKey"` // endpoint name, e.g. topstories
	IDs       []byte // JSON array of item IDs
	FetchedAt time.Time
}

func (entry *FeedEntry) Upsert(db *gorm.DB) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "page"}},
		UpdateAll: true,
	}).Create(entry).Error
}
