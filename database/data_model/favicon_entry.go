package data_model

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FaviconEntry struct {
	SiteURL     string `gorm:"primaryKey"` // scheme and host of the site
	IconURL     string
	ContentType string
	Data        []byte
	Failed      bool      // Mark true when no favicon could be found for this site
	FetchedAt   time.Time `gorm:"index"`
}

func (entry *FaviconEntry) Upsert(db *gorm.DB) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "site_url"}},
		UpdateAll: true,
	}).Create(entry).Error
}
