package data_model

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemEntry caches raw JSON of one item endpoint response.
type ItemEntry struct {
	ID        int       `gorm:"primaryKey;autoIncrement:false"`
	Payload   []byte    // raw item JSON, empty when Missing is set
	Missing   bool      // API answered null for this ID
	FetchedAt time.Time `gorm:"index"`
}

func (entry *ItemEntry) Upsert(db *gorm.DB) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(entry).Error
}
