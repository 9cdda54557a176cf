package database

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/SirZenith/hnfeed/common"
	"github.com/SirZenith/hnfeed/database/data_model"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TableItems    = "items"
	TableFeeds    = "feeds"
	TableFavicons = "favicons"
)

var AllTables = []string{TableItems, TableFeeds, TableFavicons}

func Open(filePath string) (*gorm.DB, error) {
	if filePath != ":memory:" {
		if err := common.EnsureDir(filepath.Dir(filePath)); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(filePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %s: %w", filePath, err)
	}

	if err = Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Close(db *gorm.DB) error {
	inner, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to close database, can't read inner data: %w", err)
	}

	err = inner.Close()
	if err != nil {
		return fmt.Errorf("failed to close inner database: %w", err)
	}

	return nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&data_model.ItemEntry{},
		&data_model.FeedEntry{},
		&data_model.FaviconEntry{},
	)
	if err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	return nil
}

// GetModel returns model value for given table name, nil is returned for
// unknown table.
func GetModel(tableName string) any {
	switch tableName {
	case TableItems:
		return &data_model.ItemEntry{}
	case TableFeeds:
		return &data_model.FeedEntry{}
	case TableFavicons:
		return &data_model.FaviconEntry{}
	default:
		return nil
	}
}

type TableStats struct {
	Table    string
	RowCnt   int64
	ByteCnt  int64 // total size of payload column
	OldestAt time.Time
	NewestAt time.Time
}

var payloadColumns = map[string]string{
	TableItems:    "payload",
	TableFeeds:    "ids",
	TableFavicons: "data",
}

// Stats collects row count and payload size of every cache table.
func Stats(db *gorm.DB) ([]TableStats, error) {
	result := make([]TableStats, 0, len(AllTables))

	for _, table := range AllTables {
		stats := TableStats{Table: table}

		row := struct {
			RowCnt   int64
			ByteCnt  int64
			OldestAt string
			NewestAt string
		}{}

		err := db.Model(GetModel(table)).Select(
			"COUNT(*) AS row_cnt, COALESCE(SUM(LENGTH(" + payloadColumns[table] + ")), 0) AS byte_cnt, " +
				"COALESCE(MIN(fetched_at), '') AS oldest_at, COALESCE(MAX(fetched_at), '') AS newest_at",
		).Scan(&row).Error
		if err != nil {
			return nil, fmt.Errorf("failed to query stats of %s: %w", table, err)
		}

		stats.RowCnt = row.RowCnt
		stats.ByteCnt = row.ByteCnt
		stats.OldestAt = parseSQLiteTime(row.OldestAt)
		stats.NewestAt = parseSQLiteTime(row.NewestAt)

		result = append(result, stats)
	}

	return result, nil
}

var sqliteTimeFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseSQLiteTime(value string) time.Time {
	for _, format := range sqliteTimeFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Prune deletes all cache entries fetched before given time, returns number of
// deleted rows.
func Prune(db *gorm.DB, before time.Time) (int64, error) {
	total := int64(0)

	for _, table := range AllTables {
		result := db.Where("fetched_at < ?", before.UTC()).Delete(GetModel(table))
		if result.Error != nil {
			return total, fmt.Errorf("failed to prune %s: %w", table, result.Error)
		}
		total += result.RowsAffected
	}

	return total, nil
}

// ExportCSV writes all rows of given table to CSV file.
func ExportCSV(db *gorm.DB, tableName string, csvFilePath string) error {
	model := GetModel(tableName)
	if model == nil {
		return fmt.Errorf("invald table name %q", tableName)
	}

	rows, err := db.Model(model).Rows()
	if err != nil {
		return fmt.Errorf("failed to make query to table %s: %w", tableName, err)
	}
	defer rows.Close()

	converter := New(rows)
	converter.TimeFormat = time.RFC3339
	if tableName == TableFavicons {
		converter.BinaryColumns = []string{"data"}
	}

	return converter.WriteFile(csvFilePath)
}
