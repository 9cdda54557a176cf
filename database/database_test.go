package database

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SirZenith/hnfeed/database/data_model"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"))
	if err != nil {
		t.Fatalf("failed to open database: %s", err)
	}
	t.Cleanup(func() { Close(db) })

	return db
}

func TestUpsertReplacesEntry(t *testing.T) {
	db := openTestDB(t)

	now := time.Now().UTC()
	entry := data_model.ItemEntry{ID: 42, Payload: []byte(`{"id":42}`), FetchedAt: now}
	if err := entry.Upsert(db); err != nil {
		t.Fatalf("first upsert failed: %s", err)
	}

	entry.Payload = []byte(`{"id":42,"title":"changed"}`)
	if err := entry.Upsert(db); err != nil {
		t.Fatalf("second upsert failed: %s", err)
	}

	stored := data_model.ItemEntry{}
	if err := db.First(&stored, 42).Error; err != nil {
		t.Fatalf("failed to read entry: %s", err)
	}

	if string(stored.Payload) != `{"id":42,"title":"changed"}` {
		t.Errorf("output:\n\t%q\nwant:\n\t%q", stored.Payload, entry.Payload)
	}

	var cnt int64
	db.Model(&data_model.ItemEntry{}).Count(&cnt)
	if cnt != 1 {
		t.Errorf("expecting 1 row, got %d", cnt)
	}
}

func TestStatsAndPrune(t *testing.T) {
	db := openTestDB(t)

	now := time.Now().UTC()
	old := now.Add(-48 * time.Hour)

	entries := []data_model.DataModel{
		&data_model.ItemEntry{ID: 1, Payload: []byte("12345"), FetchedAt: old},
		&data_model.ItemEntry{ID: 2, Payload: []byte("123"), FetchedAt: now},
		&data_model.FeedEntry{Page: "topstories", IDs: []byte("[1,2]"), FetchedAt: now},
		&data_model.FaviconEntry{SiteURL: "https://example.com", Data: []byte{1, 2}, FetchedAt: old},
	}
	for _, entry := range entries {
		if err := entry.Upsert(db); err != nil {
			t.Fatalf("upsert failed: %s", err)
		}
	}

	stats, err := Stats(db)
	if err != nil {
		t.Fatalf("failed to collect stats: %s", err)
	}

	if len(stats) != len(AllTables) {
		t.Fatalf("expecting stats for %d tables, got %d", len(AllTables), len(stats))
	}

	items := stats[0]
	if items.Table != TableItems || items.RowCnt != 2 || items.ByteCnt != 8 {
		t.Errorf("unexpected item stats: %+v", items)
	}

	deleted, err := Prune(db, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("prune failed: %s", err)
	}

	if deleted != 2 {
		t.Errorf("expecting 2 pruned rows, got %d", deleted)
	}

	var cnt int64
	db.Model(&data_model.ItemEntry{}).Count(&cnt)
	if cnt != 1 {
		t.Errorf("expecting 1 item left, got %d", cnt)
	}
}

func TestExportCSV(t *testing.T) {
	db := openTestDB(t)

	entry := data_model.FaviconEntry{
		SiteURL:     "https://example.com",
		IconURL:     "https://example.com/favicon.ico",
		ContentType: "image/x-icon",
		Data:        []byte{0, 0, 1, 0},
		FetchedAt:   time.Now().UTC(),
	}
	if err := entry.Upsert(db); err != nil {
		t.Fatalf("upsert failed: %s", err)
	}

	outputName := filepath.Join(t.TempDir(), "favicons.csv")
	if err := ExportCSV(db, TableFavicons, outputName); err != nil {
		t.Fatalf("export failed: %s", err)
	}

	file, err := os.Open(outputName)
	if err != nil {
		t.Fatalf("failed to open output: %s", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("failed to read CSV: %s", err)
	}

	if len(records) != 2 {
		t.Fatalf("expecting header and one row, got %d records", len(records))
	}

	header, row := records[0], records[1]
	for i, name := range header {
		if name == "data" && row[i] != "<4 bytes>" {
			t.Errorf("binary column should be summarized, got %q", row[i])
		}
		if name == "site_url" && row[i] != entry.SiteURL {
			t.Errorf("output:\n\t%q\nwant:\n\t%q", row[i], entry.SiteURL)
		}
	}

	if err := ExportCSV(db, "books", outputName); err == nil {
		t.Errorf("expecting error for unknown table")
	}
}
