package cache

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/SirZenith/hnfeed/cmd/internal/app"
	"github.com/SirZenith/hnfeed/database"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "cache database management utility",
		Commands: []*cli.Command{
			subCmdStats(),
			subCmdPrune(),
			subCmdExport(),
			subCmdPath(),
		},
	}
}

// openCache opens cache database named in config, ignoring no_cache option.
func openCache(cmd *cli.Command) (*gorm.DB, error) {
	cfg, err := app.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}

	return database.Open(cfg.Database)
}

func subCmdStats() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "print row count and size of each cache table",
		Action: func(_ context.Context, cmd *cli.Command) error {
			db, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer database.Close(db)

			stats, err := database.Stats(db)
			if err != nil {
				return err
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "TABLE\tROWS\tSIZE\tOLDEST\tNEWEST")
			for _, s := range stats {
				fmt.Fprintf(
					writer, "%s\t%s\t%s\t%s\t%s\n",
					s.Table, humanize.Comma(s.RowCnt), humanize.Bytes(uint64(max(s.ByteCnt, 0))),
					formatTime(s.OldestAt), formatTime(s.NewestAt),
				)
			}

			return writer.Flush()
		},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func subCmdPrune() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "delete cache entries older than given age",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "older-than",
				Usage: "age of entries to delete",
				Value: 24 * time.Hour,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			db, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer database.Close(db)

			before := time.Now().Add(-cmd.Duration("older-than"))

			cnt, err := database.Prune(db, before)
			if err != nil {
				return err
			}

			log.Infof("deleted %s entries fetched before %s", humanize.Comma(cnt), before.Format(time.DateTime))

			return nil
		},
	}
}

func subCmdExport() *cli.Command {
	var tableName string
	var csvFilePath string

	return &cli.Command{
		Name:  "export",
		Usage: "export cache table as CSV",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "table-name",
				UsageText:   "<" + strings.Join(database.AllTables, "|") + ">",
				Destination: &tableName,
			},
			&cli.StringArg{
				Name:        "csv-file",
				UsageText:   " <csv>",
				Destination: &csvFilePath,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if tableName == "" || csvFilePath == "" {
				return fmt.Errorf("table name and CSV file path are required")
			}

			db, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer database.Close(db)

			return database.ExportCSV(db, tableName, csvFilePath)
		},
	}
}

func subCmdPath() *cli.Command {
	return &cli.Command{
		Name:  "path",
		Usage: "print path of cache database and log file",
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			fmt.Println("database:", cfg.Database)
			fmt.Println("log:     ", app.DefaultLogFile())

			return nil
		},
	}
}
