package stories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/SirZenith/hnfeed/cmd/internal/app"
	"github.com/SirZenith/hnfeed/hn"
	"github.com/SirZenith/hnfeed/human_format"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	var pageName string

	return &cli.Command{
		Name:  "stories",
		Usage: "print stories of a tab",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "number of stories to print (default: page size in config)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print items as JSON lines",
			},
			&cli.BoolFlag{
				Name:  "fresh",
				Usage: "bypass cache",
			},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "page",
				UsageText:   "[top|new|show|ask|jobs]",
				Value:       "top",
				Destination: &pageName,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			page, err := hn.ParsePage(pageName)
			if err != nil {
				return err
			}

			env, err := app.Setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			limit := cmd.Int("limit")
			if limit <= 0 {
				limit = env.Config.PageSize
			}

			items, err := fetchStories(ctx, env, page, limit, cmd.Bool("fresh"))
			if err != nil {
				return err
			}

			if cmd.Bool("json") {
				return printJSON(os.Stdout, items)
			}

			printStories(os.Stdout, items, time.Now())

			return nil
		},
	}
}

func fetchStories(ctx context.Context, env *app.Env, page hn.Page, limit int, fresh bool) ([]*hn.Item, error) {
	var ids []hn.ItemID
	var err error
	if fresh {
		ids, err = env.Client.FetchPageIDsFresh(ctx, page)
	} else {
		ids, err = env.Client.FetchPageIDs(ctx, page)
	}
	if err != nil {
		return nil, err
	}

	if len(ids) > limit {
		ids = ids[:limit]
	}

	if fresh {
		return env.Client.FetchItemsFresh(ctx, ids)
	}
	return env.Client.FetchItems(ctx, ids)
}

func printJSON(w io.Writer, items []*hn.Item) error {
	encoder := json.NewEncoder(w)
	for _, item := range items {
		if err := encoder.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

func printStories(w io.Writer, items []*hn.Item, now time.Time) {
	for i, item := range items {
		fmt.Fprintf(w, "%3d. %s", i+1, item.Title)
		if u := item.ParsedURL(); u != nil {
			fmt.Fprintf(w, " (%s)", human_format.URL(u))
		}
		fmt.Fprintln(w)

		meta := []string{}
		if points, ok := human_format.Points(item.Score); ok {
			meta = append(meta, points)
		}
		if item.By != "" {
			meta = append(meta, "by "+item.By)
		}
		if !item.Time.IsZero() {
			meta = append(meta, human_format.DateTime(item.Time, now))
		}
		meta = append(meta, human_format.CommentCount(item.Descendants), fmt.Sprintf("id %d", item.ID))

		fmt.Fprintf(w, "     %s\n", strings.Join(meta, " • "))
	}
}
