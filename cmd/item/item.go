package item

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/SirZenith/hnfeed/cmd/internal/app"
	"github.com/SirZenith/hnfeed/comment_parser"
	"github.com/SirZenith/hnfeed/hn"
	"github.com/SirZenith/hnfeed/hnapi"
	"github.com/SirZenith/hnfeed/human_format"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
	"github.com/urfave/cli/v3"
)

const indentWidth = 4

func Cmd() *cli.Command {
	var id int

	return &cli.Command{
		Name:  "item",
		Usage: "print a story or comment with its replies",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "width",
				Usage: "wrap text to this many columns",
				Value: 80,
			},
			&cli.IntFlag{
				Name:  "depth",
				Usage: "maximum reply depth to load, 0 for no limit",
			},
			&cli.BoolFlag{
				Name:  "no-comments",
				Usage: "print only the item itself",
			},
		},
		Arguments: []cli.Argument{
			&cli.IntArg{
				Name:        "id",
				UsageText:   "<id>",
				Destination: &id,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if id <= 0 {
				return fmt.Errorf("invalid item id %d", id)
			}

			env, err := app.Setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			item, err := env.Client.FetchItem(ctx, hn.ItemID(id))
			if err != nil {
				return err
			}

			printer := &treePrinter{
				writer: os.Stdout,
				width:  max(cmd.Int("width"), 20),
				now:    time.Now(),
			}
			printer.printRoot(item)

			if cmd.Bool("no-comments") {
				return nil
			}

			tree, err := env.Client.LoadCommentTree(ctx, item, cmd.Int("depth"))
			if err != nil {
				return err
			}
			printer.printTree(tree)

			return nil
		},
	}
}

type treePrinter struct {
	writer io.Writer
	width  int
	now    time.Time
}

func (p *treePrinter) printRoot(item *hn.Item) {
	if item.Title != "" {
		fmt.Fprintln(p.writer, item.Title)
	}
	if u := item.ParsedURL(); u != nil {
		fmt.Fprintf(p.writer, "%s (%s)\n", item.URL, human_format.URL(u))
	}

	meta := []string{}
	if points, ok := human_format.Points(item.Score); ok {
		meta = append(meta, points)
	}
	meta = append(meta, p.byline(item))
	if item.IsStoryLike() {
		meta = append(meta, human_format.CommentCount(item.Descendants))
	}
	fmt.Fprintln(p.writer, strings.Join(meta, " • "))
	fmt.Fprintln(p.writer, hnapi.ItemWebURL(item.ID))

	if item.Text != "" {
		fmt.Fprintln(p.writer)
		fmt.Fprintln(p.writer, p.wrapText(item.Text, p.width))
	}

	fmt.Fprintln(p.writer, strings.Repeat("-", p.width))
}

func (p *treePrinter) printTree(tree *hnapi.CommentTree) {
	tree.Walk(func(comment hnapi.Comment) {
		level := uint(indentWidth * (comment.Depth - 1))

		item := comment.Item
		if comment.Err != nil {
			fmt.Fprintln(p.writer, indent.String("[error] "+comment.Err.Error(), level))
			fmt.Fprintln(p.writer)
			return
		}

		header := "[deleted]"
		if !item.Deleted && !item.Dead {
			header = p.byline(item)
		}
		fmt.Fprintln(p.writer, indent.String(header, level))

		if item.Text != "" {
			body := p.wrapText(item.Text, max(p.width-int(level), 20))
			fmt.Fprintln(p.writer, indent.String(body, level))
		}

		fmt.Fprintln(p.writer)
	})
}

func (p *treePrinter) byline(item *hn.Item) string {
	parts := []string{}
	if item.By != "" {
		parts = append(parts, item.By)
	}
	if !item.Time.IsZero() {
		parts = append(parts, human_format.DateTime(item.Time, p.now))
	}
	return strings.Join(parts, " • ")
}

func (p *treePrinter) wrapText(text string, width int) string {
	plain := comment_parser.ToPlainText(text)
	return wrap.String(wordwrap.String(plain, width), width)
}
