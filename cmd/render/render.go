package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/SirZenith/hnfeed/comment_parser"
	"github.com/muesli/reflow/wordwrap"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "render HN comment markup read from stdin",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "text",
				Usage: "markup to render instead of reading stdin",
			},
			&cli.BoolFlag{
				Name:  "segments",
				Usage: "print parsed segments instead of plain text",
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: "wrap plain text to this many columns, 0 for no wrapping",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			content := cmd.String("text")
			if !cmd.IsSet("text") {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				content = string(data)
			}

			segments := comment_parser.Parse(strings.TrimSpace(content))

			if cmd.Bool("segments") {
				printSegments(os.Stdout, segments)
				return nil
			}

			text := comment_parser.PlainText(segments)
			if width := cmd.Int("width"); width > 0 {
				text = wordwrap.String(text, width)
			}
			fmt.Println(text)

			return nil
		},
	}
}

func printSegments(w io.Writer, segments []comment_parser.Segment) {
	for _, seg := range segments {
		switch seg.Kind {
		case comment_parser.SegmentNewLine:
			fmt.Fprintln(w, seg.Kind)
		case comment_parser.SegmentLink:
			fmt.Fprintf(w, "%s %q -> %s\n", seg.Kind, seg.Text, seg.URL)
		default:
			flags := []string{}
			if seg.Style.Italic {
				flags = append(flags, "italic")
			}
			if seg.Style.Monospace {
				flags = append(flags, "monospace")
			}
			fmt.Fprintf(w, "%s %q %s\n", seg.Kind, seg.Text, strings.Join(flags, ","))
		}
	}
}
