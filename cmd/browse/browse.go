package browse

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/SirZenith/hnfeed/cmd/internal/app"
	"github.com/SirZenith/hnfeed/common"
	"github.com/SirZenith/hnfeed/database"
	"github.com/SirZenith/hnfeed/hn"
	"github.com/SirZenith/hnfeed/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/pkg/browser"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "open terminal reader",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "page",
				Usage: "initial tab, one of top, new, show, ask, jobs",
				Value: "top",
			},
			&cli.BoolFlag{
				Name:  "raw-html",
				Usage: "show comment markup instead of rendering it",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			page, err := hn.ParsePage(cmd.String("page"))
			if err != nil {
				return err
			}

			env, err := app.Setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			logFile, err := redirectLog(cmd)
			if err != nil {
				return err
			}
			if logFile != nil {
				defer logFile.Close()
			}

			return cmdMain(ctx, env, page, !cmd.Bool("raw-html") && env.Config.ShouldRenderHTML())
		},
	}
}

// redirectLog sends log output to default log file so that it does not
// corrupt screen. Nothing is done when log file is given on command line.
func redirectLog(cmd *cli.Command) (io.Closer, error) {
	if cmd.String("log-file") != "" {
		return nil, nil
	}

	path := app.DefaultLogFile()
	if err := common.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	log.SetOutput(file)

	return file, nil
}

func cmdMain(ctx context.Context, env *app.Env, page hn.Page, renderHTML bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// browser launcher writes its own output to terminal
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard

	options := tui.Options{
		Context:    ctx,
		Source:     env.Client,
		Favicons:   env.Favicons,
		Page:       page,
		BatchSize:  env.Config.PageSize,
		RenderHTML: renderHTML,
	}
	if env.DB != nil {
		options.CacheStats = func() ([]database.TableStats, error) {
			return database.Stats(env.DB)
		}
	}

	log.Infof("starting reader on %s", page)

	program := tea.NewProgram(tui.New(options), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("reader exited with error: %w", err)
	}

	return nil
}
