package prefetch

import (
	"context"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SirZenith/hnfeed/cmd/internal/app"
	"github.com/SirZenith/hnfeed/common"
	"github.com/SirZenith/hnfeed/hn"
	"github.com/SirZenith/hnfeed/hnapi"
	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const storyJobCnt = 4

type options struct {
	page     hn.Page
	limit    int
	comments bool
	depth    int
}

func Cmd() *cli.Command {
	var pageName string

	return &cli.Command{
		Name:  "prefetch",
		Usage: "warm up cache with stories of a tab",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "number of stories to fetch",
				Value: 30,
			},
			&cli.BoolFlag{
				Name:  "comments",
				Usage: "also fetch comment trees",
			},
			&cli.IntFlag{
				Name:  "depth",
				Usage: "maximum comment depth, 0 for no limit",
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

			if env.DB == nil {
				log.Warn("cache is disabled, prefetched data will be discarded")
			}

			return cmdMain(ctx, env, options{
				page:     page,
				limit:    cmd.Int("limit"),
				comments: cmd.Bool("comments"),
				depth:    cmd.Int("depth"),
			})
		},
	}
}

func newProgressBar() *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		0,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(5),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// growingBar is a progress bar whose total grows as comment trees unfold.
type growingBar struct {
	*progressbar.ProgressBar
	lock sync.Mutex
}

func (b *growingBar) grow(delta int) {
	if delta <= 0 {
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.ChangeMax64(b.GetMax64() + int64(delta))
}

func cmdMain(ctx context.Context, env *app.Env, opts options) error {
	startTime := time.Now()

	ids, err := env.Client.FetchPageIDsFresh(ctx, opts.page)
	if err != nil {
		return err
	}
	if opts.limit > 0 && len(ids) > opts.limit {
		ids = ids[:opts.limit]
	}

	bar := &growingBar{ProgressBar: newProgressBar()}
	bar.grow(len(ids))

	var failedCnt, commentCnt atomic.Int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(storyJobCnt)

	for _, id := range ids {
		group.Go(func() error {
			story, err := env.Client.FetchItemFresh(groupCtx, id)
			bar.Add(1)
			if err != nil {
				failedCnt.Add(1)
				bar.Describe(err.Error())
				return nil
			}

			if !opts.comments || len(story.Kids) == 0 {
				return nil
			}

			bar.grow(len(story.Kids))
			err = env.Client.WalkComments(groupCtx, story, opts.depth, func(comment hnapi.Comment) error {
				if comment.Err != nil {
					failedCnt.Add(1)
					log.Debugf("%s", comment.Err)
					return bar.Add(1)
				}

				commentCnt.Add(1)
				if opts.depth <= 0 || comment.Depth < opts.depth {
					bar.grow(len(comment.Item.Kids))
				}
				return bar.Add(1)
			})
			if err != nil {
				failedCnt.Add(1)
				bar.Describe(err.Error())
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}
	bar.Finish()

	common.LogBannerMsg([]string{
		"page: " + opts.page.String(),
		"stories: " + strconv.Itoa(len(ids)),
		"comments: " + strconv.Itoa(int(commentCnt.Load())),
		"failed: " + strconv.Itoa(int(failedCnt.Load())),
		"time: " + time.Since(startTime).Round(time.Millisecond).String(),
	}, 5)

	return nil
}
