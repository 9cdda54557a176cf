package favicon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/SirZenith/hnfeed/cmd/internal/app"
	"github.com/SirZenith/hnfeed/common"
	"github.com/SirZenith/hnfeed/favicon"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	var siteURL string

	return &cli.Command{
		Name:  "favicon",
		Usage: "look up favicon of a site",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "save icon to this path, a directory gets file named after site host",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: fmt.Sprintf("image format of saved icon, one of %s", strings.Join(common.AllImageFormats, ", ")),
				Value: common.ImageFormatPng,
			},
			&cli.BoolFlag{
				Name:  "fresh",
				Usage: "bypass cache",
			},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "url",
				UsageText:   "<url>",
				Destination: &siteURL,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if siteURL == "" {
				return fmt.Errorf("site URL is required")
			}

			format := cmd.String("format")
			if !slices.Contains(common.AllImageFormats, format) {
				return fmt.Errorf("unsupported image format %q", format)
			}

			env, err := app.Setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			var icon *favicon.Icon
			if cmd.Bool("fresh") {
				icon, err = favicon.Lookup(ctx, env.Fetcher, favicon.SiteKey(siteURL))
			} else {
				icon, err = env.Favicons.Lookup(ctx, siteURL)
			}
			if errors.Is(err, favicon.ErrNoFavicon) {
				return fmt.Errorf("no favicon found for %s", siteURL)
			} else if err != nil {
				return err
			}

			fmt.Printf("url:    %s\n", icon.URL)
			fmt.Printf("type:   %s\n", icon.ContentType)
			fmt.Printf("size:   %s\n", humanize.Bytes(uint64(len(icon.Data))))
			fmt.Printf("swatch: %s\n", icon.Swatch())

			if output := cmd.String("output"); output != "" {
				return saveIcon(icon, outputPath(output, siteURL, format), format)
			}

			return nil
		},
	}
}

// outputPath names icon file after site host when output is a directory.
func outputPath(output, siteURL, format string) string {
	info, err := os.Stat(output)
	if err != nil || !info.IsDir() {
		return output
	}

	name := siteURL
	if u, err := url.Parse(siteURL); err == nil && u.Host != "" {
		name = u.Host
	}

	return filepath.Join(output, common.InvalidPathCharReplace(name)+"."+format)
}

// saveIcon writes icon converted to given format. ICO files are decoded by
// favicon package, icons that can not be decoded at all are written as is.
func saveIcon(icon *favicon.Icon, output, format string) error {
	if err := common.EnsureDir(filepath.Dir(output)); err != nil {
		return err
	}

	err := common.SaveImageAs(icon.Data, output, format)
	if err == nil {
		log.Infof("icon saved to %s", output)
		return nil
	}

	img, decodeErr := icon.Image()
	if decodeErr != nil {
		log.Warnf("saving raw icon data: %s", decodeErr)
		return os.WriteFile(output, icon.Data, 0o644)
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output image file %s: %w", output, err)
	}
	defer file.Close()

	bufWriter := bufio.NewWriter(file)
	defer bufWriter.Flush()

	if _, err := common.EncodeImage(img, bufWriter, format); err != nil {
		return err
	}

	log.Infof("icon saved to %s", output)

	return nil
}
