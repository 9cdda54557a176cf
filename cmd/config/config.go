package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SirZenith/hnfeed/cmd/internal/app"
	app_config "github.com/SirZenith/hnfeed/config"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	cmd := &cli.Command{
		Name:  "config",
		Usage: "operation for manipulating config file",
		Commands: []*cli.Command{
			subCmdInit(),
			subCmdShow(),
		},
	}

	return cmd
}

func subCmdInit() *cli.Command {
	var dir string

	cmd := &cli.Command{
		Name:  "init",
		Usage: "write config.json with default values filled in, existing values are kept",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "directory",
				UsageText:   "[directory]",
				Destination: &dir,
			},
		},
		Action: func(_ context.Context, _ *cli.Command) error {
			outputName := app_config.DefaultPath()
			if dir != "" {
				outputName = filepath.Join(dir, "config.json")
			}

			config := app_config.Config{}
			if _, err := os.Stat(outputName); err == nil {
				config, err = app_config.ReadConfigFile(outputName)
				if err != nil {
					log.Warnf("failed to read existing config file: %s, continue anyway", err)
				}
			}

			config.SetupDefaultValues()

			if err := config.SaveFile(outputName); err != nil {
				return err
			}

			log.Infof("config written to %s", outputName)

			return nil
		},
	}

	return cmd
}

func subCmdShow() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "print effective config",
		Action: func(_ context.Context, cmd *cli.Command) error {
			config, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(config, "", "    ")
			if err != nil {
				return fmt.Errorf("JSON conversion failed: %w", err)
			}

			fmt.Println(string(data))

			return nil
		},
	}
}
