package app

import (
	"fmt"
	"path/filepath"

	"github.com/SirZenith/hnfeed/config"
	"github.com/SirZenith/hnfeed/database"
	"github.com/SirZenith/hnfeed/favicon"
	"github.com/SirZenith/hnfeed/hnapi"
	"github.com/SirZenith/hnfeed/network"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"
)

// Env holds everything a command needs to talk to Hacker News.
type Env struct {
	Config   config.Config
	Fetcher  *network.Fetcher
	DB       *gorm.DB // nil when cache is disabled
	Client   *hnapi.Client
	Favicons *favicon.Service
}

// DefaultLogFile returns log file used while terminal UI is running.
func DefaultLogFile() string {
	return filepath.Join(config.DefaultCacheDir(), config.AppName+".log")
}

// ConfigPath returns config file path given by root command flag.
func ConfigPath(cmd *cli.Command) string {
	if path := cmd.String("config"); path != "" {
		return path
	}
	return config.DefaultPath()
}

// LoadConfig reads config file and applies command line overrides.
func LoadConfig(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load(ConfigPath(cmd))
	if err != nil {
		return cfg, err
	}

	if cmd.IsSet("no-cache") {
		cfg.NoCache = cmd.Bool("no-cache")
	}
	if cmd.IsSet("database") {
		cfg.Database = cmd.String("database")
	}

	return cfg, nil
}

// Setup builds fetcher, cache database, API client and favicon service from
// config.
func Setup(cmd *cli.Command) (*Env, error) {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return nil, err
	}

	return NewEnv(cfg)
}

func NewEnv(cfg config.Config) (*Env, error) {
	headers := map[string]string{}
	if cfg.HeaderFile != "" {
		if err := network.ReadHeaderFile(cfg.HeaderFile, headers); err != nil {
			return nil, err
		}
	}

	fetcher := network.NewFetcher(network.Options{
		Timeout:     cfg.Timeout.Std(),
		RetryCnt:    cfg.Retries(),
		Delay:       cfg.Delay.Std(),
		Parallelism: cfg.Parallelism,
		UserAgent:   cfg.UserAgent,
		Headers:     headers,
	})

	env := &Env{
		Config:  cfg,
		Fetcher: fetcher,
	}

	options := []hnapi.Option{
		hnapi.WithBaseURL(cfg.APIBase),
		hnapi.WithParallelism(cfg.Parallelism),
	}

	if !cfg.NoCache {
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		env.DB = db

		options = append(options, hnapi.WithCache(hnapi.NewCache(db, cfg.ItemTTL.Std(), cfg.FeedTTL.Std())))
		log.Debugf("using cache database %s", cfg.Database)
	}

	env.Client = hnapi.NewClient(fetcher, options...)
	log.Debugf("using API %s", env.Client.BaseURL())
	env.Favicons = favicon.NewService(fetcher, env.DB, cfg.FaviconTTL.Std())

	return env, nil
}

func (e *Env) Close() {
	if e.DB == nil {
		return
	}

	if err := database.Close(e.DB); err != nil {
		log.Warnf("%s", err)
	}
}
