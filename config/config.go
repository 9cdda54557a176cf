package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SirZenith/hnfeed/common"
)

const (
	AppName = "hnfeed"

	DefaultAPIBase     = "https://hacker-news.firebaseio.com/v0"
	DefaultPageSize    = 15
	DefaultItemTTL     = 5 * time.Minute
	DefaultFeedTTL     = time.Minute
	DefaultFaviconTTL  = 7 * 24 * time.Hour
	DefaultTimeout     = 10 * time.Second
	DefaultRetryCnt    = 3
	DefaultParallelism = 8
)

var ErrNoConfig = errors.New("config file not found")

// Duration is time.Duration written as Go duration string in JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	switch v := value.(type) {
	case float64:
		*d = Duration(time.Duration(v))
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration value: %s", data)
	}

	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	APIBase     string   `json:"api_base"`
	Database    string   `json:"database"`    // path of sqlite cache file
	PageSize    int      `json:"page_size"`   // number of stories loaded per batch
	ItemTTL     Duration `json:"item_ttl"`    // how long a cached item stays fresh
	FeedTTL     Duration `json:"feed_ttl"`    // how long a cached story ID list stays fresh
	FaviconTTL  Duration `json:"favicon_ttl"` // how long a favicon lookup result stays fresh
	Timeout     Duration `json:"timeout"`     // request timeout
	RetryCount  *int     `json:"retry"`       // retry count for failed requests, 0 disables retrying
	Parallelism int      `json:"parallelism"` // maximum concurrent requests
	Delay       Duration `json:"delay"`       // delay between requests to the same domain
	UserAgent   string   `json:"user_agent"`
	HeaderFile  string   `json:"header_file"` // JSON file in form of Array<{ name: string, value: string }>
	RenderHTML  *bool    `json:"render_html"` // render HTML in story text and comments
	NoCache     bool     `json:"no_cache"`    // disable on disk cache
}

// DefaultPath returns path of config file under user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, AppName, "config.json")
}

// DefaultCacheDir returns directory for cache database and log file.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, AppName)
}

// ReadConfigFile read configuration from JSON file. Relative paths in config
// are resolved against directory of config file.
func ReadConfigFile(filePath string) (Config, error) {
	c := Config{}

	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return c, fmt.Errorf("%w: %s", ErrNoConfig, filePath)
	} else if err != nil {
		return c, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to parse config JSON %s: %w", filePath, err)
	}

	configDir := filepath.Dir(filePath)

	c.Database = common.ResolveRelativePath(c.Database, configDir)
	c.HeaderFile = common.ResolveRelativePath(c.HeaderFile, configDir)

	return c, nil
}

// Load reads config file at given path and fills default values. A missing
// file is not an error, default config is returned instead.
func Load(filePath string) (Config, error) {
	c, err := ReadConfigFile(filePath)
	if err != nil && !errors.Is(err, ErrNoConfig) {
		return c, err
	}

	c.SetupDefaultValues()

	return c, nil
}

// SetupDefaultValues sets necessary default values for Config fields if them
// are still zero value of their type.
func (c *Config) SetupDefaultValues() {
	c.APIBase = common.GetStrOr(c.APIBase, DefaultAPIBase)
	c.Database = common.GetStrOr(c.Database, filepath.Join(DefaultCacheDir(), "cache.db"))

	c.PageSize = common.GetIntOr(c.PageSize, DefaultPageSize)
	c.Parallelism = common.GetIntOr(c.Parallelism, DefaultParallelism)

	if c.ItemTTL <= 0 {
		c.ItemTTL = Duration(DefaultItemTTL)
	}
	if c.FeedTTL <= 0 {
		c.FeedTTL = Duration(DefaultFeedTTL)
	}
	if c.RetryCount == nil || *c.RetryCount < 0 {
		retryCnt := DefaultRetryCnt
		c.RetryCount = &retryCnt
	}
	if c.FaviconTTL <= 0 {
		c.FaviconTTL = Duration(DefaultFaviconTTL)
	}
	if c.Timeout <= 0 {
		c.Timeout = Duration(DefaultTimeout)
	}
	c.Delay = Duration(common.GetDurationOr(c.Delay.Std(), 0))

	if c.RenderHTML == nil {
		renderHTML := true
		c.RenderHTML = &renderHTML
	}
}

// ShouldRenderHTML reports value of render_html, true when unset.
func (c *Config) ShouldRenderHTML() bool {
	return c.RenderHTML == nil || *c.RenderHTML
}

// Retries returns value of retry, default retry count when unset.
func (c *Config) Retries() int {
	if c.RetryCount == nil || *c.RetryCount < 0 {
		return DefaultRetryCnt
	}
	return *c.RetryCount
}

// SaveFile writes config as indented JSON, creating parent directory when
// needed.
func (c *Config) SaveFile(filename string) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("JSON conversion failed: %w", err)
	}

	if err := common.EnsureDir(filepath.Dir(filename)); err != nil {
		return err
	}

	err = os.WriteFile(filename, data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
