package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	DefaultFeedURL   = "http://services.parliament.uk/bills/AllBills.rss"
	DefaultUserAgent = "bill_spider/1.0 (+https://public-scrutiny-office.org)"
)

type DBConfig struct {
	Connection  string `yaml:"connection"`
	Database    string `yaml:"database"`
	Collections struct {
		Bills   string `yaml:"bills"`
		Members string `yaml:"members"`
	} `yaml:"collections"`
}

type FeedConfig struct {
	URL string `yaml:"url"`
	// SessionYear like "2013-2014". Derived from the clock when empty.
	SessionYear string `yaml:"session_year"`
}

type LogicConfig struct {
	TimeoutSec         int    `yaml:"timeout_sec"`
	UserAgent          string `yaml:"user_agent"`
	MaxConcurrentBills int    `yaml:"max_concurrent_bills"`
	MaxPageFetches     int    `yaml:"max_page_fetches"`
	DelayMS            int    `yaml:"delay_ms"`
	RespectRobots      bool   `yaml:"respect_robots"`
	LogLevel           string `yaml:"log_level"`
}

type MembersConfig struct {
	// Aliases maps the name used on bill pages to the name a member goes by.
	Aliases map[string]string `yaml:"aliases"`
}

type SpiderConfig struct {
	DB      DBConfig      `yaml:"db"`
	Feed    FeedConfig    `yaml:"feed"`
	Logic   LogicConfig   `yaml:"logic"`
	Members MembersConfig `yaml:"members"`
}

func LoadConfig(path string) (*SpiderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*SpiderConfig, error) {
	var cfg SpiderConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

func (c *SpiderConfig) ApplyDefaults() {
	if c.DB.Database == "" {
		c.DB.Database = "public-scrutiny-office"
	}
	if c.DB.Collections.Bills == "" {
		c.DB.Collections.Bills = "bills"
	}
	if c.DB.Collections.Members == "" {
		c.DB.Collections.Members = "members"
	}
	if c.Feed.URL == "" {
		c.Feed.URL = DefaultFeedURL
	}
	if c.Logic.TimeoutSec <= 0 {
		c.Logic.TimeoutSec = 30
	}
	if c.Logic.UserAgent == "" {
		c.Logic.UserAgent = DefaultUserAgent
	}
	if c.Logic.MaxConcurrentBills <= 0 {
		c.Logic.MaxConcurrentBills = 4
	}
	if c.Logic.MaxPageFetches <= 0 {
		c.Logic.MaxPageFetches = 8
	}
	if c.Logic.LogLevel == "" {
		c.Logic.LogLevel = "info"
	}
}

// ApplyEnv overrides config values from BILLS_* environment variables.
// Unlike the file, a set variable always wins.
func (c *SpiderConfig) ApplyEnv() {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.DB.Connection, "BILLS_DB_CONNECTION")
	set(&c.DB.Database, "BILLS_DB_DATABASE")
	set(&c.Feed.URL, "BILLS_FEED_URL")
	set(&c.Feed.SessionYear, "BILLS_SESSION_YEAR")
	set(&c.Logic.LogLevel, "BILLS_LOG_LEVEL")
}

func (c *SpiderConfig) Validate() error {
	var errs []error
	if c.DB.Connection == "" {
		errs = append(errs, errors.New("db.connection is required"))
	}
	if c.Feed.URL == "" {
		errs = append(errs, errors.New("feed.url is required"))
	}
	return errors.Join(errs...)
}
