package config

import (
	"fmt"
	"time"
)

// Selector kinds.
const (
	SelectByID    = "id"
	SelectByTitle = "title"
)

// ExportToS3 as ExportDir uploads exports instead of writing files.
const ExportToS3 = "s3"

// Config holds runtime settings for the viewkeeper CLI.
type Config struct {
	APIURL              string
	Mode                string
	DBPath              string
	PostsURL            string
	PostsFile           string
	RequestTimeout      time.Duration
	Selector            string
	TitleTable          string
	OnlineCheckInterval time.Duration
	ExportDir           string
	IssueURL            string
	S3RootUser          string
	S3RootPassword      string
	S3Bucket            string
	S3Region            string
	S3BaseEndpoint      string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIURL = "http://127.0.0.1:8080/api/views"
	c.Mode = "auto"
	c.DBPath = "viewkeeper.db"
	c.PostsFile = "posts.json"
	c.RequestTimeout = 5 * time.Second
	c.Selector = SelectByID
	c.TitleTable = "posts"
	c.OnlineCheckInterval = 3 * time.Second
	c.ExportDir = "exports"
	c.S3Bucket = "submissions"
	c.S3Region = "us-east-1"
}

// Validate checks enumerated and positive values.
func (c *Config) Validate() error {
	if c.Selector != SelectByID && c.Selector != SelectByTitle {
		return fmt.Errorf("unknown selector %q (want id or title)", c.Selector)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive")
	}
	return nil
}

// LoadConfig builds a Config from defaults, environment, JSON and flags.
// Later sources take precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg, ".env"); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
