package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/viewkeeper/internal/flagx"
	"github.com/dmitrijs2005/viewkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Interval
// fields use timex.Duration so both "5s" and integer nanoseconds parse.
// Empty fields leave the current value untouched.
type JsonConfig struct {
	EndpointAddrHTTP string          `json:"endpoint_addr_http"`
	Store            string          `json:"store"`
	DatabaseDSN      string          `json:"database_dsn"`
	RedisURL         string          `json:"redis_url"`
	TitleTable       string          `json:"title_table"`
	Metrics          *bool           `json:"metrics"`
	ShutdownTimeout  *timex.Duration `json:"shutdown_timeout"`
	S3RootUser       string          `json:"s3_root_user"`
	S3RootPassword   string          `json:"s3_root_password"`
	S3Bucket         string          `json:"s3_bucket"`
	S3Region         string          `json:"s3_region"`
	S3BaseEndpoint   string          `json:"s3_base_endpoint"`
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson loads the file named by -c/-config, if any, into config.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.ConfigFile(args)

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", jsonConfigFile, err)
	}

	setIf(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setIf(&config.Store, c.Store)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.RedisURL, c.RedisURL)
	setIf(&config.TitleTable, c.TitleTable)
	if c.Metrics != nil {
		config.Metrics = *c.Metrics
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	setIf(&config.S3RootUser, c.S3RootUser)
	setIf(&config.S3RootPassword, c.S3RootPassword)
	setIf(&config.S3Bucket, c.S3Bucket)
	setIf(&config.S3Region, c.S3Region)
	setIf(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	return nil
}
