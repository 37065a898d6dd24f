package config

import (
	"fmt"

	"github.com/dmitrijs2005/viewkeeper/internal/flagx"
)

// parseEnv overlays VIEWKEEPER_* variables, after loading dotenv when present.
func parseEnv(config *Config, dotenv string) error {
	if dotenv != "" {
		if err := flagx.LoadDotEnv(dotenv); err != nil {
			return fmt.Errorf("load %s: %w", dotenv, err)
		}
	}

	flagx.EnvString("VIEWKEEPER_ADDRESS", &config.EndpointAddrHTTP)
	flagx.EnvString("VIEWKEEPER_STORE", &config.Store)
	flagx.EnvString("VIEWKEEPER_DATABASE_DSN", &config.DatabaseDSN)
	flagx.EnvString("VIEWKEEPER_REDIS_URL", &config.RedisURL)
	flagx.EnvString("VIEWKEEPER_TITLE_TABLE", &config.TitleTable)
	flagx.EnvBool("VIEWKEEPER_METRICS", &config.Metrics)
	flagx.EnvDuration("VIEWKEEPER_SHUTDOWN_TIMEOUT", &config.ShutdownTimeout)
	flagx.EnvString("VIEWKEEPER_S3_USER", &config.S3RootUser)
	flagx.EnvString("VIEWKEEPER_S3_PASSWORD", &config.S3RootPassword)
	flagx.EnvString("VIEWKEEPER_S3_BUCKET", &config.S3Bucket)
	flagx.EnvString("VIEWKEEPER_S3_REGION", &config.S3Region)
	flagx.EnvString("VIEWKEEPER_S3_ENDPOINT", &config.S3BaseEndpoint)
	return nil
}
