package config

import (
	"fmt"

	"github.com/dmitrijs2005/viewkeeper/internal/flagx"
)

func parseEnv(cfg *Config, dotenv string) error {
	if dotenv != "" {
		if err := flagx.LoadDotEnv(dotenv); err != nil {
			return fmt.Errorf("load %s: %w", dotenv, err)
		}
	}

	flagx.EnvString("VIEWKEEPER_API_URL", &cfg.APIURL)
	flagx.EnvString("VIEWKEEPER_MODE", &cfg.Mode)
	flagx.EnvString("VIEWKEEPER_DB_PATH", &cfg.DBPath)
	flagx.EnvString("VIEWKEEPER_POSTS_URL", &cfg.PostsURL)
	flagx.EnvString("VIEWKEEPER_POSTS_FILE", &cfg.PostsFile)
	flagx.EnvDuration("VIEWKEEPER_REQUEST_TIMEOUT", &cfg.RequestTimeout)
	flagx.EnvString("VIEWKEEPER_SELECTOR", &cfg.Selector)
	flagx.EnvString("VIEWKEEPER_TITLE_TABLE", &cfg.TitleTable)
	flagx.EnvDuration("VIEWKEEPER_ONLINE_CHECK_INTERVAL", &cfg.OnlineCheckInterval)
	flagx.EnvString("VIEWKEEPER_EXPORT_DIR", &cfg.ExportDir)
	flagx.EnvString("VIEWKEEPER_ISSUE_URL", &cfg.IssueURL)
	flagx.EnvString("VIEWKEEPER_S3_USER", &cfg.S3RootUser)
	flagx.EnvString("VIEWKEEPER_S3_PASSWORD", &cfg.S3RootPassword)
	flagx.EnvString("VIEWKEEPER_S3_BUCKET", &cfg.S3Bucket)
	flagx.EnvString("VIEWKEEPER_S3_REGION", &cfg.S3Region)
	flagx.EnvString("VIEWKEEPER_S3_ENDPOINT", &cfg.S3BaseEndpoint)
	return nil
}
