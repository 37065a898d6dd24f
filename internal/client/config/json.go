package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/viewkeeper/internal/flagx"
	"github.com/dmitrijs2005/viewkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer and
// empty fields leave the current value untouched, so a file only needs the
// keys it changes.
type JsonConfig struct {
	APIURL              *string         `json:"api_url"`
	Mode                string          `json:"mode"`
	DBPath              string          `json:"db_path"`
	PostsURL            string          `json:"posts_url"`
	PostsFile           string          `json:"posts_file"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	Selector            string          `json:"selector"`
	TitleTable          string          `json:"title_table"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	ExportDir           string          `json:"export_dir"`
	IssueURL            string          `json:"issue_url"`
	S3RootUser          string          `json:"s3_root_user"`
	S3RootPassword      string          `json:"s3_root_password"`
	S3Bucket            string          `json:"s3_bucket"`
	S3Region            string          `json:"s3_region"`
	S3BaseEndpoint      string          `json:"s3_base_endpoint"`
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays cfg with the file named by -c/-config, if any. An
// explicit "api_url": "" is honoured and switches auto mode offline.
func parseJson(cfg *Config, args []string) error {
	jsonConfigFile := flagx.ConfigFile(args)
	if jsonConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", jsonConfigFile, err)
	}

	if jc.APIURL != nil {
		cfg.APIURL = *jc.APIURL
	}
	setIf(&cfg.Mode, jc.Mode)
	setIf(&cfg.DBPath, jc.DBPath)
	setIf(&cfg.PostsURL, jc.PostsURL)
	setIf(&cfg.PostsFile, jc.PostsFile)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	setIf(&cfg.Selector, jc.Selector)
	setIf(&cfg.TitleTable, jc.TitleTable)
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	setIf(&cfg.ExportDir, jc.ExportDir)
	setIf(&cfg.IssueURL, jc.IssueURL)
	setIf(&cfg.S3RootUser, jc.S3RootUser)
	setIf(&cfg.S3RootPassword, jc.S3RootPassword)
	setIf(&cfg.S3Bucket, jc.S3Bucket)
	setIf(&cfg.S3Region, jc.S3Region)
	setIf(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	return nil
}
