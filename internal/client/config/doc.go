// Package config loads runtime configuration for the viewkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: VIEWKEEPER_* variables, after loading .env when present.
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   Counter API URL (e.g. https://example.com/api/views); empty or file: means offline
//	-m string   count mode: auto, remote, hybrid or local
//	-f string   local SQLite file
//	-p string   post table URL (JSON)
//	-l string   post table file (JSON), used when -p is empty or unreachable
//	-t int      remote request timeout (seconds)
//	-s string   counter selector: id or title
//	-i int      online status check interval (seconds)
//	-o string   export directory, or s3 to upload exports
//	-u string   issue tracker URL printed in exports
//
// # JSON schema
//
// Intervals use timex.Duration, so "5s" and integer nanoseconds both work:
//
//	{
//	  "api_url": "https://example.com/api/views",
//	  "mode": "auto",
//	  "db_path": "viewkeeper.db",
//	  "posts_url": "https://example.com/posts.json",
//	  "request_timeout": "5s",
//	  "online_check_interval": "3s",
//	  "s3_bucket": "submissions"
//	}
package config
