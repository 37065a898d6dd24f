// Package client contains the viewer-side transport for viewkeeper.
//
// # Overview
//
// The package provides:
//  1. The Client interface: Get/Increment of a counter by Selector, and Ping.
//  2. HTTPClient, a Counter API implementation over go-retryablehttp with
//     retries disabled and a bounded per-request timeout.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) for the
//     offline cache: an SQLite file migrated with embedded goose migrations.
//
// # Error Handling
//
// Transport outcomes are mapped once, in mapError: HTTP 404 becomes
// common.ErrorNotFound; network failures, timeouts, other statuses and
// undecodable bodies become common.ErrRemoteUnavailable. Match with errors.Is.
package client
