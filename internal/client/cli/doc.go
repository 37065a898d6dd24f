// Package cli provides the interactive viewkeeper command-line client.
//
// It wires configuration, the local offline cache, the Counter API client
// and the post directory into an Aggregator, then runs a small REPL over
// it. A background watcher pings the Counter API so the prompt shows
// whether counts are live.
//
// Commands:
//   - list             show posts with their displayed counts
//   - open N           reveal post N (counts one view per session)
//   - close N          hide post N
//   - pending          show counts waiting for submission
//   - export [file]    write the submission artifact
//   - help, exit
//
// N is the position in the last listing or a post id.
package cli
