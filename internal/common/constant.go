package common

const (
	// LocalViewsKeyPrefix prefixes the per-post counter key in the client
	// metadata store, e.g. "post-views-<id>".
	LocalViewsKeyPrefix = "post-views-"

	// PendingStatsKey holds the JSON object {postId: count} awaiting merge.
	PendingStatsKey = "pending-stats"

	// Counter API actions.
	ActionGet       = "get"
	ActionIncrement = "increment"
)

// LocalViewsKey returns the metadata key of the local counter for postID.
func LocalViewsKey(postID string) string {
	return LocalViewsKeyPrefix + postID
}
