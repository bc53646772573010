package cache

import "fmt"

// Key derivation is deterministic given the logical query. Views accepting
// free-form filters (search text, arbitrary tag) are not cached at all, so
// the key space stays bounded by workspaces and users.

// WorkspaceDetailKey caches the canonical detail view of one workspace.
func WorkspaceDetailKey(workspaceID int64) string {
	return fmt.Sprintf("workspace:detail:%d", workspaceID)
}

// ActiveListKey caches a user's filter-less active workspace list.
func ActiveListKey(userID int64) string {
	return fmt.Sprintf("workspaces:active:user-%d", userID)
}

// DiscoveryListKey caches a user's provider repository discovery list.
func DiscoveryListKey(userID int64) string {
	return fmt.Sprintf("workspaces:discovery:user-%d", userID)
}
