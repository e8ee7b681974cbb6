package remote

import (
	"net/url"

	"github.com/louisbranch/boulderlog/internal/services/grades/storage"
)

// Feed message types.
const (
	MessageSnapshot = "snapshot"
)

// Snapshot is the feed message carrying a user's full current set.
type Snapshot struct {
	Type    string                      `json:"type"`
	UserID  string                      `json:"userId"`
	Systems []storage.CustomGradeSystem `json:"systems"`
}

// ErrorBody is the JSON error payload returned by the feed server.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SystemsPath is the collection path for a user's systems.
func SystemsPath(userID string) string {
	return "/v1/users/" + url.PathEscape(userID) + "/grade-systems"
}

// SystemPath is the document path for one system.
func SystemPath(userID, systemID string) string {
	return SystemsPath(userID) + "/" + url.PathEscape(systemID)
}

// FeedPath is the WebSocket path for a user's live feed. It sits beside
// the collection rather than inside it, so no system id can shadow it.
func FeedPath(userID string) string {
	return "/v1/users/" + url.PathEscape(userID) + "/feed"
}
