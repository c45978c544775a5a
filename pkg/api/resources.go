package api

import "strings"

// DefaultEnvelope is the list key for resources without a dedicated one.
const DefaultEnvelope = "data"

// envelopes maps a resource path (without the /api/ prefix) to the key
// its list responses are wrapped in: GET /api/todos -> {"todos": [...]}.
var envelopes = map[string]string{
	"jobdesks":      "jobdesks",
	"todos":         "todos",
	"users":         "users",
	"daily-logs":    "logs",
	"chat/messages": "messages",
}

// ResourcePath strips the /api/ prefix, query string and surrounding
// slashes: "/api/chat/messages?room=1" -> "chat/messages".
func ResourcePath(url string) string {
	path := url
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimPrefix(path, "/")
	path = strings.TrimPrefix(path, "api/")
	return strings.Trim(path, "/")
}

// EnvelopeKey returns the list key for a resource path.
func EnvelopeKey(resource string) string {
	if key, ok := envelopes[resource]; ok {
		return key
	}
	return DefaultEnvelope
}
