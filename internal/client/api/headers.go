package api

import "strings"

// MergeHeaders returns a copy of caller with defaults added where missing:
// a bearer Authorization when token is set and a JSON Content-Type when
// the request has a body. Caller headers always win.
func MergeHeaders(caller map[string]string, token string, hasBody bool) map[string]string {
	headers := make(map[string]string, len(caller)+2)
	for k, v := range caller {
		headers[k] = v
	}

	if token != "" && !hasHeader(headers, "Authorization") {
		headers["Authorization"] = "Bearer " + token
	}
	if hasBody && !hasHeader(headers, "Content-Type") {
		headers["Content-Type"] = "application/json"
	}
	return headers
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
