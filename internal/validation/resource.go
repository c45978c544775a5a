package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// resourceSegment один сегмент пути ресурса: todos, daily-logs, messages
var resourceSegment = regexp.MustCompile(`^[a-z][a-z0-9-]{0,63}$`)

// MaxResourceDepth ограничивает вложенность: chat/messages допустимо
const MaxResourceDepth = 2

// ValidateResource проверяет имя ресурса из URL (без префикса /api/)
func ValidateResource(resource string) error {
	if resource == "" {
		return fmt.Errorf("resource cannot be empty")
	}

	parts := strings.Split(resource, "/")
	if len(parts) > MaxResourceDepth {
		return fmt.Errorf("resource %q is nested deeper than %d segments", resource, MaxResourceDepth)
	}
	for _, p := range parts {
		if !resourceSegment.MatchString(p) {
			return fmt.Errorf("invalid resource segment %q", p)
		}
	}
	return nil
}

// ValidateRecordID проверяет id записи в URL
func ValidateRecordID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if len(id) > 128 {
		return fmt.Errorf("id must not exceed 128 characters")
	}
	if strings.ContainsAny(id, "/?#") {
		return fmt.Errorf("id contains forbidden characters")
	}
	return nil
}
