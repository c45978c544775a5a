package data

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iudanet/offlinedesk/internal/client/storage"
	"github.com/iudanet/offlinedesk/internal/models"
	pkgapi "github.com/iudanet/offlinedesk/pkg/api"
)

// ErrUnexpectedShape is returned when a list response cannot be unwrapped
var ErrUnexpectedShape = errors.New("unexpected response shape")

// Resource binds a remote collection to a local table
type Resource struct {
	Path     string // resource path without the /api/ prefix
	Table    string
	Envelope string // key the server wraps the list in; "" for a bare array
}

// Resources is the declared binding table
var Resources = []Resource{
	{Path: "jobdesks", Table: storage.TableJobdesks, Envelope: pkgapi.EnvelopeKey("jobdesks")},
	{Path: "todos", Table: storage.TableTodos, Envelope: pkgapi.EnvelopeKey("todos")},
	{Path: "users", Table: storage.TableUsers, Envelope: pkgapi.EnvelopeKey("users")},
	{Path: "daily-logs", Table: storage.TableDailyLogs, Envelope: pkgapi.EnvelopeKey("daily-logs")},
	{Path: "chat/messages", Table: storage.TableChatMessages, Envelope: pkgapi.EnvelopeKey("chat/messages")},
	{Path: "attachments", Table: storage.TableAttachments, Envelope: pkgapi.EnvelopeKey("attachments")},
	{Path: "profile", Table: storage.TableProfile, Envelope: pkgapi.EnvelopeKey("profile")},
}

// Lookup finds the resource for a URL such as "/api/todos?status=open" or
// "/api/todos/42". Unknown resources get no table and the default envelope.
func Lookup(url string) Resource {
	path := pkgapi.ResourcePath(url)
	for _, r := range Resources {
		if r.Path == path {
			return r
		}
	}
	// путь к отдельной записи: коллекция + id
	if i := strings.LastIndex(path, "/"); i >= 0 {
		parent := path[:i]
		for _, r := range Resources {
			if r.Path == parent {
				return r
			}
		}
	}
	return Resource{Path: path, Envelope: pkgapi.EnvelopeKey(path)}
}

// Unwrap extracts the record list from a response body.
//
// Accepted shapes, in order: a bare array; an object holding an array
// under envelope; an object holding an array under the default "data"
// key; a single object carrying an id.
func Unwrap(body []byte, envelope string) ([]models.Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrUnexpectedShape)
	}

	if trimmed[0] == '[' {
		return decodeList(trimmed)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}

	for _, key := range []string{envelope, pkgapi.DefaultEnvelope} {
		if key == "" {
			continue
		}
		if raw, ok := obj[key]; ok && isArray(raw) {
			return decodeList(raw)
		}
	}

	rec, err := models.DecodeRecord(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	if rec.ID() == "" {
		return nil, fmt.Errorf("%w: object without %q list or id", ErrUnexpectedShape, envelope)
	}
	return []models.Record{rec}, nil
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func decodeList(raw []byte) ([]models.Record, error) {
	var list []models.Record
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	if list == nil {
		list = make([]models.Record, 0)
	}
	return list, nil
}
