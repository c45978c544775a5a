package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourcePath(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "/api/todos", want: "todos"},
		{url: "/api/todos/", want: "todos"},
		{url: "/api/chat/messages?room=1", want: "chat/messages"},
		{url: "api/daily-logs", want: "daily-logs"},
		{url: "/api/todos/42", want: "todos/42"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ResourcePath(tt.url))
		})
	}
}

func TestEnvelopeKey(t *testing.T) {
	assert.Equal(t, "logs", EnvelopeKey("daily-logs"))
	assert.Equal(t, "messages", EnvelopeKey("chat/messages"))
	assert.Equal(t, "todos", EnvelopeKey("todos"))
	assert.Equal(t, DefaultEnvelope, EnvelopeKey("attachments"))
}
