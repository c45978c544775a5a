package iocli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withStdin подменяет os.Stdin на pipe с заданным содержимым
func withStdin(t *testing.T, input string) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	go func() {
		_, _ = w.Write([]byte(input))
		_ = w.Close()
	}()

	old := os.Stdin
	os.Stdin = r
	t.Cleanup(func() {
		os.Stdin = old
		_ = r.Close()
	})
}

func TestStdio_ReadInput_Sequential(t *testing.T) {
	withStdin(t, "alice\n  /api/todos  \n")

	stdio := NewStdio()
	first, err := stdio.ReadInput("Username: ")
	require.NoError(t, err)
	assert.Equal(t, "alice", first)

	// второй вызов не должен потерять буферизованную строку
	second, err := stdio.ReadInput("URL: ")
	require.NoError(t, err)
	assert.Equal(t, "/api/todos", second)
}

func TestStdio_ReadInput_LastLineWithoutNewline(t *testing.T) {
	withStdin(t, "bob")

	got, err := NewStdio().ReadInput("")
	require.NoError(t, err)
	assert.Equal(t, "bob", got)
}

func TestStdio_ReadInput_EOF(t *testing.T) {
	withStdin(t, "")

	_, err := NewStdio().ReadInput("")
	assert.Error(t, err)
}

func TestStdio_Print(t *testing.T) {
	stdio := NewStdio()
	assert.NotPanics(t, func() {
		stdio.Println("queued", 1)
		stdio.Printf("pending: %d\n", 2)
	})

	n, err := stdio.Write([]byte("{}\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
