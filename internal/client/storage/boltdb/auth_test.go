package boltdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/iudanet/offlinedesk/internal/client/storage"
)

func TestStorage_SaveGetDeleteAuth(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	auth := &storage.AuthData{
		Username:    "testuser",
		UserID:      "user-id-123",
		AccessToken: "access-token",
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	}

	// GetAuth до сохранения выдает ErrAuthNotFound
	_, err := store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	require.NoError(t, store.SaveAuth(ctx, auth))

	got, err := store.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth, got)

	ok, err := store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.DeleteAuth(ctx))

	// Повторное удаление
	assert.ErrorIs(t, store.DeleteAuth(ctx), storage.ErrAuthNotFound)

	ok, err = store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorage_IsAuthenticated_Expired(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	require.NoError(t, store.SaveAuth(ctx, &storage.AuthData{
		Username:    "old",
		AccessToken: "token",
		ExpiresAt:   time.Now().Add(-time.Minute).Unix(),
	}))

	ok, err := store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorage_SaveAuth_SwitchUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	require.NoError(t, store.SaveAuth(ctx, &storage.AuthData{Username: "alice", UserID: "1", AccessToken: "tok-a"}))
	require.NoError(t, store.SaveAuth(ctx, &storage.AuthData{Username: "bob", UserID: "2", AccessToken: "tok-b"}))

	got, err := store.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
	assert.Equal(t, "tok-b", got.AccessToken)
	assert.Zero(t, got.ExpiresAt)

	// сессия прежнего пользователя удалена вместе со сменой current
	err = store.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAuth)
		assert.Nil(t, b.Bucket(sessionBucketName("alice")))
		assert.NotNil(t, b.Bucket(sessionBucketName("bob")))
		assert.Equal(t, []byte("bob"), b.Get(authCurrentKey))
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteAuth(ctx))
	err = store.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAuth)
		assert.Nil(t, b.Bucket(sessionBucketName("bob")))
		assert.Nil(t, b.Get(authCurrentKey))
		return nil
	})
	require.NoError(t, err)
}

func TestStorage_SaveAuth_RequiresUsername(t *testing.T) {
	store := newTestStorage(t)

	err := store.SaveAuth(context.Background(), &storage.AuthData{AccessToken: "tok"})
	assert.Error(t, err)
}

func TestStorage_GetAuth_DanglingCurrent(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	// current указывает на сессию, которой нет
	require.NoError(t, store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAuth).Put(authCurrentKey, []byte(`{"username":"legacy"}`))
	}))

	_, err := store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	ok, err := store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// новый вход перезаписывает указатель
	require.NoError(t, store.SaveAuth(ctx, &storage.AuthData{Username: "alice", AccessToken: "tok"}))
	got, err := store.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}
