package boltdb

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/offlinedesk/internal/client/storage"
)

// Раскладка bucket auth:
//
//	current            -> username активной сессии
//	user:<username>/   -> вложенный bucket с полями сессии
//	    user_id        -> id пользователя на сервере
//	    access_token   -> bearer токен
//	    expires_at     -> unix секунды, big-endian uint64 (0 = без срока)
var (
	authCurrentKey = []byte("current")
	authUserPrefix = []byte("user:")
	authUserIDKey  = []byte("user_id")
	authTokenKey   = []byte("access_token")
	authExpiresKey = []byte("expires_at")
)

// SaveAuth stores the session under its username and makes it current.
// Sessions of other users are dropped: the store belongs to one account.
func (s *Storage) SaveAuth(ctx context.Context, auth *storage.AuthData) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if auth == nil || auth.Username == "" {
		return errors.New("auth data must carry a username")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return fmt.Errorf("auth bucket not found")
		}

		if err := dropSessions(bucket, auth.Username); err != nil {
			return err
		}

		ub, err := bucket.CreateBucketIfNotExists(sessionBucketName(auth.Username))
		if err != nil {
			return fmt.Errorf("failed to create session bucket for %s: %w", auth.Username, err)
		}

		expires := make([]byte, 8)
		binary.BigEndian.PutUint64(expires, uint64(max(auth.ExpiresAt, 0)))

		for _, kv := range []struct{ k, v []byte }{
			{authUserIDKey, []byte(auth.UserID)},
			{authTokenKey, []byte(auth.AccessToken)},
			{authExpiresKey, expires},
		} {
			if err := ub.Put(kv.k, kv.v); err != nil {
				return fmt.Errorf("failed to save session of %s: %w", auth.Username, err)
			}
		}

		if err := bucket.Put(authCurrentKey, []byte(auth.Username)); err != nil {
			return fmt.Errorf("failed to mark current session: %w", err)
		}
		return nil
	})
}

// GetAuth returns the current session or storage.ErrAuthNotFound
func (s *Storage) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var auth *storage.AuthData
	err := s.db.View(func(tx *bbolt.Tx) error {
		username, ub, err := currentSession(tx)
		if err != nil {
			return err
		}

		auth = &storage.AuthData{
			Username:    username,
			UserID:      string(ub.Get(authUserIDKey)),
			AccessToken: string(ub.Get(authTokenKey)),
			ExpiresAt:   decodeExpiry(ub.Get(authExpiresKey)),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return auth, nil
}

// DeleteAuth removes the current session (logout)
func (s *Storage) DeleteAuth(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		username, _, err := currentSession(tx)
		if err != nil {
			return err
		}

		bucket := tx.Bucket(bucketAuth)
		if err := bucket.DeleteBucket(sessionBucketName(username)); err != nil {
			return fmt.Errorf("failed to delete session of %s: %w", username, err)
		}
		if err := bucket.Delete(authCurrentKey); err != nil {
			return fmt.Errorf("failed to delete auth data: %w", err)
		}
		return nil
	})
}

// IsAuthenticated checks if a non-expired token is stored. Only the
// expiry key is read.
func (s *Storage) IsAuthenticated(ctx context.Context) (bool, error) {
	if s.db == nil {
		return false, storage.ErrStorageClosed
	}

	var ok bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		_, ub, err := currentSession(tx)
		if err != nil {
			return err
		}
		expires := decodeExpiry(ub.Get(authExpiresKey))
		ok = expires == 0 || time.Now().Unix() < expires
		return nil
	})
	if errors.Is(err, storage.ErrAuthNotFound) {
		return false, nil
	}
	return ok, err
}

// currentSession находит bucket сессии, на которую указывает current
func currentSession(tx *bbolt.Tx) (string, *bbolt.Bucket, error) {
	bucket := tx.Bucket(bucketAuth)
	if bucket == nil {
		return "", nil, fmt.Errorf("auth bucket not found")
	}

	username := bucket.Get(authCurrentKey)
	if len(username) == 0 {
		return "", nil, storage.ErrAuthNotFound
	}
	// указатель без сессии (например, запись старого формата) = не залогинен
	ub := bucket.Bucket(sessionBucketName(string(username)))
	if ub == nil {
		return "", nil, storage.ErrAuthNotFound
	}
	return string(username), ub, nil
}

// dropSessions удаляет сессии всех пользователей, кроме keep
func dropSessions(bucket *bbolt.Bucket, keep string) error {
	keepName := sessionBucketName(keep)
	var stale [][]byte
	err := bucket.ForEach(func(k, v []byte) error {
		// v == nil у вложенных bucket
		if v == nil && bytes.HasPrefix(k, authUserPrefix) && !bytes.Equal(k, keepName) {
			stale = append(stale, append([]byte(nil), k...))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan sessions: %w", err)
	}

	for _, name := range stale {
		if err := bucket.DeleteBucket(name); err != nil {
			return fmt.Errorf("failed to drop session of %s: %w", name, err)
		}
	}
	return nil
}

func sessionBucketName(username string) []byte {
	return append(append([]byte(nil), authUserPrefix...), username...)
}

func decodeExpiry(b []byte) int64 {
	if len(b) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}
