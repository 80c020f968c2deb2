package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionOrderKeyPrefix = "payment:order:"
	sessionTidKeyPrefix   = "payment:tid:"

	// SessionTTL bounds how long a ready payment can wait for approval.
	SessionTTL = 30 * time.Minute
)

// SessionStore holds the in-flight payment context between the ready call
// and the approval callback. Entries are single-use: Clear is called on the
// first successful approval so a replayed pg_token finds nothing.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func orderKey(userID string) string { return sessionOrderKeyPrefix + userID }
func tidKey(userID string) string   { return sessionTidKeyPrefix + userID }

func (s *SessionStore) Store(ctx context.Context, userID, orderID, tid string) error {
	if err := s.rdb.Set(ctx, orderKey(userID), orderID, SessionTTL).Err(); err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, tidKey(userID), tid, SessionTTL).Err(); err != nil {
		return fmt.Errorf("storing payment tid: %w", err)
	}
	return nil
}

// Load returns the pending order id and tid. Either missing yields empty
// strings, never an error: the caller's guard treats that as an invalid
// payment session.
func (s *SessionStore) Load(ctx context.Context, userID string) (orderID, tid string, err error) {
	orderID, err = s.rdb.Get(ctx, orderKey(userID)).Result()
	if err == redis.Nil {
		orderID, err = "", nil
	}
	if err != nil {
		return "", "", err
	}
	tid, err = s.rdb.Get(ctx, tidKey(userID)).Result()
	if err == redis.Nil {
		tid, err = "", nil
	}
	if err != nil {
		return "", "", err
	}
	return orderID, tid, nil
}

func (s *SessionStore) Clear(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, orderKey(userID), tidKey(userID)).Err()
}
