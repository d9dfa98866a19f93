package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
)

// SessionStore keeps login sessions as Redis hashes that expire with the session.
// Each user also has a set of session IDs so all of them can be revoked at once.
//
//	session:<session_id>       hash
//	user_sessions:<user_id>    set of session IDs
type SessionStore struct {
	client redis.Cmdable
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client redis.Cmdable) *SessionStore {
	return &SessionStore{client: client}
}

// Save writes the session, indexes it under its user and sets both expiries in
// one transaction. The index lives as long as the user's newest session.
func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	key := sessionKey(sess.ID)
	index := userKey(sess.UserID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]interface{}{
			"user_id":    sess.UserID,
			"is_staff":   strconv.FormatBool(sess.IsStaff),
			"created_at": sess.CreatedAt.Unix(),
			"expires_at": sess.ExpiresAt.Unix(),
		})
		pipe.ExpireAt(ctx, key, sess.ExpiresAt)
		pipe.SAdd(ctx, index, sess.ID)
		pipe.ExpireAt(ctx, index, sess.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get loads a session. Missing and expired keys report domain.ErrSessionNotFound.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	fields, err := s.client.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(fields) == 0 || fields["user_id"] == "" {
		return nil, domain.ErrSessionNotFound
	}
	return decodeSession(id, fields), nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	key := sessionKey(id)
	userID, err := s.client.HGet(ctx, key, "user_id").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("delete session: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if userID != "" {
			pipe.SRem(ctx, userKey(userID), id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByUser removes every indexed session of userID except keepID.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID, keepID string) (int64, error) {
	index := userKey(userID)
	ids, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return 0, fmt.Errorf("list user sessions: %w", err)
	}

	doomed := revocable(ids, keepID)
	if len(doomed) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(doomed))
	members := make([]interface{}, 0, len(doomed))
	for _, id := range doomed {
		keys = append(keys, sessionKey(id))
		members = append(members, id)
	}

	var del *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, keys...)
		pipe.SRem(ctx, index, members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("revoke user sessions: %w", err)
	}
	return del.Val(), nil
}

func sessionKey(id string) string {
	return "session:" + id
}

func userKey(userID string) string {
	return "user_sessions:" + userID
}

func revocable(ids []string, keepID string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != keepID {
			out = append(out, id)
		}
	}
	return out
}

func decodeSession(id string, fields map[string]string) *domain.Session {
	staff, _ := strconv.ParseBool(fields["is_staff"])
	return &domain.Session{
		ID:        id,
		UserID:    fields["user_id"],
		IsStaff:   staff,
		CreatedAt: unixField(fields["created_at"]),
		ExpiresAt: unixField(fields["expires_at"]),
	}
}

func unixField(v string) time.Time {
	ts, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
