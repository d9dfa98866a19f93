package redis

import (
	"testing"
	"time"
)

func TestDecodeSession(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	expires := created.Add(14 * 24 * time.Hour)

	sess := decodeSession("abc", map[string]string{
		"user_id":    "u1",
		"is_staff":   "true",
		"created_at": "1772442000",
		"expires_at": "1773651600",
	})

	if sess.ID != "abc" || sess.UserID != "u1" || !sess.IsStaff {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if !sess.CreatedAt.Equal(created) {
		t.Errorf("created_at: want %v, got %v", created, sess.CreatedAt)
	}
	if !sess.ExpiresAt.Equal(expires) {
		t.Errorf("expires_at: want %v, got %v", expires, sess.ExpiresAt)
	}
}

func TestDecodeSession_BadFields(t *testing.T) {
	sess := decodeSession("abc", map[string]string{"user_id": "u1", "is_staff": "maybe", "created_at": "x"})

	if sess.IsStaff {
		t.Error("unparseable staff flag must default to false")
	}
	if !sess.CreatedAt.IsZero() || !sess.ExpiresAt.IsZero() {
		t.Errorf("unparseable timestamps must be zero: %+v", sess)
	}
}

func TestSessionKeys(t *testing.T) {
	if got := sessionKey("abc"); got != "session:abc" {
		t.Fatalf("unexpected session key %q", got)
	}
	if got := userKey("u1"); got != "user_sessions:u1" {
		t.Fatalf("unexpected index key %q", got)
	}
}

func TestRevocable(t *testing.T) {
	got := revocable([]string{"a", "keep", "b"}, "keep")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected revocable set: %v", got)
	}
	if got := revocable([]string{"a", "b"}, ""); len(got) != 2 {
		t.Fatalf("empty keep id must revoke everything, got %v", got)
	}
}
