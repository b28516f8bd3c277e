package auth

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session is the opaque server-side login state behind the session cookie.
// It is not an API bearer token; the ID carries no claims.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"userAgent"`
	LoginTime time.Time `json:"loginTime"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SessionStore struct {
	Redis *redis.Client
}

func (s *SessionStore) Create(ctx context.Context, sess Session) error {
	key := "session:" + sess.ID

	data := map[string]interface{}{
		"accountId": sess.AccountID,
		"ipAddress": sess.IP,
		"userAgent": sess.UserAgent,
		"loginTime": sess.LoginTime.Unix(),
		"expires":   sess.ExpiresAt.Unix(),
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}

	pipe := s.Redis.TxPipeline()
	pipe.HSet(ctx, key, data)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	key := "session:" + id
	vals, err := s.Redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, nil
	}

	expUnix, _ := strconv.ParseInt(vals["expires"], 10, 64)
	loginUnix, _ := strconv.ParseInt(vals["loginTime"], 10, 64)

	sess := &Session{
		ID:        id,
		AccountID: vals["accountId"],
		IP:        vals["ipAddress"],
		UserAgent: vals["userAgent"],
		LoginTime: time.Unix(loginUnix, 0),
		ExpiresAt: time.Unix(expUnix, 0),
	}

	if sess.ExpiresAt.Before(time.Now()) {
		_ = s.Delete(ctx, id)
		return nil, nil
	}

	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.Redis.Del(ctx, "session:"+id).Err()
}

func (s *SessionStore) DeleteByAccount(ctx context.Context, accountID string) error {
	var keys []string
	iter := s.Redis.Scan(ctx, 0, "session:*", 100).Iterator()
	for iter.Next(ctx) {
		id := strings.TrimPrefix(iter.Val(), "session:")
		sess, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if sess != nil && sess.AccountID == accountID {
			keys = append(keys, iter.Val())
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.Redis.Del(ctx, keys...).Err()
}

func NewSessionID() string {
	return uuid.NewString()
}
