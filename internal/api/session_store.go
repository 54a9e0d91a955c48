package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	refreshTokenBlacklistKeyPrefix = "auth:refresh:blacklist:"
	loginRateKeyPrefix             = "rate:login:"
	loginLockKeyPrefix             = "lock:login:"
	loginFailKeyPrefix             = "lock:login:fail:"
)

// SessionStore 保存登录节流状态与已吊销的刷新令牌。
type SessionStore interface {
	// CheckLogin 计入一次登录尝试；超出频率或账号锁定时返回 limited。
	CheckLogin(ctx context.Context, ip, email string) (limited bool, reason string, err error)
	RecordLoginFailure(ctx context.Context, email string) error
	ResetLoginFailures(ctx context.Context, email string) error
	RevokeRefreshToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRefreshTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisSessionStore 基于 Redis 的 SessionStore。
type RedisSessionStore struct {
	client        redis.UniversalClient
	ratePerHour   int
	lockThreshold int
	lockTTL       time.Duration
	now           func() time.Time
}

// NewRedisSessionStore 构造 RedisSessionStore。
func NewRedisSessionStore(client redis.UniversalClient, ratePerHour, lockThreshold int, lockTTL time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		client:        client,
		ratePerHour:   ratePerHour,
		lockThreshold: lockThreshold,
		lockTTL:       lockTTL,
		now:           time.Now,
	}
}

func (s *RedisSessionStore) CheckLogin(ctx context.Context, ip, email string) (bool, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	// 速率限制：每 IP+邮箱 每小时 ratePerHour 次
	if s.ratePerHour > 0 {
		rateKey := loginRateKeyPrefix + ip + ":" + email + ":" + s.now().UTC().Format("2006010215")
		count, err := incrWithTTL(ctx, s.client, rateKey, time.Hour)
		if err != nil {
			return false, "", err
		}
		if count > int64(s.ratePerHour) {
			return true, "rate limit exceeded", nil
		}
	}

	ttl, err := s.client.TTL(ctx, loginLockKeyPrefix+email).Result()
	if err != nil {
		return false, "", err
	}
	if ttl > 0 {
		return true, "account temporarily locked", nil
	}
	return false, "", nil
}

func (s *RedisSessionStore) RecordLoginFailure(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	count, err := incrWithTTL(ctx, s.client, loginFailKeyPrefix+email, s.lockTTL)
	if err != nil {
		return err
	}
	if s.lockThreshold > 0 && count >= int64(s.lockThreshold) {
		return s.client.Set(ctx, loginLockKeyPrefix+email, "1", s.lockTTL).Err()
	}
	return nil
}

func (s *RedisSessionStore) ResetLoginFailures(ctx context.Context, email string) error {
	return s.client.Del(ctx, loginFailKeyPrefix+strings.ToLower(strings.TrimSpace(email))).Err()
}

func (s *RedisSessionStore) RevokeRefreshToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}
	return s.client.Set(ctx, refreshTokenBlacklistKeyPrefix+jti, "revoked", ttl).Err()
}

func (s *RedisSessionStore) IsRefreshTokenRevoked(ctx context.Context, jti string) (bool, error) {
	err := s.client.Get(ctx, refreshTokenBlacklistKeyPrefix+jti).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}

type redisRateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

func incrWithTTL(ctx context.Context, client redisRateCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}
