// Package otp issues and verifies short-lived one-time login codes backed
// by Redis. Codes are six digits, bound to a phone number and consumed on
// first successful verification.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

const codeLength = 6

var (
	// ErrCodeMismatch means the submitted code does not match the issued one.
	ErrCodeMismatch = errors.New("otp: code mismatch")
	// ErrCodeExpired means no code is outstanding for the phone number.
	ErrCodeExpired = errors.New("otp: code expired or never issued")
)

// Store issues and verifies codes.
type Store interface {
	Issue(ctx context.Context, phone string) (string, error)
	Verify(ctx context.Context, phone, code string) error
}

type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore builds a Store on the given Redis client. ttl bounds how
// long an issued code stays verifiable.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) Store {
	return &redisStore{rdb: rdb, ttl: ttl}
}

func key(phone string) string {
	return "otp:" + phone
}

// Issue generates a fresh code for the phone number, replacing any
// outstanding one, and stores it with the configured TTL.
func (s *redisStore) Issue(ctx context.Context, phone string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	if err := s.rdb.Set(ctx, key(phone), code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify checks the submitted code and deletes it on success so it cannot
// be replayed.
func (s *redisStore) Verify(ctx context.Context, phone, code string) error {
	stored, err := s.rdb.Get(ctx, key(phone)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCodeExpired
	}
	if err != nil {
		return fmt.Errorf("load otp: %w", err)
	}
	if stored != code {
		return ErrCodeMismatch
	}
	if err := s.rdb.Del(ctx, key(phone)).Err(); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	return nil
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeLength, n), nil
}
