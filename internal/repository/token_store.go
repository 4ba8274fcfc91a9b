package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skillrise/payment-security/internal/models"
)

var ErrNotFound = errors.New("not found")

const tokenKeyPrefix = "payment_token:"

// RedisTokenStore keeps tokens as JSON strings. Only the encrypted payload and
// non-sensitive card metadata are ever written.
type RedisTokenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisTokenStore builds a store; a zero ttl keeps tokens until deleted.
func NewRedisTokenStore(rdb *redis.Client, ttl time.Duration) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb, ttl: ttl}
}

func (s *RedisTokenStore) Save(ctx context.Context, token *models.PaymentToken) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, tokenKeyPrefix+token.Token, data, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("token %s already exists", token.Token)
	}
	return nil
}

func (s *RedisTokenStore) Get(ctx context.Context, token string) (*models.PaymentToken, error) {
	data, err := s.rdb.Get(ctx, tokenKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var pt models.PaymentToken
	if err := json.Unmarshal(data, &pt); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", token, err)
	}
	return &pt, nil
}

// MemoryTokenStore is used when no Redis is configured and in tests.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]models.PaymentToken
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]models.PaymentToken)}
}

func (s *MemoryTokenStore) Save(_ context.Context, token *models.PaymentToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[token.Token]; exists {
		return fmt.Errorf("token %s already exists", token.Token)
	}
	s.tokens[token.Token] = *token
	return nil
}

func (s *MemoryTokenStore) Get(_ context.Context, token string) (*models.PaymentToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pt, ok := s.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	return &pt, nil
}
