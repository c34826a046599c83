package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNotFound     = errors.New("idempotency key not found")
	ErrHashMismatch = errors.New("idempotency key body mismatch")
	ErrInProgress   = errors.New("idempotency key in progress")
)

const redisKeyPrefix = "ledger:idempotency"

type Record struct {
	Key         string
	RequestHash string
	Status      int
	Body        []byte
	ContentType string
	ServedBy    string
}

// Store remembers responses by Idempotency-Key. With a redis client the
// records are shared across processes; without one they live in this process.
type Store struct {
	redis redis.Cmdable
	ttl   time.Duration
	now   func() time.Time

	mu    sync.Mutex
	local map[string]localEntry
}

type localEntry struct {
	env     cacheEnvelope
	expires time.Time
}

func NewStore(redis redis.Cmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{
		redis: redis,
		ttl:   ttl,
		now:   time.Now,
		local: make(map[string]localEntry),
	}
}

type cacheEnvelope struct {
	Key         string `json:"key"`
	Hash        string `json:"hash"`
	InProgress  bool   `json:"in_progress"`
	Status      int    `json:"status"`
	Body        []byte `json:"body"`
	ContentType string `json:"content_type"`
}

func (s *Store) backendName() string {
	if s.redis != nil {
		return "redis"
	}
	return "memory"
}

func (s *Store) Lookup(ctx context.Context, key, requestHash string) (*Record, error) {
	env, err := s.get(ctx, key)
	if err != nil {
		return nil, err
	}
	if env.Hash != requestHash {
		return nil, ErrHashMismatch
	}
	if env.InProgress {
		return nil, ErrInProgress
	}
	return &Record{
		Key:         env.Key,
		RequestHash: env.Hash,
		Status:      env.Status,
		Body:        env.Body,
		ContentType: env.ContentType,
		ServedBy:    s.backendName(),
	}, nil
}

// Reserve claims key for an in-flight request. It reports false when another
// request already holds or completed the key.
func (s *Store) Reserve(ctx context.Context, key, requestHash string) (bool, error) {
	env := cacheEnvelope{Key: key, Hash: requestHash, InProgress: true}
	if s.redis != nil {
		payload, err := json.Marshal(env)
		if err != nil {
			return false, fmt.Errorf("marshal idempotency reservation: %w", err)
		}
		ok, err := s.redis.SetNX(ctx, redisKey(key), payload, s.ttl).Result()
		if err != nil {
			return false, fmt.Errorf("reserve idempotency key: %w", err)
		}
		return ok, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.local[key]; ok && s.now().Before(cur.expires) {
		return false, nil
	}
	s.local[key] = localEntry{env: env, expires: s.now().Add(s.ttl)}
	return true, nil
}

func (s *Store) Finalize(ctx context.Context, key, requestHash string, status int, body []byte, contentType string) (*Record, error) {
	env := cacheEnvelope{
		Key:         key,
		Hash:        requestHash,
		Status:      status,
		Body:        body,
		ContentType: contentType,
	}
	if s.redis != nil {
		payload, err := json.Marshal(env)
		if err != nil {
			return nil, fmt.Errorf("marshal idempotency record: %w", err)
		}
		if err := s.redis.Set(ctx, redisKey(key), payload, s.ttl).Err(); err != nil {
			return nil, fmt.Errorf("finalize idempotency key: %w", err)
		}
	} else {
		s.mu.Lock()
		s.local[key] = localEntry{env: env, expires: s.now().Add(s.ttl)}
		s.mu.Unlock()
	}
	return &Record{
		Key:         key,
		RequestHash: requestHash,
		Status:      status,
		Body:        body,
		ContentType: contentType,
		ServedBy:    s.backendName(),
	}, nil
}

// Release drops an unfinished reservation so the key can be retried.
func (s *Store) Release(ctx context.Context, key string) error {
	if s.redis != nil {
		if err := s.redis.Del(ctx, redisKey(key)).Err(); err != nil {
			return fmt.Errorf("release idempotency key: %w", err)
		}
		return nil
	}
	s.mu.Lock()
	delete(s.local, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) WaitForCompletion(ctx context.Context, key, requestHash string) (*Record, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		rec, err := s.Lookup(ctx, key, requestHash)
		if err == nil {
			return rec, nil
		}
		if errors.Is(err, ErrInProgress) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-ticker.C:
				continue
			}
		}
		return nil, err
	}
}

// Sweep drops expired in-process records.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for key, entry := range s.local {
		if !now.Before(entry.expires) {
			delete(s.local, key)
			removed++
		}
	}
	return removed
}

func (s *Store) get(ctx context.Context, key string) (cacheEnvelope, error) {
	if s.redis != nil {
		val, err := s.redis.Get(ctx, redisKey(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			return cacheEnvelope{}, ErrNotFound
		}
		if err != nil {
			return cacheEnvelope{}, fmt.Errorf("lookup idempotency key: %w", err)
		}
		var env cacheEnvelope
		if err := json.Unmarshal(val, &env); err != nil {
			return cacheEnvelope{}, fmt.Errorf("decode idempotency record: %w", err)
		}
		return env, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.local[key]
	if !ok || !s.now().Before(entry.expires) {
		return cacheEnvelope{}, ErrNotFound
	}
	return entry.env, nil
}

func redisKey(key string) string {
	return fmt.Sprintf("%s:%s", redisKeyPrefix, key)
}
