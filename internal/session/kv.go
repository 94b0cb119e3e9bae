// Package session implements the exam-taking session core: the progress
// store, the question controller, the result accumulator and the timer.
// State that a browser would keep in tab storage lives in a per-attempt
// key-value namespace so a page reload cannot silently reset a session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// KV is the durable per-attempt storage contract. Values are strings or
// JSON-serialized structures. Writes are fire-and-forget: implementations
// log failures instead of reporting them to the caller.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
	Clear()
}

// Keys used inside an attempt namespace.
const (
	keyExamID       = "EXAM_ID"
	keyCursor       = "CURSOR"
	keyTimerValue   = "TIME_REMAINING"
	keyTimerRunning = "TIMER_RUNNING"
	keyTimerMark    = "TIMER_MARK"
)

const kvOpTimeout = 2 * time.Second

// RedisKV stores one attempt's namespace as a single Redis hash, so
// Clear is one DEL and the namespace never leaks stray keys.
type RedisKV struct {
	rdb  *redis.Client
	hash string
	log  zerolog.Logger
}

// NewRedisKV creates a KV backed by the Redis hash at hashKey.
func NewRedisKV(rdb *redis.Client, hashKey string, log zerolog.Logger) *RedisKV {
	return &RedisKV{
		rdb:  rdb,
		hash: hashKey,
		log:  log.With().Str("component", "session_kv").Str("namespace", hashKey).Logger(),
	}
}

func (s *RedisKV) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), kvOpTimeout)
	defer cancel()

	val, err := s.rdb.HGet(ctx, s.hash, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn().Err(err).Str("key", key).Msg("KV read failed")
		}
		return "", false
	}
	return val, true
}

func (s *RedisKV) Set(key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), kvOpTimeout)
	defer cancel()

	if err := s.rdb.HSet(ctx, s.hash, key, value).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("KV write failed")
	}
}

func (s *RedisKV) Remove(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), kvOpTimeout)
	defer cancel()

	if err := s.rdb.HDel(ctx, s.hash, key).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("KV remove failed")
	}
}

func (s *RedisKV) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), kvOpTimeout)
	defer cancel()

	if err := s.rdb.Del(ctx, s.hash).Err(); err != nil {
		s.log.Warn().Err(err).Msg("KV clear failed")
	}
}

// MemKV is an in-memory KV used by unit tests and as a fallback when no
// Redis is configured. Safe for concurrent use.
type MemKV struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemKV creates an empty in-memory KV.
func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string]string)}
}

func (s *MemKV) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemKV) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *MemKV) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

func (s *MemKV) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]string)
}
