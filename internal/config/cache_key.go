package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a signed-in user's auth session.
func (r *CacheKeyStruct) UserSessionKey(userID string) string {
	return fmt.Sprintf("login:%s", userID)
}

// AttemptNamespace returns the key prefix for one attempt's durable store.
// Everything the browser would keep in tab storage lives under this prefix.
func (r *CacheKeyStruct) AttemptNamespace(attemptID string) string {
	return fmt.Sprintf("attempt:%s", attemptID)
}

// UserAttemptKey returns the cache key mapping a user to their attempt id.
func (r *CacheKeyStruct) UserAttemptKey(userID string) string {
	return fmt.Sprintf("user:%s:attempt", userID)
}

// ExamPayloadKey returns the cache key for an exam's student-facing payload.
func (r *CacheKeyStruct) ExamPayloadKey(examID string) string {
	return fmt.Sprintf("exam:%s:payload", examID)
}

// ExamAnswerKey returns the cache key for an exam's answer key hash.
func (r *CacheKeyStruct) ExamAnswerKey(examID string) string {
	return fmt.Sprintf("exam:%s:key", examID)
}

// AttemptSnapshotKey returns the cache key for an attempt's per-question
// answer snapshots (crash recovery for the in-memory accumulator).
func (r *CacheKeyStruct) AttemptSnapshotKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:snapshots", attemptID)
}

var CacheKey = NewCacheKeyStruct()
