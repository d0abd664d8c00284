package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionKey returns the registry key for an issued session token.
func (r *CacheKeyStruct) SessionKey(jti string) string {
	return fmt.Sprintf("session:%s", jti)
}

// UserSessionsKey returns the set of active session ids for one account.
func (r *CacheKeyStruct) UserSessionsKey(uid string) string {
	return fmt.Sprintf("user:%s:sessions", uid)
}

// ExamPayloadKey returns the cache key for an exam's payload
func (r *CacheKeyStruct) ExamPayloadKey(examID string) string {
	return fmt.Sprintf("exam:%s:payload", examID)
}

// ChangeChannel returns the Redis PubSub channel that carries changes under
// the given top-level collection (exams, students, users, branches, subjects).
func (r *CacheKeyStruct) ChangeChannel(collection string) string {
	return fmt.Sprintf("changes:%s", collection)
}

var CacheKey = NewCacheKeyStruct()
