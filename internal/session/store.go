package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// IsNotFound reports whether err means the session is gone.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Store persists sessions.
//
// Only Create may bring a record into existence. Save overwrites a live
// record and Touch extends its expiry; both fail with ErrNotFound once the
// session is gone, so a request that loaded a session before it was
// destroyed cannot resurrect it.
type Store interface {
	Create(ctx context.Context, s *Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Touch(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	// DeleteByUser removes every session of userID.
	DeleteByUser(ctx context.Context, userID uint) error
}

const (
	redisKeyPrefix     = "session:"
	redisUserKeyPrefix = "session_user:"
)

// RedisStore keeps sessions as JSON documents with a Redis TTL. Each user
// has a set of session ids so all of them can be revoked at once.
// Redis errors are returned to the caller.
type RedisStore struct {
	client *redis.Client
}

// Ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a session store on client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func userKey(userID uint) string {
	return redisUserKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

// Create writes a new session and indexes it under its user.
func (s *RedisStore) Create(ctx context.Context, sess *Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKeyPrefix+sess.ID, payload, ttl)
		pipe.SAdd(ctx, userKey(sess.UserID), sess.ID)
		pipe.Expire(ctx, userKey(sess.UserID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Get loads a session.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Save overwrites a live session (SET XX) and renews its TTL.
func (s *RedisStore) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	err = s.client.SetArgs(ctx, redisKeyPrefix+sess.ID, payload, redis.SetArgs{Mode: "XX", TTL: ttl}).Err()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := s.client.Expire(ctx, userKey(sess.UserID), ttl).Err(); err != nil {
		return fmt.Errorf("renew user session index: %w", err)
	}
	return nil
}

// Touch extends the TTL of a live session without rewriting it.
func (s *RedisStore) Touch(ctx context.Context, sess *Session, ttl time.Duration) error {
	var renewed *redis.BoolCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		renewed = pipe.Expire(ctx, redisKeyPrefix+sess.ID, ttl)
		pipe.Expire(ctx, userKey(sess.UserID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if !renewed.Val() {
		return ErrNotFound
	}
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
// The id may linger in the user's index until the index expires.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByUser removes every session indexed under userID.
func (s *RedisStore) DeleteByUser(ctx context.Context, userID uint) error {
	ids, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, redisKeyPrefix+id)
	}
	keys = append(keys, userKey(userID))
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

type memoryEntry struct {
	userID    uint
	data      []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

// live returns the entry for id, dropping it if expired. Callers hold mu.
func (s *MemoryStore) live(id string) (memoryEntry, bool) {
	entry, ok := s.items[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.items, id)
		return memoryEntry{}, false
	}
	return entry, true
}

// Create writes a new session.
func (s *MemoryStore) Create(_ context.Context, sess *Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sess.ID] = memoryEntry{userID: sess.UserID, data: payload, expiresAt: s.now().Add(ttl)}
	return nil
}

// Get loads a session, dropping it if expired.
func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(id)
	if !ok {
		return nil, ErrNotFound
	}

	// sessions are stored encoded so callers never share mutable state
	var sess Session
	if err := json.Unmarshal(entry.data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Save overwrites a live session and renews its expiry.
func (s *MemoryStore) Save(_ context.Context, sess *Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live(sess.ID); !ok {
		return ErrNotFound
	}
	s.items[sess.ID] = memoryEntry{userID: sess.UserID, data: payload, expiresAt: s.now().Add(ttl)}
	return nil
}

// Touch extends the expiry of a live session.
func (s *MemoryStore) Touch(_ context.Context, sess *Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(sess.ID)
	if !ok {
		return ErrNotFound
	}
	entry.expiresAt = s.now().Add(ttl)
	s.items[sess.ID] = entry
	return nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// DeleteByUser removes every session of userID.
func (s *MemoryStore) DeleteByUser(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.items {
		if entry.userID == userID {
			delete(s.items, id)
		}
	}
	return nil
}
