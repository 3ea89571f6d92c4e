package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// StateStore 暂存一次播放会话内尚未 Commit 的 LMSSetValue 写入。
// SetValue 只写这里，Commit 时整批落库；不同元素的暂存互不覆盖，
// 并发 set 不会互相丢失。
type StateStore interface {
	Stage(ctx context.Context, attemptID uint, element, value string) error
	StagedValue(ctx context.Context, attemptID uint, element string) (string, bool, error)
	Staged(ctx context.Context, attemptID uint) (map[string]string, error)
	Clear(ctx context.Context, attemptID uint) error
}

// RedisStateStore 基于 Redis hash 的实现，每个 attempt 一个 hash，
// 字段级写入天然支持并发 set 不同元素。
type RedisStateStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{Client: client, TTL: 24 * time.Hour}
}

func (s *RedisStateStore) key(attemptID uint) string {
	return fmt.Sprintf("scorm:attempt:%d:cmi", attemptID)
}

func (s *RedisStateStore) Stage(ctx context.Context, attemptID uint, element, value string) error {
	key := s.key(attemptID)
	if err := s.Client.HSet(ctx, key, element, value).Err(); err != nil {
		return err
	}
	return s.Client.Expire(ctx, key, s.TTL).Err()
}

func (s *RedisStateStore) StagedValue(ctx context.Context, attemptID uint, element string) (string, bool, error) {
	val, err := s.Client.HGet(ctx, s.key(attemptID), element).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisStateStore) Staged(ctx context.Context, attemptID uint) (map[string]string, error) {
	return s.Client.HGetAll(ctx, s.key(attemptID)).Result()
}

func (s *RedisStateStore) Clear(ctx context.Context, attemptID uint) error {
	return s.Client.Del(ctx, s.key(attemptID)).Err()
}

// MemoryStateStore 进程内实现，单机部署与测试使用
type MemoryStateStore struct {
	mu    sync.RWMutex
	state map[uint]map[string]string
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{state: make(map[uint]map[string]string)}
}

func (s *MemoryStateStore) Stage(ctx context.Context, attemptID uint, element, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.state[attemptID]
	if !ok {
		m = make(map[string]string)
		s.state[attemptID] = m
	}
	m[element] = value
	return nil
}

func (s *MemoryStateStore) StagedValue(ctx context.Context, attemptID uint, element string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.state[attemptID]
	if !ok {
		return "", false, nil
	}
	val, ok := m[element]
	return val, ok, nil
}

func (s *MemoryStateStore) Staged(ctx context.Context, attemptID uint) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.state[attemptID]))
	for k, v := range s.state[attemptID] {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStateStore) Clear(ctx context.Context, attemptID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state, attemptID)
	return nil
}
