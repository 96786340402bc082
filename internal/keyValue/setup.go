package keyValue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type value struct {
	value   string
	expires time.Time
}

// Store keeps short lived values either in redis or, when no redis client
// is given, in a local hashmap that is swept every minute.
type Store struct {
	sugar       *zap.SugaredLogger
	redisClient *redis.Client

	mutex   sync.RWMutex
	hashmap map[string]value
}

func New(ctx context.Context, sugar *zap.SugaredLogger, redisClient *redis.Client) *Store {
	s := &Store{
		sugar:       sugar,
		redisClient: redisClient,
		hashmap:     make(map[string]value),
	}

	if s.selfContained() {
		go s.checkForLocalExpiredKeys(ctx)
	}

	return s
}

func (s *Store) selfContained() bool {
	return s.redisClient == nil
}

func (s *Store) checkForLocalExpiredKeys(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *Store) sweep(now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for key, v := range s.hashmap {
		if v.expires.Before(now) {
			delete(s.hashmap, key)
		}
	}
}

// Get returns "" when the key is missing or expired.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if s.selfContained() {
		s.sugar.Debugf("Getting value of key [%s] from hashmap", key)

		s.mutex.RLock()
		defer s.mutex.RUnlock()

		v, ok := s.hashmap[key]
		if !ok || v.expires.Before(time.Now()) {
			return "", nil
		}
		return v.value, nil
	}

	s.sugar.Debugf("Getting value of key [%s] from redis", key)

	result, err := s.redisClient.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	} else if err != nil {
		return "", err
	}

	return result, nil
}

func (s *Store) Set(ctx context.Context, key string, v string, expires time.Duration) error {
	if s.selfContained() {
		s.sugar.Debugf("Setting value of key [%s] to [%s] in hashmap", key, v)

		s.mutex.Lock()
		defer s.mutex.Unlock()

		s.hashmap[key] = value{v, time.Now().Add(expires)}
		return nil
	}

	s.sugar.Debugf("Setting value of key [%s] to [%s] in redis", key, v)
	return s.redisClient.Set(ctx, key, v, expires).Err()
}

func (s *Store) Del(ctx context.Context, key string) error {
	if s.selfContained() {
		s.sugar.Debugf("Deleting key [%s] from hashmap", key)

		s.mutex.Lock()
		defer s.mutex.Unlock()

		delete(s.hashmap, key)
		return nil
	}

	s.sugar.Debugf("Deleting key [%s] from redis", key)
	return s.redisClient.Del(ctx, key).Err()
}

func SetupRedis(ctx context.Context, address string, password string, db int) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	err := redisClient.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return redisClient, nil
}
