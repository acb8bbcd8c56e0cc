package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const blobKeyPrefix = "blobs:"

// RedisStore keeps each document as one value in a shared Redis. For
// deployments whose replicas can all reach the same Redis it is the
// lowest-friction backend; the document id is simply its key. Redis offers
// no more write coordination than the HTTP store — a racing SETNX on Create
// is the only concession, and two names can still fork behind a partition.
type RedisStore struct {
	rdb *redis.Client
}

var _ BlobStore = (*RedisStore)(nil)

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Find(ctx context.Context, name string) (string, error) {
	key := blobKeyPrefix + name
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("remote: redis exists: %w", err)
	}
	if n == 0 {
		return "", ErrNotFound
	}
	return key, nil
}

func (s *RedisStore) Create(ctx context.Context, name string, initial []byte) (string, error) {
	key := blobKeyPrefix + name
	// SETNX keeps a same-instant double create from clobbering a sibling's
	// initial body; whichever lands first owns the key and both callers get
	// the same id back.
	if _, err := s.rdb.SetNX(ctx, key, initial, 0).Result(); err != nil {
		return "", fmt.Errorf("remote: redis create: %w", err)
	}
	return key, nil
}

func (s *RedisStore) Read(ctx context.Context, id string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("remote: redis read: %w", err)
	}
	return data, nil
}

func (s *RedisStore) Write(ctx context.Context, id string, data []byte) error {
	if err := s.rdb.Set(ctx, id, data, 0).Err(); err != nil {
		return fmt.Errorf("remote: redis write: %w", err)
	}
	return nil
}
