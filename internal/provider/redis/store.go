package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// store keeps each record as a JSON string at <prefix><kind>:<id> and every
// id of the kind in a sorted set at <prefix>index:<kind>. All members share score
// zero so the set orders lexicographically.
type store[T any] struct {
	p    *RedisProvider
	kind types.ProjectionKind
}

func newStore[T any](p *RedisProvider, kind types.ProjectionKind) *store[T] {
	return &store[T]{p: p, kind: kind}
}

func (s *store[T]) recordKey(id string) string {
	return s.p.prefix + string(s.kind) + ":" + id
}

func (s *store[T]) indexKey() string {
	return s.p.prefix + "index:" + string(s.kind)
}

func (s *store[T]) Insert(ctx context.Context, id string, rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", s.kind, err)
	}
	ok, err := s.p.client.SetNX(ctx, s.recordKey(id), data, 0).Result()
	if err != nil {
		return fmt.Errorf("insert %s: %w", s.kind, err)
	}
	if !ok {
		return provider.ErrAlreadyExists
	}
	if err := s.p.client.ZAdd(ctx, s.indexKey(), goredis.Z{Member: id}).Err(); err != nil {
		return fmt.Errorf("indexing %s %s: %w", s.kind, id, err)
	}
	return nil
}

func (s *store[T]) Get(ctx context.Context, id string) (T, error) {
	var rec T
	data, err := s.p.client.Get(ctx, s.recordKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return rec, provider.ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("get %s: %w", s.kind, err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decoding %s %s: %w", s.kind, id, err)
	}
	return rec, nil
}

func (s *store[T]) Put(ctx context.Context, id string, rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", s.kind, err)
	}
	ok, err := s.p.client.SetXX(ctx, s.recordKey(id), data, goredis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("update %s: %w", s.kind, err)
	}
	if !ok {
		return provider.ErrNotFound
	}
	return nil
}

func (s *store[T]) Delete(ctx context.Context, id string) error {
	pipe := s.p.client.TxPipeline()
	del := pipe.Del(ctx, s.recordKey(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", s.kind, err)
	}
	if del.Val() == 0 {
		return provider.ErrNotFound
	}
	return nil
}

func (s *store[T]) ListIDs(ctx context.Context) ([]string, error) {
	ids, err := s.p.client.ZRevRangeByLex(ctx, s.indexKey(), &goredis.ZRangeBy{
		Min: "-",
		Max: "+",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.kind, err)
	}
	return ids, nil
}
