package appointment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRepo stores appointment records as JSON values under a single
// hash and a per-day index set. Suited to deployments where Postgres is
// not provisioned yet; the record payload is small and read rarely.
type RedisRepo struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisRepo builds a repo using the given key prefix (e.g. "appt").
func NewRedisRepo(rdb *redis.Client, prefix string) (*RedisRepo, error) {
	if rdb == nil {
		return nil, fmt.Errorf("appointment: redis client is required")
	}
	if prefix == "" {
		prefix = "appt"
	}
	return &RedisRepo{rdb: rdb, prefix: prefix}, nil
}

func (r *RedisRepo) recordsKey() string       { return r.prefix + ":records" }
func (r *RedisRepo) dayKey(day string) string { return r.prefix + ":day:" + day }

func (r *RedisRepo) Store(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("appointment: marshal record: %w", err)
	}

	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, r.recordsKey(), rec.ID, payload)
	if rec.PreferredDay != "" {
		pipe.SAdd(ctx, r.dayKey(rec.PreferredDay), rec.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appointment: redis store: %w", err)
	}
	return nil
}

func (r *RedisRepo) List(ctx context.Context) ([]Record, error) {
	raw, err := r.rdb.HGetAll(ctx, r.recordsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("appointment: redis list: %w", err)
	}
	out := make([]Record, 0, len(raw))
	for _, v := range raw {
		var rec Record
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, fmt.Errorf("appointment: decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *RedisRepo) ListByDay(ctx context.Context, day string) ([]Record, error) {
	ids, err := r.rdb.SMembers(ctx, r.dayKey(day)).Result()
	if err != nil {
		return nil, fmt.Errorf("appointment: redis day index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	raw, err := r.rdb.HMGet(ctx, r.recordsKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("appointment: redis fetch: %w", err)
	}
	var out []Record
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue // id indexed but record evicted
		}
		var rec Record
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("appointment: decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
