package results

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RedisStore keeps one sorted set per level scored by time, a hash of
// result documents and a list of result ids per user.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client. Keys are namespaced by prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "blockpush"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) levelKey(level int) string {
	return s.prefix + ":results:level:" + strconv.Itoa(level)
}

func (s *RedisStore) userKey(userID string) string {
	return s.prefix + ":results:user:" + userID
}

func (s *RedisStore) dataKey() string {
	return s.prefix + ":results:data"
}

func (s *RedisStore) Record(ctx context.Context, r *Result) error {
	if err := prepare(r); err != nil {
		return err
	}

	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.dataKey(), r.ID, doc)
		pipe.ZAdd(ctx, s.levelKey(r.Level), redis.Z{Score: float64(r.Time), Member: r.ID})
		pipe.RPush(ctx, s.userKey(r.UserID), r.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	return nil
}

func (s *RedisStore) ByLevel(ctx context.Context, level int) ([]Result, error) {
	ids, err := s.client.ZRange(ctx, s.levelKey(level), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read level ranking: %w", err)
	}
	list, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	sortFastest(list)
	return list, nil
}

func (s *RedisStore) ByUser(ctx context.Context, userID string) ([]Result, error) {
	ids, err := s.client.LRange(ctx, s.userKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read user results: %w", err)
	}
	list, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	sortOldest(list)
	return list, nil
}

func (s *RedisStore) load(ctx context.Context, ids []string) ([]Result, error) {
	list := []Result{}
	if len(ids) == 0 {
		return list, nil
	}

	docs, err := s.client.HMGet(ctx, s.dataKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}

	for i, doc := range docs {
		raw, ok := doc.(string)
		if !ok {
			log.WithField("id", ids[i]).Warn("[RESULTS] indexed result has no document")
			continue
		}
		var r Result
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("failed to decode result %s: %w", ids[i], err)
		}
		list = append(list, r)
	}
	return list, nil
}

// Close closes the underlying client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
