package resultstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore provides a Redis-backed implementation of the Store interface.
// It uses JSON serialization for result storage and supports automatic
// TTL-based cleanup. This implementation is suitable for sharing evaluation
// results across machines and long-running evaluation services.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL sets the time-to-live for stored results.
// After this duration, results will be automatically deleted.
// Default is 24 hours. Set to 0 for no expiration.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for Redis keys.
// Default is "replaykit".
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a new Redis-backed result store.
//
// Example:
//
//	store := NewRedisStore(
//	    redis.NewClient(&redis.Options{Addr: "localhost:6379"}),
//	    WithTTL(72 * time.Hour),
//	    WithPrefix("myeval"),
//	)
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client: client,
		ttl:    defaultTTLHours * time.Hour, // Default TTL
		prefix: "replaykit",                 // Default prefix
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Load retrieves a result by ID from Redis.
func (s *RedisStore) Load(ctx context.Context, id string) (*Result, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	key := s.resultKey(id)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}

// Save persists a result to Redis with TTL.
// Uses a pipeline to batch the SET and optional run index update into a single round-trip.
func (s *RedisStore) Save(ctx context.Context, result *Result) error {
	if result == nil {
		return ErrInvalidResult
	}
	if result.ID == "" {
		return ErrInvalidID
	}

	result.UpdatedAt = time.Now()
	if result.CreatedAt.IsZero() {
		result.CreatedAt = result.UpdatedAt
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	// Pipeline: SET result + optional SAdd/Expire for run index
	key := s.resultKey(result.ID)
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, s.ttl)

	if result.RunID != "" {
		indexKey := s.runIndexKey(result.RunID)
		pipe.SAdd(ctx, indexKey, result.ID)
		if s.ttl > 0 {
			pipe.Expire(ctx, indexKey, s.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}

	return nil
}

// Delete removes a result from Redis.
// Uses a pipeline to batch the DEL and optional run index cleanup.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}

	// Load result to get RunID for index cleanup
	result, err := s.Load(ctx, id)
	if err != nil {
		return err
	}

	key := s.resultKey(id)
	pipe := s.client.Pipeline()
	delCmd := pipe.Del(ctx, key)

	if result.RunID != "" {
		indexKey := s.runIndexKey(result.RunID)
		pipe.SRem(ctx, indexKey, id)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}

	if delCmd.Val() == 0 {
		return ErrNotFound
	}

	return nil
}

// List returns result IDs matching the given criteria.
func (s *RedisStore) List(ctx context.Context, opts ListOptions) ([]string, error) {
	ids, err := s.fetchResultIDs(ctx, opts.RunID)
	if err != nil {
		return nil, err
	}

	// Sorting requires loading the results to compare their timestamps
	if opts.SortBy != "" {
		if err := s.sortResults(ctx, ids, opts.SortBy, opts.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to sort results: %w", err)
		}
	}

	return s.applyPagination(ids, opts.Offset, opts.Limit), nil
}

// fetchResultIDs retrieves result IDs for a run or all results
func (s *RedisStore) fetchResultIDs(ctx context.Context, runID string) ([]string, error) {
	if runID != "" {
		return s.fetchRunResults(ctx, runID)
	}
	return s.scanAllResults(ctx)
}

// fetchRunResults gets results for a specific run from the index
func (s *RedisStore) fetchRunResults(ctx context.Context, runID string) ([]string, error) {
	indexKey := s.runIndexKey(runID)
	members, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis smembers failed: %w", err)
	}
	return members, nil
}

// scanAllResults scans all result keys in Redis
func (s *RedisStore) scanAllResults(ctx context.Context) ([]string, error) {
	var ids []string
	pattern := s.resultKey("*")
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		id := s.extractIDFromKey(key)
		if id != "" {
			ids = append(ids, id)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan failed: %w", err)
	}
	return ids, nil
}

// applyPagination applies offset and limit to the result ID list
func (s *RedisStore) applyPagination(ids []string, offset, limit int) []string {
	if limit == 0 {
		limit = 100 // Default limit
	}

	if offset >= len(ids) {
		return []string{}
	}

	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}

	return ids[offset:end]
}

// resultKey generates the Redis key for a result.
func (s *RedisStore) resultKey(id string) string {
	return fmt.Sprintf("%s:result:%s", s.prefix, id)
}

// runIndexKey generates the Redis key for a run's result index.
func (s *RedisStore) runIndexKey(runID string) string {
	return fmt.Sprintf("%s:run:%s:results", s.prefix, runID)
}

// extractIDFromKey extracts the result ID from a Redis key.
func (s *RedisStore) extractIDFromKey(key string) string {
	prefix := s.resultKey("")
	if strings.HasPrefix(key, prefix) {
		return strings.TrimPrefix(key, prefix)
	}
	return ""
}

// sortResults sorts result IDs using pipelined GET to fetch all results
// in a single round-trip, then sorts in memory.
func (s *RedisStore) sortResults(ctx context.Context, ids []string, sortBy, sortOrder string) error {
	if len(ids) == 0 {
		return nil
	}

	results, err := s.pipelinedLoadResults(ctx, ids)
	if err != nil {
		return err
	}

	ascending := strings.EqualFold(sortOrder, "asc")
	sortResultsByField(results, sortBy, ascending)

	// Update ids slice with sorted order
	for i, r := range results {
		ids[i] = r.id
	}

	return nil
}

// resultWithID pairs a result ID with its loaded record for sorting.
type resultWithID struct {
	id     string
	result *Result
}

// pipelinedLoadResults fetches multiple results using a single pipelined GET.
func (s *RedisStore) pipelinedLoadResults(ctx context.Context, ids []string) ([]resultWithID, error) {
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.resultKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis pipeline failed: %w", err)
	}

	results := make([]resultWithID, 0, len(ids))
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("redis get failed: %w", err)
		}
		var result Result
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		results = append(results, resultWithID{id: ids[i], result: &result})
	}
	return results, nil
}

// sortResultsByField sorts a slice of resultWithID entries by the given field and direction.
func sortResultsByField(results []resultWithID, sortBy string, ascending bool) {
	sort.Slice(results, func(i, j int) bool {
		var less bool
		switch sortBy {
		case SortByCreatedAt:
			less = results[i].result.CreatedAt.Before(results[j].result.CreatedAt)
		case SortByUpdatedAt, "":
			less = results[i].result.UpdatedAt.Before(results[j].result.UpdatedAt)
		default:
			return false
		}

		if ascending {
			return less
		}
		return !less
	})
}
