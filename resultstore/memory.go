package resultstore

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore provides an in-memory implementation of the Store interface.
// It is thread-safe and suitable for development, testing, and single-process
// evaluation runs. For distributed or long-lived deployments, use RedisStore.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]*Result

	// Index for efficient run-based lookups
	runIndex map[string][]string // runID -> []resultID
}

// NewMemoryStore creates a new in-memory result store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results:  make(map[string]*Result),
		runIndex: make(map[string][]string),
	}
}

// Load retrieves a result by ID.
// Returns a deep copy to prevent external mutations.
func (s *MemoryStore) Load(ctx context.Context, id string) (*Result, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result, exists := s.results[id]
	if !exists {
		return nil, ErrNotFound
	}

	return deepCopyResult(result), nil
}

// Save persists a result. If it already exists, it will be replaced.
func (s *MemoryStore) Save(ctx context.Context, result *Result) error {
	if result == nil {
		return ErrInvalidResult
	}
	if result.ID == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a deep copy to prevent external mutations
	resultCopy := deepCopyResult(result)
	resultCopy.UpdatedAt = time.Now()
	if resultCopy.CreatedAt.IsZero() {
		resultCopy.CreatedAt = resultCopy.UpdatedAt
	}

	s.results[result.ID] = resultCopy

	if result.RunID != "" {
		s.updateRunIndex(result.RunID, result.ID)
	}

	return nil
}

// Delete removes a result by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, exists := s.results[id]
	if !exists {
		return ErrNotFound
	}

	if result.RunID != "" {
		s.removeFromRunIndex(result.RunID, id)
	}

	delete(s.results, id)

	return nil
}

// List returns result IDs matching the given criteria.
func (s *MemoryStore) List(ctx context.Context, opts ListOptions) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	if opts.RunID != "" {
		runResults, exists := s.runIndex[opts.RunID]
		if !exists {
			return []string{}, nil
		}
		ids = make([]string, len(runResults))
		copy(ids, runResults)
	} else {
		ids = make([]string, 0, len(s.results))
		for id := range s.results {
			ids = append(ids, id)
		}
	}

	if opts.SortBy != "" {
		s.sortResults(ids, opts.SortBy, opts.SortOrder)
	}

	limit := opts.Limit
	if limit == 0 {
		limit = 100 // Default limit
	}

	start := opts.Offset
	if start >= len(ids) {
		return []string{}, nil
	}

	end := start + limit
	if end > len(ids) {
		end = len(ids)
	}

	return ids[start:end], nil
}

// updateRunIndex adds a result ID to the run's index.
// Must be called with mutex locked.
func (s *MemoryStore) updateRunIndex(runID, resultID string) {
	results, exists := s.runIndex[runID]
	if !exists {
		s.runIndex[runID] = []string{resultID}
		return
	}

	for _, id := range results {
		if id == resultID {
			return
		}
	}

	s.runIndex[runID] = append(results, resultID)
}

// removeFromRunIndex removes a result ID from the run's index.
// Must be called with mutex locked.
func (s *MemoryStore) removeFromRunIndex(runID, resultID string) {
	results, exists := s.runIndex[runID]
	if !exists {
		return
	}

	filtered := make([]string, 0, len(results))
	for _, id := range results {
		if id != resultID {
			filtered = append(filtered, id)
		}
	}

	if len(filtered) == 0 {
		delete(s.runIndex, runID)
	} else {
		s.runIndex[runID] = filtered
	}
}

// sortResults sorts result IDs based on the specified criteria.
// Must be called with read lock held.
func (s *MemoryStore) sortResults(ids []string, sortBy, sortOrder string) {
	ascending := strings.ToLower(sortOrder) == "asc"

	sort.Slice(ids, func(i, j int) bool {
		r1, exists1 := s.results[ids[i]]
		r2, exists2 := s.results[ids[j]]

		if !exists1 || !exists2 {
			return false
		}

		var less bool
		switch sortBy {
		case SortByCreatedAt:
			less = r1.CreatedAt.Before(r2.CreatedAt)
		case SortByUpdatedAt, "":
			less = r1.UpdatedAt.Before(r2.UpdatedAt)
		default:
			// Unknown sort field, no sorting
			return false
		}

		if ascending {
			return less
		}
		return !less
	})
}

// deepCopyResult creates a deep copy of a result.
func deepCopyResult(result *Result) *Result {
	if result == nil {
		return nil
	}

	// Use JSON marshaling for deep copy (simple and reliable)
	data, err := json.Marshal(result)
	if err != nil {
		return nil
	}

	var resultCopy Result
	if err := json.Unmarshal(data, &resultCopy); err != nil {
		return nil
	}

	return &resultCopy
}
