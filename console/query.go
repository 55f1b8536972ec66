package console

import (
	"context"
	"sync"
	"time"
)

// QueryKey identifies a cached query.
type QueryKey string

// TasksQuery caches the task list.
const TasksQuery QueryKey = "tasks"

type queryEntry struct {
	data      any
	fetchedAt time.Time
	stale     bool
}

// QueryCache holds query results until they are invalidated.
type QueryCache struct {
	mu      sync.Mutex
	entries map[QueryKey]*queryEntry
	gens    map[QueryKey]uint64
}

func NewQueryCache() *QueryCache {
	return &QueryCache{entries: make(map[QueryKey]*queryEntry), gens: make(map[QueryKey]uint64)}
}

// Invalidate marks key stale so the next Fetch reloads it. Loads already in
// flight for key will not be cached.
func (q *QueryCache) Invalidate(key QueryKey) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.gens[key]++
	if e, ok := q.entries[key]; ok {
		e.stale = true
	}
}

// FetchedAt returns when key was last loaded.
func (q *QueryCache) FetchedAt(key QueryKey) (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[key]
	if !ok {
		return time.Time{}, false
	}
	return e.fetchedAt, true
}

// Fetch returns the cached value for key, calling load when it is missing or stale.
// A failed load leaves any previous value in place, and a load that overlapped an
// Invalidate is returned to the caller but not cached.
func Fetch[T any](ctx context.Context, q *QueryCache, key QueryKey, load func(context.Context) (T, error)) (T, error) {
	q.mu.Lock()
	if e, ok := q.entries[key]; ok && !e.stale {
		if v, ok := e.data.(T); ok {
			q.mu.Unlock()
			return v, nil
		}
	}
	gen := q.gens[key]
	q.mu.Unlock()

	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	q.mu.Lock()
	if q.gens[key] == gen {
		q.entries[key] = &queryEntry{data: v, fetchedAt: time.Now()}
	}
	q.mu.Unlock()
	return v, nil
}
