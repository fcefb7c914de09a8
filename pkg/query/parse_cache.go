package query

import (
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dd0wney/graphplan/pkg/metrics"
)

// QueryStatistics tracks executions of one query text
type QueryStatistics struct {
	QueryText          string
	ExecutionCount     int
	TotalExecutionTime time.Duration
	AvgExecutionTime   time.Duration
}

// ParseCache keeps parsed statements by query text. Plans are not cached:
// each execution plans against the catalog of its own snapshot.
type ParseCache struct {
	entries *lru.Cache[string, *Query]
	metrics *metrics.Registry

	mu    sync.Mutex
	stats *lru.Cache[string, *QueryStatistics]
}

// maxTrackedQueries bounds execution statistics when statement caching is
// disabled.
const maxTrackedQueries = 1024

// NewParseCache creates a cache holding up to size statements, and
// statistics for as many distinct query texts. A size of zero or less
// disables caching but still tracks statistics for up to
// maxTrackedQueries texts, least recently executed evicted first.
func NewParseCache(size int, m *metrics.Registry) *ParseCache {
	pc := &ParseCache{metrics: m}
	tracked := maxTrackedQueries
	if size > 0 {
		// lru.New only fails for a non-positive size
		pc.entries, _ = lru.New[string, *Query](size)
		tracked = size
	}
	pc.stats, _ = lru.New[string, *QueryStatistics](tracked)
	return pc
}

// Parse returns the cached statement for text, parsing it on a miss.
// Failed parses are not cached.
func (pc *ParseCache) Parse(text string) (*Query, error) {
	if pc.entries != nil {
		if q, ok := pc.entries.Get(text); ok {
			pc.record(true)
			return q, nil
		}
	}
	pc.record(false)

	q, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if pc.entries != nil {
		pc.entries.Add(text, q)
	}
	return q, nil
}

func (pc *ParseCache) record(hit bool) {
	if pc.metrics != nil {
		pc.metrics.RecordParseCache(hit)
	}
}

// Len returns the number of cached statements
func (pc *ParseCache) Len() int {
	if pc.entries == nil {
		return 0
	}
	return pc.entries.Len()
}

// Purge drops every cached statement and statistic
func (pc *ParseCache) Purge() {
	if pc.entries != nil {
		pc.entries.Purge()
	}
	pc.stats.Purge()
}

// RecordExecution records query execution statistics
func (pc *ParseCache) RecordExecution(text string, elapsed time.Duration) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	stats, exists := pc.stats.Get(text)
	if !exists {
		stats = &QueryStatistics{QueryText: text}
		pc.stats.Add(text, stats)
	}
	stats.ExecutionCount++
	stats.TotalExecutionTime += elapsed
	stats.AvgExecutionTime = stats.TotalExecutionTime / time.Duration(stats.ExecutionCount)
}

// TopQueries returns the most frequently executed queries, ties broken by
// query text.
func (pc *ParseCache) TopQueries(limit int) []QueryStatistics {
	pc.mu.Lock()
	tracked := pc.stats.Values()
	all := make([]QueryStatistics, 0, len(tracked))
	for _, s := range tracked {
		all = append(all, *s)
	}
	pc.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].ExecutionCount != all[j].ExecutionCount {
			return all[i].ExecutionCount > all[j].ExecutionCount
		}
		return all[i].QueryText < all[j].QueryText
	})
	if limit >= 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}
