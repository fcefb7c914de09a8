package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/graphplan/pkg/metrics"
)

func TestParseCache_HitsAndMisses(t *testing.T) {
	reg := metrics.NewRegistry()
	pc := NewParseCache(2, reg)

	first, err := pc.Parse("MATCH (n) RETURN n")
	require.NoError(t, err)
	second, err := pc.Parse("MATCH (n) RETURN n")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = pc.Parse("MATCH (n RETURN n")
	assert.Error(t, err)
	assert.Equal(t, 1, pc.Len(), "failed parses are not cached")

	assert.Equal(t, 1.0, counterValue(t, reg.ParseCacheHits))
	assert.Equal(t, 2.0, counterValue(t, reg.ParseCacheMisses))
}

func TestParseCache_Eviction(t *testing.T) {
	pc := NewParseCache(2, nil)
	for _, text := range []string{"MATCH (a) RETURN a", "MATCH (b) RETURN b", "MATCH (c) RETURN c"} {
		_, err := pc.Parse(text)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, pc.Len())

	pc.Purge()
	assert.Zero(t, pc.Len())
}

func TestParseCache_Disabled(t *testing.T) {
	pc := NewParseCache(0, nil)
	first, err := pc.Parse("MATCH (n) RETURN n")
	require.NoError(t, err)
	second, err := pc.Parse("MATCH (n) RETURN n")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Zero(t, pc.Len())
}

func TestParseCache_TopQueries(t *testing.T) {
	pc := NewParseCache(8, nil)
	pc.RecordExecution("b", 10*time.Millisecond)
	pc.RecordExecution("a", 30*time.Millisecond)
	pc.RecordExecution("a", 10*time.Millisecond)
	pc.RecordExecution("c", time.Millisecond)

	top := pc.TopQueries(2)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].QueryText)
	assert.Equal(t, 2, top[0].ExecutionCount)
	assert.Equal(t, 20*time.Millisecond, top[0].AvgExecutionTime)
	assert.Equal(t, "b", top[1].QueryText, "ties broken by text")

	assert.Len(t, pc.TopQueries(-1), 3)
}

func TestParseCache_StatisticsAreBounded(t *testing.T) {
	pc := NewParseCache(2, nil)
	pc.RecordExecution("a", time.Millisecond)
	pc.RecordExecution("b", time.Millisecond)
	pc.RecordExecution("a", time.Millisecond)
	pc.RecordExecution("c", time.Millisecond)

	top := pc.TopQueries(-1)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].QueryText, "recently executed text survives")
	assert.Equal(t, 2, top[0].ExecutionCount)
	assert.Equal(t, "c", top[1].QueryText)

	pc.Purge()
	assert.Empty(t, pc.TopQueries(-1))

	disabled := NewParseCache(0, nil)
	for i := 0; i < maxTrackedQueries+10; i++ {
		disabled.RecordExecution(fmt.Sprintf("q%d", i), time.Millisecond)
	}
	assert.Len(t, disabled.TopQueries(-1), maxTrackedQueries)
}

func TestExecutor_RecordsExecutionStatistics(t *testing.T) {
	g := newTestGraph(t)
	seedPeopleAndCountries(t, g)
	e := newTestExecutor(g)

	for i := 0; i < 3; i++ {
		mustExecute(t, e, "MATCH (c:country) RETURN c.name")
	}
	mustExecute(t, e, scenarioQuery)

	top := e.Cache().TopQueries(1)
	require.Len(t, top, 1)
	assert.Equal(t, "MATCH (c:country) RETURN c.name", top[0].QueryText)
	assert.Equal(t, 3, top[0].ExecutionCount)
}
