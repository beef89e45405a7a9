package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-replay/internal/aggregate"
)

func TestResultCache_PutGet(t *testing.T) {
	c := New(10)
	result := &aggregate.BacktestResult{ID: "bt-1"}
	c.Put("bt-1", result)

	got, ok := c.Get("bt-1")
	require.True(t, ok)
	assert.Same(t, result, got)
}

func TestResultCache_MissingKey(t *testing.T) {
	c := New(10)
	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func TestResultCache_FIFOEviction(t *testing.T) {
	c := New(2)
	c.Put("a", &aggregate.BacktestResult{ID: "a"})
	c.Put("b", &aggregate.BacktestResult{ID: "b"})
	c.Put("c", &aggregate.BacktestResult{ID: "c"})

	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should have been evicted")

	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestResultCache_PutExistingDoesNotEvict(t *testing.T) {
	c := New(2)
	c.Put("a", &aggregate.BacktestResult{ID: "a"})
	c.Put("b", &aggregate.BacktestResult{ID: "b"})
	c.Put("a", &aggregate.BacktestResult{ID: "a", Status: aggregate.Completed})

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, aggregate.Completed, got.Status)
	assert.Equal(t, 2, c.Size())
}

func TestResultCache_Clear(t *testing.T) {
	c := New(10)
	c.Put("a", &aggregate.BacktestResult{ID: "a"})
	c.Clear()
	assert.Equal(t, 0, c.Size())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestResultCache_AllValuesOrderedByInsertion(t *testing.T) {
	c := New(10)
	c.Put("a", &aggregate.BacktestResult{ID: "a"})
	c.Put("b", &aggregate.BacktestResult{ID: "b"})

	all := c.AllValues()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
}
