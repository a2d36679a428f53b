package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_InsertWithinBudget(t *testing.T) {
	c := NewCache[uint64](3)
	require.NoError(t, c.Insert("A", 1, 1))
	require.NoError(t, c.Insert("B", 2, 1))
	require.NoError(t, c.Insert("C", 3, 1))

	assert.Equal(t, 3, c.GetWeight())
	assert.Equal(t, 3, c.GetBudget())

	v, ok := c.Retrieve("B")
	assert.True(t, ok)
	assert.EqualValues(t, 2, v)
}

func TestCache_DuplicateRejected(t *testing.T) {
	c := NewCache[string](2)
	require.NoError(t, c.Insert("dupe", "value", 1))

	err := c.Insert("dupe", "value", 1)
	assert.True(t, errors.Is(err, ErrKeyExists))
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache[string](2)
	c.SetVerbose(true)
	require.NoError(t, c.Insert("evicted", "x", 1))
	require.NoError(t, c.Insert("A", "a", 1))
	require.NoError(t, c.Insert("B", "b", 1))

	_, found := c.Retrieve("evicted")
	assert.False(t, found)
	assert.Equal(t, 2, c.GetWeight())

	_, foundA := c.Retrieve("A")
	_, foundB := c.Retrieve("B")
	assert.True(t, foundA)
	assert.True(t, foundB)
}

func TestCache_EvictsLeastRecentlyRetrieved(t *testing.T) {
	c := NewCache[string](2)
	require.NoError(t, c.Insert("A", "a", 1))
	require.NoError(t, c.Insert("B", "b", 1))

	c.Retrieve("A")
	require.NoError(t, c.Insert("C", "c", 1))

	_, foundB := c.Retrieve("B")
	assert.False(t, foundB)
	_, foundA := c.Retrieve("A")
	assert.True(t, foundA)
}

func TestCache_Clear(t *testing.T) {
	c := NewCache[int](1)
	require.NoError(t, c.Insert("cleared", 1, 1))
	c.Clear()

	_, found := c.Retrieve("cleared")
	assert.False(t, found)
	assert.Zero(t, c.GetWeight())

	require.NoError(t, c.Insert("cleared", 2, 1))
}

func TestCache_Concurrent(t *testing.T) {
	c := NewCache[int](50)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				key := fmt.Sprintf("%d-%d", i, j)
				_ = c.Insert(key, j, 1)
				c.Retrieve(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.GetWeight(), c.GetBudget())
}
