package snowflake

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidWorker(t *testing.T) {
	_, err := New(MaxWorker + 1)
	require.Equal(t, ErrInvalidWorker, err)

	g, err := New(MaxWorker)
	require.NoError(t, err)
	require.NotNil(t, g)
}

func TestGenerator_Generate(t *testing.T) {
	now := time.Date(2021, time.January, 1, 10, 0, 0, 0, time.UTC)

	g, err := New(7, WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	id := g.Generate()
	assert.Equal(t, now, TimestampOf(id))
	assert.EqualValues(t, 7, WorkerOf(id))

	next := g.Generate()
	assert.Greater(t, next, id)
	assert.Equal(t, id+1, next)
}

func TestGenerator_Generate_SequenceExhausted(t *testing.T) {
	start := time.Date(2021, time.January, 1, 10, 0, 0, 0, time.UTC)

	var calls int
	clock := func() time.Time {
		calls++
		// first millisecond lasts long enough to exhaust the sequence
		if calls <= maxSequence+10 {
			return start
		}
		return start.Add(time.Millisecond)
	}

	g, err := New(1, WithClock(clock))
	require.NoError(t, err)

	seen := make(map[uint64]struct{}, maxSequence+2)
	var last uint64
	for i := 0; i < maxSequence+2; i++ {
		id := g.Generate()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %d", id)
		require.Greater(t, id, last)
		seen[id] = struct{}{}
		last = id
	}

	assert.Equal(t, start.Add(time.Millisecond), TimestampOf(last))
}

func TestGenerator_Generate_ClockMovedBackwards(t *testing.T) {
	now := time.Date(2021, time.January, 1, 10, 0, 0, 0, time.UTC)

	g, err := New(1, WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	first := g.Generate()
	now = now.Add(-time.Second)
	second := g.Generate()

	require.Greater(t, second, first)
	assert.Equal(t, TimestampOf(first), TimestampOf(second))
}

func TestGenerator_Generate_Concurrent(t *testing.T) {
	g, err := New(3)
	require.NoError(t, err)

	const (
		workers = 8
		perWork = 5000
	)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		ids = make(map[uint64]struct{}, workers*perWork)
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			local := make([]uint64, perWork)
			for j := range local {
				local[j] = g.Generate()
			}

			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				ids[id] = struct{}{}
			}
		}()
	}

	wg.Wait()

	require.Len(t, ids, workers*perWork)
}

func TestTimestampOf(t *testing.T) {
	assert.Equal(t, Epoch, TimestampOf(0))
	assert.Equal(t, Epoch.Add(time.Second), TimestampOf(uint64(1000)<<timestampShift))
}
