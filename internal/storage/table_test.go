package storage

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMissing = errors.New("entry not found")

type record struct {
	value int
}

func newTestTable() *Table[string, *record] {
	return NewTable[string, *record](errMissing)
}

func TestInsertAndDo(t *testing.T) {
	table := newTestTable()

	require.True(t, table.Insert("a", &record{value: 1}))

	err := table.Do("a", func(r *record) error {
		r.value = 2
		return nil
	})
	require.NoError(t, err)

	err = table.Do("a", func(r *record) error {
		assert.Equal(t, 2, r.value)
		return nil
	})
	require.NoError(t, err)
}

func TestInsertDuplicateKeyFails(t *testing.T) {
	table := newTestTable()

	require.True(t, table.Insert("a", &record{value: 1}))
	require.False(t, table.Insert("a", &record{value: 2}))

	err := table.Do("a", func(r *record) error {
		assert.Equal(t, 1, r.value)
		return nil
	})
	require.NoError(t, err)
}

func TestDoMissingKeyReturnsTableError(t *testing.T) {
	table := newTestTable()

	err := table.Do("nope", func(r *record) error { return nil })
	assert.ErrorIs(t, err, errMissing)
}

func TestDoPropagatesCallbackError(t *testing.T) {
	table := newTestTable()
	table.Insert("a", &record{})

	sentinel := errors.New("boom")
	err := table.Do("a", func(r *record) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}

func TestRemoveReturnsValueExactlyOnce(t *testing.T) {
	table := newTestTable()
	table.Insert("a", &record{value: 7})

	v, ok := table.Remove("a")
	require.True(t, ok)
	assert.Equal(t, 7, v.value)

	_, ok = table.Remove("a")
	assert.False(t, ok)

	err := table.Do("a", func(r *record) error { return nil })
	assert.ErrorIs(t, err, errMissing)
}

func TestRemoveIsExactlyOnceUnderContention(t *testing.T) {
	table := newTestTable()
	table.Insert("a", &record{})

	const contenders = 32
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := table.Remove("a"); ok {
				wins.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestKeyAvailableAgainAfterRemove(t *testing.T) {
	table := newTestTable()
	table.Insert("a", &record{value: 1})
	table.Remove("a")

	require.True(t, table.Insert("a", &record{value: 2}))
	err := table.Do("a", func(r *record) error {
		assert.Equal(t, 2, r.value)
		return nil
	})
	require.NoError(t, err)
}

func TestEntriesLockIndependently(t *testing.T) {
	table := newTestTable()
	table.Insert("a", &record{})
	table.Insert("b", &record{})

	holdA := make(chan struct{})
	releaseA := make(chan struct{})
	go func() {
		_ = table.Do("a", func(r *record) error {
			close(holdA)
			<-releaseA
			return nil
		})
	}()

	<-holdA

	// Entry b must remain reachable while a's lock is held
	done := make(chan struct{})
	go func() {
		_ = table.Do("b", func(r *record) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("operation on independent key blocked")
	}
	close(releaseA)
}

func TestOperationsOnOneKeySerialize(t *testing.T) {
	table := newTestTable()
	table.Insert("a", &record{})

	const workers = 16
	const increments = 100
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				_ = table.Do("a", func(r *record) error {
					r.value++
					return nil
				})
			}
		}()
	}
	wg.Wait()

	err := table.Do("a", func(r *record) error {
		assert.Equal(t, workers*increments, r.value)
		return nil
	})
	require.NoError(t, err)
}

func TestKeysAndLen(t *testing.T) {
	table := newTestTable()
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, table.Keys())

	table.Insert("a", &record{})
	table.Insert("b", &record{})

	assert.Equal(t, 2, table.Len())
	assert.ElementsMatch(t, []string{"a", "b"}, table.Keys())

	table.Remove("a")
	assert.Equal(t, 1, table.Len())
	assert.ElementsMatch(t, []string{"b"}, table.Keys())
}
