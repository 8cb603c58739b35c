package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmosStaker/secret-hand-showdown/internal/game"
	"github.com/cosmosStaker/secret-hand-showdown/internal/table"
)

func newTable(owner string) *table.Table {
	return table.New(table.Options{Owner: owner, Game: game.Options{Seed: 1}})
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "0xa")
	assert.ErrorIs(t, err, ErrNotFound)

	a := newTable("0xa")
	require.NoError(t, s.Save(ctx, "0xa", a))
	got, err := s.Get(ctx, "0xa")
	require.NoError(t, err)
	assert.Same(t, a, got)

	b, created, err := s.GetOrCreate(ctx, "0xb", func() *table.Table { return newTable("0xb") })
	require.NoError(t, err)
	assert.True(t, created)
	again, created, err := s.GetOrCreate(ctx, "0xb", func() *table.Table { t.Fatal("create called twice"); return nil })
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, b, again)

	keys, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0xa", "0xb"}, keys)

	require.NoError(t, s.Delete(ctx, "0xa"))
	require.NoError(t, s.Delete(ctx, "0xa"))
	_, err = s.Get(ctx, "0xa")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	got := make([]*table.Table, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _, _ = s.GetOrCreate(ctx, "0xc", func() *table.Table { return newTable("0xc") })
		}(i)
	}
	wg.Wait()
	for _, tb := range got {
		assert.Same(t, got[0], tb)
	}
}

func TestReap(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	idle := table.New(table.Options{Owner: "0xidle", Now: c.Now})
	fresh := table.New(table.Options{Owner: "0xfresh", Now: c.Now})
	require.NoError(t, s.Save(ctx, "0xidle", idle))
	require.NoError(t, s.Save(ctx, "0xfresh", fresh))
	sub := idle.Subscribe()

	c.add(50 * time.Minute)
	fresh.Touch()
	c.add(15 * time.Minute)

	reaped, err := Reap(ctx, s, time.Hour, c.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"0xidle"}, reaped)

	keys, _ := s.List(ctx)
	assert.Equal(t, []string{"0xfresh"}, keys)

	for range sub.C {
	}
	assert.Equal(t, 0, idle.Subscribers(), "reaped table is stopped")
}

func TestRunReaperStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunReaper(ctx, NewMemoryStore(), time.Minute, time.Millisecond) }()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}

func TestDeleteIf(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := newTable("0xa")
	require.NoError(t, s.Save(ctx, "0xa", a))

	_, ok, err := s.DeleteIf(ctx, "0xa", func(*table.Table) bool { return false })
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = s.Get(ctx, "0xa")
	assert.NoError(t, err)

	got, ok, err := s.DeleteIf(ctx, "0xa", func(tb *table.Table) bool { return tb == a })
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, a, got)
	_, err = s.Get(ctx, "0xa")
	assert.ErrorIs(t, err, ErrNotFound)

	_, ok, err = s.DeleteIf(ctx, "0xmissing", func(*table.Table) bool { t.Fatal("cond on missing key"); return true })
	require.NoError(t, err)
	assert.False(t, ok)
}

// busyStore marks every table as used right after it is listed, like a
// request landing while the reaper runs.
type busyStore struct {
	Store
}

func (b busyStore) List(ctx context.Context) ([]string, error) {
	keys, err := b.Store.List(ctx)
	for _, k := range keys {
		if tb, err := b.Store.Get(ctx, k); err == nil {
			tb.Touch()
		}
	}
	return keys, err
}

func TestReapSparesTableUsedDuringSweep(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := busyStore{NewMemoryStore()}
	tb := table.New(table.Options{Owner: "0xa", Now: c.Now})
	require.NoError(t, s.Save(ctx, "0xa", tb))
	c.add(2 * time.Hour)

	reaped, err := Reap(ctx, s, time.Hour, c.Now())
	require.NoError(t, err)
	assert.Empty(t, reaped)
	_, err = s.Get(ctx, "0xa")
	assert.NoError(t, err)
}
