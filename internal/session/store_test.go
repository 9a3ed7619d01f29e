package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateAndGet(t *testing.T) {
	st := NewStore()
	s := st.Create()

	_, err := uuid.Parse(s.ID)
	require.NoError(t, err)

	got, ok := st.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, st.Len())
}

func TestStore_GetOrCreate(t *testing.T) {
	st := NewStore()

	s, created := st.GetOrCreate("")
	assert.True(t, created)

	again, created := st.GetOrCreate(s.ID)
	assert.False(t, created)
	assert.Same(t, s, again)

	other, created := st.GetOrCreate("unknown-id")
	assert.True(t, created)
	assert.NotEqual(t, "unknown-id", other.ID)
	assert.Equal(t, 2, st.Len())
}

func TestStore_SessionsAreIndependent(t *testing.T) {
	st := NewStore()
	a := st.Create()
	b := st.Create()

	a.SetWebsiteURL("https://a.example")
	a.AddField()
	assert.Empty(t, b.WebsiteURL())
	assert.Len(t, b.Fields(), 1)
}

func TestStore_Delete(t *testing.T) {
	st := NewStore()
	s := st.Create()
	st.Delete(s.ID)
	_, ok := st.Get(s.ID)
	assert.False(t, ok)
}

func TestStore_Evict(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	st := NewStore()
	st.now = func() time.Time { return now }

	old := st.Create()
	now = now.Add(45 * time.Minute)
	fresh := st.Create()

	n := st.Evict(30 * time.Minute)
	assert.Equal(t, 1, n)

	_, ok := st.Get(old.ID)
	assert.False(t, ok)
	_, ok = st.Get(fresh.ID)
	assert.True(t, ok)
}

func TestStore_GetRefreshesIdleClock(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	st := NewStore()
	st.now = func() time.Time { return now }

	s := st.Create()
	now = now.Add(20 * time.Minute)
	_, ok := st.Get(s.ID)
	require.True(t, ok)
	now = now.Add(20 * time.Minute)

	assert.Zero(t, st.Evict(30*time.Minute))
}

func TestStore_RunJanitorStopsOnCancel(t *testing.T) {
	st := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- st.RunJanitor(ctx, time.Millisecond, time.Hour) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
