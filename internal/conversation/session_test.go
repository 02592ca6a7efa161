package conversation

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pagingState() State {
	read := State{Kind: KindRead, Epoch: 7, SchoolCate: "985", University: "U1", Department: "D1", Supervisor: "S1", ObjectID: "bf3d2da3a9bfc528"}
	p := newPaging(
		[]string{"page one", "page two"},
		&PageAction{Kind: ActionReply, Label: "↩ 回复", Targets: []string{"aaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbb"}},
		Snapshot{State: read, Text: textMenu(read), Keyboard: opKeyboard(7)},
	).at(1)
	return State{Kind: KindPaging, Epoch: 7, Paging: p}
}

func TestMemorySessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemorySessionStore(8, time.Hour)
	require.NoError(t, err)

	_, ok, err := s.Load(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	want := pagingState()
	require.NoError(t, s.Save(ctx, "1", want))

	got, ok, err := s.Load(ctx, "1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, s.Delete(ctx, "1"))
	_, ok, err = s.Load(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemorySessionStore(8, 20*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "1", State{Kind: KindStart, Epoch: 1}))
	time.Sleep(60 * time.Millisecond)

	_, ok, err := s.Load(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySessionStoreCapacity(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemorySessionStore(2, time.Hour)
	require.NoError(t, err)

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, s.Save(ctx, id, State{Kind: KindStart}))
	}
	_, ok, _ := s.Load(ctx, "1")
	assert.False(t, ok, "oldest session evicted")
	_, ok, _ = s.Load(ctx, "3")
	assert.True(t, ok)
}

// 需要真实 redis：SAFC_TEST_REDIS_ADDR=localhost:6379
func TestRedisSessionStore(t *testing.T) {
	addr := os.Getenv("SAFC_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SAFC_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, addr, "", 0)
	require.NoError(t, err)
	defer client.Close()

	s := NewRedisSessionStore(client, time.Minute)
	id := "test-" + time.Now().Format("150405.000000")
	t.Cleanup(func() { _ = s.Delete(ctx, id) })

	want := pagingState()
	require.NoError(t, s.Save(ctx, id, want))
	got, ok, err := s.Load(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	ttl, err := client.TTL(ctx, sessionKeyPrefix+id).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, s.Delete(ctx, id))
	_, ok, err = s.Load(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}
