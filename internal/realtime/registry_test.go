package realtime

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRegistered(t *testing.T, r *Registry, id string) *Conn {
	t.Helper()
	c := NewConn(id, nil, 16)
	require.NoError(t, r.Register(c))
	return c
}

func TestRegistry_JoinMovesWithinChannel(t *testing.T) {
	r := NewRegistry(newTestLogger())
	newRegistered(t, r, "x")

	require.NoError(t, r.Join("x", ChannelWhiteboard, "team-1"))
	require.NoError(t, r.Join("x", ChannelWhiteboard, "team-2"))

	assert.Empty(t, r.MemberIDs(ChannelWhiteboard, "team-1"))
	assert.Equal(t, []string{"x"}, r.MemberIDs(ChannelWhiteboard, "team-2"))

	key, ok := r.RoomOf("x", ChannelWhiteboard)
	assert.True(t, ok)
	assert.Equal(t, "team-2", key)
}

func TestRegistry_ChannelsAreIndependent(t *testing.T) {
	r := NewRegistry(newTestLogger())
	newRegistered(t, r, "x")

	require.NoError(t, r.Join("x", ChannelWhiteboard, "team-1"))
	require.NoError(t, r.Join("x", ChannelChat, "team-1"))

	assert.Equal(t, []string{"x"}, r.MemberIDs(ChannelWhiteboard, "team-1"))
	assert.Equal(t, []string{"x"}, r.MemberIDs(ChannelChat, "team-1"))
}

func TestRegistry_DefaultRoom(t *testing.T) {
	r := NewRegistry(newTestLogger())
	newRegistered(t, r, "x")

	require.NoError(t, r.Join("x", ChannelChat, ""))
	assert.Equal(t, []string{"x"}, r.MemberIDs(ChannelChat, DefaultRoom))
}

func TestRegistry_JoinUnknownConnection(t *testing.T) {
	r := NewRegistry(newTestLogger())
	assert.ErrorIs(t, r.Join("ghost", ChannelChat, "a"), ErrUnknownConnection)
}

func TestRegistry_RegisterTwice(t *testing.T) {
	r := NewRegistry(newTestLogger())
	c := newRegistered(t, r, "x")
	assert.Error(t, r.Register(c))
}

func TestRegistry_LeaveIsIdempotent(t *testing.T) {
	r := NewRegistry(newTestLogger())
	newRegistered(t, r, "x")
	newRegistered(t, r, "y")
	require.NoError(t, r.Join("x", ChannelWhiteboard, "a"))
	require.NoError(t, r.Join("y", ChannelWhiteboard, "a"))

	r.Leave("x", ChannelWhiteboard, "a")
	once := r.MemberIDs(ChannelWhiteboard, "a")
	r.Leave("x", ChannelWhiteboard, "a")
	twice := r.MemberIDs(ChannelWhiteboard, "a")

	assert.Equal(t, once, twice)
	assert.Equal(t, []string{"y"}, twice)

	// 不是成員的房間
	r.Leave("y", ChannelWhiteboard, "b")
	assert.Equal(t, []string{"y"}, r.MemberIDs(ChannelWhiteboard, "a"))
}

func TestRegistry_EmptyRoomIsDropped(t *testing.T) {
	r := NewRegistry(newTestLogger())
	newRegistered(t, r, "x")
	require.NoError(t, r.Join("x", ChannelChat, "a"))

	r.Leave("x", ChannelChat, "a")
	assert.Empty(t, r.Stats().Rooms)
}

func TestRegistry_DisconnectRemovesEverywhere(t *testing.T) {
	r := NewRegistry(newTestLogger())
	newRegistered(t, r, "x")
	require.NoError(t, r.Join("x", ChannelWhiteboard, "a"))
	require.NoError(t, r.Join("x", ChannelChat, "b"))

	r.Disconnect("x")
	r.Disconnect("x")

	assert.Empty(t, r.MemberIDs(ChannelWhiteboard, "a"))
	assert.Empty(t, r.MemberIDs(ChannelChat, "b"))
	assert.Equal(t, 0, r.Stats().Connections)
	assert.ErrorIs(t, r.Join("x", ChannelChat, "b"), ErrUnknownConnection)
}

func TestRegistry_RandomSequencesThenDisconnect(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	rooms := []string{"a", "b", "c", ""}
	channels := []Channel{ChannelWhiteboard, ChannelChat}

	for round := 0; round < 50; round++ {
		r := NewRegistry(newTestLogger())
		newRegistered(t, r, "c")
		newRegistered(t, r, "other")

		for i := 0; i < 30; i++ {
			ch := channels[rng.Intn(len(channels))]
			key := rooms[rng.Intn(len(rooms))]
			switch rng.Intn(3) {
			case 0, 1:
				require.NoError(t, r.Join("c", ch, key))
			case 2:
				r.Leave("c", ch, key)
			}
			require.NoError(t, r.Join("other", ch, key))
		}

		r.Disconnect("c")
		for _, ch := range channels {
			for _, key := range rooms {
				assert.NotContains(t, r.MemberIDs(ch, key), "c", "round %d", round)
			}
		}
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry(newTestLogger())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		id := fmt.Sprintf("conn-%d", i)
		newRegistered(t, r, id)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("room-%d", j%4)
				_ = r.Join(id, ChannelWhiteboard, key)
				_ = r.MembersOf(ChannelWhiteboard, key)
				r.Leave(id, ChannelWhiteboard, key)
			}
			r.Disconnect(id)
		}()
	}
	wg.Wait()

	stats := r.Stats()
	assert.Equal(t, 0, stats.Connections)
	assert.Empty(t, stats.Rooms)
}
