package room

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sharetube/watchparty/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomCodesAreUnique(t *testing.T) {
	cfg := testConfig()
	cfg.CodeLength = 4
	env := newTestEnvWithConfig(t, &cfg)

	const n = 200
	codes := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := env.svc.CreateRoom(env.ctx, &CreateRoomParams{
				ConnectionID: fmt.Sprintf("host-%d", i),
				ContentType:  "movie",
				ContentID:    "m1",
				DisplayName:  "host",
				SessionToken: fmt.Sprintf("token-%d", i),
			})
			if assert.NoError(t, err) {
				codes[i] = resp.Room.RoomCode
			}
		}()
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, code := range codes {
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestCodeCollisionIsRetried(t *testing.T) {
	env := newTestEnv(t, WithGenerator(&sequenceGenerator{codes: []string{"AAAAAA", "AAAAAA", "BBBBBB"}}))

	first := env.createRoom(t, "c1", "One", "t1")
	second := env.createRoom(t, "c2", "Two", "t2")

	assert.Equal(t, "AAAAAA", first.Room.RoomCode)
	assert.Equal(t, "BBBBBB", second.Room.RoomCode)
}

func TestCodeSpaceExhausted(t *testing.T) {
	env := newTestEnv(t, WithGenerator(&sequenceGenerator{codes: []string{"AAAAAA"}}))
	env.createRoom(t, "c1", "One", "t1")

	_, err := env.svc.CreateRoom(env.ctx, &CreateRoomParams{
		ConnectionID: "c2", ContentType: "movie", ContentID: "m1", DisplayName: "Two", SessionToken: "t2",
	})
	assert.ErrorIs(t, err, errCodeSpaceExhausted)
}

func TestGetRoom(t *testing.T) {
	env := newTestEnv(t)
	created := env.createRoom(t, "alice-1", "Alice", "alice-token")
	env.joinRoom(t, created.Room.RoomCode, "bob-1", "Bob", "bob-token")

	summary, err := env.svc.GetRoom(env.ctx, created.Room.RoomCode)
	require.NoError(t, err)
	assert.Equal(t, created.Room.RoomCode, summary.RoomCode)
	assert.Equal(t, 2, summary.MembersCount)
	assert.Equal(t, "active", summary.Status)
	assert.Nil(t, summary.GraceDeadline)

	_, err = env.svc.LeaveRoom(env.ctx, "alice-1")
	require.NoError(t, err)

	summary, err = env.svc.GetRoom(env.ctx, created.Room.RoomCode)
	require.NoError(t, err)
	assert.Equal(t, "host-disconnected", summary.Status)
	require.NotNil(t, summary.GraceDeadline)
	assert.Equal(t, env.clock.Now().Add(time.Minute).UnixMilli(), *summary.GraceDeadline)

	_, err = env.svc.GetRoom(env.ctx, "NOPE42")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestSweep(t *testing.T) {
	env := newTestEnv(t)
	oldViewer := env.connect("old-viewer")

	old := env.createRoom(t, "old-host", "Old", "old-token")
	env.joinRoom(t, old.Room.RoomCode, "old-viewer", "Viewer", "viewer-token")

	env.clock.Skip(90 * time.Minute)
	empty := env.createRoom(t, "empty-host", "Empty", "empty-token")
	_, err := env.svc.LeaveRoom(env.ctx, "empty-host")
	require.NoError(t, err)

	fresh := env.createRoom(t, "fresh-host", "Fresh", "fresh-token")

	env.clock.Skip(31 * time.Minute)
	resp, err := env.svc.Sweep(env.ctx)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{old.Room.RoomCode, empty.Room.RoomCode}, resp.Destroyed)
	assert.False(t, env.roomExists(old.Room.RoomCode))
	assert.False(t, env.roomExists(empty.Room.RoomCode))
	assert.True(t, env.roomExists(fresh.Room.RoomCode))

	var destroyed DestroyedPayload
	oldViewer.last(t, EventRoomDestroyed, &destroyed)
	assert.Equal(t, maxAgeMessage, destroyed.Message)

	// the cancelled grace timer of the swept room never fires
	env.clock.Advance(time.Hour)
	env.flush(t)
	assert.True(t, env.roomExists(fresh.Room.RoomCode))

	_, err = env.svc.RequestState(env.ctx, "old-viewer")
	assert.ErrorIs(t, err, ErrNotInRoom)

	resp, err = env.svc.Sweep(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, resp.Destroyed)
}

func TestSweepKeepsRoomAwaitingHost(t *testing.T) {
	env := newTestEnv(t)
	created := env.createRoom(t, "host-1", "Host", "host-token")
	code := created.Room.RoomCode

	_, err := env.svc.LeaveRoom(env.ctx, "host-1")
	require.NoError(t, err)

	env.clock.Skip(30 * time.Second)
	resp, err := env.svc.Sweep(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, resp.Destroyed)
	require.True(t, env.roomExists(code))

	host := env.connect("host-2")
	env.joinRoom(t, code, "host-2", "Host", "host-token")
	assert.Equal(t, 1, host.count(EventRoomJoined))

	// back to active with one member, so the sweep leaves it alone
	resp, err = env.svc.Sweep(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, resp.Destroyed)
}

func TestSweepDestroysEmptyRoomAfterGrace(t *testing.T) {
	env := newTestEnv(t)
	created := env.createRoom(t, "host-1", "Host", "host-token")

	_, err := env.svc.LeaveRoom(env.ctx, "host-1")
	require.NoError(t, err)

	env.clock.Skip(61 * time.Second)
	resp, err := env.svc.Sweep(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{created.Room.RoomCode}, resp.Destroyed)
}

func TestMembersLimit(t *testing.T) {
	env := newTestEnv(t)
	created := env.createRoom(t, "host-1", "Host", "host-token")
	code := created.Room.RoomCode

	for i := range 3 {
		env.joinRoom(t, code, fmt.Sprintf("v%d", i), "Viewer", fmt.Sprintf("vt%d", i))
	}

	_, err := env.svc.JoinRoom(env.ctx, &JoinRoomParams{ConnectionID: "v9", RoomCode: code, DisplayName: "Late", SessionToken: "vt9"})
	assert.ErrorIs(t, err, ErrRoomFull)

	// a returning host is always admitted
	_, err = env.svc.LeaveRoom(env.ctx, "host-1")
	require.NoError(t, err)
	env.joinRoom(t, code, "v9", "Late", "vt9")

	resp := env.joinRoom(t, code, "host-2", "Host", "host-token")
	assert.Equal(t, "host-2", resp.Room.HostConnectionID)
	env.inspect(t, code, func(r *domain.Room) {
		assert.Equal(t, 5, r.Members.Length())
	})
}
