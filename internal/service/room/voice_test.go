package room

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func voiceRoom(t *testing.T) (*testEnv, map[string]*recorder, string) {
	env := newTestEnv(t)
	recs := map[string]*recorder{
		"alice-1": env.connect("alice-1"),
		"bob-1":   env.connect("bob-1"),
		"carol-1": env.connect("carol-1"),
		"dave-1":  env.connect("dave-1"),
	}
	code := env.createRoom(t, "alice-1", "Alice", "alice-token").Room.RoomCode
	env.joinRoom(t, code, "bob-1", "Bob", "bob-token")
	env.joinRoom(t, code, "carol-1", "Carol", "carol-token")
	env.createRoom(t, "dave-1", "Dave", "dave-token")
	for _, r := range recs {
		r.reset()
	}
	return env, recs, code
}

func TestRelaySignal(t *testing.T) {
	env, recs, _ := voiceRoom(t)
	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)

	_, err := env.svc.RelaySignal(env.ctx, &RelaySignalParams{ConnectionID: "bob-1", TargetConnectionID: "carol-1", Payload: offer})
	require.NoError(t, err)

	var signal SignalPayload
	recs["carol-1"].last(t, EventVoiceSignal, &signal)
	assert.Equal(t, "bob-1", signal.FromConnectionID)
	assert.JSONEq(t, string(offer), string(signal.Payload))
	assert.Empty(t, recs["alice-1"].types())
	assert.Empty(t, recs["bob-1"].types())

	tests := []struct {
		name   string
		params RelaySignalParams
	}{
		{"sender not in a room", RelaySignalParams{ConnectionID: "stranger", TargetConnectionID: "carol-1", Payload: offer}},
		{"target in another room", RelaySignalParams{ConnectionID: "bob-1", TargetConnectionID: "dave-1", Payload: offer}},
		{"target unknown", RelaySignalParams{ConnectionID: "bob-1", TargetConnectionID: "ghost", Payload: offer}},
		{"target is sender", RelaySignalParams{ConnectionID: "bob-1", TargetConnectionID: "bob-1", Payload: offer}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.RelaySignal(env.ctx, &tt.params)
			assert.ErrorIs(t, err, ErrSignalRouting)
		})
	}
	assert.Empty(t, recs["dave-1"].types())
}

func TestBroadcastSpeaking(t *testing.T) {
	env, recs, _ := voiceRoom(t)

	_, err := env.svc.BroadcastSpeaking(env.ctx, &SpeakingParams{ConnectionID: "bob-1", IsSpeaking: true})
	require.NoError(t, err)

	for _, id := range []string{"alice-1", "carol-1"} {
		var speaking SpeakingPayload
		recs[id].last(t, EventVoiceUserSpeaking, &speaking)
		assert.Equal(t, SpeakingPayload{ConnectionID: "bob-1", IsSpeaking: true}, speaking)
	}
	assert.Empty(t, recs["bob-1"].types())
	assert.Empty(t, recs["dave-1"].types())
}

func TestMute(t *testing.T) {
	env, recs, _ := voiceRoom(t)

	resp, err := env.svc.SetMute(env.ctx, &SetMuteParams{ConnectionID: "carol-1", IsMuted: true})
	require.NoError(t, err)
	assert.True(t, resp.Member.IsMuted)
	for _, id := range []string{"alice-1", "bob-1", "carol-1"} {
		var updated MemberPayload
		recs[id].last(t, EventUserUpdated, &updated)
		assert.Equal(t, "carol-1", updated.Member.ConnectionID)
		assert.True(t, updated.Member.IsMuted)
	}
	assert.Zero(t, recs["carol-1"].count(EventVoiceMutedByHost))

	resp, err = env.svc.HostSetMute(env.ctx, &HostSetMuteParams{ConnectionID: "alice-1", TargetConnectionID: "bob-1", IsMuted: true})
	require.NoError(t, err)
	assert.True(t, resp.Member.IsMuted)

	var muted MutedByHostPayload
	recs["bob-1"].last(t, EventVoiceMutedByHost, &muted)
	assert.True(t, muted.IsMuted)
	assert.Zero(t, recs["carol-1"].count(EventVoiceMutedByHost))
	assert.Equal(t, 2, recs["carol-1"].count(EventUserUpdated))

	_, err = env.svc.HostSetMute(env.ctx, &HostSetMuteParams{ConnectionID: "alice-1", TargetConnectionID: "dave-1", IsMuted: true})
	assert.ErrorIs(t, err, ErrMemberNotFound)
}
