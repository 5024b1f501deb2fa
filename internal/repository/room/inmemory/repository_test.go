package inmemory

import (
	"testing"
	"time"

	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoom(code, hostToken string) *domain.Room {
	return domain.NewRoom("id-"+code, code, domain.ContentRef{Type: "movie", ID: "m1"}, domain.Member{
		ConnectionID: "conn-" + code,
		DisplayName:  "host",
		SessionToken: hostToken,
	}, time.Now())
}

func TestRepo(t *testing.T) {
	r := NewRepo()

	require.NoError(t, r.Add(newRoom("ABCDEF", "t1")))
	assert.ErrorIs(t, r.Add(newRoom("abcdef", "t2")), room.ErrRoomAlreadyExists)

	got, err := r.Get("abcdef")
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF", got.Code)
	assert.True(t, r.Exists(" AbCdEf "))

	_, err = r.Get("ZZZZZZ")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)

	r.SetHostSession("t1", "abcdef")
	code, err := r.GetHostSessionRoom("t1")
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF", code)

	require.NoError(t, r.Add(newRoom("GHJKLM", "t3")))
	assert.ElementsMatch(t, []string{"ABCDEF", "GHJKLM"}, r.Codes())
	assert.Equal(t, 2, r.Len())

	r.Remove("ABCDEF")
	r.Remove("ABCDEF")
	assert.False(t, r.Exists("ABCDEF"))
	_, err = r.GetHostSessionRoom("t1")
	assert.ErrorIs(t, err, room.ErrSessionNotFound)
	assert.Equal(t, 1, r.Len())
}
