package room

import (
	"github.com/goccy/go-json"
	"github.com/sharetube/watchparty/internal/domain"
)

type CreateRoomParams struct {
	ConnectionID string
	ContentType  string
	ContentID    string
	EpisodeID    string
	DisplayName  string
	SessionToken string
}

type CreateRoomResponse struct {
	Room   domain.Snapshot
	Member domain.Member
	// Reconnected is set when the session token belonged to the host of a live room.
	Reconnected bool
}

type JoinRoomParams struct {
	ConnectionID string
	RoomCode     string
	DisplayName  string
	SessionToken string
}

type JoinRoomResponse struct {
	Room   domain.Snapshot
	Member domain.Member
	// Event is what the other members were told.
	Event string
}

type LeaveRoomResponse struct {
	RoomCode         string
	Member           domain.Member
	HostDisconnected bool
}

type PlaybackParams struct {
	ConnectionID    string
	CurrentPosition float64
}

type SetRateParams struct {
	ConnectionID string
	Rate         float64
}

type SetSubtitleParams struct {
	ConnectionID string
	TrackIndex   int
}

type PlaybackResponse struct {
	PlaybackState domain.PlaybackState
}

type ChangeContentParams struct {
	ConnectionID string
	ContentType  string
	ContentID    string
	EpisodeID    string
}

type ChangeContentResponse struct {
	Content       domain.ContentRef
	PlaybackState domain.PlaybackState
}

type SendChatParams struct {
	ConnectionID string
	Text         string
}

type SendReactionParams struct {
	ConnectionID string
	Emoji        string
}

type RelaySignalParams struct {
	ConnectionID       string
	TargetConnectionID string
	Payload            json.RawMessage
}

type SpeakingParams struct {
	ConnectionID string
	IsSpeaking   bool
}

type SetMuteParams struct {
	ConnectionID string
	IsMuted      bool
}

type HostSetMuteParams struct {
	ConnectionID       string
	TargetConnectionID string
	IsMuted            bool
}

type MemberResponse struct {
	Member domain.Member
}

// RoomSummary is the public view served over REST.
type RoomSummary struct {
	RoomCode string `json:"roomCode"`
	domain.ContentRef
	MembersCount  int    `json:"membersCount"`
	Status        string `json:"status"`
	GraceDeadline *int64 `json:"graceDeadline,omitempty"`
	CreatedAt     int64  `json:"createdAt"`
}

type SweepResponse struct {
	Destroyed []string
}
