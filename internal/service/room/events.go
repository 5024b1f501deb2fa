package room

import (
	"github.com/goccy/go-json"
	"github.com/sharetube/watchparty/internal/domain"
)

// server to client event types
const (
	EventRoomCreated       = "room:created"
	EventRoomJoined        = "room:joined"
	EventUserJoined        = "room:user-joined"
	EventUserLeft          = "room:user-left"
	EventUserUpdated       = "room:user-updated"
	EventUserReconnected   = "room:user-reconnected"
	EventHostDisconnected  = "room:host-disconnected"
	EventHostReconnected   = "room:host-reconnected"
	EventRoomDestroyed     = "room:destroyed"
	EventRoomError         = "room:error"
	EventVideoSync         = "video:sync"
	EventContentChanged    = "content:changed"
	EventChatReceive       = "chat:receive"
	EventReactionShow      = "reaction:show"
	EventVoiceSignal       = "voice:signal"
	EventVoiceUserSpeaking = "voice:user-speaking"
	EventVoiceMutedByHost  = "voice:muted-by-host"
)

const (
	ErrorCodeSessionMoved = "SESSION_MOVED"

	hostDisconnectedMessage = "Host disconnected. Waiting for reconnection..."
	graceExpiredMessage     = "Host did not reconnect in time"
	maxAgeMessage           = "Room expired"
	sessionMovedMessage     = "Session opened in another connection"
)

type RoomPayload struct {
	domain.Snapshot
	Member domain.Member `json:"member"`
}

type MemberPayload struct {
	Member domain.Member `json:"member"`
}

type HostDisconnectedPayload struct {
	Message       string `json:"message"`
	GracePeriodMs int64  `json:"gracePeriodMs"`
}

type DestroyedPayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type SyncPayload struct {
	PlaybackState domain.PlaybackState `json:"playbackState"`
}

type ContentChangedPayload struct {
	domain.ContentRef
	PlaybackState domain.PlaybackState `json:"playbackState"`
}

type ChatMessage struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Text        string `json:"text"`
	Timestamp   int64  `json:"timestamp"`
}

type Reaction struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Emoji       string `json:"emoji"`
}

type SignalPayload struct {
	FromConnectionID string          `json:"fromConnectionId"`
	Payload          json.RawMessage `json:"payload"`
}

type SpeakingPayload struct {
	ConnectionID string `json:"connectionId"`
	IsSpeaking   bool   `json:"isSpeaking"`
}

type MutedByHostPayload struct {
	IsMuted bool `json:"isMuted"`
}
