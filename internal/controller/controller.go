package controller

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/repository/broker"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/validator"
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (room.CreateRoomResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	LeaveRoom(ctx context.Context, connectionID string) (room.LeaveRoomResponse, error)
	GetRoom(ctx context.Context, code string) (room.RoomSummary, error)

	Play(context.Context, *room.PlaybackParams) (room.PlaybackResponse, error)
	Pause(context.Context, *room.PlaybackParams) (room.PlaybackResponse, error)
	Seek(context.Context, *room.PlaybackParams) (room.PlaybackResponse, error)
	SetRate(context.Context, *room.SetRateParams) (room.PlaybackResponse, error)
	SetSubtitle(context.Context, *room.SetSubtitleParams) (room.PlaybackResponse, error)
	RequestState(ctx context.Context, connectionID string) (room.PlaybackResponse, error)
	ChangeContent(context.Context, *room.ChangeContentParams) (room.ChangeContentResponse, error)

	SendChat(context.Context, *room.SendChatParams) (room.ChatMessage, error)
	SendReaction(context.Context, *room.SendReactionParams) (room.Reaction, error)

	RelaySignal(context.Context, *room.RelaySignalParams) (struct{}, error)
	BroadcastSpeaking(context.Context, *room.SpeakingParams) (struct{}, error)
	SetMute(context.Context, *room.SetMuteParams) (room.MemberResponse, error)
	HostSetMute(context.Context, *room.HostSetMuteParams) (room.MemberResponse, error)
}

type iBroker interface {
	Register(broker.Subscriber)
	Unregister(id string)
}

type controller struct {
	roomService    iRoomService
	broker         iBroker
	upgrader       websocket.Upgrader
	wsRouter       *wsrouter.WSRouter
	logger         *slog.Logger
	allowedOrigins []string
}

// NewController builds the HTTP and websocket surface. An empty origin list
// accepts every origin.
func NewController(roomService iRoomService, b iBroker, logger *slog.Logger, allowedOrigins []string) *controller {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	c := &controller{
		roomService:    roomService,
		broker:         b,
		logger:         logger,
		allowedOrigins: allowedOrigins,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
	c.wsRouter = c.getWSRouter(validator.NewValidator())

	return c
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	if slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
