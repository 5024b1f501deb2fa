package controller

import (
	"github.com/sharetube/watchparty/pkg/validator"
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

func (c controller) getWSRouter(validate *validator.Validator) *wsrouter.WSRouter {
	mux := wsrouter.New(validate)
	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw())

	// room
	wsrouter.Handle(mux, "room:create", c.handleCreateRoom)
	wsrouter.Handle(mux, "room:join", c.handleJoinRoom)
	wsrouter.Handle(mux, "room:leave", c.handleLeaveRoom)

	// video
	wsrouter.Handle(mux, "video:play", c.handlePlay)
	wsrouter.Handle(mux, "video:pause", c.handlePause)
	wsrouter.Handle(mux, "video:seek", c.handleSeek)
	wsrouter.Handle(mux, "video:playbackRate", c.handlePlaybackRate)
	wsrouter.Handle(mux, "video:subtitle", c.handleSubtitle)
	wsrouter.Handle(mux, "video:request-state", c.handleRequestState)
	wsrouter.Handle(mux, "video:change-content", c.handleChangeContent)

	// chat
	wsrouter.Handle(mux, "chat:message", c.handleChatMessage)
	wsrouter.Handle(mux, "reaction:send", c.handleReaction)

	// voice
	wsrouter.Handle(mux, "voice:signal", c.handleSignal)
	wsrouter.Handle(mux, "voice:speaking", c.handleSpeaking)
	wsrouter.Handle(mux, "voice:toggle-mute", c.handleToggleMute)
	wsrouter.Handle(mux, "voice:host-mute", c.handleHostMute)

	return mux
}
