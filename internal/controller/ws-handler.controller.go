package controller

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/sharetube/watchparty/internal/service/room"
)

type EmptyInput struct{}

type CreateRoomInput struct {
	ContentType  string `json:"contentType" validate:"required,oneof=show movie anime"`
	ContentID    string `json:"contentId" validate:"required,max=128"`
	EpisodeID    string `json:"episodeId" validate:"max=128"`
	DisplayName  string `json:"displayName" validate:"required,max=32"`
	SessionToken string `json:"sessionToken" validate:"required,max=128"`
}

func (c controller) handleCreateRoom(ctx context.Context, input CreateRoomInput) error {
	if _, err := c.roomService.CreateRoom(ctx, &room.CreateRoomParams{
		ConnectionID: c.getConnectionIDFromCtx(ctx),
		ContentType:  input.ContentType,
		ContentID:    input.ContentID,
		EpisodeID:    input.EpisodeID,
		DisplayName:  input.DisplayName,
		SessionToken: input.SessionToken,
	}); err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

type JoinRoomInput struct {
	RoomCode     string `json:"roomCode" validate:"required,max=12"`
	DisplayName  string `json:"displayName" validate:"required,max=32"`
	SessionToken string `json:"sessionToken" validate:"required,max=128"`
}

func (c controller) handleJoinRoom(ctx context.Context, input JoinRoomInput) error {
	if _, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		ConnectionID: c.getConnectionIDFromCtx(ctx),
		RoomCode:     input.RoomCode,
		DisplayName:  input.DisplayName,
		SessionToken: input.SessionToken,
	}); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	return nil
}

func (c controller) handleLeaveRoom(ctx context.Context, _ EmptyInput) error {
	if _, err := c.roomService.LeaveRoom(ctx, c.getConnectionIDFromCtx(ctx)); err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	return nil
}

type PositionInput struct {
	CurrentPosition *float64 `json:"currentPosition" validate:"required,gte=0"`
}

func (c controller) playbackParams(ctx context.Context, input PositionInput) *room.PlaybackParams {
	return &room.PlaybackParams{
		ConnectionID:    c.getConnectionIDFromCtx(ctx),
		CurrentPosition: *input.CurrentPosition,
	}
}

func (c controller) handlePlay(ctx context.Context, input PositionInput) error {
	if _, err := c.roomService.Play(ctx, c.playbackParams(ctx, input)); err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}

	return nil
}

func (c controller) handlePause(ctx context.Context, input PositionInput) error {
	if _, err := c.roomService.Pause(ctx, c.playbackParams(ctx, input)); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}

	return nil
}

func (c controller) handleSeek(ctx context.Context, input PositionInput) error {
	if _, err := c.roomService.Seek(ctx, c.playbackParams(ctx, input)); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	return nil
}

type PlaybackRateInput struct {
	Rate float64 `json:"rate" validate:"gt=0,lte=16"`
}

func (c controller) handlePlaybackRate(ctx context.Context, input PlaybackRateInput) error {
	if _, err := c.roomService.SetRate(ctx, &room.SetRateParams{
		ConnectionID: c.getConnectionIDFromCtx(ctx),
		Rate:         input.Rate,
	}); err != nil {
		return fmt.Errorf("failed to set playback rate: %w", err)
	}

	return nil
}

type SubtitleInput struct {
	SubtitleIndex *int `json:"subtitleIndex" validate:"required,gte=-1"`
}

func (c controller) handleSubtitle(ctx context.Context, input SubtitleInput) error {
	if _, err := c.roomService.SetSubtitle(ctx, &room.SetSubtitleParams{
		ConnectionID: c.getConnectionIDFromCtx(ctx),
		TrackIndex:   *input.SubtitleIndex,
	}); err != nil {
		return fmt.Errorf("failed to set subtitle: %w", err)
	}

	return nil
}

func (c controller) handleRequestState(ctx context.Context, _ EmptyInput) error {
	if _, err := c.roomService.RequestState(ctx, c.getConnectionIDFromCtx(ctx)); err != nil {
		return fmt.Errorf("failed to request state: %w", err)
	}

	return nil
}

type ChangeContentInput struct {
	ContentType string `json:"contentType" validate:"omitempty,oneof=show movie anime"`
	ContentID   string `json:"contentId" validate:"max=128"`
	EpisodeID   string `json:"episodeId" validate:"max=128"`
}

func (c controller) handleChangeContent(ctx context.Context, input ChangeContentInput) error {
	if _, err := c.roomService.ChangeContent(ctx, &room.ChangeContentParams{
		ConnectionID: c.getConnectionIDFromCtx(ctx),
		ContentType:  input.ContentType,
		ContentID:    input.ContentID,
		EpisodeID:    input.EpisodeID,
	}); err != nil {
		return fmt.Errorf("failed to change content: %w", err)
	}

	return nil
}

type ChatMessageInput struct {
	Text string `json:"text" validate:"required"`
}

func (c controller) handleChatMessage(ctx context.Context, input ChatMessageInput) error {
	if _, err := c.roomService.SendChat(ctx, &room.SendChatParams{
		ConnectionID: c.getConnectionIDFromCtx(ctx),
		Text:         input.Text,
	}); err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}

	return nil
}

type ReactionInput struct {
	Emoji string `json:"emoji" validate:"required"`
}

func (c controller) handleReaction(ctx context.Context, input ReactionInput) error {
	if _, err := c.roomService.SendReaction(ctx, &room.SendReactionParams{
		ConnectionID: c.getConnectionIDFromCtx(ctx),
		Emoji:        input.Emoji,
	}); err != nil {
		return fmt.Errorf("failed to send reaction: %w", err)
	}

	return nil
}

// SignalInput carries an opaque WebRTC offer, answer or ICE candidate.
type SignalInput struct {
	TargetConnectionID string          `json:"targetConnectionId" validate:"required"`
	Payload            json.RawMessage `json:"payload"`
}

func (c controller) handleSignal(ctx context.Context, input SignalInput) error {
	if _, err := c.roomService.RelaySignal(ctx, &room.RelaySignalParams{
		ConnectionID:       c.getConnectionIDFromCtx(ctx),
		TargetConnectionID: input.TargetConnectionID,
		Payload:            input.Payload,
	}); err != nil {
		return fmt.Errorf("failed to relay signal: %w", err)
	}

	return nil
}

type SpeakingInput struct {
	IsSpeaking *bool `json:"isSpeaking" validate:"required"`
}

func (c controller) handleSpeaking(ctx context.Context, input SpeakingInput) error {
	if _, err := c.roomService.BroadcastSpeaking(ctx, &room.SpeakingParams{
		ConnectionID: c.getConnectionIDFromCtx(ctx),
		IsSpeaking:   *input.IsSpeaking,
	}); err != nil {
		return fmt.Errorf("failed to broadcast speaking: %w", err)
	}

	return nil
}

type ToggleMuteInput struct {
	IsMuted *bool `json:"isMuted" validate:"required"`
}

func (c controller) handleToggleMute(ctx context.Context, input ToggleMuteInput) error {
	if _, err := c.roomService.SetMute(ctx, &room.SetMuteParams{
		ConnectionID: c.getConnectionIDFromCtx(ctx),
		IsMuted:      *input.IsMuted,
	}); err != nil {
		return fmt.Errorf("failed to toggle mute: %w", err)
	}

	return nil
}

type HostMuteInput struct {
	TargetConnectionID string `json:"targetConnectionId" validate:"required"`
	IsMuted            *bool  `json:"isMuted" validate:"required"`
}

func (c controller) handleHostMute(ctx context.Context, input HostMuteInput) error {
	if _, err := c.roomService.HostSetMute(ctx, &room.HostSetMuteParams{
		ConnectionID:       c.getConnectionIDFromCtx(ctx),
		TargetConnectionID: input.TargetConnectionID,
		IsMuted:            *input.IsMuted,
	}); err != nil {
		return fmt.Errorf("failed to mute member: %w", err)
	}

	return nil
}
