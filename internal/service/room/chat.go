package room

import (
	"context"
	"strings"
)

func (s *Service) SendChat(ctx context.Context, params *SendChatParams) (ChatMessage, error) {
	if strings.TrimSpace(params.Text) == "" {
		return ChatMessage{}, ErrMalformedPayload
	}

	return do(ctx, s, func() (ChatMessage, error) {
		room, member, err := s.memberRoom(params.ConnectionID)
		if err != nil {
			return ChatMessage{}, err
		}

		msg := ChatMessage{
			ID:          s.newID(),
			DisplayName: member.DisplayName,
			Text:        params.Text,
			Timestamp:   s.clock.Now().UnixMilli(),
		}
		s.broadcast(ctx, room.Code, EventChatReceive, msg)

		return msg, nil
	})
}

func (s *Service) SendReaction(ctx context.Context, params *SendReactionParams) (Reaction, error) {
	if params.Emoji == "" {
		return Reaction{}, ErrMalformedPayload
	}

	return do(ctx, s, func() (Reaction, error) {
		room, member, err := s.memberRoom(params.ConnectionID)
		if err != nil {
			return Reaction{}, err
		}

		reaction := Reaction{
			ID:          s.newID(),
			DisplayName: member.DisplayName,
			Emoji:       params.Emoji,
		}
		s.broadcast(ctx, room.Code, EventReactionShow, reaction)

		return reaction, nil
	})
}
