package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/broker"
	"github.com/sharetube/watchparty/internal/repository/connection"
	repoRoom "github.com/sharetube/watchparty/internal/repository/room"
)

func (s *Service) getRoom(code string) (*domain.Room, error) {
	room, err := s.roomRepo.Get(code)
	if err != nil {
		if errors.Is(err, repoRoom.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

// memberRoom resolves the room the connection is currently a member of.
func (s *Service) memberRoom(connectionID string) (*domain.Room, *domain.Member, error) {
	code, err := s.connRepo.GetRoomCode(connectionID)
	if err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			return nil, nil, ErrNotInRoom
		}
		return nil, nil, fmt.Errorf("failed to get connection room: %w", err)
	}

	room, err := s.getRoom(code)
	if err != nil {
		return nil, nil, err
	}

	member, ok := room.Members.Get(connectionID)
	if !ok {
		return nil, nil, ErrNotInRoom
	}

	return room, member, nil
}

func (s *Service) checkIfMemberHost(connectionID string) (*domain.Room, error) {
	room, _, err := s.memberRoom(connectionID)
	if err != nil {
		return nil, err
	}

	if !room.IsHost(connectionID) {
		return nil, ErrPermissionDenied
	}

	return room, nil
}

func (s *Service) attach(connectionID, code string) error {
	if err := s.connRepo.Add(connectionID, code); err != nil {
		return fmt.Errorf("failed to attach connection: %w", err)
	}

	s.broker.Join(broker.RoomTopic(code), connectionID)
	return nil
}

func (s *Service) detach(connectionID, code string) {
	_ = s.connRepo.Remove(connectionID)
	s.broker.Leave(broker.RoomTopic(code), connectionID)
}

func (s *Service) publish(ctx context.Context, topic, msgType string, payload any, except ...string) {
	msg, err := broker.NewMessage(msgType, payload, except...)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode event", "error", err, "type", msgType)
		return
	}

	if err := s.broker.Publish(ctx, topic, msg); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event", "error", err, "type", msgType, "topic", topic)
	}
}

func (s *Service) broadcast(ctx context.Context, code, msgType string, payload any, except ...string) {
	s.publish(ctx, broker.RoomTopic(code), msgType, payload, except...)
}

func (s *Service) sendTo(ctx context.Context, connectionID, msgType string, payload any) {
	s.publish(ctx, broker.ConnTopic(connectionID), msgType, payload)
}
