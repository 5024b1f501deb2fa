package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/metrics"
)

func (s *Service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	return do(ctx, s, func() (JoinRoomResponse, error) {
		return s.joinRoom(ctx, params)
	})
}

func (s *Service) joinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	if params.RoomCode == "" || params.DisplayName == "" {
		return JoinRoomResponse{}, ErrMalformedPayload
	}

	room, err := s.getRoom(params.RoomCode)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	if room.IsHostSession(params.SessionToken) {
		return s.returnHost(ctx, room, params.ConnectionID, params.DisplayName)
	}

	if resp, ok := s.resendIfMember(ctx, room, params.ConnectionID); ok {
		return resp, nil
	}
	s.leaveCurrent(ctx, params.ConnectionID)

	if existing, ok := room.Members.FindBySession(params.SessionToken); ok {
		return s.moveViewer(ctx, room, *existing, params.ConnectionID, params.DisplayName)
	}

	if room.Members.Length() >= s.cfg.MembersLimit {
		return JoinRoomResponse{}, ErrRoomFull
	}

	returning := room.HasSession(params.SessionToken)
	member, err := room.AddMember(domain.Member{
		ConnectionID: params.ConnectionID,
		DisplayName:  params.DisplayName,
		SessionToken: params.SessionToken,
	})
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to add member: %w", err)
	}

	if err := s.attach(params.ConnectionID, room.Code); err != nil {
		_, _ = room.RemoveMember(params.ConnectionID)
		return JoinRoomResponse{}, err
	}

	event := EventUserJoined
	if returning {
		event = EventUserReconnected
	}

	resp := JoinRoomResponse{Room: room.Snapshot(), Member: member, Event: event}
	s.sendTo(ctx, params.ConnectionID, EventRoomJoined, RoomPayload{Snapshot: resp.Room, Member: member})
	s.broadcast(ctx, room.Code, event, MemberPayload{Member: member}, params.ConnectionID)

	s.logger.InfoContext(ctx, "member joined room", "room_code", room.Code, "reconnected", returning)

	return resp, nil
}

// resendIfMember answers a repeated create or join from a connection that is
// already in the room with a fresh snapshot.
func (s *Service) resendIfMember(ctx context.Context, room *domain.Room, connectionID string) (JoinRoomResponse, bool) {
	code, err := s.connRepo.GetRoomCode(connectionID)
	if err != nil || code != room.Code {
		return JoinRoomResponse{}, false
	}

	member, ok := room.Members.Get(connectionID)
	if !ok {
		return JoinRoomResponse{}, false
	}

	resp := JoinRoomResponse{Room: room.Snapshot(), Member: *member}
	s.sendTo(ctx, connectionID, EventRoomJoined, RoomPayload{Snapshot: resp.Room, Member: resp.Member})

	return resp, true
}

// returnHost gives host authority to a new connection presenting the host
// session token, either ending the grace period or moving a live host.
func (s *Service) returnHost(ctx context.Context, room *domain.Room, connectionID, displayName string) (JoinRoomResponse, error) {
	if room.IsHost(connectionID) {
		if resp, ok := s.resendIfMember(ctx, room, connectionID); ok {
			return resp, nil
		}
	}
	s.leaveCurrent(ctx, connectionID)

	var (
		host domain.Member
		err  error
	)

	switch room.Status() {
	case domain.StatusHostDisconnected:
		host, err = room.RestoreHost(connectionID, displayName, s.clock.Now())
		if errors.Is(err, domain.ErrGraceExpired) {
			s.destroyRoom(ctx, room, metrics.DestroyReasonGraceExpired, graceExpiredMessage)
			return JoinRoomResponse{}, ErrRoomNotFound
		}
		if err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to restore host: %w", err)
		}
		s.cancelGrace(room.Code)

	case domain.StatusActive:
		var previous domain.Member
		previous, host, err = room.MigrateHost(connectionID, displayName)
		if err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to migrate host: %w", err)
		}
		s.supersede(ctx, room.Code, previous.ConnectionID)

	default:
		return JoinRoomResponse{}, ErrRoomNotFound
	}

	if err := s.attach(connectionID, room.Code); err != nil {
		return JoinRoomResponse{}, err
	}

	resp := JoinRoomResponse{Room: room.Snapshot(), Member: host, Event: EventHostReconnected}
	s.sendTo(ctx, connectionID, EventRoomJoined, RoomPayload{Snapshot: resp.Room, Member: host})
	s.broadcast(ctx, room.Code, EventHostReconnected, MemberPayload{Member: host}, connectionID)

	s.logger.InfoContext(ctx, "host reconnected", "room_code", room.Code)

	return resp, nil
}

// moveViewer hands an existing viewer entry to the newest connection of the
// same session.
func (s *Service) moveViewer(ctx context.Context, room *domain.Room, existing domain.Member, connectionID, displayName string) (JoinRoomResponse, error) {
	if _, err := room.RemoveMember(existing.ConnectionID); err != nil {
		return JoinRoomResponse{}, err
	}
	s.supersede(ctx, room.Code, existing.ConnectionID)

	moved := existing
	moved.ConnectionID = connectionID
	moved.DisplayName = displayName

	member, err := room.AddMember(moved)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to add member: %w", err)
	}

	if err := s.attach(connectionID, room.Code); err != nil {
		_, _ = room.RemoveMember(connectionID)
		return JoinRoomResponse{}, err
	}

	resp := JoinRoomResponse{Room: room.Snapshot(), Member: member, Event: EventUserReconnected}
	s.sendTo(ctx, connectionID, EventRoomJoined, RoomPayload{Snapshot: resp.Room, Member: member})
	s.broadcast(ctx, room.Code, EventUserReconnected, MemberPayload{Member: member}, connectionID)

	s.logger.InfoContext(ctx, "member session moved", "room_code", room.Code)

	return resp, nil
}

// supersede detaches a connection whose session moved elsewhere and tells it so.
func (s *Service) supersede(ctx context.Context, code, connectionID string) {
	s.detach(connectionID, code)
	s.sendTo(ctx, connectionID, EventRoomError, ErrorPayload{
		Message: sessionMovedMessage,
		Code:    ErrorCodeSessionMoved,
	})
}

// LeaveRoom handles both an explicit leave and a dropped connection.
func (s *Service) LeaveRoom(ctx context.Context, connectionID string) (LeaveRoomResponse, error) {
	return do(ctx, s, func() (LeaveRoomResponse, error) {
		return s.leaveRoom(ctx, connectionID)
	})
}

func (s *Service) leaveRoom(ctx context.Context, connectionID string) (LeaveRoomResponse, error) {
	room, member, err := s.memberRoom(connectionID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			_ = s.connRepo.Remove(connectionID)
		}
		return LeaveRoomResponse{}, err
	}

	resp := LeaveRoomResponse{RoomCode: room.Code, Member: *member}
	s.detach(connectionID, room.Code)

	if room.IsHost(connectionID) {
		_, epoch, err := room.DisconnectHost(s.clock.Now().Add(s.cfg.GracePeriod))
		if err != nil {
			return LeaveRoomResponse{}, fmt.Errorf("failed to disconnect host: %w", err)
		}
		s.startGrace(ctx, room, epoch)

		s.broadcast(ctx, room.Code, EventHostDisconnected, HostDisconnectedPayload{
			Message:       hostDisconnectedMessage,
			GracePeriodMs: s.cfg.GracePeriod.Milliseconds(),
		})

		s.logger.InfoContext(ctx, "host disconnected", "room_code", room.Code, "grace_period", s.cfg.GracePeriod.String())
		resp.HostDisconnected = true
		return resp, nil
	}

	if _, err := room.RemoveMember(connectionID); err != nil {
		return LeaveRoomResponse{}, fmt.Errorf("failed to remove member: %w", err)
	}

	s.broadcast(ctx, room.Code, EventUserLeft, MemberPayload{Member: *member})
	s.logger.InfoContext(ctx, "member left room", "room_code", room.Code)

	return resp, nil
}

// leaveCurrent drops whatever room the connection is in before it enters another.
func (s *Service) leaveCurrent(ctx context.Context, connectionID string) {
	if _, err := s.leaveRoom(ctx, connectionID); err != nil && !errors.Is(err, ErrNotInRoom) {
		s.logger.WarnContext(ctx, "failed to leave previous room", "error", err)
	}
}
