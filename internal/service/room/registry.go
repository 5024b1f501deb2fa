package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/metrics"
	"github.com/sharetube/watchparty/internal/repository/broker"
)

const maxCodeAttempts = 64

var errCodeSpaceExhausted = errors.New("failed to generate unique room code")

func (s *Service) generateCode() (string, error) {
	for range maxCodeAttempts {
		code := s.generator.GenerateRandomString(s.cfg.CodeLength)
		if !s.roomRepo.Exists(code) {
			return code, nil
		}
	}

	return "", errCodeSpaceExhausted
}

func (s *Service) checkContent(ref domain.ContentRef) error {
	if s.catalog == nil {
		return nil
	}

	if err := s.catalog.Validate(ref); err != nil {
		return fmt.Errorf("%w: %w", ErrContentNotFound, err)
	}

	return nil
}

func (s *Service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	return do(ctx, s, func() (CreateRoomResponse, error) {
		return s.createRoom(ctx, params)
	})
}

func (s *Service) createRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	if params.ContentType == "" || params.ContentID == "" || params.DisplayName == "" {
		return CreateRoomResponse{}, ErrMalformedPayload
	}

	// a host token of a live room brings its owner back instead of opening a new room
	if code, err := s.roomRepo.GetHostSessionRoom(params.SessionToken); err == nil {
		if room, err := s.getRoom(code); err == nil {
			resp, err := s.returnHost(ctx, room, params.ConnectionID, params.DisplayName)
			if err == nil {
				return CreateRoomResponse{Room: resp.Room, Member: resp.Member, Reconnected: true}, nil
			}
			if !errors.Is(err, ErrRoomNotFound) {
				return CreateRoomResponse{}, err
			}
		}
	}

	s.leaveCurrent(ctx, params.ConnectionID)

	content := domain.ContentRef{
		Type:      params.ContentType,
		ID:        params.ContentID,
		EpisodeID: params.EpisodeID,
	}
	if err := s.checkContent(content); err != nil {
		return CreateRoomResponse{}, err
	}

	code, err := s.generateCode()
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create room", "error", err)
		return CreateRoomResponse{}, err
	}

	room := domain.NewRoom(s.newID(), code, content, domain.Member{
		ConnectionID: params.ConnectionID,
		DisplayName:  params.DisplayName,
		SessionToken: params.SessionToken,
	}, s.clock.Now())

	if err := s.roomRepo.Add(room); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to add room: %w", err)
	}
	if params.SessionToken != "" {
		s.roomRepo.SetHostSession(params.SessionToken, code)
	}
	if err := s.attach(params.ConnectionID, code); err != nil {
		s.roomRepo.Remove(code)
		return CreateRoomResponse{}, err
	}
	metrics.RoomsActive.Set(float64(s.roomRepo.Len()))

	host, _ := room.Members.Get(params.ConnectionID)
	resp := CreateRoomResponse{
		Room:   room.Snapshot(),
		Member: *host,
	}

	s.sendTo(ctx, params.ConnectionID, EventRoomCreated, RoomPayload{Snapshot: resp.Room, Member: resp.Member})
	s.logger.InfoContext(ctx, "room created", "room_code", code, "room_id", room.ID, "content_type", content.Type)

	return resp, nil
}

// GetRoom returns the public summary of a live room.
func (s *Service) GetRoom(ctx context.Context, code string) (RoomSummary, error) {
	return do(ctx, s, func() (RoomSummary, error) {
		room, err := s.getRoom(code)
		if err != nil {
			return RoomSummary{}, err
		}

		snapshot := room.Snapshot()
		return RoomSummary{
			RoomCode:      snapshot.RoomCode,
			ContentRef:    snapshot.ContentRef,
			MembersCount:  len(snapshot.Members),
			Status:        snapshot.Status,
			GraceDeadline: snapshot.GraceDeadline,
			CreatedAt:     snapshot.CreatedAt,
		}, nil
	})
}

// Sweep runs one idle-room pass immediately.
func (s *Service) Sweep(ctx context.Context) (SweepResponse, error) {
	return do(ctx, s, func() (SweepResponse, error) {
		return s.sweep(ctx), nil
	})
}

func (s *Service) sweep(ctx context.Context) SweepResponse {
	now := s.clock.Now()
	resp := SweepResponse{}

	for _, code := range s.roomRepo.Codes() {
		room, err := s.roomRepo.Get(code)
		if err != nil {
			continue
		}

		switch {
		case room.Members.Length() == 0 && !awaitingHost(room, now):
			s.destroyRoom(ctx, room, metrics.DestroyReasonEmpty, "")
		case now.Sub(room.CreatedAt) > s.cfg.RoomMaxAge:
			s.destroyRoom(ctx, room, metrics.DestroyReasonMaxAge, maxAgeMessage)
		default:
			continue
		}

		resp.Destroyed = append(resp.Destroyed, room.Code)
	}

	if len(resp.Destroyed) > 0 {
		s.logger.InfoContext(ctx, "idle rooms swept", "destroyed", len(resp.Destroyed))
	}

	return resp
}

// awaitingHost reports whether the room is inside its host grace window. A
// host alone in the room leaves it empty until it returns.
func awaitingHost(room *domain.Room, now time.Time) bool {
	return room.Status() == domain.StatusHostDisconnected && now.Before(room.GraceDeadline())
}

// destroyRoom removes the room and detaches every member. Members are told
// directly so the notice survives the topic being closed.
func (s *Service) destroyRoom(ctx context.Context, room *domain.Room, reason, message string) {
	s.cancelGrace(room.Code)

	members := room.Members.ConnectionIDs()
	for _, connectionID := range members {
		if message != "" {
			s.sendTo(ctx, connectionID, EventRoomDestroyed, DestroyedPayload{Message: message})
		}
		_ = s.connRepo.Remove(connectionID)
	}

	room.Destroy()
	s.broker.CloseTopic(broker.RoomTopic(room.Code))
	s.roomRepo.Remove(room.Code)

	metrics.RoomsDestroyed.WithLabelValues(reason).Inc()
	metrics.RoomsActive.Set(float64(s.roomRepo.Len()))

	s.logger.InfoContext(ctx, "room destroyed", "room_code", room.Code, "reason", reason, "members", len(members))
}
