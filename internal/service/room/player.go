package room

import (
	"context"

	"github.com/sharetube/watchparty/internal/domain"
)

// updatePlayback applies a host transport command and relays the new state
// to everyone but the host.
func (s *Service) updatePlayback(ctx context.Context, connectionID string, apply func(p *domain.PlaybackState)) (PlaybackResponse, error) {
	return do(ctx, s, func() (PlaybackResponse, error) {
		room, err := s.checkIfMemberHost(connectionID)
		if err != nil {
			return PlaybackResponse{}, err
		}

		apply(&room.Playback)

		s.broadcast(ctx, room.Code, EventVideoSync, SyncPayload{PlaybackState: room.Playback}, connectionID)

		return PlaybackResponse{PlaybackState: room.Playback}, nil
	})
}

func (s *Service) Play(ctx context.Context, params *PlaybackParams) (PlaybackResponse, error) {
	if params.CurrentPosition < 0 {
		return PlaybackResponse{}, ErrMalformedPayload
	}

	return s.updatePlayback(ctx, params.ConnectionID, func(p *domain.PlaybackState) {
		p.Play(params.CurrentPosition, s.clock.Now())
	})
}

func (s *Service) Pause(ctx context.Context, params *PlaybackParams) (PlaybackResponse, error) {
	if params.CurrentPosition < 0 {
		return PlaybackResponse{}, ErrMalformedPayload
	}

	return s.updatePlayback(ctx, params.ConnectionID, func(p *domain.PlaybackState) {
		p.Pause(params.CurrentPosition, s.clock.Now())
	})
}

func (s *Service) Seek(ctx context.Context, params *PlaybackParams) (PlaybackResponse, error) {
	if params.CurrentPosition < 0 {
		return PlaybackResponse{}, ErrMalformedPayload
	}

	return s.updatePlayback(ctx, params.ConnectionID, func(p *domain.PlaybackState) {
		p.Seek(params.CurrentPosition, s.clock.Now())
	})
}

func (s *Service) SetRate(ctx context.Context, params *SetRateParams) (PlaybackResponse, error) {
	if params.Rate <= 0 {
		return PlaybackResponse{}, ErrMalformedPayload
	}

	return s.updatePlayback(ctx, params.ConnectionID, func(p *domain.PlaybackState) {
		p.SetRate(params.Rate, s.clock.Now())
	})
}

func (s *Service) SetSubtitle(ctx context.Context, params *SetSubtitleParams) (PlaybackResponse, error) {
	if params.TrackIndex < domain.SubtitlesDisabled {
		return PlaybackResponse{}, ErrMalformedPayload
	}

	return s.updatePlayback(ctx, params.ConnectionID, func(p *domain.PlaybackState) {
		p.SetSubtitle(params.TrackIndex, s.clock.Now())
	})
}

// RequestState sends the current playback state to the requester only. Any
// member may ask.
func (s *Service) RequestState(ctx context.Context, connectionID string) (PlaybackResponse, error) {
	return do(ctx, s, func() (PlaybackResponse, error) {
		room, _, err := s.memberRoom(connectionID)
		if err != nil {
			return PlaybackResponse{}, err
		}

		s.sendTo(ctx, connectionID, EventVideoSync, SyncPayload{PlaybackState: room.Playback})

		return PlaybackResponse{PlaybackState: room.Playback}, nil
	})
}

func (s *Service) ChangeContent(ctx context.Context, params *ChangeContentParams) (ChangeContentResponse, error) {
	if params.ContentType == "" && params.ContentID == "" && params.EpisodeID == "" {
		return ChangeContentResponse{}, ErrMalformedPayload
	}

	return do(ctx, s, func() (ChangeContentResponse, error) {
		room, err := s.checkIfMemberHost(params.ConnectionID)
		if err != nil {
			return ChangeContentResponse{}, err
		}

		next := room.Content
		if params.ContentType != "" {
			next.Type = params.ContentType
		}
		if params.ContentID != "" {
			next.ID = params.ContentID
		}
		if params.EpisodeID != "" {
			next.EpisodeID = params.EpisodeID
		}
		if err := s.checkContent(next); err != nil {
			return ChangeContentResponse{}, err
		}

		room.ChangeContent(params.ContentType, params.ContentID, params.EpisodeID, s.clock.Now())

		s.broadcast(ctx, room.Code, EventContentChanged, ContentChangedPayload{
			ContentRef:    room.Content,
			PlaybackState: room.Playback,
		})
		s.logger.InfoContext(ctx, "room content changed", "room_code", room.Code, "content_type", room.Content.Type)

		return ChangeContentResponse{Content: room.Content, PlaybackState: room.Playback}, nil
	})
}
