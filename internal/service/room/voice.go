package room

import (
	"context"
	"fmt"
)

// RelaySignal forwards an opaque call-setup payload to another member of the
// sender's room. Anything unroutable is reported as ErrSignalRouting.
func (s *Service) RelaySignal(ctx context.Context, params *RelaySignalParams) (struct{}, error) {
	return do(ctx, s, func() (struct{}, error) {
		room, _, err := s.memberRoom(params.ConnectionID)
		if err != nil {
			return struct{}{}, fmt.Errorf("%w: %w", ErrSignalRouting, err)
		}

		if params.TargetConnectionID == params.ConnectionID {
			return struct{}{}, fmt.Errorf("%w: target is sender", ErrSignalRouting)
		}

		if _, ok := room.Members.Get(params.TargetConnectionID); !ok {
			return struct{}{}, fmt.Errorf("%w: target not in room", ErrSignalRouting)
		}

		s.sendTo(ctx, params.TargetConnectionID, EventVoiceSignal, SignalPayload{
			FromConnectionID: params.ConnectionID,
			Payload:          params.Payload,
		})

		return struct{}{}, nil
	})
}

func (s *Service) BroadcastSpeaking(ctx context.Context, params *SpeakingParams) (struct{}, error) {
	return do(ctx, s, func() (struct{}, error) {
		room, _, err := s.memberRoom(params.ConnectionID)
		if err != nil {
			return struct{}{}, err
		}

		s.broadcast(ctx, room.Code, EventVoiceUserSpeaking, SpeakingPayload{
			ConnectionID: params.ConnectionID,
			IsSpeaking:   params.IsSpeaking,
		}, params.ConnectionID)

		return struct{}{}, nil
	})
}

func (s *Service) SetMute(ctx context.Context, params *SetMuteParams) (MemberResponse, error) {
	return do(ctx, s, func() (MemberResponse, error) {
		room, member, err := s.memberRoom(params.ConnectionID)
		if err != nil {
			return MemberResponse{}, err
		}

		member.IsMuted = params.IsMuted
		s.broadcast(ctx, room.Code, EventUserUpdated, MemberPayload{Member: *member})

		return MemberResponse{Member: *member}, nil
	})
}

// HostSetMute lets the host mute another member. The target is also told
// directly so it can stop its capture.
func (s *Service) HostSetMute(ctx context.Context, params *HostSetMuteParams) (MemberResponse, error) {
	return do(ctx, s, func() (MemberResponse, error) {
		room, err := s.checkIfMemberHost(params.ConnectionID)
		if err != nil {
			return MemberResponse{}, err
		}

		target, ok := room.Members.Get(params.TargetConnectionID)
		if !ok {
			return MemberResponse{}, ErrMemberNotFound
		}

		target.IsMuted = params.IsMuted
		s.broadcast(ctx, room.Code, EventUserUpdated, MemberPayload{Member: *target})
		s.sendTo(ctx, target.ConnectionID, EventVoiceMutedByHost, MutedByHostPayload{IsMuted: params.IsMuted})

		s.logger.DebugContext(ctx, "member muted by host", "room_code", room.Code, "is_muted", params.IsMuted)

		return MemberResponse{Member: *target}, nil
	})
}
