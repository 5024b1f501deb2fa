package room

import (
	"context"

	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/metrics"
)

// startGrace arms the host grace timer for the window identified by epoch.
// The timer only enqueues; expiry is decided on the loop.
func (s *Service) startGrace(ctx context.Context, room *domain.Room, epoch uint64) {
	s.cancelGrace(room.Code)

	ctx = context.WithoutCancel(ctx)
	code, roomID := room.Code, room.ID
	s.graceTimers[code] = s.clock.AfterFunc(s.cfg.GracePeriod, func() {
		_ = s.enqueue(ctx, func() {
			s.expireGrace(ctx, code, roomID, epoch)
		})
	})
}

func (s *Service) cancelGrace(code string) {
	if timer, ok := s.graceTimers[code]; ok {
		timer.Stop()
		delete(s.graceTimers, code)
	}
}

func (s *Service) expireGrace(ctx context.Context, code, roomID string, epoch uint64) {
	room, err := s.roomRepo.Get(code)
	if err != nil || room.ID != roomID {
		return
	}

	// host came back, or a later window replaced this one
	if !room.GraceExpired(epoch) {
		return
	}

	delete(s.graceTimers, code)
	s.destroyRoom(ctx, room, metrics.DestroyReasonGraceExpired, graceExpiredMessage)
}
