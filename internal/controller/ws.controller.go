package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/sharetube/watchparty/internal/metrics"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/ctxlogger"
)

func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	connectionID := uuid.NewString()
	ctx := context.WithValue(r.Context(), connectionIDCtxKey, connectionID)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("connection_id", connectionID))

	sess := newSession(connectionID, conn, c.logger)
	c.broker.Register(sess)
	metrics.SessionsConnected.Inc()
	c.logger.InfoContext(ctx, "websocket connected")

	defer c.disconnect(ctx, sess)

	go sess.writePump(ctx)
	sess.readPump(ctx, func(data []byte) {
		if err := c.wsRouter.Dispatch(ctx, data); err != nil {
			c.writeError(ctx, sess, err)
		}
	})
}

// disconnect treats a dropped socket as an implicit room:leave.
func (c controller) disconnect(ctx context.Context, sess *session) {
	ctx = context.WithoutCancel(ctx)

	if _, err := c.roomService.LeaveRoom(ctx, sess.ID()); err != nil && !errors.Is(err, room.ErrNotInRoom) {
		c.logger.WarnContext(ctx, "failed to leave room on disconnect", "error", err)
	}

	c.broker.Unregister(sess.ID())
	sess.Close()
	metrics.SessionsConnected.Dec()
	c.logger.InfoContext(ctx, "websocket disconnected")
}
