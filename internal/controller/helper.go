package controller

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sharetube/watchparty/internal/metrics"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/validator"
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

const (
	ErrorCodeRoomNotFound     = "ROOM_NOT_FOUND"
	ErrorCodeUnauthorized     = "UNAUTHORIZED"
	ErrorCodeMalformedPayload = "MALFORMED_PAYLOAD"
	ErrorCodeNotInRoom        = "NOT_IN_ROOM"
	ErrorCodeRoomFull         = "ROOM_FULL"
	ErrorCodeMemberNotFound   = "MEMBER_NOT_FOUND"
	ErrorCodeContentNotFound  = "CONTENT_NOT_FOUND"
	ErrorCodeInternal         = "INTERNAL"
)

type ErrorOutput struct {
	Message string                      `json:"message"`
	Code    string                      `json:"code"`
	Fields  []validator.ValidationError `json:"fields,omitempty"`
}

// UUIDv7 ids sort by creation time.
func (c controller) generateTimeBasedId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

func errorOutput(err error) ErrorOutput {
	var payloadErr *wsrouter.PayloadError
	switch {
	case errors.As(err, &payloadErr):
		return ErrorOutput{Message: payloadErr.Error(), Code: ErrorCodeMalformedPayload, Fields: payloadErr.Fields}
	case errors.Is(err, wsrouter.ErrInvalidMessage),
		errors.Is(err, wsrouter.ErrUnknownMessageType),
		errors.Is(err, room.ErrMalformedPayload):
		return ErrorOutput{Message: err.Error(), Code: ErrorCodeMalformedPayload}
	case errors.Is(err, room.ErrRoomNotFound):
		return ErrorOutput{Message: "Room not found", Code: ErrorCodeRoomNotFound}
	case errors.Is(err, room.ErrPermissionDenied):
		return ErrorOutput{Message: "Only the host can do that", Code: ErrorCodeUnauthorized}
	case errors.Is(err, room.ErrNotInRoom):
		return ErrorOutput{Message: "You are not in a room", Code: ErrorCodeNotInRoom}
	case errors.Is(err, room.ErrRoomFull):
		return ErrorOutput{Message: "Room is full", Code: ErrorCodeRoomFull}
	case errors.Is(err, room.ErrMemberNotFound):
		return ErrorOutput{Message: "Member not found", Code: ErrorCodeMemberNotFound}
	case errors.Is(err, room.ErrContentNotFound):
		return ErrorOutput{Message: "Content not found", Code: ErrorCodeContentNotFound}
	default:
		return ErrorOutput{Message: "Internal error", Code: ErrorCodeInternal}
	}
}

// writeError reports a failed event to the connection that sent it. Voice
// signals that cannot be routed are dropped silently.
func (c controller) writeError(ctx context.Context, sess *session, err error) {
	if errors.Is(err, room.ErrSignalRouting) {
		metrics.RejectedCommands.WithLabelValues("signal_routing").Inc()
		c.logger.DebugContext(ctx, "voice signal dropped", "error", err)
		return
	}

	out := errorOutput(err)
	metrics.RejectedCommands.WithLabelValues(out.Code).Inc()

	if out.Code == ErrorCodeInternal {
		c.logger.ErrorContext(ctx, "event failed", "error", err)
	} else {
		c.logger.InfoContext(ctx, "event rejected", "error", err, "code", out.Code)
	}

	if err := sess.write(room.EventRoomError, out); err != nil {
		c.logger.ErrorContext(ctx, "failed to write error", "error", err)
	}
}
