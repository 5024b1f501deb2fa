package room

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrSignalRouting    = errors.New("signal routing failure")
	ErrNotInRoom        = errors.New("connection is not in a room")
	ErrRoomFull         = errors.New("room is full")
	ErrMemberNotFound   = errors.New("member not found")
	ErrContentNotFound  = errors.New("content not found")
	ErrServiceStopped   = errors.New("room service stopped")
	ErrInternal         = errors.New("internal error")
)
