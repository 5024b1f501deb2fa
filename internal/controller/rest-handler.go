package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/sharetube/watchparty/internal/service/room"
)

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	summary, err := c.roomService.GetRoom(r.Context(), code)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, envelope{"error": ErrorOutput{Message: "Room not found", Code: ErrorCodeRoomNotFound}})
			return
		}

		c.logger.ErrorContext(r.Context(), "failed to get room", "error", err, "room_code", code)
		writeJSON(w, http.StatusInternalServerError, envelope{"error": ErrorOutput{Message: "Internal error", Code: ErrorCodeInternal}})
		return
	}

	writeJSON(w, http.StatusOK, envelope{"data": summary})
}
