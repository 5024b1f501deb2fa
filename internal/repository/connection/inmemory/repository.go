package inmemory

import (
	"log/slog"
	"sync"

	"github.com/sharetube/watchparty/internal/repository/connection"
)

// repo maps a connection to the code of the room it is a member of.
type repo struct {
	rooms map[string]string
	mu    sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		rooms: make(map[string]string),
	}
}

func (r *repo) Add(connectionID, roomCode string) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[connectionID]; ok {
		slog.Debug(funcName, "error", connection.ErrAlreadyExists, "connection_id", connectionID)
		return connection.ErrAlreadyExists
	}

	r.rooms[connectionID] = roomCode
	return nil
}

func (r *repo) Remove(connectionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[connectionID]; !ok {
		return connection.ErrNotFound
	}

	delete(r.rooms, connectionID)
	return nil
}

func (r *repo) GetRoomCode(connectionID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	code, ok := r.rooms[connectionID]
	if !ok {
		return "", connection.ErrNotFound
	}

	return code, nil
}

func (r *repo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}
