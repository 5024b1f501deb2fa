package inmemory

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/room"
	"golang.org/x/exp/maps"
)

// repo is the room registry. Rooms are keyed by their upper-cased code and
// host session tokens are indexed to the code of the room they host.
type repo struct {
	rooms        map[string]*domain.Room
	hostSessions map[string]string
	mu           sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		rooms:        make(map[string]*domain.Room),
		hostSessions: make(map[string]string),
	}
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *repo) Add(rm *domain.Room) error {
	funcName := "room.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	code := normalize(rm.Code)
	if _, ok := r.rooms[code]; ok {
		slog.Debug(funcName, "error", room.ErrRoomAlreadyExists, "room_code", code)
		return room.ErrRoomAlreadyExists
	}

	r.rooms[code] = rm
	return nil
}

func (r *repo) Get(code string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[normalize(code)]
	if !ok {
		return nil, room.ErrRoomNotFound
	}

	return rm, nil
}

func (r *repo) Exists(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[normalize(code)]
	return ok
}

// Remove is idempotent. Host sessions pointing at the room are dropped too.
func (r *repo) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code = normalize(code)
	delete(r.rooms, code)
	for token, roomCode := range r.hostSessions {
		if roomCode == code {
			delete(r.hostSessions, token)
		}
	}
}

func (r *repo) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Keys(r.rooms)
}

func (r *repo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}

func (r *repo) SetHostSession(token, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hostSessions[token] = normalize(code)
}

func (r *repo) GetHostSessionRoom(token string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	code, ok := r.hostSessions[token]
	if !ok {
		return "", room.ErrSessionNotFound
	}

	return code, nil
}
