package domain

import (
	"errors"
	"time"
)

var (
	ErrHostNotDisconnected = errors.New("host is not disconnected")
	ErrHostNotConnected    = errors.New("host is not connected")
	ErrGraceExpired        = errors.New("grace period expired")
	ErrRoomDestroyed       = errors.New("room destroyed")
)

type Status int

const (
	StatusActive Status = iota
	StatusHostDisconnected
	StatusDestroyed
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusHostDisconnected:
		return "host-disconnected"
	case StatusDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// ContentRef points at a catalog item. It is relayed, never resolved here.
type ContentRef struct {
	Type      string `json:"contentType"`
	ID        string `json:"contentId"`
	EpisodeID string `json:"episodeId,omitempty"`
}

type Room struct {
	ID               string
	Code             string
	HostConnectionID string
	HostSessionToken string
	Content          ContentRef
	Members          *Members
	Playback         PlaybackState
	CreatedAt        time.Time

	status        Status
	graceDeadline time.Time
	graceEpoch    uint64
	absentHost    *Member
	sessions      map[string]struct{}
}

func NewRoom(id, code string, content ContentRef, host Member, now time.Time) *Room {
	r := &Room{
		ID:               id,
		Code:             code,
		HostConnectionID: host.ConnectionID,
		HostSessionToken: host.SessionToken,
		Content:          content,
		Members:          NewMembers(),
		Playback:         NewPlaybackState(now),
		CreatedAt:        now,
		status:           StatusActive,
		sessions:         make(map[string]struct{}),
	}

	host.IsHost = true
	_ = r.Members.Add(host)
	r.rememberSession(host.SessionToken)

	return r
}

func (r *Room) Status() Status {
	return r.status
}

// GraceDeadline is zero unless the room is waiting for its host.
func (r *Room) GraceDeadline() time.Time {
	if r.status != StatusHostDisconnected {
		return time.Time{}
	}

	return r.graceDeadline
}

// IsHost reports whether connectionID currently holds host authority.
func (r *Room) IsHost(connectionID string) bool {
	return r.status == StatusActive && connectionID != "" && connectionID == r.HostConnectionID
}

func (r *Room) IsHostSession(token string) bool {
	return token != "" && token == r.HostSessionToken
}

// HasSession reports whether the token has been used by any member of this room.
func (r *Room) HasSession(token string) bool {
	_, ok := r.sessions[token]
	return token != "" && ok
}


// AddMember adds a viewer. Host authority is never granted through this path.
func (r *Room) AddMember(member Member) (Member, error) {
	if r.status == StatusDestroyed {
		return Member{}, ErrRoomDestroyed
	}

	member.IsHost = false
	if err := r.Members.Add(member); err != nil {
		return Member{}, err
	}
	r.rememberSession(member.SessionToken)

	added, _ := r.Members.Get(member.ConnectionID)
	return *added, nil
}

// RemoveMember removes a viewer entry. The host goes through DisconnectHost.
func (r *Room) RemoveMember(connectionID string) (Member, error) {
	return r.Members.Remove(connectionID)
}

// DisconnectHost detaches the host entry and opens the grace window. The
// returned epoch identifies this window; a timer must present it to expire it.
func (r *Room) DisconnectHost(deadline time.Time) (Member, uint64, error) {
	if r.status != StatusActive {
		return Member{}, 0, ErrHostNotConnected
	}

	host, err := r.Members.Remove(r.HostConnectionID)
	if err != nil {
		return Member{}, 0, err
	}

	host.IsHost = false
	r.absentHost = &host
	r.HostConnectionID = ""
	r.status = StatusHostDisconnected
	r.graceDeadline = deadline
	r.graceEpoch++

	return host, r.graceEpoch, nil
}

// GraceExpired reports whether the grace window identified by epoch is still open.
func (r *Room) GraceExpired(epoch uint64) bool {
	return r.status == StatusHostDisconnected && r.graceEpoch == epoch
}

// RestoreHost hands host authority to a new connection of the returning host.
func (r *Room) RestoreHost(connectionID, displayName string, now time.Time) (Member, error) {
	if r.status != StatusHostDisconnected {
		return Member{}, ErrHostNotDisconnected
	}

	if !now.Before(r.graceDeadline) {
		return Member{}, ErrGraceExpired
	}

	restored := *r.absentHost
	r.absentHost = nil
	r.graceDeadline = time.Time{}

	return r.installHost(restored, connectionID, displayName)
}

// MigrateHost moves an active host session to another connection. The
// previous host entry is returned so the caller can detach its connection.
func (r *Room) MigrateHost(connectionID, displayName string) (Member, Member, error) {
	if r.status != StatusActive {
		return Member{}, Member{}, ErrHostNotConnected
	}

	previous, err := r.Members.Remove(r.HostConnectionID)
	if err != nil {
		return Member{}, Member{}, err
	}

	host, err := r.installHost(previous, connectionID, displayName)
	if err != nil {
		return Member{}, Member{}, err
	}

	return previous, host, nil
}

func (r *Room) installHost(base Member, connectionID, displayName string) (Member, error) {
	// collapse any other entry left behind by the same session
	if stale, ok := r.Members.FindBySession(base.SessionToken); ok {
		_, _ = r.Members.Remove(stale.ConnectionID)
	}

	base.ConnectionID = connectionID
	base.IsHost = true
	if displayName != "" {
		base.DisplayName = displayName
	}

	if err := r.Members.Add(base); err != nil {
		return Member{}, err
	}

	r.HostConnectionID = connectionID
	r.status = StatusActive

	host, _ := r.Members.Get(connectionID)
	return *host, nil
}

// ChangeContent applies the provided fields and resets playback.
func (r *Room) ChangeContent(contentType, contentID, episodeID string, now time.Time) {
	if contentType != "" {
		r.Content.Type = contentType
	}
	if contentID != "" {
		r.Content.ID = contentID
	}
	if episodeID != "" {
		r.Content.EpisodeID = episodeID
	}

	r.Playback = NewPlaybackState(now)
}

func (r *Room) Destroy() {
	r.status = StatusDestroyed
	r.HostConnectionID = ""
	r.absentHost = nil
}

func (r *Room) rememberSession(token string) {
	if token != "" {
		r.sessions[token] = struct{}{}
	}
}

type Snapshot struct {
	RoomID   string `json:"roomId"`
	RoomCode string `json:"roomCode"`
	ContentRef
	HostConnectionID string        `json:"hostConnectionId,omitempty"`
	Status           string        `json:"status"`
	GraceDeadline    *int64        `json:"graceDeadline,omitempty"`
	Members          []Member      `json:"members"`
	PlaybackState    PlaybackState `json:"playbackState"`
	CreatedAt        int64         `json:"createdAt"`
}

// Snapshot returns a copy safe to hand to other goroutines.
func (r *Room) Snapshot() Snapshot {
	s := Snapshot{
		RoomID:           r.ID,
		RoomCode:         r.Code,
		ContentRef:       r.Content,
		HostConnectionID: r.HostConnectionID,
		Status:           r.status.String(),
		Members:          r.Members.AsList(),
		PlaybackState:    r.Playback,
		CreatedAt:        r.CreatedAt.UnixMilli(),
	}

	if r.status == StatusHostDisconnected {
		deadline := r.graceDeadline.UnixMilli()
		s.GraceDeadline = &deadline
	}

	return s
}
