package domain

import (
	"errors"
	"sort"
)

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("member already exists")
)

type Member struct {
	ConnectionID string `json:"connectionId"`
	DisplayName  string `json:"displayName"`
	IsHost       bool   `json:"isHost"`
	IsMuted      bool   `json:"isMuted"`
	SessionToken string `json:"-"`
	joinSeq      uint64
}

// Members is keyed by connection id. Listing is ordered by join sequence so
// snapshots are stable.
type Members struct {
	byConn map[string]*Member
	seq    uint64
}

func NewMembers() *Members {
	return &Members{byConn: make(map[string]*Member)}
}

func (m *Members) Length() int {
	return len(m.byConn)
}

func (m *Members) Add(member Member) error {
	if _, ok := m.byConn[member.ConnectionID]; ok {
		return ErrMemberAlreadyExists
	}

	m.seq++
	member.joinSeq = m.seq
	m.byConn[member.ConnectionID] = &member

	return nil
}

func (m *Members) Get(connectionID string) (*Member, bool) {
	member, ok := m.byConn[connectionID]
	return member, ok
}

func (m *Members) Remove(connectionID string) (Member, error) {
	member, ok := m.byConn[connectionID]
	if !ok {
		return Member{}, ErrMemberNotFound
	}

	delete(m.byConn, connectionID)

	return *member, nil
}

// FindBySession returns the member currently holding the session token.
func (m *Members) FindBySession(token string) (*Member, bool) {
	if token == "" {
		return nil, false
	}

	for _, member := range m.byConn {
		if member.SessionToken == token {
			return member, true
		}
	}

	return nil, false
}

// AsList returns copies of all members in join order.
func (m *Members) AsList() []Member {
	list := make([]Member, 0, len(m.byConn))
	for _, member := range m.byConn {
		list = append(list, *member)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].joinSeq < list[j].joinSeq
	})

	return list
}

func (m *Members) ConnectionIDs() []string {
	list := m.AsList()
	ids := make([]string, 0, len(list))
	for _, member := range list {
		ids = append(ids, member.ConnectionID)
	}

	return ids
}

func (m *Members) CountHosts() int {
	n := 0
	for _, member := range m.byConn {
		if member.IsHost {
			n++
		}
	}

	return n
}
