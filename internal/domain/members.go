package domain

import (
	"errors"

	"golang.org/x/exp/slices"
)

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("member already exists")
)

// Member is keyed by the connection that owns it. Usernames are not unique.
type Member struct {
	ConnID   string `json:"-"`
	Username string `json:"username"`
}

type Members struct {
	list []Member
}

func NewMembers() *Members {
	return &Members{
		list: []Member{},
	}
}

func (m Members) Length() int {
	return len(m.list)
}

func (m Members) AsList() []Member {
	return slices.Clone(m.list)
}

// Usernames returns display names in join order.
func (m Members) Usernames() []string {
	usernames := make([]string, 0, len(m.list))
	for _, member := range m.list {
		usernames = append(usernames, member.Username)
	}

	return usernames
}

func (m Members) GetByConnID(connID string) (Member, int, error) {
	index := slices.IndexFunc(m.list, func(member Member) bool {
		return member.ConnID == connID
	})
	if index == -1 {
		return Member{}, 0, ErrMemberNotFound
	}

	return m.list[index], index, nil
}

func (m *Members) Add(member Member) error {
	if _, _, err := m.GetByConnID(member.ConnID); err == nil {
		return ErrMemberAlreadyExists
	}

	m.list = append(m.list, member)
	return nil
}

func (m *Members) RemoveByConnID(connID string) (Member, error) {
	member, index, err := m.GetByConnID(connID)
	if err != nil {
		return Member{}, err
	}

	m.list = slices.Delete(m.list, index, index+1)
	return member, nil
}
