package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembersKeepJoinOrder(t *testing.T) {
	members := NewMembers()
	require.NoError(t, members.Add(Member{ConnID: "c1", Username: "alice"}))
	require.NoError(t, members.Add(Member{ConnID: "c2", Username: "bob"}))
	require.NoError(t, members.Add(Member{ConnID: "c3", Username: "alice"}))

	assert.Equal(t, []string{"alice", "bob", "alice"}, members.Usernames())
	assert.ErrorIs(t, members.Add(Member{ConnID: "c2", Username: "carol"}), ErrMemberAlreadyExists)
}

func TestMembersRemoveByConnIDWithDuplicateNames(t *testing.T) {
	members := NewMembers()
	require.NoError(t, members.Add(Member{ConnID: "c1", Username: "alice"}))
	require.NoError(t, members.Add(Member{ConnID: "c2", Username: "alice"}))

	removed, err := members.RemoveByConnID("c2")
	require.NoError(t, err)
	assert.Equal(t, "c2", removed.ConnID)
	assert.Equal(t, []string{"alice"}, members.Usernames())

	remaining, _, err := members.GetByConnID("c1")
	require.NoError(t, err)
	assert.Equal(t, "alice", remaining.Username)

	_, err = members.RemoveByConnID("c2")
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestMembersAsListIsACopy(t *testing.T) {
	members := NewMembers()
	require.NoError(t, members.Add(Member{ConnID: "c1", Username: "alice"}))

	list := members.AsList()
	list[0].Username = "mallory"

	assert.Equal(t, []string{"alice"}, members.Usernames())
}
