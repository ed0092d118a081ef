package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastVoteReplacesEarlierVote(t *testing.T) {
	s := NewStore()
	roomID, players := seedRoster(s, RoleCivilian, RoleCivilian, RoleUndercover)
	a, b, c := players[0].ID, players[1].ID, players[2].ID

	require.NoError(t, CastVote(s, roomID, 1, b, c))
	require.NoError(t, CastVote(s, roomID, 1, a, b))
	require.NoError(t, CastVote(s, roomID, 1, a, c))

	votes := s.VotesByRoom(roomID, 1)
	require.Len(t, votes, 2)
	var fromA []Vote
	for _, v := range votes {
		if v.VoterID == a {
			fromA = append(fromA, v)
		}
	}
	require.Len(t, fromA, 1)
	assert.Equal(t, c, fromA[0].TargetID)

	voter, _ := s.Player(a)
	assert.True(t, voter.HasVoted)
}

func TestTally(t *testing.T) {
	votes := []Vote{
		{VoterID: "1", TargetID: "x"},
		{VoterID: "2", TargetID: "y"},
		{VoterID: "3", TargetID: "x"},
	}
	target, n := Tally(votes)
	assert.Equal(t, "x", target)
	assert.Equal(t, 2, n)
}

func TestTallyTieGoesToLowestID(t *testing.T) {
	votes := []Vote{
		{VoterID: "1", TargetID: "p-c"},
		{VoterID: "2", TargetID: "p-b"},
		{VoterID: "3", TargetID: "p-c"},
		{VoterID: "4", TargetID: "p-b"},
		{VoterID: "5", TargetID: "p-a"},
	}
	for i := 0; i < 50; i++ {
		target, n := Tally(votes)
		assert.Equal(t, "p-b", target)
		assert.Equal(t, 2, n)
	}
}

func TestTallyEmpty(t *testing.T) {
	target, n := Tally(nil)
	assert.Empty(t, target)
	assert.Zero(t, n)
}

func TestAllVoted(t *testing.T) {
	players := []Player{
		{ID: "a", IsAlive: true, HasVoted: true},
		{ID: "b", IsAlive: false},
		{ID: "c", IsAlive: true},
	}
	assert.False(t, AllVoted(players))
	players[2].HasVoted = true
	assert.True(t, AllVoted(players))
	assert.False(t, AllVoted(nil))
}

func TestEliminateKeepsVoteHistory(t *testing.T) {
	s := NewStore()
	roomID, players := seedRoster(s, RoleCivilian, RoleCivilian, RoleUndercover)
	for _, p := range players {
		require.NoError(t, CastVote(s, roomID, 1, p.ID, players[2].ID))
	}

	out, err := Eliminate(s, roomID, players[2].ID, 1)
	require.NoError(t, err)
	assert.False(t, out.IsAlive)
	assert.Equal(t, 1, out.EliminatedInRound)

	for _, p := range s.PlayersByRoom(roomID) {
		assert.False(t, p.HasVoted)
	}
	assert.Len(t, s.VotesByRoom(roomID, 1), 3)
}
