package game

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRoster(s *Store, roles ...Role) (string, []Player) {
	room := s.CreateRoom("ABC234", "", Settings{})
	for i, role := range roles {
		p := s.CreatePlayer(room.ID, fmt.Sprintf("P%d", i))
		s.UpdatePlayer(p.ID, func(p *Player) { p.Role = role })
	}
	return room.ID, s.PlayersByRoom(room.ID)
}

func turnIndices(t *testing.T, players []Player) []int {
	t.Helper()
	var out []int
	for _, p := range players {
		if !p.IsAlive {
			continue
		}
		require.NotNil(t, p.TurnOrder, "alive player %s has no turn index", p.Name)
		out = append(out, *p.TurnOrder)
	}
	sort.Ints(out)
	return out
}

func TestSequenceTurnsKeepsMrWhiteOutOfTheFirstTwoSlots(t *testing.T) {
	for _, n := range []int{3, 4, 6} {
		t.Run(fmt.Sprintf("%d players", n), func(t *testing.T) {
			roles := []Role{RoleMrWhite}
			for len(roles) < n {
				roles = append(roles, RoleCivilian)
			}
			s := NewStore()
			roomID, _ := seedRoster(s, roles...)

			seen := map[int]bool{}
			for trial := 0; trial < 300; trial++ {
				first, ok := SequenceTurns(s, roomID)
				require.True(t, ok)

				players := s.PlayersByRoom(roomID)
				white := withRole(s, roomID, RoleMrWhite)[0]
				assert.GreaterOrEqual(t, *white.TurnOrder, 2)
				assert.NotEqual(t, white.ID, first)
				seen[*white.TurnOrder] = true

				want := make([]int, n)
				for i := range want {
					want[i] = i
				}
				assert.Equal(t, want, turnIndices(t, players))
			}
			// every legal slot shows up eventually
			assert.Len(t, seen, n-2)
		})
	}
}

func TestSequenceTurnsWithTwoWhites(t *testing.T) {
	s := NewStore()
	roomID, _ := seedRoster(s, RoleMrWhite, RoleMrWhite, RoleCivilian, RoleCivilian, RoleUndercover)
	for trial := 0; trial < 200; trial++ {
		_, ok := SequenceTurns(s, roomID)
		require.True(t, ok)
		for _, w := range withRole(s, roomID, RoleMrWhite) {
			assert.GreaterOrEqual(t, *w.TurnOrder, 2)
		}
		assert.Equal(t, []int{0, 1, 2, 3, 4}, turnIndices(t, s.PlayersByRoom(roomID)))
	}
}

func TestSequenceTurnsOnlyOrdersAlivePlayers(t *testing.T) {
	s := NewStore()
	roomID, players := seedRoster(s, RoleCivilian, RoleCivilian, RoleUndercover, RoleMrWhite)
	s.UpdatePlayer(players[0].ID, func(p *Player) { p.IsAlive = false })

	first, ok := SequenceTurns(s, roomID)
	require.True(t, ok)
	assert.NotEqual(t, players[0].ID, first)
	assert.Equal(t, []int{0, 1, 2}, turnIndices(t, s.PlayersByRoom(roomID)))
}

func TestSequenceTurnsEmptyRoom(t *testing.T) {
	s := NewStore()
	room := s.CreateRoom("ABC234", "", Settings{})
	_, ok := SequenceTurns(s, room.ID)
	assert.False(t, ok)
}

func TestCurrentTurnFollowsOrder(t *testing.T) {
	zero, one, two := 0, 1, 2
	players := []Player{
		{ID: "a", IsAlive: true, TurnOrder: &two},
		{ID: "b", IsAlive: true, TurnOrder: &zero},
		{ID: "c", IsAlive: true, TurnOrder: &one},
	}
	assert.Equal(t, "b", CurrentTurn(players))

	players[1].HasSubmittedDescription = true
	assert.Equal(t, "c", CurrentTurn(players))

	players[2].HasSubmittedDescription = true
	assert.Equal(t, "a", CurrentTurn(players))

	players[0].HasSubmittedDescription = true
	assert.Equal(t, "", CurrentTurn(players))
}
