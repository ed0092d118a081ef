package game

import "math/rand/v2"

// SequenceTurns shuffles the alive players into a new speaking order and
// stores each player's index. It returns the first speaker.
//
// With more than two players alive, Mr. White never speaks first or second
// as long as there are at least two other players to go before them.
func SequenceTurns(s *Store, roomID string) (string, bool) {
	alive := alivePlayers(s.PlayersByRoom(roomID))
	if len(alive) == 0 {
		return "", false
	}
	order := speakingOrder(alive)
	for i, p := range order {
		idx := i
		if _, err := s.UpdatePlayer(p.ID, func(p *Player) { p.TurnOrder = &idx }); err != nil {
			return "", false
		}
	}
	return order[0].ID, true
}

func speakingOrder(alive []Player) []Player {
	order := make([]Player, 0, len(alive))
	var whites []Player
	for _, p := range alive {
		if p.Role == RoleMrWhite {
			whites = append(whites, p)
			continue
		}
		order = append(order, p)
	}

	if len(alive) <= 2 || len(order) < 2 {
		order = append(order, whites...)
		rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		return order
	}

	rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	for _, w := range whites {
		// any slot from index 2 up to and including the end
		at := 2 + rand.IntN(len(order)-1)
		order = append(order, Player{})
		copy(order[at+1:], order[at:])
		order[at] = w
	}
	return order
}

// CurrentTurn is the alive player with the lowest turn index who has not
// described yet this round.
func CurrentTurn(players []Player) string {
	best := -1
	id := ""
	for _, p := range players {
		if !p.IsAlive || p.HasSubmittedDescription || p.TurnOrder == nil {
			continue
		}
		if best < 0 || *p.TurnOrder < best {
			best = *p.TurnOrder
			id = p.ID
		}
	}
	return id
}

func alivePlayers(players []Player) []Player {
	out := make([]Player, 0, len(players))
	for _, p := range players {
		if p.IsAlive {
			out = append(out, p)
		}
	}
	return out
}
