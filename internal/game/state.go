package game

// Snapshot rebuilds the room's GameState from the store. It is never cached.
func Snapshot(s *Store, roomID string) (GameState, error) {
	room, err := s.Room(roomID)
	if err != nil {
		return GameState{}, err
	}
	players := s.PlayersByRoom(roomID)
	gs := GameState{
		Room:         room,
		Players:      players,
		Descriptions: s.DescriptionsByRoom(roomID, room.CurrentRound),
		Votes:        s.VotesByRoom(roomID, room.CurrentRound),
	}

	switch room.Phase {
	case PhaseDescriptive:
		gs.CurrentTurn = CurrentTurn(players)
	case PhaseMrWhiteGuess:
		for i := range players {
			if players[i].ID == room.PendingGuessID {
				p := players[i]
				gs.EliminatedPlayer = &p
			}
		}
	case PhaseGameOver:
		if room.Outcome != nil {
			gs.Winner = &Winner{Team: room.Outcome.Team, Players: pick(players, room.Outcome.PlayerIDs)}
		}
	}
	return gs, nil
}

func pick(players []Player, ids []string) []Player {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := []Player{}
	for _, p := range players {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out
}
