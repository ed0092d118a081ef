package game

// CastVote records voterID's vote for the round. A voter who already voted
// has the old vote retracted: the round's votes are cleared and re-inserted
// without it before the new one is appended.
func CastVote(s *Store, roomID string, round int, voterID, targetID string) error {
	existing := s.VotesByRoom(roomID, round)
	if hasVoteFrom(existing, voterID) {
		retractVotes(s, roomID, round, existing, func(v Vote) bool { return v.VoterID == voterID })
	}
	s.CreateVote(roomID, voterID, targetID, round)
	_, err := s.UpdatePlayer(voterID, func(p *Player) { p.HasVoted = true })
	return err
}

// retractVotes rebuilds the round's votes without those drop matches.
func retractVotes(s *Store, roomID string, round int, votes []Vote, drop func(Vote) bool) {
	s.ClearVotes(roomID, round)
	for _, v := range votes {
		if drop(v) {
			continue
		}
		s.CreateVote(v.RoomID, v.VoterID, v.TargetID, v.Round)
	}
}

func hasVoteFrom(votes []Vote, voterID string) bool {
	for _, v := range votes {
		if v.VoterID == voterID {
			return true
		}
	}
	return false
}

// AllVoted reports whether every alive player has voted. A room with no
// alive players never counts as complete.
func AllVoted(players []Player) bool {
	alive := 0
	for _, p := range players {
		if !p.IsAlive {
			continue
		}
		alive++
		if !p.HasVoted {
			return false
		}
	}
	return alive > 0
}

// Tally returns the target with the most votes. Ties go to the lowest
// player id so the result never depends on vote order.
func Tally(votes []Vote) (string, int) {
	counts := make(map[string]int)
	for _, v := range votes {
		counts[v.TargetID]++
	}
	target, most := "", 0
	for id, n := range counts {
		if n > most || (n == most && id < target) {
			target, most = id, n
		}
	}
	return target, most
}

// Eliminate marks targetID dead and clears every alive player's vote flag.
// The round's votes stay as history.
func Eliminate(s *Store, roomID, targetID string, round int) (Player, error) {
	out, err := s.UpdatePlayer(targetID, func(p *Player) {
		p.IsAlive = false
		p.HasVoted = false
		p.EliminatedInRound = round
	})
	if err != nil {
		return Player{}, err
	}
	for _, p := range s.PlayersByRoom(roomID) {
		if !p.IsAlive {
			continue
		}
		if _, err := s.UpdatePlayer(p.ID, func(p *Player) { p.HasVoted = false }); err != nil {
			return Player{}, err
		}
	}
	return out, nil
}
