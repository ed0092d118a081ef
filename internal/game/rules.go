package game

// EvaluateWin decides from the alive players' roles whether the game is over.
// Rules are checked in order and the first match wins; nil means play on.
func EvaluateWin(players []Player) *Outcome {
	var civilians, undercovers, whites []string
	for _, p := range players {
		if !p.IsAlive {
			continue
		}
		switch p.Role {
		case RoleCivilian:
			civilians = append(civilians, p.ID)
		case RoleUndercover:
			undercovers = append(undercovers, p.ID)
		case RoleMrWhite:
			whites = append(whites, p.ID)
		}
	}
	c, u, w := len(civilians), len(undercovers), len(whites)

	switch {
	case u == 0 && w == 0:
		return &Outcome{Team: TeamCivilians, PlayerIDs: civilians}
	case w == 0 && u >= c:
		return &Outcome{Team: TeamUndercovers, PlayerIDs: undercovers}
	case c == 1 && w == 1 && u == 0:
		return &Outcome{Team: TeamMrWhite, PlayerIDs: whites}
	case w > 0 && u+w >= c:
		return &Outcome{Team: TeamUndercovers, PlayerIDs: append(undercovers, whites...)}
	}
	return nil
}

// Points is what a player with role earns when team wins.
func Points(role Role, team Team) int {
	switch {
	case role == RoleCivilian && team == TeamCivilians:
		return 2
	case role == RoleUndercover && team == TeamUndercovers:
		return 10
	case role == RoleMrWhite && team == TeamMrWhite:
		return 6
	}
	return 0
}

// ApplyScores credits every player in the room, alive or not.
func ApplyScores(s *Store, roomID string, team Team) error {
	for _, p := range s.PlayersByRoom(roomID) {
		pts := Points(p.Role, team)
		if pts == 0 {
			continue
		}
		if _, err := s.UpdatePlayer(p.ID, func(p *Player) { p.Score += pts }); err != nil {
			return err
		}
	}
	return nil
}
