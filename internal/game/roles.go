package game

import "math/rand/v2"

// MinPlayers is the smallest roster a game can start with.
const MinPlayers = 3

// AssignRoles draws a word pair and hands out roles and words to every
// player in the room. Rooms with fewer than MinPlayers are left untouched.
func AssignRoles(s *Store, roomID string) error {
	room, err := s.Room(roomID)
	if err != nil {
		return err
	}
	players := s.PlayersByRoom(roomID)
	if len(players) < MinPlayers {
		return nil
	}

	pair := WordPairs[rand.IntN(len(WordPairs))]
	rand.Shuffle(len(players), func(i, j int) { players[i], players[j] = players[j], players[i] })

	undercovers := room.Settings.UndercoverCount
	mrWhites := room.Settings.MrWhiteCount
	for i, p := range players {
		role, word := RoleCivilian, pair.Civilian
		switch {
		case i < undercovers:
			role, word = RoleUndercover, pair.Undercover
		case i < undercovers+mrWhites:
			role, word = RoleMrWhite, ""
		}
		if _, err := s.UpdatePlayer(p.ID, func(p *Player) {
			p.Role = role
			p.Word = word
		}); err != nil {
			return err
		}
	}
	_, err = s.UpdateRoom(roomID, func(r *Room) { r.Words = &pair })
	return err
}
