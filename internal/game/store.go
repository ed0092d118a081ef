package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds every room, player, description and vote in memory.
// It enforces no game rules. The lock only keeps the maps consistent;
// callers serialize work on a single room themselves.
type Store struct {
	mu sync.RWMutex

	rooms       map[string]*Room
	roomsByCode map[string]string   // code -> roomID
	players     map[string]*Player  // playerID -> Player
	roster      map[string][]string // roomID -> playerIDs in join order
	descs       map[string][]Description
	votes       map[string][]Vote
}

func NewStore() *Store {
	return &Store{
		rooms:       make(map[string]*Room),
		roomsByCode: make(map[string]string),
		players:     make(map[string]*Player),
		roster:      make(map[string][]string),
		descs:       make(map[string][]Description),
		votes:       make(map[string][]Vote),
	}
}

func (s *Store) CreateRoom(code, hostID string, settings Settings) Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Room{
		ID:           uuid.NewString(),
		Code:         code,
		HostID:       hostID,
		Settings:     settings,
		Phase:        PhaseLobby,
		CurrentRound: 1,
		CreatedAt:    time.Now().UTC(),
	}
	s.rooms[r.ID] = r
	s.roomsByCode[code] = r.ID
	return copyRoom(r)
}

func (s *Store) Room(id string) (Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := s.rooms[id]
	if r == nil {
		return Room{}, ErrRoomNotFound
	}
	return copyRoom(r), nil
}

func (s *Store) RoomByCode(code string) (Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := s.rooms[s.roomsByCode[code]]
	if r == nil {
		return Room{}, ErrRoomNotFound
	}
	return copyRoom(r), nil
}

func (s *Store) CodeInUse(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.roomsByCode[code]
	return ok
}

// UpdateRoom applies fn to the stored room. Fields fn leaves alone keep
// their value.
func (s *Store) UpdateRoom(id string, fn func(*Room)) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.rooms[id]
	if r == nil {
		return Room{}, ErrRoomNotFound
	}
	code := r.Code
	fn(r)
	r.ID = id
	if r.Code != code {
		delete(s.roomsByCode, code)
		s.roomsByCode[r.Code] = id
	}
	return copyRoom(r), nil
}

// DeleteRoom drops a room and everything that belongs to it. Nothing in the
// game flow calls it yet; it is the hook for reaping abandoned rooms.
func (s *Store) DeleteRoom(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.rooms[id]
	if r == nil {
		return
	}
	for _, pid := range s.roster[id] {
		delete(s.players, pid)
	}
	delete(s.roster, id)
	delete(s.descs, id)
	delete(s.votes, id)
	delete(s.roomsByCode, r.Code)
	delete(s.rooms, id)
}

func (s *Store) CreatePlayer(roomID, name string) Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &Player{
		ID:       uuid.NewString(),
		RoomID:   roomID,
		Name:     name,
		IsAlive:  true,
		JoinedAt: time.Now().UTC(),
	}
	s.players[p.ID] = p
	s.roster[roomID] = append(s.roster[roomID], p.ID)
	return copyPlayer(p)
}

func (s *Store) Player(id string) (Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.players[id]
	if p == nil {
		return Player{}, ErrPlayerNotFound
	}
	return copyPlayer(p), nil
}

// PlayersByRoom returns the room's players in join order.
func (s *Store) PlayersByRoom(roomID string) []Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.roster[roomID]
	out := make([]Player, 0, len(ids))
	for _, id := range ids {
		if p := s.players[id]; p != nil {
			out = append(out, copyPlayer(p))
		}
	}
	return out
}

func (s *Store) UpdatePlayer(id string, fn func(*Player)) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.players[id]
	if p == nil {
		return Player{}, ErrPlayerNotFound
	}
	roomID := p.RoomID
	fn(p)
	p.ID, p.RoomID = id, roomID
	return copyPlayer(p), nil
}

func (s *Store) RemovePlayer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.players[id]
	if p == nil {
		return
	}
	delete(s.players, id)
	ids := s.roster[p.RoomID]
	for i, pid := range ids {
		if pid == id {
			s.roster[p.RoomID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
}

func (s *Store) CreateDescription(roomID, playerID string, round int, text string) Description {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := Description{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		PlayerID:    playerID,
		Round:       round,
		Description: text,
		CreatedAt:   time.Now().UTC(),
	}
	s.descs[roomID] = append(s.descs[roomID], d)
	return d
}

func (s *Store) DescriptionsByRoom(roomID string, round int) []Description {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Description{}
	for _, d := range s.descs[roomID] {
		if d.Round == round {
			out = append(out, d)
		}
	}
	return out
}

func (s *Store) CreateVote(roomID, voterID, targetID string, round int) Vote {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := Vote{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		VoterID:   voterID,
		TargetID:  targetID,
		Round:     round,
		CreatedAt: time.Now().UTC(),
	}
	s.votes[roomID] = append(s.votes[roomID], v)
	return v
}

// VotesByRoom returns the round's votes in the order they were cast.
func (s *Store) VotesByRoom(roomID string, round int) []Vote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Vote{}
	for _, v := range s.votes[roomID] {
		if v.Round == round {
			out = append(out, v)
		}
	}
	return out
}

func (s *Store) ClearVotes(roomID string, round int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.votes[roomID][:0]
	for _, v := range s.votes[roomID] {
		if v.Round != round {
			kept = append(kept, v)
		}
	}
	s.votes[roomID] = kept
}

// ClearHistory drops every description and vote recorded for the room.
func (s *Store) ClearHistory(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.descs, roomID)
	delete(s.votes, roomID)
}

func copyRoom(r *Room) Room {
	out := *r
	if r.Words != nil {
		w := *r.Words
		out.Words = &w
	}
	if r.Outcome != nil {
		o := Outcome{Team: r.Outcome.Team, PlayerIDs: append([]string(nil), r.Outcome.PlayerIDs...)}
		out.Outcome = &o
	}
	return out
}

func copyPlayer(p *Player) Player {
	out := *p
	if p.TurnOrder != nil {
		n := *p.TurnOrder
		out.TurnOrder = &n
	}
	return out
}
