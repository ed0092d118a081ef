package game

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type broadcastRec struct {
	RoomID  string
	Msg     Message
	Exclude string
}

// recorder stands in for the connection hub.
type recorder struct {
	mu         sync.Mutex
	bindings   map[string][2]string // connID -> roomID, playerID
	sent       map[string][]Message
	broadcasts []broadcastRec
}

func newRecorder() *recorder {
	return &recorder{bindings: make(map[string][2]string), sent: make(map[string][]Message)}
}

func (r *recorder) Send(connID string, msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[connID] = append(r.sent[connID], msg)
}

func (r *recorder) Broadcast(roomID string, msg Message, exclude string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = append(r.broadcasts, broadcastRec{RoomID: roomID, Msg: msg, Exclude: exclude})
}

func (r *recorder) Attach(connID, roomID, playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[connID] = [2]string{roomID, playerID}
}

func (r *recorder) Detach(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, connID)
}

func (r *recorder) Lookup(connID string) (string, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[connID]
	return b[0], b[1], ok
}

func (r *recorder) lastSent(connID string) Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.sent[connID]
	if len(msgs) == 0 {
		return Message{}
	}
	return msgs[len(msgs)-1]
}

func (r *recorder) sentTypes(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.sent[connID] {
		out = append(out, m.Type)
	}
	return out
}

func (r *recorder) lastBroadcast() broadcastRec {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.broadcasts) == 0 {
		return broadcastRec{}
	}
	return r.broadcasts[len(r.broadcasts)-1]
}

func (r *recorder) broadcastTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, b := range r.broadcasts {
		out = append(out, b.Msg.Type)
	}
	return out
}

func newTestManager(opts ...Option) (*RoomManager, *Store, *recorder) {
	store := NewStore()
	rec := newRecorder()
	return NewRoomManager(store, rec, rec, opts...), store, rec
}

// seatPlayers creates a room hosted on conn c0 and joins n-1 more players on
// c1..cn-1. players[i] is the player on conn ci.
func seatPlayers(t *testing.T, m *RoomManager, rec *recorder, n int) (string, []string) {
	t.Helper()
	require.NoError(t, m.CreateRoom("c0", "Player0", nil))
	roomID, host, ok := rec.Lookup("c0")
	require.True(t, ok)
	room, err := m.store.Room(roomID)
	require.NoError(t, err)

	players := []string{host}
	for i := 1; i < n; i++ {
		conn := fmt.Sprintf("c%d", i)
		require.NoError(t, m.JoinRoom(conn, room.Code, fmt.Sprintf("Player%d", i)))
		_, pid, ok := rec.Lookup(conn)
		require.True(t, ok)
		players = append(players, pid)
	}
	return roomID, players
}

func startGame(t *testing.T, m *RoomManager, rec *recorder, n int, s Settings) (string, []string) {
	t.Helper()
	roomID, players := seatPlayers(t, m, rec, n)
	require.NoError(t, m.StartGame("c0", roomID, &s))
	return roomID, players
}

// describeRound has every alive player describe in turn order.
func describeRound(t *testing.T, m *RoomManager, roomID string) {
	t.Helper()
	for {
		room, err := m.store.Room(roomID)
		require.NoError(t, err)
		if room.Phase != PhaseDescriptive {
			return
		}
		turn := CurrentTurn(m.store.PlayersByRoom(roomID))
		require.NotEmpty(t, turn)
		require.NoError(t, m.SubmitDescription(roomID, turn, "clue"))
	}
}

// voteAll has every alive player vote for target.
func voteAll(t *testing.T, m *RoomManager, roomID, target string) {
	t.Helper()
	for _, p := range alivePlayers(m.store.PlayersByRoom(roomID)) {
		require.NoError(t, m.CastVote(roomID, p.ID, target))
	}
}

func withRole(s *Store, roomID string, role Role) []Player {
	var out []Player
	for _, p := range s.PlayersByRoom(roomID) {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

func phaseOf(t *testing.T, s *Store, roomID string) Phase {
	t.Helper()
	room, err := s.Room(roomID)
	require.NoError(t, err)
	return room.Phase
}
