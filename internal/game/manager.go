package game

import (
    "fmt"
    "math/rand/v2"
    "strings"
    "sync"

    "github.com/rs/zerolog/log"
)

const (
    EventRoomCreated          = "room_created"
    EventRoomJoined           = "room_joined"
    EventPlayerJoined         = "player_joined"
    EventPlayerLeft           = "player_left"
    EventGameState            = "game_state"
    EventGameStarted          = "game_started"
    EventDescriptionSubmitted = "description_submitted"
    EventVoteCast             = "vote_cast"
    EventMrWhiteEliminated    = "mr_white_eliminated"
    EventMrWhiteWins          = "mr_white_wins"
    EventGameOver             = "game_over"
    EventNextRound            = "next_round"
    EventReconnected          = "reconnected"
    EventError                = "error"
)

const (
    codeLength   = 6
    codeAttempts = 100
)

// Outbox delivers events to connections. Implementations must keep the
// order in which calls are made per connection.
type Outbox interface {
    Send(connID string, msg Message)
    Broadcast(roomID string, msg Message, excludePlayerID string)
}

// Directory maps connections to the room and player they speak for.
type Directory interface {
    Attach(connID, roomID, playerID string)
    Detach(connID string)
    Lookup(connID string) (roomID, playerID string, ok bool)
}

// Exporter receives the final state of every finished game.
type Exporter func(GameState) error

type Option func(*RoomManager)

func WithExporter(e Exporter) Option {
    return func(m *RoomManager) { m.export = e }
}

// WithDefaultSettings sets the settings used when create_room omits them.
func WithDefaultSettings(s Settings) Option {
    return func(m *RoomManager) { m.defaults = s }
}

// RoomManager is the authoritative game engine. Every action on a room runs
// under that room's lock from validation through broadcast, so clients see
// snapshots in commit order. Different rooms never contend.
type RoomManager struct {
    store    *Store
    out      Outbox
    dir      Directory
    defaults Settings
    export   Exporter

    mu    sync.Mutex
    locks map[string]*sync.Mutex // roomID -> lock
}

func NewRoomManager(store *Store, out Outbox, dir Directory, opts ...Option) *RoomManager {
    m := &RoomManager{
        store:    store,
        out:      out,
        dir:      dir,
        defaults: Settings{UndercoverCount: 1},
        locks:    make(map[string]*sync.Mutex),
    }
    for _, opt := range opts {
        opt(m)
    }
    return m
}

func (m *RoomManager) lockRoom(roomID string) func() {
    m.mu.Lock()
    l := m.locks[roomID]
    if l == nil {
        l = &sync.Mutex{}
        m.locks[roomID] = l
    }
    m.mu.Unlock()
    l.Lock()
    return l.Unlock
}

type roomCreated struct {
    RoomCode string `json:"roomCode"`
    PlayerID string `json:"playerId"`
    RoomID   string `json:"roomId"`
}

type reconnected struct {
    GameState GameState `json:"gameState"`
    PlayerID  string    `json:"playerId"`
}

// playerLeft is the room snapshot plus the id of whoever left.
type playerLeft struct {
    GameState
    PlayerID string `json:"playerId"`
}

type errorPayload struct {
    Message string `json:"message"`
}

func (m *RoomManager) CreateRoom(connID, name string, settings *Settings) error {
    name = strings.TrimSpace(name)
    if name == "" {
        return ErrEmptyName
    }
    cfg := m.defaults
    if settings != nil {
        cfg = *settings
    }
    if cfg.UndercoverCount < 0 || cfg.MrWhiteCount < 0 {
        return fmt.Errorf("%w: role counts cannot be negative", ErrInvalidSettings)
    }

    // codes are checked and claimed in one step
    m.mu.Lock()
    code, err := m.allocateCode()
    if err != nil {
        m.mu.Unlock()
        return err
    }
    room := m.store.CreateRoom(code, "", cfg)
    m.mu.Unlock()

    unlock := m.lockRoom(room.ID)
    defer unlock()

    p := m.store.CreatePlayer(room.ID, name)
    if _, err := m.store.UpdatePlayer(p.ID, func(p *Player) { p.IsHost = true }); err != nil {
        return err
    }
    if _, err := m.store.UpdateRoom(room.ID, func(r *Room) { r.HostID = p.ID }); err != nil {
        return err
    }
    m.dir.Attach(connID, room.ID, p.ID)
    log.Info().Str("code", code).Str("roomId", room.ID).Str("playerId", p.ID).Msg("room created")

    m.out.Send(connID, Message{Type: EventRoomCreated, Data: roomCreated{RoomCode: code, PlayerID: p.ID, RoomID: room.ID}})
    m.sendState(connID, room.ID, EventGameState)
    return nil
}

func (m *RoomManager) allocateCode() (string, error) {
    for i := 0; i < codeAttempts; i++ {
        code := randomCode(codeLength)
        if !m.store.CodeInUse(code) {
            return code, nil
        }
    }
    return "", ErrCodeExhausted
}

func (m *RoomManager) JoinRoom(connID, code, name string) error {
    name = strings.TrimSpace(name)
    if name == "" {
        return ErrEmptyName
    }
    room, err := m.store.RoomByCode(strings.ToUpper(strings.TrimSpace(code)))
    if err != nil {
        return err
    }
    unlock := m.lockRoom(room.ID)
    defer unlock()

    room, err = m.store.Room(room.ID)
    if err != nil {
        return err
    }
    if room.Phase != PhaseLobby {
        return ErrGameInProgress
    }
    p := m.store.CreatePlayer(room.ID, name)
    if room.HostID == "" {
        // everyone had left; the newcomer takes over
        m.promote(room.ID, p.ID)
    }
    m.dir.Attach(connID, room.ID, p.ID)
    log.Info().Str("code", room.Code).Str("playerId", p.ID).Msg("player joined")

    m.out.Send(connID, Message{Type: EventRoomJoined, Data: roomCreated{RoomCode: room.Code, PlayerID: p.ID, RoomID: room.ID}})
    m.broadcast(room.ID, EventPlayerJoined, p.ID)
    m.sendState(connID, room.ID, EventGameState)
    return nil
}

func (m *RoomManager) StartGame(connID, roomID string, settings *Settings) error {
    unlock := m.lockRoom(roomID)
    defer unlock()

    room, err := m.store.Room(roomID)
    if err != nil {
        return err
    }
    if err := m.requireHost(connID, room); err != nil {
        return err
    }
    if room.Phase != PhaseLobby {
        return ErrInvalidPhase
    }
    players := m.store.PlayersByRoom(roomID)
    if len(players) < MinPlayers {
        return ErrNotEnoughPlayers
    }
    cfg := room.Settings
    if settings != nil {
        cfg = *settings
    }
    if err := validateSettings(cfg, len(players)); err != nil {
        return err
    }
    if _, err := m.store.UpdateRoom(roomID, func(r *Room) { r.Settings = cfg }); err != nil {
        return err
    }

    if err := AssignRoles(m.store, roomID); err != nil {
        return err
    }
    if err := m.setPhase(roomID, PhaseDescriptive, nil); err != nil {
        return err
    }
    first, _ := SequenceTurns(m.store, roomID)
    log.Info().Str("roomId", roomID).Int("players", len(players)).Str("firstTurn", first).Msg("game started")

    m.broadcast(roomID, EventGameStarted, "")
    return nil
}

func validateSettings(s Settings, players int) error {
    switch {
    case s.UndercoverCount < 0 || s.MrWhiteCount < 0:
        return fmt.Errorf("%w: role counts cannot be negative", ErrInvalidSettings)
    case s.UndercoverCount+s.MrWhiteCount < 1:
        return fmt.Errorf("%w: need at least one undercover or Mr. White", ErrInvalidSettings)
    case s.UndercoverCount+s.MrWhiteCount >= players:
        return fmt.Errorf("%w: need at least one civilian", ErrInvalidSettings)
    }
    return nil
}

func (m *RoomManager) SubmitDescription(roomID, playerID, text string) error {
    unlock := m.lockRoom(roomID)
    defer unlock()

    room, err := m.store.Room(roomID)
    if err != nil {
        return err
    }
    if room.Phase != PhaseDescriptive {
        return ErrInvalidPhase
    }
    p, err := m.member(roomID, playerID)
    if err != nil {
        return err
    }
    switch {
    case !p.IsAlive:
        return ErrPlayerEliminated
    case p.HasSubmittedDescription:
        return ErrAlreadySubmitted
    case CurrentTurn(m.store.PlayersByRoom(roomID)) != playerID:
        return ErrNotYourTurn
    }
    text = strings.TrimSpace(text)
    if text == "" {
        return ErrEmptyDescription
    }

    m.store.CreateDescription(roomID, playerID, room.CurrentRound, text)
    if _, err := m.store.UpdatePlayer(playerID, func(p *Player) { p.HasSubmittedDescription = true }); err != nil {
        return err
    }
    if err := m.closeDescriptions(roomID); err != nil {
        return err
    }
    m.broadcast(roomID, EventDescriptionSubmitted, "")
    return nil
}

// closeDescriptions moves the room to voting once every alive player has
// described.
func (m *RoomManager) closeDescriptions(roomID string) error {
    players := m.store.PlayersByRoom(roomID)
    if !allSubmitted(players) {
        return nil
    }
    for _, p := range players {
        if _, err := m.store.UpdatePlayer(p.ID, func(p *Player) { p.HasSubmittedDescription = false }); err != nil {
            return err
        }
    }
    return m.setPhase(roomID, PhaseVoting, nil)
}

func allSubmitted(players []Player) bool {
    alive := 0
    for _, p := range players {
        if !p.IsAlive {
            continue
        }
        alive++
        if !p.HasSubmittedDescription {
            return false
        }
    }
    return alive > 0
}

func (m *RoomManager) CastVote(roomID, voterID, targetID string) error {
    unlock := m.lockRoom(roomID)
    defer unlock()

    room, err := m.store.Room(roomID)
    if err != nil {
        return err
    }
    if room.Phase != PhaseVoting {
        return ErrInvalidPhase
    }
    voter, err := m.member(roomID, voterID)
    if err != nil {
        return err
    }
    if !voter.IsAlive {
        return ErrPlayerEliminated
    }
    target, err := m.member(roomID, targetID)
    if err != nil || !target.IsAlive {
        return ErrInvalidTarget
    }

    if err := CastVote(m.store, roomID, room.CurrentRound, voterID, targetID); err != nil {
        return err
    }
    event, err := m.resolveVotes(roomID)
    if err != nil {
        return err
    }
    m.broadcast(roomID, event, "")
    return nil
}

// resolveVotes eliminates the plurality target once everyone alive has
// voted and returns the event describing what happened.
func (m *RoomManager) resolveVotes(roomID string) (string, error) {
    room, err := m.store.Room(roomID)
    if err != nil {
        return "", err
    }
    if !AllVoted(m.store.PlayersByRoom(roomID)) {
        return EventVoteCast, nil
    }
    targetID, count := Tally(m.store.VotesByRoom(roomID, room.CurrentRound))
    if targetID == "" {
        return EventVoteCast, nil
    }
    out, err := Eliminate(m.store, roomID, targetID, room.CurrentRound)
    if err != nil {
        return "", err
    }
    log.Info().Str("roomId", roomID).Str("playerId", out.ID).Str("role", string(out.Role)).Int("votes", count).Msg("player eliminated")

    if out.Role == RoleMrWhite {
        err := m.setPhase(roomID, PhaseMrWhiteGuess, func(r *Room) { r.PendingGuessID = out.ID })
        return EventMrWhiteEliminated, err
    }
    return m.concludeOrContinue(roomID)
}

// concludeOrContinue ends the game if a team has won, otherwise starts the
// next descriptive round.
func (m *RoomManager) concludeOrContinue(roomID string) (string, error) {
    if outcome := EvaluateWin(m.store.PlayersByRoom(roomID)); outcome != nil {
        return EventGameOver, m.finish(roomID, *outcome)
    }
    return EventNextRound, m.nextRound(roomID)
}

func (m *RoomManager) finish(roomID string, outcome Outcome) error {
    err := m.setPhase(roomID, PhaseGameOver, func(r *Room) {
        r.Outcome = &outcome
        r.PendingGuessID = ""
    })
    if err != nil {
        return err
    }
    if err := ApplyScores(m.store, roomID, outcome.Team); err != nil {
        return err
    }
    log.Info().Str("roomId", roomID).Str("team", string(outcome.Team)).Msg("game over")

    if m.export != nil {
        gs, err := Snapshot(m.store, roomID)
        if err == nil {
            err = m.export(gs)
        }
        if err != nil {
            log.Error().Err(err).Str("roomId", roomID).Msg("failed to export game result")
        }
    }
    return nil
}

func (m *RoomManager) nextRound(roomID string) error {
    for _, p := range m.store.PlayersByRoom(roomID) {
        if _, err := m.store.UpdatePlayer(p.ID, func(p *Player) {
            p.HasSubmittedDescription = false
            p.HasVoted = false
        }); err != nil {
            return err
        }
    }
    err := m.setPhase(roomID, PhaseDescriptive, func(r *Room) {
        r.CurrentRound++
        r.PendingGuessID = ""
    })
    if err != nil {
        return err
    }
    SequenceTurns(m.store, roomID)
    return nil
}

func (m *RoomManager) MrWhiteGuess(roomID, playerID, guess string) error {
    unlock := m.lockRoom(roomID)
    defer unlock()

    room, err := m.store.Room(roomID)
    if err != nil {
        return err
    }
    if room.Phase != PhaseMrWhiteGuess {
        return ErrInvalidPhase
    }
    if playerID == "" || playerID != room.PendingGuessID {
        return ErrNotGuessingPlayer
    }

    players := m.store.PlayersByRoom(roomID)
    word := civilianWord(room, players)
    if word != "" && strings.EqualFold(strings.TrimSpace(guess), word) {
        var whites []string
        for _, p := range players {
            if p.Role == RoleMrWhite {
                whites = append(whites, p.ID)
            }
        }
        log.Info().Str("roomId", roomID).Str("playerId", playerID).Msg("mr white guessed the word")
        if err := m.finish(roomID, Outcome{Team: TeamMrWhite, PlayerIDs: whites}); err != nil {
            return err
        }
        m.broadcast(roomID, EventMrWhiteWins, "")
        return nil
    }

    log.Info().Str("roomId", roomID).Str("playerId", playerID).Msg("mr white guessed wrong")
    event, err := m.concludeOrContinue(roomID)
    if err != nil {
        return err
    }
    m.broadcast(roomID, event, "")
    return nil
}

func civilianWord(room Room, players []Player) string {
    if room.Words != nil {
        return room.Words.Civilian
    }
    for _, p := range players {
        if p.Role == RoleCivilian {
            return p.Word
        }
    }
    return ""
}

func (m *RoomManager) ExitRoom(connID, roomID, playerID string) error {
    unlock := m.lockRoom(roomID)
    defer unlock()

    room, err := m.store.Room(roomID)
    if err != nil {
        return err
    }
    leaver, err := m.member(roomID, playerID)
    if err != nil {
        return err
    }
    m.store.RemovePlayer(playerID)
    m.dir.Detach(connID)

    if room.HostID == playerID {
        if rest := m.store.PlayersByRoom(roomID); len(rest) > 0 {
            m.promote(roomID, rest[0].ID)
        } else if _, err := m.store.UpdateRoom(roomID, func(r *Room) { r.HostID = "" }); err != nil {
            return err
        }
    }
    log.Info().Str("roomId", roomID).Str("playerId", playerID).Msg("player left")

    event, err := m.settleDeparture(room, leaver)
    if err != nil {
        return err
    }
    if gs, err := Snapshot(m.store, roomID); err != nil {
        log.Error().Err(err).Str("roomId", roomID).Str("event", EventPlayerLeft).Msg("snapshot failed")
    } else {
        m.out.Broadcast(roomID, Message{Type: EventPlayerLeft, Data: playerLeft{GameState: gs, PlayerID: playerID}}, playerID)
    }
    if event != "" {
        m.broadcast(roomID, event, playerID)
    }
    return nil
}

func (m *RoomManager) promote(roomID, playerID string) {
    if _, err := m.store.UpdatePlayer(playerID, func(p *Player) { p.IsHost = true }); err != nil {
        return
    }
    m.store.UpdateRoom(roomID, func(r *Room) { r.HostID = playerID })
    log.Info().Str("roomId", roomID).Str("playerId", playerID).Msg("host reassigned")
}

// settleDeparture keeps a running game consistent after a player left:
// their votes and votes against them are withdrawn, then the game either
// ends or moves on if the leaver was the one everyone waited for.
func (m *RoomManager) settleDeparture(room Room, leaver Player) (string, error) {
    switch room.Phase {
    case PhaseDescriptive, PhaseVoting, PhaseMrWhiteGuess:
    default:
        return "", nil
    }

    votes := m.store.VotesByRoom(room.ID, room.CurrentRound)
    var revoked []string
    for _, v := range votes {
        if v.TargetID == leaver.ID && v.VoterID != leaver.ID {
            revoked = append(revoked, v.VoterID)
        }
    }
    if len(revoked) > 0 || hasVoteFrom(votes, leaver.ID) {
        retractVotes(m.store, room.ID, room.CurrentRound, votes, func(v Vote) bool {
            return v.VoterID == leaver.ID || v.TargetID == leaver.ID
        })
    }
    for _, id := range revoked {
        if _, err := m.store.UpdatePlayer(id, func(p *Player) { p.HasVoted = false }); err != nil {
            return "", err
        }
    }

    if room.Phase == PhaseMrWhiteGuess {
        if room.PendingGuessID != leaver.ID {
            return "", nil
        }
        return m.concludeOrContinue(room.ID)
    }
    if !leaver.IsAlive {
        return "", nil
    }
    players := m.store.PlayersByRoom(room.ID)
    if outcome := EvaluateWin(players); outcome != nil {
        return EventGameOver, m.finish(room.ID, *outcome)
    }
    if room.Phase == PhaseDescriptive {
        return "", m.closeDescriptions(room.ID)
    }
    if AllVoted(players) {
        return m.resolveVotes(room.ID)
    }
    return "", nil
}

// Reconnect binds connID to an existing player and sends them the current
// state. Nothing about the game changes.
func (m *RoomManager) Reconnect(connID, playerID string) error {
    p, err := m.store.Player(playerID)
    if err != nil {
        return err
    }
    unlock := m.lockRoom(p.RoomID)
    defer unlock()

    gs, err := Snapshot(m.store, p.RoomID)
    if err != nil {
        return err
    }
    m.dir.Attach(connID, p.RoomID, playerID)
    log.Info().Str("roomId", p.RoomID).Str("playerId", playerID).Msg("player reconnected")
    m.out.Send(connID, Message{Type: EventReconnected, Data: reconnected{GameState: gs, PlayerID: playerID}})
    return nil
}

// PlayAgain returns a finished room to the lobby with the same roster.
// Scores carry over.
func (m *RoomManager) PlayAgain(connID, roomID string) error {
    unlock := m.lockRoom(roomID)
    defer unlock()

    room, err := m.store.Room(roomID)
    if err != nil {
        return err
    }
    if err := m.requireHost(connID, room); err != nil {
        return err
    }
    if room.Phase != PhaseGameOver {
        return ErrInvalidPhase
    }
    for _, p := range m.store.PlayersByRoom(roomID) {
        if _, err := m.store.UpdatePlayer(p.ID, func(p *Player) {
            p.Role = ""
            p.Word = ""
            p.IsAlive = true
            p.TurnOrder = nil
            p.HasSubmittedDescription = false
            p.HasVoted = false
            p.EliminatedInRound = 0
        }); err != nil {
            return err
        }
    }
    m.store.ClearHistory(roomID)
    err = m.setPhase(roomID, PhaseLobby, func(r *Room) {
        r.CurrentRound = 1
        r.Words = nil
        r.Outcome = nil
        r.PendingGuessID = ""
    })
    if err != nil {
        return err
    }
    m.broadcast(roomID, EventGameState, "")
    return nil
}

// Disconnect forgets a closed connection. The player stays in the room and
// can come back with Reconnect.
func (m *RoomManager) Disconnect(connID string) {
    m.dir.Detach(connID)
}

type RoomSummary struct {
    RoomID      string `json:"roomId"`
    RoomCode    string `json:"roomCode"`
    Phase       Phase  `json:"phase"`
    Round       int    `json:"round"`
    PlayerCount int    `json:"playerCount"`
}

func (m *RoomManager) Summary(code string) (RoomSummary, error) {
    room, err := m.store.RoomByCode(strings.ToUpper(strings.TrimSpace(code)))
    if err != nil {
        return RoomSummary{}, err
    }
    unlock := m.lockRoom(room.ID)
    defer unlock()
    room, err = m.store.Room(room.ID)
    if err != nil {
        return RoomSummary{}, err
    }
    return RoomSummary{
        RoomID:      room.ID,
        RoomCode:    room.Code,
        Phase:       room.Phase,
        Round:       room.CurrentRound,
        PlayerCount: len(m.store.PlayersByRoom(room.ID)),
    }, nil
}

func (m *RoomManager) requireHost(connID string, room Room) error {
    roomID, playerID, ok := m.dir.Lookup(connID)
    if !ok || roomID != room.ID {
        return ErrPlayerNotFound
    }
    if playerID != room.HostID {
        return ErrNotHost
    }
    return nil
}

// requireActor checks that connID is bound to playerID in roomID.
func (m *RoomManager) requireActor(connID, roomID, playerID string) error {
    boundRoom, boundPlayer, ok := m.dir.Lookup(connID)
    if !ok || boundRoom != roomID || boundPlayer != playerID {
        return ErrNotYourPlayer
    }
    return nil
}

func (m *RoomManager) member(roomID, playerID string) (Player, error) {
    p, err := m.store.Player(playerID)
    if err != nil || p.RoomID != roomID {
        return Player{}, ErrPlayerNotFound
    }
    return p, nil
}

func (m *RoomManager) setPhase(roomID string, to Phase, fn func(*Room)) error {
    var from Phase
    _, err := m.store.UpdateRoom(roomID, func(r *Room) {
        from = r.Phase
        r.Phase = to
        if fn != nil {
            fn(r)
        }
    })
    if err != nil {
        return err
    }
    log.Info().Str("roomId", roomID).Str("from", string(from)).Str("to", string(to)).Msg("phase transition")
    return nil
}

func (m *RoomManager) broadcast(roomID, event, excludePlayerID string) {
    gs, err := Snapshot(m.store, roomID)
    if err != nil {
        log.Error().Err(err).Str("roomId", roomID).Str("event", event).Msg("snapshot failed")
        return
    }
    m.out.Broadcast(roomID, Message{Type: event, Data: gs}, excludePlayerID)
}

func (m *RoomManager) sendState(connID, roomID, event string) {
    gs, err := Snapshot(m.store, roomID)
    if err != nil {
        log.Error().Err(err).Str("roomId", roomID).Str("event", event).Msg("snapshot failed")
        return
    }
    m.out.Send(connID, Message{Type: event, Data: gs})
}

func randomCode(n int) string {
    letters := []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")
    b := make([]rune, n)
    for i := range b {
        b[i] = letters[rand.IntN(len(letters))]
    }
    return string(b)
}
