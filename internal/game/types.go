package game

import (
    "encoding/json"
    "time"
)

type Phase string

const (
    PhaseLobby        Phase = "lobby"
    PhaseDescriptive  Phase = "descriptive"
    PhaseVoting       Phase = "voting"
    PhaseMrWhiteGuess Phase = "mrWhiteGuess"
    PhaseGameOver     Phase = "gameOver"
)

type Role string

const (
    RoleCivilian   Role = "civilian"
    RoleUndercover Role = "undercover"
    RoleMrWhite    Role = "mrWhite"
)

type Team string

const (
    TeamCivilians   Team = "civilians"
    TeamUndercovers Team = "undercovers"
    TeamMrWhite     Team = "mrWhite"
)

type Settings struct {
    UndercoverCount int `json:"undercoverCount"`
    MrWhiteCount    int `json:"mrWhiteCount"`
}

type WordPair struct {
    Civilian   string `json:"civilian"`
    Undercover string `json:"undercover"`
}

// Outcome is the stored result of a finished game.
type Outcome struct {
    Team      Team     `json:"team"`
    PlayerIDs []string `json:"playerIds"`
}

type Room struct {
    ID           string    `json:"id"`
    Code         string    `json:"code"`
    HostID       string    `json:"hostId"`
    Settings     Settings  `json:"settings"`
    Phase        Phase     `json:"phase"`
    CurrentRound int       `json:"currentRound"`
    CreatedAt    time.Time `json:"createdAt"`

    // Words is the pair drawn at game start. Players carry their own word.
    Words *WordPair `json:"-"`
    // PendingGuessID is the eliminated Mr. White while in PhaseMrWhiteGuess.
    PendingGuessID string   `json:"-"`
    Outcome        *Outcome `json:"-"`
}

type Player struct {
    ID                      string    `json:"id"`
    RoomID                  string    `json:"roomId"`
    Name                    string    `json:"name"`
    Role                    Role      `json:"role,omitempty"`
    Word                    string    `json:"word,omitempty"`
    IsAlive                 bool      `json:"isAlive"`
    IsHost                  bool      `json:"isHost"`
    TurnOrder               *int      `json:"currentTurnOrder"`
    HasSubmittedDescription bool      `json:"hasSubmittedDescription"`
    HasVoted                bool      `json:"hasVoted"`
    Score                   int       `json:"score"`
    EliminatedInRound       int       `json:"eliminatedInRound,omitempty"`
    JoinedAt                time.Time `json:"joinedAt"`
}

type Description struct {
    ID          string    `json:"id"`
    RoomID      string    `json:"roomId"`
    PlayerID    string    `json:"playerId"`
    Round       int       `json:"round"`
    Description string    `json:"description"`
    CreatedAt   time.Time `json:"createdAt"`
}

type Vote struct {
    ID        string    `json:"id"`
    RoomID    string    `json:"roomId"`
    VoterID   string    `json:"voterId"`
    TargetID  string    `json:"targetId"`
    Round     int       `json:"round"`
    CreatedAt time.Time `json:"createdAt"`
}

type Winner struct {
    Team    Team     `json:"team"`
    Players []Player `json:"players"`
}

// GameState is a read-only view rebuilt from the store on every request.
type GameState struct {
    Room             Room          `json:"room"`
    Players          []Player      `json:"players"`
    Descriptions     []Description `json:"descriptions"`
    Votes            []Vote        `json:"votes"`
    CurrentTurn      string        `json:"currentTurn,omitempty"`
    EliminatedPlayer *Player       `json:"eliminatedPlayer,omitempty"`
    Winner           *Winner       `json:"winner,omitempty"`
}

// Envelope is an inbound client message.
type Envelope struct {
    Type string          `json:"type"`
    Data json.RawMessage `json:"data"`
}

// Message is an outbound event.
type Message struct {
    Type string `json:"type"`
    Data any    `json:"data"`
}
