package game

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
)

type createRoomReq struct {
	PlayerName string    `json:"playerName"`
	Settings   *Settings `json:"settings"`
}

type joinRoomReq struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type startGameReq struct {
	RoomID   string    `json:"roomId"`
	Settings *Settings `json:"settings"`
}

type submitDescriptionReq struct {
	RoomID      string `json:"roomId"`
	PlayerID    string `json:"playerId"`
	Description string `json:"description"`
}

type castVoteReq struct {
	RoomID   string `json:"roomId"`
	VoterID  string `json:"voterId"`
	TargetID string `json:"targetId"`
}

type mrWhiteGuessReq struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Guess    string `json:"guess"`
}

type exitRoomReq struct {
	PlayerID string `json:"playerId"`
	RoomID   string `json:"roomId"`
}

type reconnectReq struct {
	PlayerID string `json:"playerId"`
}

type playAgainReq struct {
	RoomID string `json:"roomId"`
}

// HandleFrame parses a raw `{type, data}` frame and handles it.
func (m *RoomManager) HandleFrame(connID string, frame []byte) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		log.Warn().Str("sid", connID).Err(err).Msg("unparseable frame")
		m.reject(connID, ErrBadMessage)
		return
	}
	m.Handle(connID, env)
}

// Handle routes one client action. Any failure is reported to connID only;
// the game state is left as it was.
func (m *RoomManager) Handle(connID string, env Envelope) {
	if err := m.dispatch(connID, env); err != nil {
		log.Warn().Str("sid", connID).Str("type", env.Type).Err(err).Msg("action rejected")
		m.reject(connID, err)
	}
}

func (m *RoomManager) dispatch(connID string, env Envelope) error {
	switch env.Type {
	case "create_room":
		var req createRoomReq
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		return m.CreateRoom(connID, req.PlayerName, req.Settings)
	case "join_room":
		var req joinRoomReq
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		return m.JoinRoom(connID, req.RoomCode, req.PlayerName)
	case "start_game":
		var req startGameReq
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		return m.StartGame(connID, req.RoomID, req.Settings)
	case "submit_description":
		var req submitDescriptionReq
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		if err := m.requireActor(connID, req.RoomID, req.PlayerID); err != nil {
			return err
		}
		return m.SubmitDescription(req.RoomID, req.PlayerID, req.Description)
	case "cast_vote":
		var req castVoteReq
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		if err := m.requireActor(connID, req.RoomID, req.VoterID); err != nil {
			return err
		}
		return m.CastVote(req.RoomID, req.VoterID, req.TargetID)
	case "mr_white_guess":
		var req mrWhiteGuessReq
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		if err := m.requireActor(connID, req.RoomID, req.PlayerID); err != nil {
			return err
		}
		return m.MrWhiteGuess(req.RoomID, req.PlayerID, req.Guess)
	case "exit_room":
		var req exitRoomReq
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		if err := m.requireActor(connID, req.RoomID, req.PlayerID); err != nil {
			return err
		}
		return m.ExitRoom(connID, req.RoomID, req.PlayerID)
	case "reconnect":
		var req reconnectReq
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		return m.Reconnect(connID, req.PlayerID)
	case "play_again":
		var req playAgainReq
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		return m.PlayAgain(connID, req.RoomID)
	}
	return ErrBadMessage
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return ErrBadMessage
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Join(ErrBadMessage, err)
	}
	return nil
}

func (m *RoomManager) reject(connID string, err error) {
	msg := err.Error()
	if errors.Is(err, ErrBadMessage) {
		// decoder details are not for players
		msg = ErrBadMessage.Error()
	}
	m.out.Send(connID, Message{Type: EventError, Data: errorPayload{Message: msg}})
}
