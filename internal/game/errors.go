package game

import "errors"

// Error messages are shown to players as-is.
var (
	ErrRoomNotFound      = errors.New("Room not found")
	ErrPlayerNotFound    = errors.New("Player not found")
	ErrNotHost           = errors.New("Only the host can do that")
	ErrInvalidPhase      = errors.New("Action not allowed in the current phase")
	ErrGameInProgress    = errors.New("Game already in progress")
	ErrNotEnoughPlayers  = errors.New("Need at least 3 players to start")
	ErrInvalidSettings   = errors.New("Invalid game settings")
	ErrNotYourTurn       = errors.New("It is not your turn")
	ErrAlreadySubmitted  = errors.New("Description already submitted this round")
	ErrEmptyDescription  = errors.New("Description cannot be empty")
	ErrPlayerEliminated  = errors.New("Eliminated players cannot act")
	ErrInvalidTarget     = errors.New("Invalid vote target")
	ErrNotGuessingPlayer = errors.New("Only the eliminated Mr. White can guess")
	ErrEmptyName         = errors.New("Player name is required")
	ErrNotYourPlayer     = errors.New("You can only act for your own player")
	ErrBadMessage        = errors.New("Invalid message format")
	ErrCodeExhausted     = errors.New("Could not allocate a room code")
)
