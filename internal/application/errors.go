package application

import "errors"

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a create collides with an existing record.
	ErrAlreadyExists = errors.New("application: already exists")

	// ErrGameAlreadyStarted rejects roster mutation once the game has started.
	ErrGameAlreadyStarted = errors.New("application: game has already started")
	// ErrGameNotStarted rejects turn and action operations before the game starts.
	ErrGameNotStarted = errors.New("application: game has not started")
	// ErrGameAlreadyEnded rejects any mutation of an ended game.
	ErrGameAlreadyEnded = errors.New("application: game has already ended")
	// ErrMaxPlayersReached rejects joins beyond the player cap.
	ErrMaxPlayersReached = errors.New("application: max number of players reached")
	// ErrInsufficientPlayers rejects starting below the player minimum.
	ErrInsufficientPlayers = errors.New("application: not enough players to start")
	// ErrIncorrectResidentCount rejects starting with a board that is not fully populated.
	ErrIncorrectResidentCount = errors.New("application: incorrect resident count")
	// ErrMaxResidentForRoleReached rejects residents beyond a role's population cap.
	ErrMaxResidentForRoleReached = errors.New("application: max residents for role reached")

	// ErrPlayerAlreadyJoined rejects a second join by a seated player.
	ErrPlayerAlreadyJoined = errors.New("application: player has already joined")
	// ErrPlayerAlreadyLeft rejects leaving twice.
	ErrPlayerAlreadyLeft = errors.New("application: player has already left")

	// ErrTurnAlreadyEnded rejects ending a turn that is no longer active.
	ErrTurnAlreadyEnded = errors.New("application: turn has already ended")
	// ErrTurnPhaseExhausted rejects advancing a turn past its final phase.
	ErrTurnPhaseExhausted = errors.New("application: turn has no further phase")

	// ErrInvalidActor rejects actions by eliminated residents or mismatched roles.
	ErrInvalidActor = errors.New("application: invalid actor")
	// ErrInvalidTarget rejects actions whose targets fail role-specific legality.
	ErrInvalidTarget = errors.New("application: invalid target")
	// ErrActorMultipleAction rejects a player backing more than one action per turn.
	ErrActorMultipleAction = errors.New("application: player already acted this turn")
	// ErrActionAlreadyUsed rejects a resident acting more than once per turn.
	ErrActionAlreadyUsed = errors.New("application: resident action already used this turn")

	// ErrInvalidCredentials is returned for failed authentication attempts.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when the account cannot authenticate.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrSessionExpired is returned when a session token is past its validity window.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token was revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// EngineCode maps engine rejections to the stable machine codes surfaced
// to API callers. Unknown errors map to the empty string.
func EngineCode(err error) string {
	switch {
	case errors.Is(err, ErrGameAlreadyStarted):
		return "GAME_ALREADY_STARTED"
	case errors.Is(err, ErrGameNotStarted):
		return "GAME_NOT_YET_STARTED"
	case errors.Is(err, ErrGameAlreadyEnded):
		return "GAME_ALREADY_ENDED"
	case errors.Is(err, ErrMaxPlayersReached):
		return "GAME_MAX_PLAYERS_REACHED"
	case errors.Is(err, ErrInsufficientPlayers):
		return "GAME_INSUFFICIENT_PLAYERS"
	case errors.Is(err, ErrIncorrectResidentCount):
		return "GAME_INCORRECT_RESIDENT_COUNT"
	case errors.Is(err, ErrMaxResidentForRoleReached):
		return "GAME_MAX_RESIDENT_FOR_ROLE_REACHED"
	case errors.Is(err, ErrPlayerAlreadyJoined):
		return "PLAYER_ALREADY_JOINED"
	case errors.Is(err, ErrPlayerAlreadyLeft):
		return "PLAYER_ALREADY_LEFT"
	case errors.Is(err, ErrTurnAlreadyEnded):
		return "TURN_ALREADY_ENDED"
	case errors.Is(err, ErrTurnPhaseExhausted):
		return "TURN_PHASE_EXHAUSTED"
	case errors.Is(err, ErrInvalidActor):
		return "ACTION_INVALID_ACTOR"
	case errors.Is(err, ErrInvalidTarget):
		return "ACTION_INVALID_TARGET"
	case errors.Is(err, ErrActorMultipleAction):
		return "ACTION_ACTOR_MULTIPLE_ACTION"
	case errors.Is(err, ErrActionAlreadyUsed):
		return "ACTION_ALREADY_USED"
	default:
		return ""
	}
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
