package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/village-api/internal/application"
)

var (
	errBadRequestBody      = errors.New("the request body could not be parsed")
	errInvalidVoteID       = errors.New("a vote ID is required")
	errInvalidRoleKind     = errors.New("the requested role does not exist")
	errMissingSessionToken = errors.New("a session token is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError translates application errors into the API's error
// envelope. Rule rejections carry their stable engine code so clients can
// branch without parsing messages.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	if code := application.EngineCode(err); code != "" {
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			ErrorCode: code,
			Message:   engineMessage(err),
		})
		return
	}

	switch {
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "The email address or password is incorrect.",
		})
	case errors.Is(err, application.ErrSessionExpired):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "The session has expired. Please sign in again.",
		})
	case errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_REVOKED",
			Message:   "The session has been revoked. Please sign in again.",
		})
	case errors.Is(err, application.ErrAccountDisabled):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_ACCOUNT_DISABLED",
			Message:   "This account has been disabled.",
		})
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "You are not allowed to perform this operation.",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "The requested resource was not found."})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "The resource already exists."})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "The request contains invalid fields.",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "An internal server error occurred."})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func engineMessage(err error) string {
	switch {
	case errors.Is(err, application.ErrGameAlreadyStarted):
		return "The game has already started."
	case errors.Is(err, application.ErrGameNotStarted):
		return "The game has not started yet."
	case errors.Is(err, application.ErrGameAlreadyEnded):
		return "The game has already ended."
	case errors.Is(err, application.ErrMaxPlayersReached):
		return "The game is full."
	case errors.Is(err, application.ErrInsufficientPlayers):
		return "Not enough players to start the game."
	case errors.Is(err, application.ErrIncorrectResidentCount):
		return "The village must hold exactly twelve residents before the game can start."
	case errors.Is(err, application.ErrMaxResidentForRoleReached):
		return "No more residents of this role can be added."
	case errors.Is(err, application.ErrPlayerAlreadyJoined):
		return "You have already joined this game."
	case errors.Is(err, application.ErrPlayerAlreadyLeft):
		return "You have already left this game."
	case errors.Is(err, application.ErrTurnAlreadyEnded):
		return "The turn has already ended."
	case errors.Is(err, application.ErrTurnPhaseExhausted):
		return "The turn has no further phase."
	case errors.Is(err, application.ErrInvalidActor):
		return "This resident cannot perform that action."
	case errors.Is(err, application.ErrInvalidTarget):
		return "The action targets are not valid."
	case errors.Is(err, application.ErrActorMultipleAction):
		return "You have already acted this turn."
	case errors.Is(err, application.ErrActionAlreadyUsed):
		return "This resident has already acted this turn."
	default:
		return "The request violates the game rules."
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
