package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/example/village-api/internal/application"
)

type turnService interface {
	ActiveTurn(ctx context.Context, gameID string) (application.Turn, error)
	EndTurn(ctx context.Context, turnID string) (application.Turn, error)
	AdvancePhase(ctx context.Context, turnID string) (application.Turn, error)
}

type seatResolver interface {
	GetPlayerByUser(ctx context.Context, gameID, userID string) (application.Player, error)
}

type TurnHandler struct {
	service   turnService
	seats     seatResolver
	responder responder
	logger    *slog.Logger
}

func NewTurnHandler(service turnService, seats seatResolver, logger *slog.Logger) *TurnHandler {
	base := defaultLogger(logger)
	return &TurnHandler{service: service, seats: seats, responder: newResponder(base), logger: base}
}

func (h *TurnHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "TurnHandler", operation, attrs...)
}

// requireGrandInquisitor resolves the active turn and rejects callers who
// do not hold the grand inquisitor seat this turn.
func (h *TurnHandler) requireGrandInquisitor(ctx context.Context, gameID string, principal application.Principal) (application.Turn, error) {
	turn, err := h.service.ActiveTurn(ctx, gameID)
	if err != nil {
		return application.Turn{}, err
	}

	player, err := h.seats.GetPlayerByUser(ctx, gameID, principal.UserID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			return application.Turn{}, application.ErrUnauthorized
		}
		return application.Turn{}, err
	}
	if player.ID != turn.GrandInquisitorID {
		return application.Turn{}, application.ErrUnauthorized
	}
	return turn, nil
}

// Current returns the game's active turn.
func (h *TurnHandler) Current(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	gameID := mux.Vars(r)["game_id"]
	logger := h.log(r.Context(), "Current", "game_id", gameID)

	turn, err := h.service.ActiveTurn(r.Context(), gameID)
	if err != nil {
		logger.ErrorContext(r.Context(), "active turn lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, turnResponse{Turn: toTurnDTO(turn)})
}

// End closes the active turn and opens the next. Only the current grand
// inquisitor may end a turn.
func (h *TurnHandler) End(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil || h.seats == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	gameID := mux.Vars(r)["game_id"]
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "End", "game_id", gameID, "principal_id", principal.UserID)

	turn, err := h.requireGrandInquisitor(r.Context(), gameID, principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "end turn rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	next, err := h.service.EndTurn(r.Context(), turn.ID)
	if err != nil {
		logger.ErrorContext(r.Context(), "end turn failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("ended_turn_id", turn.ID, "next_turn_id", next.ID).InfoContext(r.Context(), "turn ended")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, turnResponse{Turn: toTurnDTO(next)})
}

// AdvancePhase moves the active turn to its next phase. Only the current
// grand inquisitor may advance the phase.
func (h *TurnHandler) AdvancePhase(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil || h.seats == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	gameID := mux.Vars(r)["game_id"]
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "AdvancePhase", "game_id", gameID, "principal_id", principal.UserID)

	turn, err := h.requireGrandInquisitor(r.Context(), gameID, principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "phase advance rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	advanced, err := h.service.AdvancePhase(r.Context(), turn.ID)
	if err != nil {
		logger.ErrorContext(r.Context(), "phase advance failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("turn_id", advanced.ID, "phase", advanced.Phase.String()).InfoContext(r.Context(), "phase advanced")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, turnResponse{Turn: toTurnDTO(advanced)})
}
