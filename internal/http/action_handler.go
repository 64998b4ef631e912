package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/village-api/internal/application"
)

type actionService interface {
	PerformAction(ctx context.Context, params application.PerformActionParams) (application.ActionResult, error)
	RescindVote(ctx context.Context, principal application.Principal, voteID string) error
	ListTurnVotes(ctx context.Context, turnID string) ([]application.Vote, error)
}

type activeTurnResolver interface {
	ActiveTurn(ctx context.Context, gameID string) (application.Turn, error)
}

type ActionHandler struct {
	service   actionService
	turns     activeTurnResolver
	responder responder
	logger    *slog.Logger
}

func NewActionHandler(service actionService, turns activeTurnResolver, logger *slog.Logger) *ActionHandler {
	base := defaultLogger(logger)
	return &ActionHandler{service: service, turns: turns, responder: newResponder(base), logger: base}
}

func (h *ActionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ActionHandler", operation, attrs...)
}

// Perform resolves a role action against the game's active turn.
func (h *ActionHandler) Perform(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	vars := mux.Vars(r)
	gameID := vars["game_id"]
	kind := application.RoleKind(strings.TrimSpace(strings.ToLower(vars["role"])))
	principal, _ := PrincipalFromContext(r.Context())

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Perform", "game_id", gameID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode action request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Perform",
		"game_id", gameID,
		"role", string(kind),
		"principal_id", principal.UserID,
	)

	targets := make([]application.ActionTargetRef, 0, len(req.Targets))
	for _, target := range req.Targets {
		targets = append(targets, application.ActionTargetRef{
			PlayerID: strings.TrimSpace(target.PlayerID),
			HutID:    strings.TrimSpace(target.HutID),
		})
	}

	result, err := h.service.PerformAction(r.Context(), application.PerformActionParams{
		Principal:  principal,
		GameID:     gameID,
		RoleKind:   kind,
		ResidentID: strings.TrimSpace(req.ResidentID),
		Targets:    targets,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "action failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("action_id", result.Action.ID).InfoContext(r.Context(), "action resolved")

	resp := actionResponse{Action: toActionDTO(result.Action)}
	if result.Revealed != nil {
		dto := toResidentDTO(*result.Revealed)
		resp.Revealed = &dto
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, resp)
}

// ListVotes returns every ballot of the active turn, rescinded ones included.
func (h *ActionHandler) ListVotes(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil || h.turns == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	gameID := mux.Vars(r)["game_id"]
	logger := h.log(r.Context(), "ListVotes", "game_id", gameID)

	turn, err := h.turns.ActiveTurn(r.Context(), gameID)
	if err != nil {
		logger.ErrorContext(r.Context(), "active turn lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	votes, err := h.service.ListTurnVotes(r.Context(), turn.ID)
	if err != nil {
		logger.ErrorContext(r.Context(), "vote listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(votes)).InfoContext(r.Context(), "votes listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listVotesResponse{Votes: toVoteDTOs(votes)})
}

// RescindVote withdraws one of the caller's own ballots.
func (h *ActionHandler) RescindVote(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	voteID := strings.TrimSpace(mux.Vars(r)["vote_id"])
	if voteID == "" {
		h.log(r.Context(), "RescindVote", "error_kind", "bad_request").ErrorContext(r.Context(), "missing vote id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidVoteID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "RescindVote", "vote_id", voteID, "principal_id", principal.UserID)

	if err := h.service.RescindVote(r.Context(), principal, voteID); err != nil {
		logger.ErrorContext(r.Context(), "vote rescind failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "vote rescinded")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type actionRequest struct {
	ResidentID string             `json:"resident_id"`
	Targets    []actionTargetBody `json:"targets"`
}

type actionTargetBody struct {
	PlayerID string `json:"player_id,omitempty"`
	HutID    string `json:"hut_id,omitempty"`
}

type actionResponse struct {
	Action   actionDTO    `json:"action"`
	Revealed *residentDTO `json:"revealed,omitempty"`
}

type actionDTO struct {
	ID         string `json:"id"`
	TurnID     string `json:"turn_id"`
	PlayerID   string `json:"player_id"`
	ResidentID string `json:"resident_id"`
	CreatedAt  string `json:"created_at"`
}

type listVotesResponse struct {
	Votes []voteDTO `json:"votes"`
}

type voteDTO struct {
	ID        string  `json:"id"`
	TurnID    string  `json:"turn_id"`
	PlayerID  string  `json:"player_id"`
	HutID     *string `json:"hut_id,omitempty"`
	CreatedAt string  `json:"created_at"`
	RemovedAt *string `json:"removed_at,omitempty"`
}

func toActionDTO(action application.Action) actionDTO {
	return actionDTO{
		ID:         action.ID,
		TurnID:     action.TurnID,
		PlayerID:   action.PlayerID,
		ResidentID: action.ResidentID,
		CreatedAt:  action.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toVoteDTOs(votes []application.Vote) []voteDTO {
	if len(votes) == 0 {
		return nil
	}
	out := make([]voteDTO, 0, len(votes))
	for _, vote := range votes {
		out = append(out, voteDTO{
			ID:        vote.ID,
			TurnID:    vote.TurnID,
			PlayerID:  vote.PlayerID,
			HutID:     vote.HutID,
			CreatedAt: vote.CreatedAt.UTC().Format(time.RFC3339Nano),
			RemovedAt: formatTimePtr(vote.RemovedAt),
		})
	}
	return out
}
