package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/example/village-api/internal/application"
)

type gameService interface {
	CreateGame(ctx context.Context, principal application.Principal) (application.Game, application.Player, error)
	GetGame(ctx context.Context, id string) (application.Game, error)
	GetPlayerByUser(ctx context.Context, gameID, userID string) (application.Player, error)
	JoinGame(ctx context.Context, principal application.Principal, gameID string) (application.Player, error)
	LeaveGame(ctx context.Context, principal application.Principal, gameID string) error
	AddResident(ctx context.Context, gameID string, kind application.RoleKind) (application.Resident, error)
	StartGame(ctx context.Context, gameID string) (application.Turn, error)
	EndGame(ctx context.Context, gameID string) error
}

type GameHandler struct {
	service       gameService
	inviteBaseURL string
	responder     responder
	logger        *slog.Logger
}

// NewGameHandler wires a game handler. inviteBaseURL is the externally
// reachable base URL embedded in invite QR codes.
func NewGameHandler(service gameService, inviteBaseURL string, logger *slog.Logger) *GameHandler {
	base := defaultLogger(logger)
	return &GameHandler{
		service:       service,
		inviteBaseURL: strings.TrimRight(inviteBaseURL, "/"),
		responder:     newResponder(base),
		logger:        base,
	}
}

func (h *GameHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "GameHandler", operation, attrs...)
}

// requireOwner resolves the principal's seat and rejects non-owners.
func (h *GameHandler) requireOwner(ctx context.Context, gameID string, principal application.Principal) error {
	player, err := h.service.GetPlayerByUser(ctx, gameID, principal.UserID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			return application.ErrUnauthorized
		}
		return err
	}
	if !player.IsOwner {
		return application.ErrUnauthorized
	}
	return nil
}

// Create opens a new game owned by the caller.
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	game, owner, err := h.service.CreateGame(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "game creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("game_id", game.ID).InfoContext(r.Context(), "game created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, gameResponse{
		Game:   toGameDTO(game),
		Player: toPlayerDTOPtr(owner),
	})
}

// Get returns the game identified by the path.
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	gameID := mux.Vars(r)["game_id"]
	logger := h.log(r.Context(), "Get", "game_id", gameID)

	game, err := h.service.GetGame(r.Context(), gameID)
	if err != nil {
		logger.ErrorContext(r.Context(), "game lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, gameResponse{Game: toGameDTO(game)})
}

// Join seats the caller in the game.
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	gameID := mux.Vars(r)["game_id"]
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Join", "game_id", gameID, "principal_id", principal.UserID)

	player, err := h.service.JoinGame(r.Context(), principal, gameID)
	if err != nil {
		logger.ErrorContext(r.Context(), "join failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("player_id", player.ID, "position", player.Position).InfoContext(r.Context(), "player joined")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, playerResponse{Player: toPlayerDTO(player)})
}

// Leave withdraws the caller's seat.
func (h *GameHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	gameID := mux.Vars(r)["game_id"]
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Leave", "game_id", gameID, "principal_id", principal.UserID)

	if err := h.service.LeaveGame(r.Context(), principal, gameID); err != nil {
		logger.ErrorContext(r.Context(), "leave failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "player left")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// AddResident places a hidden role-holder on the board. Owner only.
func (h *GameHandler) AddResident(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	gameID := mux.Vars(r)["game_id"]
	principal, _ := PrincipalFromContext(r.Context())

	var req addResidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "AddResident", "game_id", gameID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode resident request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	kind := application.RoleKind(strings.TrimSpace(strings.ToLower(req.Role)))
	logger := h.log(r.Context(), "AddResident", "game_id", gameID, "role", string(kind))

	if err := h.requireOwner(r.Context(), gameID, principal); err != nil {
		logger.ErrorContext(r.Context(), "resident placement rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resident, err := h.service.AddResident(r.Context(), gameID, kind)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			// The only lookup that can miss here is the role kind.
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoleKind)
			return
		}
		logger.ErrorContext(r.Context(), "resident placement failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("resident_id", resident.ID).InfoContext(r.Context(), "resident added")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, residentResponse{Resident: toResidentDTO(resident)})
}

// Start freezes the roster and opens turn 1. Owner only.
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	gameID := mux.Vars(r)["game_id"]
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Start", "game_id", gameID, "principal_id", principal.UserID)

	if err := h.requireOwner(r.Context(), gameID, principal); err != nil {
		logger.ErrorContext(r.Context(), "start rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	turn, err := h.service.StartGame(r.Context(), gameID)
	if err != nil {
		logger.ErrorContext(r.Context(), "start failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("turn_id", turn.ID).InfoContext(r.Context(), "game started")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, turnResponse{Turn: toTurnDTO(turn)})
}

// Delete ends the game. Owner only.
func (h *GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	gameID := mux.Vars(r)["game_id"]
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "game_id", gameID, "principal_id", principal.UserID)

	if err := h.requireOwner(r.Context(), gameID, principal); err != nil {
		logger.ErrorContext(r.Context(), "end rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if err := h.service.EndGame(r.Context(), gameID); err != nil {
		logger.ErrorContext(r.Context(), "end failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "game ended")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// InvitePNG renders a QR code pointing at the game so players can join
// from a phone.
func (h *GameHandler) InvitePNG(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	gameID := mux.Vars(r)["game_id"]
	logger := h.log(r.Context(), "InvitePNG", "game_id", gameID)

	if _, err := h.service.GetGame(r.Context(), gameID); err != nil {
		logger.ErrorContext(r.Context(), "invite lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	size := 256
	if raw := r.URL.Query().Get("size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 64 && parsed <= 1024 {
			size = parsed
		}
	}

	png, err := qrcode.Encode(h.inviteBaseURL+"/games/"+gameID, qrcode.Medium, size)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to render invite code", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		logger.ErrorContext(r.Context(), "failed to write invite code", "error", err)
	}
}

type addResidentRequest struct {
	Role string `json:"role"`
}

type gameResponse struct {
	Game   gameDTO    `json:"game"`
	Player *playerDTO `json:"player,omitempty"`
}

type playerResponse struct {
	Player playerDTO `json:"player"`
}

type residentResponse struct {
	Resident residentDTO `json:"resident"`
}

type gameDTO struct {
	ID            string  `json:"id"`
	OwnerPlayerID *string `json:"owner_player_id,omitempty"`
	WinningTeam   *string `json:"winning_team,omitempty"`
	CreatedAt     string  `json:"created_at"`
	StartedAt     *string `json:"started_at,omitempty"`
	EndedAt       *string `json:"ended_at,omitempty"`
}

type playerDTO struct {
	ID          string  `json:"id"`
	GameID      string  `json:"game_id"`
	UserID      string  `json:"user_id"`
	IsOwner     bool    `json:"is_owner"`
	Team        string  `json:"team"`
	Position    int     `json:"position"`
	CreatedAt   string  `json:"created_at"`
	WithdrawnAt *string `json:"withdrawn_at,omitempty"`
}

type residentDTO struct {
	ID           string  `json:"id"`
	GameID       string  `json:"game_id"`
	RoleID       string  `json:"role_id"`
	EliminatedAt *string `json:"eliminated_at,omitempty"`
}

type turnDTO struct {
	ID                string `json:"id"`
	GameID            string `json:"game_id"`
	Number            int    `json:"number"`
	Phase             string `json:"phase"`
	IsActive          bool   `json:"is_active"`
	GrandInquisitorID string `json:"grand_inquisitor_id"`
	CurrentPlayerID   string `json:"current_player_id,omitempty"`
	CreatedAt         string `json:"created_at"`
}

type turnResponse struct {
	Turn turnDTO `json:"turn"`
}

func toGameDTO(game application.Game) gameDTO {
	dto := gameDTO{
		ID:            game.ID,
		OwnerPlayerID: game.OwnerPlayerID,
		CreatedAt:     game.CreatedAt.UTC().Format(time.RFC3339Nano),
		StartedAt:     formatTimePtr(game.StartedAt),
		EndedAt:       formatTimePtr(game.EndedAt),
	}
	if game.WinningTeam != nil {
		team := string(*game.WinningTeam)
		dto.WinningTeam = &team
	}
	return dto
}

func toPlayerDTO(player application.Player) playerDTO {
	return playerDTO{
		ID:          player.ID,
		GameID:      player.GameID,
		UserID:      player.UserID,
		IsOwner:     player.IsOwner,
		Team:        string(player.Team),
		Position:    player.Position,
		CreatedAt:   player.CreatedAt.UTC().Format(time.RFC3339Nano),
		WithdrawnAt: formatTimePtr(player.WithdrawnAt),
	}
}

func toPlayerDTOPtr(player application.Player) *playerDTO {
	dto := toPlayerDTO(player)
	return &dto
}

func toResidentDTO(resident application.Resident) residentDTO {
	return residentDTO{
		ID:           resident.ID,
		GameID:       resident.GameID,
		RoleID:       resident.RoleID,
		EliminatedAt: formatTimePtr(resident.EliminatedAt),
	}
}

func toTurnDTO(turn application.Turn) turnDTO {
	return turnDTO{
		ID:                turn.ID,
		GameID:            turn.GameID,
		Number:            turn.Number,
		Phase:             turn.Phase.String(),
		IsActive:          turn.IsActive,
		GrandInquisitorID: turn.GrandInquisitorID,
		CurrentPlayerID:   turn.CurrentPlayerID,
		CreatedAt:         turn.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	formatted := t.UTC().Format(time.RFC3339Nano)
	return &formatted
}
