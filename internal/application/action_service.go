package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/village-api/internal/persistence"
)

// ActionRepository captures the persistence operations for the action
// ledger. CreateAction is the atomic enforcement point for the
// one-action-per-player and one-action-per-resident invariants: the
// storage layer holds unique indexes on (turn, player) and (turn,
// resident) and reports collisions as persistence.ErrDuplicate.
type ActionRepository interface {
	CreateAction(ctx context.Context, action Action) (Action, error)
	GetTurnActionByPlayer(ctx context.Context, turnID, playerID string) (Action, error)
	GetTurnActionByResident(ctx context.Context, turnID, residentID string) (Action, error)
	CreateActionTarget(ctx context.Context, target ActionTarget) (ActionTarget, error)
}

// VoteRepository captures the persistence operations for the vote ledger.
type VoteRepository interface {
	CreateVote(ctx context.Context, vote Vote) (Vote, error)
	GetVote(ctx context.Context, id string) (Vote, error)
	UpdateVote(ctx context.Context, vote Vote) (Vote, error)
	ListTurnVotes(ctx context.Context, turnID string) ([]Vote, error)
}

// actionEnv bundles the state a role handler validates and mutates: the
// active turn, the acting seat and resident, the resident's role, and the
// resolved hut targets.
type actionEnv struct {
	service  *ActionService
	turn     Turn
	player   Player
	resident Resident
	role     Role
	hutRefs  []Hut
	refs     []ActionTargetRef
}

// roleHandler is the capability interface every resolvable role
// implements: target validation first, effect application only after the
// action record exists.
type roleHandler interface {
	validate(ctx context.Context, env *actionEnv) error
	apply(ctx context.Context, env *actionEnv, action Action) (*Resident, error)
}

// ActionService resolves role actions: it applies the shared precondition
// gate, dispatches to the role-specific variant, and appends to the vote
// ledger on the roles that vote.
type ActionService struct {
	turns       TurnRepository
	players     PlayerRepository
	residents   ResidentRepository
	roles       RoleRepository
	huts        HutRepository
	actions     ActionRepository
	votes       VoteRepository
	idGenerator func() string
	now         func() time.Time
	handlers    map[RoleKind]roleHandler
	logger      *slog.Logger
}

// NewActionService constructs an action service with the provided dependencies.
func NewActionService(turns TurnRepository, players PlayerRepository, residents ResidentRepository, roles RoleRepository, huts HutRepository, actions ActionRepository, votes VoteRepository, idGenerator func() string, now func() time.Time) *ActionService {
	return NewActionServiceWithLogger(turns, players, residents, roles, huts, actions, votes, idGenerator, now, nil)
}

// NewActionServiceWithLogger constructs an action service with a specified logger.
func NewActionServiceWithLogger(turns TurnRepository, players PlayerRepository, residents ResidentRepository, roles RoleRepository, huts HutRepository, actions ActionRepository, votes VoteRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ActionService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ActionService{
		turns:       turns,
		players:     players,
		residents:   residents,
		roles:       roles,
		huts:        huts,
		actions:     actions,
		votes:       votes,
		idGenerator: idGenerator,
		now:         now,
		handlers: map[RoleKind]roleHandler{
			RoleSeer:     seerHandler{},
			RoleVillager: villagerHandler{},
		},
		logger: defaultLogger(logger),
	}
}

func (s *ActionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ActionService", operation, attrs...)
}

// PerformAction resolves one role action for the game's active turn. All
// failures are rejections without partial effects: the gate and the
// role-specific validation both run before any record is written.
func (s *ActionService) PerformAction(ctx context.Context, params PerformActionParams) (result ActionResult, err error) {
	if s == nil {
		err = fmt.Errorf("ActionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "PerformAction",
		"principal_id", params.Principal.UserID,
		"game_id", params.GameID,
		"role", string(params.RoleKind),
		"resident_id", params.ResidentID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to perform action", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("action_id", result.Action.ID).InfoContext(ctx, "action performed")
	}()

	handler, ok := s.handlers[params.RoleKind]
	if !ok {
		err = ErrInvalidActor
		return
	}

	var env *actionEnv
	env, err = s.buildEnv(ctx, params)
	if err != nil {
		return
	}

	// Shared gate: eliminated residents cannot act, and both the player
	// and the resident get one action per turn.
	if env.resident.IsEliminated() {
		err = ErrInvalidActor
		return
	}
	if err = s.checkActionGate(ctx, env.turn.ID, env.player.ID, env.resident.ID); err != nil {
		return
	}

	if err = handler.validate(ctx, env); err != nil {
		return
	}

	action := Action{
		ID:         s.idGenerator(),
		TurnID:     env.turn.ID,
		PlayerID:   env.player.ID,
		ResidentID: env.resident.ID,
		CreatedAt:  s.now(),
	}
	action, err = s.actions.CreateAction(ctx, action)
	if err != nil {
		// A concurrent attempt won the insert race; re-read to report
		// which invariant tripped.
		if errors.Is(err, persistence.ErrDuplicate) {
			err = s.classifyGateCollision(ctx, env.turn.ID, env.player.ID)
			return
		}
		err = mapRepoError(err)
		return
	}

	var revealed *Resident
	revealed, err = handler.apply(ctx, env, action)
	if err != nil {
		return
	}

	result = ActionResult{Action: action, Revealed: revealed}
	return
}

// buildEnv resolves and authorizes the moving parts of an action request.
func (s *ActionService) buildEnv(ctx context.Context, params PerformActionParams) (*actionEnv, error) {
	turn, err := s.turns.GetActiveTurn(ctx, params.GameID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrGameNotStarted
		}
		return nil, mapRepoError(err)
	}

	player, err := s.players.GetPlayerByUser(ctx, params.GameID, params.Principal.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, mapRepoError(err)
	}
	if player.HasLeft() {
		return nil, ErrUnauthorized
	}

	resident, err := s.residents.GetResident(ctx, params.ResidentID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrInvalidActor
		}
		return nil, mapRepoError(err)
	}
	if resident.GameID != params.GameID {
		return nil, ErrInvalidActor
	}

	role, err := s.roles.GetRoleByKind(ctx, params.RoleKind)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrInvalidActor
		}
		return nil, mapRepoError(err)
	}

	env := &actionEnv{
		service:  s,
		turn:     turn,
		player:   player,
		resident: resident,
		role:     role,
		refs:     params.Targets,
	}

	for _, ref := range params.Targets {
		if ref.HutID == "" {
			continue
		}
		hut, err := s.huts.GetHut(ctx, ref.HutID)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				return nil, ErrInvalidTarget
			}
			return nil, mapRepoError(err)
		}
		env.hutRefs = append(env.hutRefs, hut)
	}

	return env, nil
}

// checkActionGate enforces the per-turn uniqueness invariants ahead of
// the insert. The unique indexes behind CreateAction backstop races.
func (s *ActionService) checkActionGate(ctx context.Context, turnID, playerID, residentID string) error {
	if _, err := s.actions.GetTurnActionByPlayer(ctx, turnID, playerID); err == nil {
		return ErrActorMultipleAction
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return mapRepoError(err)
	}

	if _, err := s.actions.GetTurnActionByResident(ctx, turnID, residentID); err == nil {
		return ErrActionAlreadyUsed
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return mapRepoError(err)
	}

	return nil
}

// classifyGateCollision decides which uniqueness invariant a lost insert
// race tripped.
func (s *ActionService) classifyGateCollision(ctx context.Context, turnID, playerID string) error {
	if _, err := s.actions.GetTurnActionByPlayer(ctx, turnID, playerID); err == nil {
		return ErrActorMultipleAction
	}
	return ErrActionAlreadyUsed
}

// RescindVote stamps a vote's removal without deleting it from the ledger.
func (s *ActionService) RescindVote(ctx context.Context, principal Principal, voteID string) (err error) {
	if s == nil {
		return fmt.Errorf("ActionService is nil")
	}

	logger := s.loggerWith(ctx, "RescindVote",
		"principal_id", principal.UserID,
		"vote_id", voteID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to rescind vote", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "vote rescinded")
	}()

	var vote Vote
	vote, err = s.votes.GetVote(ctx, voteID)
	if err != nil {
		return mapRepoError(err)
	}
	if vote.IsRemoved() {
		return ErrNotFound
	}

	var voter Player
	voter, err = s.players.GetPlayer(ctx, vote.PlayerID)
	if err != nil {
		return mapRepoError(err)
	}
	if voter.UserID != principal.UserID {
		return ErrUnauthorized
	}

	removed := s.now()
	vote.RemovedAt = &removed
	if _, err = s.votes.UpdateVote(ctx, vote); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// ListTurnVotes returns the ballots recorded for a turn, rescinded ones
// included. Tallying them into an outcome is not the engine's concern.
func (s *ActionService) ListTurnVotes(ctx context.Context, turnID string) ([]Vote, error) {
	if s == nil {
		return nil, fmt.Errorf("ActionService is nil")
	}
	votes, err := s.votes.ListTurnVotes(ctx, turnID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return votes, nil
}

// seerHandler reveals the resident concealed inside an unvisited hut.
type seerHandler struct{}

func (seerHandler) validate(ctx context.Context, env *actionEnv) error {
	// The dispatcher routes by requested kind; the resident must actually
	// hold the seer role.
	if env.role.Kind != RoleSeer || env.resident.RoleID != env.role.ID {
		return ErrInvalidActor
	}

	if len(env.refs) != 1 || env.refs[0].HutID == "" || len(env.hutRefs) != 1 {
		return ErrInvalidTarget
	}

	hut := env.hutRefs[0]
	if hut.GameID != env.turn.GameID {
		return ErrInvalidTarget
	}
	if hut.IsVisited {
		return ErrInvalidTarget
	}
	return nil
}

func (seerHandler) apply(ctx context.Context, env *actionEnv, action Action) (*Resident, error) {
	s := env.service
	hut := env.hutRefs[0]

	target := ActionTarget{
		ID:       s.idGenerator(),
		ActionID: action.ID,
		HutID:    &hut.ID,
	}
	if _, err := s.actions.CreateActionTarget(ctx, target); err != nil {
		return nil, mapRepoError(err)
	}

	hut.IsVisited = true
	if _, err := s.huts.UpdateHut(ctx, hut); err != nil {
		return nil, mapRepoError(err)
	}

	revealed, err := s.residents.GetResident(ctx, hut.ResidentID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return &revealed, nil
}

// villagerHandler is the baseline vote action: one hut-less bookkeeping
// ballot plus one naming the targeted hut.
type villagerHandler struct{}

func (villagerHandler) validate(ctx context.Context, env *actionEnv) error {
	if len(env.refs) != 1 || env.refs[0].HutID == "" || len(env.hutRefs) != 1 {
		return ErrInvalidTarget
	}
	if env.hutRefs[0].GameID != env.turn.GameID {
		return ErrInvalidTarget
	}
	return nil
}

func (villagerHandler) apply(ctx context.Context, env *actionEnv, action Action) (*Resident, error) {
	s := env.service
	hut := env.hutRefs[0]
	now := s.now()

	abstain := Vote{
		ID:        s.idGenerator(),
		TurnID:    env.turn.ID,
		PlayerID:  env.player.ID,
		CreatedAt: now,
	}
	if _, err := s.votes.CreateVote(ctx, abstain); err != nil {
		return nil, mapRepoError(err)
	}

	ballot := Vote{
		ID:        s.idGenerator(),
		TurnID:    env.turn.ID,
		PlayerID:  env.player.ID,
		HutID:     &hut.ID,
		CreatedAt: now,
	}
	if _, err := s.votes.CreateVote(ctx, ballot); err != nil {
		return nil, mapRepoError(err)
	}

	return nil, nil
}
