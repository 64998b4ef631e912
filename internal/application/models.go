package application

import "time"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
}

// Team identifies which side of the village a player or role fights for.
type Team string

const (
	TeamVillager Team = "villager"
	TeamWerewolf Team = "werewolf"
)

// Phase enumerates the stages a turn moves through.
type Phase int

const (
	PhaseInitial Phase = iota
	PhaseDay
	PhaseVoting
	PhaseNight
)

// String returns the lowercase phase name used on the wire.
func (p Phase) String() string {
	switch p {
	case PhaseInitial:
		return "initial"
	case PhaseDay:
		return "day"
	case PhaseVoting:
		return "voting"
	case PhaseNight:
		return "night"
	default:
		return "unknown"
	}
}

// RoleKind names a role definition in the catalog.
type RoleKind string

const (
	RoleApprenticeSeer RoleKind = "apprentice_seer"
	RoleBodyguard      RoleKind = "bodyguard"
	RoleCursed         RoleKind = "cursed"
	RoleHunter         RoleKind = "hunter"
	RoleMason          RoleKind = "mason"
	RoleMayor          RoleKind = "mayor"
	RoleMinion         RoleKind = "minion"
	RolePrince         RoleKind = "prince"
	RoleSeer           RoleKind = "seer"
	RoleSorcerer       RoleKind = "sorcerer"
	RoleTroublemaker   RoleKind = "troublemaker"
	RoleVillager       RoleKind = "villager"
	RoleWerewolf       RoleKind = "werewolf"
	RoleWitch          RoleKind = "witch"
	RoleWolfCub        RoleKind = "wolf_cub"
)

// Game represents one play-through from creation to end.
type Game struct {
	ID            string
	OwnerPlayerID *string
	WinningTeam   *Team
	CreatedAt     time.Time
	StartedAt     *time.Time
	EndedAt       *time.Time
}

// HasStarted reports whether the game roster is frozen.
func (g Game) HasStarted() bool {
	return g.StartedAt != nil && !g.StartedAt.IsZero()
}

// HasEnded reports whether the game reached its terminal state.
func (g Game) HasEnded() bool {
	return g.EndedAt != nil && !g.EndedAt.IsZero()
}

// Player is a seat in a game, linked to one user identity. Withdrawn
// players keep their record; only WithdrawnAt is stamped.
type Player struct {
	ID          string
	GameID      string
	UserID      string
	IsOwner     bool
	Team        Team
	Position    int
	CreatedAt   time.Time
	WithdrawnAt *time.Time
}

// HasLeft reports whether the player withdrew from the game.
func (p Player) HasLeft() bool {
	return p.WithdrawnAt != nil && !p.WithdrawnAt.IsZero()
}

// Role is a named capability definition. MaxCount nil means the role has
// no population cap.
type Role struct {
	ID       string
	Name     string
	Kind     RoleKind
	Team     Team
	MaxCount *int
}

// Resident is a hidden role-holder concealed inside a hut. Residents are
// created only before the game starts and are never deleted afterwards.
type Resident struct {
	ID           string
	GameID       string
	RoleID       string
	EliminatedAt *time.Time
}

// IsEliminated reports whether the resident can no longer act.
func (r Resident) IsEliminated() bool {
	return r.EliminatedAt != nil && !r.EliminatedAt.IsZero()
}

// Hut is a position slot bound 1:1 to a resident. Positions are assigned
// by shuffle at start time; until then they hold the placeholder 0. The
// elimination stamp is independent from the resident's own.
type Hut struct {
	ID           string
	GameID       string
	ResidentID   string
	Position     int
	IsVisited    bool
	EliminatedAt *time.Time
}

// Turn is one cycle of the game. Exactly one turn per game is active at
// any time after start; an ended turn is immutable history.
type Turn struct {
	ID                string
	GameID            string
	Number            int
	Phase             Phase
	IsActive          bool
	GrandInquisitorID string
	CurrentPlayerID   string
	CreatedAt         time.Time
}

// Action is one resident's single use of its role ability within a turn.
type Action struct {
	ID         string
	TurnID     string
	PlayerID   string
	ResidentID string
	CreatedAt  time.Time
}

// ActionTarget references either a player or a hut targeted by an action.
type ActionTarget struct {
	ID       string
	ActionID string
	PlayerID *string
	HutID    *string
}

// Vote is a ballot cast by a player during a turn. A nil hut records the
// abstain/self bookkeeping entry. Votes are rescinded by stamping
// RemovedAt, never deleted.
type Vote struct {
	ID        string
	TurnID    string
	PlayerID  string
	HutID     *string
	CreatedAt time.Time
	RemovedAt *time.Time
}

// IsRemoved reports whether the vote was rescinded.
func (v Vote) IsRemoved() bool {
	return v.RemovedAt != nil && !v.RemovedAt.IsZero()
}

// ActionTargetRef identifies a target supplied by the caller of a role
// action. Exactly one of PlayerID or HutID is set.
type ActionTargetRef struct {
	PlayerID string
	HutID    string
}

// PerformActionParams wraps the data required to resolve a role action.
type PerformActionParams struct {
	Principal  Principal
	GameID     string
	RoleKind   RoleKind
	ResidentID string
	Targets    []ActionTargetRef
}

// ActionResult carries the outcome of a resolved role action. Revealed is
// set only by roles whose effect returns information to the caller (the
// seer's vision).
type ActionResult struct {
	Action   Action
	Revealed *Resident
}

// User represents an account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserInput captures caller provided account attributes.
type UserInput struct {
	Email       string
	DisplayName string
	Password    string
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
	Disabled     bool
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication.
type AuthenticateResult struct {
	User    User
	Session Session
}
