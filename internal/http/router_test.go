package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/village-api/internal/application"
)

var testTime = time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC)

// The fake services default every unconfigured operation to ErrNotFound
// so routing mistakes surface as 404s instead of nil panics.

type fakeGameService struct {
	createGame      func(ctx context.Context, principal application.Principal) (application.Game, application.Player, error)
	getGame         func(ctx context.Context, id string) (application.Game, error)
	getPlayerByUser func(ctx context.Context, gameID, userID string) (application.Player, error)
	joinGame        func(ctx context.Context, principal application.Principal, gameID string) (application.Player, error)
	leaveGame       func(ctx context.Context, principal application.Principal, gameID string) error
	addResident     func(ctx context.Context, gameID string, kind application.RoleKind) (application.Resident, error)
	startGame       func(ctx context.Context, gameID string) (application.Turn, error)
	endGame         func(ctx context.Context, gameID string) error
}

func (f *fakeGameService) CreateGame(ctx context.Context, principal application.Principal) (application.Game, application.Player, error) {
	if f.createGame != nil {
		return f.createGame(ctx, principal)
	}
	return application.Game{}, application.Player{}, application.ErrNotFound
}

func (f *fakeGameService) GetGame(ctx context.Context, id string) (application.Game, error) {
	if f.getGame != nil {
		return f.getGame(ctx, id)
	}
	return application.Game{}, application.ErrNotFound
}

func (f *fakeGameService) GetPlayerByUser(ctx context.Context, gameID, userID string) (application.Player, error) {
	if f.getPlayerByUser != nil {
		return f.getPlayerByUser(ctx, gameID, userID)
	}
	return application.Player{}, application.ErrNotFound
}

func (f *fakeGameService) JoinGame(ctx context.Context, principal application.Principal, gameID string) (application.Player, error) {
	if f.joinGame != nil {
		return f.joinGame(ctx, principal, gameID)
	}
	return application.Player{}, application.ErrNotFound
}

func (f *fakeGameService) LeaveGame(ctx context.Context, principal application.Principal, gameID string) error {
	if f.leaveGame != nil {
		return f.leaveGame(ctx, principal, gameID)
	}
	return application.ErrNotFound
}

func (f *fakeGameService) AddResident(ctx context.Context, gameID string, kind application.RoleKind) (application.Resident, error) {
	if f.addResident != nil {
		return f.addResident(ctx, gameID, kind)
	}
	return application.Resident{}, application.ErrNotFound
}

func (f *fakeGameService) StartGame(ctx context.Context, gameID string) (application.Turn, error) {
	if f.startGame != nil {
		return f.startGame(ctx, gameID)
	}
	return application.Turn{}, application.ErrNotFound
}

func (f *fakeGameService) EndGame(ctx context.Context, gameID string) error {
	if f.endGame != nil {
		return f.endGame(ctx, gameID)
	}
	return application.ErrNotFound
}

type fakeTurnService struct {
	activeTurn   func(ctx context.Context, gameID string) (application.Turn, error)
	endTurn      func(ctx context.Context, turnID string) (application.Turn, error)
	advancePhase func(ctx context.Context, turnID string) (application.Turn, error)
}

func (f *fakeTurnService) ActiveTurn(ctx context.Context, gameID string) (application.Turn, error) {
	if f.activeTurn != nil {
		return f.activeTurn(ctx, gameID)
	}
	return application.Turn{}, application.ErrNotFound
}

func (f *fakeTurnService) EndTurn(ctx context.Context, turnID string) (application.Turn, error) {
	if f.endTurn != nil {
		return f.endTurn(ctx, turnID)
	}
	return application.Turn{}, application.ErrNotFound
}

func (f *fakeTurnService) AdvancePhase(ctx context.Context, turnID string) (application.Turn, error) {
	if f.advancePhase != nil {
		return f.advancePhase(ctx, turnID)
	}
	return application.Turn{}, application.ErrNotFound
}

type fakeActionService struct {
	performAction func(ctx context.Context, params application.PerformActionParams) (application.ActionResult, error)
	rescindVote   func(ctx context.Context, principal application.Principal, voteID string) error
	listTurnVotes func(ctx context.Context, turnID string) ([]application.Vote, error)
}

func (f *fakeActionService) PerformAction(ctx context.Context, params application.PerformActionParams) (application.ActionResult, error) {
	if f.performAction != nil {
		return f.performAction(ctx, params)
	}
	return application.ActionResult{}, application.ErrNotFound
}

func (f *fakeActionService) RescindVote(ctx context.Context, principal application.Principal, voteID string) error {
	if f.rescindVote != nil {
		return f.rescindVote(ctx, principal, voteID)
	}
	return application.ErrNotFound
}

func (f *fakeActionService) ListTurnVotes(ctx context.Context, turnID string) ([]application.Vote, error) {
	if f.listTurnVotes != nil {
		return f.listTurnVotes(ctx, turnID)
	}
	return nil, application.ErrNotFound
}

type fakeUserService struct {
	registerUser func(ctx context.Context, input application.UserInput) (application.User, error)
	getUser      func(ctx context.Context, id string) (application.User, error)
}

func (f *fakeUserService) RegisterUser(ctx context.Context, input application.UserInput) (application.User, error) {
	if f.registerUser != nil {
		return f.registerUser(ctx, input)
	}
	return application.User{}, application.ErrNotFound
}

func (f *fakeUserService) GetUser(ctx context.Context, id string) (application.User, error) {
	if f.getUser != nil {
		return f.getUser(ctx, id)
	}
	return application.User{}, application.ErrNotFound
}

type fakeAuthService struct {
	authenticate  func(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error)
	revokeSession func(ctx context.Context, token string) error
}

func (f *fakeAuthService) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	if f.authenticate != nil {
		return f.authenticate(ctx, params)
	}
	return application.AuthenticateResult{}, application.ErrInvalidCredentials
}

func (f *fakeAuthService) RevokeSession(ctx context.Context, token string) error {
	if f.revokeSession != nil {
		return f.revokeSession(ctx, token)
	}
	return application.ErrInvalidCredentials
}

type routerStubs struct {
	games     *fakeGameService
	turns     *fakeTurnService
	actions   *fakeActionService
	users     *fakeUserService
	auth      *fakeAuthService
	principal application.Principal
}

func newTestRouter(stubs routerStubs) http.Handler {
	if stubs.games == nil {
		stubs.games = &fakeGameService{}
	}
	if stubs.turns == nil {
		stubs.turns = &fakeTurnService{}
	}
	if stubs.actions == nil {
		stubs.actions = &fakeActionService{}
	}
	if stubs.users == nil {
		stubs.users = &fakeUserService{}
	}
	if stubs.auth == nil {
		stubs.auth = &fakeAuthService{}
	}
	if stubs.principal.UserID == "" {
		stubs.principal = application.Principal{UserID: "user-1"}
	}

	return NewRouter(RouterConfig{
		Auth:           NewAuthHandler(stubs.auth, nil),
		Users:          NewUserHandler(stubs.users, nil),
		Games:          NewGameHandler(stubs.games, "https://village.example", nil),
		Turns:          NewTurnHandler(stubs.turns, stubs.games, nil),
		Actions:        NewActionHandler(stubs.actions, stubs.turns, nil),
		RequireSession: RequireSession(fakeValidator{principal: stubs.principal}, nil),
	})
}

func doRequest(handler http.Handler, method, path, body string, authenticated bool) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if authenticated {
		req.Header.Set("Authorization", "Bearer test-token")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	return resp
}

func TestRouter_ProtectedRoutesRequireASession(t *testing.T) {
	t.Parallel()

	router := newTestRouter(routerStubs{})
	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/games"},
		{http.MethodGet, "/games/game-1"},
		{http.MethodGet, "/games/game-1/turns/current"},
		{http.MethodPost, "/games/game-1/actions/seer"},
	} {
		rec := doRequest(router, route.method, route.path, "", false)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", route.method, route.path, rec.Code)
		}
	}
}

func TestRouter_Registration(t *testing.T) {
	t.Parallel()

	t.Run("registration is open", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(routerStubs{users: &fakeUserService{
			registerUser: func(ctx context.Context, input application.UserInput) (application.User, error) {
				return application.User{
					ID:          "user-9",
					Email:       input.Email,
					DisplayName: input.DisplayName,
					CreatedAt:   testTime,
					UpdatedAt:   testTime,
				}, nil
			},
		}})

		rec := doRequest(router, http.MethodPost, "/users",
			`{"email":"alice@example.com","display_name":"Alice","password":"long enough"}`, false)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp userResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.User.ID != "user-9" {
			t.Errorf("expected user-9, got %q", resp.User.ID)
		}
	})

	t.Run("field errors come back as 422", func(t *testing.T) {
		t.Parallel()
		vErr := &application.ValidationError{FieldErrors: map[string]string{"email": "email is invalid"}}
		router := newTestRouter(routerStubs{users: &fakeUserService{
			registerUser: func(ctx context.Context, input application.UserInput) (application.User, error) {
				return application.User{}, vErr
			},
		}})

		rec := doRequest(router, http.MethodPost, "/users", `{"email":"nope"}`, false)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		resp := decodeError(t, rec)
		if resp.Errors["email"] != "email is invalid" {
			t.Errorf("expected the field error surfaced, got %v", resp.Errors)
		}
	})
}

func TestRouter_Sessions(t *testing.T) {
	t.Parallel()

	t.Run("login issues a token in header, cookie, and body", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(routerStubs{auth: &fakeAuthService{
			authenticate: func(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
				return application.AuthenticateResult{
					User: application.User{ID: "user-1", Email: params.Email, CreatedAt: testTime, UpdatedAt: testTime},
					Session: application.Session{
						ID:        "session-1",
						UserID:    "user-1",
						Token:     "token-abc",
						ExpiresAt: testTime.Add(time.Hour),
					},
				}, nil
			},
		}})

		rec := doRequest(router, http.MethodPost, "/sessions",
			`{"email":"alice@example.com","password":"secret-pw"}`, false)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if rec.Header().Get("X-Session-Token") != "token-abc" {
			t.Error("expected the token in the response header")
		}

		var cookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == "session_token" {
				cookie = c
			}
		}
		if cookie == nil || cookie.Value != "token-abc" {
			t.Fatal("expected the session cookie set")
		}
		if !cookie.HttpOnly {
			t.Error("the session cookie must be http-only")
		}

		var resp loginResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Token != "token-abc" {
			t.Errorf("expected token-abc, got %q", resp.Token)
		}
	})

	t.Run("bad credentials map to 401 with a stable code", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(routerStubs{})

		rec := doRequest(router, http.MethodPost, "/sessions",
			`{"email":"alice@example.com","password":"wrong"}`, false)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if resp := decodeError(t, rec); resp.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
			t.Errorf("expected AUTH_INVALID_CREDENTIALS, got %q", resp.ErrorCode)
		}
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(routerStubs{auth: &fakeAuthService{
			revokeSession: func(ctx context.Context, token string) error { return nil },
		}})

		rec := doRequest(router, http.MethodDelete, "/sessions/current", "", true)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		for _, c := range rec.Result().Cookies() {
			if c.Name == "session_token" && c.MaxAge >= 0 {
				t.Error("expected the cookie expired")
			}
		}
	})
}

func TestRouter_EngineRejections(t *testing.T) {
	t.Parallel()

	t.Run("rule violations carry their machine code", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(routerStubs{games: &fakeGameService{
			joinGame: func(ctx context.Context, principal application.Principal, gameID string) (application.Player, error) {
				return application.Player{}, application.ErrGameAlreadyStarted
			},
		}})

		rec := doRequest(router, http.MethodPost, "/games/game-1/players", "", true)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if resp := decodeError(t, rec); resp.ErrorCode != "GAME_ALREADY_STARTED" {
			t.Errorf("expected GAME_ALREADY_STARTED, got %q", resp.ErrorCode)
		}
	})

	t.Run("action gate violations carry their machine code", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(routerStubs{actions: &fakeActionService{
			performAction: func(ctx context.Context, params application.PerformActionParams) (application.ActionResult, error) {
				return application.ActionResult{}, application.ErrActorMultipleAction
			},
		}})

		rec := doRequest(router, http.MethodPost, "/games/game-1/actions/seer",
			`{"resident_id":"resident-1","targets":[{"hut_id":"hut-1"}]}`, true)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if resp := decodeError(t, rec); resp.ErrorCode != "ACTION_ACTOR_MULTIPLE_ACTION" {
			t.Errorf("expected ACTION_ACTOR_MULTIPLE_ACTION, got %q", resp.ErrorCode)
		}
	})
}

func TestRouter_OwnerGuard(t *testing.T) {
	t.Parallel()

	t.Run("non-owners cannot start the game", func(t *testing.T) {
		t.Parallel()
		started := false
		router := newTestRouter(routerStubs{games: &fakeGameService{
			getPlayerByUser: func(ctx context.Context, gameID, userID string) (application.Player, error) {
				return application.Player{ID: "player-2", GameID: gameID, UserID: userID, IsOwner: false}, nil
			},
			startGame: func(ctx context.Context, gameID string) (application.Turn, error) {
				started = true
				return application.Turn{}, nil
			},
		}})

		rec := doRequest(router, http.MethodPost, "/games/game-1/start", "", true)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		if resp := decodeError(t, rec); resp.ErrorCode != "AUTH_FORBIDDEN" {
			t.Errorf("expected AUTH_FORBIDDEN, got %q", resp.ErrorCode)
		}
		if started {
			t.Error("the service must not be reached")
		}
	})

	t.Run("the owner starts the game and gets the opening turn", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(routerStubs{games: &fakeGameService{
			getPlayerByUser: func(ctx context.Context, gameID, userID string) (application.Player, error) {
				return application.Player{ID: "player-1", GameID: gameID, UserID: userID, IsOwner: true}, nil
			},
			startGame: func(ctx context.Context, gameID string) (application.Turn, error) {
				return application.Turn{
					ID:                "turn-1",
					GameID:            gameID,
					Number:            1,
					Phase:             application.PhaseInitial,
					IsActive:          true,
					GrandInquisitorID: "player-1",
					CreatedAt:         testTime,
				}, nil
			},
		}})

		rec := doRequest(router, http.MethodPost, "/games/game-1/start", "", true)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp turnResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Turn.Phase != "initial" {
			t.Errorf("expected the initial phase on the wire, got %q", resp.Turn.Phase)
		}
	})
}

func TestRouter_TurnGuard(t *testing.T) {
	t.Parallel()

	activeTurn := func(ctx context.Context, gameID string) (application.Turn, error) {
		return application.Turn{
			ID:                "turn-1",
			GameID:            gameID,
			Number:            1,
			Phase:             application.PhaseDay,
			IsActive:          true,
			GrandInquisitorID: "player-1",
			CreatedAt:         testTime,
		}, nil
	}

	t.Run("only the grand inquisitor may end the turn", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(routerStubs{
			turns: &fakeTurnService{activeTurn: activeTurn},
			games: &fakeGameService{
				getPlayerByUser: func(ctx context.Context, gameID, userID string) (application.Player, error) {
					return application.Player{ID: "player-2", GameID: gameID, UserID: userID}, nil
				},
			},
		})

		rec := doRequest(router, http.MethodPost, "/games/game-1/turns/current/end", "", true)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("the grand inquisitor ends the turn", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(routerStubs{
			turns: &fakeTurnService{
				activeTurn: activeTurn,
				endTurn: func(ctx context.Context, turnID string) (application.Turn, error) {
					return application.Turn{
						ID:                "turn-2",
						GameID:            "game-1",
						Number:            2,
						Phase:             application.PhaseDay,
						IsActive:          true,
						GrandInquisitorID: "player-2",
						CreatedAt:         testTime,
					}, nil
				},
			},
			games: &fakeGameService{
				getPlayerByUser: func(ctx context.Context, gameID, userID string) (application.Player, error) {
					return application.Player{ID: "player-1", GameID: gameID, UserID: userID}, nil
				},
			},
		})

		rec := doRequest(router, http.MethodPost, "/games/game-1/turns/current/end", "", true)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp turnResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Turn.Number != 2 {
			t.Errorf("expected turn 2, got %d", resp.Turn.Number)
		}
	})
}

func TestRouter_Actions(t *testing.T) {
	t.Parallel()

	t.Run("a seer action returns the revealed resident", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(routerStubs{actions: &fakeActionService{
			performAction: func(ctx context.Context, params application.PerformActionParams) (application.ActionResult, error) {
				if params.RoleKind != application.RoleSeer {
					t.Errorf("expected the seer role from the path, got %q", params.RoleKind)
				}
				if len(params.Targets) != 1 || params.Targets[0].HutID != "hut-3" {
					t.Errorf("unexpected targets %v", params.Targets)
				}
				return application.ActionResult{
					Action: application.Action{
						ID:         "action-1",
						TurnID:     "turn-1",
						PlayerID:   "player-1",
						ResidentID: params.ResidentID,
						CreatedAt:  testTime,
					},
					Revealed: &application.Resident{ID: "resident-3", GameID: params.GameID, RoleID: "role-werewolf"},
				}, nil
			},
		}})

		rec := doRequest(router, http.MethodPost, "/games/game-1/actions/seer",
			`{"resident_id":"resident-1","targets":[{"hut_id":"hut-3"}]}`, true)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp actionResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Revealed == nil || resp.Revealed.RoleID != "role-werewolf" {
			t.Error("expected the revealed resident in the response")
		}
	})

	t.Run("votes list from the active turn", func(t *testing.T) {
		t.Parallel()
		hut := "hut-1"
		router := newTestRouter(routerStubs{
			turns: &fakeTurnService{
				activeTurn: func(ctx context.Context, gameID string) (application.Turn, error) {
					return application.Turn{ID: "turn-1", GameID: gameID, IsActive: true, CreatedAt: testTime}, nil
				},
			},
			actions: &fakeActionService{
				listTurnVotes: func(ctx context.Context, turnID string) ([]application.Vote, error) {
					if turnID != "turn-1" {
						t.Errorf("expected the active turn, got %q", turnID)
					}
					return []application.Vote{
						{ID: "vote-1", TurnID: turnID, PlayerID: "player-1", CreatedAt: testTime},
						{ID: "vote-2", TurnID: turnID, PlayerID: "player-1", HutID: &hut, CreatedAt: testTime},
					}, nil
				},
			},
		})

		rec := doRequest(router, http.MethodGet, "/games/game-1/votes", "", true)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp listVotesResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Votes) != 2 {
			t.Fatalf("expected 2 votes, got %d", len(resp.Votes))
		}
		if resp.Votes[0].HutID != nil || resp.Votes[1].HutID == nil {
			t.Error("expected the abstain entry first and the ballot second")
		}
	})

	t.Run("rescinding a vote returns no content", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(routerStubs{actions: &fakeActionService{
			rescindVote: func(ctx context.Context, principal application.Principal, voteID string) error {
				if voteID != "vote-1" {
					t.Errorf("expected vote-1, got %q", voteID)
				}
				return nil
			},
		}})

		rec := doRequest(router, http.MethodDelete, "/games/game-1/votes/vote-1", "", true)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})
}

func TestRouter_GameLookups(t *testing.T) {
	t.Parallel()

	t.Run("missing games are 404", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(routerStubs{})

		rec := doRequest(router, http.MethodGet, "/games/game-missing", "", true)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("unknown role kinds are a 400 on resident placement", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(routerStubs{games: &fakeGameService{
			getPlayerByUser: func(ctx context.Context, gameID, userID string) (application.Player, error) {
				return application.Player{ID: "player-1", IsOwner: true}, nil
			},
			addResident: func(ctx context.Context, gameID string, kind application.RoleKind) (application.Resident, error) {
				return application.Resident{}, application.ErrNotFound
			},
		}})

		rec := doRequest(router, http.MethodPost, "/games/game-1/residents", `{"role":"astrologer"}`, true)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("the invite endpoint renders a PNG", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(routerStubs{games: &fakeGameService{
			getGame: func(ctx context.Context, id string) (application.Game, error) {
				return application.Game{ID: id, CreatedAt: testTime}, nil
			},
		}})

		rec := doRequest(router, http.MethodGet, "/games/game-1/invite.png?size=128", "", true)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != "image/png" {
			t.Errorf("expected image/png, got %q", got)
		}
		if rec.Body.Len() == 0 {
			t.Error("expected PNG bytes")
		}
	})
}
