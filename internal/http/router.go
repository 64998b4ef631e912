package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RouterConfig wires the handlers and middleware into the API router.
// RequireSession guards every route except registration and login.
type RouterConfig struct {
	Auth           *AuthHandler
	Users          *UserHandler
	Games          *GameHandler
	Turns          *TurnHandler
	Actions        *ActionHandler
	RequireSession func(http.Handler) http.Handler
	Middleware     []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()

	public := router.NewRoute().Subrouter()
	if cfg.Users != nil {
		public.HandleFunc("/users", cfg.Users.Create).Methods(http.MethodPost)
	}
	if cfg.Auth != nil {
		public.HandleFunc("/sessions", cfg.Auth.CreateSession).Methods(http.MethodPost)
	}

	protected := router.NewRoute().Subrouter()
	if cfg.RequireSession != nil {
		protected.Use(mux.MiddlewareFunc(cfg.RequireSession))
	}

	if cfg.Auth != nil {
		protected.HandleFunc("/sessions/current", cfg.Auth.DeleteCurrentSession).Methods(http.MethodDelete)
	}
	if cfg.Users != nil {
		protected.HandleFunc("/users/{user_id}", cfg.Users.Get).Methods(http.MethodGet)
	}
	if cfg.Games != nil {
		protected.HandleFunc("/games", cfg.Games.Create).Methods(http.MethodPost)
		protected.HandleFunc("/games/{game_id}", cfg.Games.Get).Methods(http.MethodGet)
		protected.HandleFunc("/games/{game_id}", cfg.Games.Delete).Methods(http.MethodDelete)
		protected.HandleFunc("/games/{game_id}/players", cfg.Games.Join).Methods(http.MethodPost)
		protected.HandleFunc("/games/{game_id}/players/current", cfg.Games.Leave).Methods(http.MethodDelete)
		protected.HandleFunc("/games/{game_id}/residents", cfg.Games.AddResident).Methods(http.MethodPost)
		protected.HandleFunc("/games/{game_id}/start", cfg.Games.Start).Methods(http.MethodPost)
		protected.HandleFunc("/games/{game_id}/invite.png", cfg.Games.InvitePNG).Methods(http.MethodGet)
	}
	if cfg.Turns != nil {
		protected.HandleFunc("/games/{game_id}/turns/current", cfg.Turns.Current).Methods(http.MethodGet)
		protected.HandleFunc("/games/{game_id}/turns/current/end", cfg.Turns.End).Methods(http.MethodPost)
		protected.HandleFunc("/games/{game_id}/turns/current/phase", cfg.Turns.AdvancePhase).Methods(http.MethodPost)
	}
	if cfg.Actions != nil {
		protected.HandleFunc("/games/{game_id}/actions/{role}", cfg.Actions.Perform).Methods(http.MethodPost)
		protected.HandleFunc("/games/{game_id}/votes", cfg.Actions.ListVotes).Methods(http.MethodGet)
		protected.HandleFunc("/games/{game_id}/votes/{vote_id}", cfg.Actions.RescindVote).Methods(http.MethodDelete)
	}

	var handler http.Handler = router
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}
