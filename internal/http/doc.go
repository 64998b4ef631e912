// Package http provides HTTP handlers and middleware for the village API.
//
// The router exposes the following endpoints:
//   - POST /users: registers an account. Body: {"email","display_name","password"}.
//   - POST /sessions: issues a session token. Body: {"email","password"}. The
//     token is returned in the body, the `X-Session-Token` header, and a
//     `session_token` cookie.
//   - DELETE /sessions/current: revokes the caller's session.
//   - GET /users/{id}: returns an account.
//   - POST /games: opens a game owned by the caller. GET /games/{id} returns
//     it; DELETE /games/{id} ends it (owner only).
//   - POST /games/{id}/players joins, DELETE /games/{id}/players/current
//     withdraws the caller's seat.
//   - POST /games/{id}/residents places a hidden role-holder (owner only,
//     before start). POST /games/{id}/start freezes the roster and opens
//     turn 1 (owner only).
//   - GET /games/{id}/invite.png renders a QR code linking to the game.
//   - GET /games/{id}/turns/current returns the active turn. POST
//     /games/{id}/turns/current/end and /games/{id}/turns/current/phase end
//     the turn and advance its phase (grand inquisitor only).
//   - POST /games/{id}/actions/{role} resolves a role action. GET
//     /games/{id}/votes lists the active turn's ballots; DELETE
//     /games/{id}/votes/{vote_id} rescinds one of the caller's ballots.
//
// Rule rejections answer 400 with a stable `error_code` (for example
// GAME_ALREADY_STARTED) so clients can branch without parsing messages.
// Request/response DTOs live alongside their respective handlers.
package http
