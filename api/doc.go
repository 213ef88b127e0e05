// Package api provides the HTTP REST API and the WebSocket endpoint.
//
// Endpoints:
//
// Accounts:
//   - POST /api/auth/register - Create an account {username, password}
//   - POST /api/auth/login - Exchange credentials for {token}
//   - POST /api/auth/logout - Revoke the bearer token
//   - GET /api/users/profile - Profile with results and total play minutes
//   - PUT /api/users/profile - Change {username, nickname}; 409 when the username is taken
//
// Levels and results:
//   - GET /api/fields?level=N (or ?difficulty=easy) - Level payload {level, objects}
//   - GET /api/levels, GET /api/levels/{id}, POST /api/levels
//   - GET /api/results?level=N - Results, fastest first
//   - POST /api/results - Record {level, time} for the caller
//   - GET /api/rankings?level=N&limit=3 - Ranked top entries
//
// Server-side play:
//   - POST /api/sessions {difficulty|level}, GET /api/sessions, GET|DELETE /api/sessions/{id}
//   - GET /api/sessions/{id}/state
//   - POST /api/sessions/{id}/move {direction}
//   - POST /api/sessions/{id}/bulk-move {moves}
//   - POST /api/sessions/{id}/reset
//   - GET /api/sessions/{id}/history?page=&limit=&order=
//   - GET /ws?session=ID - Live state pushes; accepts {"type":"move","direction":"left"}
//
// Authentication:
//
// A bearer token is optional on most routes and identifies the player of
// the sessions it creates. An invalid token is always rejected with 401.
// Logout, the profile routes and POST /api/results require one. The
// WebSocket also accepts the token as ?token=.
//
// Errors are returned as JSON with a matching HTTP status code:
//
//	{"error": "session not found"}
package api
