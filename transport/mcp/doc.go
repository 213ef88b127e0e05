// Package mcp exposes blockpush to AI agents through the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool is implemented as one or two REST
// calls against the HTTP API, so an agent sees exactly the behavior a human
// client sees. The login tool stores the returned bearer token on the
// Client, after which sessions are created for that player and cleared
// levels are recorded on the leaderboard.
//
// Tools:
//   - register, login, logout
//   - create_session, get_session, list_sessions
//   - game_state, move, bulk_move, reset_game, move_history
//   - list_levels, leaderboard
//   - describe_cell, game_instructions
//
// Transports:
//
// Client.Handler serves one JSON-RPC message per HTTP POST and is mounted at
// /mcp by the server. For stdio, pass GetMCPServer to server.ServeStdio.
package mcp
