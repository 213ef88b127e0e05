// Package service provides the business logic layer for blockpush.
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and
// the session, level and results packages:
//   - Session creation by difficulty or level id, ownership checks
//   - Move and bulk-move processing with readable outcomes
//   - Paginated move history
//   - Level listing, loading and saving
//   - Result recording and competition-style rankings
//
// GameService is the interface the transports depend on. SessionManager and
// LevelManager are satisfied by session.Manager and level.Manager.
//
// The authenticated caller travels in the context (WithPlayer). Sessions
// owned by a user are only visible to that user; anonymous sessions are
// visible to everyone.
//
// StoreSink connects sessions to a results.Store so that clearing a level on
// the server records the time exactly once:
//
//	store := results.NewMemoryStore()
//	sessions := session.NewManager(session.Options{Sink: service.NewStoreSink(store)})
//	levels, _ := level.NewManager("levels")
//	svc := service.NewGameService(sessions, levels, store)
//
//	info, err := svc.CreateSession(ctx, service.CreateSessionRequest{Difficulty: "easy"})
//	if err != nil {
//		return err
//	}
//	result, err := svc.Move(ctx, info.ID, "left")
package service
