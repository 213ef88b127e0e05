// Package session runs block-pushing levels for concurrent players.
//
// A Session owns one engine and serializes everything that touches it
// behind a single mutex: the one-second tick source, directional input and
// teardown. Each input is resolved completely, including the goal check,
// before the next input or tick is looked at.
//
// When a level is cleared the session stops its tick source, hands the
// frozen elapsed time to the ResultSink exactly once and only then tells the
// Notifier. Sink errors are logged and dropped; the session stays cleared.
//
// Manager keeps sessions by case-insensitive 4-character hex ids, expires
// idle ones and can save active sessions through a SessionPersistence so a
// restart picks up where players left off.
//
//	manager := session.NewManager(session.Options{Sink: sink, Notifier: hub})
//	sess, err := manager.Create("", lvl, session.Player{UserID: id, Username: name})
//	if err != nil {
//		return err
//	}
//	result, state, err := sess.Move(ctx, engine.Left)
package session
