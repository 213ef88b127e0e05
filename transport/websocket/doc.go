// Package websocket pushes session state to browsers and terminal clients
// and accepts directional input over the same connection.
//
// A Hub groups connections by session id. It implements session.Notifier,
// so a session.Manager configured with the hub as its notifier broadcasts
// every accepted move, every tick and the final clear to all connections
// attached to that session.
//
// Outgoing messages:
//
//	{"type":"state","session_id":"a1b2","state":{...},"move":{...}}
//	{"type":"tick","session_id":"a1b2","state":{...}}
//	{"type":"cleared","session_id":"a1b2","state":{...},"move":{...}}
//	{"type":"error","session_id":"a1b2","error":"..."}
//
// Incoming messages:
//
//	{"type":"move","direction":"left"}
//
// Input is passed to the InputHandler with the context of the upgrade
// request, so values such as the authenticated player remain available.
//
// Usage:
//
//	hub := websocket.NewHub(nil)
//	go hub.Run()
//	hub.SetInputHandler(func(ctx context.Context, id, dir string) error {
//		_, err := svc.Move(ctx, id, dir)
//		return err
//	})
//	hub.ServeWS(w, r, sessionID, state)
package websocket
