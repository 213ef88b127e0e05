package service

import (
	"context"

	"github.com/wricardo/blockpush/game/session"
)

type playerKey struct{}

// WithPlayer attaches the authenticated caller to ctx
func WithPlayer(ctx context.Context, player session.Player) context.Context {
	return context.WithValue(ctx, playerKey{}, player)
}

// PlayerFromContext returns the caller attached by WithPlayer
func PlayerFromContext(ctx context.Context) (session.Player, bool) {
	player, ok := ctx.Value(playerKey{}).(session.Player)
	return player, ok && player.UserID != ""
}
