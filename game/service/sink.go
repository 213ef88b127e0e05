package service

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/wricardo/blockpush/game/results"
	"github.com/wricardo/blockpush/game/session"
)

// StoreSink records cleared sessions in a results store
type StoreSink struct {
	store results.Store
}

// NewStoreSink returns a session.ResultSink backed by store
func NewStoreSink(store results.Store) *StoreSink {
	return &StoreSink{store: store}
}

// Report stores the outcome. Anonymous sessions have nobody to rank and are skipped.
func (s *StoreSink) Report(ctx context.Context, outcome session.Outcome) error {
	if outcome.UserID == "" {
		log.WithField("session", outcome.SessionID).Debug("[RESULT] anonymous clear not recorded")
		return nil
	}

	return s.store.Record(ctx, &results.Result{
		UserID:   outcome.UserID,
		Username: outcome.Username,
		Level:    outcome.LevelID,
		Time:     outcome.Elapsed,
	})
}
