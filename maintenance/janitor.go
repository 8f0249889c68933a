// Package maintenance runs periodic cleanup, triggered externally via an
// HTTP tick (cron or platform scheduler).
package maintenance

import (
	"context"
	"fmt"
	"log"
	"net/http"
)

// SessionPruner removes expired reading sessions.
type SessionPruner interface {
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// SessionJanitor prunes expired reading sessions on each tick.
type SessionJanitor struct {
	sessions SessionPruner
}

// New creates a new SessionJanitor.
func New(sessions SessionPruner) *SessionJanitor {
	return &SessionJanitor{sessions: sessions}
}

// HandleTick runs one cleanup cycle over HTTP.
func (j *SessionJanitor) HandleTick(w http.ResponseWriter, r *http.Request) {
	log.Println("INFO (SessionJanitor): Tick triggered via HTTP")

	removed, err := j.Tick(r.Context())
	if err != nil {
		log.Printf("ERROR (SessionJanitor): Tick failed: %v", err)
		http.Error(w, "maintenance tick failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK: removed %d expired sessions", removed)
}

// Tick runs a single cleanup cycle and returns how many sessions were
// removed.
func (j *SessionJanitor) Tick(ctx context.Context) (int64, error) {
	removed, err := j.sessions.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to prune reading sessions: %w", err)
	}
	if removed > 0 {
		log.Printf("INFO (SessionJanitor): Removed %d expired reading sessions", removed)
	}
	return removed, nil
}
