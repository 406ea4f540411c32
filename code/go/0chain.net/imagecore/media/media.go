// Package media composes the chunk codec, quota ledger, session tracker
// and backing entity store into the upload and retrieval orchestrators.
package media

import (
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/config"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/ledger"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/quota"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/session"
)

// Limits are the upload admission settings, usually taken from config.
type Limits struct {
	MaxFileSize       int64
	ChunkSize         int
	DefaultBTLDays    int
	MaxParallelChunks int
	AllowedTypes      map[string]bool
}

// DefaultAllowedTypes - the image types the middleware accepts. The
// declared content type is trusted as-is; content is never sniffed.
func DefaultAllowedTypes() map[string]bool {
	return map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
	}
}

// LimitsFromConfig builds Limits from the typed configuration.
func LimitsFromConfig(cfg *config.Config) Limits {
	return Limits{
		MaxFileSize:       cfg.MaxFileSize,
		ChunkSize:         cfg.ChunkSize,
		DefaultBTLDays:    cfg.DefaultBTLDays,
		MaxParallelChunks: cfg.MaxParallelChunks,
		AllowedTypes:      DefaultAllowedTypes(),
	}
}

// Orchestrator owns the correctness-critical upload and retrieval paths.
// All collaborators are injected so tests can isolate state per case.
type Orchestrator struct {
	store    ledger.Store
	quota    *quota.Ledger
	sessions *session.Tracker
	limits   Limits
}

func NewOrchestrator(store ledger.Store, q *quota.Ledger, tracker *session.Tracker, limits Limits) *Orchestrator {
	if limits.MaxParallelChunks <= 0 {
		limits.MaxParallelChunks = 1
	}
	if limits.AllowedTypes == nil {
		limits.AllowedTypes = DefaultAllowedTypes()
	}
	return &Orchestrator{
		store:    store,
		quota:    q,
		sessions: tracker,
		limits:   limits,
	}
}

// Quota exposes the ledger's advisory counters for the /quota surface.
func (o *Orchestrator) Quota(userID string) quota.Info {
	return o.quota.Get(userID)
}

// Status reports the session for an idempotency key.
func (o *Orchestrator) Status(idempotencyKey string) (session.Status, error) {
	return o.sessions.Status(idempotencyKey)
}
