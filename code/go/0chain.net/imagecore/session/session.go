// Package session maps idempotency keys to in-flight or completed upload
// records so a retried upload neither duplicates storage work nor charges
// quota twice.
package session

import (
	"sync"
	"time"

	"github.com/0chain/errors"
	"github.com/koding/cache"

	"github.com/0chain/imagestore/code/go/0chain.net/core/common"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/ledger"
)

// Session is one logical upload attempt. Held only in process memory; the
// TTL on the backing cache matches the media TTL so a session never
// outlives the data it describes.
type Session struct {
	MediaID        string
	IdempotencyKey string
	Metadata       *ledger.MetadataEntity

	mu             sync.Mutex
	chunksReceived map[int]struct{}
	completed      bool
}

// RecordChunk marks a chunk index as durably stored. Re-recording an index
// is a no-op, which tolerates retried chunk writes.
func (s *Session) RecordChunk(index int) {
	s.mu.Lock()
	s.chunksReceived[index] = struct{}{}
	s.mu.Unlock()
}

// MarkCompleted is only valid after metadata has been persisted.
func (s *Session) MarkCompleted() {
	s.mu.Lock()
	s.completed = true
	s.mu.Unlock()
}

func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

func (s *Session) ChunksReceived() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunksReceived)
}

// Status is the wire shape of the /status endpoint.
type Status struct {
	MediaID        string `json:"media_id"`
	Completed      bool   `json:"completed"`
	ChunksReceived int    `json:"chunks_received"`
	TotalChunks    int    `json:"total_chunks"`
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		MediaID:        s.MediaID,
		Completed:      s.completed,
		ChunksReceived: len(s.chunksReceived),
		TotalChunks:    s.Metadata.ChunkCount,
	}
}

// Tracker owns the idempotency-key to session map. Begin is an atomic
// insert-if-absent: two concurrent uploads with the same fresh key cannot
// both open a session.
type Tracker struct {
	mu       sync.Mutex
	sessions cache.Cache
}

// NewTracker builds a tracker whose sessions expire ttl after creation.
// gcInterval controls how often expired entries are reclaimed; zero
// disables the background GC (lookups still see expired entries as gone).
func NewTracker(ttl, gcInterval time.Duration) *Tracker {
	mem := cache.NewMemoryWithTTL(ttl)
	if gcInterval > 0 {
		mem.StartGC(gcInterval)
	}
	return &Tracker{sessions: mem}
}

// Begin opens a session for the key. Returns ErrDuplicateKey when one
// already exists; callers must check Lookup first and short-circuit to the
// existing media id (the idempotent-replay contract).
func (t *Tracker) Begin(idempotencyKey string, meta *ledger.MetadataEntity) (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.sessions.Get(idempotencyKey); err == nil {
		return nil, errors.Throw(common.ErrDuplicateKey, "key "+idempotencyKey)
	}

	s := &Session{
		MediaID:        meta.MediaID,
		IdempotencyKey: idempotencyKey,
		Metadata:       meta,
		chunksReceived: make(map[int]struct{}),
	}
	if err := t.sessions.Set(idempotencyKey, s); err != nil {
		return nil, errors.Throw(common.ErrStorage, "session cache: "+err.Error())
	}
	return s, nil
}

// Lookup returns the session for the key, if any.
func (t *Tracker) Lookup(idempotencyKey string) (*Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, err := t.sessions.Get(idempotencyKey)
	if err != nil {
		return nil, false
	}
	return v.(*Session), true
}

// Status reports the session state or ErrNotFound for an unknown key.
func (t *Tracker) Status(idempotencyKey string) (Status, error) {
	s, ok := t.Lookup(idempotencyKey)
	if !ok {
		return Status{}, errors.Throw(common.ErrNotFound, "session "+idempotencyKey)
	}
	return s.Status(), nil
}
