package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/0chain/errors"

	"github.com/0chain/imagestore/code/go/0chain.net/core/common"
)

// MemoryStore keeps all entities in process memory. Used for tests and
// development mode; the semantics (idempotent chunk writes, lazy block
// expiry) match the persistent backends exactly.
type MemoryStore struct {
	clock BlockClock

	mu       sync.RWMutex
	metadata map[string]*MetadataEntity
	chunks   map[string]*ChunkEntity
}

func NewMemoryStore(clock BlockClock) *MemoryStore {
	return &MemoryStore{
		clock:    clock,
		metadata: make(map[string]*MetadataEntity),
		chunks:   make(map[string]*ChunkEntity),
	}
}

func chunkKey(mediaID string, index int) string {
	return fmt.Sprintf("%s:%08d", mediaID, index)
}

func (s *MemoryStore) StoreChunk(ctx context.Context, chunk *ChunkEntity) error {
	if err := ctx.Err(); err != nil {
		return errors.Throw(common.ErrStorage, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := chunkKey(chunk.MediaID, chunk.ChunkIndex)
	if existing, ok := s.chunks[key]; ok && !s.clock.expired(existing.ExpirationBlock) {
		if existing.Checksum == chunk.Checksum {
			return nil
		}
		return errors.Throw(ErrChecksumConflict,
			fmt.Sprintf("media %s chunk %d", chunk.MediaID, chunk.ChunkIndex))
	}

	cp := *chunk
	cp.Data = append([]byte(nil), chunk.Data...)
	s.chunks[key] = &cp
	return nil
}

func (s *MemoryStore) StoreMetadata(ctx context.Context, meta *MetadataEntity) error {
	if err := ctx.Err(); err != nil {
		return errors.Throw(common.ErrStorage, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *meta
	s.metadata[meta.MediaID] = &cp
	return nil
}

func (s *MemoryStore) GetMetadata(ctx context.Context, mediaID string) (*MetadataEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Throw(common.ErrStorage, err.Error())
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.metadata[mediaID]
	if !ok || s.clock.expired(meta.ExpirationBlock) {
		return nil, errors.Throw(common.ErrNotFound, "media "+mediaID)
	}
	cp := *meta
	return &cp, nil
}

func (s *MemoryStore) GetAllChunks(ctx context.Context, mediaID string) ([]*ChunkEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Throw(common.ErrStorage, err.Error())
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*ChunkEntity
	for _, chunk := range s.chunks {
		if chunk.MediaID != mediaID || s.clock.expired(chunk.ExpirationBlock) {
			continue
		}
		cp := *chunk
		cp.Data = append([]byte(nil), chunk.Data...)
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) DeleteMedia(ctx context.Context, mediaID string) error {
	if err := ctx.Err(); err != nil {
		return errors.Throw(common.ErrStorage, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.metadata, mediaID)
	for key, chunk := range s.chunks {
		if chunk.MediaID == mediaID {
			delete(s.chunks, key)
		}
	}
	return nil
}

func (s *MemoryStore) CurrentBlock() int64 {
	return s.clock.CurrentBlock()
}

func (s *MemoryStore) CalculateExpirationBlock(ttlDays int) int64 {
	return s.clock.CalculateExpirationBlock(ttlDays)
}

func (s *MemoryStore) SweepExpired(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.Throw(common.ErrStorage, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var swept int64
	for id, meta := range s.metadata {
		if s.clock.expired(meta.ExpirationBlock) {
			delete(s.metadata, id)
			swept++
		}
	}
	for key, chunk := range s.chunks {
		if s.clock.expired(chunk.ExpirationBlock) {
			delete(s.chunks, key)
			swept++
		}
	}
	return swept, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// Corrupt overwrites a stored chunk's bytes without touching its checksum
// or index. Test hook for simulating post-write corruption.
func (s *MemoryStore) Corrupt(mediaID string, index int, data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunk, ok := s.chunks[chunkKey(mediaID, index)]
	if !ok {
		return false
	}
	chunk.Data = append([]byte(nil), data...)
	return true
}

// DropChunk removes a single chunk record. Test hook for simulating
// partial store-side expiry.
func (s *MemoryStore) DropChunk(mediaID string, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := chunkKey(mediaID, index)
	if _, ok := s.chunks[key]; !ok {
		return false
	}
	delete(s.chunks, key)
	return true
}
