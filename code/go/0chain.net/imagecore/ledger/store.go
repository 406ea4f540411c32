// Package ledger is the narrow interface the media core needs from the
// backing entity store: an append/expire-only store whose records live
// until a block height passes. Three interchangeable backends exist
// (memory, pebble, sql); the deployed one is selected by configuration.
package ledger

import (
	"context"
	"time"

	"github.com/0chain/errors"

	"github.com/0chain/imagestore/code/go/0chain.net/core/common"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/config"
)

var (
	// ErrChecksumConflict - a chunk key already holds different bytes.
	ErrChecksumConflict = errors.New("checksum_conflict", "entity exists with a different checksum")
)

// Store is the collaborator contract. StoreChunk must be safely
// re-callable with an identical record; a differing checksum for an
// existing key is a corruption error, never an overwrite.
type Store interface {
	StoreChunk(ctx context.Context, chunk *ChunkEntity) error
	StoreMetadata(ctx context.Context, meta *MetadataEntity) error
	GetMetadata(ctx context.Context, mediaID string) (*MetadataEntity, error)
	GetAllChunks(ctx context.Context, mediaID string) ([]*ChunkEntity, error)
	DeleteMedia(ctx context.Context, mediaID string) error

	CurrentBlock() int64
	CalculateExpirationBlock(ttlDays int) int64

	// SweepExpired removes entities whose expiration block has passed and
	// reports how many were dropped. Reads already treat expired entities
	// as absent; sweeping only reclaims space.
	SweepExpired(ctx context.Context) (int64, error)

	Close() error
}

// BlockClock derives block heights from wall time. Block zero is the unix
// epoch so every backend and every restart agrees on the height without
// persisting a genesis record.
type BlockClock struct {
	BlockDuration time.Duration

	now func() time.Time
}

func NewBlockClock(blockDuration time.Duration) BlockClock {
	if blockDuration <= 0 {
		blockDuration = time.Minute
	}
	return BlockClock{BlockDuration: blockDuration, now: time.Now}
}

func (c BlockClock) CurrentBlock() int64 {
	return c.now().UnixNano() / int64(c.BlockDuration)
}

// CalculateExpirationBlock converts a TTL in days into an absolute block
// height, rounding up so a record never expires early.
func (c BlockClock) CalculateExpirationBlock(ttlDays int) int64 {
	ttl := time.Duration(ttlDays) * 24 * time.Hour
	blocks := (int64(ttl) + int64(c.BlockDuration) - 1) / int64(c.BlockDuration)
	return c.CurrentBlock() + blocks
}

func (c BlockClock) expired(expirationBlock int64) bool {
	return expirationBlock < c.CurrentBlock()
}

// OpenStore opens the backend named by the configuration.
func OpenStore(cfg *config.Config) (Store, error) {
	clock := NewBlockClock(cfg.BlockDuration)
	switch cfg.LedgerBackend {
	case "memory":
		return NewMemoryStore(clock), nil
	case "pebble":
		return OpenPebbleStore(cfg.PebbleDir, clock)
	case "sql":
		return OpenSQLStore(cfg.SQLDialect, cfg.DSN, clock)
	default:
		return nil, common.NewErrorf("bad_ledger_backend", "unknown ledger backend %q", cfg.LedgerBackend)
	}
}
