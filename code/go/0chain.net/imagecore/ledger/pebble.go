package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/0chain/errors"
	"github.com/cockroachdb/pebble"

	"github.com/0chain/imagestore/code/go/0chain.net/core/common"
)

// PebbleStore is the default embedded backend. Entities are JSON values
// under prefixed keys:
//
//	m:<media_id>            metadata
//	c:<media_id>:<index>    chunk, index zero-padded so iteration order is
//	                        chunk order
type PebbleStore struct {
	db    *pebble.DB
	clock BlockClock
}

func OpenPebbleStore(dir string, clock BlockClock) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Throw(common.ErrStorage, "open pebble ledger: "+err.Error())
	}
	return &PebbleStore{db: db, clock: clock}, nil
}

func pebbleMetaKey(mediaID string) []byte {
	return []byte("m:" + mediaID)
}

func pebbleChunkKey(mediaID string, index int) []byte {
	return []byte(fmt.Sprintf("c:%s:%08d", mediaID, index))
}

// keyUpperBound returns the smallest key greater than every key with the
// given prefix.
func keyUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func (s *PebbleStore) get(key []byte, out interface{}) (bool, error) {
	val, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, errors.Throw(common.ErrStorage, err.Error())
	}
	defer closer.Close()

	if err := json.Unmarshal(val, out); err != nil {
		return false, errors.Throw(common.ErrStorage, "decode entity: "+err.Error())
	}
	return true, nil
}

func (s *PebbleStore) set(key []byte, entity interface{}) error {
	val, err := json.Marshal(entity)
	if err != nil {
		return errors.Throw(common.ErrStorage, "encode entity: "+err.Error())
	}
	if err := s.db.Set(key, val, pebble.Sync); err != nil {
		return errors.Throw(common.ErrStorage, err.Error())
	}
	return nil
}

func (s *PebbleStore) StoreChunk(ctx context.Context, chunk *ChunkEntity) error {
	if err := ctx.Err(); err != nil {
		return errors.Throw(common.ErrStorage, err.Error())
	}

	key := pebbleChunkKey(chunk.MediaID, chunk.ChunkIndex)

	var existing ChunkEntity
	found, err := s.get(key, &existing)
	if err != nil {
		return err
	}
	if found && !s.clock.expired(existing.ExpirationBlock) {
		if existing.Checksum == chunk.Checksum {
			return nil
		}
		return errors.Throw(ErrChecksumConflict,
			fmt.Sprintf("media %s chunk %d", chunk.MediaID, chunk.ChunkIndex))
	}

	return s.set(key, chunk)
}

func (s *PebbleStore) StoreMetadata(ctx context.Context, meta *MetadataEntity) error {
	if err := ctx.Err(); err != nil {
		return errors.Throw(common.ErrStorage, err.Error())
	}
	return s.set(pebbleMetaKey(meta.MediaID), meta)
}

func (s *PebbleStore) GetMetadata(ctx context.Context, mediaID string) (*MetadataEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Throw(common.ErrStorage, err.Error())
	}

	var meta MetadataEntity
	found, err := s.get(pebbleMetaKey(mediaID), &meta)
	if err != nil {
		return nil, err
	}
	if !found || s.clock.expired(meta.ExpirationBlock) {
		return nil, errors.Throw(common.ErrNotFound, "media "+mediaID)
	}
	return &meta, nil
}

func (s *PebbleStore) GetAllChunks(ctx context.Context, mediaID string) ([]*ChunkEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Throw(common.ErrStorage, err.Error())
	}

	prefix := []byte("c:" + mediaID + ":")
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, errors.Throw(common.ErrStorage, err.Error())
	}
	defer iter.Close()

	var out []*ChunkEntity
	for iter.First(); iter.Valid(); iter.Next() {
		var chunk ChunkEntity
		if err := json.Unmarshal(iter.Value(), &chunk); err != nil {
			return nil, errors.Throw(common.ErrStorage, "decode chunk: "+err.Error())
		}
		if s.clock.expired(chunk.ExpirationBlock) {
			continue
		}
		out = append(out, &chunk)
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Throw(common.ErrStorage, err.Error())
	}
	return out, nil
}

func (s *PebbleStore) DeleteMedia(ctx context.Context, mediaID string) error {
	if err := ctx.Err(); err != nil {
		return errors.Throw(common.ErrStorage, err.Error())
	}

	if err := s.db.Delete(pebbleMetaKey(mediaID), pebble.Sync); err != nil {
		return errors.Throw(common.ErrStorage, err.Error())
	}

	prefix := []byte("c:" + mediaID + ":")
	if err := s.db.DeleteRange(prefix, keyUpperBound(prefix), pebble.Sync); err != nil {
		return errors.Throw(common.ErrStorage, err.Error())
	}
	return nil
}

func (s *PebbleStore) CurrentBlock() int64 {
	return s.clock.CurrentBlock()
}

func (s *PebbleStore) CalculateExpirationBlock(ttlDays int) int64 {
	return s.clock.CalculateExpirationBlock(ttlDays)
}

func (s *PebbleStore) SweepExpired(ctx context.Context) (int64, error) {
	iter, err := s.db.NewIter(nil)
	if err != nil {
		return 0, errors.Throw(common.ErrStorage, err.Error())
	}
	defer iter.Close()

	var entity struct {
		ExpirationBlock int64 `json:"expiration_block"`
	}
	var swept int64
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return swept, errors.Throw(common.ErrStorage, err.Error())
		}
		if err := json.Unmarshal(iter.Value(), &entity); err != nil {
			continue
		}
		if !s.clock.expired(entity.ExpirationBlock) {
			continue
		}
		key := append([]byte(nil), iter.Key()...)
		if err := s.db.Delete(key, pebble.NoSync); err != nil {
			return swept, errors.Throw(common.ErrStorage, err.Error())
		}
		swept++
	}
	return swept, nil
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}
