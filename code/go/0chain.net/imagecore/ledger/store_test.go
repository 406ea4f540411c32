package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/0chain/errors"
	"github.com/stretchr/testify/require"

	"github.com/0chain/imagestore/code/go/0chain.net/core/common"
)

// fixedClock returns a BlockClock pinned to a controllable instant.
func fixedClock(at *time.Time) BlockClock {
	c := NewBlockClock(time.Minute)
	c.now = func() time.Time { return *at }
	return c
}

func openBackends(t *testing.T, clock BlockClock) map[string]Store {
	t.Helper()

	pebbleStore, err := OpenPebbleStore(t.TempDir(), clock)
	require.NoError(t, err)

	sqlStore, err := OpenSQLStore("sqlite", filepath.Join(t.TempDir(), "ledger.db"), clock)
	require.NoError(t, err)

	return map[string]Store{
		"memory": NewMemoryStore(clock),
		"pebble": pebbleStore,
		"sql":    sqlStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	at := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	clock := fixedClock(&at)

	for name, store := range openBackends(t, clock) {
		t.Run(name, func(test *testing.T) {
			r := require.New(test)
			defer store.Close()
			ctx := context.Background()

			exp := store.CalculateExpirationBlock(7)
			r.Greater(exp, store.CurrentBlock())

			for i := 0; i < 3; i++ {
				r.NoError(store.StoreChunk(ctx, &ChunkEntity{
					MediaID:         "med1",
					ChunkIndex:      i,
					Data:            []byte{byte(i), byte(i + 1)},
					Checksum:        "sum" + string(rune('0'+i)),
					ExpirationBlock: exp,
				}))
			}
			r.NoError(store.StoreMetadata(ctx, &MetadataEntity{
				MediaID:         "med1",
				Filename:        "cat.png",
				ContentType:     "image/png",
				FileSize:        6,
				ChunkCount:      3,
				Checksum:        "whole",
				ExpirationBlock: exp,
				TTLDays:         7,
			}))

			meta, err := store.GetMetadata(ctx, "med1")
			r.NoError(err)
			r.Equal("cat.png", meta.Filename)
			r.Equal(3, meta.ChunkCount)

			chunks, err := store.GetAllChunks(ctx, "med1")
			r.NoError(err)
			r.Len(chunks, 3)

			_, err = store.GetMetadata(ctx, "nope")
			r.True(errors.Is(err, common.ErrNotFound))
		})
	}
}

func TestStoreChunkIdempotency(t *testing.T) {
	at := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	clock := fixedClock(&at)

	for name, store := range openBackends(t, clock) {
		t.Run(name, func(test *testing.T) {
			r := require.New(test)
			defer store.Close()
			ctx := context.Background()

			exp := store.CalculateExpirationBlock(1)
			chunk := &ChunkEntity{MediaID: "med2", ChunkIndex: 0, Data: []byte("abc"), Checksum: "s1", ExpirationBlock: exp}

			r.NoError(store.StoreChunk(ctx, chunk))
			// Identical retry is a no-op.
			r.NoError(store.StoreChunk(ctx, chunk))

			// Same key, different checksum is a corruption error.
			bad := &ChunkEntity{MediaID: "med2", ChunkIndex: 0, Data: []byte("xyz"), Checksum: "s2", ExpirationBlock: exp}
			err := store.StoreChunk(ctx, bad)
			r.True(errors.Is(err, ErrChecksumConflict))

			chunks, err := store.GetAllChunks(ctx, "med2")
			r.NoError(err)
			r.Len(chunks, 1)
			r.Equal([]byte("abc"), chunks[0].Data)
		})
	}
}

func TestStoreExpiry(t *testing.T) {
	at := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	clock := fixedClock(&at)

	for name, store := range openBackends(t, clock) {
		t.Run(name, func(test *testing.T) {
			r := require.New(test)
			defer store.Close()
			ctx := context.Background()

			exp := store.CalculateExpirationBlock(1)
			r.NoError(store.StoreChunk(ctx, &ChunkEntity{MediaID: "med3", ChunkIndex: 0, Data: []byte("a"), Checksum: "c", ExpirationBlock: exp}))
			r.NoError(store.StoreMetadata(ctx, &MetadataEntity{MediaID: "med3", ChunkCount: 1, ExpirationBlock: exp}))

			// Two days later everything has expired.
			at = at.Add(48 * time.Hour)

			_, err := store.GetMetadata(ctx, "med3")
			r.True(errors.Is(err, common.ErrNotFound))

			chunks, err := store.GetAllChunks(ctx, "med3")
			r.NoError(err)
			r.Empty(chunks)

			swept, err := store.SweepExpired(ctx)
			r.NoError(err)
			r.Equal(int64(2), swept)

			at = at.Add(-48 * time.Hour)
		})
	}
}

func TestDeleteMedia(t *testing.T) {
	at := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	clock := fixedClock(&at)

	for name, store := range openBackends(t, clock) {
		t.Run(name, func(test *testing.T) {
			r := require.New(test)
			defer store.Close()
			ctx := context.Background()

			exp := store.CalculateExpirationBlock(1)
			r.NoError(store.StoreChunk(ctx, &ChunkEntity{MediaID: "med4", ChunkIndex: 0, Data: []byte("a"), Checksum: "c", ExpirationBlock: exp}))
			r.NoError(store.StoreMetadata(ctx, &MetadataEntity{MediaID: "med4", ChunkCount: 1, ExpirationBlock: exp}))

			r.NoError(store.DeleteMedia(ctx, "med4"))

			_, err := store.GetMetadata(ctx, "med4")
			r.True(errors.Is(err, common.ErrNotFound))
			chunks, err := store.GetAllChunks(ctx, "med4")
			r.NoError(err)
			r.Empty(chunks)
		})
	}
}

func TestBlockClock(t *testing.T) {
	r := require.New(t)

	at := time.Unix(0, 0).Add(10 * time.Minute)
	clock := fixedClock(&at)

	r.Equal(int64(10), clock.CurrentBlock())

	// 1 day at one block per minute.
	r.Equal(int64(10+24*60), clock.CalculateExpirationBlock(1))

	r.False(clock.expired(10))
	r.True(clock.expired(9))
}
