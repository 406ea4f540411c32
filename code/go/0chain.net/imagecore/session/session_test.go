package session

import (
	"sync"
	"testing"
	"time"

	"github.com/0chain/errors"
	"github.com/stretchr/testify/require"

	"github.com/0chain/imagestore/code/go/0chain.net/core/common"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/ledger"
)

func testMeta(mediaID string, chunkCount int) *ledger.MetadataEntity {
	return &ledger.MetadataEntity{
		MediaID:    mediaID,
		Filename:   "a.png",
		ChunkCount: chunkCount,
	}
}

func TestBeginDuplicateKey(t *testing.T) {
	r := require.New(t)
	tr := NewTracker(time.Hour, 0)

	s, err := tr.Begin("key1", testMeta("m1", 2))
	r.NoError(err)
	r.Equal("m1", s.MediaID)

	_, err = tr.Begin("key1", testMeta("m2", 2))
	r.True(errors.Is(err, common.ErrDuplicateKey))

	// The original session is untouched.
	got, ok := tr.Lookup("key1")
	r.True(ok)
	r.Equal("m1", got.MediaID)
}

func TestBeginConcurrentSameKey(t *testing.T) {
	r := require.New(t)
	tr := NewTracker(time.Hour, 0)

	const workers = 16
	var wg sync.WaitGroup
	created := make(chan string, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n))
			if _, err := tr.Begin("shared", testMeta(id, 1)); err == nil {
				created <- id
			}
		}(i)
	}
	wg.Wait()
	close(created)

	// Exactly one goroutine wins the insert.
	r.Len(created, 1)
}

func TestRecordChunkIdempotent(t *testing.T) {
	r := require.New(t)
	tr := NewTracker(time.Hour, 0)

	s, err := tr.Begin("key2", testMeta("m1", 4))
	r.NoError(err)

	s.RecordChunk(0)
	s.RecordChunk(1)
	s.RecordChunk(1) // retried write
	r.Equal(2, s.ChunksReceived())

	st := s.Status()
	r.Equal(2, st.ChunksReceived)
	r.Equal(4, st.TotalChunks)
	r.False(st.Completed)
}

func TestStatusUnknownKey(t *testing.T) {
	tr := NewTracker(time.Hour, 0)

	_, err := tr.Status("missing")
	require.True(t, errors.Is(err, common.ErrNotFound))
}

func TestMarkCompleted(t *testing.T) {
	r := require.New(t)
	tr := NewTracker(time.Hour, 0)

	s, err := tr.Begin("key3", testMeta("m1", 1))
	r.NoError(err)
	r.False(s.Completed())

	s.RecordChunk(0)
	s.MarkCompleted()

	st, err := tr.Status("key3")
	r.NoError(err)
	r.True(st.Completed)
	r.Equal(1, st.ChunksReceived)
}
