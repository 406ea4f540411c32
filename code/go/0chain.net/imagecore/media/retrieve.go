package media

import (
	"context"
	"fmt"

	"github.com/0chain/errors"

	"github.com/0chain/imagestore/code/go/0chain.net/core/common"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/chunker"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/ledger"
)

// Media is a fully reassembled, integrity-checked file.
type Media struct {
	Data     []byte
	Metadata *ledger.MetadataEntity
}

// Download fetches metadata and all chunks, reassembles them in index
// order and verifies the whole-file checksum. Missing chunks fail as
// incomplete, corrupted-but-present data as an integrity failure; partial
// data is never returned.
func (o *Orchestrator) Download(ctx context.Context, mediaID string) (*Media, error) {
	meta, err := o.store.GetMetadata(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	entities, err := o.store.GetAllChunks(ctx, mediaID)
	if err != nil {
		return nil, errors.Throw(common.ErrStorage, "fetch chunks for media "+mediaID+": "+err.Error())
	}

	chunks, err := contiguous(mediaID, entities, meta.ChunkCount)
	if err != nil {
		return nil, err
	}

	buf := chunker.Reassemble(chunks)
	if !chunker.VerifyIntegrity(meta.Checksum, buf) {
		return nil, errors.Throw(common.ErrIntegrity, "media "+mediaID)
	}

	return &Media{Data: buf, Metadata: meta}, nil
}

// contiguous checks that the chunk indexes are exactly 0..count-1.
func contiguous(mediaID string, entities []*ledger.ChunkEntity, count int) ([]chunker.Chunk, error) {
	seen := make(map[int]bool, len(entities))
	chunks := make([]chunker.Chunk, 0, len(entities))
	for _, e := range entities {
		if e.ChunkIndex < 0 || e.ChunkIndex >= count || seen[e.ChunkIndex] {
			return nil, errors.Throw(common.ErrIncomplete,
				fmt.Sprintf("media %s has unexpected chunk index %d", mediaID, e.ChunkIndex))
		}
		seen[e.ChunkIndex] = true
		chunks = append(chunks, chunker.Chunk{
			Index:    e.ChunkIndex,
			Data:     e.Data,
			Checksum: e.Checksum,
		})
	}
	if len(chunks) != count {
		return nil, errors.Throw(common.ErrIncomplete,
			fmt.Sprintf("media %s has %d of %d chunks", mediaID, len(chunks), count))
	}
	return chunks, nil
}

// ChunkDetail is the diagnostics view of one stored chunk.
type ChunkDetail struct {
	ChunkIndex      int    `json:"chunk_index"`
	Size            int    `json:"size"`
	Checksum        string `json:"checksum"`
	ExpirationBlock int64  `json:"expiration_block"`
}

// ChunkListing is the /chunks response: metadata plus per-chunk details,
// without reassembly. Diagnostics only, not a correctness path.
type ChunkListing struct {
	MediaID      string                 `json:"media_id"`
	Metadata     *ledger.MetadataEntity `json:"metadata"`
	Entities     []ChunkDetail          `json:"entities"`
	CurrentBlock int64                  `json:"current_block"`
}

// ChunkInfo returns per-chunk size/checksum/expiry for diagnostics.
func (o *Orchestrator) ChunkInfo(ctx context.Context, mediaID string) (*ChunkListing, error) {
	meta, err := o.store.GetMetadata(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	entities, err := o.store.GetAllChunks(ctx, mediaID)
	if err != nil {
		return nil, errors.Throw(common.ErrStorage, "fetch chunks for media "+mediaID+": "+err.Error())
	}

	listing := &ChunkListing{
		MediaID:      mediaID,
		Metadata:     meta,
		Entities:     make([]ChunkDetail, 0, len(entities)),
		CurrentBlock: o.store.CurrentBlock(),
	}
	for _, e := range entities {
		listing.Entities = append(listing.Entities, ChunkDetail{
			ChunkIndex:      e.ChunkIndex,
			Size:            len(e.Data),
			Checksum:        e.Checksum,
			ExpirationBlock: e.ExpirationBlock,
		})
	}
	return listing, nil
}

// Delete removes a media's metadata and chunks. Best effort; block expiry
// in the backing store is the primary deletion path.
func (o *Orchestrator) Delete(ctx context.Context, mediaID string) error {
	if _, err := o.store.GetMetadata(ctx, mediaID); err != nil {
		return err
	}
	if err := o.store.DeleteMedia(ctx, mediaID); err != nil {
		return errors.Throw(common.ErrStorage, "delete media "+mediaID+": "+err.Error())
	}
	return nil
}
