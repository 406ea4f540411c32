package media

import (
	"context"
	"fmt"

	"github.com/0chain/errors"
	"github.com/lithammer/shortuuid/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/0chain/imagestore/code/go/0chain.net/core/common"
	"github.com/0chain/imagestore/code/go/0chain.net/core/logging"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/chunker"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/ledger"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/session"
)

// UploadRequest carries one upload attempt into the orchestrator.
type UploadRequest struct {
	Data           []byte
	Filename       string
	ContentType    string
	IdempotencyKey string
	UserID         string
	TTLDays        int
}

// UploadResult is returned for both fresh uploads and idempotent replays.
type UploadResult struct {
	MediaID    string `json:"media_id"`
	ChunkCount int    `json:"chunk_count"`
	Replayed   bool   `json:"-"`
}

// Upload runs the upload state machine: validate, admit against quota,
// short-circuit replays, chunk, store chunks, store metadata, commit
// quota. Metadata is written strictly after every chunk has landed; its
// presence is the only proof of completeness readers get.
func (o *Orchestrator) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	if len(req.Data) == 0 {
		return nil, common.InvalidRequest("empty file")
	}
	if int64(len(req.Data)) > o.limits.MaxFileSize {
		return nil, errors.Throw(common.ErrFileTooLarge,
			fmt.Sprintf("%d bytes, limit %d", len(req.Data), o.limits.MaxFileSize))
	}
	if !o.limits.AllowedTypes[req.ContentType] {
		return nil, errors.Throw(common.ErrUnsupportedType, req.ContentType)
	}
	if req.IdempotencyKey == "" {
		return nil, common.InvalidRequest("missing idempotency key")
	}

	size := int64(len(req.Data))
	if err := o.quota.Reserve(req.UserID, size); err != nil {
		return nil, err
	}

	// Replay of a known key returns the original media id with no side
	// effects, whether or not the original upload finished.
	if existing, ok := o.sessions.Lookup(req.IdempotencyKey); ok {
		o.quota.Release(req.UserID, size)
		return &UploadResult{
			MediaID:    existing.MediaID,
			ChunkCount: existing.Metadata.ChunkCount,
			Replayed:   true,
		}, nil
	}

	ttlDays := req.TTLDays
	if ttlDays <= 0 {
		ttlDays = o.limits.DefaultBTLDays
	}

	meta := &ledger.MetadataEntity{
		MediaID:         shortuuid.New(),
		Filename:        req.Filename,
		ContentType:     req.ContentType,
		FileSize:        size,
		ChunkCount:      chunker.Count(size, o.limits.ChunkSize),
		Checksum:        chunker.Checksum(req.Data),
		ExpirationBlock: o.store.CalculateExpirationBlock(ttlDays),
		TTLDays:         ttlDays,
	}

	sess, err := o.sessions.Begin(req.IdempotencyKey, meta)
	if err != nil {
		o.quota.Release(req.UserID, size)
		if errors.Is(err, common.ErrDuplicateKey) {
			// Lost the insert race; the winner's session answers.
			if existing, ok := o.sessions.Lookup(req.IdempotencyKey); ok {
				return &UploadResult{
					MediaID:    existing.MediaID,
					ChunkCount: existing.Metadata.ChunkCount,
					Replayed:   true,
				}, nil
			}
		}
		return nil, err
	}

	if err := o.storeChunks(ctx, sess, meta, req.Data); err != nil {
		// The session keeps its partial chunksReceived and stays
		// incomplete; a same-key retry short-circuits to this media id.
		o.quota.Release(req.UserID, size)
		logging.Logger.Error("upload failed",
			zap.String("media_id", meta.MediaID),
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.Error(err))
		return nil, err
	}

	if err := o.store.StoreMetadata(ctx, meta); err != nil {
		o.quota.Release(req.UserID, size)
		return nil, errors.Throw(common.ErrStorage, "store metadata for media "+meta.MediaID+": "+err.Error())
	}

	sess.MarkCompleted()
	o.quota.Commit(req.UserID, size)

	logging.Logger.Info("upload complete",
		zap.String("media_id", meta.MediaID),
		zap.Int64("file_size", size),
		zap.Int("chunk_count", meta.ChunkCount),
		zap.Int64("expiration_block", meta.ExpirationBlock))

	return &UploadResult{MediaID: meta.MediaID, ChunkCount: meta.ChunkCount}, nil
}

// storeChunks writes every chunk, bounding parallelism and recording each
// success in the session. All writes must land before the caller may
// persist metadata.
func (o *Orchestrator) storeChunks(ctx context.Context, sess *session.Session, meta *ledger.MetadataEntity, data []byte) error {
	chunks := chunker.Split(data, o.limits.ChunkSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.limits.MaxParallelChunks)

	for _, c := range chunks {
		c := c
		g.Go(func() error {
			entity := &ledger.ChunkEntity{
				MediaID:         meta.MediaID,
				ChunkIndex:      c.Index,
				Data:            c.Data,
				Checksum:        c.Checksum,
				ExpirationBlock: meta.ExpirationBlock,
			}
			if err := o.store.StoreChunk(gctx, entity); err != nil {
				return errors.Throw(common.ErrStorage,
					fmt.Sprintf("store chunk %d of media %s: %v", c.Index, meta.MediaID, err))
			}
			sess.RecordChunk(c.Index)
			return nil
		})
	}

	return g.Wait()
}
