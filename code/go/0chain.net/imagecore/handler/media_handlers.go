package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/lithammer/shortuuid/v3"

	"github.com/0chain/imagestore/code/go/0chain.net/core/common"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/config"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/media"
)

/*UploadHandler is the handler to respond to media upload requests */
func UploadHandler(ctx context.Context, r *http.Request) (interface{}, error) {
	maxSize := config.Configuration.MaxFileSize
	if maxSize <= 0 {
		maxSize = 25 * 1024 * 1024
	}
	if err := r.ParseMultipartForm(maxSize + 1); err != nil {
		return nil, common.InvalidRequest("unable to parse multipart form: " + err.Error())
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, common.InvalidRequest("missing file field")
	}
	defer file.Close()

	// Read one byte past the limit so an oversized body is rejected by
	// the orchestrator instead of silently truncated here.
	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, common.InvalidRequest("unable to read file: " + err.Error())
	}

	idempotencyKey := r.Header.Get(common.IdempotencyKeyHeader)
	if idempotencyKey == "" {
		// Server-generated key: the retry contract is opt-in.
		idempotencyKey = shortuuid.New()
	}

	ttlDays := 0
	if v := r.Header.Get(common.BTLDaysHeader); v != "" {
		ttlDays, err = strconv.Atoi(v)
		if err != nil || ttlDays < 0 {
			return nil, common.InvalidRequest("invalid " + common.BTLDaysHeader + " header")
		}
	}

	contentType := header.Header.Get("Content-Type")
	if ct := r.FormValue("content_type"); ct != "" {
		contentType = ct
	}

	result, err := orchestrator.Upload(ctx, &media.UploadRequest{
		Data:           data,
		Filename:       header.Filename,
		ContentType:    contentType,
		IdempotencyKey: idempotencyKey,
		UserID:         r.Header.Get(common.UserHeader),
		TTLDays:        ttlDays,
	})
	if err != nil {
		return nil, err
	}

	msg := "upload complete"
	if result.Replayed {
		msg = "upload already processed"
	}
	return map[string]interface{}{
		"media_id": result.MediaID,
		"message":  msg,
	}, nil
}

/*DownloadHandler serves the reassembled media as a single blob */
func DownloadHandler(ctx context.Context, r *http.Request) (*common.RawResponse, error) {
	mediaID := mux.Vars(r)["media_id"]
	if mediaID == "" {
		return nil, common.InvalidRequest("missing media_id")
	}

	m, err := orchestrator.Download(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	return &common.RawResponse{
		Data:        m.Data,
		ContentType: m.Metadata.ContentType,
		Filename:    m.Metadata.Filename,
	}, nil
}

/*DeleteHandler removes a media's metadata and chunks, best effort */
func DeleteHandler(ctx context.Context, r *http.Request) (interface{}, error) {
	mediaID := mux.Vars(r)["media_id"]
	if mediaID == "" {
		return nil, common.InvalidRequest("missing media_id")
	}

	if err := orchestrator.Delete(ctx, mediaID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"media_id": mediaID, "message": "deleted"}, nil
}

/*QuotaHandler reports the caller's usage counters */
func QuotaHandler(ctx context.Context, r *http.Request) (interface{}, error) {
	info := orchestrator.Quota(r.Header.Get(common.UserHeader))

	var pct float64
	if info.MaxBytes > 0 {
		pct = float64(info.UsedBytes) / float64(info.MaxBytes) * 100
	}
	return map[string]interface{}{
		"used_bytes":          info.UsedBytes,
		"max_bytes":           info.MaxBytes,
		"uploads_today":       info.UploadsToday,
		"max_uploads_per_day": info.MaxUploadsPerDay,
		"usage_percentage":    pct,
	}, nil
}

/*StatusHandler reports the upload session for an idempotency key */
func StatusHandler(ctx context.Context, r *http.Request) (interface{}, error) {
	key := mux.Vars(r)["idempotency_key"]
	if key == "" {
		return nil, common.InvalidRequest("missing idempotency_key")
	}
	return orchestrator.Status(key)
}

/*ChunksHandler lists per-chunk diagnostics without reassembling */
func ChunksHandler(ctx context.Context, r *http.Request) (interface{}, error) {
	mediaID := mux.Vars(r)["media_id"]
	if mediaID == "" {
		return nil, common.InvalidRequest("missing media_id")
	}

	listing, err := orchestrator.ChunkInfo(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"media_id": listing.MediaID,
		"chunks": map[string]interface{}{
			"metadata": listing.Metadata,
			"entities": listing.Entities,
		},
		"current_block": listing.CurrentBlock,
	}, nil
}

/*HealthHandler - liveness probe */
func HealthHandler(ctx context.Context, r *http.Request) (interface{}, error) {
	return map[string]interface{}{
		"status":    "healthy",
		"timestamp": common.Now(),
	}, nil
}
