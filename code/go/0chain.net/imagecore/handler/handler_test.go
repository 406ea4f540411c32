package handler

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/0chain/imagestore/code/go/0chain.net/core/common"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/config"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/ledger"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/media"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/quota"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/session"
)

func newTestRouter(t *testing.T) (*mux.Router, *ledger.MemoryStore) {
	t.Helper()

	config.SetupDefaultConfig()
	config.ReadConfig()

	// Keep the limiters out of the way for tests.
	viper.Set("rate_limiters.upload_rps", 100000)
	viper.Set("rate_limiters.general_rps", 100000)

	store := ledger.NewMemoryStore(ledger.NewBlockClock(time.Minute))
	q := quota.NewLedger(config.Configuration.FreeTierMaxBytes, config.Configuration.FreeTierMaxUploadsPerDay)
	tracker := session.NewTracker(time.Hour, 0)
	Setup(media.NewOrchestrator(store, q, tracker, media.LimitsFromConfig(&config.Configuration)))

	r := mux.NewRouter()
	SetupHandlers(r)
	return r, store
}

func multipartBody(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	formWriter := multipart.NewWriter(body)
	fileWriter, err := formWriter.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fileWriter.Write(data)
	require.NoError(t, err)
	require.NoError(t, formWriter.WriteField("content_type", contentType))
	require.NoError(t, formWriter.Close())
	return body, formWriter.FormDataContentType()
}

func doUpload(t *testing.T, r *mux.Router, key string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, "pic.png", "image/png", data)
	req := httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(common.IdempotencyKeyHeader, key)
	req.Header.Set(common.UserHeader, "tester")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadDownloadHTTP(t *testing.T) {
	r := require.New(t)
	router, _ := newTestRouter(t)

	data := make([]byte, 150*1024)
	rand.New(rand.NewSource(1)).Read(data) //nolint:errcheck

	w := doUpload(t, router, "http-key-1", data)
	r.Equal(http.StatusOK, w.Code)

	var resp map[string]interface{}
	r.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	mediaID, _ := resp["media_id"].(string)
	r.NotEmpty(mediaID)

	get := httptest.NewRequest(http.MethodGet, "/media/"+mediaID, nil)
	gw := httptest.NewRecorder()
	router.ServeHTTP(gw, get)

	r.Equal(http.StatusOK, gw.Code)
	r.Equal("image/png", gw.Header().Get("Content-Type"))
	r.Equal(`inline; filename="pic.png"`, gw.Header().Get("Content-Disposition"))
	r.True(bytes.Equal(data, gw.Body.Bytes()))
}

func TestUploadReplayHTTP(t *testing.T) {
	r := require.New(t)
	router, _ := newTestRouter(t)

	data := []byte("not a real png but the type is trusted as declared")

	first := doUpload(t, router, "http-key-replay", data)
	r.Equal(http.StatusOK, first.Code)
	second := doUpload(t, router, "http-key-replay", data)
	r.Equal(http.StatusOK, second.Code)

	var a, b map[string]interface{}
	r.NoError(json.Unmarshal(first.Body.Bytes(), &a))
	r.NoError(json.Unmarshal(second.Body.Bytes(), &b))
	r.Equal(a["media_id"], b["media_id"])

	// Only one upload is on the books.
	qreq := httptest.NewRequest(http.MethodGet, "/quota", nil)
	qreq.Header.Set(common.UserHeader, "tester")
	qw := httptest.NewRecorder()
	router.ServeHTTP(qw, qreq)
	r.Equal(http.StatusOK, qw.Code)

	var info map[string]interface{}
	r.NoError(json.Unmarshal(qw.Body.Bytes(), &info))
	r.Equal(float64(1), info["uploads_today"])
	r.Equal(float64(len(data)), info["used_bytes"])
	r.Contains(info, "usage_percentage")
}

func TestUploadUnsupportedTypeHTTP(t *testing.T) {
	r := require.New(t)
	router, _ := newTestRouter(t)

	body, contentType := multipartBody(t, "doc.pdf", "application/pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	r.Equal(http.StatusBadRequest, w.Code)
	r.Equal("unsupported_type", w.Header().Get(common.AppErrorHeader))
}

func TestDownloadNotFoundHTTP(t *testing.T) {
	r := require.New(t)
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/media/ghost", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	r.Equal(http.StatusNotFound, w.Code)
}

func TestDownloadIncompleteHTTP(t *testing.T) {
	r := require.New(t)
	router, store := newTestRouter(t)

	data := make([]byte, 200*1024)
	w := doUpload(t, router, "http-key-inc", data)
	r.Equal(http.StatusOK, w.Code)

	var resp map[string]interface{}
	r.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	mediaID := resp["media_id"].(string)

	r.True(store.DropChunk(mediaID, 1))

	req := httptest.NewRequest(http.MethodGet, "/media/"+mediaID, nil)
	gw := httptest.NewRecorder()
	router.ServeHTTP(gw, req)

	// Missing chunks read as 404, never as a truncated body.
	r.Equal(http.StatusNotFound, gw.Code)
	r.Equal("incomplete", gw.Header().Get(common.AppErrorHeader))
}

func TestStatusEndpoint(t *testing.T) {
	r := require.New(t)
	router, _ := newTestRouter(t)

	w := doUpload(t, router, "http-key-status", []byte("png bytes"))
	r.Equal(http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/status/http-key-status", nil)
	sw := httptest.NewRecorder()
	router.ServeHTTP(sw, req)
	r.Equal(http.StatusOK, sw.Code)

	var st map[string]interface{}
	r.NoError(json.Unmarshal(sw.Body.Bytes(), &st))
	r.Equal(true, st["completed"])
	r.Equal(float64(1), st["total_chunks"])

	unknown := httptest.NewRequest(http.MethodGet, "/status/nope", nil)
	uw := httptest.NewRecorder()
	router.ServeHTTP(uw, unknown)
	r.Equal(http.StatusNotFound, uw.Code)
}

func TestChunksEndpoint(t *testing.T) {
	r := require.New(t)
	router, _ := newTestRouter(t)

	data := make([]byte, 130*1024)
	w := doUpload(t, router, "http-key-chunks", data)
	r.Equal(http.StatusOK, w.Code)

	var resp map[string]interface{}
	r.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	mediaID := resp["media_id"].(string)

	req := httptest.NewRequest(http.MethodGet, "/chunks/"+mediaID, nil)
	cw := httptest.NewRecorder()
	router.ServeHTTP(cw, req)
	r.Equal(http.StatusOK, cw.Code)

	var listing map[string]interface{}
	r.NoError(json.Unmarshal(cw.Body.Bytes(), &listing))
	r.Equal(mediaID, listing["media_id"])
	chunks := listing["chunks"].(map[string]interface{})
	r.Len(chunks["entities"].([]interface{}), 3)
}

func TestDeleteEndpoint(t *testing.T) {
	r := require.New(t)
	router, _ := newTestRouter(t)

	w := doUpload(t, router, "http-key-del", []byte("some png"))
	r.Equal(http.StatusOK, w.Code)

	var resp map[string]interface{}
	r.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	mediaID := resp["media_id"].(string)

	del := httptest.NewRequest(http.MethodDelete, "/media/"+mediaID, nil)
	dw := httptest.NewRecorder()
	router.ServeHTTP(dw, del)
	r.Equal(http.StatusOK, dw.Code)

	get := httptest.NewRequest(http.MethodGet, "/media/"+mediaID, nil)
	gw := httptest.NewRecorder()
	router.ServeHTTP(gw, get)
	r.Equal(http.StatusNotFound, gw.Code)
}

func TestHealthEndpoint(t *testing.T) {
	r := require.New(t)
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	r.Equal(http.StatusOK, w.Code)

	var resp map[string]interface{}
	r.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	r.Equal("healthy", resp["status"])
	r.Contains(resp, "timestamp")
}
