// Package handler is the thin HTTP layer over the media orchestrators.
// It parses requests, maps taxonomy errors to status codes and never
// carries correctness logic of its own.
package handler

import (
	"time"

	"github.com/didip/tollbooth/v6/limiter"
	"github.com/gorilla/mux"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/0chain/imagestore/code/go/0chain.net/core/common"
	"github.com/0chain/imagestore/code/go/0chain.net/core/logging"
	"github.com/0chain/imagestore/code/go/0chain.net/imagecore/media"
)

const (
	UploadRPS  = 5  // Upload Request Per Second
	GeneralRPS = 20 // General Request Per Second

	DefaultExpirationTTL = time.Minute * 5
)

var (
	uploadRL  *limiter.Limiter // upload Rate Limiter
	generalRL *limiter.Limiter // general Rate Limiter
)

var orchestrator *media.Orchestrator

// Setup injects the orchestrator the routes dispatch to.
func Setup(orch *media.Orchestrator) {
	orchestrator = orch
}

func ConfigRateLimits() {
	tokenExpirettl := viper.GetDuration("rate_limiters.default_token_expire_duration")
	if tokenExpirettl <= 0 {
		tokenExpirettl = DefaultExpirationTTL
	}

	ipLookups := []string{"RemoteAddr", "X-Forwarded-For", "X-Real-IP"}
	if viper.GetBool("rate_limiters.proxy") {
		ipLookups = []string{"X-Forwarded-For", "RemoteAddr", "X-Real-IP"}
	}

	uRps := viper.GetFloat64("rate_limiters.upload_rps")
	gRps := viper.GetFloat64("rate_limiters.general_rps")

	if uRps <= 0 {
		uRps = UploadRPS
	}
	if gRps <= 0 {
		gRps = GeneralRPS
	}

	logging.Logger.Info("Setting rps: ",
		zap.Float64("upload_rps", uRps),
		zap.Float64("general_rps", gRps),
	)

	uploadRL = common.GetRateLimiter(uRps, ipLookups, true, tokenExpirettl)
	generalRL = common.GetRateLimiter(gRps, ipLookups, true, tokenExpirettl)
}

func RateLimitByUploadRL(handler common.ReqRespHandlerf) common.ReqRespHandlerf {
	return common.RateLimit(handler, uploadRL)
}

func RateLimitByGeneralRL(handler common.ReqRespHandlerf) common.ReqRespHandlerf {
	return common.RateLimit(handler, generalRL)
}

/*SetupHandlers sets up the necessary API end points */
func SetupHandlers(r *mux.Router) {
	ConfigRateLimits()
	r.Use(useRecovery)

	r.HandleFunc("/media",
		RateLimitByUploadRL(common.ToJSONResponse(UploadHandler))).
		Methods("POST", "OPTIONS")

	r.HandleFunc("/media/{media_id}",
		RateLimitByGeneralRL(common.ToByteStream(DownloadHandler))).
		Methods("GET")

	r.HandleFunc("/media/{media_id}",
		RateLimitByGeneralRL(common.ToJSONResponse(DeleteHandler))).
		Methods("DELETE")

	r.HandleFunc("/quota",
		RateLimitByGeneralRL(common.ToJSONResponse(QuotaHandler))).
		Methods("GET")

	r.HandleFunc("/status/{idempotency_key}",
		RateLimitByGeneralRL(common.ToJSONResponse(StatusHandler))).
		Methods("GET")

	r.HandleFunc("/chunks/{media_id}",
		RateLimitByGeneralRL(common.ToJSONResponse(ChunksHandler))).
		Methods("GET")

	r.HandleFunc("/health",
		common.ToJSONResponse(HealthHandler)).
		Methods("GET")
}
