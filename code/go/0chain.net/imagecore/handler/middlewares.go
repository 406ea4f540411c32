package handler

import (
	"net/http"

	"github.com/gorilla/handlers"
	"go.uber.org/zap"

	"github.com/0chain/imagestore/code/go/0chain.net/core/logging"
)

// UseCORS - CORS middleware for the outer router.
func UseCORS() func(http.Handler) http.Handler {
	headersOk := handlers.AllowedHeaders([]string{
		"X-Requested-With", "X-App-User-ID",
		"Idempotency-Key", "BTL-Days", "Content-Type",
	})

	// Allow anybody to access the API.
	originsOk := handlers.AllowedOrigins([]string{"*"})

	methodsOk := handlers.AllowedMethods([]string{"GET", "HEAD", "POST",
		"DELETE", "OPTIONS"})

	return handlers.CORS(originsOk, headersOk, methodsOk)
}

func useRecovery(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logging.Logger.Error("[recover]http", zap.String("url", r.URL.String()), zap.Any("err", err))
				w.WriteHeader(http.StatusInternalServerError)
			}
		}()

		h.ServeHTTP(w, r)
	})
}
