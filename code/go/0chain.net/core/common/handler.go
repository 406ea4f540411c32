package common

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/0chain/errors"
)

const (
	// AppErrorHeader - a http response header to send an application error code.
	AppErrorHeader = "X-App-Error-Code"

	// UserHeader carries the opaque user identifier for quota accounting.
	UserHeader = "X-App-User-ID"

	// IdempotencyKeyHeader identifies a logical upload attempt.
	IdempotencyKeyHeader = "Idempotency-Key"

	// BTLDaysHeader requests a time-to-live for the uploaded media, in days.
	BTLDaysHeader = "BTL-Days"
)

/*ReqRespHandlerf - a type for the default handler signature */
type ReqRespHandlerf func(w http.ResponseWriter, r *http.Request)

/*JSONResponderF - a handler that processes a request and responds with a json object or an error */
type JSONResponderF func(ctx context.Context, r *http.Request) (interface{}, error)

// StatusCoder is implemented by errors that carry their own HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

/*Respond - respond either data or error as a response */
func Respond(w http.ResponseWriter, data interface{}, err error) {
	w.Header().Set("Access-Control-Allow-Origin", "*") // CORS for all.
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if err != nil {
		resp := map[string]interface{}{"error": err.Error()}
		if code := errCode(err); code != "" {
			resp["code"] = code
			w.Header().Set(AppErrorHeader, code)
		}
		w.WriteHeader(statusFor(err))
		json.NewEncoder(w).Encode(resp) //nolint:errcheck // nothing left to do on encode failure
		return
	}
	if data != nil {
		json.NewEncoder(w).Encode(data) //nolint:errcheck
	}
}

/*ToJSONResponse - An adapter that takes a handler of the form
* func AHandler(ctx context.Context, r *http.Request) (interface{}, error)
* which takes a request object, processes and returns an object or an error
* and converts it into a standard request/response handler
 */
func ToJSONResponse(handler JSONResponderF) ReqRespHandlerf {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := handler(r.Context(), r)
		Respond(w, data, err)
	}
}

// RawResponse is what a byte-stream handler returns for the download path.
type RawResponse struct {
	Data        []byte
	ContentType string
	Filename    string
}

/*ToByteStream - adapter for handlers that serve raw reassembled bytes.
* Errors still go out as json with the taxonomy status code.
 */
func ToByteStream(handler func(ctx context.Context, r *http.Request) (*RawResponse, error)) ReqRespHandlerf {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := handler(r.Context(), r)
		if err != nil {
			Respond(w, nil, err)
			return
		}
		w.Header().Set("Content-Type", raw.ContentType)
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(raw.Data)))
		if raw.Filename != "" {
			w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", raw.Filename))
		}
		w.Write(raw.Data) //nolint:errcheck
	}
}

func errCode(err error) string {
	if cerr, ok := err.(*Error); ok {
		return cerr.Code
	}
	if cerr, ok := err.(*errors.Error); ok {
		return cerr.Code
	}
	if cur := errors.Unwrap(err); cur != nil && cur != err {
		return errCode(cur)
	}
	return ""
}

func statusFor(err error) int {
	if sc, ok := err.(StatusCoder); ok {
		return sc.HTTPStatus()
	}
	if cerr, ok := err.(*Error); ok && cerr.StatusCode != 0 {
		return cerr.StatusCode
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrIncomplete):
		return http.StatusNotFound
	case errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrUnsupportedType),
		errors.Is(err, ErrQuotaExceeded), errors.Is(err, ErrDuplicateKey):
		return http.StatusBadRequest
	case errors.Is(err, ErrStorage), errors.Is(err, ErrIntegrity):
		return http.StatusInternalServerError
	}
	if cerr, ok := err.(*Error); ok && cerr.Code == "invalid_request" {
		return http.StatusBadRequest
	}
	return http.StatusBadRequest
}
