package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/ze-tech/passbold/api"
	internalctx "github.com/ze-tech/passbold/internal/context"
	"github.com/ze-tech/passbold/internal/validation"
	"go.uber.org/zap"
)

// RespondJSON writes data to w wrapped in the standard response envelope.
// The envelope status always matches the HTTP status code sent before.
func RespondJSON(w http.ResponseWriter, data any) {
	RespondJSONStatus(w, http.StatusOK, data)
}

func RespondJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	envelope := api.ResponseEnvelope{
		Header: api.ResponseHeader{Status: status},
		Body:   data,
	}
	_ = json.NewEncoder(w).Encode(envelope)
}

// RespondJSONMessage is for responses that carry no body beyond a
// human-readable message, e.g. redirect-style no-ops for JSON callers.
func RespondJSONMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	envelope := api.ResponseEnvelope{
		Header: api.ResponseHeader{Status: status, Message: message},
	}
	_ = json.NewEncoder(w).Encode(envelope)
}

// JsonBody decodes the request body into T, responding with 400 itself when
// the body is malformed. Callers only need to return on error.
func JsonBody[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var result T
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		RespondJSONStatus(w, http.StatusBadRequest, api.ValidationErrorBody{
			Message: "could not parse request body",
		})
		return result, err
	}
	return result, nil
}

func respondValidationError(w http.ResponseWriter, err *validation.Error) {
	RespondJSONStatus(w, http.StatusBadRequest, api.ValidationErrorBody{
		Message: err.Message,
		Details: err.Details,
	})
}

func respondInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	internalctx.GetLogger(ctx).Error(msg, zap.Error(err))
	sentry.GetHubFromContext(ctx).CaptureException(err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// IsJSONRequest reports whether the client asked for a JSON rendition of the
// response via the Accept header.
func IsJSONRequest(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
