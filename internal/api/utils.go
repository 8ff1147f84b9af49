package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// WriteJSONResponse encodes the data to JSON and writes the response header and body.
func WriteJSONResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	js, err := json.Marshal(data)
	if err != nil {
		reqID := middleware.GetReqID(r.Context())
		slog.ErrorContext(r.Context(), "Failed to marshal JSON response",
			slog.Any("error", err),
			slog.String("request_id", reqID),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(js); err != nil {
		slog.ErrorContext(r.Context(), "Failed to write response body",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	}
}

// ServerError writes the legacy 500 body: a bare JSON string carrying the raw
// error text ("Error: <msg>"), not wrapped in an object. Existing consumers
// parse this exact shape.
func ServerError(w http.ResponseWriter, r *http.Request, err error) {
	WriteJSONResponse(w, r, http.StatusInternalServerError, fmt.Sprintf("Error: %s", err.Error()))
}

// NotFound writes the 404 body used by every read/write that matched no rows:
// {"status": "<localized message>"}.
func NotFound(w http.ResponseWriter, r *http.Request, message string) {
	WriteJSONResponse(w, r, http.StatusNotFound, map[string]string{"status": message})
}

// NotFoundMessage is the {"message": ...} variant used by the reset-password
// lookup.
func NotFoundMessage(w http.ResponseWriter, r *http.Request, message string) {
	WriteJSONResponse(w, r, http.StatusNotFound, map[string]string{"message": message})
}

// Unauthorized writes the 401 body used by the ownership guard:
// {"message": "<localized message>"}.
func Unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	WriteJSONResponse(w, r, http.StatusUnauthorized, map[string]string{"message": message})
}

// BadRequest writes a 400 with {"error": "<message>"}.
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	WriteJSONResponse(w, r, http.StatusBadRequest, map[string]string{"error": message})
}

// DecodeJSONBody reads and decodes a JSON request body safely. Unknown fields
// are tolerated, matching the lenient body parsing of the previous backend.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		default:
			return fmt.Errorf("error decoding JSON body: %w", err)
		}
	}

	if err = dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}
