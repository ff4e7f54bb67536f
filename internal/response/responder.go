// Package response renders JSON API responses and keeps error details out
// of client answers unless debug mode is on.
package response

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

type Responder struct {
	// DebugMode exposes raw error messages to clients. Off in production:
	// clients get an opaque error id that can be matched against the log.
	DebugMode bool
}

// RespondAndLogError responds with a generic 500 and logs the error.
func (rr *Responder) RespondAndLogError(w http.ResponseWriter, ctx context.Context, err error) {
	rr.RespondAndLogCustom(w, ctx, err, slog.LevelError, http.StatusInternalServerError)
}

// RespondAndLogCustom responds with the given status and logs at the given level.
func (rr *Responder) RespondAndLogCustom(w http.ResponseWriter, ctx context.Context, err error, lvl slog.Level, status int) {
	errID := uuid.NewString()
	slog.Log(ctx, lvl, err.Error(), slog.String("err_id", errID))
	rr.renderError(w, ctx, status, err.Error(), errID)
}

// SendJson marshals data and writes it with a JSON content type.
func (rr *Responder) SendJson(w http.ResponseWriter, ctx context.Context, data any) {
	bs, err := json.Marshal(data)
	if err != nil {
		rr.RespondAndLogError(w, ctx, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = io.Copy(w, bytes.NewReader(bs))
}

func (rr *Responder) renderError(w http.ResponseWriter, ctx context.Context, status int, message, errID string) {
	data := map[string]any{}

	if rr.DebugMode {
		data["error"] = message
	} else {
		data["error"] = "Unknown error occurred while processing your request. Error ID: " + errID
	}
	data["error_id"] = errID

	bs, err := json.Marshal(data)
	if err == nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	} else {
		slog.Log(ctx, slog.LevelError, "cannot marshal error response body: "+err.Error())
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		bs = []byte("unknown error")
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.Copy(w, bytes.NewReader(bs))
}
