// Package httpapi is the command/query ingress (section 6): two POST
// endpoints, one dispatching `{type, payload}` envelopes to a command
// service method, the other dispatching `{type, params}` envelopes to
// a view query. Grounded on the teacher's case/api/http.go handler
// shape (writeJSON/writeError envelope helpers, *errors.AppError
// status mapping), generalized from per-route REST handlers to a
// single type-keyed dispatch table since the spec names the ingress
// as one endpoint pair, not a resource-per-route API.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/meridian-commerce/core/internal/command"
	apperrors "github.com/meridian-commerce/core/internal/shared/errors"
	"github.com/meridian-commerce/core/internal/views"
)

type Handler struct {
	commands *command.Service
	views    *views.Service
}

func NewHandler(commands *command.Service, viewsSvc *views.Service) *Handler {
	return &Handler{commands: commands, views: viewsSvc}
}

type commandEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type queryEnvelope struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params"`
}

type commandFunc func(ctx context.Context, s *command.Service, payload json.RawMessage) (any, error)
type queryFunc func(ctx context.Context, s *views.Service, params json.RawMessage) (any, error)

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, apperrors.Validation("payload is required", nil)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, apperrors.Validation("malformed payload: "+err.Error(), nil)
	}
	return v, nil
}

// HandleCommand is the command ingress: POST {type, payload}.
func (h *Handler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var env commandEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, apperrors.Validation("malformed request body", nil))
		return
	}
	fn, ok := commandRegistry[env.Type]
	if !ok {
		writeError(w, apperrors.Validation(fmt.Sprintf("unknown command type %q", env.Type), map[string]string{"type": env.Type}))
		return
	}
	data, err := fn(r.Context(), h.commands, env.Payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

// HandleQuery is the query ingress: POST {type, params}.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var env queryEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, apperrors.Validation("malformed request body", nil))
		return
	}
	fn, ok := queryRegistry[env.Type]
	if !ok {
		writeError(w, apperrors.Validation(fmt.Sprintf("unknown query type %q", env.Type), map[string]string{"type": env.Type}))
		return
	}
	data, err := fn(r.Context(), h.views, env.Params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps a categorized *errors.AppError onto the envelope's
// error.kind/message and the matching HTTP status; anything else
// (a programmer error, not a categorized failure) becomes a plain
// internal error so the caller never sees a stack trace.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if appErr, ok := err.(*apperrors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   map[string]any{"message": appErr.Message, "kind": appErr.Kind, "details": appErr.Details},
		})
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   map[string]any{"message": "internal error", "kind": apperrors.KindInternal},
	})
}
