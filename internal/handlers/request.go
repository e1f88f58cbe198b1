package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hanko-field/orders/internal/platform/auth"
	"github.com/hanko-field/orders/internal/platform/httpx"
	"github.com/hanko-field/orders/internal/services"
)

const defaultMaxBodyBytes = 64 * 1024

// decodeJSONBody reads exactly one JSON document into dst and writes the error response
// itself when decoding fails.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	ctx := r.Context()
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	reader := http.MaxBytesReader(w, r.Body, limit)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(ctx, w, httpx.NewError(httpx.CodePayloadTooLarge, fmt.Sprintf("request body exceeds %d bytes", limit), http.StatusRequestEntityTooLarge))
			return false
		}
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeValidation, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest))
		return false
	}
	if decoder.More() {
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeValidation, "invalid request body: extraneous data", http.StatusBadRequest))
		return false
	}
	return true
}

// actorFromContext converts the authenticated identity into a service actor. Anonymous
// requests yield the zero Actor.
func actorFromContext(ctx context.Context) services.Actor {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return services.Actor{}
	}
	return services.Actor{ID: strings.TrimSpace(identity.UID), Roles: identity.Roles}
}

// requireCapability writes a 401 or 403 response when the caller lacks capability.
func requireCapability(w http.ResponseWriter, r *http.Request, capability auth.Capability) (services.Actor, bool) {
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeUnauthorized, "authentication required", http.StatusUnauthorized))
		return services.Actor{}, false
	}
	if !identity.Can(capability) {
		httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeForbidden, "insufficient permissions for this operation", http.StatusForbidden))
		return services.Actor{}, false
	}
	return services.Actor{ID: identity.UID, Roles: identity.Roles}, true
}
