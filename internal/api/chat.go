package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ventia/ventia/internal/auth"
	"github.com/ventia/ventia/internal/engine"
)

const roleChatUser = "chat_user"

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func handleChat(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Engine == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CHAT_NOT_CONFIGURED", "chat dependencies are not configured", false, nil)
		return
	}

	tenantID, err := tenantFromRequest(r)
	if err != nil {
		writeError(r.Context(), w, http.StatusUnauthorized, "TENANT_REQUIRED", err.Error(), false, nil)
		return
	}
	if err := requireRole(r, roleChatUser); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	var request chatRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid chat request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Message) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "MESSAGE_REQUIRED", "message is required", false, nil)
		return
	}

	answer, err := deps.Engine.Answer(r.Context(), engine.Utterance{
		TenantID:  tenantID,
		SessionID: strings.TrimSpace(request.SessionID),
		Text:      request.Message,
	})
	if err != nil {
		if errors.Is(err, engine.ErrExhaustedFallback) {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "QUERY_EXHAUSTED", answer.Reply, true, map[string]any{
				"session_id": answer.SessionID,
				"attempts":   answer.Attempts,
			})
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "CHAT_FAILED", "failed to answer message", true, map[string]any{"details": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

// tenantFromRequest resolves the tenant for the call. An authenticated
// identity always wins; the X-Tenant-ID header is honored only when the auth
// middleware is absent, and the prod profile forces Auth.Required on, so the
// header path never reaches production.
func tenantFromRequest(r *http.Request) (string, error) {
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		if strings.TrimSpace(identity.TenantID) != "" {
			return identity.TenantID, nil
		}
	}
	tenantID := strings.TrimSpace(r.Header.Get("X-Tenant-ID"))
	if tenantID == "" {
		return "", fmt.Errorf("tenant context is required")
	}
	return tenantID, nil
}

func requireRole(r *http.Request, role string) error {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil
	}
	if identity.HasRole(role) {
		return nil
	}
	return fmt.Errorf("missing required role %q", role)
}
