package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

type conversationMessage struct {
	MessageID string    `json:"message_id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	SQL       string    `json:"sql,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type conversationResponse struct {
	SessionID string                `json:"session_id"`
	Messages  []conversationMessage `json:"messages"`
}

func handleListConversation(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Conversations == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CONVERSATIONS_NOT_CONFIGURED", "conversation dependencies are not configured", false, nil)
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

	sessionID := strings.TrimSpace(r.PathValue("session"))
	if sessionID == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SESSION_REQUIRED", "session id is required", false, nil)
		return
	}

	limit := deps.HistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer", false, nil)
			return
		}
		limit = parsed
	}

	messages, err := deps.Conversations.ListSession(r.Context(), tenantID, sessionID, limit)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "CONVERSATION_READ_FAILED", "failed to list conversation", true, map[string]any{"details": err.Error()})
		return
	}

	out := make([]conversationMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, conversationMessage{
			MessageID: msg.MessageID,
			Role:      string(msg.Role),
			Text:      msg.Text,
			SQL:       msg.SQL,
			CreatedAt: msg.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, conversationResponse{SessionID: sessionID, Messages: out})
}
