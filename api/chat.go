package api

import (
	"encoding/json"
	"net/http"

	"saturday/internal/log"
)

// ChatRequest is the chat endpoint's request body. SessionID continues
// an earlier conversation; when absent a new session is created and its
// ID returned in the X-Session-Id header. UseWeb is a front-end hint
// only; the router's own phrase detection decides whether the web is
// actually used.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	UseWeb    bool   `json:"use_web,omitempty"`
}

// ChatHandler streams answers over SSE.
type ChatHandler struct {
	sessions *SessionRegistry
	logger   log.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(sessions *SessionRegistry, logger log.Logger) *ChatHandler {
	return &ChatHandler{sessions: sessions, logger: logger}
}

// RegisterRoutes registers the chat endpoint.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.handleChat)
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "invalid request", "message is required")
		return
	}

	sessionID, responder := h.sessions.Acquire(req.SessionID)
	w.Header().Set("X-Session-Id", sessionID)

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", err.Error())
		return
	}

	reply, err := responder.Respond(r.Context(), req.Message)
	if err != nil {
		h.logger.Error("query routing failed", "session", sessionID, "error", err)
		_ = sse.send(chatEvent{Type: "error", Message: err.Error()})
		return
	}

	for fragment, err := range reply.Stream {
		if err != nil {
			h.logger.Error("stream failed", "session", sessionID, "error", err)
			_ = sse.send(chatEvent{Type: "error", Message: err.Error()})
			return
		}
		if sendErr := sse.send(chatEvent{Type: "chunk", Content: fragment}); sendErr != nil {
			// Client went away; stop consuming so history is not updated
			// for a partially delivered answer.
			h.logger.Debug("client disconnected", "session", sessionID, "error", sendErr)
			return
		}
	}

	if len(reply.Sources) > 0 {
		if err := sse.send(chatEvent{Type: "sources", Sources: reply.Sources}); err != nil {
			return
		}
	}
	_ = sse.send(chatEvent{Type: "done"})
}
