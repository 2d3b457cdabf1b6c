package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	errx "github.com/maleon-core-poc/server/internal/core/error"
	"github.com/maleon-core-poc/server/internal/dispatch"
	logx "github.com/maleon-core-poc/server/pkg/logger"
)

// ChatDispatcher answers one chat request; it never fails.
type ChatDispatcher interface {
	Handle(ctx context.Context, req dispatch.ChatRequest) dispatch.ChatResponse
}

type ChatHandlers struct {
	Chat ChatDispatcher
	// MaxBodyBytes bounds the request body; 0 means 64 KiB.
	MaxBodyBytes int64
}

func (h *ChatHandlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = 64 << 10
	}

	var req dispatch.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit)).Decode(&req); err != nil {
		writeError(w, errx.BadRequest(err))
		return
	}
	if err := validate(req); err != nil {
		writeError(w, errx.BadRequest(err))
		return
	}

	writeJSON(w, http.StatusOK, h.Chat.Handle(r.Context(), req))
}

func validate(req dispatch.ChatRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return errors.New("text is required")
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return errors.New("session_id is required")
	}
	return nil
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	status := errx.StatusOf(err)
	body := errorBody{Error: errx.MessageOf(err)}
	if status < http.StatusInternalServerError {
		var appErr *errx.AppError
		if errors.As(err, &appErr) && appErr.Err != nil {
			body.Detail = appErr.Err.Error()
		}
	} else {
		logx.Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Warn().Err(err).Msg("write response")
	}
}
