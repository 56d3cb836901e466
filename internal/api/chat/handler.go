package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/futig/fundqa-bot/internal/api/middleware"
	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/futig/fundqa-bot/internal/pkg/logger"
	"github.com/futig/fundqa-bot/internal/pkg/response"
	"github.com/futig/fundqa-bot/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase   ChatUsecase
	validator *validator.Validator
}

func NewHandler(usecase ChatUsecase, validator *validator.Validator) *Handler {
	return &Handler{
		usecase:   usecase,
		validator: validator,
	}
}

// Chat handles POST /api/chat - ask a question within the user's conversation
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx, conversationID := h.conversation(r, "Chat")

	var req entity.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	message, err := h.validator.ValidateMessage(req.Message)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	exchange, err := h.usecase.Ask(ctx, conversationID, message)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	history, err := h.usecase.History(ctx, conversationID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, entity.ChatResponse{
		Answer:  exchange.Answer.Content,
		History: history,
	})
}

// Trace handles POST /api/chat/trace - run the pipeline and show intermediate values
func (h *Handler) Trace(w http.ResponseWriter, r *http.Request) {
	ctx, _ := h.conversation(r, "Trace")

	var req entity.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	message, err := h.validator.ValidateMessage(req.Message)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	trace, err := h.usecase.AnswerDetailed(ctx, message)
	if err != nil {
		ctxzap.Error(ctx, "chat pipeline failed", zap.Error(err))
		trace.Answer = entity.GenericChatError
	}

	response.Success(w, trace)
}

// History handles GET /api/chat/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	ctx, conversationID := h.conversation(r, "History")

	history, err := h.usecase.History(ctx, conversationID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, entity.HistoryResponse{History: history})
}

// ClearHistory handles DELETE /api/chat/history
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	ctx, conversationID := h.conversation(r, "ClearHistory")

	if err := h.usecase.ClearHistory(ctx, conversationID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.NoContent(w)
}

// ExportHistory handles GET /api/chat/history/export?format=markdown|pdf|docx
func (h *Handler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	ctx, conversationID := h.conversation(r, "ExportHistory")

	format, err := validator.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	file, err := h.usecase.ExportHistory(ctx, conversationID, format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Attachment(w, file.ContentType, file.Filename, file.Data)
}

// Stream handles POST /api/llm/stream - relay a raw model stream as server-sent events
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx, _ := h.conversation(r, "Stream")

	var req entity.StreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateStream(&req); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.respondError(ctx, w, http.StatusInternalServerError, "streaming unsupported", errors.New("response writer cannot flush"))
		return
	}

	stream, err := h.usecase.Stream(ctx, &req)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadGateway, "model unavailable", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for chunk := range stream {
		if chunk.Err != nil {
			ctxzap.Error(ctx, "model stream broken", zap.Error(chunk.Err))
			writeEvent(w, "error", map[string]string{"error": "stream interrupted"})
			flusher.Flush()
			return
		}
		writeEvent(w, "", map[string]string{"text": chunk.Text})
		flusher.Flush()
	}

	writeEvent(w, "done", struct{}{})
	flusher.Flush()
}

func writeEvent(w http.ResponseWriter, event string, data any) {
	payload, _ := json.Marshal(data)
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

func (h *Handler) conversation(r *http.Request, action string) (context.Context, string) {
	ctx := logger.WithAction(r.Context(), action)
	session, ok := middleware.SessionFromContext(ctx)
	if !ok {
		return ctx, ""
	}
	return ctx, middleware.ConversationID(session)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	ctxzap.Error(ctx, message, zap.Error(err))
	response.Error(w, status, message)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrMissingField), errors.Is(err, entity.ErrInvalidParameter):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	case errors.Is(err, entity.ErrMessageTooLong):
		h.respondError(ctx, w, http.StatusRequestEntityTooLarge, "message too long", err)
	case errors.Is(err, entity.ErrUnsupportedFormat):
		h.respondError(ctx, w, http.StatusBadRequest, "unsupported export format", err)
	case errors.Is(err, entity.ErrUnauthorized):
		h.respondError(ctx, w, http.StatusUnauthorized, "unauthorized", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
