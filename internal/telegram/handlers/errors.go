package handlers

import (
	"context"
	"errors"
	"net"

	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota
	SeverityError
)

func (s ErrorSeverity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// HandlerError pairs the text shown to the user with what goes to the log.
type HandlerError struct {
	Err         error
	UserMessage string
	LogMessage  string
	Severity    ErrorSeverity
}

func classifyHandlerError(err error) *HandlerError {
	switch {
	case err == nil:
		return &HandlerError{UserMessage: MsgGenericError, LogMessage: "unknown error", Severity: SeverityWarning}
	case errors.Is(err, entity.ErrMissingField):
		return &HandlerError{Err: err, UserMessage: MsgEmptyMessage, LogMessage: "empty message", Severity: SeverityWarning}
	case errors.Is(err, entity.ErrMessageTooLong):
		return &HandlerError{Err: err, UserMessage: MsgMessageTooLong, LogMessage: "message too long", Severity: SeverityWarning}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &HandlerError{Err: err, UserMessage: MsgTimeout, LogMessage: "operation timed out", Severity: SeverityError}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &HandlerError{Err: err, UserMessage: MsgTimeout, LogMessage: "network timeout", Severity: SeverityError}
		}
		return &HandlerError{Err: err, UserMessage: MsgNetworkIssue, LogMessage: "network error", Severity: SeverityError}
	}

	return &HandlerError{Err: err, UserMessage: MsgGenericError, LogMessage: "handler error", Severity: SeverityError}
}

// HandleError logs err and tells the user something short about it.
func (h *ChatHandler) HandleError(ctx context.Context, chatID int64, err error) {
	if err == nil {
		return
	}

	handlerErr := classifyHandlerError(err)

	switch handlerErr.Severity {
	case SeverityError:
		ctxzap.Error(ctx, handlerErr.LogMessage, zap.Error(handlerErr.Err), zap.Int64("chat_id", chatID))
	default:
		ctxzap.Warn(ctx, handlerErr.LogMessage, zap.Error(handlerErr.Err), zap.Int64("chat_id", chatID))
	}

	_ = h.sender.Send(chatID, handlerErr.UserMessage)
}
