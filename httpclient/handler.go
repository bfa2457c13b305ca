package httpclient

import (
	"net/http"

	"github.com/consultdesk/apiclient/logger"
	"github.com/consultdesk/apiclient/notify"
)

// HandleOptions selects what ErrorHandler.Handle does with a failure.
type HandleOptions struct {
	// ShowAlert shows a user-facing error alert.
	ShowAlert bool
	// LogError logs the failure.
	LogError bool
	// Fallback is called with the normalized error when set.
	Fallback func(*Error)
}

// DefaultHandleOptions alerts and logs, with no fallback.
func DefaultHandleOptions() HandleOptions {
	return HandleOptions{ShowAlert: true, LogError: true}
}

// ErrorHandler is the opt-in helper callers use to surface failures.
// The Client never calls it.
type ErrorHandler struct {
	notifier notify.Notifier
	log      *logger.Logger
}

// NewErrorHandler creates a handler. A nil notifier disables alerts.
func NewErrorHandler(n notify.Notifier, log *logger.Logger) *ErrorHandler {
	if log == nil {
		log = logger.WithComponent("httpclient")
	}
	return &ErrorHandler{notifier: n, log: log}
}

// Handle normalizes err and applies opts. It returns nil for a nil err.
func (h *ErrorHandler) Handle(err error, opts HandleOptions) *Error {
	if err == nil {
		return nil
	}
	e, ok := AsError(err)
	if !ok {
		e = &Error{Code: ErrCodeUnknown, Message: err.Error(), Err: err}
	}

	if opts.LogError {
		h.log.Error(e.Message, logger.Fields(
			logger.FieldKind, e.Code.String(),
			logger.FieldStatus, e.Status,
			logger.FieldError, e.Error(),
		))
	}
	if opts.ShowAlert && h.notifier != nil {
		h.notifier.Show(notify.KindError, UserMessage(e))
	}
	if opts.Fallback != nil {
		opts.Fallback(e)
	}
	return e
}

// UserMessage picks the text to show for a failure: a backend-provided
// "message" in a JSON object body wins, then a status- or code-specific
// sentence, then the normalized message.
func UserMessage(e *Error) string {
	if body, ok := e.Data.(map[string]any); ok {
		if msg, ok := body["message"].(string); ok && msg != "" {
			return msg
		}
	}
	switch e.Code {
	case ErrCodeTimeout:
		return "The request took too long. Please try again."
	case ErrCodeNetwork:
		return "Unable to reach the server. Please check your connection."
	case ErrCodeParse:
		return "The server sent a response that could not be read."
	case ErrCodeHTTPStatus:
		switch {
		case e.Status == http.StatusUnauthorized:
			return "Your session has expired. Please log in again."
		case e.Status == http.StatusForbidden:
			return "You don't have permission to perform this action."
		case e.Status == http.StatusNotFound:
			return "The requested resource was not found."
		case e.Status == http.StatusTooManyRequests:
			return "Too many requests. Please wait a moment and try again."
		case e.Status >= 500:
			return "An unexpected server error occurred. Please try again."
		}
	}
	return e.Message
}
