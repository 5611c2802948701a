// Package httperr classifies errors into the API error taxonomy and
// converts them to HTTP responses at the request boundary.
package httperr

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
)

// Kind is the class of an API error.
type Kind int

const (
	// KindInternal is anything not classified, including upload and database failures.
	KindInternal Kind = iota
	// KindValidation is malformed or missing client input.
	KindValidation
	// KindNotFound means no document exists for the given identifier.
	KindNotFound
	// KindUnauthorized means the caller is not an authenticated admin.
	KindUnauthorized
	// KindTooManyRequests means the caller is temporarily locked out.
	KindTooManyRequests
)

// internalMessage is the only message a client ever sees for KindInternal.
const internalMessage = "Internal Server Error"

// Error is a classified error. Message is safe to return to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation returns a KindValidation error
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NotFound returns a KindNotFound error
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Unauthorized returns a KindUnauthorized error
func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// TooManyRequests returns a KindTooManyRequests error
func TooManyRequests(msg string) error {
	return &Error{Kind: KindTooManyRequests, Message: msg}
}

// Wrap classifies err as kind, keeping err as the cause for server-side logs.
func Wrap(kind Kind, err error, msg string) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain,
// unclassified errors are KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

// Status maps err to an HTTP status code and a client-facing message.
func Status(err error) (int, string) {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, internalMessage
	}

	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest, e.Message
	case KindNotFound:
		return http.StatusNotFound, e.Message
	case KindUnauthorized:
		return http.StatusUnauthorized, e.Message
	case KindTooManyRequests:
		return http.StatusTooManyRequests, e.Message
	default:
		return http.StatusInternalServerError, internalMessage
	}
}

// Response is the body of every failed request.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Abort writes the terminal response for err and stops the handler chain.
// Internal errors are logged with their cause and never leak detail to the client.
func Abort(ctx *gin.Context, err error) {
	status, msg := Status(err)
	logger := gmw.GetLogger(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.Error(err),
			zap.String("path", ctx.Request.URL.Path))
	} else {
		logger.Debug("request rejected",
			zap.Error(err),
			zap.Int("status", status))
	}

	ctx.AbortWithStatusJSON(status, Response{Success: false, Message: msg})
}
