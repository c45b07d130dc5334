package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jan-server/services/chat-ui/internal/utils/platformerrors"
)

// ErrorResponse represents an error response with platform error details
type ErrorResponse struct {
	Code          string `json:"code,omitempty"` // UUID from PlatformError
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	ErrorInstance error  `json:"-"`
	RequestID     string `json:"request_id,omitempty"`
}

// SuccessResponse acknowledges a state change.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// HandleError handles domain errors and returns appropriate HTTP responses
func HandleError(reqCtx *gin.Context, err error, message string) {
	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		statusCode := platformerrors.ErrorTypeToHTTPStatus(domainErr.GetErrorType())
		reqCtx.AbortWithStatusJSON(statusCode, ErrorResponse{
			Code:          domainErr.GetUUID(),
			Error:         message,
			Message:       message,
			ErrorInstance: domainErr,
			RequestID:     domainErr.GetRequestID(),
		})
		return
	}
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error:         message,
		Message:       message,
		ErrorInstance: err,
	})
}

// HandleUpstreamError reports a failed call through the gateway. The browser
// client renders the error field verbatim, so it carries the innermost cause
// and the status is always 500.
func HandleUpstreamError(reqCtx *gin.Context, err error) {
	_ = reqCtx.Error(err)
	resp := ErrorResponse{
		Error:         Cause(err),
		ErrorInstance: err,
	}
	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		resp.Code = domainErr.GetUUID()
		resp.RequestID = domainErr.GetRequestID()
	}
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, resp)
}

// HandleNewError creates a new typed error at the route layer and handles it
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string, uuid string) {
	err := platformerrors.NewError(reqCtx.Request.Context(), platformerrors.LayerRoute, errorType, message, nil, uuid)
	reqCtx.AbortWithStatusJSON(platformerrors.ErrorTypeToHTTPStatus(err.GetErrorType()), ErrorResponse{
		Code:          err.GetUUID(),
		Error:         message,
		Message:       message,
		ErrorInstance: err,
		RequestID:     err.GetRequestID(),
	})
}

// Cause returns the message of the innermost platform error, or the plain
// error text when err carries none.
func Cause(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		if pe, ok := cur.(*platformerrors.PlatformError); ok {
			msg = pe.Message
			if pe.Err != nil {
				if _, nested := pe.Err.(*platformerrors.PlatformError); !nested {
					msg = pe.Message + ": " + pe.Err.Error()
				}
			}
		}
	}
	return msg
}
