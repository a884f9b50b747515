package http

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/mrlokans/bookcatalog/internal/apperr"
	"github.com/mrlokans/bookcatalog/internal/logger"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// FieldError describes one failed binding rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// MessageResponse is returned by endpoints that only acknowledge an action.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// --- Error Response Helpers ---

// respondError maps err onto its status code. Coded errors keep their message;
// anything else is logged and reported as a bare 500.
func respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		respondInternalError(c, err)
		return
	}

	if appErr.Code == apperr.CodeInternal {
		respondInternalError(c, err)
		return
	}
	if appErr.Code == apperr.CodeUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.JSON(appErr.HTTPStatus(), ErrorResponse{
		Error:   appErr.Message,
		Code:    string(appErr.Code),
		Details: appErr.Details,
	})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error) {
	logger.FromContext(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("internal error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: "internal server error",
		Code:  string(apperr.CodeInternal),
	})
}

// respondBindError reports a request that could not be decoded or failed its
// binding rules as 422 with per-field details.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		}
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "request validation failed",
			Code:    string(apperr.CodeValidation),
			Details: details,
		})
		return
	}

	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error: "malformed request: " + err.Error(),
		Code:  string(apperr.CodeValidation),
	})
}

// --- Success Response Helpers ---

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, data)
}

// --- Parameter Parsing ---

// requireQuery extracts a mandatory query parameter.
// Responds with a 400 error and returns "", false when it is missing.
func requireQuery(c *gin.Context, name string) (string, bool) {
	value := c.Query(name)
	if value == "" {
		respondError(c, apperr.Validation(name+" is required"))
		return "", false
	}
	return value, true
}

// useWireFieldNames makes validation errors report json (or form) names
// instead of Go struct field names. gin's validator is process-wide, so the
// registration happens once no matter how many routers are built.
var useWireFieldNames = sync.OnceFunc(func() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
})
