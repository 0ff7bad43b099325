package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const problemBaseURL = "https://call-router.dev/problems"

// ProblemDetail represents an RFC 7807 Problem Details response
type ProblemDetail struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	TraceID  string            `json:"trace_id,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// ErrorResponse sends a problem+json error response
func ErrorResponse(c *gin.Context, status int, title, detail string) {
	write(c, ProblemDetail{Status: status, Title: title, Detail: detail})
}

func write(c *gin.Context, problem ProblemDetail) {
	traceID := c.GetString("trace_id")
	if traceID == "" {
		traceID = c.GetString("request_id")
	}
	problem.Type = problemType(problem.Status)
	problem.TraceID = traceID
	problem.Instance = c.Request.URL.Path

	c.Header("Content-Type", "application/problem+json")
	c.AbortWithStatusJSON(problem.Status, problem)
}

// InternalError logs and sends a 500 error
func InternalError(c *gin.Context, err error, logger *zap.Logger) {
	logger.Error("Internal server error",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)

	ErrorResponse(c, http.StatusInternalServerError,
		"Internal Server Error",
		"An unexpected error occurred. Please try again later.",
	)
}

func BadRequest(c *gin.Context, detail string) {
	ErrorResponse(c, http.StatusBadRequest, "Bad Request", detail)
}

func Unauthorized(c *gin.Context, detail string) {
	ErrorResponse(c, http.StatusUnauthorized, "Unauthorized", detail)
}

func NotFound(c *gin.Context, detail string) {
	ErrorResponse(c, http.StatusNotFound, "Not Found", detail)
}

func TooManyRequests(c *gin.Context, detail string) {
	ErrorResponse(c, http.StatusTooManyRequests, "Too Many Requests", detail)
}

func ServiceUnavailable(c *gin.Context, detail string) {
	ErrorResponse(c, http.StatusServiceUnavailable, "Service Unavailable", detail)
}

// ValidationFailed sends a 422 listing the offending fields
func ValidationFailed(c *gin.Context, fields map[string]string) {
	write(c, ProblemDetail{
		Status: http.StatusUnprocessableEntity,
		Title:  "Validation Failed",
		Detail: "one or more fields are invalid",
		Fields: fields,
	})
}

func problemType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return problemBaseURL + "/bad-request"
	case http.StatusUnauthorized:
		return problemBaseURL + "/unauthorized"
	case http.StatusNotFound:
		return problemBaseURL + "/not-found"
	case http.StatusUnprocessableEntity:
		return problemBaseURL + "/validation-failed"
	case http.StatusTooManyRequests:
		return problemBaseURL + "/rate-limit-exceeded"
	case http.StatusServiceUnavailable:
		return problemBaseURL + "/unavailable"
	case http.StatusInternalServerError:
		return problemBaseURL + "/internal-error"
	default:
		return problemBaseURL + "/error"
	}
}
