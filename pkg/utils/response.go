package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *AppError   `json:"error,omitempty"`
	Source  string      `json:"source,omitempty"`
}

// SendSuccess writes a bare success envelope.
func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// SendSuccessFrom writes a success envelope tagged with the computation
// provenance ("cache" or "live").
func SendSuccessFrom(c *gin.Context, data interface{}, source string) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
		Source:  source,
	})
}

func SendError(c *gin.Context, statusCode int, err *AppError) {
	c.JSON(statusCode, Response{
		Success: false,
		Error:   err,
	})
}

func SendValidationError(c *gin.Context, message string, details string) {
	SendError(c, http.StatusBadRequest, NewAppError(ErrCodeValidation, message, details))
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, NewAppError(ErrCodeNotFound, message))
}

func SendInternalError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, NewAppError(ErrCodeInternal, message))
}

func SendStoreUnavailable(c *gin.Context, message string) {
	SendError(c, http.StatusServiceUnavailable, NewAppError(ErrCodeStoreUnavailable, message))
}

// SendInsufficientData reports a statistic that cannot be computed from the
// athlete's available history. Distinct from validation: the request was
// well formed, the data was not there.
func SendInsufficientData(c *gin.Context, message string) {
	SendError(c, http.StatusUnprocessableEntity, NewAppError(ErrCodeInsufficientData, message))
}

func SendRateLimited(c *gin.Context) {
	SendError(c, http.StatusTooManyRequests, NewAppError(ErrCodeRateLimited, "Too many requests"))
}
