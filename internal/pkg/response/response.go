package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"labreserve/internal/pkg/apperror"
	"labreserve/internal/pkg/validator"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// BadRequest reports a body that failed to bind.
func BadRequest(c *gin.Context, err error) {
	if details := validator.FieldErrors(err); details != nil {
		ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", details)
		return
	}
	Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
}

// FromError writes workflow errors with their own status and code; anything
// else is an internal error and is attached to the context for the logger.
func FromError(c *gin.Context, err error) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		ErrorWithDetails(c, appErr.HTTPStatus(), appErr.Code, appErr.Message, gin.H{"kind": appErr.Kind})
		return
	}
	_ = c.Error(err)
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}
