package helpers

import (
	"net/http"

	"github.com/farellandr/seatbook/internal/inventory"
	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func HTTPStatusText(code int) string {
	return http.StatusText(code)
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   HTTPStatusText(statusCode),
		Message: customMessage,
	})
}

func StatusForError(err error) int {
	switch inventory.KindOf(err) {
	case inventory.KindValidation, inventory.KindCapacityExceeded:
		return http.StatusBadRequest
	case inventory.KindNotFound:
		return http.StatusNotFound
	case inventory.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithInventoryError writes err with its mapped status. Internal
// causes are attached to the gin context for the request logger only.
func RespondWithInventoryError(c *gin.Context, err error) {
	status := StatusForError(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	RespondWithError(c, status, inventory.PublicMessage(err))
}
