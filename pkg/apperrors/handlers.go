package apperrors

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// HandleError отправляет AppError клиенту в стандартном формате.
func HandleError(c *gin.Context, err *AppError) {
	if err.HTTPCode >= 500 {
		slog.Error("server error", "error", err.Error())
	}
	c.JSON(err.HTTPCode, ErrorResponse{Error: err})
}

// HandleUnknownError оборачивает произвольную ошибку и отправляет клиенту.
func HandleUnknownError(c *gin.Context, err error) {
	var appErr *AppError
	if As(err, &appErr) {
		HandleError(c, appErr)
		return
	}
	HandleError(c, InternalError(err))
}
