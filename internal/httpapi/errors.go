package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/workcity/chat-service/internal/chat"
)

// errorBody is the machine-checkable error envelope: clients branch on
// error.code, message is for humans.
func errorBody(code, message string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": message}}
}

// respondError maps the domain error taxonomy to HTTP statuses:
// validation 400, authorization 403, not-found 404, everything else 500.
func (a *API) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrValidation):
		c.JSON(http.StatusBadRequest, errorBody("validation_error", err.Error()))
	case errors.Is(err, chat.ErrUnauthorized):
		c.JSON(http.StatusForbidden, errorBody("forbidden", err.Error()))
	case errors.Is(err, chat.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody("not_found", err.Error()))
	default:
		a.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorBody("internal", "internal error"))
	}
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// sessionIDParam parses the :id path parameter.
func sessionIDParam(c *gin.Context) (int64, bool) {
	id, err := parseID(c.Param("id"))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, errorBody("validation_error", "invalid session id"))
		return 0, false
	}
	return id, true
}
