package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/praxisgrc/praxis/internal/application/dto"
	"github.com/praxisgrc/praxis/pkg/errors"
)

// writeError maps a service error onto the wire shape. Unknown error types
// surface as an opaque internal error.
func writeError(c *gin.Context, err error) {
	var perr errors.PraxisError
	if stderrors.As(err, &perr) {
		c.JSON(perr.HTTPStatus(), dto.ErrorResponse{
			Code:    string(perr.Code()),
			Message: perr.Description(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Code:    "internal",
		Message: "internal error",
	})
}
