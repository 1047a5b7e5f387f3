package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careaxis/clinic-api/pkg/apperror"
	"github.com/careaxis/clinic-api/pkg/validator"
)

// Response wraps all API responses.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RespondWithSuccess sends a success response.
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Status: "success", Data: data})
}

// RespondWithCreated sends a success response for a newly created resource.
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Status: "success", Data: data})
}

// RespondWithError maps an error to its HTTP status and public message.
// Internal errors are additionally recorded on the gin context so the
// error-handling middleware can log them with request context.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperror.From(err)
	if appErr.Kind == apperror.KindInternal {
		_ = c.Error(err)
	}
	c.JSON(appErr.HTTPStatus(), Response{
		Status:  "error",
		Message: appErr.Public(),
	})
}

// RespondWithBindError reports a malformed request body or parameter.
func RespondWithBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{
		Status:  "error",
		Message: validator.Message(err),
	})
}
