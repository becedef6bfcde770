package handler

import (
	"log"
	"net/http"
	"strconv"

	"carrental/internal/apperrors"
	"carrental/pkg/response"

	"github.com/gin-gonic/gin"
)

// fail maps a service error onto the response envelope. Store failures are
// logged and replaced with a generic message; classified errors pass their
// message through verbatim so the caller can correct the input.
func fail(c *gin.Context, err error) {
	status := apperrors.StatusCode(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Println("internal error:", err)
		msg = "An internal error occurred. Please try again."
	}
	c.JSON(status, response.Error(status, msg))
}

// pathID parses the numeric :id path parameter.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid id"))
		return 0, false
	}
	return uint(id), true
}
