package middleware

import (
	"github.com/gin-gonic/gin"

	ierr "github.com/invoiceflow/invoiceflow/internal/errors"
)

// ErrorHandler renders the last error attached to the gin context as the
// standard envelope, with the status derived from the sentinel mark
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			c.JSON(ierr.HTTPStatusFromErr(err), ierr.NewErrorResponse(err))
		}
	}
}
