package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/invoiceflow/invoiceflow/internal/types"
)

// RequestID attaches a request id to the context, generating one when the
// caller did not supply an X-Request-ID header
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REQUEST)
		}

		ctx := types.SetRequestID(c.Request.Context(), requestID)
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			ctx = types.SetUserID(ctx, userID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}
