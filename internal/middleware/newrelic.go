package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NoticeErrors reports errors attached with c.Error to the request's New
// Relic transaction. It must run after nrgin.Middleware.
func NoticeErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		txn := nrgin.Transaction(c)
		if txn == nil {
			return
		}
		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
