package middleware

import "github.com/gin-gonic/gin"

// abortJSON stops the chain with the API error envelope.
func abortJSON(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"success": false, "message": message})
}
