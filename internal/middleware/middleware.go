// Package middleware provides the HTTP middleware stack.
package middleware

import (
	"github.com/gin-gonic/gin"
)

// Logger returns the request logging middleware.
func Logger() gin.HandlerFunc {
	return gin.Logger()
}

// Recovery returns the panic recovery middleware.
func Recovery() gin.HandlerFunc {
	return gin.Recovery()
}

// CORS returns a permissive CORS middleware for the embedded widget.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// Setup installs the middleware stack.
func Setup(r *gin.Engine) {
	r.Use(Logger())
	r.Use(Recovery())
	r.Use(CORS())
}
