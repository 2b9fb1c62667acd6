package middleware

import (
	"net/http"
	"time"

	"github.com/fishryanie/GC-sub000/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"
)

// RateLimitByIP allows requests per window for each client IP.
// message is the body text of the 429 response.
func RateLimitByIP(requests int, window time.Duration, message string) gin.HandlerFunc {
	limiter := httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		// the gin handler below writes the response
		httprate.WithLimitHandler(func(http.ResponseWriter, *http.Request) {}),
	)

	return func(c *gin.Context) {
		passed := false
		limiter(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)

		if !passed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.CodedError(http.StatusTooManyRequests, "RateLimited", message))
		}
	}
}
