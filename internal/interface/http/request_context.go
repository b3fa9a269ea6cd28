package http

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yanqian/daily-briefing/internal/domain/auth"
)

const (
	authClaimsKey = "auth_claims"
	requestIDKey  = "request_id"

	requestIDHeader = "X-Request-ID"
	anonymous       = "anonymous"
)

// requestIDMiddleware tags every request with an id, reusing a well-formed
// X-Request-ID from the caller and echoing it on the response.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func setClaims(c *gin.Context, claims auth.Claims) {
	c.Set(authClaimsKey, claims)
}

func getClaims(c *gin.Context) (auth.Claims, bool) {
	value, ok := c.Get(authClaimsKey)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := value.(auth.Claims)
	return claims, ok
}

// requester names the operator behind a request, or anonymous before auth.
func requester(c *gin.Context) string {
	if claims, ok := getClaims(c); ok && claims.Subject != "" {
		return claims.Subject
	}
	return anonymous
}
