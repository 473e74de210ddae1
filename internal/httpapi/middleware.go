package httpapi

import (
	"net/http"
	"strings"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// BearerAuth resolves the Authorization header to an identity and stores it
// on the context.
func BearerAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		id, err := auth.Identify(c.Request.Context(), token)
		if err != nil {
			status, msg := errorStatus(err)
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the identity BearerAuth stored.
func IdentityFrom(c *gin.Context) (domain.Identity, bool) {
	val, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := val.(domain.Identity)
	return id, ok
}
