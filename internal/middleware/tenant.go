package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CompanyGuard rejects callers that are neither super admins nor assigned to
// a company. It relies on AuthMiddleware having already set the actor.
func CompanyGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		if !actor.IsSuperAdmin() && actor.CompanyID == nil {
			abort(c, http.StatusForbidden, "NO_COMPANY", "user is not assigned to a company")
			return
		}
		c.Next()
	}
}
