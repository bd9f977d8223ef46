package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/grocerypos/backend/internal/infrastructure/logger"
	"github.com/grocerypos/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// RequirePermission creates middleware that requires a specific permission.
// Services check again; this only rejects early, before the body is bound.
func RequirePermission(permission string) gin.HandlerFunc {
	return RequireAnyPermission(permission)
}

// RequireAnyPermission creates middleware that requires any of the specified permissions
func RequireAnyPermission(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if !actor.IsZero() {
			for _, p := range permissions {
				if actor.HasPermission(p) {
					c.Next()
					return
				}
			}
		}

		logger.GetGinLogger(c).Debug("Permission denied",
			zap.String("operator_id", actor.OperatorID.String()),
			zap.String("role", string(actor.Role)),
			zap.Strings("required_any", permissions),
		)
		// No hint about the missing permission
		c.AbortWithStatusJSON(dto.GetHTTPStatus(shared.CodeUnauthorized), dto.NewErrorResponseWithRequestID(
			shared.ErrUnauthorized.Code, shared.ErrUnauthorized.Message, GetRequestID(c)))
	}
}
