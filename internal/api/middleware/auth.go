package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"school-journal/backend/pkg/jwt"
	"school-journal/backend/pkg/response"
)

// RevocationChecker Token 吊销名单查询端
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证会话 Token
//
//   - 缺少或格式错误的认证头 → 401
//   - Token 无效、过期或已吊销 → 403
//
// revocations 为 nil 时不检查吊销名单；查询吊销名单出错时降级放行
func JWTAuth(jwtMgr *jwt.Manager, revocations RevocationChecker, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, response.CodeUnauthenticated, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			response.Unauthorized(c, response.CodeUnauthenticated, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Forbidden(c, response.CodeTokenInvalid, "Token 无效或已过期")
			c.Abort()
			return
		}

		if revocations != nil && claims.ID != "" {
			revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Warn("查询 Token 吊销名单失败，降级放行", zap.Error(err))
			} else if revoked {
				response.Forbidden(c, response.CodeTokenInvalid, "Token 已注销")
				c.Abort()
				return
			}
		}

		// 将用户信息注入上下文
		c.Set("user_id", claims.UserID)
		c.Set("token_jti", claims.ID)
		c.Set("token_exp", claims.ExpiresAtTime())

		c.Next()
	}
}
