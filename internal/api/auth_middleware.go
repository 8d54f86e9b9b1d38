package api

import (
	"errors"
	"strings"

	"userapi/internal/apperr"
	"userapi/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	currentUserContextKey = "current-user"
)

// RequestUser 存储请求上下文中的认证用户信息
type RequestUser struct {
	ID    uint
	Email string
	Roles []string
}

// BearerMiddleware 校验请求携带的 Bearer Token。
//
// 没有 Authorization 头的请求直接放行；携带了但无效的请求以 401 结束。
func (h *HTTPHandler) BearerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			h.fail(c, &apperr.TokenError{Err: errors.New("malformed authorization header")})
			return
		}

		claims, err := h.authManager.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			logrus.WithError(err).Warn("failed to parse jwt token")
			h.fail(c, err)
			return
		}

		ctx, cancel := h.queryContext(c)
		defer cancel()

		user, err := h.repo.GetUserByID(ctx, claims.UserID, entity.UserIncludes{})
		if err != nil {
			if apperr.IsNotFound(err) {
				h.fail(c, &apperr.TokenError{Err: errors.New("token subject no longer exists")})
				return
			}
			logrus.WithError(err).WithField("user_id", claims.UserID).Error("failed to load user")
			h.fail(c, err)
			return
		}

		c.Set(currentUserContextKey, &RequestUser{
			ID:    user.ID,
			Email: user.Email,
			Roles: claims.Roles,
		})
		c.Next()
	}
}

// RequireAuth 要求请求已通过 Bearer 认证
func (h *HTTPHandler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			h.fail(c, &apperr.TokenError{Err: errors.New("missing bearer token")})
			return
		}
		c.Next()
	}
}

// CurrentUser 从上下文获取当前认证用户
func CurrentUser(c *gin.Context) *RequestUser {
	value, exists := c.Get(currentUserContextKey)
	if !exists {
		return nil
	}
	user, ok := value.(*RequestUser)
	if !ok {
		return nil
	}
	return user
}
