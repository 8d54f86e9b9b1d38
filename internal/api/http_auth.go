package api

import (
	"net/http"

	"userapi/internal/apperr"
	"userapi/internal/entity/common"
	"userapi/internal/entity/converter"
	"userapi/internal/entity/dto"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func (h *HTTPHandler) Login(c *gin.Context) {
	var req dto.AuthLoginRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	user, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	token, expiresAt, err := h.authManager.GenerateToken(user)
	if err != nil {
		logrus.WithError(err).Error("failed to generate token")
		h.fail(c, apperr.WithStatus(http.StatusInternalServerError, "Failed to create session"))
		return
	}

	c.JSON(http.StatusOK, common.Response{
		Success: true,
		Message: "Login successful",
		Data: dto.AuthResponse{
			Token:     token,
			ExpiresAt: expiresAt,
			User:      converter.UserToResponse(user),
		},
	})
}

func (h *HTTPHandler) Me(c *gin.Context) {
	current := CurrentUser(c)

	ctx, cancel := h.queryContext(c)
	defer cancel()

	user, err := h.users.GetUser(ctx, current.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, common.Response{Success: true, Data: converter.UserToResponse(user)})
}
