package api

import (
	"net/http"

	"userapi/internal/entity/common"
	"userapi/internal/entity/converter"
	"userapi/internal/entity/dto"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) ListRoles(c *gin.Context) {
	ctx, cancel := h.queryContext(c)
	defer cancel()

	roles, err := h.roles.ListRoles(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, common.Response{Success: true, Data: converter.RolesToResponses(roles)})
}

func (h *HTTPHandler) CreateRole(c *gin.Context) {
	var req dto.RoleCreateRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	role, err := h.roles.CreateRole(ctx, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.Response{
		Success: true,
		Message: "Role created successfully",
		Data:    converter.RoleToResponse(role),
	})
}

func (h *HTTPHandler) GetRole(c *gin.Context) {
	id, err := parseID(c, "id", "role")
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	role, err := h.roles.GetRole(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, common.Response{Success: true, Data: converter.RoleToResponse(role)})
}

func (h *HTTPHandler) DeleteRole(c *gin.Context) {
	id, err := parseID(c, "id", "role")
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	if err := h.roles.DeleteRole(ctx, id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, common.Response{Success: true, Message: "Role deleted successfully"})
}
