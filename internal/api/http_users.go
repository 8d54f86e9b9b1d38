package api

import (
	"net/http"

	"userapi/internal/apperr"
	"userapi/internal/entity/common"
	"userapi/internal/entity/converter"
	"userapi/internal/entity/dto"
	"userapi/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) ListUsers(c *gin.Context) {
	opts, err := service.ParseListQuery(c.Request.URL.Query(), h.cfg.MaxPageSize)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	users, pagination, err := h.users.ListUsers(ctx, opts)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, common.Response{
		Success:    true,
		Data:       converter.UsersToResponses(users),
		Pagination: &pagination,
	})
}

func (h *HTTPHandler) CreateUser(c *gin.Context) {
	var req dto.UserCreateRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	user, err := h.users.CreateUser(ctx, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, common.Response{
		Success: true,
		Message: "User created successfully",
		Data:    converter.UserToResponse(user),
	})
}

func (h *HTTPHandler) GetUser(c *gin.Context) {
	id, err := parseID(c, "id", "user")
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	user, err := h.users.GetUser(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, common.Response{Success: true, Data: converter.UserToResponse(user)})
}

func (h *HTTPHandler) UpdateUser(c *gin.Context) {
	id, err := parseID(c, "id", "user")
	if err != nil {
		h.fail(c, err)
		return
	}

	var req dto.UserUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	user, err := h.users.UpdateUser(ctx, id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, common.Response{
		Success: true,
		Message: "User updated successfully",
		Data:    converter.UserToResponse(user),
	})
}

func (h *HTTPHandler) DeleteUser(c *gin.Context) {
	id, err := parseID(c, "id", "user")
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	if err := h.users.DeleteUser(ctx, id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, common.Response{Success: true, Message: "User deleted successfully"})
}

func (h *HTTPHandler) ListUserRoles(c *gin.Context) {
	userID, err := parseID(c, "id", "user")
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	links, err := h.roles.ListUserRoles(ctx, userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, common.Response{Success: true, Data: converter.UserRolesToResponses(links)})
}

// AssignRoles roleIds 不是数组时在访问存储之前返回 400
func (h *HTTPHandler) AssignRoles(c *gin.Context) {
	userID, err := parseID(c, "id", "user")
	if err != nil {
		h.fail(c, err)
		return
	}

	var req dto.AssignRolesRequest
	isArray, err := bindJSONArray(c, "roleIds", &req)
	if !isArray {
		h.fail(c, apperr.BadRequest("roleIds must be an array"))
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	links, err := h.roles.AssignRoles(ctx, userID, req.RoleIDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.Response{
		Success: true,
		Message: "Roles assigned successfully",
		Data:    converter.UserRolesToResponses(links),
	})
}

func (h *HTTPHandler) RemoveUserRole(c *gin.Context) {
	userID, err := parseID(c, "id", "user")
	if err != nil {
		h.fail(c, err)
		return
	}
	roleID, err := parseID(c, "roleId", "role")
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	if err := h.roles.RemoveUserRole(ctx, userID, roleID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, common.Response{Success: true, Message: "Role removed from user successfully"})
}
