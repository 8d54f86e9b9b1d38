package dto

import "time"

// RoleResponse 角色信息，列表/详情接口附带其关联用户。
type RoleResponse struct {
	ID          uint                `json:"id"`
	RoleName    string              `json:"roleName"`
	Description *string             `json:"description"`
	CreatedAt   time.Time           `json:"createdAt"`
	Users       *[]UserRoleResponse `json:"users,omitempty"`
}

// UserRoleResponse 一条用户-角色分配记录。
type UserRoleResponse struct {
	UserID     uint          `json:"userId"`
	RoleID     uint          `json:"roleId"`
	AssignedAt time.Time     `json:"assignedAt"`
	User       *UserResponse `json:"user,omitempty"`
	Role       *RoleResponse `json:"role,omitempty"`
}

type RoleCreateRequest struct {
	RoleName    string  `json:"roleName" binding:"required,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// AssignRolesRequest roleIds 必须是数组，元素为正整数。
type AssignRolesRequest struct {
	RoleIDs []uint `json:"roleIds" binding:"dive,gt=0"`
}
