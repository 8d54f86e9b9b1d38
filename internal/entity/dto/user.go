package dto

import "time"

// UserResponse 返回给客户端的用户信息，不包含密码。
//
// Roles/Posts 为 nil 表示未加载（字段省略），已加载但为空时输出 []。
type UserResponse struct {
	ID        uint                `json:"id"`
	Email     string              `json:"email"`
	Name      *string             `json:"name"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
	Roles     *[]UserRoleResponse `json:"roles,omitempty"`
	Posts     *[]PostResponse     `json:"posts,omitempty"`
}

// UserCreateRequest is the payload for creating a user.
type UserCreateRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Name     *string `json:"name"`
	Password string  `json:"password" binding:"required,min=6"`
	RoleIDs  []uint  `json:"roleIds"`
}

// UserUpdateRequest is the payload for updating a user. Absent fields stay untouched.
type UserUpdateRequest struct {
	Email    *string `json:"email,omitempty" binding:"omitempty,email"`
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty" binding:"omitempty,min=6"`
}
