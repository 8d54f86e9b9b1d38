package model

import (
	"context"

	"userapi/internal/entity"
	"userapi/internal/entity/db"
)

// Repository 定义数据库操作接口
//
// 所有实现失败时返回 *apperr.StoreError，由上层统一转换为 HTTP 响应。
type Repository interface {
	// 用户
	FindUsers(ctx context.Context, filter entity.UserFilter) ([]db.User, error)
	CountUsers(ctx context.Context, search string) (int64, error)
	GetUserByID(ctx context.Context, id uint, include entity.UserIncludes) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string, include entity.UserIncludes) (*db.User, error)
	CreateUser(ctx context.Context, user *db.User, roleIDs []uint) error
	UpdateUser(ctx context.Context, id uint, updates entity.UserUpdates) error
	DeleteUser(ctx context.Context, id uint) error

	// 角色
	ListRoles(ctx context.Context) ([]db.Role, error)
	GetRoleByID(ctx context.Context, id uint) (*db.Role, error)
	CreateRole(ctx context.Context, role *db.Role) error
	DeleteRole(ctx context.Context, id uint) error

	// 用户角色关联
	AssignRoles(ctx context.Context, userID uint, roleIDs []uint) ([]db.UserRole, error)
	ListUserRoles(ctx context.Context, userID uint) ([]db.UserRole, error)
	RemoveUserRole(ctx context.Context, userID, roleID uint) error

	// 文章
	ListPosts(ctx context.Context) ([]db.Post, error)
	GetPostByID(ctx context.Context, id uint) (*db.Post, error)
	CreatePost(ctx context.Context, post *db.Post) error
	DeletePost(ctx context.Context, id uint) error

	Ping(ctx context.Context) error
	Close() error
}
