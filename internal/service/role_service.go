package service

import (
	"context"
	"strings"

	"userapi/internal/apperr"
	"userapi/internal/entity/db"
	"userapi/internal/entity/dto"
	"userapi/internal/model"

	"github.com/sirupsen/logrus"
)

// RoleService 角色与用户角色分配
type RoleService struct {
	repo model.Repository
}

// NewRoleService 创建角色服务实例
func NewRoleService(repo model.Repository) *RoleService {
	return &RoleService{repo: repo}
}

func (s *RoleService) ListRoles(ctx context.Context) ([]db.Role, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []db.Role{}
	}
	return roles, nil
}

func (s *RoleService) GetRole(ctx context.Context, id uint) (*db.Role, error) {
	role, err := s.repo.GetRoleByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("Role not found")
		}
		return nil, err
	}
	return role, nil
}

func (s *RoleService) CreateRole(ctx context.Context, req dto.RoleCreateRequest) (*db.Role, error) {
	name := strings.TrimSpace(req.RoleName)
	if name == "" {
		return nil, &apperr.ValidationError{Fields: []apperr.FieldError{{Field: "roleName", Rule: "required", Message: "is required"}}}
	}
	role := &db.Role{RoleName: name, Description: trimOptional(req.Description)}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"role_id": role.ID, "role_name": role.RoleName}).Info("role created")
	return role, nil
}

// DeleteRole 删除角色及其全部分配记录
func (s *RoleService) DeleteRole(ctx context.Context, id uint) error {
	return s.repo.DeleteRole(ctx, id)
}

// AssignRoles 为用户追加角色，返回新建的分配记录
func (s *RoleService) AssignRoles(ctx context.Context, userID uint, roleIDs []uint) ([]db.UserRole, error) {
	links, err := s.repo.AssignRoles(ctx, userID, roleIDs)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": userID, "assigned": len(links)}).Info("roles assigned")
	return links, nil
}

// ListUserRoles 列出用户当前的角色分配
func (s *RoleService) ListUserRoles(ctx context.Context, userID uint) ([]db.UserRole, error) {
	if _, err := s.repo.GetUserByID(ctx, userID, noIncludes); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	return s.repo.ListUserRoles(ctx, userID)
}

// RemoveUserRole 取消一条分配，不存在时返回 NOT_FOUND
func (s *RoleService) RemoveUserRole(ctx context.Context, userID, roleID uint) error {
	return s.repo.RemoveUserRole(ctx, userID, roleID)
}
