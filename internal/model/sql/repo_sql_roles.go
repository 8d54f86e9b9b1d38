package sql

import (
	"context"
	"fmt"

	"userapi/internal/apperr"
	"userapi/internal/entity/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListRoles returns all roles with their assigned users.
func (r *GormRepository) ListRoles(ctx context.Context) ([]db.Role, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	var roles []db.Role
	if err := withRoleUsers(r.db.WithContext(ctx)).Order("id ASC").Find(&roles).Error; err != nil {
		return nil, translateError(modelRole, err)
	}
	return roles, nil
}

// GetRoleByID loads a role with its assigned users.
func (r *GormRepository) GetRoleByID(ctx context.Context, id uint) (*db.Role, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	var role db.Role
	if err := withRoleUsers(r.db.WithContext(ctx)).First(&role, id).Error; err != nil {
		return nil, translateError(modelRole, err)
	}
	return &role, nil
}

// CreateRole inserts a new role.
func (r *GormRepository) CreateRole(ctx context.Context, role *db.Role) error {
	if err := r.ready(); err != nil {
		return err
	}
	if role == nil {
		return fmt.Errorf("role is nil")
	}
	return translateError(modelRole, r.db.WithContext(ctx).Omit(clause.Associations).Create(role).Error)
}

// DeleteRole removes a role and its user links.
func (r *GormRepository) DeleteRole(ctx context.Context, id uint) error {
	if err := r.ready(); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&db.UserRole{}).Error; err != nil {
			return translateError(modelUserRole, err)
		}
		result := tx.Delete(&db.Role{}, id)
		if result.Error != nil {
			return translateError(modelRole, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.NewStoreError(apperr.CodeNotFound, modelRole, gorm.ErrRecordNotFound)
		}
		return nil
	})
	return translateError(modelRole, err)
}

// AssignRoles links the given roles to a user and returns the created links
// with both sides loaded.
func (r *GormRepository) AssignRoles(ctx context.Context, userID uint, roleIDs []uint) ([]db.UserRole, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	ids := uniqueIDs(roleIDs)
	if len(ids) == 0 {
		return []db.UserRole{}, nil
	}

	var links []db.UserRole
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, userID, modelUserRole, "userId"); err != nil {
			return err
		}
		if err := requireRoles(tx, ids); err != nil {
			return err
		}
		for _, roleID := range ids {
			link := db.UserRole{UserID: userID, RoleID: roleID}
			if err := tx.Omit(clause.Associations).Create(&link).Error; err != nil {
				return translateError(modelUserRole, err)
			}
		}
		return tx.Preload("User").Preload("Role").
			Where("user_id = ? AND role_id IN ?", userID, ids).
			Order("role_id ASC").
			Find(&links).Error
	})
	if err != nil {
		return nil, translateError(modelUserRole, err)
	}
	return links, nil
}

// ListUserRoles returns the role links of a user.
func (r *GormRepository) ListUserRoles(ctx context.Context, userID uint) ([]db.UserRole, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	var links []db.UserRole
	err := r.db.WithContext(ctx).Preload("Role").
		Where("user_id = ?", userID).
		Order("role_id ASC").
		Find(&links).Error
	if err != nil {
		return nil, translateError(modelUserRole, err)
	}
	return links, nil
}

// RemoveUserRole deletes a single link.
func (r *GormRepository) RemoveUserRole(ctx context.Context, userID, roleID uint) error {
	if err := r.ready(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Where("user_id = ? AND role_id = ?", userID, roleID).Delete(&db.UserRole{})
	if result.Error != nil {
		return translateError(modelUserRole, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NewStoreError(apperr.CodeNotFound, modelUserRole, gorm.ErrRecordNotFound)
	}
	return nil
}

func withRoleUsers(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Users", func(tx *gorm.DB) *gorm.DB { return tx.Order("user_id ASC") }).
		Preload("Users.User")
}
