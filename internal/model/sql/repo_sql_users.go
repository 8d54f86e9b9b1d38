package sql

import (
	"context"
	"fmt"
	"strings"

	"userapi/internal/apperr"
	"userapi/internal/entity"
	"userapi/internal/entity/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FindUsers returns one page of users matching the filter.
func (r *GormRepository) FindUsers(ctx context.Context, filter entity.UserFilter) ([]db.User, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	column, ok := entity.UserSortColumns[filter.SortBy]
	if !ok {
		return nil, fmt.Errorf("unsupported sort field %q", filter.SortBy)
	}

	query := applyUserSearch(r.db.WithContext(ctx).Model(&db.User{}), filter.Search)
	query = withUserIncludes(query, filter.Include).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: filter.SortDesc})
	if column != "id" {
		query = query.Order("id ASC")
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var users []db.User
	if err := query.Find(&users).Error; err != nil {
		return nil, translateError(modelUser, err)
	}
	return users, nil
}

// CountUsers counts users matching the search term, ignoring pagination.
func (r *GormRepository) CountUsers(ctx context.Context, search string) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	var total int64
	query := applyUserSearch(r.db.WithContext(ctx).Model(&db.User{}), search)
	if err := query.Count(&total).Error; err != nil {
		return 0, translateError(modelUser, err)
	}
	return total, nil
}

// GetUserByID loads a user by ID.
func (r *GormRepository) GetUserByID(ctx context.Context, id uint, include entity.UserIncludes) (*db.User, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	var user db.User
	if err := withUserIncludes(r.db.WithContext(ctx), include).First(&user, id).Error; err != nil {
		return nil, translateError(modelUser, err)
	}
	return &user, nil
}

// GetUserByEmail loads a user by email.
func (r *GormRepository) GetUserByEmail(ctx context.Context, email string, include entity.UserIncludes) (*db.User, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return nil, fmt.Errorf("email is empty")
	}

	var user db.User
	query := withUserIncludes(r.db.WithContext(ctx), include)
	if err := query.Where("LOWER(email) = ?", strings.ToLower(trimmed)).First(&user).Error; err != nil {
		return nil, translateError(modelUser, err)
	}
	return &user, nil
}

// CreateUser persists a new user and its initial role assignments atomically.
func (r *GormRepository) CreateUser(ctx context.Context, user *db.User, roleIDs []uint) error {
	if err := r.ready(); err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user is nil")
	}
	ids := uniqueIDs(roleIDs)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRoles(tx, ids); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return translateError(modelUser, err)
		}
		for _, roleID := range ids {
			link := db.UserRole{UserID: user.ID, RoleID: roleID}
			if err := tx.Omit(clause.Associations).Create(&link).Error; err != nil {
				return translateError(modelUserRole, err)
			}
		}
		return nil
	})
	return translateError(modelUser, err)
}

// UpdateUser updates an existing user entry.
func (r *GormRepository) UpdateUser(ctx context.Context, id uint, updates entity.UserUpdates) error {
	if err := r.ready(); err != nil {
		return err
	}
	if updates.IsEmpty() {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Updates(updates.ToMap())
	if result.Error != nil {
		return translateError(modelUser, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NewStoreError(apperr.CodeNotFound, modelUser, gorm.ErrRecordNotFound)
	}
	return nil
}

// DeleteUser removes a user together with its role links and posts.
func (r *GormRepository) DeleteUser(ctx context.Context, id uint) error {
	if err := r.ready(); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&db.UserRole{}).Error; err != nil {
			return translateError(modelUserRole, err)
		}
		if err := tx.Where("author_id = ?", id).Delete(&db.Post{}).Error; err != nil {
			return translateError(modelPost, err)
		}
		result := tx.Delete(&db.User{}, id)
		if result.Error != nil {
			return translateError(modelUser, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.NewStoreError(apperr.CodeNotFound, modelUser, gorm.ErrRecordNotFound)
		}
		return nil
	})
	return translateError(modelUser, err)
}

func applyUserSearch(query *gorm.DB, search string) *gorm.DB {
	if search == "" {
		return query
	}
	kw := "%" + strings.ToLower(search) + "%"
	return query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", kw, kw)
}

func withUserIncludes(query *gorm.DB, include entity.UserIncludes) *gorm.DB {
	if include.Roles {
		query = query.
			Preload("Roles", func(tx *gorm.DB) *gorm.DB { return tx.Order("role_id ASC") }).
			Preload("Roles.Role")
	}
	if include.Posts {
		query = query.Preload("Posts", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") })
	}
	return query
}

// requireRoles 确认所有角色存在，否则返回外键错误
func requireRoles(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var count int64
	if err := tx.Model(&db.Role{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return translateError(modelRole, err)
	}
	if count != int64(len(ids)) {
		return apperr.NewStoreError(apperr.CodeForeignKeyViolation, modelUserRole, fmt.Errorf("some roles do not exist"), "roleId")
	}
	return nil
}

func requireUser(tx *gorm.DB, id uint, model, field string) error {
	var count int64
	if err := tx.Model(&db.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translateError(modelUser, err)
	}
	if count == 0 {
		return apperr.NewStoreError(apperr.CodeForeignKeyViolation, model, fmt.Errorf("user %d does not exist", id), field)
	}
	return nil
}
