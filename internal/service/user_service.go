package service

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"userapi/internal/apperr"
	"userapi/internal/auth"
	"userapi/internal/entity"
	"userapi/internal/entity/common"
	"userapi/internal/entity/db"
	"userapi/internal/entity/dto"
	"userapi/internal/model"

	"github.com/sirupsen/logrus"
)

var (
	fullUser   = entity.UserIncludes{Roles: true, Posts: true}
	noIncludes = entity.UserIncludes{}
)

// UserService 用户相关业务逻辑，包括分页列表查询
type UserService struct {
	repo        model.Repository
	hasher      *auth.Hasher
	maxPageSize int
}

// NewUserService 创建用户服务实例
func NewUserService(repo model.Repository, hasher *auth.Hasher, maxPageSize int) *UserService {
	if hasher == nil {
		hasher = auth.NewHasher(0)
	}
	return &UserService{repo: repo, hasher: hasher, maxPageSize: maxPageSize}
}

// ListUsers 返回一页用户及分页信息。存储层错误原样向上传递。
func (s *UserService) ListUsers(ctx context.Context, opts ListOptions) ([]db.User, common.Pagination, error) {
	if err := opts.Validate(s.maxPageSize); err != nil {
		return nil, common.Pagination{}, err
	}

	total, err := s.repo.CountUsers(ctx, opts.Search)
	if err != nil {
		return nil, common.Pagination{}, err
	}
	users, err := s.repo.FindUsers(ctx, opts.Filter())
	if err != nil {
		return nil, common.Pagination{}, err
	}
	if users == nil {
		users = []db.User{}
	}
	return users, common.NewPagination(total, opts.Page, opts.Limit, len(users)), nil
}

// CreateUser 规范化邮箱、哈希密码后创建用户，并分配初始角色
func (s *UserService) CreateUser(ctx context.Context, req dto.UserCreateRequest) (*db.User, error) {
	email := normaliseEmail(req.Email)
	if email == "" || strings.TrimSpace(req.Password) == "" {
		return nil, requiredFields(email == "", strings.TrimSpace(req.Password) == "")
	}
	if err := s.ensureEmailAvailable(ctx, email, 0); err != nil {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, passwordError(err)
	}

	user := &db.User{
		Email:        email,
		Name:         trimOptional(req.Name),
		PasswordHash: hash,
	}
	if err := s.repo.CreateUser(ctx, user, req.RoleIDs); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "roles": len(req.RoleIDs)}).Info("user created")

	return s.repo.GetUserByID(ctx, user.ID, fullUser)
}

// GetUser 按 ID 加载用户及其角色和文章
func (s *UserService) GetUser(ctx context.Context, id uint) (*db.User, error) {
	user, err := s.repo.GetUserByID(ctx, id, fullUser)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser 局部更新用户，未提供的字段保持不变
func (s *UserService) UpdateUser(ctx context.Context, id uint, req dto.UserUpdateRequest) (*db.User, error) {
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}

	var updates entity.UserUpdates
	if req.Email != nil {
		email := normaliseEmail(*req.Email)
		if email == "" {
			return nil, requiredFields(true, false)
		}
		if err := s.ensureEmailAvailable(ctx, email, id); err != nil {
			return nil, err
		}
		updates.Email = &email
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		updates.Name = &name
	}
	if req.Password != nil {
		hash, err := s.hasher.HashPassword(*req.Password)
		if err != nil {
			return nil, passwordError(err)
		}
		updates.PasswordHash = &hash
	}

	if err := s.repo.UpdateUser(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// DeleteUser 删除用户，关联的文章和角色分配一并删除
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	logrus.WithField("user_id", id).Info("user deleted")
	return nil
}

// Authenticate 校验邮箱和密码，失败时不区分账号不存在与密码错误
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*db.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, normaliseEmail(email), entity.UserIncludes{Roles: true})
	if err != nil {
		if apperr.IsNotFound(err) {
			logrus.WithField("email", normaliseEmail(email)).Warn("login attempt failed")
			return nil, apperr.WithStatus(http.StatusUnauthorized, "Invalid email or password")
		}
		return nil, err
	}
	if err := s.hasher.VerifyPassword(user.PasswordHash, password); err != nil {
		logrus.WithError(err).WithField("email", user.Email).Warn("password verification failed")
		return nil, apperr.WithStatus(http.StatusUnauthorized, "Invalid email or password")
	}
	return user, nil
}

// ensureEmailAvailable 邮箱已被其他用户占用时返回唯一约束错误
func (s *UserService) ensureEmailAvailable(ctx context.Context, email string, selfID uint) error {
	existing, err := s.repo.GetUserByEmail(ctx, email, noIncludes)
	switch {
	case err == nil:
		if existing.ID == selfID {
			return nil
		}
		return apperr.NewStoreError(apperr.CodeUniqueViolation, "users", errors.New("email already registered"), "email")
	case apperr.IsNotFound(err):
		return nil
	default:
		return err
	}
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}

// passwordError 将哈希前的密码校验失败转换为字段错误
func passwordError(err error) error {
	switch {
	case errors.Is(err, auth.ErrPasswordTooShort):
		param := strconv.Itoa(auth.MinPasswordLength)
		return &apperr.ValidationError{Fields: []apperr.FieldError{{
			Field:   "password",
			Rule:    "min",
			Param:   param,
			Message: "must be at least " + param + " characters",
		}}}
	case errors.Is(err, auth.ErrPasswordEmpty):
		return requiredFields(false, true)
	default:
		return err
	}
}

func requiredFields(email, password bool) error {
	var fields []apperr.FieldError
	if email {
		fields = append(fields, apperr.FieldError{Field: "email", Rule: "required", Message: "is required"})
	}
	if password {
		fields = append(fields, apperr.FieldError{Field: "password", Rule: "required", Message: "is required"})
	}
	return &apperr.ValidationError{Fields: fields}
}
