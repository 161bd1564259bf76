package admin

import (
	"context"
	stderrors "errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/helpcenter-backend/internal/common/crypto"
	"github.com/dumeirei/helpcenter-backend/internal/common/errors"
	"github.com/dumeirei/helpcenter-backend/internal/common/utils"
	"github.com/dumeirei/helpcenter-backend/internal/models"
	"github.com/dumeirei/helpcenter-backend/internal/repository"
)

// UserService 管理员账号服务
type UserService struct {
	users      *repository.UserRepository
	bcryptCost int
	logger     *zap.Logger
}

// NewUserService 创建管理员账号服务
func NewUserService(users *repository.UserRepository, bcryptCost int, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{users: users, bcryptCost: bcryptCost, logger: log.Named("users")}
}

// CreateUserRequest 创建账号
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// UpdateUserRequest 更新账号，密码为空时不修改
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=6,max=72"`
}

// List 全部账号
func (s *UserService) List(ctx context.Context) ([]*UserInfo, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	out := make([]*UserInfo, 0, len(users))
	for _, u := range users {
		out = append(out, toUserInfo(u))
	}
	return out, nil
}

// Get 获取账号
func (s *UserService) Get(ctx context.Context, id string) (*UserInfo, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserInfo(user), nil
}

func (s *UserService) get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return user, nil
}

func (s *UserService) checkEmail(ctx context.Context, email, excludeID string) error {
	if !utils.ValidateEmail(email) {
		return errors.ErrInvalidEmail
	}
	taken, err := s.users.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if taken {
		return errors.ErrUserExists
	}
	return nil
}

// Create 创建账号，邮箱唯一
func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*UserInfo, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.ErrValidation.WithMessage("Name is required")
	}
	email := normalizeEmail(req.Email)
	if err := s.checkEmail(ctx, email, ""); err != nil {
		return nil, err
	}
	if err := crypto.CheckPassword(req.Password); err != nil {
		return nil, errors.ErrValidation.WithMessage("Password must be 6-72 characters").WithError(err)
	}
	hash, err := crypto.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	user := &models.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.logger.Info("admin user created", zap.String("user_id", user.ID), zap.String("email", crypto.MaskEmail(email)))
	return toUserInfo(user), nil
}

// Update 更新账号
func (s *UserService) Update(ctx context.Context, id string, req *UpdateUserRequest) (*UserInfo, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, errors.ErrValidation.WithMessage("Name is required")
		}
		fields["name"] = name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if err := s.checkEmail(ctx, email, id); err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if req.Password != nil && *req.Password != "" {
		if err := crypto.CheckPassword(*req.Password); err != nil {
			return nil, errors.ErrValidation.WithMessage("Password must be 6-72 characters").WithError(err)
		}
		hash, err := crypto.HashPassword(*req.Password, s.bcryptCost)
		if err != nil {
			return nil, errors.ErrInternalError.WithError(err)
		}
		fields["password_hash"] = hash
	}

	if len(fields) > 0 {
		if err := s.users.UpdateFields(ctx, id, fields); err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	}
	return s.Get(ctx, id)
}

// Delete 删除账号：不能删除自己，也不能删除最后一个账号
func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return errors.ErrDeleteSelf
	}
	err := s.users.DeleteUnlessLast(ctx, id)
	switch {
	case err == nil:
		s.logger.Info("admin user deleted", zap.String("user_id", id), zap.String("actor_id", actorID))
		return nil
	case stderrors.Is(err, repository.ErrLastUser):
		return errors.ErrLastUser
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return errors.ErrUserNotFound
	default:
		return errors.ErrDatabaseError.WithError(err)
	}
}
