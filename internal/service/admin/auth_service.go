// Package admin 后台服务：管理员认证、账号、站点设置、仪表盘与操作日志
package admin

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/helpcenter-backend/internal/common/crypto"
	"github.com/dumeirei/helpcenter-backend/internal/common/errors"
	"github.com/dumeirei/helpcenter-backend/internal/common/jwt"
	"github.com/dumeirei/helpcenter-backend/internal/models"
	"github.com/dumeirei/helpcenter-backend/internal/repository"
)

// AuthService 管理员认证服务
type AuthService struct {
	users      *repository.UserRepository
	jwtManager *jwt.Manager
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService 创建管理员认证服务
func NewAuthService(users *repository.UserRepository, jwtManager *jwt.Manager, bcryptCost int, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:      users,
		jwtManager: jwtManager,
		bcryptCost: bcryptCost,
		logger:     log.Named("auth"),
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	IP       string `json:"-"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	User  *UserInfo      `json:"user"`
	Token *jwt.TokenPair `json:"token"`
}

// UserInfo 管理员信息（不含密码哈希）
type UserInfo struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toUserInfo(u *models.User) *UserInfo {
	return &UserInfo{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login 邮箱密码登录，账号不存在与密码错误返回同一错误
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrInvalidLogin
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !crypto.VerifyPassword(req.Password, user.PasswordHash) {
		s.logger.Warn("login rejected", zap.String("email", crypto.MaskEmail(user.Email)))
		return nil, errors.ErrInvalidLogin
	}

	pair, err := s.jwtManager.GenerateTokenPair(jwt.Identity{UserID: user.ID, Name: user.Name, Email: user.Email})
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	if err := s.users.UpdateLoginInfo(ctx, user.ID, req.IP); err != nil {
		s.logger.Warn("update login info failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.logger.Info("admin signed in", zap.String("user_id", user.ID))

	return &LoginResponse{User: toUserInfo(user), Token: pair}, nil
}

// Refresh 使用刷新令牌换取新的令牌对，账号已删除时拒绝
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.jwtManager.ParseToken(refreshToken)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.ErrTokenExpired
		}
		return nil, errors.ErrTokenRefreshFail
	}
	if _, err := s.users.GetByID(ctx, claims.UserID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrTokenRefreshFail
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	pair, err := s.jwtManager.RefreshToken(refreshToken)
	if err != nil {
		return nil, errors.ErrTokenRefreshFail
	}
	return pair, nil
}

// Me 当前管理员信息
func (s *AuthService) Me(ctx context.Context, userID string) (*UserInfo, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return toUserInfo(user), nil
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=72"`
}

// ChangePassword 校验当前密码后修改密码
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req *ChangePasswordRequest) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrUserNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if !crypto.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		return errors.ErrPasswordError
	}
	if err := crypto.CheckPassword(req.NewPassword); err != nil {
		return errors.ErrValidation.WithMessage("Password must be 6-72 characters").WithError(err)
	}

	hash, err := crypto.HashPassword(req.NewPassword, s.bcryptCost)
	if err != nil {
		return errors.ErrInternalError.WithError(err)
	}
	if err := s.users.UpdateFields(ctx, userID, map[string]interface{}{"password_hash": hash}); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}
