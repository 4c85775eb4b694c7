package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"school-journal/backend/config"
	"school-journal/backend/internal/dto"
	"school-journal/backend/internal/model"
	"school-journal/backend/internal/repository"
	"school-journal/backend/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUsernameExists     = errors.New("用户名已存在")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrPasswordTooLong    = errors.New("密码过长")
)

// maxPasswordBytes bcrypt 只接受不超过 72 字节的密码
const maxPasswordBytes = 72

// AuthService 认证业务接口
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	Me(ctx context.Context, userID int64) (*dto.UserResponse, error)
}

type authService struct {
	cfg     *config.Config
	repo    *repository.Repository
	jwtMgr  *jwt.Manager
	revoker TokenRevoker
	logger  *zap.Logger
}

// NewAuthService 创建 AuthService 实例
// revoker 为 nil 时登出仅由客户端丢弃 Token
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	revoker TokenRevoker,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:     cfg,
		repo:    repo,
		jwtMgr:  jwtMgr,
		revoker: revoker,
		logger:  logger,
	}
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	// 按字节计长，多字节字符的密码可能通过请求校验
	if len(req.Password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	// 1. 用户名唯一性预检（并发注册由唯一索引兜底）
	_, err := s.repo.User.GetByUsername(ctx, req.Username)
	if err == nil {
		return nil, ErrUsernameExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.String("username", req.Username), zap.Error(err))
		return nil, err
	}

	// 2. 密码哈希
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	// 3. 写入用户
	user := &model.User{
		Username:  req.Username,
		Password:  string(hash),
		IsTeacher: req.Role.IsTeacher(),
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameExists
		}
		s.logger.Error("创建用户失败", zap.String("username", req.Username), zap.Error(err))
		return nil, err
	}

	// 4. 签发 Token
	token, err := s.jwtMgr.GenerateToken(user.ID)
	if err != nil {
		s.logger.Error("生成 Token 失败", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户注册成功",
		zap.Int64("user_id", user.ID),
		zap.Bool("is_teacher", user.IsTeacher),
	)

	return &dto.RegisterResponse{
		User:  toUserResponse(user),
		Token: token,
	}, nil
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.User.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtMgr.GenerateToken(user.ID)
	if err != nil {
		s.logger.Error("生成 Token 失败", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	return &dto.LoginResponse{Token: token}, nil
}

// ────────────────────── Logout ──────────────────────

// Logout 将 Token 加入吊销名单，保留到其原本的过期时间
// 永不过期的 Token（expiresAt 为零值）按 RevokeFallbackTTL 保留
func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.revoker == nil || jti == "" {
		return nil
	}

	ttl := s.cfg.Auth.RevokeFallbackTTL
	if !expiresAt.IsZero() {
		ttl = time.Until(expiresAt)
	}

	if err := s.revoker.RevokeToken(ctx, jti, ttl); err != nil {
		s.logger.Error("吊销 Token 失败", zap.String("jti", jti), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// ── 内部辅助方法 ──

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		IsTeacher: u.IsTeacher,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}
