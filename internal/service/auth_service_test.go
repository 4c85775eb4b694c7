package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"school-journal/backend/config"
	"school-journal/backend/internal/dto"
	"school-journal/backend/pkg/jwt"
)

// ── 测试辅助 ──

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:         "test-secret-key-for-unit-tests",
			Issuer:            "school-journal-test",
			TokenTTL:          time.Hour,
			RevokeFallbackTTL: 24 * time.Hour,
		},
	}
}

func setupTestAuthService() (AuthService, *mockRepos, *mockRevoker, *jwt.Manager) {
	cfg := testConfig()
	repo, mocks := newMockRepository()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	revoker := newMockRevoker()
	svc := NewAuthService(cfg, repo, jwtMgr, revoker, zap.NewNop())
	return svc, mocks, revoker, jwtMgr
}

// ── Register 测试 ──

func TestAuthService_Register_Success(t *testing.T) {
	svc, mocks, _, jwtMgr := setupTestAuthService()

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Username: "Ms. Smith",
		Password: "p1",
		Role:     true,
	})
	if err != nil {
		t.Fatalf("期望注册成功，实际错误: %v", err)
	}
	if resp.User.Username != "Ms. Smith" || !resp.User.IsTeacher {
		t.Errorf("用户信息不符: %+v", resp.User)
	}

	claims, err := jwtMgr.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("返回的 Token 无法解析: %v", err)
	}
	if claims.UserID != resp.User.ID {
		t.Errorf("期望 Token user_id=%d，实际 %d", resp.User.ID, claims.UserID)
	}

	// 密码以 bcrypt 哈希存储
	stored, _ := mocks.users.GetByUsername(context.Background(), "Ms. Smith")
	if stored.Password == "p1" {
		t.Error("密码不应明文存储")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("p1")); err != nil {
		t.Errorf("存储的哈希与密码不匹配: %v", err)
	}
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	svc, mocks, _, _ := setupTestAuthService()
	mocks.users.seed("bob", false)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{Username: "bob", Password: "x"})
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("期望 ErrUsernameExists，实际: %v", err)
	}
}

func TestAuthService_Register_MultibytePasswordTooLong(t *testing.T) {
	svc, mocks, _, _ := setupTestAuthService()

	// 30 个汉字：按字符计 30，按字节计 90
	long := strings.Repeat("密", 30)
	_, err := svc.Register(context.Background(), &dto.RegisterRequest{Username: "carol", Password: long})
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("期望 ErrPasswordTooLong，实际: %v", err)
	}
	if _, err := mocks.users.GetByUsername(context.Background(), "carol"); err == nil {
		t.Error("密码过长时不应创建用户")
	}

	// 恰好 72 字节仍可注册
	if _, err := svc.Register(context.Background(), &dto.RegisterRequest{Username: "dave", Password: strings.Repeat("密", 24)}); err != nil {
		t.Errorf("72 字节密码期望注册成功，实际: %v", err)
	}
}

func TestAuthService_Register_UsernameCaseSensitive(t *testing.T) {
	svc, mocks, _, _ := setupTestAuthService()
	mocks.users.seed("bob", false)

	if _, err := svc.Register(context.Background(), &dto.RegisterRequest{Username: "Bob", Password: "x"}); err != nil {
		t.Errorf("用户名区分大小写，期望注册成功，实际: %v", err)
	}
}

// ── Login 测试 ──

func TestAuthService_Login(t *testing.T) {
	svc, _, _, jwtMgr := setupTestAuthService()
	ctx := context.Background()

	reg, err := svc.Register(ctx, &dto.RegisterRequest{Username: "Bob", Password: "p2"})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}

	t.Run("正确密码", func(t *testing.T) {
		resp, err := svc.Login(ctx, &dto.LoginRequest{Username: "Bob", Password: "p2"})
		if err != nil {
			t.Fatalf("期望登录成功，实际: %v", err)
		}
		claims, err := jwtMgr.ParseToken(resp.Token)
		if err != nil {
			t.Fatalf("Token 解析失败: %v", err)
		}
		if claims.UserID != reg.User.ID {
			t.Errorf("期望 user_id=%d，实际 %d", reg.User.ID, claims.UserID)
		}
	})

	t.Run("错误密码", func(t *testing.T) {
		_, err := svc.Login(ctx, &dto.LoginRequest{Username: "Bob", Password: "wrong"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
		}
	})

	t.Run("用户不存在", func(t *testing.T) {
		_, err := svc.Login(ctx, &dto.LoginRequest{Username: "nobody", Password: "p2"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
		}
	})
}

// ── Logout 测试 ──

func TestAuthService_Logout(t *testing.T) {
	svc, _, revoker, _ := setupTestAuthService()

	if err := svc.Logout(context.Background(), "jti-1", time.Now().Add(30*time.Minute)); err != nil {
		t.Fatalf("期望登出成功，实际: %v", err)
	}
	ttl, ok := revoker.revoked["jti-1"]
	if !ok {
		t.Fatal("期望 jti-1 被吊销")
	}
	if ttl <= 29*time.Minute || ttl > 30*time.Minute {
		t.Errorf("期望 TTL 约 30 分钟，实际 %v", ttl)
	}
}

func TestAuthService_Logout_NonExpiringToken(t *testing.T) {
	svc, _, revoker, _ := setupTestAuthService()

	if err := svc.Logout(context.Background(), "jti-2", time.Time{}); err != nil {
		t.Fatalf("期望登出成功，实际: %v", err)
	}
	if ttl := revoker.revoked["jti-2"]; ttl != 24*time.Hour {
		t.Errorf("期望使用兜底 TTL 24h，实际 %v", ttl)
	}
}

func TestAuthService_Logout_WithoutRevoker(t *testing.T) {
	cfg := testConfig()
	repo, _ := newMockRepository()
	svc := NewAuthService(cfg, repo, jwt.NewManager(&cfg.Auth), nil, zap.NewNop())

	if err := svc.Logout(context.Background(), "jti-3", time.Now().Add(time.Hour)); err != nil {
		t.Errorf("未配置吊销名单时登出应直接成功，实际: %v", err)
	}
}

func TestAuthService_Logout_RevokerError(t *testing.T) {
	svc, _, revoker, _ := setupTestAuthService()
	revoker.err = errors.New("redis down")

	if err := svc.Logout(context.Background(), "jti-4", time.Now().Add(time.Hour)); err == nil {
		t.Error("期望返回吊销失败错误")
	}
}

// ── Me 测试 ──

func TestAuthService_Me(t *testing.T) {
	svc, mocks, _, _ := setupTestAuthService()
	id := mocks.users.seed("carol", true)

	resp, err := svc.Me(context.Background(), id)
	if err != nil {
		t.Fatalf("期望成功，实际: %v", err)
	}
	if resp.Username != "carol" || !resp.IsTeacher {
		t.Errorf("用户信息不符: %+v", resp)
	}

	if _, err := svc.Me(context.Background(), 999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
