package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"school-journal/backend/config"
	"school-journal/backend/internal/repository"
	"school-journal/backend/pkg/jwt"
	"school-journal/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth    AuthService
	Journal JournalService
	Export  ExportService
}

// TokenRevoker Token 吊销名单写入端
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

// NewService 创建 Service 聚合
// rdb 可为 nil，此时登出不会吊销 Token
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	var revoker TokenRevoker
	if rdb != nil {
		revoker = rdb
	}

	return &Service{
		Auth:    NewAuthService(cfg, repo, jwtMgr, revoker, logger),
		Journal: NewJournalService(repo, logger),
		Export:  NewExportService(repo, jwtMgr.Issuer(), logger),
	}
}

// runInTx 在单个事务中执行 fn
// 无底层连接（单元测试的 mock 仓储）时直接在原仓储上执行
func runInTx(ctx context.Context, repo *repository.Repository, logger *zap.Logger, fn func(txRepo *repository.Repository) error) error {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	if err := fn(repo.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}

	return nil
}
