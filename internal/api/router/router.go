package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"school-journal/backend/config"
	"school-journal/backend/internal/api/handler"
	"school-journal/backend/internal/api/middleware"
	"school-journal/backend/pkg/jwt"
	"school-journal/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil，此时不检查 Token 吊销名单
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 指标 ──
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(reg)

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(metrics.Handler())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	var revocations middleware.RevocationChecker
	if rdb != nil {
		revocations = rdb
	}

	user := r.Group("/api/user")
	{
		// 认证模块（无需认证）
		user.POST("/register", h.Auth.Register)
		user.POST("/login", h.Auth.Login)

		// 需要认证的路由
		authorized := user.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, revocations, logger))
		{
			authorized.POST("/logout", h.Auth.Logout)
			authorized.GET("/me", h.Auth.Me)

			// 日志模块（老师身份由 Service 层校验）
			journal := authorized.Group("/journal")
			{
				journal.POST("/create", h.Journal.Create)
				journal.POST("/update/:id", h.Journal.Update)
				journal.DELETE("/delete/:id", h.Journal.Delete)
				journal.POST("/publish/:id", h.Journal.Publish)
				journal.GET("/feed", h.Journal.Feed)
				journal.GET("/feed.ics", h.Export.FeedCalendar)
				journal.GET("/export", h.Export.ExportJournals)
			}
		}
	}

	return r
}
