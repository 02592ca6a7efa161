package router

import (
	"safc/internal/config"
	"safc/internal/handlers"
	"safc/internal/logger"
	"safc/internal/middleware"
	"safc/internal/query"
	"safc/internal/services"
	"safc/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps 路由依赖
type Deps struct {
	Config *config.AppConfig
	DB     *gorm.DB
	Store  *store.Store
	Engine *query.Engine
	Quota  *services.QuotaService
	Log    *logger.Logger
}

// New 创建 gin 引擎并注册全部路由
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(d.Log),
		middleware.CORS(),
		middleware.Governor(d.Config.Governor.PerSecond, d.Config.Governor.Burst),
	)
	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Handlers
	queryHandler := handlers.NewQueryHandler(d.Store, d.Engine)
	reviewHandler := handlers.NewReviewHandler(d.Store)
	feedHandler := handlers.NewFeedHandler(d.Store, d.Config.Server.SiteURL)

	api := r.Group("/api")
	{
		api.GET("", queryHandler.Status)                               // 统计与状态
		api.GET("/query", queryHandler.Query)                          // 逐级查询
		api.GET("/objects/:id", queryHandler.Object)                   // 客体及评价树
		api.GET("/comments/:id", queryHandler.Comment)                 // 评价及回复
		api.GET("/search/supervisors", queryHandler.SearchSupervisors) // 模糊搜索导师
		api.GET("/search/comments", queryHandler.SearchComments)       // 模糊搜索评价
		api.GET("/feed.xml", feedHandler.RSSFeed)                      // 最新评价 RSS
	}

	// 写接口受每日配额限制
	write := api.Group("/new")
	write.Use(middleware.PostQuota(d.Quota))
	{
		write.POST("/comment", reviewHandler.CreateComment) // 新增评价（必要时新增客体）
		write.POST("/reply", reviewHandler.CreateReply)     // 回复客体或评价
	}

	// 数据库下载只在 sqlite 部署下提供
	if d.Config.Database.Driver == "sqlite" {
		adminHandler := handlers.NewAdminHandler(d.DB, d.Config.Database.Path)
		api.GET("/download/db", middleware.AdminRequired(d.Config.Admin.TokenHash), adminHandler.DownloadDB)
	}
}
