package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/greenlight-backend/internal/domain/user"
	httpH "github.com/yungbote/greenlight-backend/internal/http/handlers"
	httpMW "github.com/yungbote/greenlight-backend/internal/http/middleware"
	"github.com/yungbote/greenlight-backend/internal/observability"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	AllowOrigins   []string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler     *httpH.HealthHandler
	ProfileHandler    *httpH.ProfileHandler
	BoardHandler      *httpH.BoardHandler
	CurriculumHandler *httpH.CurriculumHandler
	DashboardHandler  *httpH.DashboardHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.RequestMeta())
	r.Use(httpMW.Observe(cfg.Log, cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Signed-in user
	if cfg.ProfileHandler != nil {
		api.GET("/me", cfg.ProfileHandler.GetMe)
		api.PATCH("/me", cfg.ProfileHandler.UpdateMe)
		api.GET("/children", cfg.ProfileHandler.ListChildren)
	}
	if cfg.BoardHandler != nil {
		api.GET("/me/board", cfg.BoardHandler.GetMyBoard)
		api.PUT("/me/progress/:itemId", cfg.BoardHandler.SetMyStatus)
		api.PUT("/me/memos/:itemId", cfg.BoardHandler.SetMyMemo)
		api.GET("/children/:id/board", cfg.BoardHandler.GetStudentBoard)
	}

	admin := api.Group("/admin")
	admin.Use(httpMW.RequireRole(user.RoleAdmin))

	// Curriculum
	if cfg.CurriculumHandler != nil {
		admin.GET("/curriculum-sets", cfg.CurriculumHandler.ListSets)
		admin.POST("/curriculum-sets", cfg.CurriculumHandler.CreateSet)
		admin.POST("/curriculum-sets/import", cfg.CurriculumHandler.Import)
		admin.PATCH("/curriculum-sets/:id", cfg.CurriculumHandler.RenameSet)
		admin.DELETE("/curriculum-sets/:id", cfg.CurriculumHandler.DeleteSet)
		admin.POST("/curriculum-sets/:id/move", cfg.CurriculumHandler.MoveSet)
		admin.GET("/curriculum-sets/:id/tree", cfg.CurriculumHandler.Tree)
		admin.POST("/curriculum-sets/:id/items", cfg.CurriculumHandler.CreateItem)
		admin.PATCH("/curriculum-items/:id", cfg.CurriculumHandler.RenameItem)
		admin.DELETE("/curriculum-items/:id", cfg.CurriculumHandler.DeleteItem)
		admin.POST("/curriculum-items/:id/move", cfg.CurriculumHandler.MoveItem)
	}

	// Profiles
	if cfg.ProfileHandler != nil {
		admin.GET("/profiles", cfg.ProfileHandler.List)
		admin.PATCH("/profiles/:id", cfg.ProfileHandler.UpdateContact)
		admin.POST("/profiles/:id/approve", cfg.ProfileHandler.Approve)
		admin.PUT("/profiles/:id/curriculum", cfg.ProfileHandler.AssignCurriculum)
		admin.PUT("/profiles/:id/links", cfg.ProfileHandler.ReplaceLinks)
		admin.POST("/profiles/:id/archive", cfg.ProfileHandler.Archive)
		admin.POST("/profiles/:id/unarchive", cfg.ProfileHandler.Unarchive)
		admin.DELETE("/profiles/:id", cfg.ProfileHandler.Delete)
	}

	// Student boards
	if cfg.BoardHandler != nil {
		admin.GET("/students/:id/board", cfg.BoardHandler.GetStudentBoard)
		admin.PUT("/students/:id/progress/:itemId", cfg.BoardHandler.SetStudentStatus)
		admin.PUT("/students/:id/memos/:itemId", cfg.BoardHandler.SetAdminMemo)
	}

	if cfg.DashboardHandler != nil {
		admin.GET("/dashboard", cfg.DashboardHandler.Overview)
	}

	return r
}
