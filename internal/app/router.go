package app

import (
	"github.com/yungbote/greenlight-backend/internal/http"
	"github.com/yungbote/greenlight-backend/internal/observability"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, h Handlers, mw Middleware) *http.Server {
	log.Info("Wiring router...")
	return http.NewServer(http.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		ServiceName:       cfg.Otel.ServiceName,
		TracingEnabled:    cfg.Otel.Enabled,
		AllowOrigins:      cfg.AllowOrigins,
		AuthMiddleware:    mw.Auth,
		HealthHandler:     h.Health,
		ProfileHandler:    h.Profile,
		BoardHandler:      h.Board,
		CurriculumHandler: h.Curriculum,
		DashboardHandler:  h.Dashboard,
	})
}
