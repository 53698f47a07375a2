package app

import (
	"context"

	"gorm.io/gorm"

	httpH "github.com/yungbote/greenlight-backend/internal/http/handlers"
	httpMW "github.com/yungbote/greenlight-backend/internal/http/middleware"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Profile    *httpH.ProfileHandler
	Board      *httpH.BoardHandler
	Curriculum *httpH.CurriculumHandler
	Dashboard  *httpH.DashboardHandler
}

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireHandlers(log *logger.Logger, db *gorm.DB, c Clients, s Services) Handlers {
	log.Info("Wiring handlers...")
	checks := map[string]httpH.Pinger{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if c.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return c.Redis.Ping(ctx).Err()
		}
	}
	return Handlers{
		Health:     httpH.NewHealthHandler(checks),
		Profile:    httpH.NewProfileHandler(s.Profile),
		Board:      httpH.NewBoardHandler(s.Progress),
		Curriculum: httpH.NewCurriculumHandler(s.Curriculum, s.Import),
		Dashboard:  httpH.NewDashboardHandler(s.Dashboard),
	}
}

func wireMiddleware(log *logger.Logger, s Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{Auth: httpMW.NewAuthMiddleware(log, s.Auth)}
}
