package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/greenlight-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/greenlight-backend/internal/domain/aggregates"
	"github.com/yungbote/greenlight-backend/internal/observability"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
	"github.com/yungbote/greenlight-backend/internal/services"
)

type Aggregates struct {
	Curriculum domainagg.CurriculumAggregate
	Profile    domainagg.ProfileAggregate
}

type Services struct {
	Auth       services.AuthService
	Profile    services.ProfileService
	Curriculum services.CurriculumService
	Progress   services.ProgressService
	Dashboard  services.DashboardService
	Import     services.ImportService
}

func wireAggregates(db *gorm.DB, log *logger.Logger, r Repos, metrics *observability.Metrics) Aggregates {
	log.Info("Wiring aggregates...")
	base := aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: aggregates.NewObservabilityHooks(metrics),
	}
	return Aggregates{
		Curriculum: aggregates.NewCurriculumAggregate(base, aggregates.CurriculumAggregateDeps{
			Sets:     r.CurriculumSet,
			Items:    r.CurriculumItem,
			Profiles: r.Profile,
			Progress: r.Progress,
			Memos:    r.Memo,
		}),
		Profile: aggregates.NewProfileAggregate(base, aggregates.ProfileAggregateDeps{
			Profiles: r.Profile,
			Links:    r.ParentLink,
			Sets:     r.CurriculumSet,
			Progress: r.Progress,
			Memos:    r.Memo,
		}),
	}
}

func wireServices(log *logger.Logger, cfg Config, r Repos, aggs Aggregates, c Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	profile := services.NewProfileService(log, r.Profile, r.ParentLink, aggs.Profile, c.Boards)
	curriculum := services.NewCurriculumService(log, r.CurriculumSet, r.CurriculumItem, aggs.Curriculum, c.Snapshots)
	return Services{
		Auth:       services.NewAuthService(log, cfg.Auth, profile),
		Profile:    profile,
		Curriculum: curriculum,
		Progress: services.NewProgressService(log, services.ProgressServiceDeps{
			Profiles:  r.Profile,
			Links:     r.ParentLink,
			Sets:      r.CurriculumSet,
			Items:     r.CurriculumItem,
			Progress:  r.Progress,
			Memos:     r.Memo,
			Snapshots: curriculum,
			Boards:    c.Boards,
			Metrics:   metrics,
		}),
		Dashboard: services.NewDashboardService(log, r.Profile, r.CurriculumSet, r.CurriculumItem, r.Progress, r.Memo),
		Import:    services.NewImportService(log, aggs.Curriculum),
	}
}
