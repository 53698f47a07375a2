package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/greenlight-backend/internal/data/repos"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

type Repos struct {
	CurriculumSet  repos.CurriculumSetRepo
	CurriculumItem repos.CurriculumItemRepo
	Progress       repos.ProgressRepo
	Memo           repos.MemoRepo
	Profile        repos.ProfileRepo
	ParentLink     repos.ParentLinkRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		CurriculumSet:  repos.NewCurriculumSetRepo(db, log),
		CurriculumItem: repos.NewCurriculumItemRepo(db, log),
		Progress:       repos.NewProgressRepo(db, log),
		Memo:           repos.NewMemoRepo(db, log),
		Profile:        repos.NewProfileRepo(db, log),
		ParentLink:     repos.NewParentLinkRepo(db, log),
	}
}
