package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/greenlight-backend/internal/data/repos/curriculum"
	"github.com/yungbote/greenlight-backend/internal/data/repos/progress"
	"github.com/yungbote/greenlight-backend/internal/data/repos/user"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

type CurriculumSetRepo = curriculum.SetRepo
type CurriculumItemRepo = curriculum.ItemRepo

type ProgressRepo = progress.ProgressRepo
type MemoRepo = progress.MemoRepo

type ProfileRepo = user.ProfileRepo
type ParentLinkRepo = user.ParentLinkRepo

func NewCurriculumSetRepo(db *gorm.DB, baseLog *logger.Logger) CurriculumSetRepo {
	return curriculum.NewSetRepo(db, baseLog)
}
func NewCurriculumItemRepo(db *gorm.DB, baseLog *logger.Logger) CurriculumItemRepo {
	return curriculum.NewItemRepo(db, baseLog)
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return progress.NewProgressRepo(db, baseLog)
}
func NewMemoRepo(db *gorm.DB, baseLog *logger.Logger) MemoRepo {
	return progress.NewMemoRepo(db, baseLog)
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return user.NewProfileRepo(db, baseLog)
}
func NewParentLinkRepo(db *gorm.DB, baseLog *logger.Logger) ParentLinkRepo {
	return user.NewParentLinkRepo(db, baseLog)
}
