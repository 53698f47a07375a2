package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/greenlight-backend/internal/domain/progress"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

type ProgressRepo interface {
	Upsert(dbc dbctx.Context, row *progress.UserProgress) error

	GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*progress.UserProgress, error)
	GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*progress.UserProgress, error)
	GetByStatus(dbc dbctx.Context, status progress.Status) ([]*progress.UserProgress, error)

	DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error
	DeleteByItemIDs(dbc dbctx.Context, itemIDs []uuid.UUID) error
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return &progressRepo{db: db, log: baseLog.With("repo", "ProgressRepo")}
}

// Upsert writes the status of one (user, item) pair.
func (r *progressRepo) Upsert(dbc dbctx.Context, row *progress.UserProgress) error {
	if row == nil || row.UserID == uuid.Nil || row.ItemID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now().UTC()

	return dbc.Resolve(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).
		Create(row).Error
}

func (r *progressRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*progress.UserProgress, error) {
	if userID == uuid.Nil {
		return []*progress.UserProgress{}, nil
	}
	return r.GetByUserIDs(dbc, []uuid.UUID{userID})
}

func (r *progressRepo) GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*progress.UserProgress, error) {
	out := []*progress.UserProgress{}
	if len(userIDs) == 0 {
		return out, nil
	}
	if err := dbc.Resolve(r.db).Where("user_id IN ?", userIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetByStatus returns every row in a status, most recently changed first.
func (r *progressRepo) GetByStatus(dbc dbctx.Context, status progress.Status) ([]*progress.UserProgress, error) {
	out := []*progress.UserProgress{}
	err := dbc.Resolve(r.db).
		Where("status = ?", status).
		Order("updated_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *progressRepo) DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return nil
	}
	return dbc.Resolve(r.db).Where("user_id = ?", userID).Delete(&progress.UserProgress{}).Error
}

func (r *progressRepo) DeleteByItemIDs(dbc dbctx.Context, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return dbc.Resolve(r.db).Where("item_id IN ?", itemIDs).Delete(&progress.UserProgress{}).Error
}
