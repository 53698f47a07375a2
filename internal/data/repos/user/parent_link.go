package user

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/greenlight-backend/internal/domain/user"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

type ParentLinkRepo interface {
	Create(dbc dbctx.Context, rows []*user.ParentStudentLink) ([]*user.ParentStudentLink, error)

	GetByParentID(dbc dbctx.Context, parentID uuid.UUID) ([]*user.ParentStudentLink, error)
	Exists(dbc dbctx.Context, parentID, studentID uuid.UUID) (bool, error)

	DeleteByParentID(dbc dbctx.Context, parentID uuid.UUID) error
	DeleteByStudentID(dbc dbctx.Context, studentID uuid.UUID) error
}

type parentLinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewParentLinkRepo(db *gorm.DB, baseLog *logger.Logger) ParentLinkRepo {
	return &parentLinkRepo{db: db, log: baseLog.With("repo", "ParentLinkRepo")}
}

func (r *parentLinkRepo) Create(dbc dbctx.Context, rows []*user.ParentStudentLink) ([]*user.ParentStudentLink, error) {
	if len(rows) == 0 {
		return []*user.ParentStudentLink{}, nil
	}
	if err := dbc.Resolve(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *parentLinkRepo) GetByParentID(dbc dbctx.Context, parentID uuid.UUID) ([]*user.ParentStudentLink, error) {
	out := []*user.ParentStudentLink{}
	if parentID == uuid.Nil {
		return out, nil
	}
	err := dbc.Resolve(r.db).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Exists reports whether parentID is linked to studentID.
func (r *parentLinkRepo) Exists(dbc dbctx.Context, parentID, studentID uuid.UUID) (bool, error) {
	var n int64
	err := dbc.Resolve(r.db).
		Model(&user.ParentStudentLink{}).
		Where("parent_id = ? AND student_id = ?", parentID, studentID).
		Count(&n).Error
	return n > 0, err
}

func (r *parentLinkRepo) DeleteByParentID(dbc dbctx.Context, parentID uuid.UUID) error {
	if parentID == uuid.Nil {
		return nil
	}
	return dbc.Resolve(r.db).Where("parent_id = ?", parentID).Delete(&user.ParentStudentLink{}).Error
}

func (r *parentLinkRepo) DeleteByStudentID(dbc dbctx.Context, studentID uuid.UUID) error {
	if studentID == uuid.Nil {
		return nil
	}
	return dbc.Resolve(r.db).Where("student_id = ?", studentID).Delete(&user.ParentStudentLink{}).Error
}
