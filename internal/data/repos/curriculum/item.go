package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/greenlight-backend/internal/domain/curriculum"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

type ItemRepo interface {
	Create(dbc dbctx.Context, rows []*curriculum.Item) ([]*curriculum.Item, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*curriculum.Item, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*curriculum.Item, error)
	GetBySetID(dbc dbctx.Context, setID uuid.UUID) ([]*curriculum.Item, error)
	GetBySetIDs(dbc dbctx.Context, setIDs []uuid.UUID) ([]*curriculum.Item, error)
	GetSiblings(dbc dbctx.Context, setID uuid.UUID, parentID *uuid.UUID, forUpdate bool) ([]*curriculum.Item, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type itemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewItemRepo(db *gorm.DB, baseLog *logger.Logger) ItemRepo {
	return &itemRepo{db: db, log: baseLog.With("repo", "CurriculumItemRepo")}
}

func (r *itemRepo) Create(dbc dbctx.Context, rows []*curriculum.Item) ([]*curriculum.Item, error) {
	if len(rows) == 0 {
		return []*curriculum.Item{}, nil
	}
	if err := dbc.Resolve(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *itemRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*curriculum.Item, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *itemRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*curriculum.Item, error) {
	var out []*curriculum.Item
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Resolve(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetBySetID returns a set's items ordered by depth, then sibling order.
func (r *itemRepo) GetBySetID(dbc dbctx.Context, setID uuid.UUID) ([]*curriculum.Item, error) {
	if setID == uuid.Nil {
		return []*curriculum.Item{}, nil
	}
	return r.GetBySetIDs(dbc, []uuid.UUID{setID})
}

func (r *itemRepo) GetBySetIDs(dbc dbctx.Context, setIDs []uuid.UUID) ([]*curriculum.Item, error) {
	out := []*curriculum.Item{}
	if len(setIDs) == 0 {
		return out, nil
	}
	err := dbc.Resolve(r.db).
		Where("set_id IN ?", setIDs).
		Order("depth ASC, sort_order ASC, created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func siblingScope(q *gorm.DB, setID uuid.UUID, parentID *uuid.UUID) *gorm.DB {
	q = q.Where("set_id = ?", setID)
	if parentID == nil {
		return q.Where("parent_id IS NULL")
	}
	return q.Where("parent_id = ?", *parentID)
}

// GetSiblings returns the sibling group ordered by sort_order. With forUpdate
// the rows stay locked until the surrounding transaction ends.
func (r *itemRepo) GetSiblings(dbc dbctx.Context, setID uuid.UUID, parentID *uuid.UUID, forUpdate bool) ([]*curriculum.Item, error) {
	q := siblingScope(dbc.Resolve(r.db), setID, parentID)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out []*curriculum.Item
	if err := q.Order("sort_order ASC, created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *itemRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.Resolve(r.db).
		Model(&curriculum.Item{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *itemRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.Resolve(r.db).Where("id IN ?", ids).Delete(&curriculum.Item{}).Error
}
