package curriculum

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/greenlight-backend/internal/domain/curriculum"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

type SetRepo interface {
	Create(dbc dbctx.Context, row *curriculum.Set) (*curriculum.Set, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*curriculum.Set, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*curriculum.Set, error)
	List(dbc dbctx.Context) ([]*curriculum.Set, error)
	ListForUpdate(dbc dbctx.Context) ([]*curriculum.Set, error)
	MaxOrder(dbc dbctx.Context) (int, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByID(dbc dbctx.Context, id uuid.UUID) error
}

type setRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSetRepo(db *gorm.DB, baseLog *logger.Logger) SetRepo {
	return &setRepo{db: db, log: baseLog.With("repo", "CurriculumSetRepo")}
}

func (r *setRepo) Create(dbc dbctx.Context, row *curriculum.Set) (*curriculum.Set, error) {
	if row == nil {
		return nil, nil
	}
	if err := dbc.Resolve(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *setRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*curriculum.Set, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *setRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*curriculum.Set, error) {
	var out []*curriculum.Set
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Resolve(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// List returns sets by explicit order, unordered sets last by name.
func (r *setRepo) List(dbc dbctx.Context) ([]*curriculum.Set, error) {
	var out []*curriculum.Set
	err := dbc.Resolve(r.db).
		Order("CASE WHEN sort_order IS NULL THEN 1 ELSE 0 END, sort_order ASC, name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListForUpdate is List with row locks held until the surrounding tx ends.
func (r *setRepo) ListForUpdate(dbc dbctx.Context) ([]*curriculum.Set, error) {
	var out []*curriculum.Set
	err := dbc.Resolve(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("CASE WHEN sort_order IS NULL THEN 1 ELSE 0 END, sort_order ASC, name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *setRepo) MaxOrder(dbc dbctx.Context) (int, error) {
	var max sql.NullInt64
	if err := dbc.Resolve(r.db).Model(&curriculum.Set{}).Select("MAX(sort_order)").Row().Scan(&max); err != nil {
		return 0, err
	}
	return int(max.Int64), nil
}

func (r *setRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&curriculum.Set{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *setRepo) DeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return dbc.Resolve(r.db).Where("id = ?", id).Delete(&curriculum.Set{}).Error
}
