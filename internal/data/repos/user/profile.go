package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/greenlight-backend/internal/domain/user"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

// ProfileFilter narrows List. Zero value lists every non-archived profile.
type ProfileFilter struct {
	Roles           []user.Role
	IncludeArchived bool
	OnlyArchived    bool
}

type ProfileRepo interface {
	Create(dbc dbctx.Context, row *user.Profile) (*user.Profile, error)
	CreateIfMissing(dbc dbctx.Context, row *user.Profile) (*user.Profile, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*user.Profile, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*user.Profile, error)
	GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*user.Profile, error)
	List(dbc dbctx.Context, f ProfileFilter) ([]*user.Profile, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	ClearCurriculum(dbc dbctx.Context, setID uuid.UUID) (int64, error)
	ClearLinkedStudent(dbc dbctx.Context, studentID uuid.UUID) error
	DeleteByID(dbc dbctx.Context, id uuid.UUID) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{db: db, log: baseLog.With("repo", "ProfileRepo")}
}

func (r *profileRepo) Create(dbc dbctx.Context, row *user.Profile) (*user.Profile, error) {
	if row == nil {
		return nil, nil
	}
	if err := dbc.Resolve(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// CreateIfMissing inserts row unless a profile with its id exists, then
// returns the stored profile. Concurrent first logins converge on one row.
func (r *profileRepo) CreateIfMissing(dbc dbctx.Context, row *user.Profile) (*user.Profile, error) {
	if row == nil || row.ID == uuid.Nil {
		return nil, nil
	}
	err := dbc.Resolve(r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(dbc, row.ID)
}

func (r *profileRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*user.Profile, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *profileRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*user.Profile, error) {
	out := []*user.Profile{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Resolve(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *profileRepo) GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*user.Profile, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row user.Profile
	err := dbc.Resolve(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// List returns matching profiles, newest first.
func (r *profileRepo) List(dbc dbctx.Context, f ProfileFilter) ([]*user.Profile, error) {
	q := dbc.Resolve(r.db)
	if len(f.Roles) > 0 {
		q = q.Where("role IN ?", f.Roles)
	}
	switch {
	case f.OnlyArchived:
		q = q.Where("is_archived = ?", true)
	case !f.IncludeArchived:
		q = q.Where("is_archived = ?", false)
	}
	out := []*user.Profile{}
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *profileRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&user.Profile{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ClearCurriculum unassigns setID from every profile and returns how many changed.
func (r *profileRepo) ClearCurriculum(dbc dbctx.Context, setID uuid.UUID) (int64, error) {
	if setID == uuid.Nil {
		return 0, nil
	}
	res := dbc.Resolve(r.db).
		Model(&user.Profile{}).
		Where("curriculum_id = ?", setID).
		Updates(map[string]interface{}{"curriculum_id": nil, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// ClearLinkedStudent drops the legacy single-child pointer wherever it names studentID.
func (r *profileRepo) ClearLinkedStudent(dbc dbctx.Context, studentID uuid.UUID) error {
	if studentID == uuid.Nil {
		return nil
	}
	return dbc.Resolve(r.db).
		Model(&user.Profile{}).
		Where("linked_student_id = ?", studentID).
		Updates(map[string]interface{}{"linked_student_id": nil, "updated_at": time.Now().UTC()}).Error
}

func (r *profileRepo) DeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return dbc.Resolve(r.db).Where("id = ?", id).Delete(&user.Profile{}).Error
}
