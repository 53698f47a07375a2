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

type MemoRepo interface {
	UpsertStudentMemo(dbc dbctx.Context, userID, itemID uuid.UUID, text *string) (*progress.Memo, error)
	UpsertAdminMemo(dbc dbctx.Context, userID, itemID uuid.UUID, text, youtubeURL *string) (*progress.Memo, error)

	Get(dbc dbctx.Context, userID, itemID uuid.UUID) (*progress.Memo, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*progress.Memo, error)
	GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*progress.Memo, error)

	DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error
	DeleteByItemIDs(dbc dbctx.Context, itemIDs []uuid.UUID) error
}

type memoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemoRepo(db *gorm.DB, baseLog *logger.Logger) MemoRepo {
	return &memoRepo{db: db, log: baseLog.With("repo", "MemoRepo")}
}

// upsert inserts row or, on (user_id, item_id) conflict, overwrites only columns.
func (r *memoRepo) upsert(dbc dbctx.Context, row *progress.Memo, columns []string) (*progress.Memo, error) {
	row.ID = uuid.New()
	row.UpdatedAt = time.Now().UTC()
	err := dbc.Resolve(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns(append(columns, "updated_at")),
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.Get(dbc, row.UserID, row.ItemID)
}

// UpsertStudentMemo sets the student's note without touching the prescription.
func (r *memoRepo) UpsertStudentMemo(dbc dbctx.Context, userID, itemID uuid.UUID, text *string) (*progress.Memo, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return nil, nil
	}
	row := &progress.Memo{UserID: userID, ItemID: itemID, StudentMemo: text}
	return r.upsert(dbc, row, []string{"student_memo"})
}

// UpsertAdminMemo sets the prescription without touching the student's note.
func (r *memoRepo) UpsertAdminMemo(dbc dbctx.Context, userID, itemID uuid.UUID, text, youtubeURL *string) (*progress.Memo, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return nil, nil
	}
	row := &progress.Memo{UserID: userID, ItemID: itemID, AdminMemo: text, YoutubeURL: youtubeURL}
	return r.upsert(dbc, row, []string{"admin_memo", "youtube_url"})
}

func (r *memoRepo) Get(dbc dbctx.Context, userID, itemID uuid.UUID) (*progress.Memo, error) {
	var row progress.Memo
	err := dbc.Resolve(r.db).
		Where("user_id = ? AND item_id = ?", userID, itemID).
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

func (r *memoRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*progress.Memo, error) {
	if userID == uuid.Nil {
		return []*progress.Memo{}, nil
	}
	return r.GetByUserIDs(dbc, []uuid.UUID{userID})
}

func (r *memoRepo) GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*progress.Memo, error) {
	out := []*progress.Memo{}
	if len(userIDs) == 0 {
		return out, nil
	}
	if err := dbc.Resolve(r.db).Where("user_id IN ?", userIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *memoRepo) DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return nil
	}
	return dbc.Resolve(r.db).Where("user_id = ?", userID).Delete(&progress.Memo{}).Error
}

func (r *memoRepo) DeleteByItemIDs(dbc dbctx.Context, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return dbc.Resolve(r.db).Where("item_id IN ?", itemIDs).Delete(&progress.Memo{}).Error
}
