package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserProgress is the stored status of one leaf for one student.
type UserProgress struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_progress_user_item,priority:1" json:"user_id"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_progress_user_item,priority:2;index" json:"item_id"`
	Status    Status    `gorm:"column:status;type:varchar(8);not null;default:'BLACK'" json:"status"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (UserProgress) TableName() string { return "user_progress" }

func (p *UserProgress) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Memo holds the student's note and the admin's prescription for one leaf.
type Memo struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_curriculum_memo_user_item,priority:1" json:"user_id"`
	ItemID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_curriculum_memo_user_item,priority:2;index" json:"item_id"`
	StudentMemo *string   `gorm:"column:student_memo;type:text" json:"student_memo"`
	AdminMemo   *string   `gorm:"column:admin_memo;type:text" json:"admin_memo"`
	YoutubeURL  *string   `gorm:"column:youtube_url;type:text" json:"youtube_url"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Memo) TableName() string { return "curriculum_memos" }

func (m *Memo) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
