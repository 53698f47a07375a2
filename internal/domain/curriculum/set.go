package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Set is a named curriculum (a grade or class track) owning a tree of items.
type Set struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Order     *int      `gorm:"column:sort_order;index" json:"order,omitempty"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Set) TableName() string { return "curriculum_sets" }

func (s *Set) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
