package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile is an authenticated person known to the academy. Its ID is the
// subject issued by the external identity provider.
type Profile struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email           string     `gorm:"column:email;index" json:"email"`
	Name            string     `gorm:"column:name;not null" json:"name"`
	Phone           *string    `gorm:"column:phone" json:"phone"`
	Role            Role       `gorm:"column:role;type:varchar(16);not null;default:'pending';index" json:"role"`
	CurriculumID    *uuid.UUID `gorm:"type:uuid;column:curriculum_id;index" json:"curriculum_id"`
	LinkedStudentID *uuid.UUID `gorm:"type:uuid;column:linked_student_id" json:"linked_student_id"`
	ApprovedAt      *time.Time `gorm:"column:approved_at" json:"approved_at"`
	ApprovedBy      *uuid.UUID `gorm:"type:uuid;column:approved_by" json:"approved_by"`
	IsArchived      bool       `gorm:"column:is_archived;not null;default:false;index" json:"is_archived"`
	ArchivedAt      *time.Time `gorm:"column:archived_at" json:"archived_at"`
	CreatedAt       time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

func (p *Profile) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Role == "" {
		p.Role = RolePending
	}
	return nil
}

func (p *Profile) Permissions() Permissions { return PermissionsFor(p.Role) }

// DisplayName picks the provider-supplied name, then the email local part, then "User".
func DisplayName(name, email string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	if local, _, ok := strings.Cut(strings.TrimSpace(email), "@"); ok && local != "" {
		return local
	}
	return "User"
}

// ParentStudentLink grants a parent read access to one student's board.
type ParentStudentLink struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ParentID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_parent_student_link,priority:1" json:"parent_id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_parent_student_link,priority:2;index" json:"student_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (ParentStudentLink) TableName() string { return "parent_student_links" }

func (l *ParentStudentLink) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
