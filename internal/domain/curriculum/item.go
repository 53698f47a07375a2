package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxDepth is the deepest level an item may live at; items there are always leaves.
const MaxDepth = 10

// Item is one node of a set's tree: a folder (unit/chapter) or a leaf (learnable item).
type Item struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SetID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_curriculum_item_siblings,priority:1" json:"set_id"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index:idx_curriculum_item_siblings,priority:2" json:"parent_id"`
	Name      string     `gorm:"column:name;not null" json:"name"`
	IsLeaf    bool       `gorm:"column:is_leaf;not null;default:false" json:"is_leaf"`
	Order     int        `gorm:"column:sort_order;not null;default:0;index:idx_curriculum_item_siblings,priority:3" json:"order"`
	Depth     int        `gorm:"column:depth;not null;default:1" json:"depth"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Item) TableName() string { return "curriculum_items" }

func (i *Item) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// CanAddChild reports whether a child may be created under the item.
func (i *Item) CanAddChild() bool { return !i.IsLeaf && i.Depth < MaxDepth }

// ChildPlacement resolves the depth of a new child under parent (nil for a root)
// and whether it must be stored as a leaf regardless of what the caller asked for.
func ChildPlacement(parent *Item) (depth int, forceLeaf bool) {
	depth = 1
	if parent != nil {
		depth = parent.Depth + 1
	}
	return depth, depth >= MaxDepth
}
