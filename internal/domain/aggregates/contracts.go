package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/greenlight-backend/internal/domain/curriculum"
	"github.com/yungbote/greenlight-backend/internal/domain/user"
)

// WriteTxOwnership defines who owns write transaction boundaries.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate means aggregate write methods start/manage atomic DB transactions internally.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// Contract describes aggregate-level policy expectations.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	Notes            string
}

// Aggregate is the common marker for all aggregate contracts.
type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

// Direction moves a node among its siblings.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

func (d Direction) Valid() bool { return d == DirectionUp || d == DirectionDown }

// MoveResult reports the orders after a move. Moved is false at a boundary,
// in which case nothing was written.
type MoveResult struct {
	Moved  bool
	Orders map[uuid.UUID]int
}

type AddItemInput struct {
	SetID    uuid.UUID
	ParentID *uuid.UUID
	Name     string
	IsLeaf   bool
}

type DeleteItemResult struct {
	SetID      uuid.UUID
	DeletedIDs []uuid.UUID
}

type AddSetInput struct {
	Name  string
	Order *int
}

type DeleteSetInput struct {
	SetID       uuid.UUID
	DeleteItems bool
}

type DeleteSetResult struct {
	DeletedItemIDs     []uuid.UUID
	UnassignedProfiles int64
}

// ImportNode is one node of a curriculum outline being imported.
type ImportNode struct {
	Name     string       `yaml:"name"`
	Leaf     bool         `yaml:"leaf"`
	Children []ImportNode `yaml:"children"`
}

type ImportSetInput struct {
	Name  string       `yaml:"name"`
	Order *int         `yaml:"order"`
	Items []ImportNode `yaml:"items"`
}

type ImportSetResult struct {
	Set   *curriculum.Set
	Items []*curriculum.Item
}

// CurriculumAggregate owns every structural write to sets and their item trees.
type CurriculumAggregate interface {
	Aggregate
	AddSet(ctx context.Context, in AddSetInput) (*curriculum.Set, error)
	RenameSet(ctx context.Context, setID uuid.UUID, name string) (*curriculum.Set, error)
	MoveSet(ctx context.Context, setID uuid.UUID, dir Direction) (MoveResult, error)
	DeleteSet(ctx context.Context, in DeleteSetInput) (DeleteSetResult, error)

	AddItem(ctx context.Context, in AddItemInput) (*curriculum.Item, error)
	RenameItem(ctx context.Context, itemID uuid.UUID, name string) (*curriculum.Item, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) (DeleteItemResult, error)
	MoveItem(ctx context.Context, itemID uuid.UUID, dir Direction) (MoveResult, error)

	ImportSet(ctx context.Context, in ImportSetInput) (ImportSetResult, error)
}

type ApproveInput struct {
	ActorID      uuid.UUID
	UserID       uuid.UUID
	Role         user.Role
	CurriculumID *uuid.UUID
}

type UpdateContactInput struct {
	UserID uuid.UUID
	Name   *string
	Phone  *string
}

// ProfileAggregate owns role changes, assignments, links and profile removal.
type ProfileAggregate interface {
	Aggregate
	Approve(ctx context.Context, in ApproveInput) (*user.Profile, error)
	AssignCurriculum(ctx context.Context, userID uuid.UUID, setID *uuid.UUID) (*user.Profile, error)
	ReplaceParentLinks(ctx context.Context, parentID uuid.UUID, studentIDs []uuid.UUID) ([]*user.ParentStudentLink, error)
	SetArchived(ctx context.Context, userID uuid.UUID, archived bool) (*user.Profile, error)
	UpdateContact(ctx context.Context, in UpdateContactInput) (*user.Profile, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}
