package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/greenlight-backend/internal/data/cache"
	"github.com/yungbote/greenlight-backend/internal/data/repos"
	domainagg "github.com/yungbote/greenlight-backend/internal/domain/aggregates"
	"github.com/yungbote/greenlight-backend/internal/domain/curriculum"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

// TreeView is the admin editor payload: the nested tree plus any structural
// problems found in the stored rows.
type TreeView struct {
	Set    *curriculum.Set        `json:"set"`
	Tree   []*curriculum.TreeNode `json:"tree"`
	Issues []curriculum.TreeIssue `json:"issues"`
}

type CurriculumService interface {
	ListSets(ctx context.Context) ([]*curriculum.Set, error)
	Snapshot(ctx context.Context, setID uuid.UUID) (*curriculum.Snapshot, error)
	Tree(ctx context.Context, setID uuid.UUID) (*TreeView, error)

	AddSet(ctx context.Context, in domainagg.AddSetInput) (*curriculum.Set, error)
	RenameSet(ctx context.Context, setID uuid.UUID, name string) (*curriculum.Set, error)
	MoveSet(ctx context.Context, setID uuid.UUID, dir domainagg.Direction) (domainagg.MoveResult, error)
	DeleteSet(ctx context.Context, in domainagg.DeleteSetInput) (domainagg.DeleteSetResult, error)

	AddItem(ctx context.Context, in domainagg.AddItemInput) (*curriculum.Item, error)
	RenameItem(ctx context.Context, itemID uuid.UUID, name string) (*curriculum.Item, error)
	MoveItem(ctx context.Context, itemID uuid.UUID, dir domainagg.Direction) (domainagg.MoveResult, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) (domainagg.DeleteItemResult, error)
}

type curriculumService struct {
	log       *logger.Logger
	sets      repos.CurriculumSetRepo
	items     repos.CurriculumItemRepo
	agg       domainagg.CurriculumAggregate
	snapshots cache.Store[*curriculum.Snapshot]
}

func NewCurriculumService(
	log *logger.Logger,
	sets repos.CurriculumSetRepo,
	items repos.CurriculumItemRepo,
	agg domainagg.CurriculumAggregate,
	snapshots cache.Store[*curriculum.Snapshot],
) CurriculumService {
	return &curriculumService{
		log:       log.With("service", "CurriculumService"),
		sets:      sets,
		items:     items,
		agg:       agg,
		snapshots: snapshots,
	}
}

func (s *curriculumService) ListSets(ctx context.Context) ([]*curriculum.Set, error) {
	if _, err := callerFrom(ctx); err != nil {
		return nil, err
	}
	out, err := s.sets.List(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, internal("curriculum.list_sets", err)
	}
	return out, nil
}

// Snapshot returns the set's flat item list, loading it on a cache miss. The
// loaded list is only cached if no write touched the set while it loaded.
func (s *curriculumService) Snapshot(ctx context.Context, setID uuid.UUID) (*curriculum.Snapshot, error) {
	key := cache.SnapshotKey(setID)
	if snap, ok, err := s.snapshots.Get(ctx, key); err == nil && ok && snap != nil {
		return snap, nil
	} else if err != nil {
		s.log.Warn("snapshot cache read failed", "set_id", setID, "error", err)
	}
	ver, verErr := s.snapshots.Version(ctx, key)

	dbc := dbctx.Context{Ctx: ctx}
	set, err := s.sets.GetByID(dbc, setID)
	if err != nil {
		return nil, internal("curriculum.snapshot", err)
	}
	if set == nil {
		return nil, notFound("curriculum.snapshot", "curriculum set not found")
	}
	items, err := s.items.GetBySetID(dbc, setID)
	if err != nil {
		return nil, internal("curriculum.snapshot", err)
	}
	snap := curriculum.NewSnapshot(setID, items)
	if verErr != nil {
		return snap, nil
	}
	if _, err := s.snapshots.Fill(ctx, key, ver, snap); err != nil {
		s.log.Warn("snapshot cache write failed", "set_id", setID, "error", err)
	}
	return snap, nil
}

func (s *curriculumService) Tree(ctx context.Context, setID uuid.UUID) (*TreeView, error) {
	if _, err := requireAdmin(ctx, "curriculum.tree"); err != nil {
		return nil, err
	}
	set, err := s.sets.GetByID(dbctx.Context{Ctx: ctx}, setID)
	if err != nil {
		return nil, internal("curriculum.tree", err)
	}
	if set == nil {
		return nil, notFound("curriculum.tree", "curriculum set not found")
	}
	snap, err := s.Snapshot(ctx, setID)
	if err != nil {
		return nil, err
	}
	issues := curriculum.Validate(snap.Items)
	if len(issues) > 0 {
		s.log.Warn("curriculum tree has structural issues", "set_id", setID, "count", len(issues))
	}
	return &TreeView{Set: set, Tree: snap.Tree(), Issues: issues}, nil
}

// invalidate drops the set's cached snapshot after any item write, committed
// or not, so the next read reloads from the store.
func (s *curriculumService) invalidate(ctx context.Context, setID uuid.UUID) {
	if setID == uuid.Nil {
		return
	}
	if err := s.snapshots.Delete(ctx, cache.SnapshotKey(setID)); err != nil {
		s.log.Warn("snapshot cache invalidation failed", "set_id", setID, "error", err)
	}
}

func (s *curriculumService) setOfItem(ctx context.Context, itemID uuid.UUID) uuid.UUID {
	it, err := s.items.GetByID(dbctx.Context{Ctx: ctx}, itemID)
	if err != nil || it == nil {
		return uuid.Nil
	}
	return it.SetID
}

func (s *curriculumService) AddSet(ctx context.Context, in domainagg.AddSetInput) (*curriculum.Set, error) {
	if _, err := requireAdmin(ctx, "curriculum.add_set"); err != nil {
		return nil, err
	}
	return s.agg.AddSet(ctx, in)
}

func (s *curriculumService) RenameSet(ctx context.Context, setID uuid.UUID, name string) (*curriculum.Set, error) {
	if _, err := requireAdmin(ctx, "curriculum.rename_set"); err != nil {
		return nil, err
	}
	return s.agg.RenameSet(ctx, setID, name)
}

func (s *curriculumService) MoveSet(ctx context.Context, setID uuid.UUID, dir domainagg.Direction) (domainagg.MoveResult, error) {
	if _, err := requireAdmin(ctx, "curriculum.move_set"); err != nil {
		return domainagg.MoveResult{}, err
	}
	return s.agg.MoveSet(ctx, setID, dir)
}

func (s *curriculumService) DeleteSet(ctx context.Context, in domainagg.DeleteSetInput) (domainagg.DeleteSetResult, error) {
	if _, err := requireAdmin(ctx, "curriculum.delete_set"); err != nil {
		return domainagg.DeleteSetResult{}, err
	}
	res, err := s.agg.DeleteSet(ctx, in)
	if err == nil {
		s.log.Info("curriculum set deleted", "set_id", in.SetID, "items", len(res.DeletedItemIDs), "unassigned", res.UnassignedProfiles)
	}
	s.invalidate(ctx, in.SetID)
	return res, err
}

func (s *curriculumService) AddItem(ctx context.Context, in domainagg.AddItemInput) (*curriculum.Item, error) {
	if _, err := requireAdmin(ctx, "curriculum.add_item"); err != nil {
		return nil, err
	}
	item, err := s.agg.AddItem(ctx, in)
	s.invalidate(ctx, in.SetID)
	return item, err
}

func (s *curriculumService) RenameItem(ctx context.Context, itemID uuid.UUID, name string) (*curriculum.Item, error) {
	if _, err := requireAdmin(ctx, "curriculum.rename_item"); err != nil {
		return nil, err
	}
	item, err := s.agg.RenameItem(ctx, itemID, name)
	if item != nil {
		s.invalidate(ctx, item.SetID)
	} else {
		s.invalidate(ctx, s.setOfItem(ctx, itemID))
	}
	return item, err
}

func (s *curriculumService) MoveItem(ctx context.Context, itemID uuid.UUID, dir domainagg.Direction) (domainagg.MoveResult, error) {
	if _, err := requireAdmin(ctx, "curriculum.move_item"); err != nil {
		return domainagg.MoveResult{}, err
	}
	res, err := s.agg.MoveItem(ctx, itemID, dir)
	if err == nil && !res.Moved {
		return res, nil
	}
	s.invalidate(ctx, s.setOfItem(ctx, itemID))
	return res, err
}

func (s *curriculumService) DeleteItem(ctx context.Context, itemID uuid.UUID) (domainagg.DeleteItemResult, error) {
	if _, err := requireAdmin(ctx, "curriculum.delete_item"); err != nil {
		return domainagg.DeleteItemResult{}, err
	}
	setID := s.setOfItem(ctx, itemID)
	res, err := s.agg.DeleteItem(ctx, itemID)
	s.invalidate(ctx, setID)
	return res, err
}
