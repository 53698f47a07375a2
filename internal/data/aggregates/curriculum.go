package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/greenlight-backend/internal/data/repos"
	domainagg "github.com/yungbote/greenlight-backend/internal/domain/aggregates"
	"github.com/yungbote/greenlight-backend/internal/domain/curriculum"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
)

type CurriculumAggregateDeps struct {
	Sets     repos.CurriculumSetRepo
	Items    repos.CurriculumItemRepo
	Profiles repos.ProfileRepo
	Progress repos.ProgressRepo
	Memos    repos.MemoRepo
}

type curriculumAggregate struct {
	base BaseDeps
	deps CurriculumAggregateDeps
}

func NewCurriculumAggregate(base BaseDeps, deps CurriculumAggregateDeps) domainagg.CurriculumAggregate {
	if base.Log != nil {
		base.Log = base.Log.With("aggregate", "CurriculumAggregate")
	}
	return &curriculumAggregate{base: base.resolved(), deps: deps}
}

func (a *curriculumAggregate) Contract() domainagg.Contract {
	return domainagg.Contract{
		Name:             "curriculum",
		WriteTxOwnership: domainagg.WriteTxOwnedByAggregate,
		Notes:            "sibling swaps and subtree/set cascades commit atomically",
	}
}

func cleanName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ValidationError("name is required")
	}
	return name, nil
}

func (a *curriculumAggregate) AddSet(ctx context.Context, in domainagg.AddSetInput) (*curriculum.Set, error) {
	var out *curriculum.Set
	err := executeWrite(ctx, a.base, "curriculum.add_set", func(dbc dbctx.Context) error {
		name, err := cleanName(in.Name)
		if err != nil {
			return err
		}
		order := in.Order
		if order == nil {
			max, err := a.deps.Sets.MaxOrder(dbc)
			if err != nil {
				return fmt.Errorf("max set order: %w", err)
			}
			next := max + 1
			order = &next
		}
		out, err = a.deps.Sets.Create(dbc, &curriculum.Set{Name: name, Order: order})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *curriculumAggregate) RenameSet(ctx context.Context, setID uuid.UUID, name string) (*curriculum.Set, error) {
	var out *curriculum.Set
	err := executeWrite(ctx, a.base, "curriculum.rename_set", func(dbc dbctx.Context) error {
		clean, err := cleanName(name)
		if err != nil {
			return err
		}
		set, err := a.requireSet(dbc, setID)
		if err != nil {
			return err
		}
		if err := a.deps.Sets.UpdateFields(dbc, set.ID, map[string]interface{}{"name": clean}); err != nil {
			return err
		}
		out, err = a.deps.Sets.GetByID(dbc, set.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MoveSet swaps the set with its neighbour in display order. Sets without an
// explicit order, or sharing one, are renumbered 1..n first.
func (a *curriculumAggregate) MoveSet(ctx context.Context, setID uuid.UUID, dir domainagg.Direction) (domainagg.MoveResult, error) {
	var res domainagg.MoveResult
	err := executeWrite(ctx, a.base, "curriculum.move_set", func(dbc dbctx.Context) error {
		if !dir.Valid() {
			return ValidationError(fmt.Sprintf("unknown direction %q", dir))
		}
		sets, err := a.deps.Sets.ListForUpdate(dbc)
		if err != nil {
			return err
		}
		idx := -1
		for i, s := range sets {
			if s.ID == setID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return NotFoundError("curriculum set not found")
		}
		nb := neighbour(idx, len(sets), dir)
		if nb < 0 {
			res = domainagg.MoveResult{Moved: false, Orders: map[uuid.UUID]int{}}
			return nil
		}

		orders := make([]int, len(sets))
		if setOrdersNeedNormalizing(sets) {
			for i, s := range sets {
				orders[i] = i + 1
				if err := a.deps.Sets.UpdateFields(dbc, s.ID, map[string]interface{}{"sort_order": i + 1}); err != nil {
					return err
				}
			}
		} else {
			for i, s := range sets {
				orders[i] = *s.Order
			}
		}

		moved, other := sets[idx], sets[nb]
		now := time.Now().UTC()
		ok, err := a.base.CASGuard.UpdateIfMatch(dbc, "curriculum_sets", moved.ID, "sort_order", orders[idx],
			map[string]any{"sort_order": orders[nb], "updated_at": now})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "curriculum set order changed concurrently"); err != nil {
			return err
		}
		ok, err = a.base.CASGuard.UpdateIfMatch(dbc, "curriculum_sets", other.ID, "sort_order", orders[nb],
			map[string]any{"sort_order": orders[idx], "updated_at": now})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "curriculum set order changed concurrently"); err != nil {
			return err
		}
		res = domainagg.MoveResult{
			Moved:  true,
			Orders: map[uuid.UUID]int{moved.ID: orders[nb], other.ID: orders[idx]},
		}
		return nil
	})
	if err != nil {
		return domainagg.MoveResult{}, err
	}
	return res, nil
}

func setOrdersNeedNormalizing(sets []*curriculum.Set) bool {
	seen := map[int]bool{}
	for _, s := range sets {
		if s.Order == nil || seen[*s.Order] {
			return true
		}
		seen[*s.Order] = true
	}
	return false
}

// DeleteSet removes the set, optionally its items, and always unassigns it
// from every profile.
func (a *curriculumAggregate) DeleteSet(ctx context.Context, in domainagg.DeleteSetInput) (domainagg.DeleteSetResult, error) {
	var res domainagg.DeleteSetResult
	err := executeWrite(ctx, a.base, "curriculum.delete_set", func(dbc dbctx.Context) error {
		set, err := a.requireSet(dbc, in.SetID)
		if err != nil {
			return err
		}
		res.DeletedItemIDs = []uuid.UUID{}
		if in.DeleteItems {
			items, err := a.deps.Items.GetBySetID(dbc, set.ID)
			if err != nil {
				return err
			}
			ids := make([]uuid.UUID, 0, len(items))
			for _, it := range items {
				ids = append(ids, it.ID)
			}
			if err := a.deleteItemRows(dbc, ids); err != nil {
				return err
			}
			res.DeletedItemIDs = ids
		}
		n, err := a.deps.Profiles.ClearCurriculum(dbc, set.ID)
		if err != nil {
			return fmt.Errorf("unassign curriculum: %w", err)
		}
		res.UnassignedProfiles = n
		return a.deps.Sets.DeleteByID(dbc, set.ID)
	})
	if err != nil {
		return domainagg.DeleteSetResult{}, err
	}
	return res, nil
}

func (a *curriculumAggregate) AddItem(ctx context.Context, in domainagg.AddItemInput) (*curriculum.Item, error) {
	var out *curriculum.Item
	err := executeWrite(ctx, a.base, "curriculum.add_item", func(dbc dbctx.Context) error {
		name, err := cleanName(in.Name)
		if err != nil {
			return err
		}
		set, err := a.requireSet(dbc, in.SetID)
		if err != nil {
			return err
		}
		var parent *curriculum.Item
		if in.ParentID != nil {
			parent, err = a.deps.Items.GetByID(dbc, *in.ParentID)
			if err != nil {
				return err
			}
			if parent == nil {
				return NotFoundError("parent item not found")
			}
			if parent.SetID != set.ID {
				return InvariantError("parent belongs to another curriculum set")
			}
			if !parent.CanAddChild() {
				return InvariantError(fmt.Sprintf("item at depth %d cannot have children", parent.Depth))
			}
		}
		depth, forceLeaf := curriculum.ChildPlacement(parent)
		if depth > curriculum.MaxDepth {
			return InvariantError(fmt.Sprintf("depth %d exceeds maximum %d", depth, curriculum.MaxDepth))
		}
		siblings, err := a.deps.Items.GetSiblings(dbc, set.ID, in.ParentID, true)
		if err != nil {
			return err
		}
		row := &curriculum.Item{
			SetID:    set.ID,
			ParentID: in.ParentID,
			Name:     name,
			IsLeaf:   in.IsLeaf || forceLeaf,
			Order:    len(siblings) + 1,
			Depth:    depth,
		}
		created, err := a.deps.Items.Create(dbc, []*curriculum.Item{row})
		if err != nil {
			return err
		}
		out = created[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *curriculumAggregate) RenameItem(ctx context.Context, itemID uuid.UUID, name string) (*curriculum.Item, error) {
	var out *curriculum.Item
	err := executeWrite(ctx, a.base, "curriculum.rename_item", func(dbc dbctx.Context) error {
		clean, err := cleanName(name)
		if err != nil {
			return err
		}
		item, err := a.requireItem(dbc, itemID)
		if err != nil {
			return err
		}
		if err := a.deps.Items.UpdateFields(dbc, item.ID, map[string]interface{}{"name": clean}); err != nil {
			return err
		}
		out, err = a.deps.Items.GetByID(dbc, item.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteItem removes the item, its whole subtree and every progress row and
// memo attached to any removed item.
func (a *curriculumAggregate) DeleteItem(ctx context.Context, itemID uuid.UUID) (domainagg.DeleteItemResult, error) {
	var res domainagg.DeleteItemResult
	err := executeWrite(ctx, a.base, "curriculum.delete_item", func(dbc dbctx.Context) error {
		item, err := a.requireItem(dbc, itemID)
		if err != nil {
			return err
		}
		all, err := a.deps.Items.GetBySetID(dbc, item.SetID)
		if err != nil {
			return err
		}
		ids := curriculum.DescendantIDs(all, item.ID)
		if err := a.deleteItemRows(dbc, ids); err != nil {
			return err
		}
		res = domainagg.DeleteItemResult{SetID: item.SetID, DeletedIDs: ids}
		return nil
	})
	if err != nil {
		return domainagg.DeleteItemResult{}, err
	}
	return res, nil
}

func (a *curriculumAggregate) deleteItemRows(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := a.deps.Progress.DeleteByItemIDs(dbc, ids); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	if err := a.deps.Memos.DeleteByItemIDs(dbc, ids); err != nil {
		return fmt.Errorf("delete memos: %w", err)
	}
	if err := a.deps.Items.DeleteByIDs(dbc, ids); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	return nil
}

// MoveItem swaps the item's order with its adjacent sibling. At either end of
// the group nothing is written and Moved is false.
func (a *curriculumAggregate) MoveItem(ctx context.Context, itemID uuid.UUID, dir domainagg.Direction) (domainagg.MoveResult, error) {
	var res domainagg.MoveResult
	err := executeWrite(ctx, a.base, "curriculum.move_item", func(dbc dbctx.Context) error {
		if !dir.Valid() {
			return ValidationError(fmt.Sprintf("unknown direction %q", dir))
		}
		item, err := a.requireItem(dbc, itemID)
		if err != nil {
			return err
		}
		siblings, err := a.deps.Items.GetSiblings(dbc, item.SetID, item.ParentID, true)
		if err != nil {
			return err
		}
		idx := -1
		for i, s := range siblings {
			if s.ID == item.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return NotFoundError("item missing from its sibling group")
		}
		nb := neighbour(idx, len(siblings), dir)
		if nb < 0 {
			res = domainagg.MoveResult{Moved: false, Orders: map[uuid.UUID]int{}}
			return nil
		}

		orders := make(map[uuid.UUID]int, 2)
		moved, other := siblings[idx], siblings[nb]
		from, to := moved.Order, other.Order
		if from == to {
			// Tied orders cannot be swapped; renumber the group by its current order first.
			for i, s := range siblings {
				if s.Order == i+1 {
					continue
				}
				if err := a.deps.Items.UpdateFields(dbc, s.ID, map[string]interface{}{"sort_order": i + 1}); err != nil {
					return err
				}
				orders[s.ID] = i + 1
			}
			from, to = idx+1, nb+1
		}

		now := time.Now().UTC()
		ok, err := a.base.CASGuard.UpdateIfMatch(dbc, "curriculum_items", moved.ID, "sort_order", from,
			map[string]any{"sort_order": to, "updated_at": now})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "sibling order changed concurrently"); err != nil {
			return err
		}
		ok, err = a.base.CASGuard.UpdateIfMatch(dbc, "curriculum_items", other.ID, "sort_order", to,
			map[string]any{"sort_order": from, "updated_at": now})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "sibling order changed concurrently"); err != nil {
			return err
		}
		orders[moved.ID] = to
		orders[other.ID] = from
		res = domainagg.MoveResult{Moved: true, Orders: orders}
		return nil
	})
	if err != nil {
		return domainagg.MoveResult{}, err
	}
	return res, nil
}

func neighbour(idx, n int, dir domainagg.Direction) int {
	switch dir {
	case domainagg.DirectionUp:
		if idx > 0 {
			return idx - 1
		}
	case domainagg.DirectionDown:
		if idx < n-1 {
			return idx + 1
		}
	}
	return -1
}

// ImportSet creates a set and its whole outline. Nodes at MaxDepth become
// leaves; a node forced to leaf that declares children is rejected.
func (a *curriculumAggregate) ImportSet(ctx context.Context, in domainagg.ImportSetInput) (domainagg.ImportSetResult, error) {
	var res domainagg.ImportSetResult
	err := executeWrite(ctx, a.base, "curriculum.import_set", func(dbc dbctx.Context) error {
		name, err := cleanName(in.Name)
		if err != nil {
			return err
		}
		order := in.Order
		if order == nil {
			max, err := a.deps.Sets.MaxOrder(dbc)
			if err != nil {
				return err
			}
			next := max + 1
			order = &next
		}
		set, err := a.deps.Sets.Create(dbc, &curriculum.Set{Name: name, Order: order})
		if err != nil {
			return err
		}
		items := []*curriculum.Item{}
		var walk func(nodes []domainagg.ImportNode, parent *curriculum.Item) error
		walk = func(nodes []domainagg.ImportNode, parent *curriculum.Item) error {
			depth, forceLeaf := curriculum.ChildPlacement(parent)
			for i, n := range nodes {
				nodeName := strings.TrimSpace(n.Name)
				if nodeName == "" {
					return ValidationError(fmt.Sprintf("item at depth %d has no name", depth))
				}
				leaf := n.Leaf || forceLeaf
				if leaf && len(n.Children) > 0 {
					if forceLeaf {
						return InvariantError(fmt.Sprintf("%q sits at depth %d and cannot have children", nodeName, depth))
					}
					return InvariantError(fmt.Sprintf("leaf %q cannot have children", nodeName))
				}
				row := &curriculum.Item{
					SetID:  set.ID,
					Name:   nodeName,
					IsLeaf: leaf,
					Order:  i + 1,
					Depth:  depth,
				}
				if parent != nil {
					pid := parent.ID
					row.ParentID = &pid
				}
				if _, err := a.deps.Items.Create(dbc, []*curriculum.Item{row}); err != nil {
					return err
				}
				items = append(items, row)
				if err := walk(n.Children, row); err != nil {
					return err
				}
			}
			return nil
		}
		if err := walk(in.Items, nil); err != nil {
			return err
		}
		res = domainagg.ImportSetResult{Set: set, Items: items}
		return nil
	})
	if err != nil {
		return domainagg.ImportSetResult{}, err
	}
	return res, nil
}

func (a *curriculumAggregate) requireSet(dbc dbctx.Context, id uuid.UUID) (*curriculum.Set, error) {
	set, err := a.deps.Sets.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, NotFoundError("curriculum set not found")
	}
	return set, nil
}

func (a *curriculumAggregate) requireItem(dbc dbctx.Context, id uuid.UUID) (*curriculum.Item, error) {
	item, err := a.deps.Items.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, NotFoundError("curriculum item not found")
	}
	return item, nil
}
