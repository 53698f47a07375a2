package curriculum

import (
	"sort"

	"github.com/google/uuid"
)

// TreeNode is an Item with its ordered children attached.
type TreeNode struct {
	Item
	Children []*TreeNode `json:"children"`
}

// BuildTree assembles a forest from a flat item list. Items whose parent is not
// present in the input are dropped along with their subtrees; use Validate to
// surface them. Every sibling list is ordered by Order, ties keep input order.
func BuildTree(items []*Item) []*TreeNode {
	roots := make([]*TreeNode, 0)
	if len(items) == 0 {
		return roots
	}
	nodes := make(map[uuid.UUID]*TreeNode, len(items))
	ordered := make([]*TreeNode, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if _, dup := nodes[it.ID]; dup {
			continue
		}
		n := &TreeNode{Item: *it, Children: make([]*TreeNode, 0)}
		nodes[it.ID] = n
		ordered = append(ordered, n)
	}
	for _, n := range ordered {
		if n.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		parent, ok := nodes[*n.ParentID]
		if !ok || parent == n {
			continue
		}
		parent.Children = append(parent.Children, n)
	}
	for _, n := range ordered {
		sortNodes(n.Children)
	}
	sortNodes(roots)
	return roots
}

func sortNodes(nodes []*TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Order < nodes[j].Order })
}

// Flatten walks the forest depth first and returns the items it contains.
func Flatten(roots []*TreeNode) []*Item {
	out := make([]*Item, 0)
	seen := map[uuid.UUID]bool{}
	var walk func(ns []*TreeNode)
	walk = func(ns []*TreeNode) {
		for _, n := range ns {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			it := n.Item
			out = append(out, &it)
			walk(n.Children)
		}
	}
	walk(roots)
	return out
}

// childIndex groups items by parent id, preserving input order.
func childIndex(items []*Item) map[uuid.UUID][]*Item {
	idx := make(map[uuid.UUID][]*Item, len(items))
	for _, it := range items {
		if it == nil || it.ParentID == nil {
			continue
		}
		idx[*it.ParentID] = append(idx[*it.ParentID], it)
	}
	return idx
}

// LeafDescendants returns every leaf reachable from nodeID through parent links.
// Result order follows recursion over the input order, not sibling Order.
func LeafDescendants(items []*Item, nodeID uuid.UUID) []*Item {
	idx := childIndex(items)
	out := make([]*Item, 0)
	visited := map[uuid.UUID]bool{nodeID: true}
	var walk func(id uuid.UUID)
	walk = func(id uuid.UUID) {
		for _, child := range idx[id] {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			if child.IsLeaf {
				out = append(out, child)
				continue
			}
			walk(child.ID)
		}
	}
	walk(nodeID)
	return out
}

// DescendantIDs returns nodeID followed by the id of every item transitively
// beneath it.
func DescendantIDs(items []*Item, nodeID uuid.UUID) []uuid.UUID {
	idx := childIndex(items)
	out := []uuid.UUID{nodeID}
	visited := map[uuid.UUID]bool{nodeID: true}
	for i := 0; i < len(out); i++ {
		for _, child := range idx[out[i]] {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			out = append(out, child.ID)
		}
	}
	return out
}

// UnitGroup is the progress roll-up of one root-level folder.
type UnitGroup struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Items    []*Item   `json:"items"`
	Progress int       `json:"progress"`
	Total    int       `json:"total"`
}

// UnitGroups builds one group per root folder, holding its leaf descendants by
// depth then order. mastered reports whether a leaf counts toward Progress; a
// nil func counts nothing.
func UnitGroups(items []*Item, mastered func(itemID uuid.UUID) bool) []UnitGroup {
	groups := make([]UnitGroup, 0)
	for _, root := range BuildTree(items) {
		if root.IsLeaf {
			continue
		}
		leaves := copyItems(LeafDescendants(items, root.ID))
		sort.SliceStable(leaves, func(i, j int) bool {
			if leaves[i].Depth != leaves[j].Depth {
				return leaves[i].Depth < leaves[j].Depth
			}
			return leaves[i].Order < leaves[j].Order
		})
		groups = append(groups, UnitGroup{
			ID:       root.ID,
			Name:     root.Name,
			Items:    leaves,
			Progress: countMastered(leaves, mastered),
			Total:    len(leaves),
		})
	}
	return groups
}

// FolderProgress is the roll-up of one folder at any depth.
type FolderProgress struct {
	ID       uuid.UUID `json:"id"`
	Progress int       `json:"progress"`
	Total    int       `json:"total"`
}

// FolderRollups returns a roll-up for every folder reachable in the tree, in
// tree order.
func FolderRollups(items []*Item, mastered func(itemID uuid.UUID) bool) []FolderProgress {
	out := make([]FolderProgress, 0)
	for _, it := range Flatten(BuildTree(items)) {
		if it.IsLeaf {
			continue
		}
		leaves := LeafDescendants(items, it.ID)
		out = append(out, FolderProgress{ID: it.ID, Progress: countMastered(leaves, mastered), Total: len(leaves)})
	}
	return out
}

func countMastered(leaves []*Item, mastered func(itemID uuid.UUID) bool) int {
	if mastered == nil {
		return 0
	}
	n := 0
	for _, l := range leaves {
		if mastered(l.ID) {
			n++
		}
	}
	return n
}

func copyItems(items []*Item) []*Item {
	out := make([]*Item, 0, len(items))
	for _, it := range items {
		c := *it
		out = append(out, &c)
	}
	return out
}

// Layout is how a board of leaves is rendered.
type Layout struct {
	Mode string `json:"mode"`
	Cols int    `json:"cols,omitempty"`
	Rows int    `json:"rows,omitempty"`
}

const listModeThreshold = 25

// GridLayout picks a fixed 4x4 bingo grid, falling back to a list past 25 leaves.
func GridLayout(leafCount int) Layout {
	if leafCount > listModeThreshold {
		return Layout{Mode: "list"}
	}
	return Layout{Mode: "grid", Cols: 4, Rows: 4}
}
