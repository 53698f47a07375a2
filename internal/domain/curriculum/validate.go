package curriculum

import (
	"fmt"

	"github.com/google/uuid"
)

type IssueKind string

const (
	IssueOrphanParent    IssueKind = "orphan_parent"
	IssueCrossSetParent  IssueKind = "cross_set_parent"
	IssueDepthMismatch   IssueKind = "depth_mismatch"
	IssueDepthExceeded   IssueKind = "depth_exceeded"
	IssueLeafHasChildren IssueKind = "leaf_has_children"
	IssueCycle           IssueKind = "cycle"
)

// TreeIssue describes one structural defect found in a set's items.
type TreeIssue struct {
	Kind    IssueKind `json:"kind"`
	ItemID  uuid.UUID `json:"item_id"`
	Message string    `json:"message"`
}

// Validate reports every item that BuildTree would hide or misplace.
func Validate(items []*Item) []TreeIssue {
	issues := make([]TreeIssue, 0)
	byID := make(map[uuid.UUID]*Item, len(items))
	for _, it := range items {
		if it != nil {
			byID[it.ID] = it
		}
	}
	for _, it := range items {
		if it == nil {
			continue
		}
		if it.Depth > MaxDepth {
			issues = append(issues, issue(IssueDepthExceeded, it, "depth %d exceeds %d", it.Depth, MaxDepth))
		}
		if it.ParentID == nil {
			if it.Depth != 1 {
				issues = append(issues, issue(IssueDepthMismatch, it, "root item has depth %d", it.Depth))
			}
			continue
		}
		parent, ok := byID[*it.ParentID]
		if !ok {
			issues = append(issues, issue(IssueOrphanParent, it, "parent %s does not exist", *it.ParentID))
			continue
		}
		if parent.SetID != it.SetID {
			issues = append(issues, issue(IssueCrossSetParent, it, "parent %s belongs to another set", parent.ID))
		}
		if parent.IsLeaf {
			issues = append(issues, issue(IssueLeafHasChildren, parent, "leaf has child %s", it.ID))
		}
		if it.Depth != parent.Depth+1 {
			issues = append(issues, issue(IssueDepthMismatch, it, "depth %d under parent depth %d", it.Depth, parent.Depth))
		}
	}
	for _, id := range cycleMembers(byID) {
		issues = append(issues, issue(IssueCycle, byID[id], "parent chain loops back"))
	}
	return issues
}

// cycleMembers returns ids whose parent chain revisits itself, in no fixed order
// beyond first discovery.
func cycleMembers(byID map[uuid.UUID]*Item) []uuid.UUID {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[uuid.UUID]int, len(byID))
	out := make([]uuid.UUID, 0)
	for id := range byID {
		if state[id] != unvisited {
			continue
		}
		path := make([]uuid.UUID, 0)
		cur := id
		for {
			it, ok := byID[cur]
			if !ok || state[cur] == done {
				break
			}
			if state[cur] == inProgress {
				for i := len(path) - 1; i >= 0; i-- {
					out = append(out, path[i])
					if path[i] == cur {
						break
					}
				}
				break
			}
			state[cur] = inProgress
			path = append(path, cur)
			if it.ParentID == nil {
				break
			}
			cur = *it.ParentID
		}
		for _, p := range path {
			state[p] = done
		}
	}
	return out
}

func issue(kind IssueKind, it *Item, format string, args ...any) TreeIssue {
	return TreeIssue{Kind: kind, ItemID: it.ID, Message: fmt.Sprintf(format, args...)}
}
