package curriculum

import (
	"sort"

	"github.com/google/uuid"
)

// Snapshot is the cached flat item list of one set. It is rebuilt from the
// store after any write to the set and never patched in place.
type Snapshot struct {
	SetID uuid.UUID `json:"set_id"`
	Items []*Item   `json:"items"`
}

func NewSnapshot(setID uuid.UUID, items []*Item) *Snapshot {
	cp := make([]*Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			c := *it
			cp = append(cp, &c)
		}
	}
	sort.SliceStable(cp, func(i, j int) bool {
		if cp[i].Depth != cp[j].Depth {
			return cp[i].Depth < cp[j].Depth
		}
		return cp[i].Order < cp[j].Order
	})
	return &Snapshot{SetID: setID, Items: cp}
}

func (s *Snapshot) Find(id uuid.UUID) *Item {
	for _, it := range s.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

func (s *Snapshot) Tree() []*TreeNode { return BuildTree(s.Items) }
