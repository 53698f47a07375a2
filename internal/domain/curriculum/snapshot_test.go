package curriculum

import (
	"testing"
)

func TestNewSnapshot_CopiesAndSortsByDepthThenOrder(t *testing.T) {
	f := newFixture()
	u := f.add(nil, "U", false, 2)
	l := f.add(u, "L", true, 1)
	first := f.add(nil, "First", false, 1)

	snap := NewSnapshot(f.setID, append(f.items, nil))
	if len(snap.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(snap.Items))
	}
	if snap.Items[0].ID != first.ID || snap.Items[1].ID != u.ID || snap.Items[2].ID != l.ID {
		t.Fatalf("unexpected order: %s %s %s", snap.Items[0].Name, snap.Items[1].Name, snap.Items[2].Name)
	}

	snap.Find(u.ID).Name = "changed"
	if u.Name != "U" {
		t.Fatalf("snapshot shares items with its source")
	}
	if got := snap.Tree(); len(got) != 2 || len(got[1].Children) != 1 {
		t.Fatalf("unexpected tree: %+v", got)
	}
}
