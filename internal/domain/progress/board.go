package progress

import (
	"github.com/google/uuid"
)

// Board is the cached progress state of one student: statuses and memos by item.
type Board struct {
	UserID   uuid.UUID            `json:"user_id"`
	Statuses map[uuid.UUID]Status `json:"statuses"`
	Memos    map[uuid.UUID]*Memo  `json:"memos"`
}

func NewBoard(userID uuid.UUID, rows []*UserProgress, memos []*Memo) *Board {
	b := &Board{
		UserID:   userID,
		Statuses: make(map[uuid.UUID]Status, len(rows)),
		Memos:    make(map[uuid.UUID]*Memo, len(memos)),
	}
	for _, r := range rows {
		if r != nil && r.UserID == userID {
			b.Statuses[r.ItemID] = r.Status
		}
	}
	for _, m := range memos {
		if m != nil && m.UserID == userID {
			c := *m
			b.Memos[m.ItemID] = &c
		}
	}
	return b
}

// Clone returns a deep copy so a cached board can be patched without
// disturbing concurrent readers.
func (b *Board) Clone() *Board {
	out := &Board{
		UserID:   b.UserID,
		Statuses: make(map[uuid.UUID]Status, len(b.Statuses)),
		Memos:    make(map[uuid.UUID]*Memo, len(b.Memos)),
	}
	for k, v := range b.Statuses {
		out.Statuses[k] = v
	}
	for k, m := range b.Memos {
		c := *m
		out.Memos[k] = &c
	}
	return out
}

// StatusOf returns the stored status or DefaultStatus.
func (b *Board) StatusOf(itemID uuid.UUID) Status {
	if b == nil {
		return DefaultStatus
	}
	if s, ok := b.Statuses[itemID]; ok && s.Valid() {
		return s
	}
	return DefaultStatus
}

func (b *Board) Mastered(itemID uuid.UUID) bool { return b.StatusOf(itemID) == StatusGreen }

// Patch is the inverse of a status change, used to roll a board back.
type Patch struct {
	ItemID uuid.UUID
	Prev   Status
	HadRow bool
	Next   Status
}

// SetStatus records status for item and returns the patch that undoes it.
func (b *Board) SetStatus(itemID uuid.UUID, status Status) Patch {
	prev, had := b.Statuses[itemID]
	b.Statuses[itemID] = status
	return Patch{ItemID: itemID, Prev: prev, HadRow: had, Next: status}
}

// Revert undoes p unless the item has moved on to another status since.
func (b *Board) Revert(p Patch) {
	if b.Statuses[p.ItemID] != p.Next {
		return
	}
	if p.HadRow {
		b.Statuses[p.ItemID] = p.Prev
		return
	}
	delete(b.Statuses, p.ItemID)
}

// MemoPatch is the inverse of a memo merge.
type MemoPatch struct {
	ItemID uuid.UUID
	Prev   *Memo
}

func (b *Board) memo(itemID uuid.UUID) (*Memo, MemoPatch) {
	p := MemoPatch{ItemID: itemID}
	m, ok := b.Memos[itemID]
	if ok {
		c := *m
		p.Prev = &c
		return m, p
	}
	m = &Memo{UserID: b.UserID, ItemID: itemID}
	b.Memos[itemID] = m
	return m, p
}

// MergeStudentMemo replaces the student's note, keeping the prescription.
func (b *Board) MergeStudentMemo(itemID uuid.UUID, text *string) MemoPatch {
	m, p := b.memo(itemID)
	m.StudentMemo = text
	return p
}

// MergeAdminMemo replaces the prescription, keeping the student's note.
func (b *Board) MergeAdminMemo(itemID uuid.UUID, text, youtubeURL *string) MemoPatch {
	m, p := b.memo(itemID)
	m.AdminMemo = text
	m.YoutubeURL = youtubeURL
	return p
}

func (b *Board) RevertMemo(p MemoPatch) {
	if p.Prev == nil {
		delete(b.Memos, p.ItemID)
		return
	}
	c := *p.Prev
	b.Memos[p.ItemID] = &c
}
