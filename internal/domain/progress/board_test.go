package progress

import (
	"testing"

	"github.com/google/uuid"
)

func strp(s string) *string { return &s }

func TestBoard_DefaultStatusIsBlack(t *testing.T) {
	b := NewBoard(uuid.New(), nil, nil)
	if got := b.StatusOf(uuid.New()); got != StatusBlack {
		t.Fatalf("StatusOf missing leaf: got=%s", got)
	}
	var nilBoard *Board
	if got := nilBoard.StatusOf(uuid.New()); got != StatusBlack {
		t.Fatalf("StatusOf nil board: got=%s", got)
	}
}

func TestBoard_SetStatusRevert(t *testing.T) {
	user := uuid.New()
	item := uuid.New()
	b := NewBoard(user, []*UserProgress{{UserID: user, ItemID: item, Status: StatusBlue}}, nil)

	p := b.SetStatus(item, StatusGreen)
	if b.StatusOf(item) != StatusGreen {
		t.Fatalf("expected GREEN after set")
	}
	b.Revert(p)
	if b.StatusOf(item) != StatusBlue {
		t.Fatalf("expected BLUE after revert, got %s", b.StatusOf(item))
	}

	fresh := uuid.New()
	p = b.SetStatus(fresh, StatusRed)
	b.Revert(p)
	if _, ok := b.Statuses[fresh]; ok {
		t.Fatalf("revert of a new row must remove it")
	}
}

func TestBoard_RevertKeepsLaterStatus(t *testing.T) {
	user, item := uuid.New(), uuid.New()
	b := NewBoard(user, nil, nil)

	p := b.SetStatus(item, StatusGreen)
	b.SetStatus(item, StatusRed)
	b.Revert(p)
	if b.StatusOf(item) != StatusRed {
		t.Fatalf("revert clobbered a later status: %s", b.StatusOf(item))
	}
}

func TestBoard_MemoMergeKeepsOtherField(t *testing.T) {
	user := uuid.New()
	item := uuid.New()
	b := NewBoard(user, nil, []*Memo{{UserID: user, ItemID: item, AdminMemo: strp("교재 32쪽"), YoutubeURL: strp("https://youtu.be/x")}})

	b.MergeStudentMemo(item, strp("부호가 헷갈려요"))
	m := b.Memos[item]
	if m.AdminMemo == nil || *m.AdminMemo != "교재 32쪽" || m.YoutubeURL == nil {
		t.Fatalf("student memo merge dropped prescription: %+v", m)
	}
	p := b.MergeAdminMemo(item, strp("다시 풀기"), nil)
	m = b.Memos[item]
	if m.StudentMemo == nil || *m.StudentMemo != "부호가 헷갈려요" {
		t.Fatalf("admin memo merge dropped student memo: %+v", m)
	}

	b.RevertMemo(p)
	if m := b.Memos[item]; m.AdminMemo == nil || *m.AdminMemo != "교재 32쪽" {
		t.Fatalf("revert did not restore the prescription: %+v", m)
	}

	fresh := uuid.New()
	b.RevertMemo(b.MergeStudentMemo(fresh, strp("x")))
	if _, ok := b.Memos[fresh]; ok {
		t.Fatalf("revert of a new memo must remove it")
	}
}

func TestTallyLeaves(t *testing.T) {
	user := uuid.New()
	l1, l2, l3, l4 := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	b := NewBoard(user, []*UserProgress{
		{UserID: user, ItemID: l1, Status: StatusGreen},
		{UserID: user, ItemID: l2, Status: StatusGreen},
		{UserID: user, ItemID: l3, Status: StatusRed},
	}, nil)
	tally := TallyLeaves(b, []uuid.UUID{l1, l2, l3, l4})
	if tally.Total != 4 || tally.Green != 2 || tally.Red != 1 || tally.Black != 1 {
		t.Fatalf("unexpected tally: %+v", tally)
	}
	if tally.Percent() != 50 {
		t.Fatalf("Percent: got=%d", tally.Percent())
	}
	if (Tally{}).Percent() != 0 {
		t.Fatalf("empty tally percent must be 0")
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus(" green "); err != nil || s != StatusGreen {
		t.Fatalf("ParseStatus: s=%s err=%v", s, err)
	}
	if _, err := ParseStatus("PURPLE"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	if StatusRed.Label() != "SOS" {
		t.Fatalf("Label: got=%s", StatusRed.Label())
	}
}

func TestBoard_CloneIsIndependent(t *testing.T) {
	user, item := uuid.New(), uuid.New()
	note := "x"
	b := NewBoard(user, []*UserProgress{{UserID: user, ItemID: item, Status: StatusBlue}}, []*Memo{{UserID: user, ItemID: item, StudentMemo: &note}})
	c := b.Clone()
	c.SetStatus(item, StatusGreen)
	c.MergeAdminMemo(item, &note, nil)
	if b.StatusOf(item) != StatusBlue {
		t.Fatalf("original status changed: %s", b.StatusOf(item))
	}
	if b.Memos[item].AdminMemo != nil {
		t.Fatalf("original memo changed")
	}
}
