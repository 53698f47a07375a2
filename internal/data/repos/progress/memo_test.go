package progress

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/greenlight-backend/internal/data/repos/testutil"
	"github.com/yungbote/greenlight-backend/internal/domain/user"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
)

func strp(s string) *string { return &s }

func TestMemoRepo_FieldsSurviveEachOther(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewMemoRepo(db, testutil.Logger(t))

	set := testutil.SeedSet(t, ctx, tx, "중1")
	leaf := testutil.SeedItem(t, ctx, tx, set.ID, nil, "leaf", true, 1)
	student := testutil.SeedProfile(t, ctx, tx, "minji", user.RoleStudent)

	m, err := repo.UpsertStudentMemo(dbc, student.ID, leaf.ID, strp("분배법칙이 헷갈려요"))
	if err != nil || m == nil || m.StudentMemo == nil {
		t.Fatalf("UpsertStudentMemo: got=%v err=%v", m, err)
	}
	m, err = repo.UpsertAdminMemo(dbc, student.ID, leaf.ID, strp("개념서 24쪽"), strp("https://youtu.be/abc"))
	if err != nil || m == nil {
		t.Fatalf("UpsertAdminMemo: got=%v err=%v", m, err)
	}
	if m.StudentMemo == nil || *m.StudentMemo != "분배법칙이 헷갈려요" {
		t.Fatalf("admin upsert clobbered student memo: %+v", m)
	}
	m, err = repo.UpsertStudentMemo(dbc, student.ID, leaf.ID, strp("이제 알겠어요"))
	if err != nil || m.AdminMemo == nil || *m.AdminMemo != "개념서 24쪽" || m.YoutubeURL == nil {
		t.Fatalf("student upsert clobbered prescription: %+v err=%v", m, err)
	}

	rows, err := repo.GetByUserID(dbc, student.ID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("GetByUserID: err=%v len=%d", err, len(rows))
	}
	if got, err := repo.Get(dbc, student.ID, uuid.New()); err != nil || got != nil {
		t.Fatalf("Get missing: got=%v err=%v", got, err)
	}

	if err := repo.DeleteByItemIDs(dbc, []uuid.UUID{leaf.ID}); err != nil {
		t.Fatalf("DeleteByItemIDs: %v", err)
	}
	if err := repo.DeleteByUserID(dbc, student.ID); err != nil {
		t.Fatalf("DeleteByUserID: %v", err)
	}
	if rows, _ := repo.GetByUserIDs(dbc, []uuid.UUID{student.ID}); len(rows) != 0 {
		t.Fatalf("expected no memos, got %d", len(rows))
	}
}
