package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/greenlight-backend/internal/data/repos/testutil"
	"github.com/yungbote/greenlight-backend/internal/domain/user"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
)

func TestProfileRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewProfileRepo(db, testutil.Logger(t))

	id := uuid.New()
	p, err := repo.CreateIfMissing(dbc, &user.Profile{ID: id, Email: "minji@example.com", Name: "minji"})
	if err != nil || p == nil || p.Role != user.RolePending {
		t.Fatalf("CreateIfMissing: got=%v err=%v", p, err)
	}
	again, err := repo.CreateIfMissing(dbc, &user.Profile{ID: id, Name: "someone else"})
	if err != nil || again == nil || again.Name != "minji" {
		t.Fatalf("CreateIfMissing twice: got=%v err=%v", again, err)
	}

	set := testutil.SeedSet(t, ctx, tx, "중1")
	if err := repo.UpdateFields(dbc, id, map[string]interface{}{"role": user.RoleStudent, "curriculum_id": set.ID}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	other := testutil.SeedProfile(t, ctx, tx, "jisoo", user.RoleStudent)
	if err := repo.UpdateFields(dbc, other.ID, map[string]interface{}{"curriculum_id": set.ID}); err != nil {
		t.Fatalf("UpdateFields other: %v", err)
	}

	n, err := repo.ClearCurriculum(dbc, set.ID)
	if err != nil || n != 2 {
		t.Fatalf("ClearCurriculum: n=%d err=%v", n, err)
	}
	if got, _ := repo.GetByID(dbc, id); got == nil || got.CurriculumID != nil {
		t.Fatalf("expected curriculum cleared, got %+v", got)
	}

	now := time.Now().UTC()
	if err := repo.UpdateFields(dbc, other.ID, map[string]interface{}{"is_archived": true, "archived_at": now}); err != nil {
		t.Fatalf("archive: %v", err)
	}
	active, err := repo.List(dbc, ProfileFilter{Roles: []user.Role{user.RoleStudent}})
	if err != nil || len(active) != 1 || active[0].ID != id {
		t.Fatalf("List active: err=%v len=%d", err, len(active))
	}
	archived, err := repo.List(dbc, ProfileFilter{OnlyArchived: true})
	if err != nil || len(archived) != 1 || archived[0].ID != other.ID {
		t.Fatalf("List archived: err=%v len=%d", err, len(archived))
	}

	if locked, err := repo.GetByIDForUpdate(dbc, id); err != nil || locked == nil {
		t.Fatalf("GetByIDForUpdate: got=%v err=%v", locked, err)
	}
	if err := repo.DeleteByID(dbc, id); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if got, _ := repo.GetByID(dbc, id); got != nil {
		t.Fatalf("expected profile deleted")
	}
}

func TestParentLinkRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewParentLinkRepo(db, testutil.Logger(t))

	parent := testutil.SeedProfile(t, ctx, tx, "mom", user.RoleParent)
	s1 := testutil.SeedProfile(t, ctx, tx, "s1", user.RoleStudent)
	s2 := testutil.SeedProfile(t, ctx, tx, "s2", user.RoleStudent)

	if _, err := repo.Create(dbc, []*user.ParentStudentLink{
		{ParentID: parent.ID, StudentID: s1.ID},
		{ParentID: parent.ID, StudentID: s2.ID},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rows, err := repo.GetByParentID(dbc, parent.ID); err != nil || len(rows) != 2 {
		t.Fatalf("GetByParentID: err=%v len=%d", err, len(rows))
	}
	if ok, err := repo.Exists(dbc, parent.ID, s1.ID); err != nil || !ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}
	if err := repo.DeleteByStudentID(dbc, s1.ID); err != nil {
		t.Fatalf("DeleteByStudentID: %v", err)
	}
	if ok, _ := repo.Exists(dbc, parent.ID, s1.ID); ok {
		t.Fatalf("expected no link for s1")
	}
	if err := repo.DeleteByParentID(dbc, parent.ID); err != nil {
		t.Fatalf("DeleteByParentID: %v", err)
	}
	if rows, _ := repo.GetByParentID(dbc, parent.ID); len(rows) != 0 {
		t.Fatalf("expected no links left, got %d", len(rows))
	}
}
