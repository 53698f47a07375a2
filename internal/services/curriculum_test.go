package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/greenlight-backend/internal/data/cache"
	"github.com/yungbote/greenlight-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/greenlight-backend/internal/domain/aggregates"
	"github.com/yungbote/greenlight-backend/internal/domain/curriculum"
	"github.com/yungbote/greenlight-backend/internal/domain/user"
)

func TestCurriculumService_WritesRequireAdmin(t *testing.T) {
	e := newEnv(t)
	st := e.seedProfile(t, "kim", user.RoleStudent)

	_, err := e.curriculum.AddSet(as(st), domainagg.AddSetInput{Name: "중1-1"})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeForbidden))

	_, err = e.curriculum.ListSets(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCurriculumService_SnapshotFillsCacheOnMiss(t *testing.T) {
	e := newEnv(t)
	admin := e.seedProfile(t, "boss", user.RoleAdmin)
	_, set, unit, _, _ := e.seedStudentBoard(t)
	ctx := as(admin)

	snap, err := e.curriculum.Snapshot(ctx, set.ID)
	require.NoError(t, err)
	assert.Len(t, snap.Items, 3)

	cached, ok, err := e.snapshots.Get(ctx, cache.SnapshotKey(set.ID))
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, cached.Find(unit.ID))

	_, err = e.curriculum.Snapshot(ctx, uuid.New())
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound))
}

func TestCurriculumService_ItemWritesInvalidateSnapshot(t *testing.T) {
	e := newEnv(t)
	admin := e.seedProfile(t, "boss", user.RoleAdmin)
	_, set, unit, a, b := e.seedStudentBoard(t)
	ctx := as(admin)
	key := cache.SnapshotKey(set.ID)

	cached := func() bool {
		_, ok, err := e.snapshots.Get(ctx, key)
		require.NoError(t, err)
		return ok
	}

	_, err := e.curriculum.Snapshot(ctx, set.ID)
	require.NoError(t, err)
	added, err := e.curriculum.AddItem(ctx, domainagg.AddItemInput{SetID: set.ID, ParentID: &unit.ID, Name: "최대공약수", IsLeaf: true})
	require.NoError(t, err)
	assert.Equal(t, 3, added.Order)
	assert.False(t, cached())

	_, err = e.curriculum.Snapshot(ctx, set.ID)
	require.NoError(t, err)
	_, err = e.curriculum.RenameItem(ctx, a.ID, "소수")
	require.NoError(t, err)
	assert.False(t, cached())

	_, err = e.curriculum.Snapshot(ctx, set.ID)
	require.NoError(t, err)
	res, err := e.curriculum.MoveItem(ctx, b.ID, domainagg.DirectionUp)
	require.NoError(t, err)
	require.True(t, res.Moved)
	assert.False(t, cached())

	snap, err := e.curriculum.Snapshot(ctx, set.ID)
	require.NoError(t, err)
	require.NotNil(t, snap.Find(added.ID))
	assert.Equal(t, "소수", snap.Find(a.ID).Name)
	assert.Equal(t, 1, snap.Find(b.ID).Order)
	assert.Equal(t, 2, snap.Find(a.ID).Order)

	_, err = e.curriculum.DeleteItem(ctx, unit.ID)
	require.NoError(t, err)
	assert.False(t, cached())
	snap, err = e.curriculum.Snapshot(ctx, set.ID)
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
}

func TestCurriculumService_BoundaryMoveKeepsSnapshot(t *testing.T) {
	e := newEnv(t)
	admin := e.seedProfile(t, "boss", user.RoleAdmin)
	_, set, _, a, _ := e.seedStudentBoard(t)
	ctx := as(admin)

	_, err := e.curriculum.Snapshot(ctx, set.ID)
	require.NoError(t, err)
	res, err := e.curriculum.MoveItem(ctx, a.ID, domainagg.DirectionUp)
	require.NoError(t, err)
	assert.False(t, res.Moved)

	_, ok, err := e.snapshots.Get(ctx, cache.SnapshotKey(set.ID))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCurriculumService_LoadRacingAddIsNotCached(t *testing.T) {
	e := newEnv(t)
	admin := e.seedProfile(t, "boss", user.RoleAdmin)
	st, set, unit, _, _ := e.seedStudentBoard(t)
	ctx := as(admin)
	gated := newGatedStore(e.snapshots)
	svc := NewCurriculumService(e.log, e.sets, e.items, e.curAgg, gated)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Snapshot(ctx, set.ID)
		done <- err
	}()
	<-gated.reached

	first, err := svc.AddItem(ctx, domainagg.AddItemInput{SetID: set.ID, ParentID: &unit.ID, Name: "최대공약수", IsLeaf: true})
	require.NoError(t, err)
	second, err := svc.AddItem(ctx, domainagg.AddItemInput{SetID: set.ID, ParentID: &unit.ID, Name: "최소공배수", IsLeaf: true})
	require.NoError(t, err)
	close(gated.release)
	require.NoError(t, <-done)

	snap, err := svc.Snapshot(ctx, set.ID)
	require.NoError(t, err)
	assert.Len(t, snap.Items, 5)
	assert.NotNil(t, snap.Find(first.ID))
	assert.NotNil(t, snap.Find(second.ID))

	_, err = e.board.SetStatus(as(st), st.ID, second.ID, "GREEN")
	require.NoError(t, err)
}

func TestCurriculumService_TreeReportsIssues(t *testing.T) {
	e := newEnv(t)
	admin := e.seedProfile(t, "boss", user.RoleAdmin)
	ctx := context.Background()
	set := testutil.SeedSet(t, ctx, e.tx, "중1-1")
	unit := testutil.SeedItem(t, ctx, e.tx, set.ID, nil, "Unit", false, 1)
	testutil.SeedItem(t, ctx, e.tx, set.ID, unit, "Leaf", true, 1)
	ghost := &curriculum.Item{ID: uuid.New(), Depth: 1}
	testutil.SeedItem(t, ctx, e.tx, set.ID, ghost, "Dangling", true, 1)

	view, err := e.curriculum.Tree(as(admin), set.ID)
	require.NoError(t, err)
	require.Len(t, view.Tree, 1)
	require.Len(t, view.Issues, 1)
	assert.Equal(t, curriculum.IssueOrphanParent, view.Issues[0].Kind)
}

func TestCurriculumService_DeleteSetDropsSnapshot(t *testing.T) {
	e := newEnv(t)
	admin := e.seedProfile(t, "boss", user.RoleAdmin)
	st, set, _, _, _ := e.seedStudentBoard(t)
	ctx := as(admin)
	_, err := e.curriculum.Snapshot(ctx, set.ID)
	require.NoError(t, err)

	res, err := e.curriculum.DeleteSet(ctx, domainagg.DeleteSetInput{SetID: set.ID, DeleteItems: true})
	require.NoError(t, err)
	assert.Len(t, res.DeletedItemIDs, 3)
	assert.EqualValues(t, 1, res.UnassignedProfiles)

	_, ok, err := e.snapshots.Get(ctx, cache.SnapshotKey(set.ID))
	require.NoError(t, err)
	assert.False(t, ok)

	p, err := e.profiles.GetByID(dbcOf(ctx), st.ID)
	require.NoError(t, err)
	assert.Nil(t, p.CurriculumID)
}

type failingCurriculumAggregate struct {
	domainagg.CurriculumAggregate
	err error
}

func (f failingCurriculumAggregate) RenameItem(context.Context, uuid.UUID, string) (*curriculum.Item, error) {
	return nil, f.err
}

func TestCurriculumService_FailedWriteInvalidatesSnapshot(t *testing.T) {
	e := newEnv(t)
	admin := e.seedProfile(t, "boss", user.RoleAdmin)
	_, set, _, a, _ := e.seedStudentBoard(t)
	ctx := as(admin)

	svc := NewCurriculumService(newTestLogger(t), e.sets, e.items, failingCurriculumAggregate{err: errors.New("boom")}, e.snapshots)
	_, err := svc.Snapshot(ctx, set.ID)
	require.NoError(t, err)

	_, err = svc.RenameItem(ctx, a.ID, "소수")
	require.Error(t, err)

	_, ok, err := e.snapshots.Get(ctx, cache.SnapshotKey(set.ID))
	require.NoError(t, err)
	assert.False(t, ok)
}
