package aggregates_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/greenlight-backend/internal/data/aggregates"
	aggtestutil "github.com/yungbote/greenlight-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/greenlight-backend/internal/data/repos"
	"github.com/yungbote/greenlight-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/greenlight-backend/internal/domain/aggregates"
	"github.com/yungbote/greenlight-backend/internal/domain/curriculum"
	"github.com/yungbote/greenlight-backend/internal/domain/progress"
	"github.com/yungbote/greenlight-backend/internal/domain/user"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
)

type harness struct {
	ctx        context.Context
	tx         *gorm.DB
	dbc        dbctx.Context
	hooks      *aggtestutil.Recorder
	sets       repos.CurriculumSetRepo
	items      repos.CurriculumItemRepo
	profiles   repos.ProfileRepo
	links      repos.ParentLinkRepo
	progress   repos.ProgressRepo
	memos      repos.MemoRepo
	curriculum domainagg.CurriculumAggregate
	profile    domainagg.ProfileAggregate
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	ctx := context.Background()

	h := &harness{
		ctx:      ctx,
		tx:       tx,
		dbc:      dbctx.Context{Ctx: ctx, Tx: tx},
		hooks:    &aggtestutil.Recorder{},
		sets:     repos.NewCurriculumSetRepo(db, log),
		items:    repos.NewCurriculumItemRepo(db, log),
		profiles: repos.NewProfileRepo(db, log),
		links:    repos.NewParentLinkRepo(db, log),
		progress: repos.NewProgressRepo(db, log),
		memos:    repos.NewMemoRepo(db, log),
	}
	base := aggregates.BaseDeps{DB: tx, Log: log, Hooks: h.hooks}
	h.curriculum = aggregates.NewCurriculumAggregate(base, aggregates.CurriculumAggregateDeps{
		Sets: h.sets, Items: h.items, Profiles: h.profiles, Progress: h.progress, Memos: h.memos,
	})
	h.profile = aggregates.NewProfileAggregate(base, aggregates.ProfileAggregateDeps{
		Profiles: h.profiles, Links: h.links, Sets: h.sets, Progress: h.progress, Memos: h.memos,
	})
	return h
}

func TestCurriculumAggregate_Contract(t *testing.T) {
	h := newHarness(t)
	assert.True(t, h.curriculum.Contract().RequiresAggregateOwnedTx())
	assert.Equal(t, "curriculum", h.curriculum.Contract().Name)
}

func TestAddItem_RootIntoEmptySet(t *testing.T) {
	h := newHarness(t)
	set := testutil.SeedSet(t, h.ctx, h.tx, "중1-1")

	item, err := h.curriculum.AddItem(h.ctx, domainagg.AddItemInput{SetID: set.ID, Name: "  Unit 1  "})
	require.NoError(t, err)
	assert.Equal(t, "Unit 1", item.Name)
	assert.Equal(t, 1, item.Depth)
	assert.Equal(t, 1, item.Order)
	assert.False(t, item.IsLeaf)
	assert.Nil(t, item.ParentID)

	second, err := h.curriculum.AddItem(h.ctx, domainagg.AddItemInput{SetID: set.ID, Name: "Unit 2"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Order)

	all, err := h.items.GetBySetID(h.dbc, set.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, []string{"success", "success"}, h.hooks.Statuses("curriculum.add_item"))
}

func TestAddItem_Rejections(t *testing.T) {
	h := newHarness(t)
	set := testutil.SeedSet(t, h.ctx, h.tx, "A")
	other := testutil.SeedSet(t, h.ctx, h.tx, "B")
	leaf := testutil.SeedItem(t, h.ctx, h.tx, set.ID, nil, "leaf", true, 1)
	foreign := testutil.SeedItem(t, h.ctx, h.tx, other.ID, nil, "folder", false, 1)

	_, err := h.curriculum.AddItem(h.ctx, domainagg.AddItemInput{SetID: set.ID, Name: "   "})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "blank name: %v", err)

	_, err = h.curriculum.AddItem(h.ctx, domainagg.AddItemInput{SetID: uuid.New(), Name: "x"})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "missing set: %v", err)

	_, err = h.curriculum.AddItem(h.ctx, domainagg.AddItemInput{SetID: set.ID, ParentID: &leaf.ID, Name: "x"})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeInvariantViolation), "leaf parent: %v", err)

	_, err = h.curriculum.AddItem(h.ctx, domainagg.AddItemInput{SetID: set.ID, ParentID: &foreign.ID, Name: "x"})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeInvariantViolation), "cross-set parent: %v", err)

	missing := uuid.New()
	_, err = h.curriculum.AddItem(h.ctx, domainagg.AddItemInput{SetID: set.ID, ParentID: &missing, Name: "x"})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "missing parent: %v", err)
}

func TestAddItem_ForcesLeafAtMaxDepth(t *testing.T) {
	h := newHarness(t)
	set := testutil.SeedSet(t, h.ctx, h.tx, "deep")

	var parent *curriculum.Item
	for d := 1; d < curriculum.MaxDepth; d++ {
		parent = testutil.SeedItem(t, h.ctx, h.tx, set.ID, parent, "folder", false, 1)
	}
	require.Equal(t, curriculum.MaxDepth-1, parent.Depth)

	item, err := h.curriculum.AddItem(h.ctx, domainagg.AddItemInput{SetID: set.ID, ParentID: &parent.ID, Name: "bottom", IsLeaf: false})
	require.NoError(t, err)
	assert.Equal(t, curriculum.MaxDepth, item.Depth)
	assert.True(t, item.IsLeaf)

	_, err = h.curriculum.AddItem(h.ctx, domainagg.AddItemInput{SetID: set.ID, ParentID: &item.ID, Name: "too deep"})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeInvariantViolation), "child of forced leaf: %v", err)
}

func TestMoveItem_SwapAndBoundary(t *testing.T) {
	h := newHarness(t)
	set := testutil.SeedSet(t, h.ctx, h.tx, "move")
	unit := testutil.SeedItem(t, h.ctx, h.tx, set.ID, nil, "unit", false, 1)
	a := testutil.SeedItem(t, h.ctx, h.tx, set.ID, unit, "a", true, 1)
	b := testutil.SeedItem(t, h.ctx, h.tx, set.ID, unit, "b", true, 2)
	c := testutil.SeedItem(t, h.ctx, h.tx, set.ID, unit, "c", true, 3)

	res, err := h.curriculum.MoveItem(h.ctx, a.ID, domainagg.DirectionUp)
	require.NoError(t, err)
	assert.False(t, res.Moved)
	assertOrders(t, h, map[uuid.UUID]int{a.ID: 1, b.ID: 2, c.ID: 3})

	res, err = h.curriculum.MoveItem(h.ctx, c.ID, domainagg.DirectionDown)
	require.NoError(t, err)
	assert.False(t, res.Moved)

	res, err = h.curriculum.MoveItem(h.ctx, c.ID, domainagg.DirectionUp)
	require.NoError(t, err)
	assert.True(t, res.Moved)
	assert.Equal(t, map[uuid.UUID]int{c.ID: 2, b.ID: 3}, res.Orders)
	assertOrders(t, h, map[uuid.UUID]int{a.ID: 1, b.ID: 3, c.ID: 2})

	_, err = h.curriculum.MoveItem(h.ctx, a.ID, domainagg.Direction("sideways"))
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "bad direction: %v", err)
}

func TestMoveItem_RenumbersTiedOrders(t *testing.T) {
	h := newHarness(t)
	set := testutil.SeedSet(t, h.ctx, h.tx, "ties")
	a := testutil.SeedItem(t, h.ctx, h.tx, set.ID, nil, "a", false, 1)
	b := testutil.SeedItem(t, h.ctx, h.tx, set.ID, nil, "b", false, 1)

	res, err := h.curriculum.MoveItem(h.ctx, b.ID, domainagg.DirectionUp)
	require.NoError(t, err)
	assert.True(t, res.Moved)
	assertOrders(t, h, map[uuid.UUID]int{b.ID: 1, a.ID: 2})
}

func assertOrders(t *testing.T, h *harness, want map[uuid.UUID]int) {
	t.Helper()
	for id, order := range want {
		got, err := h.items.GetByID(h.dbc, id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, order, got.Order, "order of %s", got.Name)
	}
}

func TestDeleteItem_CascadesSubtreeProgressAndMemos(t *testing.T) {
	h := newHarness(t)
	set := testutil.SeedSet(t, h.ctx, h.tx, "cascade")
	student := testutil.SeedProfile(t, h.ctx, h.tx, "학생", user.RoleStudent)
	unit := testutil.SeedItem(t, h.ctx, h.tx, set.ID, nil, "unit", false, 1)
	chapter := testutil.SeedItem(t, h.ctx, h.tx, set.ID, unit, "chapter", false, 1)
	leaf := testutil.SeedItem(t, h.ctx, h.tx, set.ID, chapter, "leaf", true, 1)
	keep := testutil.SeedItem(t, h.ctx, h.tx, set.ID, nil, "other unit", false, 2)
	testutil.SeedProgress(t, h.ctx, h.tx, student.ID, leaf.ID, progress.StatusGreen)
	testutil.SeedMemo(t, h.ctx, h.tx, student.ID, leaf.ID, "note")

	res, err := h.curriculum.DeleteItem(h.ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, set.ID, res.SetID)
	assert.ElementsMatch(t, []uuid.UUID{unit.ID, chapter.ID, leaf.ID}, res.DeletedIDs)

	left, err := h.items.GetBySetID(h.dbc, set.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, keep.ID, left[0].ID)

	rows, err := h.progress.GetByUserID(h.dbc, student.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	memo, err := h.memos.Get(h.dbc, student.ID, leaf.ID)
	require.NoError(t, err)
	assert.Nil(t, memo)

	_, err = h.curriculum.DeleteItem(h.ctx, unit.ID)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "second delete: %v", err)
}

func TestRenameItemAndSet(t *testing.T) {
	h := newHarness(t)
	set := testutil.SeedSet(t, h.ctx, h.tx, "old")
	item := testutil.SeedItem(t, h.ctx, h.tx, set.ID, nil, "old item", false, 1)

	renamed, err := h.curriculum.RenameItem(h.ctx, item.ID, " new item ")
	require.NoError(t, err)
	assert.Equal(t, "new item", renamed.Name)
	assert.Equal(t, item.Order, renamed.Order)

	s, err := h.curriculum.RenameSet(h.ctx, set.ID, "new")
	require.NoError(t, err)
	assert.Equal(t, "new", s.Name)

	_, err = h.curriculum.RenameSet(h.ctx, set.ID, "")
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation))
}

func TestAddSetAndMoveSet(t *testing.T) {
	h := newHarness(t)
	first, err := h.curriculum.AddSet(h.ctx, domainagg.AddSetInput{Name: "중1-1"})
	require.NoError(t, err)
	second, err := h.curriculum.AddSet(h.ctx, domainagg.AddSetInput{Name: "중1-2"})
	require.NoError(t, err)
	require.NotNil(t, first.Order)
	require.NotNil(t, second.Order)
	assert.Equal(t, *first.Order+1, *second.Order)

	res, err := h.curriculum.MoveSet(h.ctx, first.ID, domainagg.DirectionUp)
	require.NoError(t, err)
	assert.False(t, res.Moved)

	res, err = h.curriculum.MoveSet(h.ctx, second.ID, domainagg.DirectionUp)
	require.NoError(t, err)
	assert.True(t, res.Moved)

	list, err := h.sets.List(h.dbc)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestDeleteSet_UnassignsProfiles(t *testing.T) {
	for _, deleteItems := range []bool{true, false} {
		h := newHarness(t)
		set := testutil.SeedSet(t, h.ctx, h.tx, "gone")
		item := testutil.SeedItem(t, h.ctx, h.tx, set.ID, nil, "unit", false, 1)
		student := testutil.SeedProfile(t, h.ctx, h.tx, "s", user.RoleStudent)
		require.NoError(t, h.profiles.UpdateFields(h.dbc, student.ID, map[string]interface{}{"curriculum_id": set.ID}))

		res, err := h.curriculum.DeleteSet(h.ctx, domainagg.DeleteSetInput{SetID: set.ID, DeleteItems: deleteItems})
		require.NoError(t, err)
		assert.EqualValues(t, 1, res.UnassignedProfiles)

		p, err := h.profiles.GetByID(h.dbc, student.ID)
		require.NoError(t, err)
		assert.Nil(t, p.CurriculumID)

		got, err := h.sets.GetByID(h.dbc, set.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		left, err := h.items.GetByID(h.dbc, item.ID)
		require.NoError(t, err)
		if deleteItems {
			assert.Nil(t, left)
			assert.Equal(t, []uuid.UUID{item.ID}, res.DeletedItemIDs)
		} else {
			assert.NotNil(t, left)
			assert.Empty(t, res.DeletedItemIDs)
		}
	}
}

func TestImportSet(t *testing.T) {
	h := newHarness(t)

	deep := domainagg.ImportNode{Name: "d10", Leaf: false}
	for d := curriculum.MaxDepth - 1; d >= 1; d-- {
		deep = domainagg.ImportNode{Name: "folder", Children: []domainagg.ImportNode{deep}}
	}
	res, err := h.curriculum.ImportSet(h.ctx, domainagg.ImportSetInput{
		Name: "imported",
		Items: []domainagg.ImportNode{
			{Name: "Unit 1", Children: []domainagg.ImportNode{
				{Name: "1-1", Leaf: true},
				{Name: "1-2", Leaf: true},
			}},
			deep,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Set)
	assert.Len(t, res.Items, 3+curriculum.MaxDepth)
	assert.Empty(t, curriculum.Validate(res.Items))

	last := res.Items[len(res.Items)-1]
	assert.Equal(t, curriculum.MaxDepth, last.Depth)
	assert.True(t, last.IsLeaf)

	bad := domainagg.ImportNode{Name: "d10", Children: []domainagg.ImportNode{{Name: "d11", Leaf: true}}}
	for d := curriculum.MaxDepth - 1; d >= 1; d-- {
		bad = domainagg.ImportNode{Name: "folder", Children: []domainagg.ImportNode{bad}}
	}
	_, err = h.curriculum.ImportSet(h.ctx, domainagg.ImportSetInput{Name: "too deep", Items: []domainagg.ImportNode{bad}})
	assert.True(t, domainagg.IsCode(err, domainagg.CodeInvariantViolation), "import past max depth: %v", err)

	sets, err := h.sets.List(h.dbc)
	require.NoError(t, err)
	assert.Len(t, sets, 1, "failed import must not leave a set behind")
}

func TestCurriculumAggregate_InjectedBeginFailure(t *testing.T) {
	h := newHarness(t)
	runner := &aggtestutil.BrokenRunner{Err: errors.New("connection refused")}
	agg := aggregates.NewCurriculumAggregate(
		aggregates.BaseDeps{DB: h.tx, Runner: runner, Hooks: h.hooks},
		aggregates.CurriculumAggregateDeps{Sets: h.sets, Items: h.items, Profiles: h.profiles, Progress: h.progress, Memos: h.memos},
	)
	_, err := agg.AddSet(h.ctx, domainagg.AddSetInput{Name: "never"})
	require.Error(t, err)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeInternal))
	assert.Equal(t, 1, runner.Attempts())
	assert.Equal(t, string(domainagg.CodeInternal), h.hooks.Last().Status)

	sets, err := h.sets.List(h.dbc)
	require.NoError(t, err)
	assert.Empty(t, sets)
}
