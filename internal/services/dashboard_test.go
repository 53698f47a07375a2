package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainagg "github.com/yungbote/greenlight-backend/internal/domain/aggregates"
	"github.com/yungbote/greenlight-backend/internal/domain/curriculum"
	"github.com/yungbote/greenlight-backend/internal/domain/progress"
	"github.com/yungbote/greenlight-backend/internal/domain/user"
)

func TestBuildOverview(t *testing.T) {
	set := &curriculum.Set{ID: uuid.New(), Name: "중1-1"}
	unit := &curriculum.Item{ID: uuid.New(), SetID: set.ID, Name: "Unit", Depth: 1, Order: 1}
	leaf := func(name string, order int) *curriculum.Item {
		return &curriculum.Item{ID: uuid.New(), SetID: set.ID, ParentID: &unit.ID, Name: name, IsLeaf: true, Depth: 2, Order: order}
	}
	a, b, c := leaf("a", 1), leaf("b", 2), leaf("c", 3)

	kim := &user.Profile{ID: uuid.New(), Name: "kim", Role: user.RoleStudent, CurriculumID: &set.ID}
	lee := &user.Profile{ID: uuid.New(), Name: "lee", Role: user.RoleStudent}
	gone := &user.Profile{ID: uuid.New(), Name: "old", Role: user.RoleStudent, CurriculumID: &set.ID, IsArchived: true}

	now := time.Now()
	rows := []*progress.UserProgress{
		{UserID: kim.ID, ItemID: a.ID, Status: progress.StatusGreen, UpdatedAt: now},
		{UserID: kim.ID, ItemID: b.ID, Status: progress.StatusRed, UpdatedAt: now.Add(-time.Hour)},
		{UserID: kim.ID, ItemID: c.ID, Status: progress.StatusRed, UpdatedAt: now},
		{UserID: gone.ID, ItemID: a.ID, Status: progress.StatusRed, UpdatedAt: now},
	}
	memos := []*progress.Memo{{UserID: kim.ID, ItemID: b.ID, StudentMemo: strp("모르겠음")}}
	red := []*progress.UserProgress{
		rows[2],
		rows[3],
		{UserID: kim.ID, ItemID: uuid.New(), Status: progress.StatusRed, UpdatedAt: now},
		{UserID: uuid.New(), ItemID: a.ID, Status: progress.StatusRed, UpdatedAt: now},
		rows[1],
	}

	out := buildOverview([]*user.Profile{lee, kim, gone}, []*curriculum.Set{set}, []*curriculum.Item{unit, a, b, c}, rows, memos, red)

	require.Len(t, out.Students, 2)
	k := out.Students[0]
	assert.Equal(t, "kim", k.UserName)
	assert.Equal(t, "중1-1", k.CurriculumName)
	assert.Equal(t, 3, k.Total)
	assert.Equal(t, 1, k.Green)
	assert.Equal(t, 2, k.Red)
	assert.Equal(t, 33, k.ProgressPercent)

	l := out.Students[1]
	assert.Equal(t, "미배정", l.CurriculumName)
	assert.Equal(t, 0, l.Total)
	assert.Equal(t, 0, l.ProgressPercent)

	require.Len(t, out.SOSItems, 2)
	assert.Equal(t, c.ID, out.SOSItems[0].ItemID)
	assert.Equal(t, b.ID, out.SOSItems[1].ItemID)
	require.NotNil(t, out.SOSItems[1].StudentMemo)
	assert.Equal(t, "모르겠음", *out.SOSItems[1].StudentMemo)
}

func TestOverview_RequiresAdmin(t *testing.T) {
	e := newEnv(t)
	st := e.seedProfile(t, "kim", user.RoleStudent)
	_, err := e.dashboard.Overview(as(st))
	assert.True(t, domainagg.IsCode(err, domainagg.CodeForbidden))
}

func TestOverview_SOSFromRedRows(t *testing.T) {
	e := newEnv(t)
	admin := e.seedProfile(t, "admin", user.RoleAdmin)
	st, _, _, a, b := e.seedStudentBoard(t)

	for _, step := range []struct {
		item   *curriculum.Item
		status string
	}{{a, "RED"}, {b, "RED"}, {a, "GREEN"}} {
		_, err := e.board.SetStatus(as(st), st.ID, step.item.ID, step.status)
		require.NoError(t, err)
	}

	out, err := e.dashboard.Overview(as(admin))
	require.NoError(t, err)
	require.Len(t, out.SOSItems, 1)
	assert.Equal(t, b.ID, out.SOSItems[0].ItemID)
	assert.Equal(t, st.ID, out.SOSItems[0].UserID)
}
