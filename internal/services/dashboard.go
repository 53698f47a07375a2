package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/greenlight-backend/internal/data/repos"
	repouser "github.com/yungbote/greenlight-backend/internal/data/repos/user"
	"github.com/yungbote/greenlight-backend/internal/domain/curriculum"
	"github.com/yungbote/greenlight-backend/internal/domain/progress"
	"github.com/yungbote/greenlight-backend/internal/domain/user"
	"github.com/yungbote/greenlight-backend/internal/observability"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

const unassignedCurriculumName = "미배정"

type StudentStats struct {
	UserID          uuid.UUID  `json:"user_id"`
	UserName        string     `json:"user_name"`
	CurriculumID    *uuid.UUID `json:"curriculum_id"`
	CurriculumName  string     `json:"curriculum_name"`
	Total           int        `json:"total"`
	Green           int        `json:"green"`
	Blue            int        `json:"blue"`
	Red             int        `json:"red"`
	Black           int        `json:"black"`
	ProgressPercent int        `json:"progress_percent"`
}

// SOSItem is a leaf a student marked RED, with the note they left on it.
type SOSItem struct {
	UserID      uuid.UUID `json:"user_id"`
	UserName    string    `json:"user_name"`
	ItemID      uuid.UUID `json:"item_id"`
	ItemName    string    `json:"item_name"`
	StudentMemo *string   `json:"student_memo"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type DashboardOverview struct {
	Students []StudentStats `json:"students"`
	SOSItems []SOSItem      `json:"sos_items"`
}

type DashboardService interface {
	Overview(ctx context.Context) (*DashboardOverview, error)
}

type dashboardService struct {
	log      *logger.Logger
	profiles repos.ProfileRepo
	sets     repos.CurriculumSetRepo
	items    repos.CurriculumItemRepo
	progress repos.ProgressRepo
	memos    repos.MemoRepo
}

func NewDashboardService(
	log *logger.Logger,
	profiles repos.ProfileRepo,
	sets repos.CurriculumSetRepo,
	items repos.CurriculumItemRepo,
	progressRepo repos.ProgressRepo,
	memos repos.MemoRepo,
) DashboardService {
	return &dashboardService{
		log:      log.With("service", "DashboardService"),
		profiles: profiles,
		sets:     sets,
		items:    items,
		progress: progressRepo,
		memos:    memos,
	}
}

func (s *dashboardService) Overview(ctx context.Context) (_ *DashboardOverview, err error) {
	const op = "dashboard.overview"
	ctx, span := observability.StartSpan(ctx, op)
	defer func() { observability.EndSpan(span, err) }()

	if _, err := requireAdmin(ctx, op); err != nil {
		return nil, err
	}

	var (
		students []*user.Profile
		sets     []*curriculum.Set
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		students, err = s.profiles.List(dbctx.Context{Ctx: gctx}, repouser.ProfileFilter{Roles: []user.Role{user.RoleStudent}})
		return err
	})
	g.Go(func() error {
		var err error
		sets, err = s.sets.List(dbctx.Context{Ctx: gctx})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, internal(op, err)
	}

	studentIDs := make([]uuid.UUID, 0, len(students))
	for _, p := range students {
		studentIDs = append(studentIDs, p.ID)
	}
	setIDs := make([]uuid.UUID, 0, len(sets))
	for _, set := range sets {
		setIDs = append(setIDs, set.ID)
	}

	var (
		items []*curriculum.Item
		rows  []*progress.UserProgress
		memos []*progress.Memo
		red   []*progress.UserProgress
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.items.GetBySetIDs(dbctx.Context{Ctx: gctx}, setIDs)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.progress.GetByUserIDs(dbctx.Context{Ctx: gctx}, studentIDs)
		return err
	})
	g.Go(func() error {
		var err error
		memos, err = s.memos.GetByUserIDs(dbctx.Context{Ctx: gctx}, studentIDs)
		return err
	})
	g.Go(func() error {
		var err error
		red, err = s.progress.GetByStatus(dbctx.Context{Ctx: gctx}, progress.StatusRed)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, internal(op, err)
	}

	return buildOverview(students, sets, items, rows, memos, red), nil
}

func buildOverview(
	students []*user.Profile,
	sets []*curriculum.Set,
	items []*curriculum.Item,
	rows []*progress.UserProgress,
	memos []*progress.Memo,
	red []*progress.UserProgress,
) *DashboardOverview {
	setNames := make(map[uuid.UUID]string, len(sets))
	for _, set := range sets {
		setNames[set.ID] = set.Name
	}
	itemsBySet := map[uuid.UUID][]*curriculum.Item{}
	for _, it := range items {
		itemsBySet[it.SetID] = append(itemsBySet[it.SetID], it)
	}
	leavesBySet := make(map[uuid.UUID][]*curriculum.Item, len(itemsBySet))
	for setID, its := range itemsBySet {
		leaves := make([]*curriculum.Item, 0)
		for _, it := range curriculum.Flatten(curriculum.BuildTree(its)) {
			if it.IsLeaf {
				leaves = append(leaves, it)
			}
		}
		leavesBySet[setID] = leaves
	}
	rowsByUser := map[uuid.UUID][]*progress.UserProgress{}
	for _, r := range rows {
		rowsByUser[r.UserID] = append(rowsByUser[r.UserID], r)
	}
	memosByUser := map[uuid.UUID][]*progress.Memo{}
	for _, m := range memos {
		memosByUser[m.UserID] = append(memosByUser[m.UserID], m)
	}

	out := &DashboardOverview{Students: []StudentStats{}, SOSItems: []SOSItem{}}
	boards := make(map[uuid.UUID]*progress.Board, len(students))
	leafOf := map[uuid.UUID]map[uuid.UUID]*curriculum.Item{}
	for _, st := range students {
		if st.IsArchived {
			continue
		}
		stats := StudentStats{UserID: st.ID, UserName: st.Name, CurriculumName: unassignedCurriculumName}
		var leaves []*curriculum.Item
		if st.CurriculumID != nil {
			if name, ok := setNames[*st.CurriculumID]; ok {
				stats.CurriculumID = st.CurriculumID
				stats.CurriculumName = name
				leaves = leavesBySet[*st.CurriculumID]
			}
		}
		board := progress.NewBoard(st.ID, rowsByUser[st.ID], memosByUser[st.ID])
		boards[st.ID] = board
		leafIDs := make([]uuid.UUID, 0, len(leaves))
		byID := make(map[uuid.UUID]*curriculum.Item, len(leaves))
		for _, l := range leaves {
			leafIDs = append(leafIDs, l.ID)
			byID[l.ID] = l
		}
		leafOf[st.ID] = byID
		t := progress.TallyLeaves(board, leafIDs)
		stats.Total, stats.Green, stats.Blue, stats.Red, stats.Black = t.Total, t.Green, t.Blue, t.Red, t.Black
		stats.ProgressPercent = t.Percent()
		out.Students = append(out.Students, stats)

	}

	names := make(map[uuid.UUID]string, len(students))
	for _, st := range students {
		names[st.ID] = st.Name
	}
	// red is newest first; rows of archived students or off-curriculum items drop out.
	for _, r := range red {
		leaf := leafOf[r.UserID][r.ItemID]
		if leaf == nil || r.Status != progress.StatusRed {
			continue
		}
		item := SOSItem{UserID: r.UserID, UserName: names[r.UserID], ItemID: leaf.ID, ItemName: leaf.Name, UpdatedAt: r.UpdatedAt}
		if m := boards[r.UserID].Memos[leaf.ID]; m != nil {
			item.StudentMemo = m.StudentMemo
		}
		out.SOSItems = append(out.SOSItems, item)
	}

	sort.SliceStable(out.Students, func(i, j int) bool { return out.Students[i].UserName < out.Students[j].UserName })
	sort.SliceStable(out.SOSItems, func(i, j int) bool { return out.SOSItems[i].UpdatedAt.After(out.SOSItems[j].UpdatedAt) })
	return out
}
