package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/greenlight-backend/internal/data/aggregates"
	"github.com/yungbote/greenlight-backend/internal/data/cache"
	"github.com/yungbote/greenlight-backend/internal/data/repos"
	"github.com/yungbote/greenlight-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/greenlight-backend/internal/domain/aggregates"
	"github.com/yungbote/greenlight-backend/internal/domain/curriculum"
	"github.com/yungbote/greenlight-backend/internal/domain/progress"
	"github.com/yungbote/greenlight-backend/internal/domain/user"
	"github.com/yungbote/greenlight-backend/internal/pkg/ctxutil"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

// env wires every service over one rolled-back transaction.
type env struct {
	tx        *gorm.DB
	log       *logger.Logger
	sets      repos.CurriculumSetRepo
	items     repos.CurriculumItemRepo
	profiles  repos.ProfileRepo
	links     repos.ParentLinkRepo
	progress  repos.ProgressRepo
	memos     repos.MemoRepo
	snapshots cache.Store[*curriculum.Snapshot]
	boards    cache.Store[*progress.Board]

	curAgg     domainagg.CurriculumAggregate
	boardDeps  ProgressServiceDeps
	curriculum CurriculumService
	profile    ProfileService
	board      ProgressService
	dashboard  DashboardService
	importer   ImportService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)

	e := &env{
		tx:        tx,
		log:       log,
		sets:      repos.NewCurriculumSetRepo(tx, log),
		items:     repos.NewCurriculumItemRepo(tx, log),
		profiles:  repos.NewProfileRepo(tx, log),
		links:     repos.NewParentLinkRepo(tx, log),
		progress:  repos.NewProgressRepo(tx, log),
		memos:     repos.NewMemoRepo(tx, log),
		snapshots: cache.NewMemoryStore[*curriculum.Snapshot](0),
		boards:    cache.NewMemoryStore[*progress.Board](0),
	}
	base := aggregates.BaseDeps{DB: tx, Log: log}
	curAgg := aggregates.NewCurriculumAggregate(base, aggregates.CurriculumAggregateDeps{
		Sets: e.sets, Items: e.items, Profiles: e.profiles, Progress: e.progress, Memos: e.memos,
	})
	profAgg := aggregates.NewProfileAggregate(base, aggregates.ProfileAggregateDeps{
		Profiles: e.profiles, Links: e.links, Sets: e.sets, Progress: e.progress, Memos: e.memos,
	})

	e.curAgg = curAgg
	e.curriculum = NewCurriculumService(log, e.sets, e.items, curAgg, e.snapshots)
	e.profile = NewProfileService(log, e.profiles, e.links, profAgg, e.boards)
	e.boardDeps = ProgressServiceDeps{
		Profiles:  e.profiles,
		Links:     e.links,
		Sets:      e.sets,
		Items:     e.items,
		Progress:  e.progress,
		Memos:     e.memos,
		Snapshots: e.curriculum,
		Boards:    e.boards,
	}
	e.board = e.boardService(nil)
	e.dashboard = NewDashboardService(log, e.profiles, e.sets, e.items, e.progress, e.memos)
	e.importer = NewImportService(log, curAgg)
	return e
}

// boardService builds a ProgressService over the env's deps after mod has
// swapped any of them.
func (e *env) boardService(mod func(*ProgressServiceDeps)) ProgressService {
	deps := e.boardDeps
	if mod != nil {
		mod(&deps)
	}
	return NewProgressService(e.log, deps)
}

// prime caches val under key as a reader would after a load.
func prime[T any](t *testing.T, s cache.Store[T], key string, val T) {
	t.Helper()
	ctx := context.Background()
	ver, err := s.Version(ctx, key)
	if err != nil {
		t.Fatalf("cache version: %v", err)
	}
	if ok, err := s.Fill(ctx, key, ver, val); err != nil || !ok {
		t.Fatalf("cache fill: ok=%v err=%v", ok, err)
	}
}

// gatedStore pauses the first call of the gated method until release is
// closed, announcing the pause on reached.
type gatedStore[T any] struct {
	cache.Store[T]
	once    sync.Once
	reached chan struct{}
	release chan struct{}
}

func newGatedStore[T any](inner cache.Store[T]) *gatedStore[T] {
	return &gatedStore[T]{Store: inner, reached: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedStore[T]) Fill(ctx context.Context, key string, ver uint64, val T) (bool, error) {
	g.once.Do(func() {
		close(g.reached)
		<-g.release
	})
	return g.Store.Fill(ctx, key, ver, val)
}

func as(p *user.Profile) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID: p.ID,
		Email:  p.Email,
		Name:   p.Name,
		Role:   string(p.Role),
	})
}

func (e *env) seedProfile(t *testing.T, name string, role user.Role) *user.Profile {
	t.Helper()
	return testutil.SeedProfile(t, context.Background(), e.tx, name, role)
}

// seedStudentBoard creates a set with one unit holding two leaves and assigns
// it to a new student.
func (e *env) seedStudentBoard(t *testing.T) (*user.Profile, *curriculum.Set, *curriculum.Item, *curriculum.Item, *curriculum.Item) {
	t.Helper()
	ctx := context.Background()
	set := testutil.SeedSet(t, ctx, e.tx, "중1-1")
	unit := testutil.SeedItem(t, ctx, e.tx, set.ID, nil, "1. 소인수분해", false, 1)
	a := testutil.SeedItem(t, ctx, e.tx, set.ID, unit, "소수와 합성수", true, 1)
	b := testutil.SeedItem(t, ctx, e.tx, set.ID, unit, "거듭제곱", true, 2)
	st := e.seedProfile(t, "kim", user.RoleStudent)
	if err := e.tx.Model(&user.Profile{}).Where("id = ?", st.ID).Update("curriculum_id", set.ID).Error; err != nil {
		t.Fatalf("assign curriculum: %v", err)
	}
	st.CurriculumID = &set.ID
	return st, set, unit, a, b
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return testutil.Logger(t)
}

func strp(s string) *string { return &s }

func dbcOf(ctx context.Context) dbctx.Context { return dbctx.Context{Ctx: ctx} }

func idsOf(ps []*user.Profile) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}
