package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/greenlight-backend/internal/data/cache"
	"github.com/yungbote/greenlight-backend/internal/data/repos"
	"github.com/yungbote/greenlight-backend/internal/domain/curriculum"
	"github.com/yungbote/greenlight-backend/internal/domain/progress"
	"github.com/yungbote/greenlight-backend/internal/domain/user"
	"github.com/yungbote/greenlight-backend/internal/observability"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
	"github.com/yungbote/greenlight-backend/internal/pkg/validate"
)

// LeafView is one learnable item on a board with what the viewer may see of it.
type LeafView struct {
	ID          uuid.UUID       `json:"id"`
	ParentID    *uuid.UUID      `json:"parent_id"`
	Name        string          `json:"name"`
	Depth       int             `json:"depth"`
	Status      progress.Status `json:"status"`
	StatusLabel string          `json:"status_label"`
	StudentMemo *string         `json:"student_memo,omitempty"`
	AdminMemo   *string         `json:"admin_memo,omitempty"`
	YoutubeURL  *string         `json:"youtube_url,omitempty"`
}

// UnitView is one root folder of the board. Layout is decided by the unit's
// own leaf count.
type UnitView struct {
	ID       uuid.UUID         `json:"id"`
	Name     string            `json:"name"`
	Leaves   []LeafView        `json:"leaves"`
	Progress int               `json:"progress"`
	Total    int               `json:"total"`
	Layout   curriculum.Layout `json:"layout"`
}

// BoardView is a student's board as rendered for one viewer. Set is nil when
// the student has no curriculum assigned.
type BoardView struct {
	StudentID   uuid.UUID                   `json:"student_id"`
	StudentName string                      `json:"student_name"`
	Set         *curriculum.Set             `json:"set"`
	Tree        []*curriculum.TreeNode      `json:"tree"`
	Units       []UnitView                  `json:"units"`
	Loose       []LeafView                  `json:"loose"`
	Folders     []curriculum.FolderProgress `json:"folders"`
	Tally       progress.Tally              `json:"tally"`
	Percent     int                         `json:"percent"`
	Permissions user.Permissions            `json:"permissions"`
}

type AdminMemoInput struct {
	Memo       *string `json:"admin_memo"`
	YoutubeURL *string `json:"youtube_url" validate:"omitempty,httpurl"`
}

// SnapshotSource loads the flat item list of a set.
type SnapshotSource interface {
	Snapshot(ctx context.Context, setID uuid.UUID) (*curriculum.Snapshot, error)
}

type ProgressService interface {
	GetBoard(ctx context.Context, studentID uuid.UUID) (*BoardView, error)
	SetStatus(ctx context.Context, studentID, itemID uuid.UUID, status string) (*progress.UserProgress, error)
	SetStudentMemo(ctx context.Context, itemID uuid.UUID, text *string) (*progress.Memo, error)
	SetAdminMemo(ctx context.Context, studentID, itemID uuid.UUID, in AdminMemoInput) (*progress.Memo, error)
}

type progressService struct {
	log       *logger.Logger
	profiles  repos.ProfileRepo
	links     repos.ParentLinkRepo
	sets      repos.CurriculumSetRepo
	items     repos.CurriculumItemRepo
	progress  repos.ProgressRepo
	memos     repos.MemoRepo
	snapshots SnapshotSource
	boards    cache.Store[*progress.Board]
	metrics   *observability.Metrics
}

type ProgressServiceDeps struct {
	Profiles  repos.ProfileRepo
	Links     repos.ParentLinkRepo
	Sets      repos.CurriculumSetRepo
	Items     repos.CurriculumItemRepo
	Progress  repos.ProgressRepo
	Memos     repos.MemoRepo
	Snapshots SnapshotSource
	Boards    cache.Store[*progress.Board]
	Metrics   *observability.Metrics
}

func NewProgressService(log *logger.Logger, deps ProgressServiceDeps) ProgressService {
	return &progressService{
		log:       log.With("service", "ProgressService"),
		profiles:  deps.Profiles,
		links:     deps.Links,
		sets:      deps.Sets,
		items:     deps.Items,
		progress:  deps.Progress,
		memos:     deps.Memos,
		snapshots: deps.Snapshots,
		boards:    deps.Boards,
		metrics:   deps.Metrics,
	}
}

// canView reports whether c may read studentID's board: admins read any
// board, students their own, parents their linked children (link rows or the
// legacy single-child pointer).
func (s *progressService) canView(ctx context.Context, c Caller, studentID uuid.UUID) error {
	switch c.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleStudent:
		if c.ID == studentID {
			return nil
		}
	case user.RoleParent:
		dbc := dbctx.Context{Ctx: ctx}
		linked, err := s.links.Exists(dbc, c.ID, studentID)
		if err != nil {
			return internal("progress.board", err)
		}
		if linked {
			return nil
		}
		parent, err := s.profiles.GetByID(dbc, c.ID)
		if err != nil {
			return internal("progress.board", err)
		}
		if parent != nil && parent.LinkedStudentID != nil && *parent.LinkedStudentID == studentID {
			return nil
		}
	}
	return forbidden("progress.board", "not allowed to view this board")
}

func (s *progressService) student(ctx context.Context, op string, id uuid.UUID) (*user.Profile, error) {
	p, err := s.profiles.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, internal(op, err)
	}
	if p == nil {
		return nil, notFound(op, "student not found")
	}
	if p.Role != user.RoleStudent {
		return nil, invalid(op, "profile is not a student")
	}
	return p, nil
}

func (s *progressService) GetBoard(ctx context.Context, studentID uuid.UUID) (_ *BoardView, err error) {
	ctx, span := observability.StartSpan(ctx, "progress.get_board", observability.StudentAttr(studentID))
	defer func() { observability.EndSpan(span, err) }()

	c, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.canView(ctx, c, studentID); err != nil {
		return nil, err
	}
	st, err := s.student(ctx, "progress.board", studentID)
	if err != nil {
		return nil, err
	}
	perms := c.Permissions()
	view := &BoardView{
		StudentID:   st.ID,
		StudentName: st.Name,
		Tree:        []*curriculum.TreeNode{},
		Units:       []UnitView{},
		Loose:       []LeafView{},
		Folders:     []curriculum.FolderProgress{},
		Permissions: perms,
	}
	if st.CurriculumID == nil {
		return view, nil
	}

	set, err := s.sets.GetByID(dbctx.Context{Ctx: ctx}, *st.CurriculumID)
	if err != nil {
		return nil, internal("progress.board", err)
	}
	if set == nil {
		return view, nil
	}
	snap, err := s.snapshots.Snapshot(ctx, set.ID)
	if err != nil {
		return nil, err
	}
	board, err := s.board(ctx, st.ID)
	if err != nil {
		return nil, err
	}

	view.Set = set
	view.Tree = snap.Tree()
	leafIDs := make([]uuid.UUID, 0)
	for _, u := range curriculum.UnitGroups(snap.Items, board.Mastered) {
		uv := UnitView{
			ID:       u.ID,
			Name:     u.Name,
			Progress: u.Progress,
			Total:    u.Total,
			Layout:   curriculum.GridLayout(len(u.Items)),
			Leaves:   make([]LeafView, 0, len(u.Items)),
		}
		for _, it := range u.Items {
			uv.Leaves = append(uv.Leaves, leafView(it, board, perms))
			leafIDs = append(leafIDs, it.ID)
		}
		view.Units = append(view.Units, uv)
	}
	for _, root := range view.Tree {
		if root.IsLeaf {
			it := root.Item
			view.Loose = append(view.Loose, leafView(&it, board, perms))
			leafIDs = append(leafIDs, it.ID)
		}
	}
	view.Folders = curriculum.FolderRollups(snap.Items, board.Mastered)
	view.Tally = progress.TallyLeaves(board, leafIDs)
	view.Percent = view.Tally.Percent()
	return view, nil
}

func leafView(it *curriculum.Item, b *progress.Board, perms user.Permissions) LeafView {
	st := b.StatusOf(it.ID)
	lv := LeafView{
		ID:          it.ID,
		ParentID:    it.ParentID,
		Name:        it.Name,
		Depth:       it.Depth,
		Status:      st,
		StatusLabel: st.Label(),
	}
	if !perms.CanOpenDetail {
		return lv
	}
	if m, ok := b.Memos[it.ID]; ok && m != nil {
		if perms.CanReadStudentMemo {
			lv.StudentMemo = m.StudentMemo
		}
		lv.AdminMemo = m.AdminMemo
		lv.YoutubeURL = m.YoutubeURL
	}
	return lv
}

// board returns the student's cached board, loading it on a miss. A load that
// raced a write is returned but not cached.
func (s *progressService) board(ctx context.Context, studentID uuid.UUID) (*progress.Board, error) {
	key := cache.BoardKey(studentID)
	if b, ok, err := s.boards.Get(ctx, key); err == nil && ok && b != nil {
		return b, nil
	} else if err != nil {
		s.log.Warn("board cache read failed", "user_id", studentID, "error", err)
	}
	ver, verErr := s.boards.Version(ctx, key)
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := s.progress.GetByUserID(dbc, studentID)
	if err != nil {
		return nil, internal("progress.board", err)
	}
	memos, err := s.memos.GetByUserID(dbc, studentID)
	if err != nil {
		return nil, internal("progress.board", err)
	}
	b := progress.NewBoard(studentID, rows, memos)
	if verErr != nil {
		return b, nil
	}
	if _, err := s.boards.Fill(ctx, key, ver, b); err != nil {
		s.log.Warn("board cache write failed", "user_id", studentID, "error", err)
	}
	return b, nil
}

// requireLeaf checks that itemID is a leaf of the student's assigned set.
func (s *progressService) requireLeaf(ctx context.Context, op string, st *user.Profile, itemID uuid.UUID) (*curriculum.Item, error) {
	if st.CurriculumID == nil {
		return nil, invalid(op, "student has no curriculum assigned")
	}
	snap, err := s.snapshots.Snapshot(ctx, *st.CurriculumID)
	if err != nil {
		return nil, err
	}
	it := snap.Find(itemID)
	if it == nil {
		// The snapshot may predate the item; the store decides.
		stored, err := s.items.GetByID(dbctx.Context{Ctx: ctx}, itemID)
		if err != nil {
			return nil, internal(op, err)
		}
		if stored == nil || stored.SetID != *st.CurriculumID {
			return nil, invalid(op, "item is not part of the assigned curriculum")
		}
		it = stored
	}
	if !it.IsLeaf {
		return nil, invalid(op, "progress can only be recorded on leaf items")
	}
	return it, nil
}

// SetStatus shows the new status on the cached board while the write is in
// flight, then drops the cached board.
func (s *progressService) SetStatus(ctx context.Context, studentID, itemID uuid.UUID, raw string) (_ *progress.UserProgress, err error) {
	const op = "progress.set_status"
	ctx, span := observability.StartSpan(ctx, op, observability.StudentAttr(studentID), observability.ItemAttr(itemID))
	defer func() { observability.EndSpan(span, err) }()

	c, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !c.Permissions().CanChangeStatus || (!c.IsAdmin() && c.ID != studentID) {
		return nil, forbidden(op, "not allowed to change this status")
	}
	status, err := progress.ParseStatus(raw)
	if err != nil {
		return nil, invalid(op, err.Error())
	}
	st, err := s.student(ctx, op, studentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireLeaf(ctx, op, st, itemID); err != nil {
		return nil, err
	}

	row := &progress.UserProgress{UserID: studentID, ItemID: itemID, Status: status}
	err = s.writeBoard(ctx, studentID, "status",
		func(b *progress.Board) func(*progress.Board) {
			p := b.SetStatus(itemID, status)
			return func(b *progress.Board) { b.Revert(p) }
		},
		func() error { return s.progress.Upsert(dbctx.Context{Ctx: ctx}, row) },
	)
	if err != nil {
		return nil, internal(op, err)
	}
	return row, nil
}

func cleanMemo(text *string) *string {
	if text == nil {
		return nil
	}
	t := strings.TrimSpace(*text)
	if t == "" {
		return nil
	}
	return &t
}

func (s *progressService) SetStudentMemo(ctx context.Context, itemID uuid.UUID, text *string) (*progress.Memo, error) {
	const op = "progress.student_memo"
	c, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !c.Permissions().CanEditStudentMemo {
		return nil, forbidden(op, "only students write their own memos")
	}
	st, err := s.student(ctx, op, c.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireLeaf(ctx, op, st, itemID); err != nil {
		return nil, err
	}
	text = cleanMemo(text)
	var m *progress.Memo
	err = s.writeBoard(ctx, st.ID, "student_memo",
		func(b *progress.Board) func(*progress.Board) {
			p := b.MergeStudentMemo(itemID, text)
			return func(b *progress.Board) { b.RevertMemo(p) }
		},
		func() (err error) {
			m, err = s.memos.UpsertStudentMemo(dbctx.Context{Ctx: ctx}, st.ID, itemID, text)
			return err
		},
	)
	if err != nil {
		return nil, internal(op, err)
	}
	return m, nil
}

func (s *progressService) SetAdminMemo(ctx context.Context, studentID, itemID uuid.UUID, in AdminMemoInput) (*progress.Memo, error) {
	const op = "progress.admin_memo"
	c, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !c.Permissions().CanEditAdminMemo {
		return nil, forbidden(op, "admin role required")
	}
	in.Memo = cleanMemo(in.Memo)
	in.YoutubeURL = cleanMemo(in.YoutubeURL)
	if err := validate.Struct(in); err != nil {
		return nil, invalid(op, err.Error())
	}
	st, err := s.student(ctx, op, studentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireLeaf(ctx, op, st, itemID); err != nil {
		return nil, err
	}
	var m *progress.Memo
	err = s.writeBoard(ctx, st.ID, "admin_memo",
		func(b *progress.Board) func(*progress.Board) {
			p := b.MergeAdminMemo(itemID, in.Memo, in.YoutubeURL)
			return func(b *progress.Board) { b.RevertMemo(p) }
		},
		func() (err error) {
			m, err = s.memos.UpsertAdminMemo(dbctx.Context{Ctx: ctx}, st.ID, itemID, in.Memo, in.YoutubeURL)
			return err
		},
	)
	if err != nil {
		return nil, internal(op, err)
	}
	return m, nil
}

// writeBoard applies patch to the cached board, runs write, then drops the
// cached board whatever the outcome so the next read reloads committed rows.
// If the drop fails after a failed write, the patch is undone in place.
func (s *progressService) writeBoard(
	ctx context.Context,
	studentID uuid.UUID,
	kind string,
	patch func(*progress.Board) (undo func(*progress.Board)),
	write func() error,
) error {
	key := cache.BoardKey(studentID)
	var undo func(*progress.Board)
	if err := s.boards.Update(ctx, key, func(b *progress.Board) *progress.Board {
		if b == nil {
			return b
		}
		next := b.Clone()
		undo = patch(next)
		return next
	}); err != nil {
		s.log.Warn("board cache patch failed", "user_id", studentID, "error", err)
	}

	writeErr := write()
	if writeErr != nil {
		s.metrics.IncBoardWrite(kind, "error")
	} else {
		s.metrics.IncBoardWrite(kind, "ok")
	}

	if err := s.boards.Delete(ctx, key); err != nil {
		s.log.Warn("board cache invalidation failed", "user_id", studentID, "error", err)
		if writeErr != nil && undo != nil {
			_ = s.boards.Update(ctx, key, func(b *progress.Board) *progress.Board {
				if b == nil {
					return b
				}
				next := b.Clone()
				undo(next)
				return next
			})
		}
	}
	return writeErr
}
