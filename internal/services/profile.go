package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/greenlight-backend/internal/data/cache"
	"github.com/yungbote/greenlight-backend/internal/data/repos"
	repouser "github.com/yungbote/greenlight-backend/internal/data/repos/user"
	domainagg "github.com/yungbote/greenlight-backend/internal/domain/aggregates"
	"github.com/yungbote/greenlight-backend/internal/domain/progress"
	"github.com/yungbote/greenlight-backend/internal/domain/user"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

// Me is the caller's own profile with the capability flags of its role.
type Me struct {
	Profile     *user.Profile    `json:"profile"`
	Permissions user.Permissions `json:"permissions"`
}

type ProfileListFilter struct {
	Role     string `form:"role"`
	Archived string `form:"archived"` // "", "include" or "only"
}

type ProfileService interface {
	EnsureProfile(ctx context.Context, id uuid.UUID, email, name string) (*user.Profile, error)
	Me(ctx context.Context) (*Me, error)
	UpdateMyContact(ctx context.Context, name, phone *string) (*user.Profile, error)
	Children(ctx context.Context) ([]*user.Profile, error)

	List(ctx context.Context, f ProfileListFilter) ([]*user.Profile, error)
	Approve(ctx context.Context, userID uuid.UUID, role string, curriculumID *uuid.UUID) (*user.Profile, error)
	AssignCurriculum(ctx context.Context, userID uuid.UUID, setID *uuid.UUID) (*user.Profile, error)
	ReplaceParentLinks(ctx context.Context, parentID uuid.UUID, studentIDs []uuid.UUID) ([]*user.ParentStudentLink, error)
	SetArchived(ctx context.Context, userID uuid.UUID, archived bool) (*user.Profile, error)
	UpdateContact(ctx context.Context, userID uuid.UUID, name, phone *string) (*user.Profile, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

type profileService struct {
	log      *logger.Logger
	profiles repos.ProfileRepo
	links    repos.ParentLinkRepo
	agg      domainagg.ProfileAggregate
	boards   cache.Store[*progress.Board]
}

func NewProfileService(
	log *logger.Logger,
	profiles repos.ProfileRepo,
	links repos.ParentLinkRepo,
	agg domainagg.ProfileAggregate,
	boards cache.Store[*progress.Board],
) ProfileService {
	return &profileService{
		log:      log.With("service", "ProfileService"),
		profiles: profiles,
		links:    links,
		agg:      agg,
		boards:   boards,
	}
}

// EnsureProfile returns the profile for id, creating a pending one on first sight.
func (s *profileService) EnsureProfile(ctx context.Context, id uuid.UUID, email, name string) (*user.Profile, error) {
	dbc := dbctx.Context{Ctx: ctx}
	p, err := s.profiles.GetByID(dbc, id)
	if err != nil {
		return nil, internal("profile.ensure", err)
	}
	if p != nil {
		return p, nil
	}
	p, err = s.profiles.CreateIfMissing(dbc, &user.Profile{
		ID:    id,
		Email: strings.TrimSpace(email),
		Name:  user.DisplayName(name, email),
		Role:  user.RolePending,
	})
	if err != nil {
		return nil, internal("profile.ensure", err)
	}
	s.log.Info("profile created", "user_id", id)
	return p, nil
}

func (s *profileService) Me(ctx context.Context) (*Me, error) {
	c, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.profiles.GetByID(dbctx.Context{Ctx: ctx}, c.ID)
	if err != nil {
		return nil, internal("profile.me", err)
	}
	if p == nil {
		return nil, notFound("profile.me", "profile not found")
	}
	return &Me{Profile: p, Permissions: p.Permissions()}, nil
}

func (s *profileService) UpdateMyContact(ctx context.Context, name, phone *string) (*user.Profile, error) {
	c, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.agg.UpdateContact(ctx, domainagg.UpdateContactInput{UserID: c.ID, Name: name, Phone: phone})
}

// Children resolves a parent's students from the link table plus the legacy
// single-child pointer.
func (s *profileService) Children(ctx context.Context) ([]*user.Profile, error) {
	c, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if c.Role != user.RoleParent && !c.IsAdmin() {
		return nil, forbidden("profile.children", "only parents have linked students")
	}
	ids, err := s.childIDs(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	out, err := s.profiles.GetByIDs(dbctx.Context{Ctx: ctx}, ids)
	if err != nil {
		return nil, internal("profile.children", err)
	}
	return out, nil
}

func (s *profileService) childIDs(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	return linkedStudentIDs(ctx, s.profiles, s.links, parentID)
}

func linkedStudentIDs(ctx context.Context, profiles repos.ProfileRepo, links repos.ParentLinkRepo, parentID uuid.UUID) ([]uuid.UUID, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := links.GetByParentID(dbc, parentID)
	if err != nil {
		return nil, internal("profile.children", err)
	}
	seen := map[uuid.UUID]bool{}
	ids := make([]uuid.UUID, 0, len(rows)+1)
	for _, l := range rows {
		if !seen[l.StudentID] {
			seen[l.StudentID] = true
			ids = append(ids, l.StudentID)
		}
	}
	parent, err := profiles.GetByID(dbc, parentID)
	if err != nil {
		return nil, internal("profile.children", err)
	}
	if parent != nil && parent.LinkedStudentID != nil && !seen[*parent.LinkedStudentID] {
		ids = append(ids, *parent.LinkedStudentID)
	}
	return ids, nil
}

func (s *profileService) List(ctx context.Context, f ProfileListFilter) ([]*user.Profile, error) {
	if _, err := requireAdmin(ctx, "profile.list"); err != nil {
		return nil, err
	}
	filter := repouser.ProfileFilter{}
	if raw := strings.TrimSpace(f.Role); raw != "" {
		r, err := user.ParseRole(raw)
		if err != nil {
			return nil, invalid("profile.list", err.Error())
		}
		filter.Roles = []user.Role{r}
	}
	switch strings.ToLower(strings.TrimSpace(f.Archived)) {
	case "":
	case "include":
		filter.IncludeArchived = true
	case "only":
		filter.OnlyArchived = true
	default:
		return nil, invalid("profile.list", "archived must be include or only")
	}
	out, err := s.profiles.List(dbctx.Context{Ctx: ctx}, filter)
	if err != nil {
		return nil, internal("profile.list", err)
	}
	return out, nil
}

func (s *profileService) Approve(ctx context.Context, userID uuid.UUID, role string, curriculumID *uuid.UUID) (*user.Profile, error) {
	c, err := requireAdmin(ctx, "profile.approve")
	if err != nil {
		return nil, err
	}
	r, err := user.ParseRole(role)
	if err != nil {
		return nil, invalid("profile.approve", err.Error())
	}
	p, err := s.agg.Approve(ctx, domainagg.ApproveInput{ActorID: c.ID, UserID: userID, Role: r, CurriculumID: curriculumID})
	if err != nil {
		return nil, err
	}
	s.dropBoard(ctx, userID)
	return p, nil
}

func (s *profileService) AssignCurriculum(ctx context.Context, userID uuid.UUID, setID *uuid.UUID) (*user.Profile, error) {
	if _, err := requireAdmin(ctx, "profile.assign_curriculum"); err != nil {
		return nil, err
	}
	return s.agg.AssignCurriculum(ctx, userID, setID)
}

func (s *profileService) ReplaceParentLinks(ctx context.Context, parentID uuid.UUID, studentIDs []uuid.UUID) ([]*user.ParentStudentLink, error) {
	if _, err := requireAdmin(ctx, "profile.replace_parent_links"); err != nil {
		return nil, err
	}
	return s.agg.ReplaceParentLinks(ctx, parentID, studentIDs)
}

func (s *profileService) SetArchived(ctx context.Context, userID uuid.UUID, archived bool) (*user.Profile, error) {
	if _, err := requireAdmin(ctx, "profile.archive"); err != nil {
		return nil, err
	}
	return s.agg.SetArchived(ctx, userID, archived)
}

func (s *profileService) UpdateContact(ctx context.Context, userID uuid.UUID, name, phone *string) (*user.Profile, error) {
	if _, err := requireAdmin(ctx, "profile.update_contact"); err != nil {
		return nil, err
	}
	return s.agg.UpdateContact(ctx, domainagg.UpdateContactInput{UserID: userID, Name: name, Phone: phone})
}

func (s *profileService) Delete(ctx context.Context, userID uuid.UUID) error {
	c, err := requireAdmin(ctx, "profile.delete")
	if err != nil {
		return err
	}
	if c.ID == userID {
		return forbidden("profile.delete", "admins cannot delete themselves")
	}
	if err := s.agg.Delete(ctx, userID); err != nil {
		return err
	}
	s.dropBoard(ctx, userID)
	return nil
}

func (s *profileService) dropBoard(ctx context.Context, userID uuid.UUID) {
	if s.boards == nil {
		return
	}
	if err := s.boards.Delete(ctx, cache.BoardKey(userID)); err != nil {
		s.log.Warn("board cache invalidation failed", "user_id", userID, "error", err)
	}
}
