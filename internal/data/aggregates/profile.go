package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/greenlight-backend/internal/data/repos"
	domainagg "github.com/yungbote/greenlight-backend/internal/domain/aggregates"
	"github.com/yungbote/greenlight-backend/internal/domain/user"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
)

type ProfileAggregateDeps struct {
	Profiles repos.ProfileRepo
	Links    repos.ParentLinkRepo
	Sets     repos.CurriculumSetRepo
	Progress repos.ProgressRepo
	Memos    repos.MemoRepo
}

type profileAggregate struct {
	base BaseDeps
	deps ProfileAggregateDeps
}

func NewProfileAggregate(base BaseDeps, deps ProfileAggregateDeps) domainagg.ProfileAggregate {
	if base.Log != nil {
		base.Log = base.Log.With("aggregate", "ProfileAggregate")
	}
	return &profileAggregate{base: base.resolved(), deps: deps}
}

func (a *profileAggregate) Contract() domainagg.Contract {
	return domainagg.Contract{
		Name:             "profile",
		WriteTxOwnership: domainagg.WriteTxOwnedByAggregate,
		Notes:            "role transitions, link replacement and profile removal commit atomically",
	}
}

func nullableID(id *uuid.UUID) any {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return *id
}

// Approve moves the profile along the role transition table and cleans up
// whatever the previous role owned.
func (a *profileAggregate) Approve(ctx context.Context, in domainagg.ApproveInput) (*user.Profile, error) {
	var out *user.Profile
	err := executeWrite(ctx, a.base, "profile.approve", func(dbc dbctx.Context) error {
		p, err := a.lockProfile(dbc, in.UserID)
		if err != nil {
			return err
		}
		if err := RequireRoleTransition(p.Role, in.Role); err != nil {
			return err
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"role":        string(in.Role),
			"approved_at": now,
			"approved_by": nullableID(&in.ActorID),
			"updated_at":  now,
		}
		switch in.Role {
		case user.RoleStudent:
			if in.CurriculumID != nil {
				if _, err := a.requireSet(dbc, *in.CurriculumID); err != nil {
					return err
				}
			}
			updates["curriculum_id"] = nullableID(in.CurriculumID)
			updates["linked_student_id"] = nil
			if err := a.deps.Links.DeleteByParentID(dbc, p.ID); err != nil {
				return fmt.Errorf("drop parent links: %w", err)
			}
		case user.RoleParent:
			if in.CurriculumID != nil {
				return ValidationError("parents cannot be assigned a curriculum")
			}
			updates["curriculum_id"] = nil
			if err := a.deps.Links.DeleteByStudentID(dbc, p.ID); err != nil {
				return fmt.Errorf("drop student links: %w", err)
			}
			if err := a.deps.Profiles.ClearLinkedStudent(dbc, p.ID); err != nil {
				return err
			}
		}

		ok, err := a.base.CASGuard.UpdateIfMatch(dbc, "profiles", p.ID, "role", string(p.Role), updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "profile role changed concurrently"); err != nil {
			return err
		}
		out, err = a.deps.Profiles.GetByID(dbc, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AssignCurriculum sets or clears (setID nil) a student's curriculum.
func (a *profileAggregate) AssignCurriculum(ctx context.Context, userID uuid.UUID, setID *uuid.UUID) (*user.Profile, error) {
	var out *user.Profile
	err := executeWrite(ctx, a.base, "profile.assign_curriculum", func(dbc dbctx.Context) error {
		p, err := a.lockProfile(dbc, userID)
		if err != nil {
			return err
		}
		if p.Role != user.RoleStudent {
			return InvariantError("curriculum can only be assigned to students")
		}
		if setID != nil {
			if _, err := a.requireSet(dbc, *setID); err != nil {
				return err
			}
		}
		if err := a.deps.Profiles.UpdateFields(dbc, p.ID, map[string]interface{}{"curriculum_id": nullableID(setID)}); err != nil {
			return err
		}
		out, err = a.deps.Profiles.GetByID(dbc, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceParentLinks makes studentIDs the complete set of the parent's
// children. An empty list removes every link.
func (a *profileAggregate) ReplaceParentLinks(ctx context.Context, parentID uuid.UUID, studentIDs []uuid.UUID) ([]*user.ParentStudentLink, error) {
	var out []*user.ParentStudentLink
	err := executeWrite(ctx, a.base, "profile.replace_parent_links", func(dbc dbctx.Context) error {
		parent, err := a.lockProfile(dbc, parentID)
		if err != nil {
			return err
		}
		if parent.Role != user.RoleParent {
			return InvariantError("links can only be set on parent profiles")
		}

		ids := dedupeIDs(studentIDs)
		if len(ids) > 0 {
			students, err := a.deps.Profiles.GetByIDs(dbc, ids)
			if err != nil {
				return err
			}
			byID := make(map[uuid.UUID]*user.Profile, len(students))
			for _, s := range students {
				byID[s.ID] = s
			}
			for _, id := range ids {
				s, ok := byID[id]
				if !ok {
					return NotFoundError(fmt.Sprintf("student %s not found", id))
				}
				if s.Role != user.RoleStudent {
					return InvariantError(fmt.Sprintf("profile %s is not a student", id))
				}
			}
		}

		if err := a.deps.Links.DeleteByParentID(dbc, parent.ID); err != nil {
			return fmt.Errorf("clear links: %w", err)
		}
		rows := make([]*user.ParentStudentLink, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, &user.ParentStudentLink{ParentID: parent.ID, StudentID: id})
		}
		out, err = a.deps.Links.Create(dbc, rows)
		if err != nil {
			return err
		}

		var legacy *uuid.UUID
		if len(ids) > 0 {
			legacy = &ids[0]
		}
		return a.deps.Profiles.UpdateFields(dbc, parent.ID, map[string]interface{}{"linked_student_id": nullableID(legacy)})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func dedupeIDs(in []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(in))
	out := make([]uuid.UUID, 0, len(in))
	for _, id := range in {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (a *profileAggregate) SetArchived(ctx context.Context, userID uuid.UUID, archived bool) (*user.Profile, error) {
	op := "profile.unarchive"
	if archived {
		op = "profile.archive"
	}
	var out *user.Profile
	err := executeWrite(ctx, a.base, op, func(dbc dbctx.Context) error {
		p, err := a.lockProfile(dbc, userID)
		if err != nil {
			return err
		}
		if p.Role == user.RoleAdmin {
			return ForbiddenError("admin profiles cannot be archived")
		}
		var archivedAt any
		if archived {
			archivedAt = time.Now().UTC()
		}
		if err := a.deps.Profiles.UpdateFields(dbc, p.ID, map[string]interface{}{
			"is_archived": archived,
			"archived_at": archivedAt,
		}); err != nil {
			return err
		}
		out, err = a.deps.Profiles.GetByID(dbc, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateContact changes the display name and/or phone. A blank phone clears it.
func (a *profileAggregate) UpdateContact(ctx context.Context, in domainagg.UpdateContactInput) (*user.Profile, error) {
	var out *user.Profile
	err := executeWrite(ctx, a.base, "profile.update_contact", func(dbc dbctx.Context) error {
		if in.Name == nil && in.Phone == nil {
			return ValidationError("nothing to update")
		}
		updates := map[string]interface{}{}
		if in.Name != nil {
			name, err := cleanName(*in.Name)
			if err != nil {
				return err
			}
			updates["name"] = name
		}
		if in.Phone != nil {
			if phone := strings.TrimSpace(*in.Phone); phone != "" {
				updates["phone"] = phone
			} else {
				updates["phone"] = nil
			}
		}
		p, err := a.lockProfile(dbc, in.UserID)
		if err != nil {
			return err
		}
		if err := a.deps.Profiles.UpdateFields(dbc, p.ID, updates); err != nil {
			return err
		}
		out, err = a.deps.Profiles.GetByID(dbc, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the profile with its memos, progress and links on both sides.
func (a *profileAggregate) Delete(ctx context.Context, userID uuid.UUID) error {
	return executeWrite(ctx, a.base, "profile.delete", func(dbc dbctx.Context) error {
		p, err := a.lockProfile(dbc, userID)
		if err != nil {
			return err
		}
		if p.Role == user.RoleAdmin {
			return ForbiddenError("admin profiles cannot be deleted")
		}
		if err := a.deps.Memos.DeleteByUserID(dbc, p.ID); err != nil {
			return fmt.Errorf("delete memos: %w", err)
		}
		if err := a.deps.Progress.DeleteByUserID(dbc, p.ID); err != nil {
			return fmt.Errorf("delete progress: %w", err)
		}
		if err := a.deps.Links.DeleteByParentID(dbc, p.ID); err != nil {
			return fmt.Errorf("delete parent links: %w", err)
		}
		if err := a.deps.Links.DeleteByStudentID(dbc, p.ID); err != nil {
			return fmt.Errorf("delete student links: %w", err)
		}
		if err := a.deps.Profiles.ClearLinkedStudent(dbc, p.ID); err != nil {
			return err
		}
		return a.deps.Profiles.DeleteByID(dbc, p.ID)
	})
}

func (a *profileAggregate) lockProfile(dbc dbctx.Context, id uuid.UUID) (*user.Profile, error) {
	p, err := a.deps.Profiles.GetByIDForUpdate(dbc, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, NotFoundError("profile not found")
	}
	return p, nil
}

func (a *profileAggregate) requireSet(dbc dbctx.Context, id uuid.UUID) (*uuid.UUID, error) {
	set, err := a.deps.Sets.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, NotFoundError("curriculum set not found")
	}
	return &set.ID, nil
}
