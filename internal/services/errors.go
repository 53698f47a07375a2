package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/greenlight-backend/internal/domain/aggregates"
	"github.com/yungbote/greenlight-backend/internal/domain/user"
	"github.com/yungbote/greenlight-backend/internal/pkg/ctxutil"
)

// ErrUnauthenticated is returned when a request carries no verified caller.
var ErrUnauthenticated = errors.New("unauthenticated")

func invalid(op, msg string) error {
	return domainagg.NewError(domainagg.CodeValidation, op, msg, nil)
}

func forbidden(op, msg string) error {
	return domainagg.NewError(domainagg.CodeForbidden, op, msg, nil)
}

func notFound(op, msg string) error {
	return domainagg.NewError(domainagg.CodeNotFound, op, msg, nil)
}

func internal(op string, err error) error {
	if err == nil {
		return nil
	}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		return err
	}
	return domainagg.Wrap(domainagg.CodeInternal, op, err)
}

// Caller is the authenticated user behind a request.
type Caller struct {
	ID   uuid.UUID
	Role user.Role
}

func (c Caller) Permissions() user.Permissions { return user.PermissionsFor(c.Role) }

func (c Caller) IsAdmin() bool { return c.Role == user.RoleAdmin }

func callerFrom(ctx context.Context) (Caller, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return Caller{}, ErrUnauthenticated
	}
	return Caller{ID: rd.UserID, Role: user.Role(rd.Role)}, nil
}

func requireAdmin(ctx context.Context, op string) (Caller, error) {
	c, err := callerFrom(ctx)
	if err != nil {
		return Caller{}, err
	}
	if !c.IsAdmin() {
		return Caller{}, forbidden(op, "admin role required")
	}
	return c, nil
}
