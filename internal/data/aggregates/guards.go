package aggregates

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/greenlight-backend/internal/domain/user"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
)

// CASGuard applies compare-and-set updates inside aggregate transactions.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx == nil && g.db == nil {
		return nil, ValidationError("missing db transaction context")
	}
	return dbc.Resolve(g.db), nil
}

// UpdateIfMatch updates the row only while column still holds expected.
func (g CASGuard) UpdateIfMatch(dbc dbctx.Context, table string, id uuid.UUID, column string, expected any, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	column = strings.TrimSpace(column)
	if table == "" || column == "" || id == uuid.Nil {
		return false, ValidationError("table, column and id are required for UpdateIfMatch")
	}
	res := db.Table(table).
		Where(fmt.Sprintf("id = ? AND %s = ?", column), id, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireCASSuccess converts a failed compare-and-set into a typed conflict error.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}

// RequireRoleTransition rejects approvals outside the role transition table.
func RequireRoleTransition(from, to user.Role) error {
	if !to.Valid() {
		return ValidationError(fmt.Sprintf("unknown role %q", to))
	}
	if !user.CanTransition(from, to) {
		return ConflictError(fmt.Sprintf("role change %s -> %s is not allowed", from, to))
	}
	return nil
}
