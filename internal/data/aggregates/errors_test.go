package aggregates

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/greenlight-backend/internal/domain/aggregates"
)

func TestMapError_Codes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domainagg.ErrorCode
	}{
		{"validation", ValidationError("name is required"), domainagg.CodeValidation},
		{"not found sentinel", NotFoundError("item missing"), domainagg.CodeNotFound},
		{"gorm not found", gorm.ErrRecordNotFound, domainagg.CodeNotFound},
		{"invariant", InvariantError("leaf cannot have children"), domainagg.CodeInvariantViolation},
		{"conflict", ConflictError("order changed"), domainagg.CodeConflict},
		{"forbidden", ForbiddenError("admins cannot be deleted"), domainagg.CodeForbidden},
		{"pg unique", &pgconn.PgError{Code: "23505"}, domainagg.CodeConflict},
		{"pg fk", &pgconn.PgError{Code: "23503"}, domainagg.CodePreconditionFailed},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, domainagg.CodeRetryable},
		{"sqlite unique", errors.New("UNIQUE constraint failed: parent_student_links.parent_id"), domainagg.CodeConflict},
		{"unknown", errors.New("boom"), domainagg.CodeInternal},
	}
	for _, tc := range cases {
		err := MapError("curriculum.test", tc.err)
		if !domainagg.IsCode(err, tc.want) {
			t.Fatalf("%s: want=%s got=%q (%v)", tc.name, tc.want, domainagg.CodeOf(err), err)
		}
	}
}

func TestMapError_PassthroughAggregateError(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeForbidden, "op", "nope", nil)
	if out := MapError("other", in); out != in {
		t.Fatalf("expected passthrough aggregate error")
	}
	if MapError("op", nil) != nil {
		t.Fatalf("nil must map to nil")
	}
}
