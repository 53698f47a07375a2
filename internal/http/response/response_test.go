package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/greenlight-backend/internal/domain/aggregates"
	"github.com/yungbote/greenlight-backend/internal/services"
)

func serve(err error) (*httptest.ResponseRecorder, ErrorEnvelope) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondServiceError(c, err)
	var env ErrorEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestRespondServiceError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
		action string
	}{
		{domainagg.NewError(domainagg.CodeValidation, "op", "name is required", nil), http.StatusBadRequest, "validation", ""},
		{domainagg.NewError(domainagg.CodeNotFound, "op", "item not found", nil), http.StatusNotFound, "not_found", ""},
		{domainagg.NewError(domainagg.CodeForbidden, "op", "admin role required", nil), http.StatusForbidden, "forbidden", ""},
		{domainagg.NewError(domainagg.CodeConflict, "op", "changed concurrently", nil), http.StatusConflict, "conflict", ActionReload},
		{domainagg.NewError(domainagg.CodeInvariantViolation, "op", "leaf cannot have children", nil), http.StatusConflict, "invariant_violation", ActionReload},
		{fmt.Errorf("wrapped: %w", services.ErrUnauthenticated), http.StatusUnauthorized, "unauthorized", ActionSignIn},
	}
	for _, tc := range cases {
		rec, env := serve(tc.err)
		if rec.Code != tc.status {
			t.Fatalf("%v: status want=%d got=%d", tc.err, tc.status, rec.Code)
		}
		if env.Error.Code != tc.code {
			t.Fatalf("%v: code want=%q got=%q", tc.err, tc.code, env.Error.Code)
		}
		if env.Error.Action != tc.action {
			t.Fatalf("%v: action want=%q got=%q", tc.err, tc.action, env.Error.Action)
		}
	}
}

func TestRespondServiceError_HidesInternalCause(t *testing.T) {
	rec, env := serve(errors.New("pq: password authentication failed"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status want=500 got=%d", rec.Code)
	}
	if env.Error.Message != "internal error" {
		t.Fatalf("message leaked: %q", env.Error.Message)
	}
}

func TestRespondServiceError_UsesAggregateMessage(t *testing.T) {
	_, env := serve(domainagg.NewError(domainagg.CodeValidation, "curriculum.add_item", "name is required", nil))
	if env.Error.Message != "name is required" {
		t.Fatalf("message want=%q got=%q", "name is required", env.Error.Message)
	}
}
