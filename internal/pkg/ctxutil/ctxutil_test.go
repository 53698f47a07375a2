package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestRequestDataRoundTrip(t *testing.T) {
	id := uuid.New()
	ctx := WithRequestData(context.Background(), &RequestData{UserID: id, Role: "student"})
	rd := GetRequestData(ctx)
	if rd == nil || rd.UserID != id || rd.Role != "student" {
		t.Fatalf("GetRequestData: got=%+v", rd)
	}
	if CallerID(ctx) != id {
		t.Fatalf("CallerID: got=%s", CallerID(ctx))
	}
	if GetRequestData(context.Background()) != nil || CallerID(context.Background()) != uuid.Nil {
		t.Fatalf("expected no caller on bare context")
	}
}

func TestRequestMetaOnNilContext(t *testing.T) {
	//nolint:staticcheck // nil context is accepted on purpose
	ctx := WithRequestMeta(nil, &RequestMeta{TraceID: "t", RequestID: "r"})
	m := GetRequestMeta(ctx)
	if m == nil || m.TraceID != "t" || m.RequestID != "r" {
		t.Fatalf("GetRequestMeta: got=%+v", m)
	}
}
