package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type (
	requestDataKey struct{}
	requestMetaKey struct{}
)

// RequestData carries the authenticated caller for the lifetime of a request.
type RequestData struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Role   string
}

// RequestMeta identifies one HTTP exchange in logs and traces.
type RequestMeta struct {
	RequestID string
	TraceID   string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(orBackground(ctx), requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	rd, _ := ctx.Value(requestDataKey{}).(*RequestData)
	return rd
}

func WithRequestMeta(ctx context.Context, m *RequestMeta) context.Context {
	return context.WithValue(orBackground(ctx), requestMetaKey{}, m)
}

func GetRequestMeta(ctx context.Context) *RequestMeta {
	if ctx == nil {
		return nil
	}
	m, _ := ctx.Value(requestMetaKey{}).(*RequestMeta)
	return m
}

// CallerID returns the signed-in user, or uuid.Nil.
func CallerID(ctx context.Context) uuid.UUID {
	if rd := GetRequestData(ctx); rd != nil {
		return rd.UserID
	}
	return uuid.Nil
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
