package aggregates

import (
	"context"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/greenlight-backend/internal/domain/aggregates"
	"github.com/yungbote/greenlight-backend/internal/pkg/ctxutil"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

// BaseDeps is shared by every aggregate. Zero fields fall back to a GORM
// runner and guard on DB and to metrics-free hooks.
type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
}

func (d BaseDeps) resolved() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = NewObservabilityHooks(nil)
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	return d
}

// executeWrite runs fn in one transaction and reports the outcome under op.
// The returned error always carries a domain code.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.resolved()
	start := time.Now()

	err := MapError(op, deps.Runner.InTx(ctx, fn))
	status := outcomeStatus(err)
	deps.Hooks.ObserveOperation(op, status, time.Since(start))

	if err == nil {
		return nil
	}
	switch domainagg.CodeOf(err) {
	case domainagg.CodeConflict:
		deps.Hooks.IncConflict(op)
	case domainagg.CodeRetryable:
		deps.Hooks.IncRetry(op)
	}
	if deps.Log != nil {
		fields := []any{"op", op, "code", status, "caller", ctxutil.CallerID(ctx), "error", err}
		if status == string(domainagg.CodeInternal) {
			deps.Log.Error("write failed", fields...)
		} else {
			deps.Log.Debug("write refused", fields...)
		}
	}
	return err
}

func outcomeStatus(err error) string {
	if err == nil {
		return "success"
	}
	if code := domainagg.CodeOf(MapError("", err)); code != "" {
		return string(code)
	}
	return string(domainagg.CodeInternal)
}
