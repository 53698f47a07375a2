package aggregates

import (
	"context"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/greenlight-backend/internal/domain/aggregates"
	"github.com/yungbote/greenlight-backend/internal/pkg/dbctx"
)

// TxRunner opens the transaction an aggregate write runs in.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct{ db *gorm.DB }

// NewGormTxRunner nests as a savepoint when db is already a transaction,
// which is how tests roll every write back.
func NewGormTxRunner(db *gorm.DB) TxRunner { return gormTxRunner{db: db} }

func (r gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "tx", "no database configured", nil)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if fn == nil {
			return nil
		}
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
