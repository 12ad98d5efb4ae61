package repo

import (
	"context"
	"database/sql"

	"repokit/errors"
	"repokit/logging"
)

// WithTx 在单个事务中执行 fn。
// fn 返回错误或发生 panic 时整体回滚，panic 原样向上抛出。
func (r *Repo[T, ID]) WithTx(ctx context.Context, fn func(tx *Repo[T, ID]) error) error {
	return r.WithTxOptions(ctx, nil, fn)
}

// WithTxOptions 与 WithTx 相同，支持指定事务隔离级别等选项。
func (r *Repo[T, ID]) WithTxOptions(ctx context.Context, opts *sql.TxOptions, fn func(tx *Repo[T, ID]) error) error {
	if fn == nil {
		return errors.NewError(errors.ErrCodeInvalidInput, "transaction function cannot be nil")
	}

	session, err := r.orm.BeginTx(ctx, opts)
	if err != nil {
		return errors.WrapDbError(ctx, err, r.name+" begin tx")
	}

	done := false
	defer func() {
		if done {
			return
		}
		// fn panic 时走到这里
		if rbErr := session.Rollback(); rbErr != nil {
			r.logger.Error(ctx, "rollback after panic failed",
				logging.String("entity", r.name),
				logging.Error(rbErr))
		}
	}()

	if err := fn(r.withSession(session)); err != nil {
		done = true
		if rbErr := session.Rollback(); rbErr != nil {
			r.logger.Error(ctx, "rollback failed",
				logging.String("entity", r.name),
				logging.Error(rbErr))
		}
		return err
	}

	done = true
	if err := session.Commit(); err != nil {
		return errors.WrapDbError(ctx, err, r.name+" commit tx")
	}
	return nil
}
