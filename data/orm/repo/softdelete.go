package repo

import (
	"context"

	"repokit/domain/spec"
	"repokit/errors"
	"repokit/logging"
	"repokit/notify"
)

// softDeleteValues 软删除簿记列的赋值，标志位与删除时间必须同批写入。
func (r *Repo[T, ID]) softDeleteValues(deleted bool) map[string]any {
	at := r.advanceStamp()
	values := map[string]any{
		columnDeleted: deleted,
	}
	if deleted {
		values[columnDeletedAt] = at
	} else {
		values[columnDeletedAt] = nil
	}
	if r.acc.stamped {
		values[columnUpdatedAt] = at
	}
	return values
}

// Delete 软删除实体；实体类型不支持软删除时退化为物理删除。
// 目标行缺失或已软删除时返回未找到。
func (r *Repo[T, ID]) Delete(ctx context.Context, id ID) error {
	if !r.acc.soft {
		return r.HardDelete(ctx, id)
	}

	opts := append(r.buildOptions(nil, filterActive), r.idCondition(id))
	affected, err := r.model.UpdateValues(ctx, r.softDeleteValues(true), opts...)
	if err != nil {
		return r.wrapWrite(ctx, err, "delete")
	}
	if affected == 0 {
		return r.notFound(id)
	}

	r.publish(ctx, notify.ActionDeleted, id)
	return nil
}

// DeleteBySpec 按规约批量软删除，返回影响行数。
// nil 规约软删除全部活跃实体；不支持软删除的实体类型走物理删除。
func (r *Repo[T, ID]) DeleteBySpec(ctx context.Context, s *spec.Specification) (int64, error) {
	if !r.acc.soft {
		return r.HardDeleteBySpec(ctx, s)
	}

	opts := ensureWhere(r.buildOptions(s, filterActive))
	affected, err := r.model.UpdateValues(ctx, r.softDeleteValues(true), opts...)
	if err != nil {
		return 0, r.wrapWrite(ctx, err, "delete by spec")
	}

	r.logger.Debug(ctx, "entities soft-deleted by spec",
		logging.String("entity", r.name),
		logging.Int64("affected", affected))
	return affected, nil
}

// DeleteAll 批量软删除，在单个事务中执行，任一主键未命中整体回滚。
func (r *Repo[T, ID]) DeleteAll(ctx context.Context, ids []ID) error {
	if len(ids) == 0 {
		return nil
	}

	return r.WithTx(ctx, func(tx *Repo[T, ID]) error {
		for _, id := range ids {
			if err := tx.Delete(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// HardDelete 物理删除实体，绕过软删除簿记，软删行也会被移除。
func (r *Repo[T, ID]) HardDelete(ctx context.Context, id ID) error {
	opts := append(r.buildOptions(nil, filterAll), r.idCondition(id))
	affected, err := r.model.Delete(ctx, opts...)
	if err != nil {
		return r.wrapWrite(ctx, err, "hard delete")
	}
	if affected == 0 {
		return r.notFound(id)
	}

	r.publish(ctx, notify.ActionHardDeleted, id)
	return nil
}

// HardDeleteBySpec 按规约批量物理删除，返回影响行数。
// 作用于所有行（含软删行）；nil 规约清空整表，调用方自行把关。
func (r *Repo[T, ID]) HardDeleteBySpec(ctx context.Context, s *spec.Specification) (int64, error) {
	opts := ensureWhere(r.buildOptions(s, filterAll))
	affected, err := r.model.Delete(ctx, opts...)
	if err != nil {
		return 0, r.wrapWrite(ctx, err, "hard delete by spec")
	}

	r.logger.Debug(ctx, "entities hard-deleted by spec",
		logging.String("entity", r.name),
		logging.Int64("affected", affected))
	return affected, nil
}

// Restore 恢复软删除的实体，返回影响行数。
// 对活跃实体恢复是幂等操作，影响行数为 0 且不报错；
// 实体不存在时同样返回 0，调用方可按需区分。
func (r *Repo[T, ID]) Restore(ctx context.Context, id ID) (int64, error) {
	if !r.acc.soft {
		return 0, errors.NewError(errors.ErrCodeInvalidState,
			r.name+" does not support soft delete")
	}

	opts := append(r.buildOptions(nil, filterDeleted), r.idCondition(id))
	affected, err := r.model.UpdateValues(ctx, r.softDeleteValues(false), opts...)
	if err != nil {
		return 0, r.wrapWrite(ctx, err, "restore")
	}
	if affected > 0 {
		r.publish(ctx, notify.ActionRestored, id)
	}
	return affected, nil
}
