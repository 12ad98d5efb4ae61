package repo

import (
	"context"

	"repokit/errors"
	"repokit/logging"
)

// Try 变体只把“持久化冲突”折算为 false：
// 唯一键/主键冲突与并发冲突是业务可预期的失败，
// 其余错误（连接失败、校验失败、编程错误）原样传播。

// TryAdd 尝试新增；持久化冲突时返回 (false, nil)。
func (r *Repo[T, ID]) TryAdd(ctx context.Context, e *T) (bool, error) {
	err := r.Add(ctx, e)
	if err == nil {
		return true, nil
	}
	if errors.IsConflict(err) {
		r.logger.Warn(ctx, "add skipped on conflict",
			logging.String("entity", r.name),
			logging.Error(err))
		return false, nil
	}
	return false, err
}

// TryUpdate 尝试更新；持久化冲突时返回 (false, nil)。
func (r *Repo[T, ID]) TryUpdate(ctx context.Context, e *T) (bool, error) {
	err := r.Update(ctx, e)
	if err == nil {
		return true, nil
	}
	if errors.IsConflict(err) {
		r.logger.Warn(ctx, "update skipped on conflict",
			logging.String("entity", r.name),
			logging.Error(err))
		return false, nil
	}
	return false, err
}

// TryDelete 尝试软删除；目标不存在（或已删除）时返回 (false, nil)。
func (r *Repo[T, ID]) TryDelete(ctx context.Context, id ID) (bool, error) {
	err := r.Delete(ctx, id)
	if err == nil {
		return true, nil
	}
	if errors.IsNotFound(err) {
		return false, nil
	}
	return false, err
}
