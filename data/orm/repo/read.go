package repo

import (
	"context"
	stderrors "errors"

	"repokit/data/orm"
	"repokit/domain/spec"
	"repokit/errors"
)

// Get 通过 ID 获取未删除的实体。
func (r *Repo[T, ID]) Get(ctx context.Context, id ID) (*T, error) {
	opts := append(r.buildOptions(nil, filterActive), r.idCondition(id))

	e := new(T)
	if err := r.model.First(ctx, e, opts...); err != nil {
		if stderrors.Is(err, orm.ErrNotFound) {
			return nil, r.notFound(id)
		}
		return nil, errors.WrapDbError(ctx, err, r.name+" get")
	}
	return e, nil
}

// GetBySpec 按规约查询单个实体。
// 单实体查询的 nil 规约几乎总是调用方的笔误，按参数错误拒绝。
func (r *Repo[T, ID]) GetBySpec(ctx context.Context, s *spec.Specification) (*T, error) {
	if s == nil {
		return nil, errors.NewError(errors.ErrCodeInvalidInput,
			"specification cannot be nil for single-entity query")
	}

	e := new(T)
	if err := r.model.First(ctx, e, r.buildOptions(s, filterActive)...); err != nil {
		if stderrors.Is(err, orm.ErrNotFound) {
			return nil, r.notFound("by specification")
		}
		return nil, errors.WrapDbError(ctx, err, r.name+" get by spec")
	}
	return e, nil
}

// GetList 按规约查询未删除实体列表；nil 规约返回全部活跃实体。
func (r *Repo[T, ID]) GetList(ctx context.Context, s *spec.Specification) ([]T, error) {
	var items []T
	if err := r.model.Find(ctx, &items, r.buildOptions(s, filterActive)...); err != nil {
		return nil, errors.WrapDbError(ctx, err, r.name+" list by spec")
	}
	return items, nil
}

// GetWithDeleted 通过 ID 获取实体，不过滤软删除状态。
func (r *Repo[T, ID]) GetWithDeleted(ctx context.Context, id ID) (*T, error) {
	opts := append(r.buildOptions(nil, filterAll), r.idCondition(id))

	e := new(T)
	if err := r.model.First(ctx, e, opts...); err != nil {
		if stderrors.Is(err, orm.ErrNotFound) {
			return nil, r.notFound(id)
		}
		return nil, errors.WrapDbError(ctx, err, r.name+" get with deleted")
	}
	return e, nil
}

// ListWithDeleted 按规约查询实体列表，活跃行与软删行都包含在内。
func (r *Repo[T, ID]) ListWithDeleted(ctx context.Context, s *spec.Specification) ([]T, error) {
	var items []T
	if err := r.model.Find(ctx, &items, r.buildOptions(s, filterAll)...); err != nil {
		return nil, errors.WrapDbError(ctx, err, r.name+" list with deleted")
	}
	return items, nil
}

// ListDeleted 按规约查询已软删除的实体。
// 实体不支持软删除时恒为空列表。
func (r *Repo[T, ID]) ListDeleted(ctx context.Context, s *spec.Specification) ([]T, error) {
	if !r.acc.soft {
		return nil, nil
	}
	var items []T
	if err := r.model.Find(ctx, &items, r.buildOptions(s, filterDeleted)...); err != nil {
		return nil, errors.WrapDbError(ctx, err, r.name+" list deleted")
	}
	return items, nil
}

// List 偏移/限制列表查询。limit 为 0 表示不限制。
func (r *Repo[T, ID]) List(ctx context.Context, offset, limit int) ([]T, error) {
	if offset < 0 || limit < 0 {
		return nil, errors.NewError(errors.ErrCodeInvalidInput,
			"offset and limit must be non-negative")
	}

	opts := r.buildOptions(nil, filterActive)
	if limit > 0 {
		opts = append(opts, orm.WithLimit(limit))
	}
	if offset > 0 {
		opts = append(opts, orm.WithOffset(offset))
	}

	var items []T
	if err := r.model.Find(ctx, &items, opts...); err != nil {
		return nil, errors.WrapDbError(ctx, err, r.name+" list")
	}
	return items, nil
}

// ListByIDs 按主键集合查询未删除实体；空集合返回空列表。
// 结果顺序由数据库决定，不保证与入参一致。
func (r *Repo[T, ID]) ListByIDs(ctx context.Context, ids []ID) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return r.GetList(ctx, spec.New().In(columnID, values...))
}

// Exists 检查未删除实体是否存在。
func (r *Repo[T, ID]) Exists(ctx context.Context, id ID) (bool, error) {
	opts := append(r.buildOptions(nil, filterActive), r.idCondition(id))
	total, err := r.model.Count(ctx, opts...)
	if err != nil {
		return false, errors.WrapDbError(ctx, err, r.name+" exists")
	}
	return total > 0, nil
}

// ExistsBySpec 按规约检查存在性；nil 规约等价于“是否存在任何活跃实体”。
func (r *Repo[T, ID]) ExistsBySpec(ctx context.Context, s *spec.Specification) (bool, error) {
	total, err := r.model.Count(ctx, r.buildOptions(s, filterActive)...)
	if err != nil {
		return false, errors.WrapDbError(ctx, err, r.name+" exists by spec")
	}
	return total > 0, nil
}

// Count 统计未删除实体总数。
func (r *Repo[T, ID]) Count(ctx context.Context) (int64, error) {
	return r.CountBySpec(ctx, nil)
}

// CountBySpec 按规约统计；nil 规约统计全部活跃实体。
func (r *Repo[T, ID]) CountBySpec(ctx context.Context, s *spec.Specification) (int64, error) {
	total, err := r.model.Count(ctx, r.buildOptions(s, filterActive)...)
	if err != nil {
		return 0, errors.WrapDbError(ctx, err, r.name+" count")
	}
	return total, nil
}
