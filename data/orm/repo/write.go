package repo

import (
	"context"
	"fmt"

	"repokit/domain/spec"
	"repokit/errors"
	"repokit/logging"
	"repokit/notify"
)

// lifecycleColumns 由仓储专管的列，按列批量更新不得直接触碰。
var lifecycleColumns = map[string]bool{
	columnID:        true,
	columnCreatedAt: true,
	columnDeleted:   true,
	columnDeletedAt: true,
}

// Add 新增实体。
// 零值主键由生成器补齐；创建与更新时间戳在此处统一盖章。
func (r *Repo[T, ID]) Add(ctx context.Context, e *T) error {
	if e == nil {
		return errors.NewError(errors.ErrCodeInvalidInput, "entity cannot be nil")
	}
	if err := r.validateEntity(e); err != nil {
		return err
	}
	if err := r.ensureID(e); err != nil {
		return err
	}
	r.stampCreate(e, r.now())

	if err := r.model.Create(ctx, e); err != nil {
		return r.wrapWrite(ctx, err, "add")
	}

	r.logger.Debug(ctx, "entity added",
		logging.String("entity", r.name),
		logging.Any("id", r.acc.getID(e)))
	r.publish(ctx, notify.ActionCreated, r.acc.getID(e))
	return nil
}

// AddAll 批量新增，单条语句写入，任一行失败整体失败。
func (r *Repo[T, ID]) AddAll(ctx context.Context, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}

	at := r.now()
	values := make([]any, 0, len(entities))
	for i, e := range entities {
		if e == nil {
			return errors.NewError(errors.ErrCodeInvalidInput,
				fmt.Sprintf("entity at index %d cannot be nil", i))
		}
		if err := r.validateEntity(e); err != nil {
			return err
		}
		if err := r.ensureID(e); err != nil {
			return err
		}
		r.stampCreate(e, at)
		values = append(values, e)
	}

	if err := r.model.Create(ctx, values...); err != nil {
		return r.wrapWrite(ctx, err, "add all")
	}

	r.logger.Debug(ctx, "entities added",
		logging.String("entity", r.name),
		logging.Int("count", len(entities)))
	for _, e := range entities {
		r.publish(ctx, notify.ActionCreated, r.acc.getID(e))
	}
	return nil
}

// Update 整体更新实体的全部业务列，并推进更新时间戳。
// 只更新活跃行；目标行缺失或已软删除时返回未找到。
func (r *Repo[T, ID]) Update(ctx context.Context, e *T) error {
	affected, err := r.updateOne(ctx, e)
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.notFound(r.acc.getID(e))
	}

	r.publish(ctx, notify.ActionUpdated, r.acc.getID(e))
	return nil
}

// updateOne 执行单实体更新，返回影响行数。
func (r *Repo[T, ID]) updateOne(ctx context.Context, e *T) (int64, error) {
	if e == nil {
		return 0, errors.NewError(errors.ErrCodeInvalidInput, "entity cannot be nil")
	}
	var zero ID
	id := r.acc.getID(e)
	if id == zero {
		return 0, errors.NewError(errors.ErrCodeInvalidState,
			fmt.Sprintf("%s update requires a non-zero id", r.name))
	}
	if err := r.validateEntity(e); err != nil {
		return 0, err
	}
	r.stampUpdate(e)

	opts := append(r.buildOptions(nil, filterActive), r.idCondition(id))
	affected, err := r.model.Save(ctx, e, opts...)
	if err != nil {
		return 0, r.wrapWrite(ctx, err, "update")
	}
	return affected, nil
}

// UpdateAll 批量整体更新，在单个事务中执行，任一实体失败整体回滚。
func (r *Repo[T, ID]) UpdateAll(ctx context.Context, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}

	return r.WithTx(ctx, func(tx *Repo[T, ID]) error {
		for i, e := range entities {
			affected, err := tx.updateOne(ctx, e)
			if err != nil {
				return err
			}
			if affected == 0 {
				return errors.NewError(errors.ErrCodeNotFound,
					fmt.Sprintf("%s at index %d not found: %v", r.name, i, tx.acc.getID(e)))
			}
		}
		return nil
	})
}

// UpdateFields 按主键部分更新指定列，同样推进更新时间戳。
// 目标行缺失或已软删除时返回未找到。
func (r *Repo[T, ID]) UpdateFields(ctx context.Context, id ID, values map[string]any) error {
	var zero ID
	if id == zero {
		return errors.NewError(errors.ErrCodeInvalidState,
			fmt.Sprintf("%s update requires a non-zero id", r.name))
	}
	if len(values) == 0 {
		return errors.NewError(errors.ErrCodeInvalidInput,
			"update values cannot be empty")
	}
	for column := range values {
		if lifecycleColumns[column] || column == columnUpdatedAt {
			return errors.NewError(errors.ErrCodeInvalidInput,
				fmt.Sprintf("column %q is repository-managed", column))
		}
	}

	stamped := make(map[string]any, len(values)+1)
	for column, value := range values {
		stamped[column] = value
	}
	if r.acc.stamped {
		stamped[columnUpdatedAt] = r.advanceStamp()
	}

	opts := append(r.buildOptions(nil, filterActive), r.idCondition(id))
	affected, err := r.model.UpdateValues(ctx, stamped, opts...)
	if err != nil {
		return r.wrapWrite(ctx, err, "update fields")
	}
	if affected == 0 {
		return r.notFound(id)
	}

	r.publish(ctx, notify.ActionUpdated, id)
	return nil
}

// UpdateBySpec 按规约批量更新指定列，返回影响行数。
// nil 规约更新全部活跃实体；生命周期列由仓储专管，不接受外部赋值。
func (r *Repo[T, ID]) UpdateBySpec(ctx context.Context, s *spec.Specification, values map[string]any) (int64, error) {
	if len(values) == 0 {
		return 0, errors.NewError(errors.ErrCodeInvalidInput,
			"update values cannot be empty")
	}
	for column := range values {
		if lifecycleColumns[column] || column == columnUpdatedAt {
			return 0, errors.NewError(errors.ErrCodeInvalidInput,
				fmt.Sprintf("column %q is repository-managed", column))
		}
	}

	stamped := make(map[string]any, len(values)+1)
	for column, value := range values {
		stamped[column] = value
	}
	if r.acc.stamped {
		stamped[columnUpdatedAt] = r.advanceStamp()
	}

	opts := ensureWhere(r.buildOptions(s, filterActive))
	affected, err := r.model.UpdateValues(ctx, stamped, opts...)
	if err != nil {
		return 0, r.wrapWrite(ctx, err, "update by spec")
	}

	r.logger.Debug(ctx, "entities updated by spec",
		logging.String("entity", r.name),
		logging.Int64("affected", affected))
	return affected, nil
}
