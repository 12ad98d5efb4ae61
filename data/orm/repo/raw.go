package repo

import (
	"context"

	"repokit/errors"
)

// 原生 SQL 透传。语句按底层方言书写，占位符统一使用 ?，
// 由数据库层负责转换（如 Postgres 的 $n）。

// Exec 执行原生写语句，返回影响行数。
func (r *Repo[T, ID]) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := r.orm.Database().Exec(ctx, query, args...)
	if err != nil {
		return 0, r.wrapWrite(ctx, err, "exec raw")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.WrapDbError(ctx, err, r.name+" exec raw")
	}
	return affected, nil
}

// QueryRaw 执行原生查询并扫描为实体列表。
// 列映射复用适配器的模型元数据，未知列被忽略。
func (r *Repo[T, ID]) QueryRaw(ctx context.Context, query string, args ...any) ([]T, error) {
	rows, err := r.orm.Database().Query(ctx, query, args...)
	if err != nil {
		return nil, errors.WrapDbError(ctx, err, r.name+" query raw")
	}
	defer rows.Close()

	var items []T
	if err := r.orm.ScanRows(rows, &items); err != nil {
		return nil, errors.WrapDbError(ctx, err, r.name+" scan raw")
	}
	return items, nil
}

// QueryValue 执行原生单值查询（如聚合统计），结果扫描到 dest。
func (r *Repo[T, ID]) QueryValue(ctx context.Context, dest any, query string, args ...any) error {
	row := r.orm.Database().QueryRow(ctx, query, args...)
	if err := row.Scan(dest); err != nil {
		return errors.WrapDbError(ctx, err, r.name+" query value")
	}
	return nil
}
