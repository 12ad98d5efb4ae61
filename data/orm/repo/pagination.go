package repo

import (
	"context"

	"repokit/data/orm"
	"repokit/domain/spec"
	"repokit/errors"
)

// ListPage 分页查询，返回结果信封。
//
// 分页参数在访问数据库前校验；总数统计忽略分页但应用过滤，
// 超出末页的页码返回空页而非错误。
func (r *Repo[T, ID]) ListPage(ctx context.Context, p *spec.PageSpec) (*spec.PagedResult[T], error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var s *spec.Specification
	if p.Specification != nil {
		s = p.Specification
	}

	total, err := r.model.Count(ctx, r.buildOptions(s, filterActive)...)
	if err != nil {
		return nil, errors.WrapDbError(ctx, err, r.name+" page count")
	}

	result := &spec.PagedResult[T]{
		Items:      []*T{},
		Total:      total,
		Page:       p.Page,
		Size:       p.Size,
		TotalPages: spec.TotalPages(total, p.Size),
	}
	if total == 0 || p.Offset() >= int(total) {
		return result, nil
	}

	opts := append(r.buildOptions(s, filterActive),
		orm.WithLimit(p.Size),
		orm.WithOffset(p.Offset()))

	var items []*T
	if err := r.model.Find(ctx, &items, opts...); err != nil {
		return nil, errors.WrapDbError(ctx, err, r.name+" page list")
	}
	result.Items = items
	return result, nil
}
