// Package cached 提供仓储的读缓存装饰器。
//
// 只缓存按主键的单实体读取（Get）。缓存层故障一律降级为直查数据库，
// 只记录告警；按主键的写操作即时失效对应缓存项，按规约的批量写
// 无法枚举受影响主键，一致性由 TTL 兜底。
package cached

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"repokit/cache"
	"repokit/data/orm/repo"
	"repokit/domain/spec"
	"repokit/logging"
)

// DefaultTTL 默认缓存时长。
const DefaultTTL = 5 * time.Minute

// Repo 缓存装饰器。未覆盖的方法直接透传内层仓储。
type Repo[T any, ID comparable] struct {
	*repo.Repo[T, ID]

	store  cache.IStore
	ttl    time.Duration
	logger logging.Logger
}

// Option 配置缓存装饰器。
type Option[T any, ID comparable] func(*Repo[T, ID])

// WithTTL 指定缓存时长。
func WithTTL[T any, ID comparable](ttl time.Duration) Option[T, ID] {
	return func(r *Repo[T, ID]) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithLogger 指定日志器。
func WithLogger[T any, ID comparable](logger logging.Logger) Option[T, ID] {
	return func(r *Repo[T, ID]) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New 包装内层仓储。
func New[T any, ID comparable](inner *repo.Repo[T, ID], store cache.IStore, opts ...Option[T, ID]) *Repo[T, ID] {
	r := &Repo[T, ID]{
		Repo:   inner,
		store:  store,
		ttl:    DefaultTTL,
		logger: logging.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repo[T, ID]) cacheKey(id ID) string {
	return fmt.Sprintf("%s:%v", r.EntityName(), id)
}

// Get 优先读缓存，未命中回源并写缓存。
func (r *Repo[T, ID]) Get(ctx context.Context, id ID) (*T, error) {
	key := r.cacheKey(id)

	payload, found, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warn(ctx, "cache get failed, falling back to database",
			logging.String("key", key), logging.Error(err))
	} else if found {
		e := new(T)
		if err := json.Unmarshal(payload, e); err == nil {
			return e, nil
		}
		// 反序列化失败视为脏数据，删掉重建
		r.invalidate(ctx, id)
	}

	e, err := r.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(e); err == nil {
		if err := r.store.Set(ctx, key, payload, r.ttl); err != nil {
			r.logger.Warn(ctx, "cache set failed",
				logging.String("key", key), logging.Error(err))
		}
	}
	return e, nil
}

// Exists 缓存命中即视为存在，未命中回源但不回填。
func (r *Repo[T, ID]) Exists(ctx context.Context, id ID) (bool, error) {
	if _, found, err := r.store.Get(ctx, r.cacheKey(id)); err == nil && found {
		return true, nil
	}
	return r.Repo.Exists(ctx, id)
}

// invalidate 删除主键对应的缓存项，失败只告警。
func (r *Repo[T, ID]) invalidate(ctx context.Context, ids ...ID) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.cacheKey(id)
	}
	if err := r.store.Delete(ctx, keys...); err != nil {
		r.logger.Warn(ctx, "cache invalidation failed",
			logging.Any("keys", keys), logging.Error(err))
	}
}

func (r *Repo[T, ID]) Update(ctx context.Context, e *T) error {
	if err := r.Repo.Update(ctx, e); err != nil {
		return err
	}
	r.invalidate(ctx, r.EntityID(e))
	return nil
}

func (r *Repo[T, ID]) UpdateFields(ctx context.Context, id ID, values map[string]any) error {
	if err := r.Repo.UpdateFields(ctx, id, values); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *Repo[T, ID]) UpdateAll(ctx context.Context, entities []*T) error {
	if err := r.Repo.UpdateAll(ctx, entities); err != nil {
		return err
	}
	for _, e := range entities {
		r.invalidate(ctx, r.EntityID(e))
	}
	return nil
}

func (r *Repo[T, ID]) TryUpdate(ctx context.Context, e *T) (bool, error) {
	ok, err := r.Repo.TryUpdate(ctx, e)
	if ok {
		r.invalidate(ctx, r.EntityID(e))
	}
	return ok, err
}

func (r *Repo[T, ID]) Delete(ctx context.Context, id ID) error {
	if err := r.Repo.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *Repo[T, ID]) DeleteAll(ctx context.Context, ids []ID) error {
	if err := r.Repo.DeleteAll(ctx, ids); err != nil {
		return err
	}
	r.invalidate(ctx, ids...)
	return nil
}

func (r *Repo[T, ID]) TryDelete(ctx context.Context, id ID) (bool, error) {
	ok, err := r.Repo.TryDelete(ctx, id)
	if ok {
		r.invalidate(ctx, id)
	}
	return ok, err
}

func (r *Repo[T, ID]) HardDelete(ctx context.Context, id ID) error {
	if err := r.Repo.HardDelete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *Repo[T, ID]) Restore(ctx context.Context, id ID) (int64, error) {
	affected, err := r.Repo.Restore(ctx, id)
	if affected > 0 {
		r.invalidate(ctx, id)
	}
	return affected, err
}

// UpdateBySpec 透传批量更新；受影响主键无法枚举，相关缓存项等 TTL 过期。
func (r *Repo[T, ID]) UpdateBySpec(ctx context.Context, s *spec.Specification, values map[string]any) (int64, error) {
	return r.Repo.UpdateBySpec(ctx, s, values)
}
