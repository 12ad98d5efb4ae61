package repo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	dbcore "repokit/data/db"
	basicdb "repokit/data/db/basic"
	"repokit/data/orm"
	basicorm "repokit/data/orm/basic"
	"repokit/domain/entity"
	"repokit/domain/spec"
	"repokit/errors"
	"repokit/idgen"
	"repokit/logging"
	"repokit/notify"
	"repokit/validation"
)

// account 测试实体
type account struct {
	entity.Entity
	Email string `db:"email"`
	Name  string `db:"name"`
	Score int    `db:"score"`
}

func (account) TableName() string { return "accounts" }

// Validate 邮箱必填，姓名不超过 64 字符
func (a *account) Validate() error {
	if err := validation.ValidateRequired(a.Email, "email"); err != nil {
		return err
	}
	return validation.ValidateStringLength(a.Name, "name", 0, 64)
}

// note 字符串主键测试实体
type note struct {
	entity.StringEntity
	Title string `db:"title"`
}

func (note) TableName() string { return "notes" }

// fakeClock 可控时间源
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// 测试辅助函数：创建测试数据库
func setupTestDB(t *testing.T) dbcore.IDatabase {
	t.Helper()

	db, err := basicdb.New(dbcore.Config{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	_, err = db.Exec(ctx, `
        CREATE TABLE accounts (
            id INTEGER PRIMARY KEY,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            deleted INTEGER NOT NULL DEFAULT 0,
            deleted_at DATETIME NULL,
            email TEXT NOT NULL UNIQUE,
            name TEXT NOT NULL,
            score INTEGER NOT NULL DEFAULT 0
        );
    `)
	require.NoError(t, err)
	_, err = db.Exec(ctx, `
        CREATE TABLE notes (
            id TEXT PRIMARY KEY,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            deleted INTEGER NOT NULL DEFAULT 0,
            deleted_at DATETIME NULL,
            title TEXT NOT NULL
        );
    `)
	require.NoError(t, err)
	return db
}

type testEnv struct {
	db        dbcore.IDatabase
	orm       orm.IOrm
	repo      *Repo[account, int64]
	clock     *fakeClock
	publisher *notify.MemoryPublisher
}

func setupRepo(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	o := basicorm.New(db)
	clock := newFakeClock()
	publisher := notify.NewMemoryPublisher()

	r, err := NewRepo[account, int64](o,
		WithIDGenerator[account, int64](idgen.Snowflake()),
		WithLogger[account, int64](logging.NewNoopLogger()),
		WithPublisher[account, int64](publisher),
		WithClock[account, int64](clock.Now),
	)
	require.NoError(t, err)
	require.Equal(t, "accounts", r.Table())
	require.True(t, r.SoftDeleteEnabled())

	return &testEnv{db: db, orm: o, repo: r, clock: clock, publisher: publisher}
}

func newAccount(email string, score int) *account {
	return &account{Email: email, Name: "user " + email, Score: score}
}

func seedAccounts(t *testing.T, env *testEnv, n int) []*account {
	t.Helper()
	out := make([]*account, 0, n)
	for i := 0; i < n; i++ {
		a := newAccount(fmt.Sprintf("u%02d@test.local", i), i*10)
		require.NoError(t, env.repo.Add(context.Background(), a))
		out = append(out, a)
	}
	return out
}

// ========== 新增 ==========

func TestRepo_Add_AssignsIDAndStamps(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()

	a := newAccount("alice@test.local", 7)
	require.NoError(t, env.repo.Add(ctx, a))

	assert.NotZero(t, a.ID, "零值主键应由生成器补齐")
	assert.True(t, a.CreatedAt.Equal(env.clock.Now()))
	assert.True(t, a.UpdatedAt.Equal(a.CreatedAt), "新增时创建与更新时间相同")
	assert.False(t, a.Deleted)
	assert.Nil(t, a.DeletedAt)

	loaded, err := env.repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Email, loaded.Email)
	assert.Equal(t, a.Score, loaded.Score)
	assert.Equal(t, a.CreatedAt.UnixMilli(), loaded.CreatedAt.UnixMilli())
}

func TestRepo_Add_KeepsExplicitID(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()

	a := newAccount("fixed@test.local", 1)
	a.ID = 42
	require.NoError(t, env.repo.Add(ctx, a))
	assert.Equal(t, int64(42), a.ID, "显式主键不应被生成器覆盖")

	loaded, err := env.repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "fixed@test.local", loaded.Email)
}

func TestRepo_Add_ValidationFailure(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()

	a := newAccount("", 1)
	err := env.repo.Add(ctx, a)
	assert.True(t, errors.IsValidation(err))
	assert.Zero(t, a.ID, "校验失败不应产生主键")

	count, err := env.repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRepo_Add_NilEntity(t *testing.T) {
	env := setupRepo(t)
	err := env.repo.Add(context.Background(), nil)
	assert.True(t, errors.IsInvalidInput(err))
}

// ========== 按 ID 读取 ==========

func TestRepo_Get_NotFound(t *testing.T) {
	env := setupRepo(t)
	_, err := env.repo.Get(context.Background(), 99999)
	assert.True(t, errors.IsNotFound(err))
}

func TestRepo_ExistsAndCount(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	accounts := seedAccounts(t, env, 3)

	ok, err := env.repo.Exists(ctx, accounts[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.repo.Exists(ctx, 99999)
	require.NoError(t, err)
	assert.False(t, ok)

	total, err := env.repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

// ========== 更新 ==========

func TestRepo_Update_AdvancesUpdatedAt(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()

	a := newAccount("bob@test.local", 1)
	require.NoError(t, env.repo.Add(ctx, a))
	created := a.CreatedAt

	env.clock.Advance(2 * time.Second)
	a.Name = "renamed"
	a.Score = 99
	require.NoError(t, env.repo.Update(ctx, a))

	assert.True(t, a.UpdatedAt.After(created))

	loaded, err := env.repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", loaded.Name)
	assert.Equal(t, 99, loaded.Score)
	assert.Equal(t, created.UnixMilli(), loaded.CreatedAt.UnixMilli(), "创建时间不被更新触碰")
	assert.True(t, loaded.UpdatedAt.After(loaded.CreatedAt))
}

func TestRepo_Update_MonotonicWithFrozenClock(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()

	a := newAccount("carol@test.local", 1)
	require.NoError(t, env.repo.Add(ctx, a))

	// 时钟不前进，更新时间戳仍须严格递增
	prev := a.UpdatedAt
	require.NoError(t, env.repo.Update(ctx, a))
	assert.True(t, a.UpdatedAt.After(prev))
}

func TestRepo_Update_NotFound(t *testing.T) {
	env := setupRepo(t)

	a := newAccount("ghost@test.local", 1)
	a.ID = 12345
	err := env.repo.Update(context.Background(), a)
	assert.True(t, errors.IsNotFound(err))
}

func TestRepo_Update_ZeroID(t *testing.T) {
	env := setupRepo(t)
	err := env.repo.Update(context.Background(), newAccount("zero@test.local", 1))
	assert.True(t, errors.IsInvalidState(err), "无主键的实体尚未持久化，更新属于状态错误")
}

// ========== 软删除 ==========

func TestRepo_SoftDelete_Lifecycle(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	a := seedAccounts(t, env, 1)[0]

	require.NoError(t, env.repo.Delete(ctx, a.ID))

	// 读路径全部过滤软删行
	_, err := env.repo.Get(ctx, a.ID)
	assert.True(t, errors.IsNotFound(err))

	ok, err := env.repo.Exists(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	total, err := env.repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	// 软删行可通过 ListDeleted 找到，簿记字段成对写入
	deleted, err := env.repo.ListDeleted(ctx, nil)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.True(t, deleted[0].Deleted)
	require.NotNil(t, deleted[0].DeletedAt)

	// 恢复后重新可见，簿记字段成对清除
	affected, err := env.repo.Restore(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	restored, err := env.repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, restored.Deleted)
	assert.Nil(t, restored.DeletedAt)
}

func TestRepo_Delete_NotFoundAndRepeat(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()

	err := env.repo.Delete(ctx, 404)
	assert.True(t, errors.IsNotFound(err))

	a := seedAccounts(t, env, 1)[0]
	require.NoError(t, env.repo.Delete(ctx, a.ID))
	// 已软删的行不再是活跃行，重复删除按未找到处理
	err = env.repo.Delete(ctx, a.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestRepo_Restore_IdempotentOnActive(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	a := seedAccounts(t, env, 1)[0]

	// 对活跃实体恢复是无操作：影响 0 行且不报错
	affected, err := env.repo.Restore(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, affected)

	// 不存在的实体同样返回 0
	affected, err = env.repo.Restore(ctx, 99999)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestRepo_HardDelete_RemovesSoftDeletedRow(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	a := seedAccounts(t, env, 1)[0]

	require.NoError(t, env.repo.Delete(ctx, a.ID))
	require.NoError(t, env.repo.HardDelete(ctx, a.ID))

	deleted, err := env.repo.ListDeleted(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, deleted)

	err = env.repo.HardDelete(ctx, a.ID)
	assert.True(t, errors.IsNotFound(err))
}

// ========== 规约查询 ==========

func TestRepo_GetBySpec(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	seedAccounts(t, env, 3)

	a, err := env.repo.GetBySpec(ctx, spec.New().Eq("email", "u01@test.local"))
	require.NoError(t, err)
	assert.Equal(t, 10, a.Score)

	_, err = env.repo.GetBySpec(ctx, spec.New().Eq("email", "missing@test.local"))
	assert.True(t, errors.IsNotFound(err))
}

func TestRepo_GetBySpec_NilSpec(t *testing.T) {
	env := setupRepo(t)
	_, err := env.repo.GetBySpec(context.Background(), nil)
	assert.True(t, errors.IsInvalidInput(err), "单实体查询的 nil 规约按参数错误拒绝")
}

func TestRepo_GetList_Filters(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	seedAccounts(t, env, 5) // score 0,10,20,30,40

	items, err := env.repo.GetList(ctx, spec.New().Gt("score", 15))
	require.NoError(t, err)
	assert.Len(t, items, 3)

	items, err = env.repo.GetList(ctx, spec.New().Gte("score", 10).Lte("score", 30).OrderBy("score", true))
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, 30, items[0].Score)
	assert.Equal(t, 10, items[2].Score)

	items, err = env.repo.GetList(ctx, spec.New().Like("email", "u03"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "u03@test.local", items[0].Email)

	items, err = env.repo.GetList(ctx, spec.New().In("score", 0, 40))
	require.NoError(t, err)
	assert.Len(t, items, 2)

	// nil 规约 = 不过滤
	items, err = env.repo.GetList(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func TestRepo_GetList_SoftDeleteFilterPrecedesSpec(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	accounts := seedAccounts(t, env, 3)
	require.NoError(t, env.repo.Delete(ctx, accounts[0].ID))

	// 调用方规约无法穿透软删过滤：deleted = false 先拼接
	items, err := env.repo.GetList(ctx, spec.New().Where("deleted = ?", true))
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = env.repo.GetList(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestRepo_ListByIDs(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	accounts := seedAccounts(t, env, 4)

	items, err := env.repo.ListByIDs(ctx, []int64{accounts[0].ID, accounts[2].ID})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = env.repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRepo_List_OffsetLimit(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	seedAccounts(t, env, 5)

	items, err := env.repo.List(ctx, 0, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = env.repo.List(ctx, 4, 10)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = env.repo.List(ctx, -1, 10)
	assert.True(t, errors.IsInvalidInput(err))

	_, err = env.repo.List(ctx, 0, -1)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestRepo_CountAndExistsBySpec(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	seedAccounts(t, env, 5)

	total, err := env.repo.CountBySpec(ctx, spec.New().Gte("score", 20))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	ok, err := env.repo.ExistsBySpec(ctx, spec.New().Eq("name", "user u04@test.local"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.repo.ExistsBySpec(ctx, spec.New().Gt("score", 1000))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepo_Preload_Unsupported(t *testing.T) {
	env := setupRepo(t)
	_, err := env.repo.GetList(context.Background(), spec.New().Include("Profile"))
	require.Error(t, err, "基础适配器不支持预加载，应明确报错而非静默降级")
}

// ========== 分页 ==========

func TestRepo_ListPage(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	seedAccounts(t, env, 13)

	p := spec.NewPage(1, 5).WithSpec(spec.New().OrderBy("score", false))
	page1, err := env.repo.ListPage(ctx, p)
	require.NoError(t, err)
	assert.Len(t, page1.Items, 5)
	assert.Equal(t, int64(13), page1.Total)
	assert.Equal(t, 3, page1.TotalPages)
	assert.Equal(t, 0, page1.Items[0].Score)

	page3, err := env.repo.ListPage(ctx, spec.NewPage(3, 5).WithSpec(spec.New().OrderBy("score", false)))
	require.NoError(t, err)
	assert.Len(t, page3.Items, 3, "末页只含剩余行")
	assert.Equal(t, 3, page3.TotalPages)

	// 超出末页返回空页而非错误
	page4, err := env.repo.ListPage(ctx, spec.NewPage(4, 5))
	require.NoError(t, err)
	assert.Empty(t, page4.Items)
	assert.Equal(t, int64(13), page4.Total)
}

func TestRepo_ListPage_InvalidParams(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()

	_, err := env.repo.ListPage(ctx, spec.NewPage(0, 5))
	assert.True(t, errors.IsInvalidInput(err))

	_, err = env.repo.ListPage(ctx, spec.NewPage(1, 0))
	assert.True(t, errors.IsInvalidInput(err))

	_, err = env.repo.ListPage(ctx, nil)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestRepo_ListPage_FilterAndTotalPages(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	seedAccounts(t, env, 10) // score 0..90

	p := spec.NewPage(1, 4).WithSpec(spec.New().Gte("score", 50).OrderBy("score", false))
	page, err := env.repo.ListPage(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 4)
}

// ========== 批量按规约写 ==========

func TestRepo_UpdateBySpec(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	seedAccounts(t, env, 5)

	env.clock.Advance(time.Minute)
	affected, err := env.repo.UpdateBySpec(ctx,
		spec.New().Gte("score", 20), map[string]any{"name": "bulk"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)

	items, err := env.repo.GetList(ctx, spec.New().Eq("name", "bulk"))
	require.NoError(t, err)
	assert.Len(t, items, 3)
	for _, it := range items {
		assert.True(t, it.UpdatedAt.After(it.CreatedAt), "按列更新也要推进更新时间戳")
	}
}

func TestRepo_UpdateBySpec_Guards(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	seedAccounts(t, env, 2)

	_, err := env.repo.UpdateBySpec(ctx, nil, map[string]any{})
	assert.True(t, errors.IsInvalidInput(err))

	// 生命周期列由仓储专管
	for _, column := range []string{"id", "created_at", "updated_at", "deleted", "deleted_at"} {
		_, err = env.repo.UpdateBySpec(ctx, nil, map[string]any{column: 1})
		assert.True(t, errors.IsInvalidInput(err), "column %s", column)
	}

	// nil 规约 = 更新全部活跃实体
	affected, err := env.repo.UpdateBySpec(ctx, nil, map[string]any{"score": 5})
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
}

func TestRepo_UpdateFields(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	a := seedAccounts(t, env, 1)[0]

	env.clock.Advance(time.Minute)
	require.NoError(t, env.repo.UpdateFields(ctx, a.ID, map[string]any{"name": "partial"}))

	loaded, err := env.repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "partial", loaded.Name)
	assert.Equal(t, a.Email, loaded.Email, "未指定的列不受影响")
	assert.True(t, loaded.UpdatedAt.After(loaded.CreatedAt))
}

func TestRepo_UpdateFields_MonotonicWithFrozenClock(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	a := seedAccounts(t, env, 1)[0]

	// 时钟不动，按列更新仍要严格推进更新时间戳
	require.NoError(t, env.repo.UpdateFields(ctx, a.ID, map[string]any{"name": "frozen"}))

	loaded, err := env.repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, loaded.UpdatedAt.After(loaded.CreatedAt))

	// 再更新一次，时间戳继续单调递增
	prev := loaded.UpdatedAt
	require.NoError(t, env.repo.UpdateFields(ctx, a.ID, map[string]any{"name": "frozen2"}))
	loaded, err = env.repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, loaded.UpdatedAt.After(prev))
}

func TestRepo_UpdateBySpec_MonotonicWithFrozenClock(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	seedAccounts(t, env, 3)

	affected, err := env.repo.UpdateBySpec(ctx, nil, map[string]any{"name": "bulk"})
	require.NoError(t, err)
	require.Equal(t, int64(3), affected)

	items, err := env.repo.GetList(ctx, nil)
	require.NoError(t, err)
	for _, it := range items {
		assert.True(t, it.UpdatedAt.After(it.CreatedAt), "冻结时钟下批量更新也要推进时间戳")
	}
}

func TestRepo_UpdateFields_Guards(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	a := seedAccounts(t, env, 1)[0]

	err := env.repo.UpdateFields(ctx, 0, map[string]any{"name": "x"})
	assert.True(t, errors.IsInvalidState(err))

	err = env.repo.UpdateFields(ctx, a.ID, nil)
	assert.True(t, errors.IsInvalidInput(err))

	err = env.repo.UpdateFields(ctx, a.ID, map[string]any{"deleted": true})
	assert.True(t, errors.IsInvalidInput(err))

	err = env.repo.UpdateFields(ctx, 404404, map[string]any{"name": "x"})
	assert.True(t, errors.IsNotFound(err))
}

func TestRepo_GetWithDeleted(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	a := seedAccounts(t, env, 1)[0]
	require.NoError(t, env.repo.Delete(ctx, a.ID))

	_, err := env.repo.Get(ctx, a.ID)
	assert.True(t, errors.IsNotFound(err))

	loaded, err := env.repo.GetWithDeleted(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Deleted)
	assert.NotNil(t, loaded.DeletedAt)
}

func TestRepo_ListWithDeleted(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	accounts := seedAccounts(t, env, 4)
	require.NoError(t, env.repo.Delete(ctx, accounts[0].ID))

	all, err := env.repo.ListWithDeleted(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4, "软删行与活跃行一并返回")

	active, err := env.repo.GetList(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, active, 3)
}

func TestRepo_DeleteBySpec(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	seedAccounts(t, env, 5)

	affected, err := env.repo.DeleteBySpec(ctx, spec.New().Lt("score", 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	total, err := env.repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	deleted, err := env.repo.ListDeleted(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, deleted, 2)

	// nil 规约软删全部活跃实体
	affected, err = env.repo.DeleteBySpec(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)

	total, err = env.repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRepo_HardDeleteBySpec_IncludesSoftDeleted(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	accounts := seedAccounts(t, env, 3)
	require.NoError(t, env.repo.Delete(ctx, accounts[0].ID))

	affected, err := env.repo.HardDeleteBySpec(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected, "物理删除作用于所有行（含软删行）")
}

// ========== Try 变体 ==========

func TestRepo_TryAdd_UniqueConflict(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()

	ok, err := env.repo.TryAdd(ctx, newAccount("dup@test.local", 1))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.repo.TryAdd(ctx, newAccount("dup@test.local", 2))
	require.NoError(t, err)
	assert.False(t, ok, "唯一键冲突折算为 false")

	total, err := env.repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestRepo_TryAdd_ConflictWithSoftDeletedRow(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()

	a := newAccount("ab@test.local", 1)
	require.NoError(t, env.repo.Add(ctx, a))
	require.NoError(t, env.repo.Delete(ctx, a.ID))

	// 唯一索引覆盖软删行：同键新增仍冲突
	ok, err := env.repo.TryAdd(ctx, newAccount("ab@test.local", 2))
	require.NoError(t, err)
	assert.False(t, ok)

	// 恢复原行后数据保持一致
	affected, err := env.repo.Restore(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	loaded, err := env.repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Score)
}

func TestRepo_TryAdd_PropagatesNonConflict(t *testing.T) {
	env := setupRepo(t)
	_, err := env.repo.TryAdd(context.Background(), nil)
	assert.Error(t, err, "非冲突错误不得折算为 false")
}

func TestRepo_TryUpdate(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	a := seedAccounts(t, env, 1)[0]

	a.Name = "touched"
	ok, err := env.repo.TryUpdate(ctx, a)
	require.NoError(t, err)
	assert.True(t, ok)

	ghost := newAccount("ghost@test.local", 1)
	ghost.ID = 777
	_, err = env.repo.TryUpdate(ctx, ghost)
	assert.Error(t, err, "未找到不是持久化冲突，原样传播")
}

func TestRepo_TryDelete(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	a := seedAccounts(t, env, 1)[0]

	ok, err := env.repo.TryDelete(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.repo.TryDelete(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, ok, "目标已删除时返回 false 而非错误")
}

// ========== 批量操作 ==========

func TestRepo_AddAll(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()

	batch := []*account{
		newAccount("b1@test.local", 1),
		newAccount("b2@test.local", 2),
		newAccount("b3@test.local", 3),
	}
	require.NoError(t, env.repo.AddAll(ctx, batch))
	for _, a := range batch {
		assert.NotZero(t, a.ID)
	}

	total, err := env.repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestRepo_AddAll_AtomicOnConflict(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()

	batch := []*account{
		newAccount("c1@test.local", 1),
		newAccount("c2@test.local", 2),
		newAccount("c2@test.local", 3), // 批内唯一键冲突
	}
	err := env.repo.AddAll(ctx, batch)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	total, err := env.repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total, "单条语句写入，任一行失败整体失败")
}

func TestRepo_UpdateAll_RollbackOnMissing(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	accounts := seedAccounts(t, env, 2)

	accounts[0].Name = "updated"
	ghost := newAccount("ghost@test.local", 0)
	ghost.ID = 999

	err := env.repo.UpdateAll(ctx, []*account{accounts[0], ghost})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	// 整体回滚：第一条的修改未落库
	loaded, err := env.repo.Get(ctx, accounts[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, "updated", loaded.Name)
}

func TestRepo_DeleteAll(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	accounts := seedAccounts(t, env, 3)

	require.NoError(t, env.repo.DeleteAll(ctx, []int64{accounts[0].ID, accounts[1].ID}))

	total, err := env.repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	// 任一主键未命中整体回滚
	err = env.repo.DeleteAll(ctx, []int64{accounts[2].ID, 404})
	require.Error(t, err)

	total, err = env.repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

// ========== 事务 ==========

func TestRepo_WithTx_Commit(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()

	err := env.repo.WithTx(ctx, func(tx *Repo[account, int64]) error {
		if err := tx.Add(ctx, newAccount("tx1@test.local", 1)); err != nil {
			return err
		}
		return tx.Add(ctx, newAccount("tx2@test.local", 2))
	})
	require.NoError(t, err)

	total, err := env.repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestRepo_WithTx_RollbackOnError(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()

	wantErr := errors.NewError(errors.ErrCodeInvalidState, "business rule violated")
	err := env.repo.WithTx(ctx, func(tx *Repo[account, int64]) error {
		if err := tx.Add(ctx, newAccount("rollback@test.local", 1)); err != nil {
			return err
		}
		return wantErr
	})
	assert.True(t, errors.IsInvalidState(err))

	total, err := env.repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRepo_WithTx_RollbackOnPanic(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = env.repo.WithTx(ctx, func(tx *Repo[account, int64]) error {
			if err := tx.Add(ctx, newAccount("panic@test.local", 1)); err != nil {
				return err
			}
			panic("boom")
		})
	})

	total, err := env.repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

// ========== 原生 SQL ==========

func TestRepo_RawPassthrough(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()
	seedAccounts(t, env, 3)

	affected, err := env.repo.Exec(ctx, "UPDATE accounts SET score = score + ? WHERE score >= ?", 100, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	items, err := env.repo.QueryRaw(ctx, "SELECT * FROM accounts WHERE score > ? ORDER BY score", 100)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	var total int64
	require.NoError(t, env.repo.QueryValue(ctx, &total, "SELECT COUNT(*) FROM accounts"))
	assert.Equal(t, int64(3), total)
}

// ========== 变更通知 ==========

func TestRepo_PublishesChangeEvents(t *testing.T) {
	env := setupRepo(t)
	ctx := context.Background()

	a := newAccount("events@test.local", 1)
	require.NoError(t, env.repo.Add(ctx, a))
	require.NoError(t, env.repo.Update(ctx, a))
	require.NoError(t, env.repo.Delete(ctx, a.ID))
	_, err := env.repo.Restore(ctx, a.ID)
	require.NoError(t, err)
	require.NoError(t, env.repo.HardDelete(ctx, a.ID))

	events := env.publisher.Events()
	require.Len(t, events, 5)
	actions := make([]notify.Action, len(events))
	for i, e := range events {
		actions[i] = e.Action
		assert.Equal(t, "account", e.Entity)
		assert.Equal(t, fmt.Sprintf("%d", a.ID), e.EntityID)
	}
	assert.Equal(t, []notify.Action{
		notify.ActionCreated,
		notify.ActionUpdated,
		notify.ActionDeleted,
		notify.ActionRestored,
		notify.ActionHardDeleted,
	}, actions)
}

// ========== 字符串主键 ==========

func TestRepo_StringID_UUIDGenerator(t *testing.T) {
	db := setupTestDB(t)
	o := basicorm.New(db)

	r, err := NewRepo[note, string](o,
		WithIDGenerator[note, string](idgen.UUID()),
		WithLogger[note, string](logging.NewNoopLogger()),
	)
	require.NoError(t, err)

	ctx := context.Background()
	n := &note{Title: "first"}
	require.NoError(t, r.Add(ctx, n))
	assert.Len(t, n.ID, 36, "UUID 字符串主键")

	loaded, err := r.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", loaded.Title)

	require.NoError(t, r.Delete(ctx, n.ID))
	affected, err := r.Restore(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

// ========== 构造校验 ==========

type plain struct{ Value int }

func TestNewRepo_RequiresEntityContract(t *testing.T) {
	db := setupTestDB(t)
	o := basicorm.New(db)

	_, err := NewRepo[plain, int64](o)
	assert.True(t, errors.IsInvalidInput(err), "实体必须实现 IMutableObject")

	_, err = NewRepo[account, int64](nil)
	assert.True(t, errors.IsInvalidInput(err))
}
