// Package sqlb 提供面向 IDatabase 的 SQL 语句构建器。
//
// 构建器只负责拼装语句与参数，执行仍走 db.IDatabase；
// 表名/列名一律做安全标识符校验，防止拼接注入。
package sqlb

import (
	"context"
	"database/sql"
	"strings"

	core "repokit/data/db"
	"repokit/data/db/dialect"
)

// ISql 语句构建器工厂
type ISql interface {
	Select(columns ...string) ISelectBuilder
	InsertInto(table string) IInsertBuilder
	Update(table string) IUpdateBuilder
	DeleteFrom(table string) IDeleteBuilder
}

// ISelectBuilder SELECT 构建器
type ISelectBuilder interface {
	From(table string) ISelectBuilder
	Where(cond string, args ...any) ISelectBuilder
	OrderBy(expr string) ISelectBuilder
	GroupBy(cols ...string) ISelectBuilder
	Limit(n int) ISelectBuilder
	Offset(n int) ISelectBuilder

	Build() (string, []any)
	Query(ctx context.Context) (core.IRows, error)
	QueryRow(ctx context.Context) core.IRow
}

// IInsertBuilder INSERT 构建器
type IInsertBuilder interface {
	Columns(cols ...string) IInsertBuilder
	Values(vals ...any) IInsertBuilder

	Build() (string, []any)
	Exec(ctx context.Context) (sql.Result, error)
}

// IUpdateBuilder UPDATE 构建器
type IUpdateBuilder interface {
	Set(col string, val any) IUpdateBuilder
	SetMap(values map[string]any) IUpdateBuilder
	Where(cond string, args ...any) IUpdateBuilder

	Build() (string, []any)
	Exec(ctx context.Context) (sql.Result, error)
}

// IDeleteBuilder DELETE 构建器
type IDeleteBuilder interface {
	Where(cond string, args ...any) IDeleteBuilder
	Limit(n int) IDeleteBuilder

	Build() (string, []any)
	Exec(ctx context.Context) (sql.Result, error)
}

type sqlImpl struct {
	db      core.IDatabase
	dialect dialect.Dialect
}

// New 基于指定数据库创建构建器工厂，方言从数据库实例推断。
func New(db core.IDatabase) ISql {
	return &sqlImpl{db: db, dialect: dialect.FromDatabase(db)}
}

func (s *sqlImpl) Select(columns ...string) ISelectBuilder {
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	return &selectBuilder{db: s.db, dialect: s.dialect, cols: columns}
}

func (s *sqlImpl) InsertInto(table string) IInsertBuilder {
	return &insertBuilder{db: s.db, dialect: s.dialect, table: table}
}

func (s *sqlImpl) Update(table string) IUpdateBuilder {
	return &updateBuilder{db: s.db, dialect: s.dialect, table: table}
}

func (s *sqlImpl) DeleteFrom(table string) IDeleteBuilder {
	return &deleteBuilder{db: s.db, dialect: s.dialect, table: table}
}

// isSafeIdentifier 判断标识符是否为“安全的数据库标识符”。
//
// 允许形式：
//   - 单一标识符：foo, bar_1
//   - 带点的限定名：schema.table, table.column
//
// 规则（按段）：
//   - 每段不能为空；
//   - 首字符必须是字母或下划线 [A-Za-z_]；
//   - 后续字符必须是字母、数字或下划线 [A-Za-z0-9_]。
//
// 只做简单的 ASCII 校验，足以防止常见的注入片段（空格、分号等）。
func isSafeIdentifier(name string) bool {
	if name == "" {
		return false
	}
	parts := strings.Split(name, ".")
	for _, part := range parts {
		if part == "" {
			return false
		}
		for i := 0; i < len(part); i++ {
			ch := part[i]
			if i == 0 {
				if !((ch >= 'a' && ch <= 'z') ||
					(ch >= 'A' && ch <= 'Z') ||
					ch == '_') {
					return false
				}
			} else {
				if !((ch >= 'a' && ch <= 'z') ||
					(ch >= 'A' && ch <= 'Z') ||
					(ch >= '0' && ch <= '9') ||
					ch == '_') {
					return false
				}
			}
		}
	}
	return true
}
