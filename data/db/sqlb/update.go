package sqlb

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	core "repokit/data/db"
	"repokit/data/db/dialect"
)

type updateBuilder struct {
	db      core.IDatabase
	dialect dialect.Dialect

	table     string
	setCols   []string
	setArgs   []any
	whereExpr []string
	whereArgs []any
}

func (b *updateBuilder) Set(col string, val any) IUpdateBuilder {
	if col == "" {
		return b
	}
	b.setCols = append(b.setCols, col)
	b.setArgs = append(b.setArgs, val)
	return b
}

// SetMap 按列名字典序追加，保证生成的语句确定（便于测试与日志比对）。
func (b *updateBuilder) SetMap(values map[string]any) IUpdateBuilder {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Set(k, values[k])
	}
	return b
}

func (b *updateBuilder) Where(cond string, args ...any) IUpdateBuilder {
	if cond != "" {
		b.whereExpr = append(b.whereExpr, cond)
		b.whereArgs = append(b.whereArgs, args...)
	}
	return b
}

func (b *updateBuilder) Build() (string, []any) {
	if len(b.setCols) == 0 {
		panic("sqlb: update requires at least one set column")
	}

	var sb strings.Builder
	args := make([]any, 0, len(b.setArgs)+len(b.whereArgs))

	sb.WriteString("UPDATE ")
	if !isSafeIdentifier(b.table) {
		panic("sqlb: unsafe table name " + b.table)
	}
	sb.WriteString(b.dialect.QuoteIdentifier(b.table))
	sb.WriteString(" SET ")

	for i, col := range b.setCols {
		if i > 0 {
			sb.WriteString(", ")
		}
		if !isSafeIdentifier(col) {
			panic("sqlb: unsafe column name " + col)
		}
		sb.WriteString(b.dialect.QuoteIdentifier(col))
		sb.WriteString(" = ?")
		args = append(args, b.setArgs[i])
	}

	if len(b.whereExpr) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.whereExpr, " AND "))
		args = append(args, b.whereArgs...)
	}

	return sb.String(), args
}

func (b *updateBuilder) Exec(ctx context.Context) (sql.Result, error) {
	q, args := b.Build()
	return b.db.Exec(ctx, q, args...)
}
