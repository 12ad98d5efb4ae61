// Package basic 是基于 repokit/data/db + repokit/data/db/sqlb 的轻量 IOrm 实现。
//
// 设计目标：
//   - 不依赖具体 ORM，直接在 DB 抽象之上工作；
//   - 覆盖通用仓储的查询与增删改需求；
//   - 保持能力最小化，超出能力的调用返回明确错误而非静默降级。
package basic

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sync"

	dbcore "repokit/data/db"
	"repokit/data/db/dialect"
	"repokit/data/db/sqlb"
	"repokit/data/orm"
)

// Orm 轻量 ORM 适配器。
type Orm struct {
	db      dbcore.IDatabase
	sql     sqlb.ISql
	dialect dialect.Dialect
	caps    orm.Capabilities

	mu        sync.RWMutex
	structMap map[reflect.Type]*structMeta
}

// New 创建一个基于指定 IDatabase 的 Orm 适配器。
func New(db dbcore.IDatabase) orm.IOrm {
	return &Orm{
		db:      db,
		sql:     sqlb.New(db),
		dialect: dialect.FromDatabase(db),
		caps: orm.NewCapabilities(
			orm.CapabilityBasicCRUD,
			orm.CapabilityQuery,
			orm.CapabilityBatchWrite,
			orm.CapabilityTransaction,
		),
		structMap: make(map[reflect.Type]*structMeta),
	}
}

// Capabilities 返回适配器支持的能力。
func (o *Orm) Capabilities() orm.Capabilities { return o.caps }

// Model 返回模型级操作入口。
// 模型元数据的字段白名单在这里填充，供上层做列名校验。
func (o *Orm) Model(meta *orm.ModelMeta) orm.IModel {
	if meta == nil {
		panic("basic.Orm: ModelMeta cannot be nil")
	}

	table := meta.Table
	if table == "" && meta.Model != nil {
		if tn, ok := tryGetTableName(meta.Model); ok {
			table = tn
		}
	}
	if table == "" {
		panic("basic.Orm: table name is empty")
	}

	if len(meta.Fields) == 0 && meta.Model != nil {
		if sm := o.structMetaForValue(meta.Model); sm != nil {
			fields := make([]orm.FieldMeta, 0, len(sm.fields))
			for _, f := range sm.fields {
				fields = append(fields, orm.FieldMeta{
					Column:     f.Column,
					PrimaryKey: f.PrimaryKey,
				})
			}
			meta.Fields = fields
		}
	}

	return &model{
		orm:   o,
		meta:  meta,
		table: table,
	}
}

// Begin 开启事务会话。
func (o *Orm) Begin(ctx context.Context) (orm.IOrmSession, error) {
	return o.BeginTx(ctx, nil)
}

// BeginTx 开启带选项的事务会话。
func (o *Orm) BeginTx(ctx context.Context, opts *sql.TxOptions) (orm.IOrmSession, error) {
	tx, err := o.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &session{
		Orm: New(tx).(*Orm),
		tx:  tx,
	}, nil
}

// Database 返回底层数据库抽象。
func (o *Orm) Database() dbcore.IDatabase { return o.db }

// ScanRows 复用适配器的列映射，把原生查询结果扫描到模型。
func (o *Orm) ScanRows(rows dbcore.IRows, dest any) error {
	_, err := o.scanRowsInto(rows, dest)
	return err
}

// Raw 返回底层实现（此处为 dbcore.IDatabase）。
func (o *Orm) Raw() any { return o.db }

// session 实现 IOrmSession，委托给内部 Orm，并持有事务以便 Commit/Rollback。
type session struct {
	*Orm
	tx dbcore.ITransaction
}

// Commit 提交事务。
func (s *session) Commit() error {
	if s.tx == nil {
		return fmt.Errorf("basic.session: tx is nil")
	}
	return s.tx.Commit()
}

// Rollback 回滚事务。
func (s *session) Rollback() error {
	if s.tx == nil {
		return fmt.Errorf("basic.session: tx is nil")
	}
	return s.tx.Rollback()
}
