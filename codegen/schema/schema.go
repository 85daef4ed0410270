// Package schema 读取关系型数据库中单张表的结构
package schema

import (
	"context"
	"regexp"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/terminatorcore/terminator/errs"
	"github.com/terminatorcore/terminator/rdb"
)

type Column struct {
	Name     string
	SQLType  string
	Nullable bool
	Primary  bool
	// 没有默认值时为 nil，空字符串默认值与之区分
	Default       *string
	Comment       string
	AutoIncrement bool
}

type Table struct {
	Name    string
	Comment string
	Columns []*Column
}

// PrimaryKey 返回第一个主键列，没有主键时返回 nil
func (t *Table) PrimaryKey() *Column {
	for _, c := range t.Columns {
		if c.Primary {
			return c
		}
	}
	return nil
}

type Inspector interface {
	Inspect(ctx context.Context, table string) (*Table, error)
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// ValidTableName 表名只允许字母、数字、下划线和 $
func ValidTableName(table string) bool {
	return identifier.MatchString(table)
}

// NewInspector 根据连接的驱动选择实现
func NewInspector(db *sqlx.DB) (Inspector, error) {
	switch db.DriverName() {
	case rdb.DriverMySQL:
		return NewMySQLInspector(db), nil
	case rdb.DriverSQLite:
		return NewSQLiteInspector(db), nil
	default:
		return nil, errors.Errorf("no inspector for driver %s", db.DriverName())
	}
}

func tableNotFound(table string) error {
	return errs.Businessf(errs.CodeTableNotFound, "table %s not found", table)
}

func invalidTable(table string) error {
	return errs.Businessf(errs.CodeInvalidParam, "invalid table name %q", table)
}
