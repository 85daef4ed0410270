package schema

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/terminatorcore/terminator/errs"
)

const (
	mysqlTableQuery = `SELECT TABLE_COMMENT FROM information_schema.TABLES
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`

	mysqlColumnQuery = `SELECT COLUMN_NAME AS column_name, COLUMN_TYPE AS column_type, IS_NULLABLE AS is_nullable,
COLUMN_KEY AS column_key, COLUMN_DEFAULT AS column_default, COLUMN_COMMENT AS column_comment, EXTRA AS extra
FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`
)

type mysqlColumn struct {
	Name       string         `db:"column_name"`
	Type       string         `db:"column_type"`
	IsNullable string         `db:"is_nullable"`
	Key        string         `db:"column_key"`
	Default    sql.NullString `db:"column_default"`
	Comment    string         `db:"column_comment"`
	Extra      string         `db:"extra"`
}

// MySQLInspector 通过 information_schema 读取当前库中的表结构
type MySQLInspector struct {
	db *sqlx.DB
}

func NewMySQLInspector(db *sqlx.DB) *MySQLInspector {
	return &MySQLInspector{db: db}
}

func (i *MySQLInspector) Inspect(ctx context.Context, table string) (*Table, error) {
	if !ValidTableName(table) {
		return nil, invalidTable(table)
	}

	var comment string
	if err := i.db.GetContext(ctx, &comment, mysqlTableQuery, table); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tableNotFound(table)
		}
		return nil, errs.WrapService(err, "failed to query table status", errs.CodeInternal)
	}

	var rows []mysqlColumn
	if err := i.db.SelectContext(ctx, &rows, mysqlColumnQuery, table); err != nil {
		return nil, errs.WrapService(err, "failed to query columns", errs.CodeInternal)
	}
	if len(rows) == 0 {
		return nil, tableNotFound(table)
	}

	t := &Table{Name: table, Comment: comment, Columns: make([]*Column, 0, len(rows))}
	for _, row := range rows {
		c := &Column{
			Name:          row.Name,
			SQLType:       row.Type,
			Nullable:      strings.EqualFold(row.IsNullable, "YES"),
			Primary:       row.Key == "PRI",
			Comment:       row.Comment,
			AutoIncrement: strings.Contains(strings.ToLower(row.Extra), "auto_increment"),
		}
		if row.Default.Valid {
			v := row.Default.String
			c.Default = &v
		}
		t.Columns = append(t.Columns, c)
	}
	return t, nil
}
