package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/terminatorcore/terminator/errs"
)

type sqliteColumn struct {
	CID     int            `db:"cid"`
	Name    string         `db:"name"`
	Type    string         `db:"type"`
	NotNull int            `db:"notnull"`
	Default sql.NullString `db:"dflt_value"`
	PK      int            `db:"pk"`
}

// SQLiteInspector 通过 PRAGMA table_info 读取表结构，sqlite 没有注释
type SQLiteInspector struct {
	db *sqlx.DB
}

func NewSQLiteInspector(db *sqlx.DB) *SQLiteInspector {
	return &SQLiteInspector{db: db}
}

func (i *SQLiteInspector) Inspect(ctx context.Context, table string) (*Table, error) {
	if !ValidTableName(table) {
		return nil, invalidTable(table)
	}

	// PRAGMA 不支持占位符，表名已经过校验
	var rows []sqliteColumn
	if err := i.db.SelectContext(ctx, &rows, fmt.Sprintf(`PRAGMA table_info("%s")`, table)); err != nil {
		return nil, errs.WrapService(err, "failed to query columns", errs.CodeInternal)
	}
	if len(rows) == 0 {
		return nil, tableNotFound(table)
	}

	t := &Table{Name: table, Columns: make([]*Column, 0, len(rows))}
	for _, row := range rows {
		c := &Column{
			Name:     row.Name,
			SQLType:  strings.ToLower(row.Type),
			Primary:  row.PK > 0,
			Nullable: row.NotNull == 0 && row.PK == 0,
		}
		// INTEGER PRIMARY KEY 是 rowid 的别名，插入时自动分配
		c.AutoIncrement = c.Primary && c.SQLType == "integer"
		if row.Default.Valid {
			v := strings.Trim(row.Default.String, `'"`)
			c.Default = &v
		}
		t.Columns = append(t.Columns, c)
	}
	return t, nil
}
