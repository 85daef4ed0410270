package rdb

import (
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDataSourceName(t *testing.T) {
	Convey("拼接 DSN", t, func() {
		Convey("mysql 使用各字段", func() {
			dsn, err := (&SQLOptions{
				Driver:   "mysql",
				Host:     "db.local",
				Port:     "3307",
				Database: "music_demo",
				Username: "root",
				Password: "secret",
			}).DataSourceName()
			So(err, ShouldBeNil)
			So(dsn, ShouldEqual, "root:secret@tcp(db.local:3307)/music_demo?charset=utf8mb4&parseTime=True&loc=Local")
		})

		Convey("显式 DSN 优先", func() {
			dsn, err := (&SQLOptions{DSN: "custom", Host: "ignored"}).DataSourceName()
			So(err, ShouldBeNil)
			So(dsn, ShouldEqual, "custom")
		})

		Convey("sqlite 需要数据库路径", func() {
			_, err := (&SQLOptions{Driver: "sqlite"}).DataSourceName()
			So(err, ShouldNotBeNil)

			dsn, err := (&SQLOptions{Driver: "sqlite", Database: "a.db"}).DataSourceName()
			So(err, ShouldBeNil)
			So(dsn, ShouldEqual, "a.db")
		})

		Convey("不支持的驱动", func() {
			_, err := (&SQLOptions{Driver: "oracle"}).DataSourceName()
			So(err, ShouldNotBeNil)
		})

		So((&SQLOptions{}).DriverName(), ShouldEqual, DriverMySQL)
		So((&SQLOptions{Driver: "sqlite"}).DriverName(), ShouldEqual, DriverSQLite)
	})
}

func TestOpenSQLite(t *testing.T) {
	Convey("打开 sqlite 连接", t, func() {
		options := &SQLOptions{Driver: "sqlite3", Database: filepath.Join(t.TempDir(), "test.db"), MaxConns: 1}

		db, err := NewSQLWithOptions(options)
		So(err, ShouldBeNil)
		_, err = db.Exec("CREATE TABLE track_type (id INTEGER PRIMARY KEY, name VARCHAR(32))")
		So(err, ShouldBeNil)
		So(db.Close(), ShouldBeNil)

		gdb, err := NewGormWithOptions(options)
		So(err, ShouldBeNil)
		So(gdb.Migrator().HasTable("track_type"), ShouldBeTrue)

		_, err = NewSQLWithOptions(nil)
		So(err, ShouldNotBeNil)
		_, err = NewGormWithOptions(&SQLOptions{Driver: "oracle"})
		So(err, ShouldNotBeNil)
	})
}
