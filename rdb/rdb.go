package rdb

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

type SQLOptions struct {
	Driver   string `cfg:"driver" def:"mysql" validate:"omitempty,oneof=mysql sqlite3 sqlite"`
	DSN      string `cfg:"dsn"`
	Host     string `cfg:"host" def:"localhost"`
	Port     string `cfg:"port" def:"3306"`
	Database string `cfg:"database"`
	Username string `cfg:"username"`
	Password string `cfg:"password"`
	Charset  string `cfg:"charset" def:"utf8mb4"`
	MaxConns int    `cfg:"maxConns" def:"10"`
	MaxIdle  int    `cfg:"maxIdle" def:"5"`
	// 建立连接后 Ping 的超时时间
	ConnectTimeout time.Duration `cfg:"connectTimeout" def:"5s"`
}

// DriverName 返回 database/sql 注册的驱动名，sqlite 统一为 sqlite3
func (o *SQLOptions) DriverName() string {
	if o.Driver == "sqlite" {
		return DriverSQLite
	}
	if o.Driver == "" {
		return DriverMySQL
	}
	return o.Driver
}

// DataSourceName 未显式指定 DSN 时根据各字段拼接
func (o *SQLOptions) DataSourceName() (string, error) {
	if o.DSN != "" {
		return o.DSN, nil
	}
	switch o.DriverName() {
	case DriverMySQL:
		host, port, charset := o.Host, o.Port, o.Charset
		if host == "" {
			host = "localhost"
		}
		if port == "" {
			port = "3306"
		}
		if charset == "" {
			charset = "utf8mb4"
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
			o.Username, o.Password, host, port, o.Database, charset), nil
	case DriverSQLite:
		if o.Database == "" {
			return "", errors.New("sqlite database path is required")
		}
		return o.Database, nil
	default:
		return "", errors.Errorf("unsupported driver: %s", o.Driver)
	}
}

func NewSQLWithOptions(options *SQLOptions) (*sqlx.DB, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	dsn, err := options.DataSourceName()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(options.DriverName(), dsn)
	if err != nil {
		return nil, errors.Wrap(err, "sqlx.Open failed")
	}
	configurePool(options, db.SetMaxOpenConns, db.SetMaxIdleConns)

	timeout := options.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping failed")
	}
	return db, nil
}

func NewGormWithOptions(options *SQLOptions) (*gorm.DB, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	dsn, err := options.DataSourceName()
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch options.DriverName() {
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, errors.Errorf("unsupported driver: %s", options.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, errors.Wrap(err, "gorm.Open failed")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	configurePool(options, sqlDB.SetMaxOpenConns, sqlDB.SetMaxIdleConns)
	return db, nil
}

func configurePool(options *SQLOptions, setMaxOpen, setMaxIdle func(int)) {
	if options.MaxConns > 0 {
		setMaxOpen(options.MaxConns)
	}
	if options.MaxIdle > 0 {
		setMaxIdle(options.MaxIdle)
	}
}
