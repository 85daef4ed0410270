// Package service 是生成的 service 代码依赖的通用增删改查实现
package service

import (
	"context"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/terminatorcore/terminator/errs"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gschema "gorm.io/gorm/schema"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 1000
)

type ListOptions struct {
	// 从 1 开始，小于 1 视为 1，偏移量溢出时返回参数错误
	Page int
	// 小于 1 时为 DefaultPageSize，不能超过 MaxPageSize
	Size int
	// 形如 "name" 或 "created_at desc"，多个字段用逗号分隔
	OrderBy string
	// 列名到值的等值过滤条件
	Where map[string]any
}

// BaseService 基于 gorm 的通用增删改查，T 是 model 结构体
type BaseService[T any] struct {
	db *gorm.DB

	once      sync.Once
	schema    *gschema.Schema
	schemaErr error
}

func NewBaseService[T any](db *gorm.DB) *BaseService[T] {
	return &BaseService[T]{db: db}
}

func (s *BaseService[T]) DB() *gorm.DB {
	return s.db
}

func (s *BaseService[T]) parse() (*gschema.Schema, error) {
	s.once.Do(func() {
		stmt := &gorm.Statement{DB: s.db}
		if err := stmt.Parse(new(T)); err != nil {
			s.schemaErr = errs.WrapService(err, "failed to parse model", errs.CodeInternal)
			return
		}
		s.schema = stmt.Schema
	})
	return s.schema, s.schemaErr
}

func (s *BaseService[T]) primaryKey() (*gschema.Field, error) {
	sch, err := s.parse()
	if err != nil {
		return nil, err
	}
	if sch.PrioritizedPrimaryField == nil {
		return nil, errs.Servicef(errs.CodeInternal, "model %s has no primary key", sch.Name)
	}
	return sch.PrioritizedPrimaryField, nil
}

// column 校验列名存在于 model 中，返回数据库列名
func (s *BaseService[T]) column(name string) (string, error) {
	sch, err := s.parse()
	if err != nil {
		return "", err
	}
	if field := sch.LookUpField(name); field != nil && field.DBName != "" {
		return field.DBName, nil
	}
	return "", errs.Businessf(errs.CodeInvalidParam, "unknown column %q", name)
}

func (s *BaseService[T]) byID(ctx context.Context, id any) (*gorm.DB, error) {
	pk, err := s.primaryKey()
	if err != nil {
		return nil, err
	}
	return s.db.WithContext(ctx).Where(clause.Eq{Column: clause.Column{Name: pk.DBName}, Value: id}), nil
}

func (s *BaseService[T]) Get(ctx context.Context, id any) (*T, error) {
	tx, err := s.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	var v T
	if err := tx.Take(&v).Error; err != nil {
		return nil, dbError(err, "get", id)
	}
	return &v, nil
}

// List 返回当前页的记录和符合条件的总数
func (s *BaseService[T]) List(ctx context.Context, options *ListOptions) ([]T, int64, error) {
	if options == nil {
		options = &ListOptions{}
	}
	page, size := options.Page, options.Size
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		return nil, 0, errs.Businessf(errs.CodeInvalidParam, "page size %d exceeds %d", size, MaxPageSize)
	}
	if page > math.MaxInt/size {
		return nil, 0, errs.Businessf(errs.CodeInvalidParam, "page %d out of range", page)
	}

	conds := make([]clause.Expression, 0, len(options.Where))
	for name, value := range options.Where {
		column, err := s.column(name)
		if err != nil {
			return nil, 0, err
		}
		conds = append(conds, clause.Eq{Column: clause.Column{Name: column}, Value: value})
	}
	orders, err := s.orderBy(options.OrderBy)
	if err != nil {
		return nil, 0, err
	}
	query := func() *gorm.DB {
		tx := s.db.WithContext(ctx).Model(new(T))
		for _, cond := range conds {
			tx = tx.Where(cond)
		}
		return tx
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, dbError(err, "count", nil)
	}

	tx := query()
	for _, order := range orders {
		tx = tx.Order(order)
	}
	items := make([]T, 0, size)
	if err := tx.Offset((page - 1) * size).Limit(size).Find(&items).Error; err != nil {
		return nil, 0, dbError(err, "list", nil)
	}
	return items, total, nil
}

func (s *BaseService[T]) orderBy(expr string) ([]clause.OrderByColumn, error) {
	var orders []clause.OrderByColumn
	for _, part := range strings.Split(expr, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		if len(fields) > 2 {
			return nil, errs.Businessf(errs.CodeInvalidParam, "invalid order %q", part)
		}
		column, err := s.column(fields[0])
		if err != nil {
			return nil, err
		}
		desc := false
		if len(fields) == 2 {
			switch strings.ToLower(fields[1]) {
			case "asc":
			case "desc":
				desc = true
			default:
				return nil, errs.Businessf(errs.CodeInvalidParam, "invalid order direction %q", fields[1])
			}
		}
		orders = append(orders, clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
	}
	return orders, nil
}

func (s *BaseService[T]) Create(ctx context.Context, v *T) error {
	if v == nil {
		return errs.NewBusinessError("record cannot be nil", errs.CodeInvalidParam)
	}
	if err := s.db.WithContext(ctx).Create(v).Error; err != nil {
		return dbError(err, "create", nil)
	}
	return nil
}

// Update 用 v 覆盖 id 对应的整条记录，v 的主键被设置为 id
// v 中的零值字段同样写入，只修改部分字段用 Patch
func (s *BaseService[T]) Update(ctx context.Context, id any, v *T) error {
	if v == nil {
		return errs.NewBusinessError("record cannot be nil", errs.CodeInvalidParam)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	pk, err := s.primaryKey()
	if err != nil {
		return err
	}
	if err := pk.Set(ctx, reflect.ValueOf(v), id); err != nil {
		return errs.WrapBusiness(err, "invalid id", errs.CodeInvalidParam)
	}
	if err := s.db.WithContext(ctx).Save(v).Error; err != nil {
		return dbError(err, "update", id)
	}
	return nil
}

// Patch 只更新 fields 中给出的列，键为字段名或列名，返回更新后的记录
// 主键不能修改
func (s *BaseService[T]) Patch(ctx context.Context, id any, fields map[string]any) (*T, error) {
	if len(fields) == 0 {
		return nil, errs.NewBusinessError("no fields to update", errs.CodeInvalidParam)
	}
	pk, err := s.primaryKey()
	if err != nil {
		return nil, err
	}
	values := make(map[string]any, len(fields))
	for name, value := range fields {
		column, err := s.column(name)
		if err != nil {
			return nil, err
		}
		if column == pk.DBName {
			return nil, errs.Businessf(errs.CodeInvalidParam, "primary key %q cannot be updated", name)
		}
		values[column] = value
	}

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	tx, err := s.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Model(new(T)).Updates(values).Error; err != nil {
		return nil, dbError(err, "patch", id)
	}
	return s.Get(ctx, id)
}

func (s *BaseService[T]) Delete(ctx context.Context, id any) error {
	tx, err := s.byID(ctx, id)
	if err != nil {
		return err
	}
	result := tx.Delete(new(T))
	if result.Error != nil {
		return dbError(result.Error, "delete", id)
	}
	if result.RowsAffected == 0 {
		return errs.Businessf(errs.CodeNotFound, "record %v not found", id)
	}
	return nil
}

// Transaction 在事务中执行 fn，fn 返回错误时回滚
func (s *BaseService[T]) Transaction(ctx context.Context, fn func(tx *BaseService[T]) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&BaseService[T]{db: tx})
	})
	if err == nil || errs.KindOf(err) != errs.KindNone {
		return err
	}
	return dbError(err, "transaction", nil)
}

func dbError(err error, op string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.Businessf(errs.CodeNotFound, "record %v not found", id)
	}
	return errs.WrapService(err, op+" failed", errs.CodeInternal)
}
