package storage

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"unicode"
)

// EnvStorage 在底层存储之上叠加环境变量
// 结构体字段 database.maxConns 对应环境变量 <PREFIX>DATABASE_MAX_CONNS
type EnvStorage struct {
	storage Storage
	prefix  string
	path    []string
	lookup  func(string) (string, bool)
}

func NewEnvStorage(storage Storage, prefix string) *EnvStorage {
	return &EnvStorage{storage: storage, prefix: prefix, lookup: os.LookupEnv}
}

func (es *EnvStorage) Sub(key string) Storage {
	if key == "" {
		return es
	}
	path := append(append([]string{}, es.path...), ParseKey(key)...)
	return &EnvStorage{storage: es.storage.Sub(key), prefix: es.prefix, path: path, lookup: es.lookup}
}

func (es *EnvStorage) ConvertTo(object any) error {
	if err := es.storage.ConvertTo(object); err != nil {
		return err
	}
	rv := reflect.ValueOf(object)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil
	}
	return es.overlay(rv.Elem(), es.path)
}

func (es *EnvStorage) overlay(rv reflect.Value, path []string) error {
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct || rv.Type() == timeType {
		return nil
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := FieldKey(field)
		if name == "-" {
			continue
		}
		fieldPath := append(append([]string{}, path...), name)
		if field.Anonymous && field.Tag.Get("cfg") == "" {
			fieldPath = path
		}

		value := rv.Field(i)
		if isLeaf(value.Type()) {
			if env, ok := es.lookup(es.EnvName(fieldPath)); ok {
				if err := convertValue(env, value); err != nil {
					return fmt.Errorf("env %s: %w", es.EnvName(fieldPath), err)
				}
			}
			continue
		}
		if err := es.overlay(value, fieldPath); err != nil {
			return err
		}
	}
	return nil
}

// EnvName 计算字段路径对应的环境变量名
func (es *EnvStorage) EnvName(path []string) string {
	parts := make([]string, 0, len(path))
	for _, p := range path {
		parts = append(parts, toUpperSnake(p))
	}
	return es.prefix + strings.Join(parts, "_")
}

func isLeaf(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() != reflect.Struct || t == timeType
}

func toUpperSnake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
			b.WriteByte('_')
		}
		if r == '-' || r == '.' {
			r = '_'
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
