package storage

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// MapStorage 基于 map 和 slice 的存储实现，各种解码器的解析结果都包装成它
type MapStorage struct {
	data any
}

func NewMapStorage(data any) *MapStorage {
	return &MapStorage{data: data}
}

// Data 获取存储的原始数据
func (ms *MapStorage) Data() any {
	return ms.data
}

func (ms *MapStorage) Sub(key string) Storage {
	if key == "" {
		return ms
	}
	current := ms.data
	for _, k := range ParseKey(key) {
		current = child(current, k)
		if current == nil {
			break
		}
	}
	return NewMapStorage(current)
}

// ConvertTo 转换后为零值字段填充 def tag 默认值
func (ms *MapStorage) ConvertTo(object any) error {
	rv := reflect.ValueOf(object)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("object must be a non-nil pointer, got %T", object)
	}
	if err := convertValue(ms.data, rv.Elem()); err != nil {
		return err
	}
	return SetDefaults(object)
}

// ParseKey 把 "a.b[0].c" 拆成 ["a", "b", "0", "c"]
func ParseKey(key string) []string {
	var keys []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			keys = append(keys, current.String())
			current.Reset()
		}
	}
	for _, char := range key {
		switch char {
		case '.', '[', ']':
			flush()
		default:
			current.WriteRune(char)
		}
	}
	flush()
	return keys
}

func child(data any, key string) any {
	switch v := data.(type) {
	case map[string]any:
		if value, ok := v[key]; ok {
			return value
		}
		for k, value := range v {
			if strings.EqualFold(k, key) {
				return value
			}
		}
	case map[any]any:
		return v[key]
	case []any:
		index, err := strconv.Atoi(key)
		if err != nil || index < 0 || index >= len(v) {
			return nil
		}
		return v[index]
	}
	return nil
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

// FieldKey 返回结构体字段在配置中的键名，"-" 表示忽略
func FieldKey(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("cfg"); ok {
		if name := strings.Split(tag, ",")[0]; name != "" {
			return name
		}
	}
	return field.Name
}

func convertValue(src any, dst reflect.Value) error {
	if src == nil {
		return nil
	}

	switch dst.Kind() {
	case reflect.Ptr:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return convertValue(src, dst.Elem())
	case reflect.Interface:
		value := src
		// 嵌套配置保持为 Storage，延迟到构造对象时再转换为具体的参数类型
		switch src.(type) {
		case map[string]any, map[any]any, []any:
			value = NewValidateStorage(NewMapStorage(src))
		}
		rv := reflect.ValueOf(value)
		if !rv.Type().AssignableTo(dst.Type()) {
			return fmt.Errorf("cannot assign %T to %v", value, dst.Type())
		}
		dst.Set(rv)
		return nil
	}

	switch dst.Type() {
	case durationType:
		d, err := toDuration(src)
		if err != nil {
			return err
		}
		dst.SetInt(int64(d))
		return nil
	case timeType:
		t, err := toTime(src)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(t))
		return nil
	}

	switch dst.Kind() {
	case reflect.Struct:
		return convertStruct(src, dst)
	case reflect.Map:
		return convertMap(src, dst)
	case reflect.Slice:
		return convertSlice(src, dst)
	case reflect.String:
		dst.SetString(fmt.Sprint(src))
		return nil
	case reflect.Bool:
		b, err := strconv.ParseBool(fmt.Sprint(src))
		if err != nil {
			return fmt.Errorf("cannot convert %v to bool", src)
		}
		dst.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f, err := toFloat(src)
		if err != nil {
			return err
		}
		if dst.OverflowInt(int64(f)) {
			return fmt.Errorf("value %v overflows %v", src, dst.Type())
		}
		dst.SetInt(int64(f))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f, err := toFloat(src)
		if err != nil {
			return err
		}
		if f < 0 || dst.OverflowUint(uint64(f)) {
			return fmt.Errorf("value %v overflows %v", src, dst.Type())
		}
		dst.SetUint(uint64(f))
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := toFloat(src)
		if err != nil {
			return err
		}
		dst.SetFloat(f)
		return nil
	}

	rv := reflect.ValueOf(src)
	if rv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(rv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("cannot convert %T to %v", src, dst.Type())
}

func convertStruct(src any, dst reflect.Value) error {
	if rv := reflect.ValueOf(src); rv.Type() == dst.Type() {
		dst.Set(rv)
		return nil
	}

	rt := dst.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := FieldKey(field)
		if name == "-" {
			continue
		}
		// 未指定 cfg tag 的匿名字段展开到当前层级
		if field.Anonymous && field.Tag.Get("cfg") == "" {
			if err := convertValue(src, dst.Field(i)); err != nil {
				return err
			}
			continue
		}
		value := child(src, name)
		if value == nil {
			continue
		}
		if err := convertValue(value, dst.Field(i)); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
	}
	return nil
}

func convertMap(src any, dst reflect.Value) error {
	if dst.IsNil() {
		dst.Set(reflect.MakeMap(dst.Type()))
	}
	set := func(k, v any) error {
		key := reflect.New(dst.Type().Key()).Elem()
		if err := convertValue(k, key); err != nil {
			return err
		}
		value := reflect.New(dst.Type().Elem()).Elem()
		if err := convertValue(v, value); err != nil {
			return fmt.Errorf("key %v: %w", k, err)
		}
		dst.SetMapIndex(key, value)
		return nil
	}
	switch m := src.(type) {
	case map[string]any:
		for k, v := range m {
			if err := set(k, v); err != nil {
				return err
			}
		}
	case map[any]any:
		for k, v := range m {
			if err := set(k, v); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("cannot convert %T to %v", src, dst.Type())
	}
	return nil
}

func convertSlice(src any, dst reflect.Value) error {
	var items []any
	switch v := src.(type) {
	case []any:
		items = v
	case string:
		// 环境变量等来源只有字符串，按逗号拆分
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
	default:
		rv := reflect.ValueOf(src)
		if rv.Kind() != reflect.Slice {
			return fmt.Errorf("cannot convert %T to %v", src, dst.Type())
		}
		for i := 0; i < rv.Len(); i++ {
			items = append(items, rv.Index(i).Interface())
		}
	}

	out := reflect.MakeSlice(dst.Type(), len(items), len(items))
	for i, item := range items {
		if err := convertValue(item, out.Index(i)); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	dst.Set(out)
	return nil
}

func toFloat(src any) (float64, error) {
	switch v := src.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to number", v)
		}
		return f, nil
	}
	rv := reflect.ValueOf(src)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return 0, fmt.Errorf("cannot convert %T to number", src)
}

func toDuration(src any) (time.Duration, error) {
	switch v := src.(type) {
	case time.Duration:
		return v, nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", v, err)
		}
		return d, nil
	}
	f, err := toFloat(src)
	if err != nil {
		return 0, err
	}
	return time.Duration(f), nil
}

func toTime(src any) (time.Time, error) {
	switch v := src.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateTime, time.DateOnly} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("invalid time %q", v)
	}
	f, err := toFloat(src)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(f), 0), nil
}
