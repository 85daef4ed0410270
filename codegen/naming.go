package codegen

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SnakeToCamel track_type -> TrackType，每段首字母大写其余小写，空段忽略
func SnakeToCamel(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "_") {
		if part == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(strings.ToLower(part[size:]))
	}
	return b.String()
}

func ModelFileName(table string) string   { return strings.ToLower(table) + ".go" }
func ExposeFileName(table string) string  { return strings.ToLower(table) + "_expose.go" }
func ServiceFileName(table string) string { return strings.ToLower(table) + "_service.go" }

// TypeName 表名对应的 model 类型名，$ 等非字母数字字符按分隔符处理
func TypeName(table string) string {
	return exported(table, "T", "Table")
}

// exported 把 s 转成导出的 Go 标识符，首字符不是大写字母时加 prefix，转换后为空时返回 fallback
func exported(s, prefix, fallback string) string {
	name := SnakeToCamel(strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, s))
	if name == "" {
		return fallback
	}
	if r, _ := utf8.DecodeRuneInString(name); !unicode.IsUpper(r) {
		name = prefix + name
	}
	return name
}

// fieldNames 把列名转成导出的字段名，处理数字开头和转换后重名
// TableName 留给生成的方法
func fieldNames(columns []string) []string {
	names := make([]string, len(columns))
	seen := map[string]int{"TableName": 1}
	for i, column := range columns {
		name := exported(column, "F", "Field")
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name += strconv.Itoa(n)
		} else {
			seen[name] = 1
		}
		names[i] = name
	}
	return names
}
