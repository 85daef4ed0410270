package codegen

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/terminatorcore/terminator/codegen/schema"
)

// FieldType 列对应的字段类型标签
type FieldType string

const (
	AutoField         FieldType = "AutoField"
	IntegerField      FieldType = "IntegerField"
	SmallIntegerField FieldType = "SmallIntegerField"
	CharField         FieldType = "CharField"
	TextField         FieldType = "TextField"
	DateTimeField     FieldType = "DateTimeField"
	DateField         FieldType = "DateField"
	FloatField        FieldType = "FloatField"
	DecimalField      FieldType = "DecimalField"
)

// 按顺序匹配，第一个命中的规则生效
// "int" 排在 "smallint" 之前，所以 smallint、bigint 都会得到 IntegerField
var typeRules = []struct {
	substr string
	label  FieldType
}{
	{"int", IntegerField},
	{"smallint", SmallIntegerField},
	{"varchar", CharField},
	{"text", TextField},
	{"datetime", DateTimeField},
	{"date", DateField},
	{"float", FloatField},
	{"decimal", DecimalField},
}

var goTypes = map[FieldType]string{
	AutoField:         "int64",
	IntegerField:      "int64",
	SmallIntegerField: "int16",
	CharField:         "string",
	TextField:         "string",
	DateTimeField:     "time.Time",
	DateField:         "time.Time",
	FloatField:        "float64",
	DecimalField:      "string",
}

// MapType 把 SQL 类型映射为字段类型标签，没有命中任何规则时为 TextField
func MapType(sqlType string) FieldType {
	lower := strings.ToLower(sqlType)
	for _, rule := range typeRules {
		if strings.Contains(lower, rule.substr) {
			return rule.label
		}
	}
	return TextField
}

// MapColumn 与 MapType 相同，但整数主键是 AutoField
func MapColumn(c *schema.Column) FieldType {
	if c.Primary && strings.Contains(strings.ToLower(c.SQLType), "int") {
		return AutoField
	}
	return MapType(c.SQLType)
}

// GoType 返回标签对应的 Go 类型，可空时为指针
func GoType(label FieldType, nullable bool) string {
	t, ok := goTypes[label]
	if !ok {
		t = "string"
	}
	if nullable {
		return "*" + t
	}
	return t
}

var varcharSize = regexp.MustCompile(`(?i)varchar\s*\(\s*(\d+)\s*\)`)

// MaxLength 返回 varchar(N) 中的 N，其他类型返回 0
func MaxLength(sqlType string) int {
	m := varcharSize.FindStringSubmatch(sqlType)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
