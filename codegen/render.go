package codegen

import (
	"bytes"
	"embed"
	"go/format"
	"strconv"
	"strings"
	"text/template"

	"github.com/pkg/errors"
	"github.com/terminatorcore/terminator/codegen/schema"
	"github.com/terminatorcore/terminator/version"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

type modelField struct {
	Name    string
	Type    string
	Tag     string
	Comment string
}

type templateData struct {
	Table    string
	Name     string
	Doc      []string
	Fields   []modelField
	NeedTime bool
	Project  string
	Module   string
	Prefix   string
}

// Prefix 生成的 HTTP 接口挂载的路由前缀
func Prefix(table string) string {
	return "api/v1/" + table
}

func newTemplateData(t *schema.Table, project string) *templateData {
	name := TypeName(t.Name)
	data := &templateData{
		Table:   t.Name,
		Name:    name,
		Project: strings.TrimSuffix(project, "/"),
		Module:  version.Module,
		Prefix:  Prefix(t.Name),
	}

	data.Doc = []string{name + " 对应表 " + t.Name}
	if lines := commentLines(t.Comment); len(lines) > 0 {
		data.Doc = append([]string{name + " " + lines[0]}, lines[1:]...)
	}

	columns := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		columns[i] = c.Name
	}
	for i, name := range fieldNames(columns) {
		c := t.Columns[i]
		label := MapColumn(c)
		goType := GoType(label, c.Nullable && !c.Primary)
		if strings.Contains(goType, "time.Time") {
			data.NeedTime = true
		}
		data.Fields = append(data.Fields, modelField{
			Name:    name,
			Type:    goType,
			Tag:     fieldTag(c, label, goType),
			Comment: strings.Join(commentLines(c.Comment), " "),
		})
	}
	return data
}

func fieldTag(c *schema.Column, label FieldType, goType string) string {
	settings := []string{"column:" + escapeTag(c.Name)}
	if label == AutoField || c.Primary {
		settings = append(settings, "primaryKey")
	}
	if c.AutoIncrement || label == AutoField {
		settings = append(settings, "autoIncrement")
	}
	if c.SQLType != "" {
		settings = append(settings, "type:"+escapeTag(c.SQLType))
	}
	if n := MaxLength(c.SQLType); n > 0 {
		settings = append(settings, "size:"+strconv.Itoa(n))
	}
	if !c.Nullable && !c.Primary {
		settings = append(settings, "not null")
	}
	if c.Default != nil && *c.Default != "" {
		settings = append(settings, "default:"+escapeTag(*c.Default))
	}
	if c.Comment != "" {
		settings = append(settings, "comment:"+escapeTag(strings.Join(commentLines(c.Comment), " ")))
	}

	jsonName := c.Name
	if strings.HasPrefix(goType, "*") {
		jsonName += ",omitempty"
	}
	return "gorm:" + strconv.Quote(strings.Join(settings, ";")) + " json:" + strconv.Quote(jsonName)
}

// escapeTag 转义 gorm tag 的分隔符，结构体 tag 写在反引号中所以反引号被替换
func escapeTag(s string) string {
	s = strings.ReplaceAll(s, "`", "'")
	return strings.ReplaceAll(s, ";", `\;`)
}

func commentLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r", ""), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func RenderModel(t *schema.Table) ([]byte, error) {
	return render("model.go.tmpl", newTemplateData(t, ""))
}

func RenderService(t *schema.Table, project string) ([]byte, error) {
	return render("service.go.tmpl", newTemplateData(t, project))
}

func RenderExpose(t *schema.Table, project string) ([]byte, error) {
	return render("expose.go.tmpl", newTemplateData(t, project))
}

func render(name string, data *templateData) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, errors.Wrapf(err, "failed to execute template %s", name)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, errors.Wrapf(err, "generated %s for table %s is not valid go", name, data.Table)
	}
	return src, nil
}
