// Package codegen 读取一张表的结构并生成绑定 gorm 的 model、service 和 expose 代码
package codegen

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/terminatorcore/terminator/cfg/validator"
	"github.com/terminatorcore/terminator/codegen/schema"
	"github.com/terminatorcore/terminator/errs"
	"github.com/terminatorcore/terminator/log"
	"github.com/terminatorcore/terminator/rdb"
)

const (
	KindModel   = "model"
	KindService = "service"
	KindExpose  = "expose"
)

type Options struct {
	Table   string `cfg:"table" validate:"required"`
	Project string `cfg:"project" validate:"required"`
	// 支持 ~ 开头的路径
	OutputDir string `cfg:"outputDir" def:"~/Documents"`
	// 三个文件直接写在 OutputDir 下，不创建 entity/model、service、expose 子目录
	Flat   bool           `cfg:"flat"`
	Print  bool           `cfg:"print"`
	Source rdb.SQLOptions `cfg:"source"`
}

type File struct {
	Kind string
	// 相对 OutputDir 的路径
	Path    string
	Content []byte
}

type Generator struct {
	options   Options
	inspector schema.Inspector
	db        *sqlx.DB
	logger    log.Logger
	out       io.Writer
}

// NewGeneratorWithOptions 连接 Source 指定的数据库，调用方负责 Close
func NewGeneratorWithOptions(options *Options) (*Generator, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	if err := validator.ValidateStruct(options); err != nil {
		return nil, errs.WrapBusiness(err, "invalid generator options", errs.CodeInvalidParam)
	}
	db, err := rdb.NewSQLWithOptions(&options.Source)
	if err != nil {
		return nil, errs.WrapService(err, "failed to connect database", errs.CodeInternal)
	}
	inspector, err := schema.NewInspector(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	g := NewGenerator(inspector, options)
	g.db = db
	return g, nil
}

func NewGenerator(inspector schema.Inspector, options *Options) *Generator {
	g := &Generator{inspector: inspector, logger: log.Default(), out: os.Stdout}
	if options != nil {
		g.options = *options
	}
	return g
}

func (g *Generator) SetLogger(logger log.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

// SetOutput 设置 Print 打印 model 代码的目标
func (g *Generator) SetOutput(w io.Writer) {
	if w != nil {
		g.out = w
	}
}

// Generate 读取表结构并渲染三个文件，不写磁盘
func (g *Generator) Generate(ctx context.Context) ([]*File, error) {
	if g.options.Table == "" || g.options.Project == "" {
		return nil, errs.NewBusinessError("table and project are required", errs.CodeInvalidParam)
	}
	table, err := g.inspector.Inspect(ctx, g.options.Table)
	if err != nil {
		return nil, err
	}

	model, err := RenderModel(table)
	if err != nil {
		return nil, errs.WrapService(err, "failed to render model", errs.CodeInternal)
	}
	svc, err := RenderService(table, g.options.Project)
	if err != nil {
		return nil, errs.WrapService(err, "failed to render service", errs.CodeInternal)
	}
	expose, err := RenderExpose(table, g.options.Project)
	if err != nil {
		return nil, errs.WrapService(err, "failed to render expose", errs.CodeInternal)
	}

	return []*File{
		{Kind: KindModel, Path: g.relPath(filepath.Join("entity", "model"), ModelFileName(table.Name)), Content: model},
		{Kind: KindExpose, Path: g.relPath("expose", ExposeFileName(table.Name)), Content: expose},
		{Kind: KindService, Path: g.relPath("service", ServiceFileName(table.Name)), Content: svc},
	}, nil
}

func (g *Generator) relPath(dir, name string) string {
	if g.options.Flat {
		return name
	}
	return filepath.Join(dir, name)
}

// Write 把文件写到 OutputDir，已存在的文件会被覆盖
func (g *Generator) Write(files []*File) error {
	root, err := ExpandHome(g.options.OutputDir)
	if err != nil {
		return err
	}
	for _, f := range files {
		path := filepath.Join(root, f.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return errs.WrapService(err, "failed to create output directory", errs.CodeInternal)
		}
		if err := os.WriteFile(path, f.Content, 0644); err != nil {
			return errs.WrapService(err, "failed to write "+path, errs.CodeInternal)
		}
		g.logger.Info(fmt.Sprintf("Generated %s", path), "kind", f.Kind, "table", g.options.Table)
	}
	return nil
}

// Run 生成并写入文件，Print 为 true 时同时输出 model 代码
func (g *Generator) Run(ctx context.Context) ([]*File, error) {
	files, err := g.Generate(ctx)
	if err != nil {
		return nil, err
	}
	if g.options.Print {
		for _, f := range files {
			if f.Kind == KindModel {
				if _, err := g.out.Write(f.Content); err != nil {
					return nil, errors.Wrap(err, "failed to print model")
				}
			}
		}
	}
	if err := g.Write(files); err != nil {
		return nil, err
	}
	return files, nil
}

func (g *Generator) Close() error {
	if g.db == nil {
		return nil
	}
	return g.db.Close()
}

// ExpandHome 展开 ~ 开头的路径，空路径视为 ~/Documents
func ExpandHome(path string) (string, error) {
	if path == "" {
		path = "~/Documents"
	}
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
