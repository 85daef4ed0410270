// Package version 描述 TerminatorCore 的发布信息，对应 go.mod 之外的打包元数据
package version

import (
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
)

const (
	Name        = "TerminatorCore"
	Module      = "github.com/terminatorcore/terminator"
	Version     = "0.1.0"
	Description = "gorm 增强：按表生成 model/service/expose 代码，附带凭证读取和错误分类工具"
	Author      = "bw.song"
	License     = "MIT"
	GoVersion   = "1.25"
)

type Dependency struct {
	Path    string
	Version string
}

func (d Dependency) String() string {
	return d.Path + " " + d.Version
}

// declared go.mod 中编译进二进制的直接依赖，构建信息不可用时直接返回
var declared = []Dependency{
	{"github.com/BurntSushi/toml", "v1.5.0"},
	{"github.com/coocood/freecache", "v1.2.4"},
	{"github.com/fsnotify/fsnotify", "v1.9.0"},
	{"github.com/go-chi/chi/v5", "v5.2.3"},
	{"github.com/go-playground/validator/v10", "v10.27.0"},
	{"github.com/go-sql-driver/mysql", "v1.8.1"},
	{"github.com/google/uuid", "v1.6.0"},
	{"github.com/jmoiron/sqlx", "v1.4.0"},
	{"github.com/mattn/go-sqlite3", "v1.14.22"},
	{"github.com/pkg/errors", "v0.9.1"},
	{"github.com/prometheus/client_golang", "v1.15.0"},
	{"github.com/redis/go-redis/v9", "v9.14.0"},
	{"github.com/spf13/cobra", "v1.10.2"},
	{"github.com/vmihailenco/msgpack/v5", "v5.4.1"},
	{"go.opentelemetry.io/otel", "v1.38.0"},
	{"go.opentelemetry.io/otel/trace", "v1.38.0"},
	{"gopkg.in/ini.v1", "v1.67.0"},
	{"gopkg.in/natefinch/lumberjack.v2", "v2.2.1"},
	{"gopkg.in/yaml.v3", "v3.0.1"},
	{"gorm.io/driver/mysql", "v1.6.0"},
	{"gorm.io/driver/sqlite", "v1.6.0"},
	{"gorm.io/gorm", "v1.31.0"},
}

var readBuildInfo = debug.ReadBuildInfo

// Dependencies 返回编译进当前二进制的直接依赖，按路径排序
// 只保留 declared 中的模块，间接依赖不输出，replace 后的模块按替换结果展示
func Dependencies() []Dependency {
	info, ok := readBuildInfo()
	if !ok || len(info.Deps) == 0 {
		return append([]Dependency(nil), declared...)
	}
	direct := make(map[string]bool, len(declared))
	for _, dep := range declared {
		direct[dep.Path] = true
	}
	deps := make([]Dependency, 0, len(declared))
	for _, dep := range info.Deps {
		if !direct[dep.Path] {
			continue
		}
		if dep.Replace != nil {
			dep = dep.Replace
		}
		deps = append(deps, Dependency{Path: dep.Path, Version: dep.Version})
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Path < deps[j].Path })
	return deps
}

// String 多行文本，供命令行 version 子命令输出
func String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", Name, Version)
	fmt.Fprintf(&b, "%s\n", Description)
	fmt.Fprintf(&b, "author: %s\nlicense: %s\ngo: >= %s\n", Author, License, GoVersion)
	b.WriteString("dependencies:\n")
	for _, dep := range Dependencies() {
		fmt.Fprintf(&b, "  %s\n", dep)
	}
	return b.String()
}
