package version

import (
	"runtime/debug"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDependencies(t *testing.T) {
	Convey("依赖列表", t, func() {
		orig := readBuildInfo
		defer func() { readBuildInfo = orig }()

		Convey("没有构建信息时使用声明的列表", func() {
			readBuildInfo = func() (*debug.BuildInfo, bool) { return nil, false }
			deps := Dependencies()
			So(deps, ShouldHaveLength, len(declared))
			So(deps[0].Path, ShouldEqual, "github.com/BurntSushi/toml")

			deps[0].Path = "changed"
			So(declared[0].Path, ShouldEqual, "github.com/BurntSushi/toml")
		})

		Convey("读取构建信息，只保留直接依赖并处理 replace", func() {
			readBuildInfo = func() (*debug.BuildInfo, bool) {
				return &debug.BuildInfo{Deps: []*debug.Module{
					{Path: "gorm.io/gorm", Version: "v1.31.0"},
					{Path: "golang.org/x/sys", Version: "v0.36.0"},
					{Path: "github.com/gopherjs/gopherjs", Version: "v1.17.2"},
					{Path: "github.com/pkg/errors", Version: "v0.9.1", Replace: &debug.Module{Path: "github.com/fork/errors", Version: "v0.9.2"}},
				}}, true
			}
			deps := Dependencies()
			So(deps, ShouldResemble, []Dependency{
				{Path: "github.com/fork/errors", Version: "v0.9.2"},
				{Path: "gorm.io/gorm", Version: "v1.31.0"},
			})
			So(String(), ShouldContainSubstring, "github.com/fork/errors v0.9.2")
			So(String(), ShouldNotContainSubstring, "golang.org/x/sys")
		})

		So(String(), ShouldContainSubstring, Name+" "+Version)
		So(String(), ShouldContainSubstring, "license: MIT")
	})
}
