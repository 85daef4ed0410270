package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type sourceOptions struct {
	Driver   string `cfg:"driver" def:"mysql"`
	Host     string `cfg:"host" def:"localhost"`
	Port     int    `cfg:"port" def:"3306"`
	Database string `cfg:"database" validate:"required"`
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewConfig(t *testing.T) {
	Convey("从文件创建配置", t, func() {
		path := writeFile(t, "app.yaml", `
source:
  host: db.local
  database: music_demo
`)
		c, err := NewConfig(path, "")
		So(err, ShouldBeNil)
		defer c.Close()

		var source sourceOptions
		So(c.Sub("source").ConvertTo(&source), ShouldBeNil)
		So(source, ShouldResemble, sourceOptions{Driver: "mysql", Host: "db.local", Port: 3306, Database: "music_demo"})

		Convey("校验失败", func() {
			var missing sourceOptions
			So(c.Sub("other").ConvertTo(&missing), ShouldNotBeNil)
		})

		Convey("多次关闭", func() {
			So(c.Sub("source").Close(), ShouldBeNil)
			So(c.Close(), ShouldBeNil)
		})
	})

	Convey("环境变量覆盖", t, func() {
		path := writeFile(t, "app.toml", "[source]\ndatabase = \"music_demo\"\n")
		t.Setenv("TCTEST_SOURCE_PORT", "3307")
		t.Setenv("TCTEST_SOURCE_HOST", "env.local")

		c, err := NewConfig(path, "TCTEST_")
		So(err, ShouldBeNil)
		defer c.Close()

		var source sourceOptions
		So(c.Sub("source").ConvertTo(&source), ShouldBeNil)
		So(source.Port, ShouldEqual, 3307)
		So(source.Host, ShouldEqual, "env.local")
	})

	Convey("错误输入", t, func() {
		_, err := NewConfig("", "")
		So(err, ShouldNotBeNil)

		_, err = NewConfig("app.xml", "")
		So(err, ShouldNotBeNil)

		_, err = NewConfig(filepath.Join(t.TempDir(), "missing.json"), "")
		So(err, ShouldNotBeNil)

		_, err = NewConfig(writeFile(t, "bad.json", "{"), "")
		So(err, ShouldNotBeNil)

		_, err = NewConfigWithOptions(nil)
		So(err, ShouldNotBeNil)
	})
}

func TestConfigWatch(t *testing.T) {
	Convey("文件变更触发回调", t, func() {
		path := writeFile(t, "app.json", `{"source": {"database": "v1"}}`)
		c, err := NewConfig(path, "")
		So(err, ShouldBeNil)
		defer c.Close()

		changed := make(chan string, 4)
		c.Sub("source").OnChange(func(sub *Config) error {
			var source sourceOptions
			if err := sub.ConvertTo(&source); err != nil {
				return err
			}
			changed <- source.Database
			return nil
		})
		So(c.Watch(), ShouldBeNil)

		So(os.WriteFile(path, []byte(`{"source": {"database": "v2"}}`), 0644), ShouldBeNil)

		select {
		case db := <-changed:
			So(db, ShouldEqual, "v2")
		case <-time.After(3 * time.Second):
			So("timeout waiting for change", ShouldBeEmpty)
		}

		var source sourceOptions
		So(c.Sub("source").ConvertTo(&source), ShouldBeNil)
		So(source.Database, ShouldEqual, "v2")
	})
}
