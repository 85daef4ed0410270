package credential

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/terminatorcore/terminator/errs"
	"github.com/terminatorcore/terminator/refx"
)

type countingProvider struct {
	calls int
	cred  *Credential
	err   error
}

func (p *countingProvider) Retrieve(ctx context.Context) (*Credential, error) {
	p.calls++
	return p.cred, p.err
}

func writeCredential(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "ali_ram")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseCredential(t *testing.T) {
	Convey("解析两行凭证", t, func() {
		c, err := ParseCredential([]byte("LTAI-id\r\n  secret-value \n extra\n"))
		So(err, ShouldBeNil)
		So(c.AccessKeyID, ShouldEqual, "LTAI-id")
		So(c.AccessKeySecret, ShouldEqual, "secret-value")

		c, err = ParseCredential([]byte("\n\nid\n\nsecret"))
		So(err, ShouldBeNil)
		So(c.AccessKeySecret, ShouldEqual, "secret")

		_, err = ParseCredential([]byte("only-id\n"))
		So(err, ShouldNotBeNil)
		_, err = ParseCredential(nil)
		So(err, ShouldNotBeNil)
	})

	Convey("输出时隐藏 secret", t, func() {
		c := &Credential{AccessKeyID: "id", AccessKeySecret: "abcdefgh"}
		So(c.String(), ShouldEqual, "id:ab****gh")
		So((&Credential{AccessKeyID: "id", AccessKeySecret: "abc"}).String(), ShouldEqual, "id:****")
		So((*Credential)(nil).String(), ShouldEqual, "<nil>")
		So((*Credential)(nil).Valid(), ShouldBeFalse)
	})
}

func TestFileProvider(t *testing.T) {
	Convey("文件来源", t, func() {
		ctx := context.Background()
		path := writeCredential(t, "id-1\nsecret-1\n")

		p, err := NewFileProviderWithOptions(&FileProviderOptions{Path: path})
		So(err, ShouldBeNil)
		defer p.Close()

		c, err := p.Retrieve(ctx)
		So(err, ShouldBeNil)
		So(c.AccessKeyID, ShouldEqual, "id-1")

		Convey("文件不存在", func() {
			missing, err := NewFileProviderWithOptions(&FileProviderOptions{Path: filepath.Join(t.TempDir(), "none")})
			So(err, ShouldBeNil)
			_, err = missing.Retrieve(ctx)
			So(err, ShouldNotBeNil)
			So(missing.Watch(), ShouldNotBeNil)
		})

		Convey("监听文件变更", func() {
			So(p.Watch(), ShouldBeNil)
			So(p.Watch(), ShouldBeNil)

			So(os.WriteFile(path, []byte("id-2\nsecret-2\n"), 0600), ShouldBeNil)

			deadline := time.Now().Add(3 * time.Second)
			for time.Now().Before(deadline) {
				if c, err := p.Retrieve(ctx); err == nil && c.AccessKeyID == "id-2" {
					break
				}
				time.Sleep(20 * time.Millisecond)
			}
			c, err := p.Retrieve(ctx)
			So(err, ShouldBeNil)
			So(c.AccessKeyID, ShouldEqual, "id-2")
			So(c.AccessKeySecret, ShouldEqual, "secret-2")
		})
	})
}

func TestEnvAndStaticProvider(t *testing.T) {
	Convey("环境变量来源", t, func() {
		t.Setenv("TC_TEST_ID", "env-id")
		t.Setenv("TC_TEST_SECRET", "env-secret")

		c, err := NewEnvProvider("TC_TEST_ID", "TC_TEST_SECRET").Retrieve(context.Background())
		So(err, ShouldBeNil)
		So(c.AccessKeyID, ShouldEqual, "env-id")

		_, err = NewEnvProvider("TC_TEST_ID", "TC_TEST_MISSING").Retrieve(context.Background())
		So(err, ShouldNotBeNil)
	})

	Convey("配置来源", t, func() {
		c, err := NewStaticProvider("s-id", "s-secret").Retrieve(context.Background())
		So(err, ShouldBeNil)
		So(c.AccessKeySecret, ShouldEqual, "s-secret")

		_, err = NewStaticProvider("s-id", "").Retrieve(context.Background())
		So(err, ShouldNotBeNil)

		_, err = NewStaticProviderWithOptions(nil)
		So(err, ShouldNotBeNil)
	})
}

func TestRedisProvider(t *testing.T) {
	Convey("redis 来源", t, func() {
		mr := miniredis.RunT(t)
		mr.HSet("security-credentials:ali_ram", "access_key_id", "r-id", "access_key_secret", "r-secret")

		p, err := NewRedisProviderWithOptions(&RedisProviderOptions{
			Endpoint: mr.Addr(),
			Key:      "security-credentials:ali_ram",
			Timeout:  time.Second,
		})
		So(err, ShouldBeNil)
		defer p.Close()

		c, err := p.Retrieve(context.Background())
		So(err, ShouldBeNil)
		So(c.AccessKeyID, ShouldEqual, "r-id")
		So(c.AccessKeySecret, ShouldEqual, "r-secret")

		Convey("键不存在", func() {
			missing, err := NewRedisProviderWithOptions(&RedisProviderOptions{Endpoint: mr.Addr(), Key: "none"})
			So(err, ShouldBeNil)
			_, err = missing.Retrieve(context.Background())
			So(err, ShouldNotBeNil)
		})

		Convey("参数校验", func() {
			_, err := NewRedisProviderWithOptions(&RedisProviderOptions{})
			So(err, ShouldNotBeNil)
			_, err = NewRedisProviderWithOptions(&RedisProviderOptions{Endpoint: mr.Addr()})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestCachedProvider(t *testing.T) {
	Convey("缓存来源", t, func() {
		inner := &countingProvider{cred: &Credential{AccessKeyID: "c-id", AccessKeySecret: "c-secret"}}
		p := NewCachedProvider(inner, time.Minute, 0)

		for i := 0; i < 3; i++ {
			c, err := p.Retrieve(context.Background())
			So(err, ShouldBeNil)
			So(c.AccessKeyID, ShouldEqual, "c-id")
		}
		So(inner.calls, ShouldEqual, 1)

		p.Invalidate()
		_, err := p.Retrieve(context.Background())
		So(err, ShouldBeNil)
		So(inner.calls, ShouldEqual, 2)

		Convey("下游失败不缓存", func() {
			failing := &countingProvider{err: errors.New("down")}
			fp := NewCachedProvider(failing, time.Minute, 0)
			_, err := fp.Retrieve(context.Background())
			So(err, ShouldNotBeNil)
			_, err = fp.Retrieve(context.Background())
			So(err, ShouldNotBeNil)
			So(failing.calls, ShouldEqual, 2)
		})

		Convey("通过注册表创建", func() {
			cp, err := refx.Build[Provider](&refx.TypeOptions{
				Namespace: Namespace,
				Type:      "CachedProvider",
				Options: &CachedProviderOptions{
					Provider: refx.TypeOptions{
						Namespace: Namespace,
						Type:      "StaticProvider",
						Options:   &StaticProviderOptions{AccessKeyID: "x", AccessKeySecret: "y"},
					},
					TTL: time.Minute,
				},
			})
			So(err, ShouldBeNil)
			c, err := cp.Retrieve(context.Background())
			So(err, ShouldBeNil)
			So(c.AccessKeyID, ShouldEqual, "x")
		})
	})
}

func TestChainProvider(t *testing.T) {
	Convey("调用链", t, func() {
		ctx := context.Background()
		failing := &countingProvider{err: errors.New("no file")}
		incomplete := &countingProvider{cred: &Credential{AccessKeyID: "only-id"}}
		good := &countingProvider{cred: &Credential{AccessKeyID: "g-id", AccessKeySecret: "g-secret"}}
		never := &countingProvider{cred: &Credential{AccessKeyID: "n-id", AccessKeySecret: "n-secret"}}

		c, err := NewChainProvider(failing, incomplete, good, never).Retrieve(ctx)
		So(err, ShouldBeNil)
		So(c.AccessKeyID, ShouldEqual, "g-id")
		So(never.calls, ShouldEqual, 0)

		Convey("全部失败返回服务异常", func() {
			_, err := NewChainProvider(failing, incomplete).Retrieve(ctx)
			So(err, ShouldNotBeNil)
			So(errs.IsService(err), ShouldBeTrue)
			So(errs.CodeOf(err), ShouldEqual, errs.CodeNoCredential)
			So(err.Error(), ShouldContainSubstring, "no file")
			So(err.Error(), ShouldContainSubstring, "incomplete credential")
		})

		Convey("上下文取消", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := NewChainProvider(good).Retrieve(cancelled)
			So(errs.IsService(err), ShouldBeTrue)
		})

		Convey("通过配置创建", func() {
			_, err := NewChainProviderWithOptions(&ChainProviderOptions{})
			So(err, ShouldNotBeNil)

			chain, err := NewChainProviderWithOptions(&ChainProviderOptions{Providers: []refx.TypeOptions{
				{Namespace: Namespace, Type: "EnvProvider", Options: &EnvProviderOptions{IDKey: "TC_NONE_ID", SecretKey: "TC_NONE_SECRET"}},
				{Namespace: Namespace, Type: "StaticProvider", Options: &StaticProviderOptions{AccessKeyID: "cfg-id", AccessKeySecret: "cfg-secret"}},
			}})
			So(err, ShouldBeNil)
			c, err := chain.Retrieve(ctx)
			So(err, ShouldBeNil)
			So(c.AccessKeyID, ShouldEqual, "cfg-id")
			So(chain.Close(), ShouldBeNil)
		})
	})
}

func TestGetAccessKey(t *testing.T) {
	Convey("GetAccessKey", t, func() {
		ctx := context.Background()
		t.Setenv("ACCESS_KEY_ID", "")
		t.Setenv("ACCESS_KEY_SECRET", "")

		Convey("文件优先于配置", func() {
			path := writeCredential(t, "file-id\nfile-secret\n")
			id, secret, err := GetAccessKey(ctx, &Options{File: path, AccessKeyID: "cfg-id", AccessKeySecret: "cfg-secret"})
			So(err, ShouldBeNil)
			So(id, ShouldEqual, "file-id")
			So(secret, ShouldEqual, "file-secret")
		})

		Convey("文件缺失时使用配置", func() {
			id, _, err := GetAccessKey(ctx, &Options{File: filepath.Join(t.TempDir(), "none"), AccessKeyID: "cfg-id", AccessKeySecret: "cfg-secret"})
			So(err, ShouldBeNil)
			So(id, ShouldEqual, "cfg-id")
		})

		Convey("没有任何来源时返回错误而不是内置密钥", func() {
			id, secret, err := GetAccessKey(ctx, &Options{File: filepath.Join(t.TempDir(), "none")})
			So(err, ShouldNotBeNil)
			So(id, ShouldBeEmpty)
			So(secret, ShouldBeEmpty)
		})

		Convey("自定义调用链", func() {
			id, _, err := GetAccessKey(ctx, &Options{Providers: []refx.TypeOptions{
				{Namespace: Namespace, Type: "StaticProvider", Options: &StaticProviderOptions{AccessKeyID: "chain-id", AccessKeySecret: "s"}},
			}})
			So(err, ShouldBeNil)
			So(id, ShouldEqual, "chain-id")
		})
	})
}
