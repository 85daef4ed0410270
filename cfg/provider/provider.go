package provider

import "github.com/terminatorcore/terminator/refx"

const Namespace = "github.com/terminatorcore/terminator/cfg/provider"

func init() {
	refx.MustRegister(Namespace, "FileProvider", NewFileProviderWithOptions)
}

// Provider 配置数据提供者接口
// 负责读取配置数据和监听配置变更
type Provider interface {
	// Load 读取配置数据
	Load() ([]byte, error)
	// OnChange 注册配置数据变更回调函数，不启动监听
	OnChange(fn func(data []byte) error)
	// Watch 启动配置变更监听，只有调用后 OnChange 注册的回调才会被触发
	Watch() error
	// Close 关闭提供者，释放资源
	Close() error
}
