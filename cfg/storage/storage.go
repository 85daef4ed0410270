// Package storage 把解码后的配置数据绑定到结构体
package storage

// Storage 可以按键取子树的配置数据，键形如 "database.replicas[0].host"
type Storage interface {
	Sub(key string) Storage
	ConvertTo(object any) error
}
