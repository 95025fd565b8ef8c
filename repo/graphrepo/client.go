// Package graphrepo 提供基于图数据库（Neo4j）的关注关系仓储。
//
// 关注图天然是图查询负载：两跳邻居、共同关注都是单条 Cypher。
// 仓储通过 Client 窄接口访问图引擎，测试时可替换为内存实现。
package graphrepo

import (
	"context"
	"errors"
)

// Client 是仓储访问图引擎所需的最小契约。
type Client interface {
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result 是一次查询的简化响应。
type Result struct {
	Records []Record
}

// Record 是图引擎返回的一行键值对。
type Record map[string]any

// Options 配置图客户端。
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// ErrMissingURI 表示未提供图数据库地址。
var ErrMissingURI = errors.New("graph URI is required")

// Int64 读取记录中的整型字段，图驱动返回的整数统一为 int64。
func (r Record) Int64(key string) (int64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

// Bool 读取记录中的布尔字段。
func (r Record) Bool(key string) (bool, bool) {
	v, ok := r[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}
