package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Store 负责管理带 TTL 的序列化响应缓存。键空间分为两类：
//
//	profile:<username>   # GitHub 原始档案 JSON
//	analysis:<username>  # 语言聚合结果 JSON
//
// Get/Set 的后端故障由调用方降级处理，FlushAll 的失败需要上抛。
type Store interface {
	// Get 返回缓存正文。不存在或已过期时返回 ErrNotFound。
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入缓存正文并设置过期时间。
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// FlushAll 清空全部条目，两个键空间一并失效。
	FlushAll(ctx context.Context) error
}

// ErrNotFound 表示缓存不存在。
var ErrNotFound = errors.New("cache entry not found")

// ProfileKey 返回原始档案资源的缓存键。
func ProfileKey(username string) string {
	return fmt.Sprintf("profile:%s", username)
}

// AnalysisKey 返回聚合分析资源的缓存键。
func AnalysisKey(username string) string {
	return fmt.Sprintf("analysis:%s", username)
}
