package upstream

import (
	"fmt"
	"net/http"
	"strings"
)

// StatusError 表示上游返回了非 2xx 状态码。Resource 标记第一层失败的资源
// 名称（user/repositories/languages），供错误归一化层拼接 detail 文案。
type StatusError struct {
	Resource   string
	StatusCode int
	Header     http.Header
}

func (e *StatusError) Error() string {
	resource := e.Resource
	if resource == "" {
		resource = "resource"
	}
	return fmt.Sprintf("github %s request failed with status %d", resource, e.StatusCode)
}

// RateLimitRemaining 读取剩余配额头；缺失时按约定返回 "0"。
func (e *StatusError) RateLimitRemaining() string {
	if e.Header != nil {
		if remaining := strings.TrimSpace(e.Header.Get("X-Ratelimit-Remaining")); remaining != "" {
			return remaining
		}
	}
	return "0"
}
