package server

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/octo-lens/octo-lens/internal/upstream"
)

// apiError 是所有用户可见失败的固定形状，extra 未用时保持空对象，
// 客户端可以无条件解构。
type apiError struct {
	Status int               `json:"status"`
	Detail string            `json:"detail"`
	Extra  map[string]string `json:"extra"`
}

func newAPIError(status int, detail string) apiError {
	return apiError{
		Status: status,
		Detail: detail,
		Extra:  map[string]string{},
	}
}

func writeAPIError(c fiber.Ctx, e apiError) error {
	return c.Status(e.Status).JSON(e)
}

// classifyUpstreamError 把上游失败归一化为响应。带状态码的失败按策略
// 映射，网络层失败一律 500。错误不缓存、不重试。
func classifyUpstreamError(err error) apiError {
	var statusErr *upstream.StatusError
	if !errors.As(err, &statusErr) {
		return newAPIError(http.StatusInternalServerError, "Network error: failed to reach GitHub")
	}

	switch statusErr.StatusCode {
	case http.StatusNotFound:
		resource := statusErr.Resource
		if resource == "" {
			resource = "resource"
		}
		return newAPIError(http.StatusNotFound, resource+" not found")
	case http.StatusTooManyRequests:
		e := newAPIError(http.StatusTooManyRequests, "GitHub rate limit exceeded")
		e.Extra["remaining"] = statusErr.RateLimitRemaining()
		return e
	case http.StatusBadRequest:
		return newAPIError(http.StatusBadRequest, "Invalid upstream request")
	default:
		// 其余非 2xx 状态原样透传，detail 保持通用文案。
		return newAPIError(statusErr.StatusCode, "GitHub API error")
	}
}
