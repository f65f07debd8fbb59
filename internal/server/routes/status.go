package routes

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/octo-lens/octo-lens/internal/version"
)

// StatusInfo 汇总诊断接口需要暴露的运行参数。
type StatusInfo struct {
	CacheBackend string
	CacheTTL     time.Duration
	StartedAt    time.Time
}

// RegisterStatusRoutes 暴露 /-/status 诊断接口，供运维查询运行状态。
func RegisterStatusRoutes(app *fiber.App, info StatusInfo) {
	if app == nil {
		return
	}

	app.Get("/-/status", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"version":        version.Full(),
			"cache_backend":  info.CacheBackend,
			"cache_ttl_secs": int64(info.CacheTTL / time.Second),
			"uptime_secs":    int64(time.Since(info.StartedAt) / time.Second),
		})
	})
}
