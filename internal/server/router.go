package server

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger     *logrus.Logger
	Handler    *Handler
	ListenPort int
}

const contextKeyRequestID = "_octolens_request_id"

// NewApp builds the Fiber application with the middleware chain and the three
// public routes. Fiber 不启用 ETag 中间件：缓存命中必须返回完整 200 正文，
// 不允许被条件请求的 304 短路。
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Handler == nil {
		return nil, errors.New("handler is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	// 前端跨域调用需要能读到 X-Cache 命中标记。
	app.Use(cors.New(cors.Config{
		ExposeHeaders: []string{"X-Cache", "X-Request-ID"},
	}))
	app.Use(requestIDMiddleware())

	app.Get("/github", opts.Handler.Profile)
	app.Get("/analyze", opts.Handler.Analyze)
	app.Post("/clear-cache", opts.Handler.ClearCache)

	return app, nil
}

// requestIDMiddleware 为每个请求生成 ID 并回写响应头。
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
