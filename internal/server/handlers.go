package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/octo-lens/octo-lens/internal/analyze"
	"github.com/octo-lens/octo-lens/internal/cache"
	"github.com/octo-lens/octo-lens/internal/logging"
)

// ProfileFetcher 是 /github 透传路径需要的最小上游能力，测试注入替身用。
type ProfileFetcher interface {
	FetchUserRaw(ctx context.Context, username string) ([]byte, error)
}

// Handler 负责 orchestrate “缓存命中 → 回源 → 写缓存” 的全流程，
// 两类资源复用同一套模板，仅 produce 函数与键空间不同。
type Handler struct {
	fetcher  ProfileFetcher
	analyzer *analyze.Analyzer
	store    cache.Store
	ttl      time.Duration
	logger   *logrus.Logger
}

// NewHandler 构造请求处理器，缓存实例与上游客户端由外部注入。
func NewHandler(fetcher ProfileFetcher, analyzer *analyze.Analyzer, store cache.Store, ttl time.Duration, logger *logrus.Logger) *Handler {
	return &Handler{
		fetcher:  fetcher,
		analyzer: analyzer,
		store:    store,
		ttl:      ttl,
		logger:   logger,
	}
}

// Profile 处理 GET /github：透传（可能缓存过的）GitHub 用户档案。
func (h *Handler) Profile(c fiber.Ctx) error {
	return h.serveCached(c, "profile", cache.ProfileKey, func(ctx context.Context, username string) ([]byte, error) {
		return h.fetcher.FetchUserRaw(ctx, username)
	})
}

// Analyze 处理 GET /analyze：返回（可能缓存过的）语言聚合档案。
func (h *Handler) Analyze(c fiber.Ctx) error {
	return h.serveCached(c, "analysis", cache.AnalysisKey, func(ctx context.Context, username string) ([]byte, error) {
		profile, err := h.analyzer.Analyze(ctx, username)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(profile)
		if err != nil {
			return nil, fmt.Errorf("encode analysis: %w", err)
		}
		return body, nil
	})
}

// ClearCache 处理 POST /clear-cache：绕过按键协议，整体清空缓存。
// 这是唯一会把缓存后端故障暴露给调用方的操作。
func (h *Handler) ClearCache(c fiber.Ctx) error {
	requestID := RequestID(c)
	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := h.store.FlushAll(ctx); err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"action":     "cache_flush_failed",
			"request_id": requestID,
		}).Error("缓存清空失败")
		return writeAPIError(c, newAPIError(http.StatusInternalServerError, "Failed to clear cache"))
	}

	h.logger.WithFields(logrus.Fields{
		"action":     "cache_flush",
		"request_id": requestID,
	}).Info("缓存已清空")
	return c.JSON(fiber.Map{"detail": "Cache cleared successfully"})
}

// serveCached 执行 cache-then-fetch 模板：读缓存失败一律按未命中处理，
// 写缓存失败只记日志，新结果照常返回。错误响应从不写入缓存。
func (h *Handler) serveCached(
	c fiber.Ctx,
	resource string,
	keyFn func(string) string,
	produce func(context.Context, string) ([]byte, error),
) error {
	started := time.Now()
	requestID := RequestID(c)

	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		return writeAPIError(c, newAPIError(http.StatusBadRequest, "username is required"))
	}

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	key := keyFn(username)

	cached, err := h.store.Get(ctx, key)
	switch {
	case err == nil:
		return h.respond(c, resource, username, requestID, cached, true, started)
	case errors.Is(err, cache.ErrNotFound):
		// miss, continue
	default:
		h.logger.WithError(err).WithFields(logrus.Fields{
			"action":   "cache_get_failed",
			"resource": resource,
			"username": username,
		}).Warn("缓存读取失败，按未命中处理")
	}

	fresh, err := produce(ctx, username)
	if err != nil {
		apiErr := classifyUpstreamError(err)
		h.logResult(resource, username, requestID, apiErr.Status, false, started, err)
		return writeAPIError(c, apiErr)
	}

	if err := h.store.Set(ctx, key, fresh, h.ttl); err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"action":   "cache_set_failed",
			"resource": resource,
			"username": username,
		}).Warn("缓存写入失败，新结果照常返回")
	}

	return h.respond(c, resource, username, requestID, fresh, false, started)
}

func (h *Handler) respond(
	c fiber.Ctx,
	resource string,
	username string,
	requestID string,
	body []byte,
	cacheHit bool,
	started time.Time,
) error {
	if cacheHit {
		c.Set("X-Cache", "HIT")
	} else {
		c.Set("X-Cache", "MISS")
	}
	c.Set("Content-Type", "application/json")

	h.logResult(resource, username, requestID, fiber.StatusOK, cacheHit, started, nil)
	return c.Status(fiber.StatusOK).Send(body)
}

func (h *Handler) logResult(
	resource string,
	username string,
	requestID string,
	status int,
	cacheHit bool,
	started time.Time,
	err error,
) {
	fields := logging.RequestFields(resource, username, cacheHit)
	fields["action"] = "serve"
	fields["status"] = status
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if requestID != "" {
		fields["request_id"] = requestID
	}
	if err != nil {
		fields["error"] = err.Error()
		h.logger.WithFields(fields).Error("request_failed")
		return
	}
	h.logger.WithFields(fields).Info("request_complete")
}
