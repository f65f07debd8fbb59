package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// 可选的缓存后端取值。memory 适用于单实例与测试，redis 对应原有生产部署。
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// GlobalConfig 描述全局运行时行为。
type GlobalConfig struct {
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`

	// CacheTTL 同时作用于 profile 与 analysis 两类键，默认 1800 秒。
	CacheTTL     Duration `mapstructure:"CacheTTL"`
	CacheBackend string   `mapstructure:"CacheBackend"`

	RedisHost     string `mapstructure:"RedisHost"`
	RedisPort     int    `mapstructure:"RedisPort"`
	RedisPassword string `mapstructure:"RedisPassword"`
	RedisDB       int    `mapstructure:"RedisDB"`

	GitHubToken   string `mapstructure:"GitHubToken"`
	GitHubAPIBase string `mapstructure:"GitHubAPIBase"`

	// UpstreamTimeout 为 0 表示不设截止时间，保持对上游的无限等待语义。
	UpstreamTimeout Duration `mapstructure:"UpstreamTimeout"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
}

// RedisAddr 拼接 go-redis 需要的 host:port 形式地址。
func (g GlobalConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", g.RedisHost, g.RedisPort)
}

// AuthMode 输出 `credentialed` 或 `anonymous`，供日志字段使用。
func (g GlobalConfig) AuthMode() string {
	if g.GitHubToken != "" {
		return "credentialed"
	}
	return "anonymous"
}
