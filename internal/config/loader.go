package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取并解析 TOML 配置文件，同时注入默认值、环境变量与校验逻辑。
// 配置文件缺失不是错误：凭 GITHUB_TOKEN / REDIS_* 等环境变量即可启动。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 3001)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("CacheTTL", 1800)
	v.SetDefault("CacheBackend", CacheBackendMemory)
	v.SetDefault("RedisHost", "127.0.0.1")
	v.SetDefault("RedisPort", 6379)
	v.SetDefault("RedisPassword", "")
	v.SetDefault("RedisDB", 0)
	v.SetDefault("GitHubToken", "")
	v.SetDefault("GitHubAPIBase", "https://api.github.com")
	v.SetDefault("UpstreamTimeout", 0)
}

// bindEnv 让密钥类配置无需写进 TOML 文件，兼容原部署使用的环境变量名。
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("GitHubToken", "GITHUB_TOKEN")
	_ = v.BindEnv("RedisHost", "REDIS_HOST")
	_ = v.BindEnv("RedisPort", "REDIS_PORT")
	_ = v.BindEnv("RedisPassword", "REDIS_PASSWORD")
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 3001
	}
	if g.CacheTTL.DurationValue() == 0 {
		g.CacheTTL = Duration(1800 * time.Second)
	}
	if g.CacheBackend == "" {
		g.CacheBackend = CacheBackendMemory
	}
	g.CacheBackend = strings.ToLower(strings.TrimSpace(g.CacheBackend))
	if g.GitHubAPIBase == "" {
		g.GitHubAPIBase = "https://api.github.com"
	}
	g.GitHubAPIBase = strings.TrimSuffix(g.GitHubAPIBase, "/")
}

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("ListenPort", "必须在 1-65535")
	}
	if g.CacheTTL.DurationValue() <= 0 {
		return newFieldError("CacheTTL", "必须大于 0")
	}
	switch g.CacheBackend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if g.RedisHost == "" {
			return newFieldError("RedisHost", "redis 后端需要指定主机")
		}
		if g.RedisPort <= 0 || g.RedisPort > 65535 {
			return newFieldError("RedisPort", "必须在 1-65535")
		}
	default:
		return newFieldError("CacheBackend", "仅支持 memory|redis")
	}
	if g.GitHubAPIBase == "" {
		return newFieldError("GitHubAPIBase", "不能为空")
	}
	if g.UpstreamTimeout.DurationValue() < 0 {
		return newFieldError("UpstreamTimeout", "不能为负数")
	}

	return nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
