// Package config 提供基于环境变量的应用配置加载功能。
// 配置来源优先级：进程环境变量 > .env 文件 > 代码内默认值。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig 应用基础配置
type AppConfig struct {
	Name            string
	Env             string // dev, test, prod
	Version         string
	Port            int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string // debug, info, warn, error
	Encoding string // json, console
}

// DatabaseConfig 数据库连接配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig Redis连接配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Enabled bool
	Type    string // redis, memory
	TTL     time.Duration
}

// JWTConfig 会话令牌签名配置
type JWTConfig struct {
	Secret     string
	SessionTTL time.Duration
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// MigrationsConfig 数据库迁移配置
type MigrationsConfig struct {
	Dir string
}

// AuthConfig 上游身份提供方配置
// 会话交换接口通过该地址校验前端传入的会话ID。
type AuthConfig struct {
	ProviderURL string
	Timeout     time.Duration
	// 启动时确保存在的本地管理员账号；两者皆为空则跳过引导
	AdminEmail    string
	AdminPassword string
}

// NotifyConfig 邮件通知配置
type NotifyConfig struct {
	Enabled          bool
	SMTPHost         string
	SMTPPort         int
	Username         string
	Password         string
	From             string
	DefaultRecipient string // 店铺配置缺失时的兜底收件人
	QueueSize        int
}

// VerifyConfig 手机验证配置
type VerifyConfig struct {
	CodeTTL    time.Duration // 待验证码的有效期，超时按不存在处理
	RateLimit  int64         // 单个来源在窗口内允许的发码次数
	RateWindow time.Duration
}

// UploadConfig 媒体文件上传配置
type UploadConfig struct {
	Dir     string // 本地存储目录
	BaseURL string // 对外访问前缀
}

// Config 汇总所有配置节
type Config struct {
	App        AppConfig
	Log        LogConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Migrations MigrationsConfig
	Auth       AuthConfig
	Notify     NotifyConfig
	Verify     VerifyConfig
	Upload     UploadConfig
}

// Load 加载并校验配置
// .env 文件不存在不视为错误，便于容器环境直接注入环境变量。
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:            getEnv("APP_NAME", "sales-web-page"),
			Env:             getEnv("APP_ENV", "dev"),
			Version:         getEnv("APP_VERSION", "0.1.0"),
			Port:            getEnvInt("APP_PORT", 8080),
			RequestTimeout:  getEnvDuration("APP_REQUEST_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "127.0.0.1"),
			Port:     getEnvInt("DB_PORT", 3306),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "sales"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "127.0.0.1"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Enabled: getEnvBool("CACHE_ENABLED", true),
			Type:    getEnv("CACHE_TYPE", "redis"),
			TTL:     getEnvDuration("CACHE_TTL", 5*time.Minute),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			SessionTTL: getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvList("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "X-Request-ID", "X-Session-ID"}),
		},
		Migrations: MigrationsConfig{
			Dir: getEnv("MIGRATIONS_DIR", "migrations"),
		},
		Auth: AuthConfig{
			ProviderURL:   getEnv("AUTH_PROVIDER_URL", ""),
			Timeout:       getEnvDuration("AUTH_PROVIDER_TIMEOUT", 10*time.Second),
			AdminEmail:    getEnv("ADMIN_EMAIL", ""),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
		Notify: NotifyConfig{
			Enabled:          getEnvBool("NOTIFY_ENABLED", false),
			SMTPHost:         getEnv("SMTP_HOST", ""),
			SMTPPort:         getEnvInt("SMTP_PORT", 587),
			Username:         getEnv("SMTP_USERNAME", ""),
			Password:         getEnv("SMTP_PASSWORD", ""),
			From:             getEnv("SMTP_FROM", ""),
			DefaultRecipient: getEnv("NOTIFY_DEFAULT_RECIPIENT", ""),
			QueueSize:        getEnvInt("NOTIFY_QUEUE_SIZE", 64),
		},
		Verify: VerifyConfig{
			CodeTTL:    getEnvDuration("VERIFY_CODE_TTL", 10*time.Minute),
			RateLimit:  int64(getEnvInt("VERIFY_RATE_LIMIT", 5)),
			RateWindow: getEnvDuration("VERIFY_RATE_WINDOW", time.Minute),
		},
		Upload: UploadConfig{
			Dir:     getEnv("UPLOAD_DIR", "uploads"),
			BaseURL: getEnv("UPLOAD_BASE_URL", "/uploads"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate 校验关键配置项
func (c *Config) validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid APP_PORT: %d", c.App.Port)
	}
	if c.JWT.Secret == "" && c.App.Env == "prod" {
		return fmt.Errorf("JWT_SECRET is required in prod")
	}
	if c.JWT.Secret == "" {
		// 非生产环境允许空密钥，退化为固定开发密钥
		c.JWT.Secret = "dev-secret-do-not-use-in-prod"
	}
	if c.Notify.Enabled && c.Notify.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST is required when NOTIFY_ENABLED=true")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}
