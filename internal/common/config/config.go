// Package config 从 YAML、.env 与环境变量装配配置
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// defaultJWTSecret 仅用于开发，release 模式下拒绝启动
const defaultJWTSecret = "change-me-in-production"

// Config 应用配置
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Crypto      CryptoConfig      `mapstructure:"crypto"`
	Mail        MailConfig        `mapstructure:"mail"`
	SMS         SMSConfig         `mapstructure:"sms"`
	OSS         OSSConfig         `mapstructure:"oss"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	CORS        CORSConfig        `mapstructure:"cors"`
	HelpCenter  HelpCenterConfig  `mapstructure:"helpcenter"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Name            string `mapstructure:"name"`
	Mode            string `mapstructure:"mode"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64  `mapstructure:"max_body_size"`
	// TrustedProxies 可信反向代理地址或网段，为空时不信任任何转发头
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Path            string `mapstructure:"path"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogMode         bool   `mapstructure:"log_mode"`
	SlowThreshold   int    `mapstructure:"slow_threshold"`
}

// DSN 返回数据库连接字符串
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, d.Timezone,
	)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  int    `mapstructure:"dial_timeout"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// Addr 返回 Redis 地址
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret             string `mapstructure:"secret"`
	AccessTokenExpire  int    `mapstructure:"access_token_expire"`
	RefreshTokenExpire int    `mapstructure:"refresh_token_expire"`
	Issuer             string `mapstructure:"issuer"`
}

// AccessTokenDuration 返回访问令牌有效期
func (j *JWTConfig) AccessTokenDuration() time.Duration {
	return time.Duration(j.AccessTokenExpire) * time.Hour
}

// RefreshTokenDuration 返回刷新令牌有效期
func (j *JWTConfig) RefreshTokenDuration() time.Duration {
	return time.Duration(j.RefreshTokenExpire) * time.Hour
}

// CryptoConfig 加密配置
type CryptoConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// MailConfig 邮件配置
type MailConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	FromAddress    string `mapstructure:"from_address"`
	FromName       string `mapstructure:"from_name"`
	AdminAddress   string `mapstructure:"admin_address"`
	SupportAddress string `mapstructure:"support_address"`
	SiteURL        string `mapstructure:"site_url"`
	DialTimeout    int    `mapstructure:"dial_timeout"`
}

// Configured SMTP 是否已配置
func (m *MailConfig) Configured() bool {
	return m.Host != "" && m.FromAddress != ""
}

// SMSConfig 短信配置（紧急工单提醒）
type SMSConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	SignName        string `mapstructure:"sign_name"`
	TemplateCode    string `mapstructure:"template_code"`
	OnCallPhone     string `mapstructure:"on_call_phone"`
}

// OSSConfig 对象存储配置
type OSSConfig struct {
	Provider        string `mapstructure:"provider"` // inline | aliyun | minio
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	Bucket          string `mapstructure:"bucket"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	CustomDomain    string `mapstructure:"custom_domain"`
	UploadDir       string `mapstructure:"upload_dir"`
	MaxPhotos       int    `mapstructure:"max_photos"`
	MaxPhotoSize    int64  `mapstructure:"max_photo_size"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	Caller     bool   `mapstructure:"caller"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	SubmissionLimit  int  `mapstructure:"submission_limit"`
	SubmissionWindow int  `mapstructure:"submission_window"`
	LoginLimit       int  `mapstructure:"login_limit"`
	LoginWindow      int  `mapstructure:"login_window"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// HelpCenterConfig 帮助中心业务配置
type HelpCenterConfig struct {
	BaseLocale       string   `mapstructure:"base_locale"`
	SupportedLocales []string `mapstructure:"supported_locales"`
	SearchLimit      int      `mapstructure:"search_limit"`
	PopularLimit     int      `mapstructure:"popular_limit"`
	CacheTTL         int      `mapstructure:"cache_ttl"`
}

// MaintenanceConfig 后台维护任务配置
type MaintenanceConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	ReplyRetryMins   int  `mapstructure:"reply_retry_minutes"`
	ReplyRetryWindow int  `mapstructure:"reply_retry_window_hours"`
	ReplyRetryBatch  int  `mapstructure:"reply_retry_batch"`
	ReplyRetryGrace  int  `mapstructure:"reply_retry_grace_seconds"`
	LogRetentionDays int  `mapstructure:"log_retention_days"`
}

// Load 读取配置并校验
//
// 工作目录中的 .env 先写入进程环境；环境变量覆盖文件，键中的点换成下划线（MAIL_HOST 对应 mail.host）
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 仅含默认值的配置
func Default() *Config {
	v := newViper()
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func load(configPath string) (*Config, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate 检查相互矛盾或不安全的配置
func (c *Config) Validate() error {
	var errs []error
	if c.IsRelease() && (c.JWT.Secret == "" || c.JWT.Secret == defaultJWTSecret) {
		errs = append(errs, errors.New("jwt.secret must be set in release mode"))
	}
	if d := c.Database.Driver; d != "postgres" && d != "sqlite" {
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", d))
	}
	if p := c.OSS.Provider; p != "inline" && p != "aliyun" && p != "minio" {
		errs = append(errs, fmt.Errorf("oss.provider %q is not supported", p))
	}
	if !slices.Contains(c.HelpCenter.SupportedLocales, c.HelpCenter.BaseLocale) {
		errs = append(errs, fmt.Errorf("helpcenter.base_locale %q is not in supported_locales", c.HelpCenter.BaseLocale))
	}
	return errors.Join(errs...)
}

// IsRelease release 或 production 模式
func (c *Config) IsRelease() bool {
	return c.Server.Mode == "release" || c.Server.Mode == "production"
}

var defaults = map[string]any{
	"server.name":             "helpcenter-backend",
	"server.mode":             "debug",
	"server.port":             8080,
	"server.read_timeout":     30,
	"server.write_timeout":    60,
	"server.shutdown_timeout": 30,
	"server.max_body_size":    32 << 20,
	"server.trusted_proxies":  []string{"127.0.0.1", "::1"},

	"database.driver":            "postgres",
	"database.path":              "helpcenter.db",
	"database.host":              "localhost",
	"database.port":              5432,
	"database.user":              "postgres",
	"database.password":          "postgres",
	"database.name":              "helpcenter",
	"database.sslmode":           "disable",
	"database.timezone":          "Europe/London",
	"database.max_idle_conns":    10,
	"database.max_open_conns":    50,
	"database.conn_max_lifetime": 60,
	"database.log_mode":          false,
	"database.slow_threshold":    200,

	"redis.enabled":        true,
	"redis.host":           "localhost",
	"redis.port":           6379,
	"redis.password":       "",
	"redis.db":             0,
	"redis.pool_size":      20,
	"redis.min_idle_conns": 2,
	"redis.dial_timeout":   5,
	"redis.read_timeout":   3,
	"redis.write_timeout":  3,

	"jwt.secret":               defaultJWTSecret,
	"jwt.access_token_expire":  12,
	"jwt.refresh_token_expire": 168,
	"jwt.issuer":               "subcold-helpcenter",

	"crypto.bcrypt_cost": 12,

	"mail.host":            "",
	"mail.port":            587,
	"mail.username":        "",
	"mail.password":        "",
	"mail.from_address":    "noreply@support.subcold.com",
	"mail.from_name":       "Subcold Support",
	"mail.admin_address":   "sales@subcold.com",
	"mail.support_address": "support@subcold.com",
	"mail.site_url":        "https://support.subcold.com",
	"mail.dial_timeout":    10,

	"sms.enabled":           false,
	"sms.access_key_id":     "",
	"sms.access_key_secret": "",
	"sms.sign_name":         "",
	"sms.template_code":     "",
	"sms.on_call_phone":     "",

	"oss.provider":          "inline",
	"oss.endpoint":          "",
	"oss.access_key_id":     "",
	"oss.access_key_secret": "",
	"oss.bucket":            "",
	"oss.use_ssl":           true,
	"oss.custom_domain":     "",
	"oss.upload_dir":        "returns",
	"oss.max_photos":        5,
	"oss.max_photo_size":    5 << 20,

	"logger.level":       "info",
	"logger.format":      "console",
	"logger.output":      "stdout",
	"logger.file_path":   "./logs/helpcenter.log",
	"logger.max_size":    100,
	"logger.max_backups": 10,
	"logger.max_age":     30,
	"logger.compress":    true,
	"logger.caller":      true,

	"metrics.enabled":   true,
	"metrics.namespace": "helpcenter",
	"metrics.path":      "/metrics",

	"tracing.enabled":      false,
	"tracing.service_name": "helpcenter-backend",
	"tracing.endpoint":     "",
	"tracing.sample_rate":  1.0,

	"ratelimit.enabled":           true,
	"ratelimit.submission_limit":  10,
	"ratelimit.submission_window": 600,
	"ratelimit.login_limit":       20,
	"ratelimit.login_window":      300,

	"cors.allowed_origins":   []string{"*"},
	"cors.allowed_methods":   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
	"cors.allowed_headers":   []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization", "X-Request-ID"},
	"cors.exposed_headers":   []string{"X-Request-ID"},
	"cors.allow_credentials": false,
	"cors.max_age":           86400,

	"helpcenter.base_locale":       "en",
	"helpcenter.supported_locales": []string{"en", "de", "fr", "es", "it", "nl"},
	"helpcenter.search_limit":      20,
	"helpcenter.popular_limit":     6,
	"helpcenter.cache_ttl":         300,

	"maintenance.enabled":                   true,
	"maintenance.reply_retry_minutes":       10,
	"maintenance.reply_retry_window_hours":  24,
	"maintenance.reply_retry_batch":         50,
	"maintenance.reply_retry_grace_seconds": 120,
	"maintenance.log_retention_days":        180,
}
