package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix は環境変数による上書きで利用するプレフィックスです。
const EnvPrefix = "STAFF"

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Log        LogConfig        `yaml:"log"`
	Attendance AttendanceConfig `yaml:"attendance"`
}

// ServerConfig は HTTP / gRPC サーバーに関する設定です。
type ServerConfig struct {
	HTTPAddr          string        `yaml:"http_addr"`
	GRPCAddr          string        `yaml:"grpc_addr"`
	ReadTimeout       time.Duration `yaml:"-"`
	WriteTimeout      time.Duration `yaml:"-"`
	RequestTimeout    time.Duration `yaml:"-"`
	ReadTimeoutRaw    string        `yaml:"read_timeout"`
	WriteTimeoutRaw   string        `yaml:"write_timeout"`
	RequestTimeoutRaw string        `yaml:"request_timeout"`
	RateLimitPerMin   int           `yaml:"rate_limit_per_minute"`
	Production        bool          `yaml:"production"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
	LockTimeout        time.Duration `yaml:"-"`
	LockTimeoutRaw     string        `yaml:"lock_timeout"`
}

// RedisConfig はプロファイルキャッシュ用 Redis の設定です。
type RedisConfig struct {
	Addr               string        `yaml:"addr"`
	DB                 int           `yaml:"db"`
	ProfileCacheTTL    time.Duration `yaml:"-"`
	ProfileCacheTTLRaw string        `yaml:"profile_cache_ttl"`
}

// AuthConfig は ID プロバイダが署名したトークンの検証設定です。
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

// LogConfig はロガーの設定です。
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AttendanceConfig は勤怠台帳の設定です。
type AttendanceConfig struct {
	BulkConcurrency int            `yaml:"bulk_concurrency"`
	Timezone        string         `yaml:"timezone"`
	Location        *time.Location `yaml:"-"`
}

// envOverrides は環境変数で上書き可能な項目です。
type envOverrides struct {
	DatabaseHost     string `envconfig:"DATABASE_HOST"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD"`
	RedisAddr        string `envconfig:"REDIS_ADDR"`
	JWTSecret        string `envconfig:"JWT_SECRET"`
	LogLevel         string `envconfig:"LOG_LEVEL"`
}

// Load は指定されたパスから設定ファイルを読み込み、環境変数で上書きします。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	var ov envOverrides
	if err := envconfig.Process(EnvPrefix, &ov); err != nil {
		return fmt.Errorf("config: env overrides: %w", err)
	}
	if ov.DatabaseHost != "" {
		c.Database.Host = ov.DatabaseHost
	}
	if ov.DatabasePassword != "" {
		c.Database.Password = ov.DatabasePassword
	}
	if ov.RedisAddr != "" {
		c.Redis.Addr = ov.RedisAddr
	}
	if ov.JWTSecret != "" {
		c.Auth.JWTSecret = ov.JWTSecret
	}
	if ov.LogLevel != "" {
		c.Log.Level = ov.LogLevel
	}
	return nil
}

func (c *Config) validateAndNormalize() error {
	if err := c.Server.validateAndNormalize(); err != nil {
		return err
	}

	db := &c.Database
	if err := db.validateAndNormalize(); err != nil {
		return err
	}

	if err := c.Redis.validateAndNormalize(); err != nil {
		return err
	}

	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("config: auth.jwt_secret must be set")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	return c.Attendance.validateAndNormalize()
}

func (s *ServerConfig) validateAndNormalize() error {
	if s.HTTPAddr == "" {
		return fmt.Errorf("config: server.http_addr must be set")
	}
	if s.GRPCAddr == "" {
		s.GRPCAddr = ":50051"
	}

	var err error
	if s.ReadTimeout, err = parseDurationDefault(s.ReadTimeoutRaw, 15*time.Second); err != nil {
		return fmt.Errorf("config: server.read_timeout: %w", err)
	}
	if s.WriteTimeout, err = parseDurationDefault(s.WriteTimeoutRaw, 15*time.Second); err != nil {
		return fmt.Errorf("config: server.write_timeout: %w", err)
	}
	if s.RequestTimeout, err = parseDurationDefault(s.RequestTimeoutRaw, 30*time.Second); err != nil {
		return fmt.Errorf("config: server.request_timeout: %w", err)
	}
	if s.RateLimitPerMin <= 0 {
		s.RateLimitPerMin = 120
	}
	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	lockTimeout, err := parseDurationDefault(d.LockTimeoutRaw, 5*time.Second)
	if err != nil {
		return fmt.Errorf("config: database.lock_timeout: %w", err)
	}
	d.LockTimeout = lockTimeout

	return nil
}

func (r *RedisConfig) validateAndNormalize() error {
	ttl, err := parseDurationDefault(r.ProfileCacheTTLRaw, 5*time.Minute)
	if err != nil {
		return fmt.Errorf("config: redis.profile_cache_ttl: %w", err)
	}
	r.ProfileCacheTTL = ttl
	return nil
}

func (a *AttendanceConfig) validateAndNormalize() error {
	if a.BulkConcurrency <= 0 {
		a.BulkConcurrency = 8
	}
	if a.Timezone == "" {
		a.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return fmt.Errorf("config: attendance.timezone: %w", err)
	}
	a.Location = loc
	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

func parseDurationDefault(raw string, def time.Duration) (time.Duration, error) {
	d, err := parseDurationAllowEmpty(raw)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return def, nil
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
