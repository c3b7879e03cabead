package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	DB       DBConfig
	Realtime RealtimeConfig
	Log      LogConfig
}

type ServerConfig struct {
	Address         string
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// DBConfig 資料庫設定，Driver 為 postgres 或 sqlite
type DBConfig struct {
	Driver   string
	Host     string
	User     string
	Password string
	Name     string
	Port     int
	Path     string // sqlite 檔案路徑
}

// RealtimeConfig 白板與聊天室的即時連線參數
type RealtimeConfig struct {
	SendBuffer      int     `mapstructure:"send_buffer"`
	ReadLimit       int64   `mapstructure:"read_limit"`
	EventsPerSecond float64 `mapstructure:"events_per_second"`
	Burst           int
}

type LogConfig struct {
	Level  string
	Format string
}

// Load 讀取 config.yaml，再以 COLLAB_ 開頭的環境變數覆蓋
func Load() (*Config, error) {
	return LoadFrom("./pkg/config")
}

// LoadFrom 從指定目錄讀取設定，找不到設定檔時只使用預設值與環境變數
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("COLLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":5000")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	// 沒有預設值的 key 不會被 AutomaticEnv 套用到 Unmarshal
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("db.user", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "collab")

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.path", "collab.db")

	v.SetDefault("realtime.send_buffer", 256)
	v.SetDefault("realtime.read_limit", 64*1024)
	v.SetDefault("realtime.events_per_second", 60)
	v.SetDefault("realtime.burst", 120)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate 檢查啟動必要的設定
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported db.driver %q", c.DB.Driver)
	}
	if c.Realtime.SendBuffer <= 0 {
		return fmt.Errorf("realtime.send_buffer must be positive, got %d", c.Realtime.SendBuffer)
	}
	return nil
}
