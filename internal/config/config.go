package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/GopikaPamisetty/Min-Team-Chat-App/pkg/config"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/pkg/database"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/pkg/log"
)

type Config struct {
	Server    ServerConfig
	Database  database.Config
	Auth      AuthConfig
	WebSocket WebSocketConfig
	Redis     RedisConfig
	Log       log.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	Secret        string
	TokenDuration time.Duration `mapstructure:"token_duration"`
	Issuer        string
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	MemberPrefix string        `mapstructure:"member_prefix"`
	MemberTTL    time.Duration `mapstructure:"member_ttl"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.file_path", "chat.db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("auth.secret", "dev-secret-change-me")
	v.SetDefault("auth.token_duration", "168h")
	v.SetDefault("auth.issuer", "min-team-chat")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.member_prefix", "chat:members")
	v.SetDefault("redis.member_ttl", "30s")
	v.SetDefault("log.level", "info")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.file_path", "DATABASE_FILE_PATH")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")
	v.BindEnv("auth.secret", "JWT_SECRET")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Auth.TokenDuration = parseDuration(v, "auth.token_duration", 168*time.Hour)
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Redis.MemberTTL = parseDuration(v, "redis.member_ttl", 30*time.Second)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
