package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Exports    ExportConfig     `yaml:"exports"`
	Rooms      []RoomConfig     `yaml:"rooms"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port      int             `yaml:"port"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	CookieName    string `yaml:"cookie_name"`
	SessionTTL    int    `yaml:"session_ttl"` // seconds
	SecureCookies bool   `yaml:"secure_cookies"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type TelegramConfig struct {
	Enabled    bool   `yaml:"enabled"`
	BotToken   string `yaml:"bot_token"`
	AdminChat  int64  `yaml:"admin_chat"`
	Debug      bool   `yaml:"debug"`
	MaxRetries int    `yaml:"max_retries"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

// RoomConfig describes one bookable room in the catalog.
type RoomConfig struct {
	Building string `yaml:"building"`
	Floor    string `yaml:"floor"`
	Name     string `yaml:"name"`
}

func Load(configPath string) (*Config, error) {
	// .env является необязательным
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == "CHANGE_ME" {
		return errors.New("auth jwt secret is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return errors.New("telegram notifications enabled but bot token is empty")
	}

	return ValidateRooms(c.Rooms)
}

// ValidateRooms rejects an empty catalog and duplicate rooms.
func ValidateRooms(rooms []RoomConfig) error {
	if len(rooms) == 0 {
		return errors.New("at least one room must be configured")
	}

	seen := make(map[string]bool, len(rooms))
	for _, room := range rooms {
		if room.Building == "" || room.Floor == "" || room.Name == "" {
			return fmt.Errorf("room %q must have building, floor and name", room.Name)
		}
		key := room.Building + "/" + room.Floor + "/" + room.Name
		if seen[key] {
			return fmt.Errorf("duplicate room found: %s", key)
		}
		seen[key] = true
	}
	return nil
}

// HasRoom reports whether the (building, floor, room) triple is in the catalog.
func (c *Config) HasRoom(building, floor, room string) bool {
	for _, r := range c.Rooms {
		if r.Building == building && r.Floor == floor && r.Name == room {
			return true
		}
	}
	return false
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.RateLimit.Burst == 0 && c.Server.RateLimit.RPS > 0 {
		c.Server.RateLimit.Burst = 5
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "roomly_session"
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = 24 * 60 * 60
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.Telegram.MaxRetries == 0 {
		c.Telegram.MaxRetries = 5
	}
	if c.Backup.RetentionDays == 0 {
		c.Backup.RetentionDays = 7
	}
}
