package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

type Config struct {
	Port           string
	Environment    string
	LogFile        string
	LogLevel       string
	TaskPoolSize   int
	SendBuffer     int
	AllowedOrigins []string
	ICEConfigPath  string
	Redis          RedisConfig
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	PresenceTTL time.Duration
}

type option struct {
	env, flag, def, usage string
}

var options = []option{
	{"PORT", "port", "8080", "HTTP server port"},
	{"ENVIRONMENT", "environment", "development", "runtime environment (production enables gin release mode)"},
	{"LOG_FILE", "log-file", "logs/server.log", "log file path"},
	{"LOG_LEVEL", "log-level", "info", "log level (debug, info, warn, error)"},
	{"TASK_POOL_SIZE", "task-pool-size", "10000", "size of the goroutine pool running connection pumps"},
	{"SEND_BUFFER", "send-buffer", "256", "outbound frames buffered per connection"},
	{"ALLOWED_ORIGINS", "allowed-origins", "*", "comma-separated browser origins allowed to connect"},
	{"ICE_CONFIG", "ice-config", "", "TOML file listing ICE servers handed to browsers"},
	{"REDIS_ADDR", "redis-addr", "", "Redis address for the presence mirror (empty disables it)"},
	{"REDIS_PASSWORD", "redis-password", "", "Redis password"},
	{"REDIS_DB", "redis-db", "0", "Redis database"},
	{"PRESENCE_TTL", "presence-ttl", "24h", "expiry of presence keys in Redis"},
}

// BindFlags declares every configuration flag on fs.
func BindFlags(fs *pflag.FlagSet) {
	for _, o := range options {
		if fs.Lookup(o.flag) == nil {
			fs.String(o.flag, o.def, o.usage)
		}
	}
}

// Load resolves the configuration. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := func(name string) string {
		for _, o := range options {
			if o.flag == name {
				return configValue(fs, o)
			}
		}
		return ""
	}

	poolSize, err := positiveInt("task-pool-size", v("task-pool-size"))
	if err != nil {
		return nil, err
	}
	sendBuffer, err := positiveInt("send-buffer", v("send-buffer"))
	if err != nil {
		return nil, err
	}
	db, err := strconv.Atoi(v("redis-db"))
	if err != nil {
		return nil, fmt.Errorf("invalid redis-db: %w", err)
	}
	ttl, err := time.ParseDuration(v("presence-ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid presence-ttl: %w", err)
	}

	return &Config{
		Port:           v("port"),
		Environment:    v("environment"),
		LogFile:        v("log-file"),
		LogLevel:       v("log-level"),
		TaskPoolSize:   poolSize,
		SendBuffer:     sendBuffer,
		AllowedOrigins: splitList(v("allowed-origins")),
		ICEConfigPath:  v("ice-config"),
		Redis: RedisConfig{
			Addr:        v("redis-addr"),
			Password:    v("redis-password"),
			DB:          db,
			PresenceTTL: ttl,
		},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) PresenceEnabled() bool {
	return c.Redis.Addr != ""
}

// configValue returns the value of a parameter based on the following priority:
// 1. Environment variable.
// 2. Command-line flag.
// 3. Default value.
func configValue(fs *pflag.FlagSet, o option) string {
	if envValue := os.Getenv(o.env); envValue != "" {
		return envValue
	}
	if fs != nil {
		if f := fs.Lookup(o.flag); f != nil {
			return f.Value.String()
		}
	}
	return o.def
}

func positiveInt(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %d", name, n)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
