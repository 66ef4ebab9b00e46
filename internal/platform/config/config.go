package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// Wizard tunes every session the host opens.
type Wizard struct {
	Debounce         time.Duration
	DuplicateTimeout time.Duration
}

// Registry locates the civil registry API. An empty URL selects the
// in-process store. ListenAddr is where registry-mock serves it.
type Registry struct {
	URL             string
	ListenAddr      string
	Token           string
	Timeout         time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
}

// Postgres backs the mock registry's records and, without Kafka, the
// wizard host's audit trail.
type Postgres struct {
	DSN      string
	MaxConns int32
}

// RedisConfig configures the duplicate-search cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// Kafka configures the audit event stream. No brokers keeps audit in memory.
type Kafka struct {
	Brokers     []string
	TopicPrefix string
}

type Config struct {
	Server   Server
	Wizard   Wizard
	Registry Registry
	Postgres Postgres
	Redis    RedisConfig
	Kafka    Kafka
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            getEnv("CIVREG_ADDR", ":8080"),
			LogLevel:        getEnv("CIVREG_LOG_LEVEL", "info"),
			LogFormat:       getEnv("CIVREG_LOG_FORMAT", "json"),
			ShutdownTimeout: getDuration("CIVREG_SHUTDOWN_TIMEOUT", 10*time.Second),
			ReadTimeout:     getDuration("CIVREG_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDuration("CIVREG_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getDuration("CIVREG_IDLE_TIMEOUT", 60*time.Second),
		},
		Wizard: Wizard{
			Debounce:         getDuration("CIVREG_DUPLICATE_DEBOUNCE", 500*time.Millisecond),
			DuplicateTimeout: getDuration("CIVREG_DUPLICATE_TIMEOUT", 5*time.Second),
		},
		Registry: Registry{
			URL:             os.Getenv("CIVREG_REGISTRY_URL"),
			ListenAddr:      getEnv("CIVREG_REGISTRY_ADDR", ":8090"),
			Token:           os.Getenv("CIVREG_REGISTRY_TOKEN"),
			Timeout:         getDuration("CIVREG_REGISTRY_TIMEOUT", 10*time.Second),
			BreakerFailures: getInt("CIVREG_REGISTRY_BREAKER_FAILURES", 5),
			BreakerCooldown: getDuration("CIVREG_REGISTRY_BREAKER_COOLDOWN", 10*time.Second),
		},
		Postgres: Postgres{
			DSN:      os.Getenv("CIVREG_POSTGRES_DSN"),
			MaxConns: int32(getInt("CIVREG_POSTGRES_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("CIVREG_REDIS_URL"),
			PoolSize:     getInt("CIVREG_REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("CIVREG_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("CIVREG_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("CIVREG_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("CIVREG_REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     getDuration("CIVREG_REDIS_CACHE_TTL", 30*time.Second),
		},
		Kafka: Kafka{
			Brokers:     getList("CIVREG_KAFKA_BROKERS"),
			TopicPrefix: getEnv("CIVREG_KAFKA_TOPIC_PREFIX", "civreg.audit"),
		},
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// getDuration accepts Go duration strings ("750ms", "5s"). Unparseable values
// fall back to def.
func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getList(key string) []string {
	var out []string
	for part := range strings.SplitSeq(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
