// Package config reads the server settings from the process environment.
package config

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

const (
	BackendSQLite = "sqlite"
	BackendTables = "tables"
	BackendMongo  = "mongo"

	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
)

// Config holds every setting of the API server and the provisioning tool.
type Config struct {
	Port      string
	Debug     bool
	LogFormat string

	StoreBackend    string
	SQLiteDSN       string
	StorageConnStr  string
	TasksTable      string
	TaskEventsQueue string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	RedisConnStr    string
	CacheTTL        time.Duration
	ModelProvider   string
	GeminiAPIKey    string
	GeminiModel     string
	BedrockRegion   string
	BedrockModel    string
	ExtractTimeout  time.Duration
	ModelBreaker    bool
}

// LoadDotEnv loads variables from the given files (".env" when none) without
// overriding ones already set. Missing files are ignored; a file that exists but
// does not parse is an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Port:            envStr("PORT", "8080"),
		LogFormat:       strings.ToLower(os.Getenv("LOG_FORMAT")),
		StoreBackend:    strings.ToLower(envStr("STORE_BACKEND", BackendSQLite)),
		SQLiteDSN:       envStr("SQLITE_DSN", "taskflow.db"),
		StorageConnStr:  os.Getenv("STORAGE_CONNECTION_STRING"),
		TasksTable:      envStr("TASKS_TABLE", "tasks"),
		TaskEventsQueue: os.Getenv("TASK_EVENTS_QUEUE"),
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDatabase:   envStr("MONGO_DATABASE", "taskflow"),
		MongoCollection: envStr("MONGO_COLLECTION", "tasks"),
		RedisConnStr:    os.Getenv("REDIS_CONNECTION_STRING"),
		ModelProvider:   strings.ToLower(envStr("MODEL_PROVIDER", ProviderGemini)),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     os.Getenv("GEMINI_MODEL"),
		BedrockRegion:   os.Getenv("BEDROCK_REGION"),
		BedrockModel:    os.Getenv("BEDROCK_MODEL"),
	}

	var err error
	if cfg.Debug, err = envBool("DEBUG", false); err != nil {
		return Config{}, err
	}
	if cfg.ModelBreaker, err = envBool("MODEL_BREAKER", false); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = envDur("CACHE_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ExtractTimeout, err = envDur("EXTRACT_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ExtractTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid EXTRACT_TIMEOUT: must be greater than zero")
	}
	if _, err := envInt("PORT", 8080); err != nil {
		return Config{}, err
	}

	switch cfg.StoreBackend {
	case BackendSQLite:
	case BackendTables:
		if cfg.StorageConnStr == "" {
			return Config{}, fmt.Errorf("missing STORAGE_CONNECTION_STRING for %s backend", cfg.StoreBackend)
		}
	case BackendMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("missing MONGO_URI for %s backend", cfg.StoreBackend)
		}
	default:
		return Config{}, fmt.Errorf("invalid STORE_BACKEND %q", cfg.StoreBackend)
	}
	if cfg.TaskEventsQueue != "" && cfg.StorageConnStr == "" {
		return Config{}, fmt.Errorf("TASK_EVENTS_QUEUE requires STORAGE_CONNECTION_STRING")
	}

	switch cfg.ModelProvider {
	case ProviderGemini, ProviderBedrock:
	default:
		return Config{}, fmt.Errorf("invalid MODEL_PROVIDER %q", cfg.ModelProvider)
	}
	return cfg, nil
}

// RedisOptions parses REDIS_CONNECTION_STRING. It accepts a redis:// URL or the
// "host:port,password=...,ssl=true" form. A nil result means no cache is configured.
func (c Config) RedisOptions() *redis.Options {
	return ParseRedis(c.RedisConnStr)
}

// ParseRedis parses a Redis connection string, see Config.RedisOptions.
func ParseRedis(conn string) *redis.Options {
	if conn == "" {
		return nil
	}
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be greater than zero", key)
	}
	return n, nil
}

func envDur(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
