package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_BACKEND", "CACHE_TTL", "EXTRACT_TIMEOUT", "MODEL_PROVIDER", "DEBUG", "TASK_EVENTS_QUEUE"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.StoreBackend != BackendSQLite || cfg.SQLiteDSN == "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.CacheTTL != 5*time.Minute || cfg.ExtractTimeout != 30*time.Second {
		t.Fatalf("unexpected durations: %v %v", cfg.CacheTTL, cfg.ExtractTimeout)
	}
	if cfg.ModelProvider != ProviderGemini || cfg.Debug || cfg.ModelBreaker {
		t.Fatalf("unexpected model defaults: %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad ttl", env: map[string]string{"CACHE_TTL": "soon"}},
		{name: "zero timeout", env: map[string]string{"EXTRACT_TIMEOUT": "0s"}},
		{name: "bad debug", env: map[string]string{"DEBUG": "maybe"}},
		{name: "bad port", env: map[string]string{"PORT": "http"}},
		{name: "unknown backend", env: map[string]string{"STORE_BACKEND": "postgres"}},
		{name: "tables without conn", env: map[string]string{"STORE_BACKEND": "tables", "STORAGE_CONNECTION_STRING": ""}},
		{name: "mongo without uri", env: map[string]string{"STORE_BACKEND": "mongo", "MONGO_URI": ""}},
		{name: "queue without conn", env: map[string]string{"TASK_EVENTS_QUEUE": "events", "STORAGE_CONNECTION_STRING": ""}},
		{name: "unknown provider", env: map[string]string{"MODEL_PROVIDER": "llama"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %v", tt.env)
			}
		})
	}
}

func TestLoadMissingCredentialIsNotFatal(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := Load(); err != nil {
		t.Fatalf("expected credential to be checked at operation time, got %v", err)
	}
}

func TestParseRedis(t *testing.T) {
	if ParseRedis("") != nil {
		t.Fatal("expected nil options for empty string")
	}

	opts := ParseRedis("redis://:secret@localhost:6380/2")
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("unexpected url options: %+v", opts)
	}

	opts = ParseRedis("cache.example.net:6380,password=pw,ssl=True,abortConnect=False")
	if opts.Addr != "cache.example.net:6380" || opts.Password != "pw" || opts.TLSConfig == nil {
		t.Fatalf("unexpected azure-style options: %+v", opts)
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	if err := os.WriteFile(file, []byte("TASKFLOW_TEST_A=from-file\nTASKFLOW_TEST_B=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("TASKFLOW_TEST_A", "from-env")
	t.Setenv("TASKFLOW_TEST_B", "")
	os.Unsetenv("TASKFLOW_TEST_B")

	if err := LoadDotEnv(file, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}

	if got := os.Getenv("TASKFLOW_TEST_A"); got != "from-env" {
		t.Fatalf("expected env to win, got %q", got)
	}
	if got := os.Getenv("TASKFLOW_TEST_B"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
}

func TestLoadDotEnvReportsMalformedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.env")
	if err := os.WriteFile(file, []byte("GEMINI_API_KEY=\"unterminated\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	err := LoadDotEnv(file)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "bad.env") {
		t.Fatalf("error should name the file: %v", err)
	}
}
