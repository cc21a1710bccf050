package config

import (
	"os"
	"slices"
	"testing"
	"time"
)

// clearEnv unsets all LEARN_ environment variables for a clean test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := cutEnv(kv)
		if len(key) > 6 && key[:6] == "LEARN_" {
			_ = os.Unsetenv(key)
		}
	}
}

func cutEnv(kv string) (string, string, bool) {
	for i := range len(kv) {
		if kv[i] == '=' {
			return kv[:i], kv[i+1:], true
		}
	}
	return kv, "", false
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Store != StorePostgres {
		t.Errorf("Store = %q, want postgres", cfg.Store)
	}
	if cfg.Database.MaxConns != 25 || cfg.Database.MinConns != 5 {
		t.Errorf("Database conns = %d/%d, want 25/5", cfg.Database.MaxConns, cfg.Database.MinConns)
	}
	if cfg.Cache.URL != "" {
		t.Errorf("Cache.URL = %q, want empty", cfg.Cache.URL)
	}
	if cfg.AI.Embedding.Provider != EmbeddingHash || cfg.AI.Embedding.Dim != 256 {
		t.Errorf("Embedding = %+v", cfg.AI.Embedding)
	}
	if cfg.AI.RequestTimeout != 30*time.Second {
		t.Errorf("AI.RequestTimeout = %v, want 30s", cfg.AI.RequestTimeout)
	}
	if cfg.Memory.MaxTurns != 10 || cfg.Memory.SummarizeEvery != 10 || cfg.Memory.TopK != 3 {
		t.Errorf("Memory = %+v", cfg.Memory)
	}
	if cfg.Notifications.Interval != 24*time.Hour {
		t.Errorf("Notifications.Interval = %v, want 24h", cfg.Notifications.Interval)
	}
	if !slices.Equal(cfg.Quiz.Subjects, []string{"Math", "Science", "English", "History"}) {
		t.Errorf("Quiz.Subjects = %v", cfg.Quiz.Subjects)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)

	t.Setenv("LEARN_SERVER_PORT", "9090")
	t.Setenv("LEARN_STORE", "memory")
	t.Setenv("LEARN_CACHE_URL", "redis://cache:6379/1")
	t.Setenv("LEARN_AI_OPENAI_API_KEY", "sk-test-key")
	t.Setenv("LEARN_AI_EMBEDDING_PROVIDER", "ollama")
	t.Setenv("LEARN_MEMORY_MAX_TURNS", "4")
	t.Setenv("LEARN_MEMORY_SESSION_IDLE", "5m")
	t.Setenv("LEARN_NOTIFICATIONS_INTERVAL", "1h")
	t.Setenv("LEARN_QUIZ_SUBJECTS", "Math, History,,")
	t.Setenv("LEARN_ANALYTICS_THRESHOLDS_PATH", "/etc/insights/thresholds.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Store != StoreMemory {
		t.Errorf("Store = %q, want memory", cfg.Store)
	}
	if cfg.Cache.URL != "redis://cache:6379/1" {
		t.Errorf("Cache.URL = %q", cfg.Cache.URL)
	}
	if cfg.AI.OpenAI.APIKey != "sk-test-key" {
		t.Errorf("AI.OpenAI.APIKey = %q, want sk-test-key", cfg.AI.OpenAI.APIKey)
	}
	if cfg.AI.Embedding.Provider != EmbeddingOllama {
		t.Errorf("Embedding.Provider = %q", cfg.AI.Embedding.Provider)
	}
	if cfg.Memory.MaxTurns != 4 || cfg.Memory.SessionIdle != 5*time.Minute {
		t.Errorf("Memory = %+v", cfg.Memory)
	}
	if cfg.Notifications.Interval != time.Hour {
		t.Errorf("Notifications.Interval = %v", cfg.Notifications.Interval)
	}
	if !slices.Equal(cfg.Quiz.Subjects, []string{"Math", "History"}) {
		t.Errorf("Quiz.Subjects = %v", cfg.Quiz.Subjects)
	}
	if cfg.Analytics.ThresholdsPath != "/etc/insights/thresholds.yaml" {
		t.Errorf("Analytics.ThresholdsPath = %q", cfg.Analytics.ThresholdsPath)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEARN_SERVER_PORT", "eighty")
	t.Setenv("LEARN_AI_REQUEST_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want fallback 8080", cfg.Server.Port)
	}
	if cfg.AI.RequestTimeout != 30*time.Second {
		t.Errorf("AI.RequestTimeout = %v, want fallback", cfg.AI.RequestTimeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"defaults", nil, false},
		{"memory store", map[string]string{"LEARN_STORE": "memory"}, false},
		{"unknown store", map[string]string{"LEARN_STORE": "sqlite"}, true},
		{"unknown embedding", map[string]string{"LEARN_AI_EMBEDDING_PROVIDER": "bert"}, true},
		{"zero top k", map[string]string{"LEARN_MEMORY_TOP_K": "0"}, true},
		{"negative turns", map[string]string{"LEARN_MEMORY_MAX_TURNS": "-1"}, true},
		{"bad log level", map[string]string{"LEARN_LOG_LEVEL": "trace"}, true},
		{"text log format", map[string]string{"LEARN_LOG_FORMAT": "text"}, false},
		{"bad log format", map[string]string{"LEARN_LOG_FORMAT": "xml"}, true},
		{"no subjects", map[string]string{"LEARN_QUIZ_SUBJECTS": " , "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHasAIProvider(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		want   bool
	}{
		{"none", "", "", false},
		{"OpenAI", "LEARN_AI_OPENAI_API_KEY", "sk-test", true},
		{"DeepSeek", "LEARN_AI_DEEPSEEK_API_KEY", "sk-ds-test", true},
		{"Ollama", "LEARN_AI_OLLAMA_ENABLED", "true", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.envKey != "" {
				t.Setenv(tt.envKey, tt.envVal)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.HasAIProvider() != tt.want {
				t.Errorf("HasAIProvider() = %v, want %v", cfg.HasAIProvider(), tt.want)
			}
		})
	}
}

func TestOllamaEnabledParsing(t *testing.T) {
	tests := []struct {
		name string
		val  string
		want bool
	}{
		{"true", "true", true},
		{"TRUE", "TRUE", true},
		{"false", "false", false},
		{"1", "1", true},
		{"0", "0", false},
		{"empty", "", false},
		{"invalid", "notabool", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.val != "" {
				t.Setenv("LEARN_AI_OLLAMA_ENABLED", tt.val)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.AI.Ollama.Enabled != tt.want {
				t.Errorf("AI.Ollama.Enabled = %v, want %v", cfg.AI.Ollama.Enabled, tt.want)
			}
		})
	}
}
