// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type SessionConfig struct {
	Capacity                   int `yaml:"capacity"`
	TTLSeconds                 int `yaml:"ttl_seconds"`
	HistoryLimit               int `yaml:"history_limit"`
	HistoryView                int `yaml:"history_view"`
	CleanupIntervalSeconds     int `yaml:"cleanup_interval_seconds"`
	MemoryLimitMB              int `yaml:"memory_limit_mb"`
	LockTimeoutSeconds         int `yaml:"lock_timeout_seconds"`
	ShutdownLockTimeoutSeconds int `yaml:"shutdown_lock_timeout_seconds"`
}

func (s SessionConfig) TTL() time.Duration { return time.Duration(s.TTLSeconds) * time.Second }

func (s SessionConfig) CleanupInterval() time.Duration {
	return time.Duration(s.CleanupIntervalSeconds) * time.Second
}
func (s SessionConfig) LockTimeout() time.Duration {
	return time.Duration(s.LockTimeoutSeconds) * time.Second
}
func (s SessionConfig) ShutdownLockTimeout() time.Duration {
	return time.Duration(s.ShutdownLockTimeoutSeconds) * time.Second
}

type UploadConfig struct {
	MaxBytes    int64    `yaml:"max_bytes"`
	AllowedExts []string `yaml:"allowed_exts"`
}

type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
}

type AIConfig struct {
	GroqKey     string `yaml:"groq_key"`
	GroqBaseURL string `yaml:"groq_base_url"`
	GroqModel   string `yaml:"groq_model"`

	OpenAIKey   string `yaml:"openai_key"`
	OpenAIModel string `yaml:"openai_model"`

	GeminiKey   string `yaml:"gemini_key"`
	GeminiURL   string `yaml:"gemini_url"`
	GeminiModel string `yaml:"gemini_model"`

	EmbeddingModel       string `yaml:"embedding_model"`
	EmbedCacheTTLSeconds int    `yaml:"embed_cache_ttl_seconds"`

	MaxTokens       int     `yaml:"max_tokens"`
	Temperature     float64 `yaml:"temperature"`
	ConcurrentLimit int     `yaml:"concurrent_limit"` // max concurrent AI calls
}

func (a AIConfig) EmbedCacheTTL() time.Duration {
	return time.Duration(a.EmbedCacheTTLSeconds) * time.Second
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Session SessionConfig `yaml:"session"`
	Upload  UploadConfig  `yaml:"upload"`
	RAG     RAGConfig     `yaml:"rag"`
	AI      AIConfig      `yaml:"ai"`

	Runtime RuntimeConfig `yaml:"-"`
}

// Load reads the yaml config at path, applies defaults, then environment
// overrides for secrets and the listen port. A missing file at the default
// path is tolerated so the service can run from environment alone.
func Load(path string, dev bool) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err) && path == "config.yaml":
		// env-only run
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Session.Capacity <= 0 {
		cfg.Session.Capacity = 50
	}
	if cfg.Session.TTLSeconds <= 0 {
		cfg.Session.TTLSeconds = 1800
	}
	if cfg.Session.HistoryLimit <= 0 {
		cfg.Session.HistoryLimit = 10
	}
	if cfg.Session.HistoryView <= 0 {
		cfg.Session.HistoryView = 5
	}
	if cfg.Session.CleanupIntervalSeconds <= 0 {
		cfg.Session.CleanupIntervalSeconds = 300
	}
	if cfg.Session.MemoryLimitMB <= 0 {
		cfg.Session.MemoryLimitMB = 1536
	}
	if cfg.Session.LockTimeoutSeconds <= 0 {
		cfg.Session.LockTimeoutSeconds = 5
	}
	if cfg.Session.ShutdownLockTimeoutSeconds <= 0 {
		cfg.Session.ShutdownLockTimeoutSeconds = 10
	}
	if cfg.Upload.MaxBytes <= 0 {
		cfg.Upload.MaxBytes = 50 << 20
	}
	if len(cfg.Upload.AllowedExts) == 0 {
		cfg.Upload.AllowedExts = []string{".pdf", ".docx", ".doc"}
	}
	for i, ext := range cfg.Upload.AllowedExts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Upload.AllowedExts[i] = ext
	}
	if cfg.RAG.ChunkSize <= 0 {
		cfg.RAG.ChunkSize = 1000
	}
	if cfg.RAG.ChunkOverlap <= 0 {
		cfg.RAG.ChunkOverlap = 200
	}
	if cfg.RAG.TopK <= 0 {
		cfg.RAG.TopK = 6
	}
	if cfg.AI.GroqBaseURL == "" {
		cfg.AI.GroqBaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.AI.GroqModel == "" {
		cfg.AI.GroqModel = "llama-3.1-8b-instant"
	}
	if cfg.AI.OpenAIModel == "" {
		cfg.AI.OpenAIModel = "gpt-4o-mini"
	}
	if cfg.AI.GeminiModel == "" {
		cfg.AI.GeminiModel = "gemini-2.0-flash"
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.AI.EmbedCacheTTLSeconds <= 0 {
		cfg.AI.EmbedCacheTTLSeconds = 300
	}
	if cfg.AI.MaxTokens <= 0 {
		cfg.AI.MaxTokens = 1024
	}
	if cfg.AI.Temperature <= 0 {
		cfg.AI.Temperature = 0.2
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}

	// environment overrides
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.AI.GroqKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.OpenAIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.AI.GeminiKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			cfg.Server.Port = p
		}
	}

	// minimal validation
	if cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
		return nil, errors.New("rag.chunk_overlap must be smaller than rag.chunk_size")
	}
	if cfg.Session.HistoryView > cfg.Session.HistoryLimit {
		return nil, errors.New("session.history_view cannot exceed session.history_limit")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
