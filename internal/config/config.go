package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"

	defaultAddr          = ":8501"
	defaultSessionTTL    = 30 * time.Minute
	defaultLogLevel      = "debug"
	defaultCredentialEnv = "OPENAI_API_KEY"
	defaultEmbedModel    = "text-embedding-ada-002"
	defaultInferModel    = "gpt-4o-mini"
	defaultTemperature   = 0.7
	defaultChunkSize     = 1000
	defaultChunkOverlap  = 200
	defaultSeparator     = "\n"
	defaultTopK          = 4
)

type ServerConfig struct {
	Addr       string        `yaml:"addr"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// LLMConfig configures one remote model endpoint. The credential is never
// part of it; it is supplied per session.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	// USD per 1000 tokens, used for the usage summary only.
	PromptCostPer1K     float64 `yaml:"prompt_cost_per_1k"`
	CompletionCostPer1K float64 `yaml:"completion_cost_per_1k"`
}

type RAGConfig struct {
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	Separator    string `yaml:"separator"`
	TopK         int    `yaml:"top_k"`
}

type Config struct {
	Server        ServerConfig `yaml:"server"`
	Log           LogConfig    `yaml:"log"`
	EmbedLLM      LLMConfig    `yaml:"embed_llm"`
	LLM           LLMConfig    `yaml:"llm"`
	RAG           RAGConfig    `yaml:"rag"`
	CredentialEnv string       `yaml:"credential_env"`
}

// LoadConfig reads the yaml config at path. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// DefaultCredential returns the environment-supplied credential, if any.
func (c *Config) DefaultCredential() string {
	return os.Getenv(c.CredentialEnv)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultAddr
	}
	if cfg.Server.SessionTTL <= 0 {
		cfg.Server.SessionTTL = defaultSessionTTL
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.CredentialEnv == "" {
		cfg.CredentialEnv = defaultCredentialEnv
	}

	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = ProviderOpenAI
	}
	if cfg.EmbedLLM.Model == "" {
		cfg.EmbedLLM.Model = defaultEmbedModel
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderOpenAI
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultInferModel
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = defaultTemperature
	}

	if cfg.RAG.ChunkSize <= 0 {
		cfg.RAG.ChunkSize = defaultChunkSize
	}
	if cfg.RAG.ChunkOverlap <= 0 {
		// keep the default below small chunk sizes
		cfg.RAG.ChunkOverlap = min(defaultChunkOverlap, cfg.RAG.ChunkSize/5)
	}
	if cfg.RAG.Separator == "" {
		cfg.RAG.Separator = defaultSeparator
	}
	if cfg.RAG.TopK <= 0 {
		cfg.RAG.TopK = defaultTopK
	}
}
