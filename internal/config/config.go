package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// UploadsConfig controls where uploaded documents are written.
type UploadsConfig struct {
	Dir string `yaml:"dir"`
}

// IndexConfig selects and configures the vector index backend.
type IndexConfig struct {
	Backend     string `yaml:"backend"` // chromem | postgres
	Path        string `yaml:"path"`    // chromem on-disk location
	DSN         string `yaml:"dsn"`     // postgres connection string
	PasswordEnv string `yaml:"password_env"`
	VectorDim   int    `yaml:"vector_dim"`
	Debug       bool   `yaml:"debug"`
}

// RAGConfig holds chunking and retrieval parameters.
type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
}

// LLMConfig configures a model endpoint, for embeddings or generation.
type LLMConfig struct {
	Provider string `yaml:"provider"` // ollama | openai
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	KeyEnv   string `yaml:"key_env"`
	Model    string `yaml:"model"`
}

// APIKey resolves the key, preferring the literal value over the env lookup.
func (c *LLMConfig) APIKey() string {
	if c.Key != "" {
		return c.Key
	}
	if c.KeyEnv != "" {
		return os.Getenv(c.KeyEnv)
	}
	return ""
}

type Config struct {
	Uploads   UploadsConfig `yaml:"uploads"`
	Index     IndexConfig   `yaml:"index"`
	RAG       RAGConfig     `yaml:"rag"`
	Embedding LLMConfig     `yaml:"embedding"`
	LLM       LLMConfig     `yaml:"llm"`
}

// Load reads a config from path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Uploads.Dir == "" {
		cfg.Uploads.Dir = "uploads"
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = "chromem"
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = "chroma_db"
	}
	if cfg.Index.VectorDim == 0 {
		cfg.Index.VectorDim = 768
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 1000
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 200
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 3
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "ollama"
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "http://localhost:11434"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "nomic-embed-text"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "http://localhost:11434"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama3.2"
	}
}
