package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

type Config struct {
	Server struct {
		Host      string `json:"host"`
		Port      int    `json:"port"`
		Subpath   string `json:"subpath"`
		JWTSecret string `json:"jwtSecret"`
	} `json:"server"`
	Database struct {
		DSN string `json:"dsn"`
	} `json:"database"`
	Redis struct {
		Addr     string `json:"addr"`
		Password string `json:"password"`
		DB       int    `json:"db"`
	} `json:"redis"`
	LLM struct {
		Name      string `json:"name"`
		URL       string `json:"url"`
		APIKey    string `json:"api_key"`
		MaxTokens int    `json:"max_tokens"`
	} `json:"llm"`
	Embedding struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"embedding"`
	Qdrant struct {
		URL        string `json:"url"`
		Collection string `json:"collection"`
		APIKey     string `json:"api_key"`
	} `json:"qdrant"`
	KnowledgeBase struct {
		Path string `json:"path"`
	} `json:"knowledge_base"`
	Retrieval struct {
		ServiceTopK  int `json:"service_top_k"`
		BaselineTopK int `json:"baseline_top_k"`
		FinalTopK    int `json:"final_top_k"`
	} `json:"retrieval"`
	Sessions struct {
		// "memory" (default) or "redis"
		Backend string `json:"backend"`
	} `json:"sessions"`
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// LoadConfig reads config.json from disk (singleton)
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		raw, err := os.ReadFile(path)
		if err != nil {
			cfgErr = fmt.Errorf("failed to read config file: %w", err)
			return
		}
		var c Config
		if err := json.Unmarshal(raw, &c); err != nil {
			cfgErr = fmt.Errorf("invalid config format: %w", err)
			return
		}
		// Minimal validation
		if c.Server.JWTSecret == "" {
			cfgErr = errors.New("jwtSecret must be set in config")
			return
		}
		if c.KnowledgeBase.Path == "" {
			c.KnowledgeBase.Path = "./knowledge_base"
		}
		if c.Retrieval.ServiceTopK <= 0 {
			c.Retrieval.ServiceTopK = 3
		}
		if c.Retrieval.BaselineTopK <= 0 {
			c.Retrieval.BaselineTopK = 10
		}
		if c.Retrieval.FinalTopK <= 0 {
			c.Retrieval.FinalTopK = 5
		}
		cfg = &c
	})
	return cfg, cfgErr
}

// GetConfig returns the loaded config (must call LoadConfig first)
func GetConfig() *Config {
	return cfg
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}
