package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"compliance-rag/types"
)

type Config struct {
	Port                string                            `mapstructure:"port"`
	DataDirs            DataDirs                          `mapstructure:"data_dirs"`
	Chunking            ChunkingConfig                    `mapstructure:"chunking"`
	Retrieval           RetrievalConfig                   `mapstructure:"retrieval"`
	LLM                 LLMConfig                         `mapstructure:"llm"`
	WeaviateStoreConfig WeaviateStoreConfig               `mapstructure:"weaviate_store_config"`
	MongoURI            string                            `mapstructure:"MONGODB_URI"`
	Documents           map[string]types.DocumentMetadata `mapstructure:"documents"`
}

type DataDirs struct {
	Raw       string `mapstructure:"raw"`
	Extracted string `mapstructure:"extracted"`
	Processed string `mapstructure:"processed"`
	Traces    string `mapstructure:"traces"`
}

type ChunkingConfig struct {
	MaxChunkSize int `mapstructure:"max_chunk_size"`
	OverlapSize  int `mapstructure:"overlap_size"`
}

type RetrievalConfig struct {
	TopK int `mapstructure:"top_k"`
}

// LLMConfig selects the answer generator at startup. Provider is one of
// "openai" or "gemini"; the matching credentials come from the environment.
type LLMConfig struct {
	Provider      string   `mapstructure:"provider"`
	Model         string   `mapstructure:"model"`
	OpenAIBaseURL string   `mapstructure:"openai_base_url"`
	OpenAIAPIKey  string   `mapstructure:"OPENAI_API_KEY"`
	GeminiAPIKeys []string `mapstructure:"gemini_api_keys"`
}

type WeaviateStoreConfig struct {
	Host          string       `mapstructure:"host"`
	APIKey        string       `mapstructure:"WEAVIATE_APIKEY"`
	ClassName     string       `mapstructure:"class_name"`
	Text2Vec      string       `mapstructure:"text2vec"`
	Text2VecModel string       `mapstructure:"text2vec_model"`
	ModuleConfig  ModuleConfig `mapstructure:"module_config"`
}

type ModuleConfig map[string]interface{}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("WEAVIATE_APIKEY")
	v.BindEnv("MONGODB_URI")
	v.BindEnv("GEMINI_API_KEYS")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.LLM.OpenAIAPIKey = v.GetString("OPENAI_API_KEY")
	config.WeaviateStoreConfig.APIKey = v.GetString("WEAVIATE_APIKEY")
	config.MongoURI = v.GetString("MONGODB_URI")
	if keys := v.GetString("GEMINI_API_KEYS"); keys != "" {
		config.LLM.GeminiAPIKeys = strings.Split(keys, ",")
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("data_dirs.raw", "data/raw")
	v.SetDefault("data_dirs.extracted", "data/extracted")
	v.SetDefault("data_dirs.processed", "data/processed")
	v.SetDefault("data_dirs.traces", "traces")
	v.SetDefault("chunking.max_chunk_size", 2000)
	v.SetDefault("chunking.overlap_size", 250)
	v.SetDefault("retrieval.top_k", 5)
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("weaviate_store_config.class_name", "ComplianceChunk")
	v.SetDefault("weaviate_store_config.text2vec", "text2vec-transformers")
	v.SetDefault("weaviate_store_config.text2vec_model", "BAAI/bge-large-en-v1.5")
}
