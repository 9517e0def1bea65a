package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

const (
	IndexMemory   = "memory"
	IndexPgVector = "pgvector"
)

type EmbeddingsConfig struct {
	Provider  string
	Model     string
	Dimension int
}

type LLMConfig struct {
	Provider        string
	Model           string
	Temperature     float32
	MaxOutputTokens int
}

type RetrievalConfig struct {
	// Store selects the retrieval index backend: in-memory exact search or
	// pgvector-backed persistent storage.
	Store        string
	TopK         int
	ChunkSize    int
	ChunkOverlap int
	// MaxRecords bounds how many of the most recent transactions feed the
	// index, capping embedding cost per rebuild.
	MaxRecords int
}

type Config struct {
	PostgresDSN string

	Embeddings EmbeddingsConfig
	LLM        LLMConfig
	Retrieval  RetrievalConfig

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration

	ListenAddr string
	DataFile   string
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		PostgresDSN: getEnv("POSTGRES_DSN", "postgres://localhost:5432/shop-agent?sslmode=disable"),
		Embeddings: EmbeddingsConfig{
			Provider:  getEnv("EMBEDDINGS_PROVIDER", ProviderOpenAI),
			Model:     getEnv("EMBEDDINGS_MODEL", "text-embedding-3-small"),
			Dimension: getEnvInt("EMBEDDINGS_DIMENSION", 1536),
		},
		LLM: LLMConfig{
			Provider:        getEnv("LLM_PROVIDER", ProviderOpenAI),
			Model:           getEnv("LLM_MODEL", "gpt-4o-mini"),
			Temperature:     float32(getEnvFloat("LLM_TEMPERATURE", 0.3)),
			MaxOutputTokens: getEnvInt("LLM_MAX_OUTPUT_TOKENS", 1500),
		},
		Retrieval: RetrievalConfig{
			Store:        getEnv("RETRIEVAL_STORE", IndexMemory),
			TopK:         getEnvInt("RETRIEVAL_TOP_K", 4),
			ChunkSize:    getEnvInt("RETRIEVAL_CHUNK_SIZE", 1000),
			ChunkOverlap: getEnvInt("RETRIEVAL_CHUNK_OVERLAP", 200),
			MaxRecords:   getEnvInt("RETRIEVAL_MAX_RECORDS", 200),
		},
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		EmbedTimeout:    getEnvDuration("EMBED_TIMEOUT", 30*time.Second),
		GenerateTimeout: getEnvDuration("GENERATE_TIMEOUT", 60*time.Second),
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		DataFile:        getEnv("DATA_FILE", "sales.json"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
