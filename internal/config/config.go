package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Nats     NatsConfig
	Keys     APIKeys
	Ai       AIConfig
	Pipeline PipelineConfig
	Auth     AuthConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	SyncLogFilePath    string
	CorsAllowedOrigins string
}

type DatabaseConfig struct {
	Connection string
}

type RedisConfig struct {
	URL             string
	EmbeddingTTLMin int
}

type NatsConfig struct {
	URL     string
	Enabled bool
}

type APIKeys struct {
	GoogleGemini string
	OpenAI       string
	HuggingFace  string
	Jina         string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "ollama" or "jina"
	EmbeddingModel    string
	OllamaBaseURL     string
	OllamaModel       string
	OpenAIBaseURL     string
	HuggingFaceURL    string
	LLMProvider       string // "gemini", "openai", "ollama", "huggingface"
	LLMModel          string
	VectorStore       string // "pgvector" or "memory"
	SyncTopic         string
}

type PipelineConfig struct {
	MinInputLength      int
	MaxInputLength      int
	SupportedLanguages  []string
	SimilarityThreshold float64
	StrictThreshold     float64
	RAGTopK             int
	TemplateThreshold   float64
	RelevanceDistance   float64
	LLMTemperature      float64
	LLMMaxTokens        int
	PlannerModel        string
	CrisisEnabled       bool
	ViolenceEnabled     bool
	ValuesEnabled       bool
}

type AuthConfig struct {
	JWTSecret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			SyncLogFilePath:    getEnv("SYNC_LOG_FILE_PATH", "logs/sync.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Redis: RedisConfig{
			URL:             getEnv("REDIS_URL", ""),
			EmbeddingTTLMin: getEnvAsInt("EMBEDDING_CACHE_TTL_MINUTES", 60*24),
		},
		Nats: NatsConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Enabled: getEnvAsBool("NATS_ENABLED", false),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", ""),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
			HuggingFaceURL:    getEnv("HUGGINGFACE_BASE_URL", ""),
			LLMProvider:       getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:          getEnv("LLM_MODEL", ""),
			VectorStore:       getEnv("VECTOR_STORE", "pgvector"),
			SyncTopic:         getEnv("SYNC_TOPIC_NAME", "SYNC_KNOWLEDGE"),
		},
		Pipeline: PipelineConfig{
			MinInputLength:      getEnvAsInt("MIN_INPUT_LENGTH", 10),
			MaxInputLength:      getEnvAsInt("MAX_INPUT_LENGTH", 500),
			SupportedLanguages:  getEnvAsList("SUPPORTED_LANGUAGES", []string{"id", "en"}),
			SimilarityThreshold: getEnvAsFloat("SEMANTIC_SIMILARITY_THRESHOLD", 0.45),
			StrictThreshold:     getEnvAsFloat("SEMANTIC_STRICT_THRESHOLD", 0.50),
			RAGTopK:             getEnvAsInt("RAG_TOP_K", 5),
			TemplateThreshold:   getEnvAsFloat("TEMPLATE_SIMILARITY_THRESHOLD", 0.85),
			RelevanceDistance:   getEnvAsFloat("KNOWLEDGE_RELEVANCE_DISTANCE", 0.7),
			LLMTemperature:      getEnvAsFloat("LLM_TEMPERATURE", 0.3),
			LLMMaxTokens:        getEnvAsInt("LLM_MAX_TOKENS", 4096),
			PlannerModel:        getEnv("PLANNER_MODEL", ""),
			CrisisEnabled:       getEnvAsBool("SAFETY_CRISIS_ENABLED", true),
			ViolenceEnabled:     getEnvAsBool("SAFETY_VIOLENCE_ENABLED", true),
			ValuesEnabled:       getEnvAsBool("SAFETY_VALUES_ENABLED", true),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
