package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode

	Port     string
	LogLevel string

	GCPProjectID string
	GCPLocation  string
	GoogleAPIKey string

	ModelName          string
	EmbeddingModel     string
	TranscriptionModel string
	UseMockLLM         bool

	// Persona labels used in memory turns and to strip hallucinated prefixes.
	AgentName     string
	AgencyName    string
	CustomerLabel string
	StripPrefixes []string

	MemoryMaxChars    int
	RetrievalTopK     int
	EmbeddingCacheTTL time.Duration
	CommentKeywords   []string

	CatalogBackend     string // "file", "firestore" or "none"
	CatalogCollection  string
	CatalogPath        string
	CatalogSummaryPath string

	OverrideBackend string // "memory" or "redis"
	RedisURL        string

	WhatsAppToken         string
	WhatsAppPhoneNumberID string
	InstagramToken        string
	GraphAPIVersion       string
	WebhookVerifyToken    string
	AppSecret             string

	AbortOnPause bool
	AttachImages bool
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// getListEnv splits a comma separated value, dropping blanks.
func getListEnv(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// DefaultCommentKeywords are the words that make a public comment worth answering.
var DefaultCommentKeywords = []string{"preço", "eu quero", "valor", "info"}

// Load reads a .env file if present, then all env vars, and builds the config
func Load() *Config {
	_ = godotenv.Load()

	modeStr := getEnv("TUR_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	cfg := &Config{
		Mode: mode,

		Port:     getEnv("PORT", getEnv("TUR_PORT", "8080")),
		LogLevel: getEnv("TUR_LOG_LEVEL", "info"),

		GCPProjectID: getEnv("TUR_GCP_PROJECT", ""),
		GCPLocation:  getEnv("TUR_GCP_LOCATION", "us-central1"),
		GoogleAPIKey: getEnv("GOOGLE_API_KEY", ""),

		ModelName:          getEnv("TUR_MODEL_NAME", "gemini-2.0-flash"),
		EmbeddingModel:     getEnv("TUR_EMBEDDING_MODEL", "gemini-embedding-001"),
		TranscriptionModel: getEnv("TUR_TRANSCRIPTION_MODEL", "gemini-2.0-flash"),
		UseMockLLM:         getBoolEnv("TUR_USE_MOCK_LLM", mode == ModeLocal),

		AgentName:     getEnv("TUR_AGENT_NAME", "Marcinho"),
		AgencyName:    getEnv("TUR_AGENCY_NAME", ""),
		CustomerLabel: getEnv("TUR_CUSTOMER_LABEL", "Cliente"),
		StripPrefixes: getListEnv("TUR_STRIP_PREFIXES", nil),

		MemoryMaxChars:    getIntEnv("TUR_MEMORY_MAX_CHARS", 2000),
		RetrievalTopK:     getIntEnv("TUR_RETRIEVAL_TOP_K", 3),
		EmbeddingCacheTTL: getDurationEnv("TUR_EMBEDDING_CACHE_TTL", 30*time.Minute),
		CommentKeywords:   getListEnv("TUR_COMMENT_KEYWORDS", DefaultCommentKeywords),

		CatalogBackend:     getEnv("TUR_CATALOG_BACKEND", "file"),
		CatalogCollection:  getEnv("TUR_CATALOG_COLLECTION", "catalog"),
		CatalogPath:        getEnv("TUR_CATALOG_PATH", "data/catalog.json"),
		CatalogSummaryPath: getEnv("TUR_CATALOG_SUMMARY_PATH", "data/catalog_summary.txt"),

		OverrideBackend: getEnv("TUR_OVERRIDE_BACKEND", "memory"),
		RedisURL:        getEnv("TUR_REDIS_URL", "redis://localhost:6379"),

		WhatsAppToken:         getEnv("WHATSAPP_API_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		InstagramToken:        getEnv("INSTAGRAM_ACCESS_TOKEN", ""),
		GraphAPIVersion:       getEnv("TUR_GRAPH_API_VERSION", "v21.0"),
		WebhookVerifyToken:    getEnv("WEBHOOK_VERIFY_TOKEN", ""),
		AppSecret:             getEnv("META_APP_SECRET", ""),

		AbortOnPause: getBoolEnv("TUR_ABORT_ON_PAUSE", false),
		AttachImages: getBoolEnv("TUR_ATTACH_IMAGES", true),
	}

	// Minimal validation in GCP mode
	if cfg.Mode == ModeGCP && cfg.GCPProjectID == "" {
		log.Fatal("TUR_GCP_PROJECT must be set in gcp mode")
	}

	return cfg
}

// Prefixes returns every "name:" style prefix the segmenter strips from a reply unit.
func (c *Config) Prefixes() []string {
	out := []string{c.AgentName + " diz:", c.AgentName + ":"}
	return append(out, c.StripPrefixes...)
}
