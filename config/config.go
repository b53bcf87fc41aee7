package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all app configuration
type Config struct {
	// Server
	Env      string
	HTTPPort string

	// Subgraph
	SubgraphURL      string
	SubgraphPageSize int

	// Trending cache
	TrendingCacheBackend    string // "pinning" or "redis"
	TrendingCacheName       string
	TrendingCacheTTLMinutes int

	// Pinning service
	PinningAPIURL string
	GatewayURL    string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ClickHouse
	ClickhouseAddr     string
	ClickhouseUsername string
	ClickhousePassword string
	ClickhouseTimeout  int

	// Kafka
	KafkaBrokers       []string
	KafkaTopic         string
	KafkaConsumerGroup string
	KafkaBatchSize     int
	KafkaBatchTimeout  int // milliseconds

	// App settings
	EventBufferSize int
	Debug           bool
}

// LoadConfig loads configuration from environment variables, with optional .env file
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	return &Config{
		Env:      getEnv("ENV", "local"),
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		SubgraphURL:      getEnv("SUBGRAPH_URL", "http://localhost:8000/subgraphs/name/protocol"),
		SubgraphPageSize: getEnvAsInt("SUBGRAPH_PAGE_SIZE", 1000),

		TrendingCacheBackend:    getEnv("TRENDING_CACHE_BACKEND", "pinning"),
		TrendingCacheName:       getEnv("TRENDING_CACHE_NAME", "trending_projects_v2_mainnet"),
		TrendingCacheTTLMinutes: getEnvAsInt("TRENDING_CACHE_TTL_MINUTES", 12),

		PinningAPIURL: getEnv("PINNING_API_URL", "http://localhost:3001/api"),
		GatewayURL:    getEnv("GATEWAY_URL", "https://ipfs.io"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		ClickhouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickhouseUsername: getEnv("CLICKHOUSE_USERNAME", ""),
		ClickhousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		ClickhouseTimeout:  getEnvAsInt("CLICKHOUSE_TIMEOUT", 10),

		KafkaBrokers:       getEnvAsSlice("KAFKA_BROKERS", nil, ","),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "pay-events"),
		KafkaConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "fundstat-group"),
		KafkaBatchSize:     getEnvAsInt("KAFKA_BATCH_SIZE", 500),
		KafkaBatchTimeout:  getEnvAsInt("KAFKA_BATCH_TIMEOUT", 3000),

		EventBufferSize: getEnvAsInt("EVENT_BUFFER_SIZE", 10000),
		Debug:           getEnvAsBool("DEBUG", false),
	}
}

// Helper functions for parsing environment variables
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsSlice(key string, defaultVal []string, sep string) []string {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultVal
	}
	return strings.Split(valStr, sep)
}
