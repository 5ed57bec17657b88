package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverMemory = "memory"
	StoreDriverMySQL  = "mysql"

	defaultPort = "8080"
)

// Config holds everything the composition root needs to build the services.
// Empty optional values disable the matching integration.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	StoreDriver string
	DB          DBConfig

	RedisAddress  string
	CacheLifespan time.Duration

	PubSubProjectID       string
	PubSubTopic           string
	PubSubCredentialsJSON string

	GCSBucket          string
	GCSCredentialsJSON string

	APISecret         string
	TokenHourLifespan int

	CORSAllowedOrigins []string

	CompanyProfileFile string
}

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Load reads .env (if present) and then the process environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() Config {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	driver := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER")))
	if driver == "" {
		driver = StoreDriverMemory
	}

	logLevel := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevel == "" {
		logLevel = "info"
	}

	return Config{
		Port:        port,
		Env:         strings.TrimSpace(os.Getenv("GO_ENV")),
		LogLevel:    logLevel,
		StoreDriver: driver,
		DB: DBConfig{
			User:            os.Getenv("DB_USER"),
			Password:        os.Getenv("DB_PASSWORD"),
			Host:            os.Getenv("DB_HOST"),
			Port:            os.Getenv("DB_PORT"),
			Name:            os.Getenv("DB_NAME"),
			MaxOpenConns:    intFromEnv("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    intFromEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: time.Duration(intFromEnv("DB_CONN_MAX_LIFETIME_SECONDS", 300)) * time.Second,
			ConnMaxIdleTime: time.Duration(intFromEnv("DB_CONN_MAX_IDLE_TIME_SECONDS", 60)) * time.Second,
		},
		RedisAddress:          strings.TrimSpace(os.Getenv("REDIS_ADDRESS")),
		CacheLifespan:         time.Duration(intFromEnv("CACHE_LIFESPAN", 1)) * time.Hour,
		PubSubProjectID:       getPubSubProjectID(),
		PubSubTopic:           strings.TrimSpace(os.Getenv("PUBSUB_TOPIC")),
		PubSubCredentialsJSON: os.Getenv("PUBSUB_CREDENTIALS_JSON"),
		GCSBucket:             strings.TrimSpace(os.Getenv("GCS_BUCKET")),
		GCSCredentialsJSON:    os.Getenv("GCS_CREDENTIALS_JSON"),
		APISecret:             os.Getenv("API_SECRET"),
		TokenHourLifespan:     intFromEnv("TOKEN_HOUR_LIFESPAN", 24),
		CORSAllowedOrigins:    splitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS")),
		CompanyProfileFile:    strings.TrimSpace(os.Getenv("COMPANY_PROFILE_FILE")),
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getPubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	// Cloud Run sets this.
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	return os.Getenv("GCP_PROJECT")
}
