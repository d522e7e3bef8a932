package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	HTTPPort int
	GRPCPort int

	// GRPCReflection registers the gRPC reflection service.
	GRPCReflection bool

	Store     StoreConfig
	Notify    NotifyConfig
	Archive   ArchiveConfig
	Kafka     KafkaConfig
	Telemetry TelemetryConfig
	TLS       TLSConfig
	LogLevel  string
	LogFormat string

	// ShutdownTimeout bounds graceful shutdown of the servers.
	ShutdownTimeout time.Duration
}

type StoreConfig struct {
	// HistoryCapacity bounds the recent-message feed.
	HistoryCapacity int
	// LatencyWindow is the number of response latencies averaged.
	LatencyWindow int
}

type NotifyConfig struct {
	SubscriberBuffer int
}

// ArchiveConfig configures the optional Postgres write-through archive.
type ArchiveConfig struct {
	Enabled       bool
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxConns      int32
	MinConns      int32
	MigrationsDir string
}

type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	EventsTopic   string
	InboundTopic  string
	ConsumerGroup string
	TLS           bool
	SASLEnabled   bool
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
}

type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
	Insecure     bool
}

// TLSConfig enables TLS on the gRPC listener when both files are set.
type TLSConfig struct {
	CertFile string
	KeyFile  string
	CAFile   string
}

func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

// Validate checks required configuration values.
func (c Config) Validate() error {
	var errs []error
	if c.Store.HistoryCapacity <= 0 {
		errs = append(errs, fmt.Errorf("STORE_HISTORY_CAPACITY must be positive, got %d", c.Store.HistoryCapacity))
	}
	if c.Store.LatencyWindow <= 0 {
		errs = append(errs, fmt.Errorf("STORE_LATENCY_WINDOW must be positive, got %d", c.Store.LatencyWindow))
	}
	if c.Notify.SubscriberBuffer <= 0 {
		errs = append(errs, fmt.Errorf("NOTIFY_SUBSCRIBER_BUFFER must be positive, got %d", c.Notify.SubscriberBuffer))
	}
	if c.Archive.Enabled && c.Archive.Password == "" {
		errs = append(errs, errors.New("DB_PASSWORD environment variable is required when the archive is enabled"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when kafka is enabled"))
	}
	if c.Kafka.SASLEnabled && c.Kafka.SASLUsername == "" {
		errs = append(errs, errors.New("KAFKA_SASL_USERNAME is required when SASL is enabled"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables with defaults. A .env
// file in the working directory, or the file named by ENV_FILE, is loaded
// first. It never overrides variables already set.
func Load() Config {
	if file := getEnv("ENV_FILE", ".env"); file != "" {
		_ = godotenv.Load(file)
	}

	return Config{
		HTTPPort: getEnvInt("HTTP_PORT", 8090),
		GRPCPort: getEnvInt("GRPC_PORT", 9090),

		GRPCReflection: getEnvBool("GRPC_REFLECTION", false),
		Store: StoreConfig{
			HistoryCapacity: getEnvInt("STORE_HISTORY_CAPACITY", 1000),
			LatencyWindow:   getEnvInt("STORE_LATENCY_WINDOW", 50),
		},
		Notify: NotifyConfig{
			SubscriberBuffer: getEnvInt("NOTIFY_SUBSCRIBER_BUFFER", 256),
		},
		Archive: ArchiveConfig{
			Enabled:       getEnvBool("ARCHIVE_ENABLED", false),
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnvInt("DB_PORT", 5432),
			User:          getEnv("DB_USER", "bib"),
			Password:      getEnv("DB_PASSWORD", ""),
			Name:          getEnv("DB_NAME", "bib_guarantee_messaging"),
			SSLMode:       getEnv("DB_SSLMODE", "require"),
			MaxConns:      int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns:      int32(getEnvInt("DB_MIN_CONNS", 2)),
			MigrationsDir: getEnv("DB_MIGRATIONS_DIR", "internal/infrastructure/postgres/migrations"),
		},
		Kafka: KafkaConfig{
			Enabled:       getEnvBool("KAFKA_ENABLED", false),
			Brokers:       getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			EventsTopic:   getEnv("KAFKA_EVENTS_TOPIC", "bib.swift.messages"),
			InboundTopic:  getEnv("KAFKA_INBOUND_TOPIC", "bib.swift.inbound"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "guarantee-messaging"),
			TLS:           getEnvBool("KAFKA_TLS", false),
			SASLEnabled:   getEnvBool("KAFKA_SASL_ENABLED", false),
			SASLMechanism: getEnv("KAFKA_SASL_MECHANISM", "SCRAM-SHA-512"),
			SASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
			SASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  "guarantee-messaging",
			Insecure:     getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		},
		TLS: TLSConfig{
			CertFile: getEnv("TLS_CERT_FILE", ""),
			KeyFile:  getEnv("TLS_KEY_FILE", ""),
			CAFile:   getEnv("TLS_CA_FILE", ""),
		},
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvList splits a comma-separated value, dropping blank entries.
func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
