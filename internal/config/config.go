// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CollaboratorConfig holds the connection settings shared by every external
// HTTP collaborator (store API, identity API, CMS API, property data API).
type CollaboratorConfig struct {
	BaseURL string
	Timeout time.Duration
}

// WooCommerceConfig configures the order-query collaborator.
type WooCommerceConfig struct {
	CollaboratorConfig
	ConsumerKey    string
	ConsumerSecret string
	// WebhookSecret enables signature verification on inbound webhooks when set.
	WebhookSecret string
	// OrdersPageSize bounds the completed-order listing used for verification.
	OrdersPageSize int
}

// IdentityConfig configures the auth-as-a-service collaborator.
type IdentityConfig struct {
	CollaboratorConfig
	ServiceRoleKey string
	AnonKey        string
}

// WordPressConfig configures the content-management collaborator.
type WordPressConfig struct {
	CollaboratorConfig
	Username string
	Password string
}

// RentCastConfig configures the property data collaborator.
type RentCastConfig struct {
	CollaboratorConfig
	APIKey string
}

// RetentionConfig controls the search-history retention worker.
type RetentionConfig struct {
	Enabled      bool
	MaxAge       time.Duration
	PollInterval time.Duration
	BatchSize    int
}

// TracingConfig configures the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

// Config is the root configuration for the service.
type Config struct {
	Environment string
	ServiceName string
	HTTPAddr    string

	DatabaseDSN string

	WooCommerce WooCommerceConfig
	Identity    IdentityConfig
	WordPress   WordPressConfig
	RentCast    RentCastConfig

	// QuotaCeiling is the fixed number of metered property lookups per user.
	QuotaCeiling int
	// TargetProductID is the product/SKU/variation id whose purchase grants access.
	TargetProductID string

	SessionTTL time.Duration

	Retention RetentionConfig
	Tracing   TracingConfig
}

// Load reads configuration from the environment. A .env file is applied when
// present so local runs match the deployed environment surface.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Environment: getString("APP_ENV", "development"),
		ServiceName: getString("SERVICE_NAME", "rentalapp"),
		HTTPAddr:    getString("HTTP_ADDR", ":8080"),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		WooCommerce: WooCommerceConfig{
			CollaboratorConfig: collaborator("WOOCOMMERCE"),
			ConsumerKey:        os.Getenv("WOOCOMMERCE_CONSUMER_KEY"),
			ConsumerSecret:     os.Getenv("WOOCOMMERCE_CONSUMER_SECRET"),
			WebhookSecret:      os.Getenv("WOOCOMMERCE_WEBHOOK_SECRET"),
			OrdersPageSize:     getInt("WOOCOMMERCE_ORDERS_PAGE_SIZE", 100),
		},
		Identity: IdentityConfig{
			CollaboratorConfig: collaborator("IDENTITY"),
			ServiceRoleKey:     os.Getenv("IDENTITY_SERVICE_ROLE_KEY"),
			AnonKey:            os.Getenv("IDENTITY_ANON_KEY"),
		},
		WordPress: WordPressConfig{
			CollaboratorConfig: collaborator("WORDPRESS"),
			Username:           os.Getenv("WORDPRESS_USERNAME"),
			Password:           os.Getenv("WORDPRESS_PASSWORD"),
		},
		RentCast: RentCastConfig{
			CollaboratorConfig: collaborator("RENTCAST"),
			APIKey:             os.Getenv("RENTCAST_API_KEY"),
		},

		QuotaCeiling:    getInt("QUOTA_CEILING", 30),
		TargetProductID: getString("TARGET_PRODUCT_ID", "i90"),

		SessionTTL: getDuration("SESSION_TTL", 12*time.Hour),

		Retention: RetentionConfig{
			Enabled:      getBool("SEARCH_RETENTION_ENABLED", true),
			MaxAge:       getDuration("SEARCH_RETENTION_MAX_AGE", 365*24*time.Hour),
			PollInterval: getDuration("SEARCH_RETENTION_POLL_INTERVAL", time.Hour),
			BatchSize:    getInt("SEARCH_RETENTION_BATCH_SIZE", 500),
		},
		Tracing: TracingConfig{
			Enabled:          getBool("TRACING_ENABLED", false),
			ExporterEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ExporterProtocol: getString("OTEL_EXPORTER_OTLP_PROTOCOL", "http"),
			SamplingRatio:    getFloat("TRACING_SAMPLING_RATIO", 1.0),
		},
	}
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func collaborator(prefix string) CollaboratorConfig {
	return CollaboratorConfig{
		BaseURL: strings.TrimRight(os.Getenv(prefix+"_BASE_URL"), "/"),
		Timeout: getDuration(prefix+"_TIMEOUT", 10*time.Second),
	}
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return value
}

func getFloat(key string, fallback float64) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return fallback
	}
	return value
}

func getBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
