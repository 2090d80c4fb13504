package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all service settings, populated from the environment and an
// optional YAML file named by CONFIG_FILE.
type Config struct {
	TankSourceURL          string
	PollInterval           time.Duration
	PredictionPollInterval time.Duration // zero disables the prediction poller
	FetchTimeout           time.Duration
	AlertTTL               time.Duration
	SearchRadiusKm         float64
	HistoryLimit           int
	EvictAfterCycles       int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Nominatim geocoding configuration.
	GeocoderEnabled   bool
	GeocoderURL       string
	GeocoderTimeout   time.Duration
	GeocoderCacheSize int
	GeocoderUserAgent string

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

var defaults = map[string]any{
	"tank_source_url":          "http://localhost:5000/get_tanks",
	"poll_interval":            "7s",
	"prediction_poll_interval": "4s",
	"fetch_timeout":            "5s",
	"alert_ttl":                "45s",
	"search_radius_km":         "4",
	"history_limit":            "0",
	"evict_after_cycles":       "0",
	"http_addr":                ":8080",
	"log_level":                "info",
	"log_format":               "json",
	"shutdown_timeout":         "10s",
	"geocoder_enabled":         "true",
	"geocoder_url":             "https://nominatim.openstreetmap.org/search",
	"geocoder_timeout":         "5s",
	"geocoder_cache_size":      "1000",
	"geocoder_user_agent":      "tankwatch/1.0",
	"kafka_enabled":            "false",
	"kafka_brokers":            "localhost:9092",
	"kafka_topic":              "tank-events",
}

// Load reads configuration, applying defaults where unset. A .env file in the
// working directory is loaded first without overriding the real environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if path := strings.TrimSpace(v.GetString("config_file")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read CONFIG_FILE: %w", err)
		}
	}

	p := parser{v: v}
	cfg := &Config{
		TankSourceURL:          p.str("tank_source_url"),
		PollInterval:           p.positiveDuration("poll_interval"),
		PredictionPollInterval: p.duration("prediction_poll_interval"),
		FetchTimeout:           p.positiveDuration("fetch_timeout"),
		AlertTTL:               p.positiveDuration("alert_ttl"),
		SearchRadiusKm:         p.positiveFloat("search_radius_km"),
		HistoryLimit:           p.nonNegativeInt("history_limit"),
		EvictAfterCycles:       p.nonNegativeInt("evict_after_cycles"),

		HTTPAddr:        p.str("http_addr"),
		LogLevel:        p.str("log_level"),
		LogFormat:       p.str("log_format"),
		ShutdownTimeout: p.positiveDuration("shutdown_timeout"),

		GeocoderEnabled:   p.boolean("geocoder_enabled"),
		GeocoderURL:       p.str("geocoder_url"),
		GeocoderTimeout:   p.positiveDuration("geocoder_timeout"),
		GeocoderCacheSize: p.positiveInt("geocoder_cache_size"),
		GeocoderUserAgent: p.str("geocoder_user_agent"),

		KafkaEnabled: p.boolean("kafka_enabled"),
		KafkaBrokers: sharedcfg.ParseBrokers(p.str("kafka_brokers")),
		KafkaTopic:   p.str("kafka_topic"),
	}
	if p.err != nil {
		return nil, p.err
	}

	if cfg.TankSourceURL == "" {
		return nil, errors.New("TANK_SOURCE_URL is required")
	}
	if cfg.GeocoderEnabled && cfg.GeocoderURL == "" {
		return nil, errors.New("GEOCODER_ENABLED is true but GEOCODER_URL is not set")
	}
	if cfg.GeocoderEnabled && cfg.GeocoderUserAgent == "" {
		return nil, errors.New("GEOCODER_USER_AGENT is required when geocoding is enabled")
	}
	if cfg.KafkaEnabled && !validBrokers(cfg.KafkaBrokers) {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

// parser records the first invalid value so Load can build the struct in
// one literal and check once.
type parser struct {
	v   *viper.Viper
	err error
}

func (p *parser) fail(key string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s", strings.ToUpper(key))
	}
}

func (p *parser) str(key string) string {
	return strings.TrimSpace(p.v.GetString(key))
}

func (p *parser) duration(key string) time.Duration {
	d, err := time.ParseDuration(p.str(key))
	if err != nil || d < 0 {
		p.fail(key)
		return 0
	}
	return d
}

func (p *parser) positiveDuration(key string) time.Duration {
	d, err := time.ParseDuration(p.str(key))
	if err != nil || d <= 0 {
		p.fail(key)
		return 0
	}
	return d
}

func (p *parser) nonNegativeInt(key string) int {
	n, err := strconv.Atoi(p.str(key))
	if err != nil || n < 0 {
		p.fail(key)
		return 0
	}
	return n
}

func (p *parser) positiveInt(key string) int {
	n, err := strconv.Atoi(p.str(key))
	if err != nil || n <= 0 {
		p.fail(key)
		return 0
	}
	return n
}

func (p *parser) positiveFloat(key string) float64 {
	f, err := strconv.ParseFloat(p.str(key), 64)
	if err != nil || f <= 0 {
		p.fail(key)
		return 0
	}
	return f
}

func (p *parser) boolean(key string) bool {
	b, err := strconv.ParseBool(p.str(key))
	if err != nil {
		p.fail(key)
		return false
	}
	return b
}

func validBrokers(brokers []string) bool {
	if len(brokers) == 0 {
		return false
	}
	for _, b := range brokers {
		if strings.TrimSpace(b) == "" {
			return false
		}
	}
	return true
}
