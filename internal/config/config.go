package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/climate-odds/internal/climate"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka query worker.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration

	// NASA POWER climate source.
	PowerBaseURL    string
	PowerTimeout    time.Duration
	PowerStartDate  string
	PowerCommunity  string
	PowerParameters []climate.Variable

	// Dataset cache.
	CacheBackend  string
	CacheTTL      time.Duration
	CacheSize     int
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Nominatim geocoding.
	GeocoderEnabled   bool
	NominatimURL      string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration
	GeocoderCacheSize int
	GeocoderRateLimit float64

	// Classifier.
	MLEnabled        bool
	MLLags           int
	MLLabelThreshold float64
	MLEpochs         int
	MLLearningRate   float64
	MLL2             float64
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}
	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	p := &parser{}
	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:       p.boolean("KAFKA_ENABLED", false),
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "climate-queries"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "climate-reports"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "climate-odds"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		PowerBaseURL:    strings.TrimRight(sharedcfg.EnvOrDefault("POWER_BASE_URL", "https://power.larc.nasa.gov"), "/"),
		PowerTimeout:    p.duration("POWER_TIMEOUT", 30*time.Second),
		PowerStartDate:  sharedcfg.EnvOrDefault("POWER_START_DATE", "19810101"),
		PowerCommunity:  sharedcfg.EnvOrDefault("POWER_COMMUNITY", "AG"),
		PowerParameters: p.variables("POWER_PARAMETERS"),

		CacheBackend:  strings.ToLower(sharedcfg.EnvOrDefault("CACHE_BACKEND", CacheMemory)),
		CacheTTL:      p.duration("CACHE_TTL", 30*24*time.Hour),
		CacheSize:     p.positiveInt("CACHE_SIZE", 256),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       p.integer("REDIS_DB", 0),

		GeocoderEnabled:   p.boolean("GEOCODER_ENABLED", true),
		NominatimURL:      strings.TrimRight(sharedcfg.EnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"), "/"),
		GeocoderUserAgent: sharedcfg.EnvOrDefault("GEOCODER_USER_AGENT", "climate-odds/1.0"),
		GeocoderTimeout:   p.duration("GEOCODER_TIMEOUT", 8*time.Second),
		GeocoderCacheSize: p.positiveInt("GEOCODER_CACHE_SIZE", 1000),
		GeocoderRateLimit: p.positiveNumber("GEOCODER_RATE_LIMIT", 1),

		MLEnabled:        p.boolean("ML_ENABLED", true),
		MLLags:           p.integer("ML_LAGS", 3),
		MLLabelThreshold: p.number("ML_LABEL_THRESHOLD", 0.1),
		MLEpochs:         p.positiveInt("ML_EPOCHS", 800),
		MLLearningRate:   p.positiveNumber("ML_LEARNING_RATE", 0.005),
		MLL2:             p.number("ML_L2", 1e-2),
	}
	if p.err != nil {
		return nil, p.err
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if strings.TrimSpace(cfg.KafkaSourceTopic) == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if strings.TrimSpace(cfg.KafkaSinkTopic) == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	switch cfg.CacheBackend {
	case CacheMemory:
	case CacheRedis:
		if cfg.RedisAddr == "" {
			return nil, errors.New("CACHE_BACKEND is redis but REDIS_ADDR is not set")
		}
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q: want memory or redis", cfg.CacheBackend)
	}
	if _, err := time.Parse("20060102", cfg.PowerStartDate); err != nil {
		return nil, fmt.Errorf("invalid POWER_START_DATE %q: want YYYYMMDD", cfg.PowerStartDate)
	}
	if cfg.MLLags < 0 {
		return nil, errors.New("invalid ML_LAGS: must not be negative")
	}
	if cfg.MLL2 < 0 {
		return nil, errors.New("invalid ML_L2: must not be negative")
	}

	return cfg, nil
}

// parser collects the first parse error so Load can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key, value string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q", key, value)
	}
}

func (p *parser) boolean(key string, def bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		p.fail(key, s)
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		p.fail(key, s)
		return def
	}
	return d
}

func (p *parser) integer(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		p.fail(key, s)
		return def
	}
	return n
}

func (p *parser) positiveInt(key string, def int) int {
	n := p.integer(key, def)
	if n <= 0 {
		p.fail(key, os.Getenv(key))
		return def
	}
	return n
}

func (p *parser) number(key string, def float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(key, s)
		return def
	}
	return f
}

func (p *parser) positiveNumber(key string, def float64) float64 {
	f := p.number(key, def)
	if f <= 0 {
		p.fail(key, os.Getenv(key))
		return def
	}
	return f
}

func (p *parser) variables(key string) []climate.Variable {
	s := os.Getenv(key)
	if s == "" {
		return climate.DefaultVariables()
	}
	var out []climate.Variable
	for _, name := range strings.Split(s, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		v, err := climate.ParseVariable(name)
		if err != nil {
			p.fail(key, s)
			return climate.DefaultVariables()
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		p.fail(key, s)
		return climate.DefaultVariables()
	}
	return out
}
