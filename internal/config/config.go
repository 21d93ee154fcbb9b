package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	SQL      SQLConfig      `mapstructure:"sql"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

type GRPCConfig struct {
	Port string `mapstructure:"port"`
}

type StorageConfig struct {
	// Driver is one of memory, redis, mongo, sqlite, postgres.
	Driver string `mapstructure:"driver"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type SQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type CatalogConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type CheckoutConfig struct {
	FreeShippingThreshold int64         `mapstructure:"free_shipping_threshold"`
	PaymentDelay          time.Duration `mapstructure:"payment_delay"`
	ProgressStep          time.Duration `mapstructure:"progress_step"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

var validDrivers = map[string]bool{
	"memory":   true,
	"redis":    true,
	"mongo":    true,
	"sqlite":   true,
	"postgres": true,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("grpc.port", "50060")
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "storefront")
	v.SetDefault("redis.ttl", 0)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "storefront")
	v.SetDefault("mongo.collection", "storefront_state")
	v.SetDefault("sql.dsn", "storefront.db")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "storefront-orders")
	v.SetDefault("catalog.base_url", "https://697c01a9889a1aecfeb13d77.mockapi.io/api/v1")
	v.SetDefault("catalog.stale_after", 5*time.Minute)
	v.SetDefault("catalog.timeout", 10*time.Second)
	v.SetDefault("checkout.free_shipping_threshold", 1_000_000)
	v.SetDefault("checkout.payment_delay", 2*time.Second)
	v.SetDefault("checkout.progress_step", 2*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
}

// Load reads configPath (YAML) when given, then applies STOREFRONT_* environment
// overrides, e.g. STOREFRONT_STORAGE_DRIVER=redis.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("storefront")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if !validDrivers[c.Storage.Driver] {
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Server.Port == "" {
		return errors.New("server port must be set")
	}
	if c.Checkout.PaymentDelay < 0 || c.Checkout.ProgressStep < 0 {
		return errors.New("checkout delays must not be negative")
	}
	return nil
}
