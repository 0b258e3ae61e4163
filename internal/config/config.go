package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds all configuration for the POS system
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Server   ServerConfig   `yaml:"server"`
	Engine   EngineConfig   `yaml:"engine"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	MaxConns int32  `yaml:"max_conns"`
}

// RabbitMQConfig holds RabbitMQ connection configuration
type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Enabled  bool   `yaml:"enabled"`
}

// ServerConfig holds HTTP server settings for pos-service
type ServerConfig struct {
	Port            int           `yaml:"port"`
	Store           string        `yaml:"store"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// EngineConfig holds the business rule switches of the order engine
type EngineConfig struct {
	TaxRate      float64            `yaml:"tax_rate"`
	Seed         bool               `yaml:"seed"`
	Cart         CartConfig         `yaml:"cart"`
	Orders       OrdersConfig       `yaml:"orders"`
	Delivery     DeliveryConfig     `yaml:"delivery"`
	Reservations ReservationsConfig `yaml:"reservations"`
	Users        UsersConfig        `yaml:"users"`
}

// CartConfig controls cart aggregation
type CartConfig struct {
	StrictQuantity bool `yaml:"strict_quantity"`
	ApplyDiscounts bool `yaml:"apply_discounts"`
}

// OrdersConfig controls order lifecycle side effects
type OrdersConfig struct {
	FreeTableOnCancel bool `yaml:"free_table_on_cancel"`
}

// DeliveryConfig controls driver assignment side effects
type DeliveryConfig struct {
	CompleteOrderOnDelivery bool   `yaml:"complete_order_on_delivery"`
	DefaultEstimate         string `yaml:"default_estimate"`
}

// ReservationsConfig controls reservation hardening checks
type ReservationsConfig struct {
	EnforceCapacity bool `yaml:"enforce_capacity"`
	DetectOverlap   bool `yaml:"detect_overlap"`
}

// UsersConfig controls credential handling
type UsersConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when a key is absent from the file
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "restaurant_user",
			Database: "restaurant_pos",
			MaxConns: 25,
		},
		RabbitMQ: RabbitMQConfig{
			Host:    "localhost",
			Port:    5672,
			User:    "guest",
			Enabled: true,
		},
		Server: ServerConfig{
			Port:            3000,
			Store:           StoreMemory,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Engine: EngineConfig{
			TaxRate: 0.05,
			Seed:    true,
			Delivery: DeliveryConfig{
				DefaultEstimate: "30-45 minutes",
			},
			Reservations: ReservationsConfig{
				EnforceCapacity: true,
				DetectOverlap:   true,
			},
			Users: UsersConfig{
				BcryptCost: 10,
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults, then
// applies a .env file (if present) and POS_* environment overrides
func Load(filename string) (*Config, error) {
	cfg := Default()

	content, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults plus environment only
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides values from the environment
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"POS_DB_HOST":           &c.Database.Host,
		"POS_DB_USER":           &c.Database.User,
		"POS_DB_PASSWORD":       &c.Database.Password,
		"POS_DB_NAME":           &c.Database.Database,
		"POS_RABBITMQ_HOST":     &c.RabbitMQ.Host,
		"POS_RABBITMQ_USER":     &c.RabbitMQ.User,
		"POS_RABBITMQ_PASSWORD": &c.RabbitMQ.Password,
		"POS_STORE":             &c.Server.Store,
		"POS_LOG_LEVEL":         &c.Logging.Level,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"POS_DB_PORT":       &c.Database.Port,
		"POS_RABBITMQ_PORT": &c.RabbitMQ.Port,
		"POS_HTTP_PORT":     &c.Server.Port,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", key, err)
		}
		*dst = n
	}
	return nil
}

// Validate checks values that would otherwise fail late at runtime
func (c *Config) Validate() error {
	switch c.Server.Store {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("unknown server.store: %q", c.Server.Store)
	}
	if c.Engine.TaxRate < 0 || c.Engine.TaxRate >= 1 {
		return fmt.Errorf("engine.tax_rate must be in [0, 1), got %v", c.Engine.TaxRate)
	}
	for name, port := range map[string]int{
		"database.port": c.Database.Port,
		"rabbitmq.port": c.RabbitMQ.Port,
		"server.port":   c.Server.Port,
	} {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %s: %d", name, port)
		}
	}
	return nil
}

// DatabaseURL returns a PostgreSQL connection URL
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Database)
}

// RabbitMQURL returns an AMQP connection URL
func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}
