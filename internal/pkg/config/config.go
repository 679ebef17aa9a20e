package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Storage drivers.
const (
	DriverBolt  = "bolt"
	DriverMongo = "mongo"
)

type Config struct {
	Port      string        `env:"PORT,       default=8080"`
	Env       string        `env:"ENV,        default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=4h"`
	LogLevel  string        `env:"LOG_LEVEL,  default=info"`
	PublicDir string        `env:"PUBLIC_DIR"`

	Store     StoreConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Bootstrap BootstrapConfig

	UserRemovalPolicy string `env:"USER_REMOVAL_POLICY, default=restrict"`
	AuditWorkers      int    `env:"AUDIT_WORKERS,       default=4"`
}

type StoreConfig struct {
	Driver  string `env:"STORE_DRIVER, default=bolt"`
	DataDir string `env:"DATA_DIR,     default=./data"`

	CompactUsers      time.Duration `env:"COMPACT_USERS_INTERVAL,      default=1h"`
	CompactDocuments  time.Duration `env:"COMPACT_DOCUMENTS_INTERVAL,  default=30m"`
	CompactStructures time.Duration `env:"COMPACT_STRUCTURES_INTERVAL, default=6h"`
	CompactAudit      time.Duration `env:"COMPACT_AUDIT_INTERVAL,      default=6h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=docrepo"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type BootstrapConfig struct {
	AdminName     string `env:"BOOTSTRAP_ADMIN_NAME,     default=admin"`
	AdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD, default=adminSecret"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads and validates configuration from l.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings envconfig cannot.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	switch c.Store.Driver {
	case DriverBolt, DriverMongo:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverBolt, DriverMongo, c.Store.Driver))
	}
	switch c.UserRemovalPolicy {
	case "restrict", "cascade":
	default:
		errs = append(errs, fmt.Errorf("USER_REMOVAL_POLICY must be restrict or cascade, got %q", c.UserRemovalPolicy))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
