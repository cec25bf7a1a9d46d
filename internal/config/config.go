package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/ahwlsqja/nonce-service/pkg/nonce"
)

// Nonce storage backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMySQL  = "mysql"
	BackendMongo  = "mongo"
)

type Config struct {
	Server   ServerConfig
	Nonce    NonceConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Mongo    MongoConfig
	EIP712   EIP712Config
	Worker   WorkerConfig
}

type ServerConfig struct {
	Host         string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port         int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	Environment  string        `envconfig:"ENVIRONMENT" default:"development"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type NonceConfig struct {
	Backend           string `envconfig:"NONCE_BACKEND" default:"memory"`
	DefaultDurationMS int64  `envconfig:"NONCE_DEFAULT_DURATION_MS" default:"900000"`
	RedisKeyPrefix    string `envconfig:"NONCE_REDIS_KEY_PREFIX" default:"nonce"`
}

// DefaultDuration converts the configured milliseconds; out-of-range values fall back to 15 minutes
func (n NonceConfig) DefaultDuration() time.Duration {
	if n.DefaultDurationMS <= 0 || n.DefaultDurationMS > nonce.MaxDurationMS {
		return nonce.DefaultDuration
	}
	return time.Duration(n.DefaultDurationMS) * time.Millisecond
}

type DatabaseConfig struct {
	Host            string        `envconfig:"DB_HOST" default:"localhost"`
	Port            int           `envconfig:"DB_PORT" default:"3306"`
	User            string        `envconfig:"DB_USER" default:"app"`
	Password        string        `envconfig:"DB_PASSWORD" default:"apppassword"`
	Name            string        `envconfig:"DB_NAME" default:"nonces"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
}

type RedisConfig struct {
	Host        string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port        int           `envconfig:"REDIS_PORT" default:"6379"`
	Password    string        `envconfig:"REDIS_PASSWORD" default:""`
	DB          int           `envconfig:"REDIS_DB" default:"0"`
	DialTimeout time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
}

type MongoConfig struct {
	URI            string        `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	Database       string        `envconfig:"MONGO_DATABASE" default:"diligence"`
	Collection     string        `envconfig:"MONGO_COLLECTION" default:"nonces"`
	ConnectTimeout time.Duration `envconfig:"MONGO_CONNECT_TIMEOUT" default:"10s"`
}

type EIP712Config struct {
	ChainID            int64         `envconfig:"EIP712_CHAIN_ID" default:"1"`
	VerifyingContract  string        `envconfig:"EIP712_VERIFYING_CONTRACT" default:""`
	TimestampTolerance time.Duration `envconfig:"EIP712_TIMESTAMP_TOLERANCE" default:"5m"`
}

type WorkerConfig struct {
	PruneInterval time.Duration `envconfig:"WORKER_PRUNE_INTERVAL" default:"1m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot express as tags
func (c *Config) Validate() error {
	switch c.Nonce.Backend {
	case BackendMemory, BackendRedis, BackendMySQL, BackendMongo:
	default:
		return fmt.Errorf("unsupported NONCE_BACKEND %q", c.Nonce.Backend)
	}
	if c.Nonce.DefaultDurationMS > nonce.MaxDurationMS {
		return fmt.Errorf("NONCE_DEFAULT_DURATION_MS must be at most %d", nonce.MaxDurationMS)
	}
	return nil
}
