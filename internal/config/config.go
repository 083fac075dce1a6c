package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendMongo  = "mongo"
	BackendPebble = "pebble"
	BackendMemory = "memory"
)

// Config is the root configuration struct
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	RequestTimeout  time.Duration `mapstructure:"requestTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	Metrics         bool          `mapstructure:"metrics"`
}

// StoreConfig selects and configures the item store
type StoreConfig struct {
	Backend         string       `mapstructure:"backend"`
	ConnectAttempts int          `mapstructure:"connectAttempts"`
	Mongo           MongoConfig  `mapstructure:"mongo"`
	Pebble          PebbleConfig `mapstructure:"pebble"`
}

// MongoConfig holds MongoDB connection settings
type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	Collection     string        `mapstructure:"collection"`
	ConnectTimeout time.Duration `mapstructure:"connectTimeout"`
}

// PebbleConfig holds embedded store settings
type PebbleConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads configuration from .env, the config file and the environment.
// Environment keys use the GROCERY_ prefix with dots replaced by underscores;
// MONGO_URI is also honoured for the store URI.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.requestTimeout", 5*time.Second)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.metrics", true)
	v.SetDefault("store.backend", BackendMongo)
	v.SetDefault("store.connectAttempts", 5)
	v.SetDefault("store.mongo.uri", "mongodb://localhost:27017/")
	v.SetDefault("store.mongo.database", "grocery_db")
	v.SetDefault("store.mongo.collection", "grocery_list")
	v.SetDefault("store.mongo.connectTimeout", 10*time.Second)
	v.SetDefault("store.pebble.path", "data/grocery")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("GROCERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("store.mongo.uri", "GROCERY_STORE_MONGO_URI", "MONGO_URI"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the app cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMongo, BackendPebble, BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q (use %s, %s or %s)",
			c.Store.Backend, BackendMongo, BackendPebble, BackendMemory)
	}
	if c.Store.ConnectAttempts < 1 {
		return fmt.Errorf("store.connectAttempts must be at least 1, got %d", c.Store.ConnectAttempts)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.requestTimeout must be positive, got %s", c.Server.RequestTimeout)
	}
	return nil
}
