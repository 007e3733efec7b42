package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/meshgraph/pkg/store"
)

// configEnv names an explicit config file.
const configEnv = "MESHGRAPH_CONFIG"

// Config is the contents of config.toml.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
}

// LogConfig sets the default log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// ServerConfig configures "meshgraph serve".
type ServerConfig struct {
	Addr        string   `toml:"addr"`
	CORSOrigins []string `toml:"cors_origins"`
}

// StoreConfig selects the document store.
type StoreConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	TTL       string `toml:"ttl"`
	Namespace string `toml:"namespace"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// DefaultConfig returns the values used when no config file exists.
func DefaultConfig() Config {
	return Config{
		Log:    LogConfig{Level: "info"},
		Server: ServerConfig{Addr: ":8080", CORSOrigins: []string{"*"}},
		Store: StoreConfig{
			Backend:         store.BackendFile,
			TTL:             "0s",
			RedisAddr:       "localhost:6379",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   appName,
			MongoCollection: "documents",
		},
	}
}

// configFile returns the config file location: explicit, then
// $MESHGRAPH_CONFIG, then the XDG config directory.
func configFile(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if p := os.Getenv(configEnv); p != "" {
		return p, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if _, err := cfg.Store.ttl(); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		return cfg, fmt.Errorf("read config %s: log.level: %w", path, err)
	}
	return cfg, nil
}

// loadConfig loads the config file into c and applies its log level.
func (c *CLI) loadConfig() error {
	path, err := configFile(c.configPath)
	if err != nil {
		return err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	c.Config = cfg
	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		c.SetLogLevel(level)
	}
	c.Logger.Debug("loaded config", "path", path)
	return nil
}

func (s StoreConfig) ttl() (time.Duration, error) {
	if s.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.TTL)
	if err != nil {
		return 0, fmt.Errorf("store.ttl: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("store.ttl: negative duration %s", s.TTL)
	}
	return d, nil
}

// storeConfig translates the [store] section for store.Open. The file
// backend defaults to the XDG data directory.
func (c Config) storeConfig() (store.Config, error) {
	s := c.Store
	cfg := store.Config{
		Backend:   s.Backend,
		Dir:       s.Dir,
		Namespace: s.Namespace,
		Redis: store.RedisOptions{
			Addr:     s.RedisAddr,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
		},
		Mongo: store.MongoOptions{
			URI:        s.MongoURI,
			Database:   s.MongoDatabase,
			Collection: s.MongoCollection,
		},
	}
	if cfg.Backend == "" {
		cfg.Backend = store.BackendFile
	}
	if cfg.Backend == store.BackendFile && cfg.Dir == "" {
		dir, err := dataDir()
		if err != nil {
			return cfg, fmt.Errorf("locate data directory: %w", err)
		}
		cfg.Dir = filepath.Join(dir, "documents")
	}
	return cfg, nil
}
