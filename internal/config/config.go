// Package config loads the run configuration from a YAML file, a .env file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hann12-34/discovr-events/internal/dedup"
	"github.com/hann12-34/discovr-events/internal/filter"
	"github.com/hann12-34/discovr-events/internal/source"
)

// Storage backends
const (
	StoreNone  = "none"
	StoreFile  = "file"
	StoreMongo = "mongo"
	StoreRedis = "redis"
)

// Cache backends
const (
	CacheNone     = "none"
	CacheMemory   = "memory"
	CacheMemcache = "memcache"
)

type DedupConfig struct {
	Window          time.Duration `yaml:"window"`
	MinWordLength   int           `yaml:"min_word_length"`
	MaxSharedWords  int           `yaml:"max_shared_words"`
	MergeableFields []string      `yaml:"mergeable_fields"`
}

type FilterConfig struct {
	// RulesFile layers extra junk rules over the embedded table
	RulesFile string `yaml:"rules_file"`
	// ReplaceDefaults uses RulesFile alone
	ReplaceDefaults bool `yaml:"replace_defaults"`
}

type StorageConfig struct {
	Backend         string `yaml:"backend"`
	DataDir         string `yaml:"data_dir"`
	MongoURI        string `yaml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`
	RedisAddr       string `yaml:"redis_addr"`
	RedisDB         int    `yaml:"redis_db"`
	RedisStream     string `yaml:"redis_stream"`
	RedisMaxLen     int64  `yaml:"redis_max_len"`
}

type CacheConfig struct {
	Backend      string `yaml:"backend"`
	MemcacheAddr string `yaml:"memcache_addr"`
}

type MetricsConfig struct {
	// TextfilePath is where run metrics are written for the node exporter
	TextfilePath string `yaml:"textfile_path"`
}

type Config struct {
	Dedup   DedupConfig         `yaml:"dedup"`
	Filter  FilterConfig        `yaml:"filter"`
	Sources []source.Definition `yaml:"sources"`
	Storage StorageConfig       `yaml:"storage"`
	Cache   CacheConfig         `yaml:"cache"`
	Metrics MetricsConfig       `yaml:"metrics"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Dedup: DedupConfig{
			Window:          dedup.DefaultWindow,
			MinWordLength:   dedup.DefaultMinWordLength,
			MaxSharedWords:  dedup.DefaultMaxSharedWords,
			MergeableFields: append([]string(nil), dedup.DefaultMergeableFields...),
		},
		Storage: StorageConfig{
			Backend:         StoreFile,
			DataDir:         "~/.discovr-events",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "discovr",
			MongoCollection: "events",
			RedisAddr:       "localhost:6379",
			RedisStream:     "discovr:events",
			RedisMaxLen:     10000,
		},
		Cache: CacheConfig{
			Backend:      CacheMemory,
			MemcacheAddr: "localhost:11211",
		},
	}
}

// Load reads path over the defaults, then applies .env and environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	}

	// A missing .env is normal outside development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	c.Storage.Backend = getEnv("DISCOVR_STORE", c.Storage.Backend)
	c.Storage.DataDir = getEnv("DISCOVR_DATA_DIR", c.Storage.DataDir)
	c.Storage.MongoURI = getEnv("MONGODB_URI", c.Storage.MongoURI)
	c.Storage.RedisAddr = getEnv("REDIS_ADDR", c.Storage.RedisAddr)
	if db, err := strconv.Atoi(getEnv("REDIS_DB", "")); err == nil {
		c.Storage.RedisDB = db
	}
	c.Cache.Backend = getEnv("DISCOVR_CACHE", c.Cache.Backend)
	c.Cache.MemcacheAddr = getEnv("MEMCACHE_ADDR", c.Cache.MemcacheAddr)
	c.Metrics.TextfilePath = getEnv("DISCOVR_METRICS_FILE", c.Metrics.TextfilePath)
}

// Validate checks values that would otherwise fail late in a run
func (c Config) Validate() error {
	if c.Dedup.Window < 0 {
		return fmt.Errorf("dedup.window must not be negative")
	}
	if c.Dedup.MinWordLength < 0 || c.Dedup.MaxSharedWords < 0 {
		return fmt.Errorf("dedup word settings must not be negative")
	}
	if err := dedup.ValidateFields(c.Dedup.MergeableFields); err != nil {
		return fmt.Errorf("dedup.mergeable_fields: %w", err)
	}
	if c.Filter.ReplaceDefaults && c.Filter.RulesFile == "" {
		return fmt.Errorf("filter.replace_defaults needs filter.rules_file")
	}

	names := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if err := s.Validate(); err != nil {
			return err
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		names[s.Name] = true
	}

	switch c.Storage.Backend {
	case StoreNone, StoreFile, StoreMongo, StoreRedis:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Cache.Backend {
	case CacheNone, CacheMemory, CacheMemcache:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// Resolver builds the duplicate resolver described by the dedup section
func (d DedupConfig) Resolver() *dedup.Resolver {
	r := dedup.NewResolver()
	if d.Window > 0 {
		r.Window = d.Window
	}
	if d.MinWordLength > 0 {
		r.Matcher.MinWordLength = d.MinWordLength
	}
	if d.MaxSharedWords > 0 {
		r.Matcher.MaxSharedWords = d.MaxSharedWords
	}
	if len(d.MergeableFields) > 0 {
		r.MergeableFields = append([]string(nil), d.MergeableFields...)
	}
	return r
}

// Classifier compiles the junk rules described by the filter section
func (f FilterConfig) Classifier() (*filter.Classifier, error) {
	if f.RulesFile == "" {
		return filter.Default(), nil
	}

	extra, err := filter.LoadRules(f.RulesFile)
	if err != nil {
		return nil, err
	}
	if f.ReplaceDefaults {
		return filter.NewClassifier(extra)
	}

	base, err := filter.DefaultRules()
	if err != nil {
		return nil, err
	}
	return filter.NewClassifier(base.Append(extra))
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
