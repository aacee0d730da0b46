package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mahesh-hegde/visualize/app/common"
	"gopkg.in/yaml.v3"
)

type StorageBackend string

const (
	StorageSQLite StorageBackend = "sqlite"
	StorageRedis  StorageBackend = "redis"
	StorageMemory StorageBackend = "memory"
)

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
	// Session entries expire after this many seconds. 0 keeps them forever.
	TTLSeconds int `json:"ttl_seconds" yaml:"ttl_seconds"`
}

type VisualizeConfig struct {
	InstanceName string   `json:"instance_name" yaml:"instance_name"`
	DataDir      string   `json:"-" yaml:"-"`
	Hostnames    []string `json:"hostnames" yaml:"hostnames"`

	// YAML or JSON file listing the data cubes available for charting,
	// relative to DataDir
	CatalogFile string `json:"catalog_file" yaml:"catalog_file"`

	Storage StorageBackend `json:"storage" yaml:"storage"`
	Redis   RedisConfig    `json:"redis" yaml:"redis"`

	MetadataCacheSeconds int `json:"metadata_cache_seconds" yaml:"metadata_cache_seconds"`
	SessionIdleSeconds   int `json:"session_idle_seconds" yaml:"session_idle_seconds"`
	WarmupConcurrency    int `json:"warmup_concurrency" yaml:"warmup_concurrency"`

	// Named chart sessions whose stored state is missing or corrupt are
	// redirected to a fresh session.
	AllowDefaultRedirect *bool `json:"allow_default_redirect" yaml:"allow_default_redirect"`

	DefaultLocale  common.Locale `json:"default_locale" yaml:"default_locale"`
	TimeoutSeconds int           `json:"timeout_seconds" yaml:"timeout_seconds"`
	LogLatency     bool          `json:"log_latency" yaml:"log_latency"`
}

// ServerRuntimeConfig holds options which come from command line flags
// rather than the data directory.
type ServerRuntimeConfig struct {
	Addr               string
	Port               int
	CertDir            string
	AcmeEnabled        bool
	BehindLoadBalancer bool
	RateLimit          int
	GzipLevel          int
}

func (c *VisualizeConfig) ApplyDefaults() {
	if c.InstanceName == "" {
		c.InstanceName = "visualize"
	}
	if len(c.Hostnames) == 0 {
		c.Hostnames = []string{"localhost"}
	}
	if c.CatalogFile == "" {
		c.CatalogFile = "catalog.yaml"
	}
	if c.Storage == "" {
		c.Storage = StorageSQLite
	}
	if c.MetadataCacheSeconds == 0 {
		c.MetadataCacheSeconds = 600
	}
	if c.SessionIdleSeconds == 0 {
		c.SessionIdleSeconds = 3600
	}
	if c.WarmupConcurrency == 0 {
		c.WarmupConcurrency = 4
	}
	if c.AllowDefaultRedirect == nil {
		allow := true
		c.AllowDefaultRedirect = &allow
	}
	if c.DefaultLocale == "" {
		c.DefaultLocale = common.Locales[0]
	}
}

func (c *VisualizeConfig) Validate() error {
	var errs []error
	switch c.Storage {
	case StorageSQLite, StorageMemory:
	case StorageRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for redis storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage))
	}
	if !c.DefaultLocale.Valid() {
		errs = append(errs, fmt.Errorf("unsupported default_locale %q", c.DefaultLocale))
	}
	if c.MetadataCacheSeconds < 0 || c.SessionIdleSeconds < 0 {
		errs = append(errs, errors.New("cache durations must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *VisualizeConfig) RedirectAllowed() bool {
	return c.AllowDefaultRedirect == nil || *c.AllowDefaultRedirect
}

func (c *VisualizeConfig) CatalogPath() string {
	if filepath.IsAbs(c.CatalogFile) {
		return c.CatalogFile
	}
	return filepath.Join(c.DataDir, c.CatalogFile)
}

var configFileNames = []string{"config.json", "config.yaml", "config.yml"}

// Load reads the first config file found in dataDir, applies defaults and
// validates the result.
func Load(dataDir string) (*VisualizeConfig, error) {
	for _, name := range configFileNames {
		confPath := filepath.Join(dataDir, name)
		data, err := os.ReadFile(confPath)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error while opening %s: %w", name, err)
		}
		conf, err := Parse(data, strings.HasSuffix(name, ".json"))
		if err != nil {
			return nil, fmt.Errorf("error while reading %s: %w", name, err)
		}
		conf.DataDir = dataDir
		return conf, nil
	}
	return nil, fmt.Errorf("no config file found in %s", dataDir)
}

func Parse(data []byte, isJSON bool) (*VisualizeConfig, error) {
	var conf VisualizeConfig
	var err error
	if isJSON {
		err = json.Unmarshal(data, &conf)
	} else {
		err = yaml.Unmarshal(data, &conf)
	}
	if err != nil {
		return nil, err
	}
	conf.ApplyDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}
