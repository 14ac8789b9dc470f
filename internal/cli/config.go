package cli

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/buildorder/pkg/errors"
	"github.com/matzehuels/buildorder/pkg/pipeline"
)

// Cache backends selectable in the config file.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Config holds user defaults read from config.toml. Command-line flags
// override every field.
//
//	kinds = "project,container"
//	policy = "highest"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
type Config struct {
	Kinds        string `toml:"kinds"`
	Strict       bool   `toml:"strict"`
	StrictCycles bool   `toml:"strict_cycles"`
	Policy       string `toml:"policy"`
	Platform     string `toml:"platform"`

	Cache CacheConfig `toml:"cache"`
	Serve ServeConfig `toml:"serve"`
}

// CacheConfig selects the result cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"` // file, redis, mongo or none
	Dir       string `toml:"dir"`     // file backend; default $XDG_CACHE_HOME/buildorder
	RedisURL  string `toml:"redis_url"`
	MongoURI  string `toml:"mongo_uri"`
	MongoDB   string `toml:"mongo_database"`
	KeyPrefix string `toml:"key_prefix"`
}

// ServeConfig holds defaults for the serve command.
type ServeConfig struct {
	Addr    string `toml:"addr"`
	BaseDir string `toml:"base_dir"`
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() Config {
	return Config{
		Kinds:  pipeline.DefaultKinds,
		Policy: pipeline.DefaultPolicy,
		Cache:  CacheConfig{Backend: BackendFile},
		Serve:  ServeConfig{Addr: ":8080"},
	}
}

// configPath returns the config file location using XDG standard
// (~/.config/buildorder/config.toml).
func configPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// loadConfig reads path on top of the defaults. A missing file is not an
// error. Unknown keys are.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if stderrors.Is(err, fs.ErrNotExist) {
		return defaultConfig(), nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "":
		c.Cache.Backend = BackendFile
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			c.Cache.RedisURL = "redis://localhost:6379/0"
		}
		if err := errors.ValidateURL(c.Cache.RedisURL, "redis", "rediss"); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "cache.redis_url")
		}
	case BackendMongo:
		if c.Cache.MongoURI == "" {
			c.Cache.MongoURI = "mongodb://localhost:27017"
		}
		if err := errors.ValidateURL(c.Cache.MongoURI, "mongodb", "mongodb+srv"); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "cache.mongo_uri")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "cache.backend: unknown backend %q", c.Cache.Backend)
	}
	if c.Kinds == "" {
		c.Kinds = pipeline.DefaultKinds
	}
	if c.Policy == "" {
		c.Policy = pipeline.DefaultPolicy
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = ":8080"
	}
	return nil
}
