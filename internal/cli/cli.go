package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/buildorder/pkg/buildinfo"
	"github.com/matzehuels/buildorder/pkg/cache"
	"github.com/matzehuels/buildorder/pkg/errors"
	"github.com/matzehuels/buildorder/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "buildorder"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configFile string
	config     Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: defaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "buildorder computes build orders and classpaths for project workspaces",
		Long: `buildorder reads a workspace description (projects, bundles, target platforms)
and computes the order in which projects must be built, the classpath of each
bundle, and the reference cycles that prevent a clean order.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/buildorder/config.toml)")

	root.AddCommand(c.orderCommand())
	root.AddCommand(c.classpathCommand())
	root.AddCommand(c.cyclesCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	path := c.configFile
	if path == "" {
		p, err := configPath()
		if err != nil {
			c.Logger.Debug("no config directory", "error", err)
			return nil
		}
		path = p
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	c.config = cfg
	c.Logger.Debug("config loaded", "path", path, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The caller closes it.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if c.config.Cache.KeyPrefix != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.config.Cache.KeyPrefix)
	}
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.config.Cache
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "cache.redis_url")
		}
		c.Logger.Debug("using redis cache", "addr", opts.Addr, "db", opts.DB)
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	case BackendMongo:
		c.Logger.Debug("using mongo cache", "database", cfg.MongoDB)
		mc, err := cache.NewMongoCache(ctx, cache.MongoOptions{URI: cfg.MongoURI, Database: cfg.MongoDB})
		if err != nil {
			return nil, err
		}
		return mc, nil
	}

	dir := cfg.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			c.Logger.Warn("cache disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/buildorder/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// resolveFlags are the pipeline flags shared by order, cycles, graph and browse.
type resolveFlags struct {
	kinds          string
	strict         bool
	strictCycles   bool
	skipContainers bool
	platform       string
	policy         string
	refresh        bool
	noCache        bool
	graph          bool
}

func (f *resolveFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.kinds, "kinds", "", "reference kinds that count as build dependencies (default from config)")
	fs.BoolVar(&f.strict, "strict", false, "fail on references to unknown projects")
	fs.BoolVar(&f.strictCycles, "strict-cycles", false, "fail when the order contains a cycle")
	fs.BoolVar(&f.skipContainers, "skip-containers", false, "do not resolve bundle containers")
	fs.StringVar(&f.platform, "platform", "", "target platform ID")
	fs.StringVar(&f.policy, "policy", "", "ambiguous provider policy: fail, highest, first")
	fs.BoolVar(&f.refresh, "refresh", false, "ignore cached results")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable the result cache")
	fs.BoolVar(&f.graph, "graph", false, "read a reference graph written by 'graph --format json' instead of a workspace")
}

// options builds pipeline options from the flags on top of the config.
func (c *CLI) options(cmd *cobra.Command, workspace string, f *resolveFlags) pipeline.Options {
	opts := pipeline.Options{
		Workspace:      workspace,
		Kinds:          c.config.Kinds,
		Strict:         c.config.Strict || f.strict,
		StrictCycles:   c.config.StrictCycles || f.strictCycles,
		SkipContainers: f.skipContainers,
		Platform:       c.config.Platform,
		Policy:         c.config.Policy,
		Refresh:        f.refresh,
		Logger:         loggerFromContext(cmd.Context()),
	}
	if f.kinds != "" {
		opts.Kinds = f.kinds
	}
	if f.platform != "" {
		opts.Platform = f.platform
	}
	if f.policy != "" {
		opts.Policy = f.policy
	}
	if f.graph {
		opts.Graph, opts.Workspace = workspace, ""
	}
	return opts
}
