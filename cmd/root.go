package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solaproject/sola/internal/cache"
	"github.com/solaproject/sola/internal/config"
	"github.com/solaproject/sola/internal/dataset"
	"github.com/solaproject/sola/internal/i18n"
	"github.com/solaproject/sola/internal/logging"
	"github.com/solaproject/sola/internal/sola"
	"github.com/solaproject/sola/internal/ui"
)

var version = "0.3.0"

// Persistent flags.
var (
	configPath   string
	apiURL       string
	localeFlag   string
	cacheBackend string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "sola",
	Short: "sola — the SOLA research site and dataset explorer",
	Long: ui.Brand.Sprint(ui.Sun+" sola") + " — serve the SOLA web site and explore its dataset\n" +
		ui.Subtle.Sprint("Entities, passage filters and timelines from the SOLA backend"),
	Version: version + " " + ui.Sun,
}

func init() {
	rootCmd.SetVersionTemplate("sola {{ .Version }}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default: "+config.Path()+")")
	flags.StringVar(&apiURL, "api-url", "", "SOLA backend base URL")
	flags.StringVarP(&localeFlag, "locale", "l", "", "Locale for names and labels (de or en)")
	flags.StringVar(&cacheBackend, "cache", "", "Query cache backend: memory, file or redis")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(
		serveCmd(),
		entitiesCmd(),
		entityCmd(),
		passagesCmd(),
		optionsCmd(),
		timelineCmd(),
		durationCmd(),
		sitemapCmd(),
		cacheCmd(),
		configCmd(),
		completionCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file and applies the flag overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", configPath, err)
		}
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if cacheBackend != "" {
		cfg.Cache.Backend = cacheBackend
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// env is what the data commands share.
type env struct {
	config *config.Config
	logger *slog.Logger
	cache  *cache.Cache
	data   *dataset.Service
	locale string
}

// setup loads the config and wires the logger, the query cache, the SOLA
// client and the dataset service. Logs go to stderr so that command
// output can be piped.
func setup() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, err
	}

	store, err := cache.Open(cfg.CacheOptions())
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	client, err := sola.NewClient(cfg.Client())
	if err != nil {
		return nil, err
	}
	dc, err := cfg.Dataset()
	if err != nil {
		return nil, err
	}

	c := cache.New(store, logger)
	locale := cfg.Site.DefaultLocale
	if localeFlag != "" {
		locale = localeFlag
	}
	return &env{
		config: cfg,
		logger: logger,
		cache:  c,
		data:   dataset.New(client, c, logger, dc),
		locale: i18n.Resolve(locale),
	}, nil
}

// Close releases the cache store.
func (e *env) Close() {
	if closer, ok := e.cache.Store().(io.Closer); ok {
		closer.Close()
	}
}

// mustSetup is setup for Run functions: failures end the process.
func mustSetup() *env {
	e, err := setup()
	if err != nil {
		fail("%v", err)
	}
	return e
}

// fail prints an error and exits with status 1.
func fail(format string, args ...any) {
	ui.Bad.Fprintf(os.Stderr, "  %s %s\n", ui.StatusIcon(false), fmt.Sprintf(format, args...))
	os.Exit(1)
}

// parseType parses an entity type argument, exiting on failure.
func parseType(arg string) sola.EntityType {
	t, err := sola.ParseEntityType(arg)
	if err != nil {
		fail("%v (use one of %s)", err, strings.Join(typeNames(), ", "))
	}
	return t
}
