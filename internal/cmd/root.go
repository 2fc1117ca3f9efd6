package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/zerologr"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ladeflyt/grunnlag/internal/cache"
	"github.com/ladeflyt/grunnlag/internal/frontend/web"
	"github.com/ladeflyt/grunnlag/internal/healthcheck"
	grunnlaghttp "github.com/ladeflyt/grunnlag/internal/http"
	"github.com/ladeflyt/grunnlag/internal/logger"
	"github.com/ladeflyt/grunnlag/internal/metrics"
	"github.com/ladeflyt/grunnlag/internal/session"
	"github.com/ladeflyt/grunnlag/internal/session/store"
	"github.com/ladeflyt/grunnlag/internal/xff"
	"github.com/ladeflyt/grunnlag/internal/zaptec"
)

const longHelp = `
Run a Grunnlag server.

Each CLI argument has a corresponding environment variable in the form of the CLI argument
prefixed with GRUNNLAG. If both the flag and environment variable form are specified, the flag
form takes precedence.

Examples
  --http-port          GRUNNLAG_HTTP_PORT
  --trusted-proxies    GRUNNLAG_TRUSTED_PROXIES
`

// EnvNamePrefix defines the environment variable prefix required for all environment
// configuration.
const EnvNamePrefix = "GRUNNLAG"

// sweepInterval is how often expired sessions are removed from the store.
const sweepInterval = time.Hour

// RootCommandOptions encompasses all the configurability of the RootCommand.
type RootCommandOptions struct {
	HTTPPort       int    `mapstructure:"http-port"`
	TrustedProxies string `mapstructure:"trusted-proxies"`

	ZaptecAPIURL string `mapstructure:"zaptec-api-url"`

	Store      string        `mapstructure:"store"`
	SQLitePath string        `mapstructure:"sqlite-path"`
	SessionTTL time.Duration `mapstructure:"session-ttl"`

	CacheDir string `mapstructure:"cache-dir"`
}

// RootCommand is the root command that represents the entrypoint to Grunnlag.
type RootCommand struct {
	*cobra.Command
	vpr  *viper.Viper
	Opts RootCommandOptions
}

// NewRootCommand creates new RootCommand instance.
func NewRootCommand() (*RootCommand, error) {
	rootCmd := &RootCommand{
		Command: &cobra.Command{
			Use:          os.Args[0],
			Long:         longHelp,
			SilenceUsage: true,
		},
	}

	rootCmd.PreRunE = rootCmd.PreRun
	rootCmd.RunE = rootCmd.Run
	rootCmd.Flags().SortFlags = false // Print flag help in the order they're specified.

	// Ensure keys with `-` use `_` for env keys else Viper won't match them.
	rootCmd.vpr = viper.NewWithOptions(viper.EnvKeyReplacer(strings.NewReplacer("-", "_")))
	rootCmd.vpr.SetEnvPrefix(EnvNamePrefix)

	if err := rootCmd.configureFlags(); err != nil {
		return nil, err
	}

	return rootCmd, nil
}

// PreRun satisfies cobra.Command.PreRunE and unmarshalls. Its responsible for populating
// c.Opts.
func (c *RootCommand) PreRun(*cobra.Command, []string) error {
	return c.vpr.Unmarshal(&c.Opts)
}

// Run executes Grunnlag.
func (c *RootCommand) Run(cmd *cobra.Command, _ []string) error {
	zl := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
	log := zerologr.New(&zl)

	log.Info("Root command options", "opts", fmt.Sprintf("%#v", c.Opts))

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	sessions, err := store.New(ctx, toStoreOptions(c.Opts))
	if err != nil {
		return errors.Errorf("initialize session store: %v", err)
	}
	defer sessions.Close()

	go session.Sweep(ctx, log.WithName("sweeper"), sessions, sweepInterval)

	api := zaptec.New(c.Opts.ZaptecAPIURL)

	var history web.HistoryCache
	if c.Opts.CacheDir != "" {
		fileCache, err := cache.New(c.Opts.CacheDir)
		if err != nil {
			return errors.Errorf("initialize history cache: %v", err)
		}
		history = fileCache
	}

	xffmw, err := xff.MiddlewareFromUnparsed(c.Opts.TrustedProxies)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()

	router := gin.New()
	router.Use(
		logger.Middleware(log.WithName("http")),
		gin.Recovery(),
		xffmw,
		metrics.InstrumentRequestCount(registry),
		metrics.InstrumentRequestDuration(registry),
	)

	metrics.Configure(router, registry)
	healthcheck.Configure(router, sessions, api)

	fe := web.New(log.WithName("web"), sessions, api, history)
	if err := fe.Configure(router); err != nil {
		return errors.Errorf("configure frontend: %v", err)
	}

	return grunnlaghttp.Serve(ctx, log, fmt.Sprintf(":%v", c.Opts.HTTPPort), router)
}

func (c *RootCommand) configureFlags() error {
	c.Flags().Int("http-port", 8000, "Port to listen on for HTTP requests")

	c.Flags().String("zaptec-api-url", zaptec.DefaultAPIURL, "Base URL of the Zaptec cloud API")

	c.Flags().String("store", "sqlite", "Store to use for sessions. Options: sqlite, memory")

	// Sqlite store specific flags.
	c.Flags().String("sqlite-path", "grunnlag.db", "Path to the sqlite session database")

	c.Flags().Duration("session-ttl", 30*24*time.Hour, "Lifetime of login sessions")

	c.Flags().String("cache-dir", "", "Directory for the charge history cache; empty disables caching")

	c.Flags().String(
		"trusted-proxies",
		"",
		"A comma separated list of allowed peer IPs and/or CIDR blocks to replace with X-Forwarded-For",
	)

	if err := c.vpr.BindPFlags(c.Flags()); err != nil {
		return err
	}

	var err error
	c.Flags().VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = c.vpr.BindEnv(f.Name)
	})

	return err
}

func toStoreOptions(opts RootCommandOptions) store.Options {
	storeOpts := store.Options{TTL: opts.SessionTTL}

	switch opts.Store {
	case "memory":
		storeOpts.Memory = &store.MemoryOptions{}
	case "sqlite":
		storeOpts.SQLite = &store.SQLiteOptions{Path: opts.SQLitePath}
	}

	return storeOpts
}
