package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/linkowl/linkowl-go"
	"github.com/linkowl/linkowl-go/pkg/async"
	"github.com/linkowl/linkowl-go/pkg/attribution"
	"github.com/linkowl/linkowl-go/pkg/config"
	"github.com/linkowl/linkowl-go/pkg/logger"
	"github.com/linkowl/linkowl-go/pkg/storage"
)

var (
	errMissingAPIKey     = errors.New("api key is required: set --api-key or LINKOWL_API_KEY")
	errPendingWork       = errors.New("background requests did not finish in time")
	errInstallNotTracked = errors.New("install was not tracked")
)

// cli holds state shared by all subcommands of one invocation.
type cli struct {
	configPath string
	settings   config.Settings
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:               "linkowl",
		Short:             "Report installs, user ids and purchases to LinkOwl",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.loadSettings,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "YAML settings file")
	pf.String("api-key", "", "LinkOwl api key")
	pf.String("base-url", "", "attribution service endpoint (default "+config.DefaultBaseURL+")")
	pf.String("store", "", "Badger database directory (default <user config dir>/linkowl)")
	pf.String("redis-url", "", "keep the install record in Redis instead of Badger")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("log-format", "", "text or json")
	pf.Duration("wait", 0, "how long to wait for background requests")

	root.AddCommand(
		c.installCmd(),
		c.userCmd(),
		c.purchaseCmd(),
		c.statusCmd(),
		c.resetCmd(),
	)
	return root
}

// loadSettings resolves settings from the environment, the optional YAML file
// and finally the command line flags.
func (c *cli) loadSettings(cmd *cobra.Command, _ []string) error {
	if c.configPath != "" {
		if err := config.LoadFile(c.configPath, &c.settings); err != nil {
			return err
		}
	} else if err := config.Load(&c.settings); err != nil {
		return err
	}

	flags := cmd.Flags()
	stringFlags := map[string]*string{
		"api-key":    &c.settings.APIKey,
		"base-url":   &c.settings.BaseURL,
		"store":      &c.settings.StorePath,
		"redis-url":  &c.settings.RedisURL,
		"log-level":  &c.settings.LogLevel,
		"log-format": &c.settings.LogFormat,
	}
	for name, dst := range stringFlags {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	if flags.Changed("wait") {
		c.settings.WaitTimeout, _ = flags.GetDuration("wait")
	}

	c.logger = logger.New(
		logger.WithLevel(logger.ParseLevel(c.settings.LogLevel)),
		logger.WithFormat(logger.ParseFormat(c.settings.LogFormat)),
		logger.WithOutput(cmd.ErrOrStderr()),
		logger.WithAttr(logger.Component("linkowl-cli")),
		logger.WithContextExtractors(attribution.LogRequestID),
	)
	return nil
}

// openStore opens the configured store. The returned close function must be
// called once the command is done.
func (c *cli) openStore(ctx context.Context) (storage.Store, func() error, error) {
	if c.settings.RedisURL != "" {
		client, err := storage.ConnectRedis(ctx, storage.RedisConfig{
			ConnectionURL:  c.settings.RedisURL,
			RetryAttempts:  3,
			RetryInterval:  time.Second,
			ConnectTimeout: 10 * time.Second,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		store := storage.NewRedisStore(client)
		return store, store.Close, nil
	}

	path := c.settings.StorePath
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve default store path: %w", err)
		}
		path = filepath.Join(dir, "linkowl")
	}

	store, err := storage.OpenBadger(storage.BadgerConfig{Path: path, Logger: c.logger})
	if err != nil {
		return nil, nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return store, store.Close, nil
}

// withStore runs fn with the configured store and closes it afterwards.
func (c *cli) withStore(ctx context.Context, fn func(store storage.Store) error) error {
	store, closeStore, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			c.logger.Error("failed to close store", logger.Error(err))
		}
	}()
	return fn(store)
}

// withTracker runs fn with a configured tracker and waits for the work it
// dispatched before the store is closed.
func (c *cli) withTracker(ctx context.Context, fn func(tr *linkowl.Tracker) error) error {
	if c.settings.APIKey == "" {
		return errMissingAPIKey
	}

	return c.withStore(ctx, func(store storage.Store) error {
		tr := linkowl.New(
			linkowl.WithStore(store),
			linkowl.WithLogger(c.logger),
			linkowl.WithBaseURL(c.settings.BaseURL),
		)
		tr.Configure(c.settings.APIKey, "")

		if err := fn(tr); err != nil {
			return err
		}
		return c.flush(tr)
	})
}

// flush waits for dispatched work, bounded by the configured wait timeout.
func (c *cli) flush(tr *linkowl.Tracker) error {
	if err := tr.WaitTimeout(c.settings.WaitTimeout); err != nil {
		if errors.Is(err, async.ErrTimeout) {
			return fmt.Errorf("%w after %s", errPendingWork, c.settings.WaitTimeout)
		}
		return err
	}
	return nil
}
