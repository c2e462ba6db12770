package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/rocketshoes/internal/cart"
	"github.com/Skotchmaster/rocketshoes/internal/catalogclient"
	"github.com/Skotchmaster/rocketshoes/internal/config"
	"github.com/Skotchmaster/rocketshoes/internal/logging"
	"github.com/Skotchmaster/rocketshoes/internal/notify"
	"github.com/Skotchmaster/rocketshoes/internal/storage"
)

type options struct {
	catalogURL string
	driver     string
	dsn        string
	redisAddr  string
	logLevel   string

	out    io.Writer
	errOut io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &options{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "cartctl",
		Short:         "Manage the RocketShoes shopping cart",
		Long:          `cartctl reads and changes the persisted cart, checking stock against the catalog service.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	config.Load()
	root.PersistentFlags().StringVar(&opts.catalogURL, "catalog-url", config.EnvDefault("CATALOG_URL", "http://localhost:3333"), "Base URL of the catalog service")
	root.PersistentFlags().StringVar(&opts.driver, "driver", config.EnvDefault("STORAGE_DRIVER", config.StorageSQLite), "Storage driver: memory, sqlite, postgres or redis")
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", config.EnvDefault("DATABASE_URL", "cart.db"), "Database DSN for sqlite or postgres")
	root.PersistentFlags().StringVar(&opts.redisAddr, "redis-addr", config.EnvDefault("REDIS_ADDR", ""), "Redis address for the redis driver")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "error", "Log level")

	root.AddCommand(
		newListCmd(opts),
		newAddCmd(opts),
		newRemoveCmd(opts),
		newUpdateCmd(opts),
		newSummaryCmd(opts),
	)
	return root
}

func (o *options) config() config.Config {
	return config.Config{
		CatalogURL:    o.catalogURL,
		StorageDriver: o.driver,
		DatabaseURL:   o.dsn,
		RedisAddr:     o.redisAddr,
	}
}

// openStore loads the cart and returns it with a context carrying the CLI
// logger. The closer releases the storage connection.
func (o *options) openStore(ctx context.Context) (context.Context, *cart.Store, io.Closer, error) {
	cfg := o.config()
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	logger := logging.New(logging.Options{Service: "cartctl", Level: o.logLevel, Output: o.errOut})
	ctx = logging.IntoContext(ctx, logger)

	slot, closer, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open storage: %w", err)
	}

	store, err := cart.New(ctx, cart.Deps{
		Catalog:  catalogclient.NewClient(cfg.CatalogURL),
		Storage:  slot,
		Notifier: notify.Multi{
			notify.Writer{W: o.errOut, Prefix: "cartctl: "},
			notify.Logger{Log: logger},
		},
	})
	if err != nil {
		_ = closer.Close()
		return nil, nil, nil, err
	}
	return ctx, store, closer, nil
}

// withStore runs fn against a freshly loaded cart and closes storage after.
func (o *options) withStore(cmd *cobra.Command, fn func(ctx context.Context, s *cart.Store) error) error {
	ctx, store, closer, err := o.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closer.Close()
	return fn(ctx, store)
}
