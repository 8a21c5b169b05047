package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DoyleJ11/league-backend/internal/config"
	"github.com/DoyleJ11/league-backend/internal/db"
	"github.com/DoyleJ11/league-backend/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:          "league",
		Short:        "Sports league backend with realtime room updates",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "yaml config file")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP and socket server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, log, err := setup(cmd, cfgFile)
				if err != nil {
					return err
				}
				defer log.Sync() //nolint:errcheck
				return serve(cmd.Context(), cfg, log)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, log, err := setup(cmd, cfgFile)
				if err != nil {
					return err
				}
				defer log.Sync() //nolint:errcheck
				return migrate(cmd.Context(), cfg, log)
			},
		},
	)
	return root
}

func setup(cmd *cobra.Command, cfgFile string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func migrate(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	gdb, err := db.Open(ctx, db.Options{Driver: cfg.DB.Driver, DSN: cfg.DB.DSN, AutoMigrate: true, Log: log})
	if err != nil {
		return err
	}
	defer db.Close(gdb) //nolint:errcheck

	if cfg.DB.Driver == db.DriverPostgres {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		v, err := db.Version(sqlDB)
		if err != nil {
			return err
		}
		log.Info("database migrated", zap.Int64("version", v))
		return nil
	}
	log.Info("database migrated", zap.String("driver", cfg.DB.Driver))
	return nil
}
