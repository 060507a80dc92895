package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wilhelmsk/core/internal/adapters/delta"
	"github.com/wilhelmsk/core/internal/adapters/registry"
	"github.com/wilhelmsk/core/internal/adapters/repository"
	"github.com/wilhelmsk/core/internal/application/services"
	"github.com/wilhelmsk/core/internal/infrastructure/config"
	"github.com/wilhelmsk/core/internal/infrastructure/logger"
	"github.com/wilhelmsk/core/internal/infrastructure/metrics"
	"github.com/wilhelmsk/core/internal/infrastructure/server"
)

// Build information, set with -ldflags at release time
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// NewServeCommand creates the serve command
func NewServeCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the WilhelmSK plugin server",
		Long:  "Start the HTTP server with the gauge, defaults and metadata routes mounted under the plugin path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(*configFile)
		},
	}
}

// NewTokenCommand creates the token command
func NewTokenCommand(configFile *string) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the mutation routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			cfg, err := config.Load(*configFile)
			if err != nil {
				return err
			}

			token, err := services.NewAuthService(cfg.JWT, logger.NewNop()).IssueToken(subject, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			if !cfg.JWT.Enabled {
				warn(cmd.ErrOrStderr(), "jwt.enabled is false, the server does not check tokens")
			}
			return nil
		},
	}

	tokenCmd.Flags().String("subject", "wilhelmsk", "Token subject")
	tokenCmd.Flags().Duration("ttl", 0, "Token lifetime (defaults to jwt.expires_in)")
	return tokenCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print WilhelmSK plugin version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "WilhelmSK plugin %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Build Date: %s\n", BuildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "Git Commit: %s\n", Commit)
		},
	}
}

func runServer(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	fs := afero.NewOsFs()
	gaugeDoc := repository.NewFileDocument(fs, cfg.Storage.GaugesPath(), "gauges", repository.EmptyGaugeDocument, appLogger, m)
	defaultsDoc := repository.NewFileDocument(fs, cfg.Storage.DefaultsPath(), "defaults", repository.EmptyDefaultsDocument, appLogger, m)

	bus := delta.NewBus(appLogger, m)

	reg := registry.New(fs, cfg.Registry.SeedFile, appLogger)
	if err := reg.Load(); err != nil {
		return fmt.Errorf("failed to load path registry: %w", err)
	}
	unsubscribe := bus.Subscribe("registry", reg)
	defer unsubscribe()

	deps := server.Dependencies{
		GaugeService:    services.NewGaugeService(repository.NewGaugeRepository(gaugeDoc), appLogger),
		DefaultsService: services.NewDefaultsService(repository.NewDefaultsRepository(defaultsDoc), delta.NewEmitter(cfg.App.PluginID, bus), appLogger),
		MetadataService: services.NewMetadataService(reg),
		Checks: map[string]server.Checker{
			"gauges":   gaugeDoc,
			"defaults": defaultsDoc,
		},
	}
	if cfg.JWT.Enabled {
		deps.AuthService = services.NewAuthService(cfg.JWT, appLogger)
	}
	if cfg.Stream.Enabled {
		deps.Stream = delta.NewStream(bus, cfg.Stream.QueueSize, appLogger, m)
	}

	srv, err := server.New(cfg, deps, appLogger, m)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Infow("Starting WilhelmSK plugin server",
			"address", cfg.Server.Addr(),
			"environment", cfg.App.Environment,
			"gauges_file", gaugeDoc.Location(),
			"defaults_file", defaultsDoc.Location(),
		)
		return srv.Start(cfg.Server.Addr())
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Registry.Watch && cfg.Registry.SeedFile != "" {
		g.Go(func() error {
			return reg.Watch(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		appLogger.Errorw("Server stopped with error", "error", err)
		return err
	}

	appLogger.Infow("Server stopped")
	return nil
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return 10 * time.Second
}
