package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpadapter "entitysync/internal/adapter/inbound/mcp"
	"entitysync/internal/adapter/outbound/embeddings/simple"
	"entitysync/internal/adapter/outbound/memory"
	"entitysync/internal/adapter/outbound/messaging"
	"entitysync/internal/adapter/outbound/provider"
	"entitysync/internal/adapter/outbound/repository"
	"entitysync/internal/application/common/logging"
	"entitysync/internal/application/common/slogger"
	"entitysync/internal/application/registry"
	"entitysync/internal/application/service"
	"entitysync/internal/config"
	"entitysync/internal/port/outbound"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// newServeCmd creates and returns the serve command.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP tool server",
		Long: `Start the entitysync server on the MCP stdio transport.

The server:
- Exposes sync, embedding, search, and job control tools over MCP
- Runs submitted jobs in the background with cooperative cancellation
- Purges old job history on the configured interval
- Optionally relays job lifecycle events to NATS

Configuration is loaded from config files and environment variables.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	logger, err := logging.NewApplicationLogger(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: "stderr",
	})
	if err != nil {
		return err
	}
	slogger.SetGlobalLogger(logger)

	metrics, err := service.NewJobMetrics()
	if err != nil {
		slogger.WarnNoCtx("metrics disabled", slogger.Field("error", err.Error()))
	}

	jobStore, vectorStore, cleanup, err := buildStores()
	if err != nil {
		return err
	}
	defer cleanup()

	entityProvider, upserter, err := buildProvider()
	if err != nil {
		return err
	}

	vectorizer := simple.NewVectorizer(cfg.Embedding.Dimensions)
	reg := registry.NewServiceRegistry(jobStore, vectorStore, entityProvider, upserter, vectorizer, metrics)
	orchestrator := reg.JobOrchestrator()

	if cfg.NATS.Enabled {
		publisher, pubErr := buildEventPublisher()
		if pubErr != nil {
			return pubErr
		}
		defer publisher.Close()
		messaging.RelayJobEvents(orchestrator.Events(), publisher)
	}

	mcpServer := mcpadapter.NewServer(mcpadapter.Deps{
		Jobs:    orchestrator,
		Search:  reg.SearchService(),
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		stdio := server.NewStdioServer(mcpServer)
		if listenErr := stdio.Listen(groupCtx, os.Stdin, os.Stdout); listenErr != nil && !errors.Is(listenErr, context.Canceled) {
			return listenErr
		}
		return nil
	})

	group.Go(func() error {
		ticker := time.NewTicker(cfg.History.PurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				purged, purgeErr := orchestrator.PurgeHistory(groupCtx, cfg.History.Retention)
				if purgeErr != nil {
					slogger.ErrorWithError(groupCtx, purgeErr, "history purge failed", nil)
					continue
				}
				if purged > 0 {
					slogger.Info(groupCtx, "purged job history", slogger.Field("entries", purged))
				}
			}
		}
	})

	slogger.InfoNoCtx("entitysync server started", slogger.Fields2(
		"storage", cfg.Storage.Backend,
		"provider", cfg.Provider.Mode,
	))

	err = group.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if shutdownErr := orchestrator.Shutdown(shutdownCtx); shutdownErr != nil {
		slogger.WarnNoCtx("jobs did not suspend before deadline", slogger.Field("error", shutdownErr.Error()))
	}

	return err
}

func buildStores() (outbound.JobStore, outbound.VectorStore, func(), error) {
	if cfg.Storage.Backend == "postgres" {
		pool, err := repository.NewDatabaseConnection(cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		return repository.NewPostgreSQLJobStore(pool), repository.NewPostgreSQLVectorStore(pool), pool.Close, nil
	}
	return memory.NewJobStore(), memory.NewVectorStore(), func() {}, nil
}

func buildProvider() (outbound.EntityProvider, outbound.Upserter, error) {
	entityTypes, err := config.LoadEntityTypes(cfg.Provider.EntityTypesFile)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Provider.Mode == "rest" {
		rest := provider.NewRESTProvider(provider.RESTConfig{
			BaseURL:     cfg.Provider.BaseURL,
			EntityTypes: entityTypes.Names(),
			Timeout:     cfg.Provider.Timeout,
		})
		return rest, rest, nil
	}

	static := provider.NewStaticProvider()
	for _, name := range entityTypes.Names() {
		static.Load(name, nil)
	}
	return static, static, nil
}

func buildEventPublisher() (*messaging.NATSEventPublisher, error) {
	if cfg.NATS.TestMode {
		return messaging.NewTestEventPublisher(), nil
	}

	publisher, err := messaging.NewNATSEventPublisher(cfg.NATS)
	if err != nil {
		return nil, err
	}
	if err := publisher.Connect(context.Background()); err != nil {
		return nil, err
	}
	return publisher, nil
}

func init() {
	rootCmd.AddCommand(newServeCmd())
}
