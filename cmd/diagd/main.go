package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/senseops/diagd/internal/ai"
	"github.com/senseops/diagd/internal/config"
	"github.com/senseops/diagd/internal/db"
	"github.com/senseops/diagd/internal/embedcache"
	"github.com/senseops/diagd/internal/filestore"
	"github.com/senseops/diagd/internal/handler"
	"github.com/senseops/diagd/internal/job"
	"github.com/senseops/diagd/internal/middleware"
	"github.com/senseops/diagd/internal/repo"
	"github.com/senseops/diagd/internal/schedule"
	"github.com/senseops/diagd/internal/service"
	"github.com/senseops/diagd/internal/vectorindex"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "diagd",
		Short: "sensor diagnosis backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run diagd server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

// defaultCatalog lists the chat models offered per provider. Entries for
// unconfigured providers are filtered out at request time.
var defaultCatalog = []service.ModelOption{
	{Provider: service.ProviderOpenAI, Model: "gpt-4o-mini", Default: true},
	{Provider: service.ProviderOpenAI, Model: "gpt-4o"},
	{Provider: service.ProviderGemini, Model: "gemini-2.5-flash", Default: true},
	{Provider: service.ProviderGemini, Model: "gemini-2.5-pro"},
}

func buildProviders(cfg *config.Config) (map[string]ai.IProvider, error) {
	timeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second
	providers := make(map[string]ai.IProvider)
	if cfg.AI.OpenAI.APIKey != "" {
		provider, err := ai.NewProvider(service.ProviderOpenAI, cfg.AI.OpenAI)
		if err != nil {
			return nil, fmt.Errorf("init openai provider: %w", err)
		}
		providers[service.ProviderOpenAI] = ai.WrapTimeout(provider, timeout)
	}
	if cfg.AI.Gemini.APIKey != "" {
		provider, err := ai.NewProvider(service.ProviderGemini, cfg.AI.Gemini)
		if err != nil {
			return nil, fmt.Errorf("init gemini provider: %w", err)
		}
		providers[service.ProviderGemini] = ai.WrapTimeout(provider, timeout)
	}
	return providers, nil
}

func buildEmbedder(cfg *config.Config, providers map[string]ai.IProvider, cacheRepo *repo.EmbeddingCacheRepo) (ai.IEmbedder, error) {
	provider, ok := providers[cfg.AI.Embed.Provider]
	if !ok {
		return nil, fmt.Errorf("embed provider %s is not configured", cfg.AI.Embed.Provider)
	}
	embedder := ai.NewEmbedder(provider, cfg.AI.Embed.Model)
	if cfg.AI.Embed.DBCache {
		embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	}
	if cfg.AI.Embed.CacheSize > 0 {
		ttl := time.Duration(cfg.AI.Embed.CacheTTLMinutes) * time.Minute
		embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.AI.Embed.CacheSize, ttl)
	}
	return embedder, nil
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("vector_store", cfg.VectorStore.Dir),
		zap.String("file_store", cfg.FileStore.Type),
	)

	sensorRepo := repo.NewSensorRepo(database)
	cacheRepo := repo.NewEmbeddingCacheRepo(database)

	providers, err := buildProviders(cfg)
	if err != nil {
		return err
	}
	embedder, err := buildEmbedder(cfg, providers, cacheRepo)
	if err != nil {
		return err
	}

	indexStore, err := vectorindex.NewStore(cfg.VectorStore.Dir)
	if err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}
	archive, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	ingestService := service.NewIngestService(indexStore, embedder, archive, cfg.AI.Embed.BatchSize)
	retrievalService := service.NewRetrievalService(indexStore, embedder)
	answerService := service.NewAnswerService(retrievalService, providers, defaultCatalog)
	healthService := service.NewHealthService(sensorRepo)
	diagnosticsService := service.NewDiagnosticsService(sensorRepo, healthService, answerService)

	deps := handler.RouterDeps{
		Documents:   handler.NewDocumentHandler(ingestService, retrievalService),
		Questions:   handler.NewQuestionHandler(answerService),
		Sensors:     handler.NewSensorHandler(sensorRepo),
		Health:      handler.NewHealthHandler(healthService),
		Diagnostics: handler.NewDiagnosticsHandler(diagnosticsService),
		MCP:         handler.NewMCPHandler(sensorRepo),
	}

	engine, err := webapi.NewEngine(
		"/",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.Jobs.EmbeddingCacheMaxAgeDays), cfg.Jobs.EmbeddingCacheCleanupSpec); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewIndexSweepJob(indexStore, cfg.Jobs.IndexTmpMaxAgeMinutes), cfg.Jobs.IndexSweepSpec); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
