// Package admin implements the draftwised daemon commands.
package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	openaiapi "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/draftwise/draftwise/internal/api/handlers"
	"github.com/draftwise/draftwise/internal/config"
	"github.com/draftwise/draftwise/internal/database"
	"github.com/draftwise/draftwise/internal/domain"
	"github.com/draftwise/draftwise/internal/extract"
	"github.com/draftwise/draftwise/internal/jobs"
	"github.com/draftwise/draftwise/internal/openai"
	"github.com/draftwise/draftwise/internal/repository"
	"github.com/draftwise/draftwise/internal/server"
	"github.com/draftwise/draftwise/internal/service"
	"github.com/draftwise/draftwise/internal/storage"
	"github.com/draftwise/draftwise/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the draftwise API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("DRAFTWISE_OPENAI_API_KEY is required: ingestion, search and suggestions need an embedding provider")
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	docRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	templateRepo := repository.NewTemplateRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	var archive service.UploadArchive = &noopArchive{}
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archive = s3Client
	} else {
		log.Println("S3 not configured: original uploads will not be archived")
	}

	embeddingClient := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		EmbeddingModel:      openaiapi.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimension,
		RateLimitRPM:        cfg.EmbedRateLimitRPM,
		RetryAttempts:       cfg.EmbedRetryAttempts,
	})

	ingestionSvc := service.NewIngestionService(
		docRepo,
		txRunner,
		extract.DefaultRegistry(),
		embeddingClient,
		archive,
		service.IngestionConfig{
			MaxFileBytes: cfg.MaxFileBytes,
			AllowedTypes: cfg.AllowedFileTypes,
			Chunking: service.ChunkConfig{
				Size:    cfg.ChunkSize,
				Overlap: cfg.ChunkOverlap,
			},
			ExternalCallTimeout: cfg.ExternalCallTimeout,
		},
	)
	documentSvc := service.NewDocumentService(docRepo, archive)
	searchSvc := service.NewSearchService(embeddingClient, chunkRepo, service.SearchDefaults{
		Threshold: cfg.SimilarityThreshold,
		Limit:     cfg.MaxSearchResults,
	})
	catalog := service.NewTemplateCatalog(cfg.TemplatesDir, embeddingClient, templateRepo, txRunner)
	suggestionSvc := service.NewSuggestionService(docRepo, chunkRepo, catalog, cfg.MaxSearchResults)

	// Serve a previously persisted catalog while the first refresh runs.
	if err := catalog.LoadFromStore(ctx); err != nil {
		log.Printf("catalog load from store failed: %v", err)
	}
	if err := catalog.Refresh(ctx); err != nil {
		log.Printf("initial catalog refresh failed (serving stored catalog): %v", err)
	} else {
		log.Printf("template catalog loaded: %d templates", len(catalog.Snapshot()))
	}

	catalogWorker := jobs.NewWorker(catalog, cfg.CatalogRefreshInterval)
	go catalogWorker.Start(ctx)

	router := server.NewRouter(server.RouterConfig{
		MaxBodyBytes:      cfg.MaxFileBytes + 1<<20,
		DocumentHandler:   handlers.NewDocumentHandler(ingestionSvc, documentSvc),
		SearchHandler:     handlers.NewSearchHandler(searchSvc),
		SuggestionHandler: handlers.NewSuggestionHandler(suggestionSvc),
		TemplateHandler:   handlers.NewTemplateHandler(catalog),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	catalogWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// noopArchive satisfies the upload archive when S3 is not configured.
type noopArchive struct{}

func (a *noopArchive) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	return nil
}

func (a *noopArchive) GetObject(ctx context.Context, key string) ([]byte, error) {
	return nil, domain.ErrUploadNotArchived
}

func (a *noopArchive) DeleteObject(ctx context.Context, key string) error {
	return nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else {
		log.Printf("migrations: at version %d", version)
	}

	return nil
}
