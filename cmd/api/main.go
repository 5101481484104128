package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"grid-assistant-service/internal/config"
	"grid-assistant-service/internal/docsearch"
	"grid-assistant-service/internal/handlers"
	"grid-assistant-service/internal/logger"
	"grid-assistant-service/internal/metrics"
	"grid-assistant-service/internal/query"
	"grid-assistant-service/internal/reporting"
	"grid-assistant-service/internal/routes"
	"grid-assistant-service/internal/services"
	"grid-assistant-service/internal/store"
	"grid-assistant-service/internal/tools"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("failed to run: %v", err)
	}
}

func run() error {
	showVersionFlag := flag.Bool("version", false, "show version and exit")
	verboseFlag := flag.BoolP("verbose", "v", false, "verbose mode - show debug logs")
	envFileFlag := flag.String("env-file", ".env", "optional dotenv file loaded before reading the environment")
	metricsAddrFlag := flag.String("metrics-addr", "", "address for the prometheus metrics listener (overrides METRICS_ADDR)")
	flag.Parse()

	if *showVersionFlag {
		fmt.Printf("version: %s, commit: %s, date: %s\n", version, commit, date)
		return nil
	}

	// A missing env file is fine; the process environment still applies.
	_ = godotenv.Load(*envFileFlag)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *metricsAddrFlag != "" {
		cfg.MetricsAddr = *metricsAddrFlag
	}
	log := logger.New(*verboseFlag || cfg.Verbose)
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.MetricsAddr != "" {
		metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)
		go func() {
			listener, err := net.Listen("tcp", cfg.MetricsAddr)
			if err != nil {
				log.Error("Failed to start prometheus metrics server listener", "error", err)
				os.Exit(1)
			}
			log.Info("Prometheus metrics server listening", "address", listener.Addr().String())
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.Serve(listener, mux); err != nil {
				log.Error("Failed to start prometheus metrics server", "error", err)
				os.Exit(1)
			}
		}()
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()
	db, err := openDatabase(dbCtx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	pg := store.NewPostgresStore(db)
	if err := pg.EnsureSchema(dbCtx); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	var docs tools.DocumentSearcher
	if cfg.DocsConfigured() {
		s3Store, err := docsearch.NewS3Store(ctx, docsearch.S3StoreConfig{
			Logger:    log,
			Bucket:    cfg.DocsBucket,
			Region:    cfg.DocsRegion,
			Endpoint:  cfg.DocsEndpoint,
			AccessKey: cfg.DocsAccessKey,
			SecretKey: cfg.DocsSecretKey,
		})
		if err != nil {
			return fmt.Errorf("failed to create document store: %w", err)
		}
		if err := s3Store.Ping(dbCtx); err != nil {
			log.Warn("document store not reachable; SOP search will report failures", "bucket", cfg.DocsBucket, "error", err)
		}
		docs = docsearch.NewSearcher(s3Store)
	}

	toolset := tools.New(tools.Config{
		Logger: log,
		Client: reporting.NewClient(cfg.ReportingTimeout, log),
		Endpoints: reporting.Endpoints{
			CollectorBaseURL: cfg.CollectorBaseURL,
			KPIBaseURL:       cfg.KPIBaseURL,
		},
		Docs: docs,
	})
	catalog := toolset.Catalog()

	preamble, err := services.LoadPreamble(cfg.PreambleFile)
	if err != nil {
		return fmt.Errorf("failed to load preamble: %w", err)
	}

	agent, err := newAgent(cfg, log)
	if err != nil {
		return err
	}

	chatSvc := &services.ChatService{
		Logger:     log,
		MockMode:   cfg.MockMode,
		Agent:      agent,
		Store:      pg,
		Tools:      catalog,
		Classifier: query.NewClassifier(query.DefaultRules()),
		Memory:     services.NewConversationMemory(cfg.MemoryWindow),
		Preamble:   preamble,
	}

	health := handlers.HealthInfo{
		MockMode:       cfg.MockMode,
		DocsConfigured: cfg.DocsConfigured(),
		Tools:          catalog.Len(),
	}
	if agent != nil {
		health.Provider = agent.Provider()
		health.Model = agent.Model()
	}

	h := routes.NewRouter(cfg, log, health, routes.Handlers{
		Chat:          &handlers.ChatHandlers{Logger: log, Chat: chatSvc},
		Stream:        &handlers.StreamHandlers{Logger: log, Chat: chatSvc},
		Conversations: &handlers.ConversationHandlers{Store: pg},
		Admin:         &handlers.AdminHandlers{Logger: log, Chat: chatSvc},
	})

	listener, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening on", "address", listener.Addr().String(), "provider", health.Provider, "mock_mode", cfg.MockMode, "tools", catalog.Names())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info("context done, stopping")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

// newAgent returns nil in mock mode.
func newAgent(cfg config.Config, log *slog.Logger) (services.Agent, error) {
	if cfg.MockMode {
		return nil, nil
	}
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey))
		return services.NewAnthropicAgent(&services.AnthropicAgentConfig{
			Logger:       log,
			Client:       client,
			Model:        anthropic.Model(cfg.AnthropicModel),
			MaxToolCalls: cfg.MaxToolCalls,
		}), nil
	case config.ProviderOpenAI:
		return &services.OpenAIAgent{
			Logger: log,
			Client: &services.OpenAIClient{
				APIKey:  cfg.OpenAIAPIKey,
				Model:   cfg.OpenAIModel,
				BaseURL: cfg.OpenAIBaseURL,
				HTTP:    &http.Client{Timeout: 60 * time.Second},
			},
			MaxToolCalls: cfg.MaxToolCalls,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
}
