// Package main is the entry point for the storefront billing gateway.
//
// It loads configuration (resolving SSM pointers outside local mode), builds
// the provider client, the storefront service and the HTTP chassis, then
// serves either through AWS Lambda (API Gateway HTTP API events) or a plain
// HTTP listener. The mode is detected from the Lambda runtime environment.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"storefront/internal/api/handlers"
	"storefront/internal/config"
	"storefront/internal/core"
	"storefront/internal/external"
	"storefront/internal/storefront"
	"storefront/internal/webhook"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig(secretProvider())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("storefront gateway starting",
		"environment", cfg.Environment,
		"mode", cfg.Polar.Credentials().Mode.Effective(),
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	var metrics *core.CloudWatchMetrics
	if cfg.Observability.MetricsEnabled {
		metrics, err = newCloudWatchMetrics(context.Background(), cfg, logger)
		if err != nil {
			return fmt.Errorf("initializing metrics: %w", err)
		}
	}

	srv, err := buildServer(cfg, logger, newHTTPClient(), metrics)
	if err != nil {
		return err
	}

	if isLambdaEnvironment() {
		logger.Info("running in Lambda mode")
		lambda.Start(core.NewLambdaAdapter(srv.Handler()).Handle)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return runHTTPServer(ctx, srv, cfg, logger)
}

// secretProvider returns the SSM-backed provider used to resolve _SSM_PARAM
// pointers. Local development never touches SSM.
func secretProvider() config.SecretProvider {
	if os.Getenv("APP_ENV") == "local" {
		return nil
	}
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}
	var opts []config.SSMOption
	if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
		opts = append(opts, config.WithSSMEndpoint(endpoint))
	}
	return config.NewSSMProvider(region, opts...)
}

// newHTTPClient returns the shared outbound client. Per-call deadlines come
// from the provider client, so the transport only bounds connection reuse.
func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 16
	transport.IdleConnTimeout = 90 * time.Second
	return &http.Client{Transport: transport}
}

func newCloudWatchMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*core.CloudWatchMetrics, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	client := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
		}
	})
	return core.NewCloudWatchMetrics(client, cfg.Observability.MetricNamespace, logger), nil
}

// buildServer wires the provider client, storefront service and handlers
// into a mounted core.Server. metrics may be nil.
func buildServer(cfg *config.Config, logger *slog.Logger, httpClient *http.Client, metrics *core.CloudWatchMetrics) (*core.Server, error) {
	clientOpts := []external.BaseClientOption{external.WithTimeout(cfg.Polar.RequestTimeout)}
	var serviceOpts []storefront.Option
	if metrics != nil {
		clientOpts = append(clientOpts, external.WithFailureRecorder(metrics))
		serviceOpts = append(serviceOpts, storefront.WithRejectionRecorder(metrics))
	}

	polar := external.NewPolarClient(httpClient, external.PolarClientConfig{
		Credentials: cfg.Polar.Credentials(),
		BaseURL:     cfg.Polar.APIBaseURL,
		UserAgent:   userAgent(cfg),
		Logger:      logger,
	}, clientOpts...)

	svc := storefront.NewService(polar, webhook.NewLogEventHandler(logger), storefront.Config{
		SuccessURL:    cfg.Polar.SuccessURL,
		WebhookSecret: cfg.Polar.WebhookSecret,
	}, logger, serviceOpts...)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	if metrics != nil {
		srv.Metrics = metrics
	}
	srv.HealthProbes = []core.HealthProbe{external.NewProviderProbe("polar", polar)}

	storefrontHandler := handlers.NewStorefrontHandler(svc, logger)
	webhookHandler := handlers.NewPolarWebhookHandler(svc, logger)
	srv.RouteRegistrars = []core.RouteRegistrar{
		func(r chi.Router) { storefrontHandler.RegisterRoutes(r) },
		func(r chi.Router) { webhookHandler.RegisterRoutes(r) },
	}
	srv.MountRoutes()

	logger.Info("provider client configured", "base_url", polar.BaseURL())
	return srv, nil
}

func userAgent(cfg *config.Config) string {
	version := cfg.Build.Version
	if version == "" {
		version = "dev"
	}
	return cfg.Service + "/" + version
}

// newLogger creates a JSON slog.Logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// isLambdaEnvironment detects whether the process runs inside AWS Lambda.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	_, hasServerPort := os.LookupEnv("_LAMBDA_SERVER_PORT")
	return hasRuntimeAPI || hasServerPort
}

// runHTTPServer serves until ctx is cancelled or the listener fails, then
// drains in-flight requests within the configured shutdown timeout.
func runHTTPServer(ctx context.Context, srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped cleanly")
	return nil
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return 10 * time.Second
}
