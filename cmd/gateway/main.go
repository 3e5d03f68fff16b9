package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nats-io/nats.go"

	"github.com/eventgate-io/eventgate/internal/auth"
	"github.com/eventgate-io/eventgate/internal/bus"
	"github.com/eventgate-io/eventgate/internal/config"
	"github.com/eventgate-io/eventgate/internal/event"
	"github.com/eventgate-io/eventgate/internal/handlers"
	"github.com/eventgate-io/eventgate/internal/logging"
	"github.com/eventgate-io/eventgate/internal/ratelimit"
	"github.com/eventgate-io/eventgate/internal/server"
	"github.com/eventgate-io/eventgate/internal/sink"
	"github.com/eventgate-io/eventgate/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("gateway"))
	logging.SetDefault(logger)

	slog.Info("Starting gateway service",
		slog.Int("port", cfg.Server.Port),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("route_source", cfg.Route.Source),
		slog.String("bus_name", cfg.Route.BusName),
	)

	// Token validator
	var validator auth.Validator
	switch cfg.Auth.Mode {
	case "jwt", "":
		validator = auth.NewJWTValidator(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.ClientID)
	case "directory":
		validator = auth.NewDirectoryValidator(cfg.Auth.DirectoryURL, cfg.Auth.Timeout)
		log.Printf("Token validation delegated to identity directory: %s", cfg.Auth.DirectoryURL)
	default:
		log.Fatalf("Unknown auth mode: %s (supported: jwt, directory)", cfg.Auth.Mode)
	}

	// Rate limiter
	var limiter ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rl, err := ratelimit.NewRedisRateLimiter(cfg.RateLimit.RedisURL, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		if err != nil {
			log.Printf("WARNING: Failed to initialize Redis rate limiter: %v", err)
			log.Println("Continuing without rate limiting")
			limiter = &ratelimit.NoOpRateLimiter{}
		} else {
			limiter = rl
			log.Printf("Rate limiting enabled: %d requests per %s", cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
	} else {
		limiter = &ratelimit.NoOpRateLimiter{}
		log.Println("Rate limiting disabled in configuration")
	}
	defer limiter.Close()

	// Subscription rules are built once here and never mutated at runtime.
	eventBus := bus.New(cfg.Route.BusName, bus.Config{
		QueueSize:      cfg.Bus.QueueSize,
		MaxDetailBytes: cfg.Bus.MaxDetailBytes,
	}, logger)

	var ruleSinks []sink.Sink

	var natsConn *nats.Conn
	if cfg.DebugSink.Enabled {
		natsConn, err = nats.Connect(cfg.DebugSink.NatsURL, nats.Name("eventgate-gateway"))
		if err != nil {
			log.Printf("WARNING: Failed to connect to NATS: %v", err)
			log.Println("Debug sink disabled")
		} else {
			ruleSinks = append(ruleSinks, sink.NewDebug(natsConn, cfg.DebugSink.Subject, logger))
			log.Printf("Debug sink enabled (subject: %s)", cfg.DebugSink.Subject)
			defer natsConn.Close()
		}
	} else {
		log.Println("Debug sink disabled in configuration")
	}

	var archive *sink.Archive
	if cfg.ArchiveSink.Enabled {
		store, err := newBatchStore(cfg.ArchiveSink)
		if err != nil {
			log.Fatalf("Failed to initialize archive storage: %v", err)
		}
		archive = sink.NewArchive(store, sink.ArchiveConfig{
			FlushInterval: cfg.ArchiveSink.FlushInterval,
			FlushTimeout:  cfg.ArchiveSink.FlushTimeout,
			Retry: sink.Backoff{
				Attempts:  cfg.ArchiveSink.RetryAttempts,
				BaseDelay: cfg.ArchiveSink.RetryBase,
				MaxDelay:  cfg.ArchiveSink.RetryMax,
			},
		}, logger)
		archive.Start()
		ruleSinks = append(ruleSinks, archive)
		log.Printf("Archive sink enabled (backend: %s, flush interval: %s)",
			cfg.ArchiveSink.Backend, cfg.ArchiveSink.FlushInterval)
	} else {
		log.Println("Archive sink disabled in configuration")
	}

	eventBus.Subscribe(bus.Rule{
		Name:   "clientevents",
		Source: cfg.Route.Source,
		Sinks:  ruleSinks,
	})
	eventBus.Start()

	route := event.Route{
		Source:     cfg.Route.Source,
		DetailType: cfg.Route.DetailType,
		BusName:    cfg.Route.BusName,
	}
	handler := handlers.NewPublishHandler(validator, eventBus, route, limiter, logger)
	router := server.NewRouter(handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Gateway listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Stop accepting publishes, deliver what was accepted, then flush the
	// archive buffer so the bounded loss window only applies to crashes.
	eventBus.Stop()
	if archive != nil {
		archive.Close()
	}

	log.Println("Server stopped")
}

func newBatchStore(cfg config.ArchiveSinkConfig) (storage.BatchWriter, error) {
	switch cfg.Backend {
	case "s3", "":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		opts := []func(*awsconfig.LoadOptions) error{}
		if cfg.S3.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.S3.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		return storage.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3.Bucket, cfg.S3.Prefix), nil
	case "opensearch":
		return storage.NewOpenSearchStore(storage.OpenSearchConfig{
			URL:           cfg.OpenSearch.URL,
			Username:      cfg.OpenSearch.Username,
			Password:      cfg.OpenSearch.Password,
			Index:         cfg.OpenSearch.Index,
			TLSSkipVerify: cfg.OpenSearch.TLSSkipVerify,
		})
	default:
		return nil, fmt.Errorf("unknown archive backend: %s (supported: s3, opensearch)", cfg.Backend)
	}
}
