// cmd/lead-worker/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lead-workers/internal/common/aws"
	"lead-workers/internal/common/camunda"
	"lead-workers/internal/common/config"
	"lead-workers/internal/common/database"
	"lead-workers/internal/common/logger"
	"lead-workers/internal/common/observability"
	"lead-workers/internal/common/wls"
	"lead-workers/internal/journal"
	"lead-workers/internal/leads"
	"lead-workers/internal/leads/schemastore"

	lsr "lead-workers/internal/workers/leads/lead-schema-refresh"
	lst "lead-workers/internal/workers/leads/lead-status"
	lsb "lead-workers/internal/workers/leads/lead-submit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	log.Info("starting lead worker", map[string]interface{}{
		"environment":    cfg.App.Environment,
		"wlsEnvironment": cfg.Integrations.WLS.Environment,
	})

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init Zeebe Client with retry ---
	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		OnRetry:                retryLogger(log, "Zeebe client initialization"),
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	log.Info("Zeebe client connected successfully", nil)

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = camunda.Retry(ctx, camunda.DefaultRetryConfig, func(ctx context.Context) error {
		if pg == nil {
			client, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			pg = client
		}
		return pg.Ping(ctx)
	}, retryLogger(log, "PostgreSQL connection"))
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	log.Info("PostgreSQL connected successfully", nil)

	if path := cfg.Database.Postgres.MigrationsPath; path != "" {
		applied, err := pg.Migrate(ctx, path)
		if err != nil {
			zapLog.Fatal("journal migration failed", zap.Error(err))
		}
		log.Info("journal migrations applied", map[string]interface{}{"files": applied})
	}

	// --- Init schema index, shared through Redis when a TTL is configured ---
	indexOpts := []leads.IndexOption{leads.WithIndexLogger(log)}
	if cfg.Leads.SchemaCacheTTL > 0 {
		var rdb *database.RedisClient
		err = camunda.Retry(ctx, camunda.DefaultRetryConfig, func(ctx context.Context) error {
			if rdb == nil {
				client, err := database.NewRedis(cfg.Database.Redis)
				if err != nil {
					return err
				}
				rdb = client
			}
			return rdb.Ping(ctx)
		}, retryLogger(log, "Redis connection"))
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()

		ttl := time.Duration(cfg.Leads.SchemaCacheTTL) * time.Second
		indexOpts = append(indexOpts, leads.WithRawSchemaStore(schemastore.New(rdb.Client, ttl, "")))
		log.Info("Redis schema cache enabled", map[string]interface{}{"ttl": ttl.String()})
	}

	// --- Init lead service session ---
	aliases, err := leads.MergeGroupAliases(leads.DefaultGroupAliases(), cfg.Leads.GroupAliases)
	if err != nil {
		zapLog.Fatal("invalid leads.group_aliases", zap.Error(err))
	}

	loc, err := cfg.Leads.Location()
	if err != nil {
		zapLog.Fatal("invalid leads.timezone", zap.Error(err))
	}

	wlsCfg := cfg.Integrations.WLS
	remote := wls.NewClient(wls.Config{
		Environment: wlsCfg.Environment,
		EndpointURL: wlsCfg.EndpointURL,
		Namespace:   wlsCfg.Namespace,
		Login:       wlsCfg.Login,
		Password:    wlsCfg.Password,
		UserAgent:   wlsCfg.UserAgent,
		Timeout:     config.GetDuration(wlsCfg.Timeout),
	}, log)

	session := leads.NewSession(remote,
		leads.WithDefaultProviderCode(wlsCfg.ProviderCode),
		leads.WithAliases(aliases),
		leads.WithTimezone(loc),
		leads.WithSchemaIndex(leads.NewSchemaIndex(indexOpts...)),
		leads.WithSessionLogger(log),
	)
	log.Info("lead service client ready", map[string]interface{}{"endpoint": remote.Endpoint()})

	// --- Init lead event publisher ---
	var events lsb.EventPublisher
	if cfg.Integrations.AWS.SNS.Enabled {
		sns, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SNS.TopicARN)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		events = sns
	}

	submissions := journal.New(pg.DB)

	// --- Register workers ---
	var workers []worker.JobWorker

	submitHandler, err := lsb.NewHandler(lsb.HandlerOptions{
		AppConfig: cfg,
		Dependencies: lsb.ServiceDependencies{
			Session:       session,
			Journal:       submissions,
			Events:        events,
			Observability: obs,
		},
		Logger: log,
	})
	if err != nil {
		zapLog.Fatal("failed to create lead-submit handler", zap.Error(err))
	}
	workers = append(workers, camunda.StartWorker(zeebe.GetClient(), lsb.TaskType,
		config.GetWorkerConfig(cfg, lsb.ConfigKey), submitHandler.Handle, log))

	statusHandler, err := lst.NewHandler(lst.HandlerOptions{
		AppConfig: cfg,
		Dependencies: lst.ServiceDependencies{
			Session:       session,
			Journal:       submissions,
			Observability: obs,
		},
		Logger: log,
	})
	if err != nil {
		zapLog.Fatal("failed to create lead-status handler", zap.Error(err))
	}
	workers = append(workers, camunda.StartWorker(zeebe.GetClient(), lst.TaskType,
		config.GetWorkerConfig(cfg, lst.ConfigKey), statusHandler.Handle, log))

	refreshHandler, err := lsr.NewHandler(lsr.HandlerOptions{
		AppConfig:    cfg,
		Dependencies: lsr.ServiceDependencies{Session: session},
		Logger:       log,
	})
	if err != nil {
		zapLog.Fatal("failed to create lead-schema-refresh handler", zap.Error(err))
	}
	workers = append(workers, camunda.StartWorker(zeebe.GetClient(), lsr.TaskType,
		config.GetWorkerConfig(cfg, lsr.ConfigKey), refreshHandler.Handle, log))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{"zeebe": "ok", "postgres": "ok"}
		status := http.StatusOK
		if err := zeebe.HealthCheck(checkCtx); err != nil {
			checks["zeebe"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := pg.Ping(checkCtx); err != nil {
			checks["postgres"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		state := "ready"
		if status != http.StatusOK {
			state = "not ready"
		}
		writeStatus(w, status, state, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"address": cfg.Metrics.Address})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err})
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		if w != nil {
			w.Close()
			w.AwaitClose()
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("error stopping health/metrics server", map[string]interface{}{"error": err})
	}
	if err := zeebe.Close(); err != nil {
		log.Error("error closing Zeebe client", map[string]interface{}{"error": err})
	}

	log.Info("lead worker stopped gracefully", nil)
}

func retryLogger(log logger.Logger, operation string) func(int, time.Duration, error) {
	return func(attempt int, delay time.Duration, err error) {
		log.Warn(operation+" failed, retrying", map[string]interface{}{
			"error":       err,
			"attempt":     attempt,
			"nextRetryIn": delay.String(),
		})
	}
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if checks != nil {
		body["checks"] = checks
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
