package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/williamn/expense-assistant/pkg/agent"
	"github.com/williamn/expense-assistant/pkg/api"
	"github.com/williamn/expense-assistant/pkg/artifacts"
	"github.com/williamn/expense-assistant/pkg/config"
	"github.com/williamn/expense-assistant/pkg/logging"
	"github.com/williamn/expense-assistant/pkg/metrics"
	"github.com/williamn/expense-assistant/pkg/ratelimit"
	"github.com/williamn/expense-assistant/pkg/retry"
	"github.com/williamn/expense-assistant/pkg/shutdown"
	"github.com/williamn/expense-assistant/pkg/store"
	"github.com/williamn/expense-assistant/pkg/tracing"
)

const appName = "expense-assistant"

func main() {
	configPath := flag.String("config", "settings.yaml", "Path to the settings file")
	flag.Parse()

	settings, err := config.Load(*configPath)
	if err != nil {
		logging.NewLogger(logging.ERROR, true).Fatal("Failed to load configuration", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log := logging.NewLogger(logging.ParseLevel(settings.LogLevel), settings.LogFormat == "json").
		WithField("component", "backend")

	log.Info("Starting expense assistant backend", map[string]interface{}{
		"listen_addr":      settings.ListenAddr,
		"db_type":          settings.DBType,
		"artifact_backend": settings.ArtifactBackend,
		"agent_url":        settings.AgentURL,
	})

	ctx := context.Background()

	tracer, err := tracing.Init(tracing.Config{
		ServiceName:    appName,
		ServiceVersion: version,
		OTLPEndpoint:   settings.OTLPEndpoint,
		Enabled:        settings.TracingEnabled,
	})
	if err != nil {
		log.Fatal("Failed to initialize tracing", map[string]interface{}{"error": err.Error()})
	}

	receiptStore, err := store.NewStore(ctx, store.Config{
		Type:       settings.DBType,
		Path:       settings.DBPath,
		ProjectID:  settings.GcloudProjectID,
		Collection: settings.DBCollectionName,
	})
	if err != nil {
		log.Fatal("Failed to open receipt store", map[string]interface{}{"error": err.Error()})
	}

	backend, err := artifacts.New(ctx, artifacts.Config{
		Backend:    settings.ArtifactBackend,
		BucketName: settings.StorageBucketName,
		Dir:        settings.ArtifactDir,
		ProjectID:  settings.GcloudProjectID,
	})
	if err != nil {
		log.Fatal("Failed to open artifact backend", map[string]interface{}{"error": err.Error()})
	}
	artifactCache := artifacts.NewCache(backend)

	m := metrics.New()

	engine := agent.NewClient(settings.AgentURL, appName, settings.AgentTimeout)
	engine.SetAPIKey(settings.AgentAPIKey)
	retryCfg := retry.DefaultConfig()
	retryCfg.OnRetry = func(attempt int, err error) {
		m.EngineRetries.Inc()
		log.Warn("Retrying engine call", map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
		})
	}
	engine.SetRetryConfig(retryCfg)

	handler := api.NewHandler(appName, receiptStore, artifactCache, engine, m, log)

	limiter := ratelimit.NewLimiter(settings.RateLimitRPS, settings.RateLimitBurst)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(limiter.Middleware(ratelimit.UserKeyFunc))

	srv := &http.Server{
		Addr:         settings.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second, // engine turns can be slow
		IdleTimeout:  120 * time.Second,
	}

	sd := shutdown.New(30*time.Second, log)
	sd.Register("tracing", tracer.Shutdown)
	sd.Register("receipt store", shutdown.CloseResource(receiptStore))
	sd.Register("artifact backend", shutdown.CloseResource(artifactCache))
	sd.Register("http server", shutdown.StopHTTPServer(srv))

	// Background housekeeping: drop idle rate limiters, publish cache stats
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-sd.Done():
				return
			case <-ticker.C:
				limiter.Cleanup(15 * time.Minute)
				hits, misses := artifactCache.Stats()
				m.ArtifactCache.WithLabelValues("hit").Set(float64(hits))
				m.ArtifactCache.WithLabelValues("miss").Set(float64(misses))
			}
		}
	}()

	go func() {
		log.Info("Listening", map[string]interface{}{"addr": settings.ListenAddr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	}()

	sd.Wait()
	sd.Shutdown()
}
