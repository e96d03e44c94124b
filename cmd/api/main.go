package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/agents"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/auth"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/chat"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/checkpoint"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/config"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/gateway"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/llm"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/metrics"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/tools"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/trace"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/workflow"

	_ "github.com/monozukuri-ai/assistant-orchestrator/docs" // swagger docs
)

// @title Manufacturing Assistant Orchestrator API
// @version 1.0
// @description Chat API that routes user queries to specialist assistants and tools.
// @description
// @description Queries are classified into manufacturing, python, general, or tool
// @description routes and dispatched through a checkpointable workflow engine.

// @contact.name API Support
// @contact.email support@monozukuri-ai.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8002
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg.LogLevel)

	if err := initTracer(); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = connectDatabase(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database after retries")
		}
		defer pool.Close()
		log.Info().Msg("connected to PostgreSQL database")
	} else {
		log.Info().Msg("no database configured, using in-memory stores")
	}

	provider := llm.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.LLMTimeout)
	if !provider.Configured() {
		log.Warn().Msg("no OpenAI API key configured, assistants reply with fallback messages")
	}

	registry, err := agents.NewRegistry(
		agents.NewManufacturingAdvisor(provider),
		agents.NewPythonMentor(provider),
		agents.NewGeneralResponder(provider),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build agent registry")
	}

	workflowMetrics, err := metrics.NewWorkflowMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize workflow metrics")
	}

	engineOpts := []workflow.Option{
		workflow.WithMetrics(workflowMetrics),
		workflow.WithTimeouts(cfg.ToolTimeout, cfg.LLMTimeout),
	}

	if cfg.EnableCheckpointer {
		var store checkpoint.Store
		if pool != nil {
			store = checkpoint.NewPostgresStore(pool)
			log.Info().Msg("checkpointer enabled with PostgreSQL store")
		} else {
			store = checkpoint.NewMemoryStore()
			log.Info().Msg("checkpointer enabled with in-memory store")
		}
		engineOpts = append(engineOpts, workflow.WithCheckpointStore(store))
	}

	if cfg.DebugStreaming {
		sink := trace.NewSink(256)
		defer sink.Close()
		go drainDebugEvents(sink)
		engineOpts = append(engineOpts, workflow.WithSink(sink))
	}

	engine := workflow.NewEngine(
		workflow.NewClassifier(),
		registry,
		tools.NewInvoker(),
		engineOpts...,
	)

	var history chat.HistoryRepository
	if pool != nil {
		history = chat.NewPostgresHistory(pool)
	} else {
		history = chat.NewMemoryHistory()
	}
	chatService := chat.NewService(engine, history, cfg.MaxHistoryTurns)

	sessionCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	go cleanupSessions(sessionCtx, chatService, cfg.SessionTimeout)

	handler := gateway.NewHandler(chatService)
	socket := gateway.NewChatSocket(chatService, cfg.CORSOriginsList())

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.Use(corsMiddleware(cfg.CORSOriginsList()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		if pool != nil {
			if err := pool.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "not ready",
					"error":  "database connection failed",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api/v1")

	protected := api.Group("")
	if cfg.AuthEnabled() {
		jwtManager, err := auth.NewJWTManager(cfg.JWTSecret)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize JWT manager")
		}
		login := auth.NewLoginHandler(jwtManager, cfg.AdminEmail, cfg.AdminPasswordHash, cfg.TokenExpiry)
		api.POST("/auth/login", login.Login)
		protected.Use(auth.RequireAuth(jwtManager))
		log.Info().Msg("JWT authentication enabled")
	}

	protected.POST("/chat", withTimeout(cfg.WorkflowTimeout), handler.Chat)
	protected.GET("/chat/history/:session_id", handler.ChatHistory)
	protected.GET("/chat/ws/:session_id", socket.Serve)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting assistant orchestrator API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// initTracer initializes OpenTelemetry tracing with a stdout exporter.
func initTracer() error {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	return nil
}

// connectDatabase opens a pgx pool with a retry loop so the service survives
// the database coming up after it in docker compose.
func connectDatabase(dbURL string) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error
	for i := 0; i < 10; i++ {
		pool, err = pgxpool.New(context.Background(), dbURL)
		if err == nil {
			err = pool.Ping(context.Background())
			if err == nil {
				return pool, nil
			}
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("waiting for database")
		time.Sleep(3 * time.Second)
	}
	return nil, err
}

// drainDebugEvents logs trace events of debug-mode runs as they happen.
func drainDebugEvents(sink *trace.Sink) {
	for ev := range sink.Events() {
		log.Debug().
			Str("event", string(ev.Type)).
			Str("name", ev.Name).
			Str("reason", ev.Reason).
			Msg("workflow trace event")
	}
}

// cleanupSessions periodically prunes sessions idle for longer than maxAge.
func cleanupSessions(ctx context.Context, svc *chat.Service, maxAge time.Duration) {
	ticker := time.NewTicker(maxAge / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := svc.CleanupOldSessions(ctx, maxAge)
			if err != nil {
				log.Warn().Err(err).Msg("session cleanup failed")
				continue
			}
			if removed > 0 {
				log.Info().Int("sessions", removed).Msg("cleaned up idle sessions")
			}
		}
	}
}

func withTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		evt := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			evt = log.Error()
		}
		evt.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Int64("latency_ms", time.Since(start).Milliseconds()).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if _, ok := allowed[origin]; ok {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
