package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rampart-sec/rampart/pkg/config"
	"github.com/rampart-sec/rampart/pkg/events"
	"github.com/rampart-sec/rampart/pkg/guard"
	"github.com/rampart-sec/rampart/pkg/llm"
	"github.com/rampart-sec/rampart/pkg/pipeline"
	"github.com/rampart-sec/rampart/pkg/session"
	"github.com/rampart-sec/rampart/pkg/telemetry"
)

const Version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cfgPath := ""
		if len(os.Args) > 2 {
			cfgPath = os.Args[2]
		}
		runServer(cfgPath)
	case "scan":
		if len(os.Args) < 3 {
			fmt.Println("Usage: rampart scan <text>")
			os.Exit(1)
		}
		runCLIScan(strings.Join(os.Args[2:], " "))
	case "version":
		fmt.Printf("Rampart v%s\n", Version)
		fmt.Println("LLM Security Gateway")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Rampart v%s - LLM Security Gateway\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  rampart serve [config.yaml]   Start the gateway")
	fmt.Println("  rampart scan <text>           Scan text for prompt injection")
	fmt.Println("  rampart version               Show version")
	fmt.Println("")
	fmt.Println("Examples:")
	fmt.Println("  rampart serve config.yaml")
	fmt.Println("  rampart scan \"Ignore previous instructions\"")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  RAMPART_LISTEN          Listen address (default: :8000)")
	fmt.Println("  RAMPART_LLM_PROVIDER    Provider: none, ollama, groq, openrouter, openai, custom")
	fmt.Println("  RAMPART_LLM_API_KEY     API key for hosted providers")
	fmt.Println("  RAMPART_REDIS_URL       Redis session store (default: in-memory)")
	fmt.Println("  RAMPART_POSTGRES_DSN    Postgres audit trail (default: disabled)")
	fmt.Println("  RAMPART_SWEEP_SCHEDULE  Cron schedule for adaptive sweeps")
}

// ============================================================================
// Gateway Assembly
// ============================================================================

// Gateway wires the pipeline to its backing services. Redis, Postgres,
// and the LLM providers are optional; each degrades to an in-process
// substitute when unconfigured or unreachable.
type Gateway struct {
	cfg       *config.Config
	log       *zap.Logger
	pipe      *pipeline.Pipeline
	bus       *events.Bus
	collector *telemetry.Collector
	seeds     *guard.SeedStore

	memStore    *session.InMemoryStore
	redisClient *redis.Client
	pgPool      *pgxpool.Pool
	pgSink      *events.PGSink
	scheduler   *pipeline.Scheduler
	watchCancel context.CancelFunc
}

func NewGateway(cfg *config.Config, log *zap.Logger) (*Gateway, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gw := &Gateway{cfg: cfg, log: log}
	gw.bus = events.NewBus(log, events.WithBuffer(cfg.EventBuffer))
	gw.collector = telemetry.NewCollector(prometheus.NewRegistry())

	// Session store: Redis when configured and reachable, in-memory otherwise.
	var store session.Store
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("○ redis unreachable, using in-memory sessions", zap.Error(err))
			client.Close()
		} else {
			gw.redisClient = client
			store = session.NewRedisStore(client, session.WithTTL(cfg.SessionTTL))
			log.Info("✓ redis session store enabled", zap.Duration("ttl", cfg.SessionTTL))
		}
	}
	if store == nil {
		gw.memStore = session.NewInMemoryStore(session.WithMaxAge(cfg.SessionTTL))
		store = gw.memStore
		if cfg.RedisURL == "" {
			log.Info("○ in-memory session store (no redis configured)")
		}
	}

	// Seed corpus backing the semantic checks in ingestion and memory.
	gw.seeds = guard.NewSeedStore()
	if err := gw.seeds.LoadDefaults(ctx); err != nil {
		gw.Close()
		return nil, fmt.Errorf("load seed corpus: %w", err)
	}
	if cfg.SeedFile != "" {
		if err := gw.seeds.LoadSeedFile(ctx, cfg.SeedFile); err != nil {
			log.Warn("○ seed file skipped", zap.String("path", cfg.SeedFile), zap.Error(err))
		} else {
			log.Info("✓ seed file loaded", zap.String("path", cfg.SeedFile))
		}
		if cfg.WatchSeeds {
			watchCtx, watchCancel := context.WithCancel(context.Background())
			gw.watchCancel = watchCancel
			if err := gw.seeds.WatchSeedFile(watchCtx, cfg.SeedFile, log); err != nil {
				log.Warn("○ seed watching disabled", zap.Error(err))
			} else {
				log.Info("✓ seed file watching enabled")
			}
		}
	}

	// Audit trail: event rows plus session lifecycle, when Postgres is up.
	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Warn("○ audit persistence disabled (bad DSN)", zap.Error(err))
		} else if err := pool.Ping(ctx); err != nil {
			log.Warn("○ audit persistence disabled (postgres unreachable)", zap.Error(err))
			pool.Close()
		} else {
			sink := events.NewPGSink(pool, log)
			if err := sink.EnsureSchema(ctx); err != nil {
				log.Warn("○ audit persistence disabled (schema setup failed)", zap.Error(err))
				sink.Close(ctx)
				pool.Close()
			} else {
				gw.pgPool = pool
				gw.pgSink = sink
				gw.bus.AddSink(sink)
				log.Info("✓ postgres audit trail enabled")
			}
		}
	} else {
		log.Info("○ audit persistence disabled (no postgres configured)")
	}

	gen, genName := buildGenerator(cfg, log)
	decoy := buildDecoy(cfg, log)

	opts := []pipeline.Option{
		pipeline.WithBus(gw.bus),
		pipeline.WithMetrics(gw.collector),
		pipeline.WithGenerator(gen, genName),
		pipeline.WithDecoy(decoy),
		pipeline.WithHoneypotEnabled(cfg.EnableHoneypot),
		pipeline.WithAdaptiveEnabled(cfg.EnableAdaptive),
		pipeline.WithAdaptiveStorePath(cfg.AdaptiveStore),
		pipeline.WithSystemPrompt(cfg.SystemPrompt),
	}
	if gw.pgSink != nil {
		opts = append(opts, pipeline.WithLifecycle(gw.pgSink))
	}
	gw.pipe = pipeline.New(store, gw.seeds, log, opts...)

	if cfg.EnableHoneypot {
		log.Info("✓ honeypot redirection enabled")
	} else {
		log.Info("○ honeypot redirection disabled")
	}
	if cfg.EnableAdaptive {
		log.Info("✓ adaptive learning enabled", zap.String("store", cfg.AdaptiveStore))
	} else {
		log.Info("○ adaptive learning disabled")
	}

	if cfg.SweepSchedule != "" {
		sched, err := pipeline.NewScheduler(gw.pipe, cfg.SweepSchedule, log)
		if err != nil {
			gw.Close()
			return nil, err
		}
		sched.Start()
		gw.scheduler = sched
		log.Info("✓ adaptive sweep scheduled", zap.String("schedule", cfg.SweepSchedule))
	} else {
		log.Info("○ adaptive sweep not scheduled (manual only)")
	}

	return gw, nil
}

// buildGenerator picks the primary reply model from provider config.
func buildGenerator(cfg *config.Config, log *zap.Logger) (llm.Generator, string) {
	switch cfg.Provider {
	case config.ProviderNone:
		log.Info("○ generation disabled (provider none, canned replies only)")
		return &llm.StaticGenerator{Response: llm.FallbackUnavailable}, "none"
	case config.ProviderOllama:
		log.Info("✓ ollama generation enabled",
			zap.String("model", cfg.Model), zap.String("url", cfg.OllamaURL))
		return llm.NewOllamaClient(
			llm.WithOllamaModel(cfg.Model),
			llm.WithOllamaBaseURL(cfg.OllamaURL),
			llm.WithOllamaSystemPrompt(cfg.SystemPrompt),
		), "ollama"
	default:
		log.Info("✓ LLM generation enabled",
			zap.String("provider", string(cfg.Provider)), zap.String("model", cfg.Model))
		return llm.NewOpenAIClient(cfg.ChatBaseURL(), cfg.APIKey,
			llm.WithModel(cfg.Model),
			llm.WithSystemPrompt(cfg.SystemPrompt),
			llm.WithMaxTokens(cfg.MaxTokens),
			llm.WithTemperature(cfg.Temperature),
		), string(cfg.Provider)
	}
}

// buildDecoy assembles the honeypot reply chain: local decoy model first,
// hosted fallback second. An empty chain serves the canned decoy line.
func buildDecoy(cfg *config.Config, log *zap.Logger) *llm.HoneypotGenerator {
	var chain []llm.Chatter
	if cfg.DecoyModel != "" {
		chain = append(chain, llm.NewOllamaClient(
			llm.WithOllamaModel(cfg.DecoyModel),
			llm.WithOllamaBaseURL(cfg.OllamaURL),
			llm.WithOllamaTimeout(cfg.DecoyTimeout),
		))
	}
	if cfg.DecoyFallbackModel != "" && cfg.APIKey != "" {
		chain = append(chain, llm.NewOpenAIClient(cfg.ChatBaseURL(), cfg.APIKey,
			llm.WithModel(cfg.DecoyFallbackModel),
			llm.WithMaxTokens(512),
			llm.WithTemperature(0.9),
		))
	}
	if len(chain) == 0 {
		log.Info("○ honeypot decoy chain empty (canned decoy replies)")
	} else {
		log.Info("✓ honeypot decoy chain ready", zap.Int("models", len(chain)))
	}
	return llm.NewHoneypotGenerator(log, chain...)
}

// Close releases backing services in dependency order: stop producers
// first, close the bus so subscribers drain, then flush the sinks and
// close the stores.
func (g *Gateway) Close() {
	if g.scheduler != nil {
		g.scheduler.Stop()
	}
	if g.watchCancel != nil {
		g.watchCancel()
	}
	g.bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if g.pgSink != nil {
		if err := g.pgSink.Close(ctx); err != nil {
			g.log.Warn("audit sink close", zap.Error(err))
		}
	}
	if g.pgPool != nil {
		g.pgPool.Close()
	}
	if g.redisClient != nil {
		g.redisClient.Close()
	}
	if g.memStore != nil {
		g.memStore.Close()
	}
}

// ============================================================================
// HTTP Server Mode
// ============================================================================

func runServer(cfgPath string) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg.MustValidate()

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	gw, err := NewGateway(cfg, logger)
	if err != nil {
		logger.Fatal("gateway init failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName: "Rampart Gateway",
	})
	registerRoutes(app, gw)

	logger.Info("rampart gateway starting",
		zap.String("addr", cfg.ListenAddr),
		zap.String("environment", cfg.Environment),
		zap.String("provider", string(cfg.Provider)),
		zap.String("version", Version))

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	gw.Close()
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.NewDefaultConfig(), nil
	}
	return config.LoadFile(path)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.LogLevel != "" {
		lvl, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zcfg.Build()
}

// ============================================================================
// HTTP API
// ============================================================================

// scanVerdict is the response shape of the standalone scan endpoints:
// blocked when the stage fails, suspicious when it passes above the
// route's advisory threshold, safe otherwise.
type scanVerdict struct {
	Status    string         `json:"status"`
	RiskScore float64        `json:"risk_score"`
	Reason    string         `json:"reason"`
	OWASPTag  string         `json:"owasp_tag,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

func verdictFor(res guard.ClassifierResult, suspiciousAbove float64, passReason string) scanVerdict {
	status := "safe"
	switch {
	case !res.Passed:
		status = "blocked"
	case res.ThreatScore > suspiciousAbove:
		status = "suspicious"
	}
	reason := res.Reason
	if reason == "" {
		reason = passReason
	}
	return scanVerdict{
		Status:    status,
		RiskScore: math.Round(res.ThreatScore*10000) / 10000,
		Reason:    reason,
		OWASPTag:  res.OWASPTag,
		Details:   res.Metadata,
	}
}

// apiError maps stage errors onto transport semantics: caller mistakes
// are 400s, analysis faults fall closed as a blocked verdict.
func apiError(c fiber.Ctx, log *zap.Logger, layer int, tag string, err error) error {
	var verr *guard.ValidationError
	if errors.As(err, &verr) {
		return c.Status(400).JSON(fiber.Map{"error": verr.Error()})
	}
	log.Error("scan stage failed", zap.Int("layer", layer), zap.Error(err))
	return c.JSON(verdictFor(guard.FailClosed(layer, tag, err), 0.3, ""))
}

func registerRoutes(app *fiber.App, gw *Gateway) {
	app.Get("/health", func(c fiber.Ctx) error {
		resp := fiber.Map{
			"status":  "ok",
			"version": Version,
			"seeds": fiber.Map{
				"ready":     gw.seeds.IsReady(),
				"injection": gw.seeds.SeedCount(guard.SeedsInjection),
				"memory":    gw.seeds.SeedCount(guard.SeedsMemory),
			},
			"events": gw.bus.Stats(),
		}
		if gw.memStore != nil {
			resp["session_store"] = "memory"
			resp["sessions"] = gw.memStore.Stats()
		} else {
			resp["session_store"] = "redis"
		}
		if gw.pgSink != nil {
			resp["audit"] = fiber.Map{
				"queue":   gw.pgSink.Stats(),
				"dropped": gw.pgSink.Dropped(),
			}
		}
		return c.JSON(resp)
	})

	// Full nine-layer turn processing.
	app.Post("/v1/chat", func(c fiber.Ctx) error {
		var req struct {
			SessionID string `json:"session_id"`
			Role      string `json:"role"`
			Message   string `json:"message"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		result, err := gw.pipe.ProcessTurn(c.Context(), req.SessionID, req.Role, req.Message)
		if err != nil {
			var verr *guard.ValidationError
			if errors.As(err, &verr) {
				return c.Status(400).JSON(fiber.Map{"error": verr.Error()})
			}
			gw.log.Error("turn processing failed",
				zap.String("session_id", req.SessionID), zap.Error(err))
			return c.Status(500).JSON(fiber.Map{"error": "turn processing failed"})
		}
		return c.JSON(result)
	})

	app.Delete("/v1/sessions/:id", func(c fiber.Ctx) error {
		if err := gw.pipe.ResetSession(c.Context(), c.Params("id")); err != nil {
			var verr *guard.ValidationError
			if errors.As(err, &verr) {
				return c.Status(400).JSON(fiber.Map{"error": verr.Error()})
			}
			gw.log.Error("session reset failed", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{"error": "session reset failed"})
		}
		return c.JSON(fiber.Map{"message": "Session deleted successfully"})
	})

	// Standalone stage endpoints for callers that bring their own context.
	app.Post("/v1/scan/input", func(c fiber.Ctx) error {
		var req struct {
			Text string `json:"text"`
			Role string `json:"role"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Text == "" {
			return c.Status(400).JSON(fiber.Map{"error": "text field is required"})
		}
		if req.Role == "" {
			req.Role = "user"
		}
		res, err := gw.pipe.ScanInput(c.Context(), req.Text, req.Role)
		if err != nil {
			return apiError(c, gw.log, guard.LayerIngestion, guard.TagPromptInjection, err)
		}
		return c.JSON(verdictFor(res, 0.3, "Input passed ingestion checks"))
	})

	app.Post("/v1/scan/tool", func(c fiber.Ctx) error {
		var req struct {
			Name        string         `json:"name"`
			Description string         `json:"description"`
			Endpoint    string         `json:"endpoint"`
			Parameters  map[string]any `json:"parameters"`
			Permissions []string       `json:"permissions"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		res, err := gw.pipe.ScanTool(guard.ToolManifest{
			Name:        req.Name,
			Description: req.Description,
			Endpoint:    req.Endpoint,
			Parameters:  req.Parameters,
			Permissions: req.Permissions,
		})
		if err != nil {
			return apiError(c, gw.log, guard.LayerPreExecution, guard.TagPromptInjection, err)
		}
		return c.JSON(verdictFor(res, 0.3, "Tool manifest passed screening"))
	})

	app.Post("/v1/scan/rag", func(c fiber.Ctx) error {
		var req struct {
			Text         string `json:"text"`
			DocumentType string `json:"document_type"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Text == "" {
			return c.Status(400).JSON(fiber.Map{"error": "text field is required"})
		}
		if req.DocumentType == "" {
			req.DocumentType = "general"
		}
		res := gw.pipe.ScanRAG(req.Text, req.DocumentType)
		return c.JSON(verdictFor(res, 0.3, "Content passed retrieval screening"))
	})

	app.Post("/v1/scan/output", func(c fiber.Ctx) error {
		var req struct {
			Text        string  `json:"text"`
			SessionRisk float64 `json:"session_risk"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Text == "" {
			return c.Status(400).JSON(fiber.Map{"error": "text field is required"})
		}
		res, err := gw.pipe.ScanOutput(req.Text, req.SessionRisk)
		if err != nil {
			return apiError(c, gw.log, guard.LayerOutput, guard.TagSensitiveDisclosure, err)
		}
		return c.JSON(verdictFor(res, 0.2, "Output passed filtering"))
	})

	app.Post("/v1/scan/memory", func(c fiber.Ctx) error {
		var req struct {
			Previous string `json:"previous"`
			Current  string `json:"current"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Current == "" {
			return c.Status(400).JSON(fiber.Map{"error": "current field is required"})
		}
		res, err := gw.pipe.AuditMemory(c.Context(), req.Previous, req.Current)
		if err != nil {
			return apiError(c, gw.log, guard.LayerMemory, guard.TagVectorWeakness, err)
		}
		return c.JSON(verdictFor(res, 0.3, "Memory integrity verified"))
	})

	app.Post("/v1/scan/agent", func(c fiber.Ctx) error {
		var req struct {
			SourceAgent     string `json:"source_agent"`
			TargetAgent     string `json:"target_agent"`
			Message         string `json:"message"`
			RequestedAction string `json:"requested_action"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Message == "" {
			return c.Status(400).JSON(fiber.Map{"error": "message field is required"})
		}
		res := gw.pipe.ValidateAgent(req.SourceAgent, req.TargetAgent, req.Message, req.RequestedAction)
		return c.JSON(verdictFor(res, 0.3, "Agent interaction validated"))
	})

	app.Get("/v1/adaptive/stats", func(c fiber.Ctx) error {
		return c.JSON(gw.pipe.AdaptiveStats())
	})

	app.Post("/v1/adaptive/sweep", func(c fiber.Ctx) error {
		res, err := gw.pipe.RunSweep(c.Context())
		if err != nil {
			gw.log.Error("sweep failed", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{"error": "sweep failed"})
		}
		return c.JSON(res)
	})

	app.Get("/v1/observability", func(c fiber.Ctx) error {
		window := 24 * time.Hour
		if raw := c.Query("window"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil || d <= 0 {
				return c.Status(400).JSON(fiber.Map{"error": "invalid window, use a duration like 30m or 24h"})
			}
			window = d
		}
		return c.JSON(gw.pipe.Snapshot(window))
	})

	// Server-sent events: live fan-out of the security event stream.
	app.Get("/events", func(c fiber.Ctx) error {
		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")

		sub := gw.bus.Subscribe()
		return c.SendStreamWriter(func(w *bufio.Writer) {
			defer gw.bus.Unsubscribe(sub)
			keepalive := time.NewTicker(15 * time.Second)
			defer keepalive.Stop()
			for {
				select {
				case ev, ok := <-sub:
					if !ok {
						return
					}
					payload, err := json.Marshal(ev)
					if err != nil {
						continue
					}
					fmt.Fprintf(w, "data: %s\n\n", payload)
					if w.Flush() != nil {
						return
					}
				case <-keepalive.C:
					fmt.Fprint(w, ": keepalive\n\n")
					if w.Flush() != nil {
						return
					}
				}
			}
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(gw.collector.Handler()))
}

// ============================================================================
// CLI Mode
// ============================================================================

func runCLIScan(text string) {
	ctx := context.Background()
	seeds := guard.NewSeedStore()
	if err := seeds.LoadDefaults(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "load seed corpus: %v\n", err)
		os.Exit(1)
	}

	store := session.NewInMemoryStore()
	defer store.Close()
	pipe := pipeline.New(store, seeds, zap.NewNop(),
		pipeline.WithAdaptiveEnabled(false))

	res, err := pipe.ScanInput(ctx, text, "user")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(verdictFor(res, 0.3, "Input passed ingestion checks"), "", "  ")
	fmt.Println(string(out))
}
