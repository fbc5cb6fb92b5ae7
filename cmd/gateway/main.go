package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"

	"github.com/pagewarden/pagewarden/pkg/analyzer"
	"github.com/pagewarden/pagewarden/pkg/cache"
	"github.com/pagewarden/pagewarden/pkg/config"
	"github.com/pagewarden/pagewarden/pkg/intel"
	"github.com/pagewarden/pagewarden/pkg/signatures"
	"github.com/pagewarden/pagewarden/pkg/storage"
	"github.com/pagewarden/pagewarden/pkg/telemetry"
)

const Version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		addr := ""
		if len(os.Args) > 2 {
			addr = ":" + os.Args[2]
		}
		runHTTPServer(addr)
	case "assess":
		if len(os.Args) < 3 {
			fmt.Println("Usage: pagewarden assess <text> [domain]")
			os.Exit(1)
		}
		domain := ""
		if len(os.Args) > 3 {
			domain = os.Args[len(os.Args)-1]
			runCLIAssess(strings.Join(os.Args[2:len(os.Args)-1], " "), domain)
			return
		}
		runCLIAssess(strings.Join(os.Args[2:], " "), domain)
	case "version":
		fmt.Printf("PageWarden v%s\n", Version)
		fmt.Println("Web Content Risk Scoring Engine")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("PageWarden v%s - Web Content Risk Scoring Engine\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  pagewarden serve [port]           Start HTTP server (default: 8080)")
	fmt.Println("  pagewarden assess <text> [domain] Assess text (and optional domain) from the CLI")
	fmt.Println("  pagewarden version                Show version")
	fmt.Println("")
	fmt.Println("Examples:")
	fmt.Println("  pagewarden serve 8080")
	fmt.Println("  pagewarden assess \"Dear valued customer, verify your account immediately\" micros0ft.com")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  PAGEWARDEN_SIGNATURES     Path to a YAML signature document")
	fmt.Println("  PAGEWARDEN_REDIS_ADDR     Redis address for the domain cache")
	fmt.Println("  PAGEWARDEN_POSTGRES_DSN   Postgres DSN for assessment storage")
	fmt.Println("  PAGEWARDEN_FEED_A_URL     Malware reputation feed endpoint")
	fmt.Println("  PAGEWARDEN_FEED_B_URL     Phishing reputation feed endpoint")
	fmt.Println("  PAGEWARDEN_FEED_API_KEY   Bearer token for the feeds")
	fmt.Println("  PAGEWARDEN_FEED_TIMEOUT_MS  Per-lookup feed timeout in milliseconds (default: 5000)")
	fmt.Println("  PAGEWARDEN_FALLBACK       local|flag: how to score when feeds are down (default: local)")
}

// buildEngine wires the engine and its optional collaborators from config.
func buildEngine(ctx context.Context, cfg *config.Config) (*analyzer.Engine, *signatures.Store, func()) {
	store := signatures.NewStore(nil)
	if cfg.SignaturesPath != "" {
		if err := store.ReplaceFromFile(cfg.SignaturesPath); err != nil {
			log.Printf("[STARTUP] Signature document %s rejected, using embedded set: %v", cfg.SignaturesPath, err)
		} else {
			log.Printf("[STARTUP] Signatures loaded from %s (version %s)", cfg.SignaturesPath, store.Current().Version)
		}
	}

	counters := telemetry.Global
	cleanup := func() {}

	var domainCache *cache.DomainCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		domainCache = cache.New(rdb, cfg.CacheTTL, counters)
		log.Printf("[STARTUP] Domain cache enabled (redis %s, ttl %s)", cfg.RedisAddr, cfg.CacheTTL)
	} else {
		log.Println("[STARTUP] Domain cache disabled (no redis address)")
	}

	var feeds *intel.Client
	if cfg.FeedAURL != "" || cfg.FeedBURL != "" {
		feeds = intel.New(cfg.FeedAURL, cfg.FeedBURL, cfg.FeedAPIKey, cfg.FeedTimeout, counters)
		log.Printf("[STARTUP] Reputation feeds enabled (timeout %s)", cfg.FeedTimeout)
	} else {
		log.Println("[STARTUP] Reputation feeds disabled")
	}

	store2, err := storage.Open(ctx, cfg.PostgresDSN, counters)
	if err != nil {
		log.Fatalf("[STARTUP] FATAL: storage: %v", err)
	}
	if cfg.PostgresDSN == "" {
		log.Println("[STARTUP] Assessment storage disabled (no DSN)")
	}
	cleanup = store2.Close

	engine := analyzer.New(store, analyzer.Options{
		Cache:          domainCache,
		Feeds:          feeds,
		Storage:        store2,
		Counters:       counters,
		MaxConcurrency: cfg.MaxConcurrentAssessments,
		Fallback:       cfg.FallbackBehavior,
	})
	return engine, store, cleanup
}

func runHTTPServer(addr string) {
	cfg := config.NewDefaultConfig()
	cfg.MustValidate()
	if addr == "" {
		addr = cfg.ListenAddr
	}

	ctx := context.Background()
	engine, store, cleanup := buildEngine(ctx, cfg)
	defer cleanup()

	app := fiber.New(fiber.Config{
		AppName: "PageWarden",
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":     "ok",
			"version":    Version,
			"signatures": store.Current().Version,
		})
	})

	app.Get("/stats", func(c fiber.Ctx) error {
		return c.JSON(telemetry.Global.Snapshot())
	})

	app.Post("/v1/assess", func(c fiber.Ctx) error {
		var req analyzer.Request
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Text == "" && len(req.Fragments) == 0 && req.Domain == "" {
			return c.Status(400).JSON(fiber.Map{"error": "text, domain, or fragments required"})
		}

		assessment, err := engine.Assess(c.Context(), req)
		if err != nil {
			return c.Status(503).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(assessment)
	})

	// Reload replaces the signature document wholesale. A rejected document
	// keeps the last known good set.
	app.Post("/v1/signatures/reload", func(c fiber.Ctx) error {
		var req struct {
			Path string `json:"path"`
		}
		if err := c.Bind().Body(&req); err != nil || req.Path == "" {
			return c.Status(400).JSON(fiber.Map{"error": "path field is required"})
		}
		if err := store.ReplaceFromFile(req.Path); err != nil {
			return c.Status(422).JSON(fiber.Map{
				"error":   err.Error(),
				"version": store.Current().Version,
			})
		}
		log.Printf("[SIGNATURES] Reloaded from %s (version %s)", req.Path, store.Current().Version)
		return c.JSON(fiber.Map{"version": store.Current().Version})
	})

	log.Printf("PageWarden HTTP server starting on %s", addr)
	log.Printf("Endpoints:")
	log.Printf("  GET  /health                - Health check")
	log.Printf("  GET  /stats                 - Gateway counters")
	log.Printf("  POST /v1/assess             - Assess page text, fragments, and domain")
	log.Printf("  POST /v1/signatures/reload  - Replace the signature document")

	if err := app.Listen(addr); err != nil {
		log.Fatal(err)
	}
}

func runCLIAssess(text, domain string) {
	cfg := config.NewLocalConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	engine, _, cleanup := buildEngine(ctx, cfg)
	defer cleanup()

	assessment, err := engine.Assess(ctx, analyzer.Request{Text: text, Domain: domain})
	if err != nil {
		log.Fatalf("assess: %v", err)
	}

	output, _ := json.MarshalIndent(assessment, "", "  ")
	fmt.Println(string(output))
}
