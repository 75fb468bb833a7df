package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path"
	"runtime"
	"strconv"
	"strings"
	"time"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"bookcatalog/internal/catalog"
	"bookcatalog/internal/logger"
	"bookcatalog/internal/openlibrary"
	"bookcatalog/internal/response"
	"bookcatalog/internal/server"
	"bookcatalog/internal/storage/books"
)

func getEnvOrDefault(key, default_ string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}

	return default_
}

func getBoolEnv(key string) bool {
	if val := strings.ToLower(os.Getenv(key)); val == "yes" || val == "on" || val == "true" {
		return true
	}

	return false
}

var (
	logLevel       = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "debug"))
	logFormat      = getEnvOrDefault("LOG_FORMAT", "text")
	dbConnStr      = os.Getenv("DATABASE_URL")
	storageBackend = getEnvOrDefault("STORAGE_BACKEND", "postgres")
	bindAddr       = getEnvOrDefault("BIND_ADDR", ":8080")
	debugMode      = getBoolEnv("DEBUG_MODE")
	openLibraryUrl = getEnvOrDefault("OPENLIBRARY_URL", openlibrary.DefaultBaseURL)
	lookupTimeout  = getEnvOrDefault("LOOKUP_TIMEOUT", "10s")
	lookupRPS      = getEnvOrDefault("LOOKUP_RPS", "0")
	redisUrl       = os.Getenv("REDIS_URL")
	lookupCacheTTL = getEnvOrDefault("LOOKUP_CACHE_TTL", "24h")
	authorScores   = os.Getenv("AUTHOR_SCORES")
	openApiFile    = getEnvOrDefault("OPENAPI_FILE", "api/openapi.yaml")
)

func fatal(msg string) {
	slog.Error(msg)
	os.Exit(1)
}

func main() {
	_, thisFile, _, _ := runtime.Caller(0)

	var lvl slog.Level
	lvlErr := lvl.UnmarshalText([]byte(logLevel))
	if lvlErr != nil {
		lvl = slog.LevelDebug
	}
	if err := logger.SetupSLog(lvl, logFormat, path.Dir(path.Dir(path.Dir(thisFile))), middleware.RequestIDKey); err != nil {
		fatal(err.Error())
	}

	if lvlErr != nil {
		fatal("Invalid log level specified in LOG_LEVEL, one of debug, info, warn or error expected")
	}

	br := bookRepository()

	scores := catalog.DefaultAuthorScores
	if authorScores != "" {
		var err error
		if scores, err = catalog.ParseAuthorScores(authorScores); err != nil {
			fatal("Failed to parse AUTHOR_SCORES: " + err.Error())
		}
	}

	svc := catalog.NewService(br, catalog.NewScorer(scores), isbnLookup())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	server.Static(r, openApiFile)
	r.Mount("/", server.Handler(svc, &response.Responder{DebugMode: debugMode}))

	slog.Info("Listening on " + bindAddr)
	fatal("aborting: " + http.ListenAndServe(bindAddr, r).Error())
}

func bookRepository() books.Repository {
	switch storageBackend {
	case "memory":
		slog.Warn("Using in-memory book storage, nothing will survive a restart")
		return books.NewMemoryRepository(slog.Default())
	case "postgres":
	default:
		fatal("STORAGE_BACKEND must be postgres or memory")
	}

	cfg, err := pgxpool.ParseConfig(dbConnStr)
	if err != nil {
		fatal("Failed to parse DATABASE_URL: " + err.Error())
	}

	cfg.ConnConfig.Tracer = logger.NewPGXTracer(slog.Default())

	pg, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		fatal("failed to create postgres pool: " + err.Error())
	}

	return books.NewPGXRepository(pg, slog.Default())
}

func isbnLookup() catalog.Lookup {
	timeout, err := time.ParseDuration(lookupTimeout)
	if err != nil {
		fatal("Failed to parse LOOKUP_TIMEOUT: " + err.Error())
	}

	rps, err := strconv.ParseFloat(lookupRPS, 64)
	if err != nil {
		fatal("Failed to parse LOOKUP_RPS: " + err.Error())
	}

	client := openlibrary.NewClient(openlibrary.Options{
		BaseURL: openLibraryUrl,
		Timeout: timeout,
		RPS:     rps,
	}, slog.Default())

	if redisUrl == "" {
		return client
	}

	opts, err := redis.ParseURL(redisUrl)
	if err != nil {
		fatal("Failed to parse REDIS_URL: " + err.Error())
	}

	ttl, err := time.ParseDuration(lookupCacheTTL)
	if err != nil {
		fatal("Failed to parse LOOKUP_CACHE_TTL: " + err.Error())
	}

	return openlibrary.NewCache(client, redis.NewClient(opts), ttl, slog.Default())
}
