package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path"
	"runtime"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"
	"github.com/pressly/goose/v3"

	"bookcatalog/internal/logger"
	"bookcatalog/migrations"
)

func getEnvOrDefault(key, default_ string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}

	return default_
}

var (
	logLevel  = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))
	logFormat = getEnvOrDefault("LOG_FORMAT", "text")
	dbConnStr = os.Getenv("DATABASE_URL")
)

func main() {
	command := flag.String("command", "up", "Migration command: up, down, status, version")
	flag.Parse()

	_, thisFile, _, _ := runtime.Caller(0)

	var lvl slog.Level
	lvlErr := lvl.UnmarshalText([]byte(logLevel))
	if lvlErr != nil {
		lvl = slog.LevelInfo
	}
	if err := logger.SetupSLog(lvl, logFormat, path.Dir(path.Dir(path.Dir(thisFile))), nil); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	if lvlErr != nil {
		slog.Error("Invalid log level specified in LOG_LEVEL, one of debug, info, warn or error expected")
		os.Exit(1)
	}

	cfg, err := pgxpool.ParseConfig(dbConnStr)
	if err != nil {
		slog.Error("Failed to parse DATABASE_URL: " + err.Error())
		os.Exit(1)
	}

	pg, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to create postgres pool: " + err.Error())
		os.Exit(1)
	}
	defer pg.Close()

	db := stdlib.OpenDBFromPool(pg)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	switch *command {
	case "up":
		err = goose.Up(db, ".")
	case "down":
		err = goose.Down(db, ".")
	case "status":
		err = goose.Status(db, ".")
	case "version":
		var v int64
		v, err = goose.GetDBVersion(db)
		if err == nil {
			slog.Info("Schema version", slog.Int64("version", v))
		}
	default:
		slog.Error("Unknown command " + *command + ", one of up, down, status or version expected")
		os.Exit(1)
	}

	if err != nil {
		slog.Error("Migration " + *command + " failed: " + err.Error())
		os.Exit(1)
	}

	slog.Info("Migration " + *command + " done")
}
