package main

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rawblock/fraudring-engine/internal/api"
	"github.com/rawblock/fraudring-engine/internal/feedback"
	"github.com/rawblock/fraudring-engine/internal/store"
)

func main() {
	log.Println("Starting fraud ring detection engine...")

	// ─── Optional Environment Variables ─────────────────────────────────
	// DATABASE_URL is optional: the feedback/performance file sinks work
	// fully without Postgres. Settings are read from the process
	// environment only; no .env file is loaded.
	// ────────────────────────────────────────────────────────────────────

	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("FATAL: failed to create data directory %s: %v", dataDir, err)
	}

	feedbackCollector := feedback.NewCollector(filepath.Join(dataDir, "feedback.jsonl"), getEnvFloatOrDefault("MIN_SUSPICION_SCORE", 40.0))
	perfTracker := feedback.NewPerformanceTracker(filepath.Join(dataDir, "performance.jsonl"))

	var pool *pgxpool.Pool
	if dbUrl := os.Getenv("DATABASE_URL"); dbUrl != "" {
		dbConn, err := store.Connect(dbUrl)
		if err != nil {
			log.Printf("Warning: Failed to connect to PostgreSQL, continuing with file-only feedback/performance sinks. Error: %v", err)
		} else {
			defer dbConn.Close()
			if err := dbConn.InitSchema(); err != nil {
				log.Printf("Warning: DB schema init failed: %v", err)
			}
			pool = dbConn.GetPool()
			log.Println("Postgres enabled for config-comparison history; feedback/performance stay file-only")
		}
	} else {
		log.Println("DATABASE_URL not set — running with file-only feedback/performance sinks")
	}

	// Setup WebSocket Hub for pipeline stage-progress events.
	wsHub := api.NewHub()
	go wsHub.Run()

	r := api.SetupRouter(wsHub, feedbackCollector, perfTracker, pool)

	port := getEnvOrDefault("PORT", "5339")

	log.Printf("Engine running on :%s\n", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvFloatOrDefault(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return f
}
