package main

import (
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/example/dts-backend/internal/config"
	"github.com/example/dts-backend/internal/httpapi"
	"github.com/example/dts-backend/internal/job"
	"github.com/example/dts-backend/internal/notify"
	"github.com/example/dts-backend/internal/report"
	"github.com/example/dts-backend/internal/store"
)

func main() {
	loadDotEnv()
	cfg := config.Load()
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("mkdir data dir: %v", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "jobs.db")
	jobStore, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("open job store: %v", err)
	}

	hub := notify.NewHub()
	jobs := job.NewService(jobStore, hub)

	renderer := &report.Renderer{}
	if cfg.PDFDebugDir != "" {
		renderer.Sink = &report.DebugSink{Dir: cfg.PDFDebugDir, Max: cfg.PDFDebugMax}
		log.Printf("pdf debug copies in %s (max %d)", cfg.PDFDebugDir, cfg.PDFDebugMax)
	}

	server := httpapi.Server{
		Jobs:     jobs,
		Renderer: renderer,
		Hub:      hub,
		Port:     portOf(cfg.Addr),
	}

	log.Printf("API listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, server.Router()); err != nil {
		log.Fatalf("listen: %v", err)
	}
}

func portOf(addr string) int {
	_, raw, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	port, _ := strconv.Atoi(raw)
	return port
}

func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
