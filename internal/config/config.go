package config

import (
	"os"
	"strconv"
)

type Config struct {
	Addr        string
	DataDir     string
	PDFDebugDir string // empty disables the debug copy of rendered PDFs
	PDFDebugMax int    // most-recent files kept in the debug dir
}

func Load() Config {
	return Config{
		Addr:        getenv("DTS_API_ADDR", ":5000"),
		DataDir:     getenv("DTS_DATA_DIR", "data"),
		PDFDebugDir: os.Getenv("DTS_PDF_DEBUG_DIR"),
		PDFDebugMax: getenvInt("DTS_PDF_DEBUG_MAX", 50),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
