package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	OpenAIKey    string
	OpenAIModel  string
	DataDir      string
	ProblemsDir  string
	SummariesDir string
	Database     string
}

// Load reads configuration from the environment, providing sensible defaults.
func Load() Config {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")
	cfg := Config{
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		DataDir:      dataDir,
		ProblemsDir:  filepath.Join(dataDir, "problems"),
		SummariesDir: filepath.Join(dataDir, "summaries"),
		Database:     getEnv("DATABASE_PATH", filepath.Join(dataDir, "history.db")),
	}

	for _, dir := range []string{cfg.ProblemsDir, cfg.SummariesDir, filepath.Dir(cfg.Database)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("failed to ensure data dir %s: %v", dir, err)
		}
	}

	// Without a key the upload pipeline fails; browsing stored artifacts
	// still works.
	if cfg.OpenAIKey == "" {
		log.Printf("warning: OPENAI_API_KEY is not set; generation is disabled")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
