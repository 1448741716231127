package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds process-wide settings for the chartscribe service. API keys
// are env-only (OPENAI_API_KEY, GEMINI_KEY, AWS_*); everything else can come
// from the TOML config file with CHARTSCRIBE_* env overrides on top.
type Config struct {
	ListenAddr string
	DBPath     string

	// Blob storage: "fs" (local directory served at BlobBaseURL) or "s3".
	BlobBackend string
	BlobDir     string
	BlobBaseURL string
	S3Bucket    string

	// Provider selection for the two external pipeline stages.
	TranscribeProvider string // "openai" (default) or "gemini"
	TranscribeModel    string
	SummaryProvider    string // "openai" (default), "bedrock", or "ollama"
	SummaryModel       string
	SummaryPrompt      string // optional override of the fixed scribe prompt

	OpenAIKey string
	GeminiKey string
	OllamaURL string
}

type fileConfig struct {
	ListenAddr         string `toml:"listen_addr"`
	DBPath             string `toml:"db_path"`
	BlobBackend        string `toml:"blob_backend"`
	BlobDir            string `toml:"blob_dir"`
	BlobBaseURL        string `toml:"blob_base_url"`
	S3Bucket           string `toml:"s3_bucket"`
	TranscribeProvider string `toml:"transcribe_provider"`
	TranscribeModel    string `toml:"transcribe_model"`
	SummaryProvider    string `toml:"summary_provider"`
	SummaryModel       string `toml:"summary_model"`
	SummaryPrompt      string `toml:"summary_prompt"`
	OllamaURL          string `toml:"ollama_url"`
}

// Load resolves configuration: optional .env file, then the TOML config file,
// then environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		ListenAddr:         ":8080",
		DBPath:             defaultDBPath(),
		BlobBackend:        "fs",
		BlobDir:            defaultBlobDir(),
		BlobBaseURL:        "http://localhost:8080/audio",
		TranscribeProvider: "openai",
		SummaryProvider:    "openai",
	}

	if path := configFilePath(); path != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(path, &fc); err == nil {
			applyFileConfig(cfg, fc)
		}
	}

	applyEnvOverrides(cfg)

	cfg.OpenAIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	cfg.GeminiKey = strings.TrimSpace(os.Getenv("GEMINI_KEY"))

	return cfg, nil
}

// loadEnvFile loads a settings file into the process env when present:
// CHARTSCRIBE_ENV_FILE if set, otherwise ./.env.
func loadEnvFile() {
	if path := strings.TrimSpace(os.Getenv("CHARTSCRIBE_ENV_FILE")); path != "" {
		_ = godotenv.Overload(path)
		return
	}
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}
	if fc.DBPath != "" {
		cfg.DBPath = expandTilde(fc.DBPath)
	}
	if fc.BlobBackend != "" {
		cfg.BlobBackend = fc.BlobBackend
	}
	if fc.BlobDir != "" {
		cfg.BlobDir = expandTilde(fc.BlobDir)
	}
	if fc.BlobBaseURL != "" {
		cfg.BlobBaseURL = fc.BlobBaseURL
	}
	if fc.S3Bucket != "" {
		cfg.S3Bucket = fc.S3Bucket
	}
	if fc.TranscribeProvider != "" {
		cfg.TranscribeProvider = fc.TranscribeProvider
	}
	if fc.TranscribeModel != "" {
		cfg.TranscribeModel = fc.TranscribeModel
	}
	if fc.SummaryProvider != "" {
		cfg.SummaryProvider = fc.SummaryProvider
	}
	if fc.SummaryModel != "" {
		cfg.SummaryModel = fc.SummaryModel
	}
	if fc.SummaryPrompt != "" {
		cfg.SummaryPrompt = fc.SummaryPrompt
	}
	if fc.OllamaURL != "" {
		cfg.OllamaURL = fc.OllamaURL
	}
}

func applyEnvOverrides(cfg *Config) {
	overrides := map[string]*string{
		"CHARTSCRIBE_LISTEN_ADDR":         &cfg.ListenAddr,
		"CHARTSCRIBE_DB_PATH":             &cfg.DBPath,
		"CHARTSCRIBE_BLOB_BACKEND":        &cfg.BlobBackend,
		"CHARTSCRIBE_BLOB_DIR":            &cfg.BlobDir,
		"CHARTSCRIBE_BLOB_BASE_URL":       &cfg.BlobBaseURL,
		"CHARTSCRIBE_S3_BUCKET":           &cfg.S3Bucket,
		"CHARTSCRIBE_TRANSCRIBE_PROVIDER": &cfg.TranscribeProvider,
		"CHARTSCRIBE_TRANSCRIBE_MODEL":    &cfg.TranscribeModel,
		"CHARTSCRIBE_SUMMARY_PROVIDER":    &cfg.SummaryProvider,
		"CHARTSCRIBE_SUMMARY_MODEL":       &cfg.SummaryModel,
		"CHARTSCRIBE_OLLAMA_URL":          &cfg.OllamaURL,
	}
	for key, target := range overrides {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*target = v
		}
	}
}

func configFilePath() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "chartscribe")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "chartscribe")
	} else {
		return ""
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func defaultDBPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".chartscribe", "records.sqlite")
	}
	return filepath.Join(".", "records.sqlite")
}

func defaultBlobDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".chartscribe", "audio")
	}
	return filepath.Join(".", "audio")
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
