package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = "config.yaml"

	defaultServerAddr      = ":8080"
	defaultProjectsColl    = "projects"
	defaultGeminiBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel     = "gemini-2.5-flash-preview-05-20"
	defaultChatBudget      = 1024
	defaultEnhanceBudget   = 2048
	defaultImagenLocation  = "us-central1"
	defaultImagenModel     = "imagen-4.0-generate-preview-05-20"
	defaultUltraModel      = "imagen-4.0-ultra-generate-exp-05-20"
	defaultAspectRatio     = "16:9"
	defaultSafetyFilter    = "block_some"
	defaultPersonGen       = "allow_adult"
	defaultAssetPrefix     = "assets"
	defaultMaxAssetBytes   = 10 << 20
	defaultShutdownSeconds = 10
)

type Config struct {
	GeminiAPIKey            string
	GeminiAPIKeySecret      string
	GoogleCloudProject      string
	GoogleServiceAccountKey string
	GCSBucket               string

	Server    ServerConfig    `yaml:"server"`
	Firestore FirestoreConfig `yaml:"firestore"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Imagen    ImagenConfig    `yaml:"imagen"`
	Assets    AssetsConfig    `yaml:"assets"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownSeconds int    `yaml:"shutdown_seconds"`
}

type FirestoreConfig struct {
	ProjectsCollection string `yaml:"projects_collection"`
}

type GeminiConfig struct {
	BaseURL               string `yaml:"base_url"`
	Model                 string `yaml:"model"`
	ChatThinkingBudget    int    `yaml:"chat_thinking_budget"`
	EnhanceThinkingBudget int    `yaml:"enhance_thinking_budget"`
}

type ImagenConfig struct {
	Location          string `yaml:"location"`
	PreviewModel      string `yaml:"preview_model"`
	UltraModel        string `yaml:"ultra_model"`
	AspectRatio       string `yaml:"aspect_ratio"`
	SafetyFilterLevel string `yaml:"safety_filter_level"`
	PersonGeneration  string `yaml:"person_generation"`
}

type AssetsConfig struct {
	Prefix   string `yaml:"prefix"`
	MaxBytes int64  `yaml:"max_bytes"`
}

func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		GeminiAPIKey:            os.Getenv("GEMINI_API_KEY"),
		GeminiAPIKeySecret:      os.Getenv("GEMINI_API_KEY_SECRET"),
		GoogleCloudProject:      os.Getenv("GOOGLE_CLOUD_PROJECT_ID"),
		GoogleServiceAccountKey: os.Getenv("GOOGLE_SERVICE_ACCOUNT_KEY"),
		GCSBucket:               os.Getenv("GCS_BUCKET"),
	}

	loadYAMLConfig(cfg)
	applyDefaults(cfg)

	if cfg.GeminiAPIKey == "" && cfg.GeminiAPIKeySecret != "" {
		key, err := fetchSecret(ctx, cfg.GeminiAPIKeySecret)
		if err != nil {
			return nil, fmt.Errorf("fetch gemini api key from secret manager: %w", err)
		}
		cfg.GeminiAPIKey = key
	}

	return cfg, nil
}

func loadYAMLConfig(cfg *Config) {
	data, err := os.ReadFile(defaultConfigPath)
	if err != nil {
		slog.Warn("No config.yaml found, using defaults")
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Error("Failed to parse config.yaml", "error", err)
	}
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(cfg)
	applyFirestoreDefaults(cfg)
	applyGeminiDefaults(cfg)
	applyImagenDefaults(cfg)
	applyAssetsDefaults(cfg)
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultServerAddr
	}
	if cfg.Server.ShutdownSeconds == 0 {
		cfg.Server.ShutdownSeconds = defaultShutdownSeconds
	}
}

func applyFirestoreDefaults(cfg *Config) {
	if cfg.Firestore.ProjectsCollection == "" {
		cfg.Firestore.ProjectsCollection = defaultProjectsColl
	}
}

func applyGeminiDefaults(cfg *Config) {
	if cfg.Gemini.BaseURL == "" {
		cfg.Gemini.BaseURL = defaultGeminiBaseURL
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = defaultGeminiModel
	}
	if cfg.Gemini.ChatThinkingBudget == 0 {
		cfg.Gemini.ChatThinkingBudget = defaultChatBudget
	}
	if cfg.Gemini.EnhanceThinkingBudget == 0 {
		cfg.Gemini.EnhanceThinkingBudget = defaultEnhanceBudget
	}
}

func applyImagenDefaults(cfg *Config) {
	if cfg.Imagen.Location == "" {
		cfg.Imagen.Location = defaultImagenLocation
	}
	if cfg.Imagen.PreviewModel == "" {
		cfg.Imagen.PreviewModel = defaultImagenModel
	}
	if cfg.Imagen.UltraModel == "" {
		cfg.Imagen.UltraModel = defaultUltraModel
	}
	if cfg.Imagen.AspectRatio == "" {
		cfg.Imagen.AspectRatio = defaultAspectRatio
	}
	if cfg.Imagen.SafetyFilterLevel == "" {
		cfg.Imagen.SafetyFilterLevel = defaultSafetyFilter
	}
	if cfg.Imagen.PersonGeneration == "" {
		cfg.Imagen.PersonGeneration = defaultPersonGen
	}
}

func applyAssetsDefaults(cfg *Config) {
	if cfg.Assets.Prefix == "" {
		cfg.Assets.Prefix = defaultAssetPrefix
	}
	if cfg.Assets.MaxBytes == 0 {
		cfg.Assets.MaxBytes = defaultMaxAssetBytes
	}
}

// fetchSecret resolves a full secret version resource name, e.g.
// projects/my-proj/secrets/gemini-api-key/versions/latest.
func fetchSecret(ctx context.Context, name string) (string, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return "", fmt.Errorf("access secret version: %w", err)
	}

	return string(resp.GetPayload().GetData()), nil
}
