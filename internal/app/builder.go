package app

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"adspark/internal/assets"
	"adspark/internal/enhance"
	"adspark/internal/gemini"
	"adspark/internal/imagen"
	"adspark/internal/project"
	"adspark/internal/storyboard"
	"adspark/pkg/config"
	"adspark/pkg/prompts"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// BuildService assembles the full pipeline from config. With no Google
// Cloud project configured the service runs in demo mode: in-memory
// persistence and placeholder images, no cloud calls.
func BuildService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	p, err := prompts.Load()
	if err != nil {
		return nil, err
	}

	textClient := gemini.NewClient(cfg.GeminiAPIKey, gemini.Options{
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
		Ack:     p.Chat.Ack,
	})

	demo := cfg.GoogleCloudProject == ""

	service := &Service{cfg: cfg, text: textClient, prompts: p, demo: demo}

	if demo {
		logger.Warn("no Google Cloud project configured, running in demo mode")
		service.store = project.NewMemoryStore()
		service.uploader = assets.NewMemoryUploader()
		service.orchestrator = imagen.NewOrchestrator(nil, logger)
	} else {
		fsClient, err := firestore.NewClient(ctx, cfg.GoogleCloudProject)
		if err != nil {
			return nil, fmt.Errorf("create firestore client: %w", err)
		}
		service.addCloser(fsClient.Close)
		service.store = project.NewFirestoreStore(fsClient, cfg.Firestore.ProjectsCollection)

		tokens, err := tokenSource(ctx, cfg)
		if err != nil {
			return nil, err
		}
		renderer := imagen.NewClient(tokens, imagen.Options{
			Project:           cfg.GoogleCloudProject,
			Location:          cfg.Imagen.Location,
			SafetyFilterLevel: cfg.Imagen.SafetyFilterLevel,
			PersonGeneration:  cfg.Imagen.PersonGeneration,
		})
		service.orchestrator = imagen.NewOrchestrator(renderer, logger)

		if cfg.GCSBucket != "" {
			uploader, err := assets.NewGCSUploader(ctx, cfg.GCSBucket, cfg.Assets.Prefix)
			if err != nil {
				return nil, err
			}
			service.addCloser(uploader.Close)
			service.uploader = uploader
		} else {
			service.uploader = assets.NewMemoryUploader()
		}
	}

	service.synthesizer = storyboard.NewSynthesizer(textClient, service.store, p, logger)
	service.composer = enhance.NewComposer(textClient, p, cfg.Gemini.EnhanceThinkingBudget)

	return service, nil
}

// tokenSource builds credentials for the image backend: an inline
// service-account key when configured, ambient application-default
// credentials otherwise.
func tokenSource(ctx context.Context, cfg *config.Config) (oauth2.TokenSource, error) {
	if cfg.GoogleServiceAccountKey != "" {
		creds, err := google.CredentialsFromJSON(ctx, []byte(cfg.GoogleServiceAccountKey), cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("parse service account key: %w", err)
		}
		return creds.TokenSource, nil
	}

	tokens, err := google.DefaultTokenSource(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("find default credentials: %w", err)
	}
	return tokens, nil
}
