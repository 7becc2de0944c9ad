package imagen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"adspark/internal/project"
)

// SceneRenderer is the backend call the orchestrator drives once per
// scene.
type SceneRenderer interface {
	GenerateScene(ctx context.Context, scene project.Scene, model, aspectRatio string, sampleCount int) (Image, error)
}

// Orchestrator renders one image per scene with per-scene failure
// isolation: a failed scene yields a placeholder, never an aborted run.
type Orchestrator struct {
	renderer SceneRenderer
	logger   *slog.Logger
	demo     bool
}

// Result aggregates a whole generation run. Success means at least one
// image was produced; Errors lists the scenes that fell back to an
// error placeholder.
type Result struct {
	Success bool     `json:"success"`
	Images  []Image  `json:"images"`
	Model   string   `json:"model"`
	Message string   `json:"message"`
	IsDemo  bool     `json:"isDemo,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// NewOrchestrator wires a renderer. A nil renderer selects demo mode:
// every scene gets a deterministic placeholder and no network calls
// happen.
func NewOrchestrator(renderer SceneRenderer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		renderer: renderer,
		logger:   logger,
		demo:     renderer == nil,
	}
}

// GenerateImages renders the scenes sequentially. The result always has
// exactly one image per input scene.
func (o *Orchestrator) GenerateImages(ctx context.Context, scenes []project.Scene, model, aspectRatio string, imagesPerScene int) Result {
	if o.demo {
		return o.demoResult(scenes, model)
	}

	images := make([]Image, 0, len(scenes))
	var errs []string

	for _, scene := range scenes {
		image, err := o.generateScene(ctx, scene, model, aspectRatio, imagesPerScene)
		if err != nil {
			errs = append(errs, err.Error())
			images = append(images, ErrorPlaceholder(scene, errors.Is(err, ErrQuotaExceeded)))
			continue
		}
		images = append(images, image)
	}

	succeeded := len(images) - len(errs)
	message := fmt.Sprintf("Successfully generated %d images using %s", len(images), model)
	if len(errs) > 0 {
		message = fmt.Sprintf("Generated %d/%d images successfully. %d failed.", succeeded, len(scenes), len(errs))
	}

	return Result{
		Success: succeeded > 0,
		Images:  images,
		Model:   model,
		Message: message,
		Errors:  errs,
	}
}

func (o *Orchestrator) generateScene(ctx context.Context, scene project.Scene, model, aspectRatio string, imagesPerScene int) (Image, error) {
	image, err := o.renderer.GenerateScene(ctx, scene, model, aspectRatio, imagesPerScene)
	if err == nil {
		return image, nil
	}

	// Premium-tier quota exhaustion gets one retry on the standard model.
	if errors.Is(err, ErrQuotaExceeded) && strings.Contains(model, "ultra") {
		o.logger.Info("quota exceeded on ultra model, retrying with preview model",
			"scene", scene.Title)
		image, retryErr := o.renderer.GenerateScene(ctx, scene, ModelPreview, aspectRatio, imagesPerScene)
		if retryErr == nil {
			return image, nil
		}
		return Image{}, fmt.Errorf("failed with both ultra and preview models for scene %q: %w", scene.Title, retryErr)
	}

	return Image{}, fmt.Errorf("failed to generate image for scene %q: %w", scene.Title, err)
}

func (o *Orchestrator) demoResult(scenes []project.Scene, model string) Result {
	images := make([]Image, len(scenes))
	for i, scene := range scenes {
		images[i] = DemoPlaceholder(scene, model)
	}
	return Result{
		Success: true,
		Images:  images,
		Model:   model,
		Message: fmt.Sprintf("Generated %d placeholder images. Set up Google Cloud service account authentication for actual generation.", len(images)),
		IsDemo:  true,
	}
}
