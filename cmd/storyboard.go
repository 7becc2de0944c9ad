package cmd

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"adspark/internal/app"
	"adspark/internal/imagen"
	"adspark/internal/project"
	"adspark/internal/storyboard"
	"adspark/pkg/config"
)

var (
	storyboardTitle       string
	storyboardDescription string
	storyboardImages      bool
	storyboardModel       string
	storyboardAspect      string
	storyboardOut         string
)

var storyboardCmd = &cobra.Command{
	Use:   "storyboard",
	Short: "Generate a single storyboard from the command line",
	Long:  `Generate four scenes for a campaign idea, optionally rendering one image per scene.`,
	RunE:  runStoryboard,
}

func init() {
	storyboardCmd.Flags().StringVarP(&storyboardTitle, "title", "t", "", "Campaign title")
	storyboardCmd.Flags().StringVarP(&storyboardDescription, "description", "d", "", "Campaign description")
	storyboardCmd.Flags().BoolVarP(&storyboardImages, "images", "i", false, "Render an image per scene")
	storyboardCmd.Flags().StringVarP(&storyboardModel, "model", "m", "", "Image model (preview or ultra)")
	storyboardCmd.Flags().StringVar(&storyboardAspect, "aspect", "", "Aspect ratio (16:9, 9:16, 1:1, 4:3, 3:4)")
	storyboardCmd.Flags().StringVarP(&storyboardOut, "out", "o", "", "Write the result as JSON to a file")
	rootCmd.AddCommand(storyboardCmd)
}

type storyboardOutput struct {
	Scenes []project.Scene `json:"scenes"`
	Images *imagen.Result  `json:"images,omitempty"`
}

func runStoryboard(cmd *cobra.Command, args []string) error {
	if storyboardTitle == "" {
		return errors.New("please provide --title")
	}

	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	service, err := app.BuildService(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	slog.Info("Generating storyboard...", "title", storyboardTitle)
	scenes, err := service.Synthesizer().Synthesize(ctx, storyboard.Params{
		Title:       storyboardTitle,
		Description: storyboardDescription,
	})
	if err != nil {
		return err
	}

	for _, scene := range scenes {
		slog.Info("Scene generated", "order", scene.Order, "title", scene.Title)
	}

	out := storyboardOutput{Scenes: scenes}

	if storyboardImages {
		model := resolveModel(cfg, storyboardModel)
		aspect := storyboardAspect
		if aspect == "" {
			aspect = cfg.Imagen.AspectRatio
		}

		slog.Info("Rendering images...", "model", model, "demo", service.Demo())
		result := service.Orchestrator().GenerateImages(ctx, scenes, model, aspect, 1)
		slog.Info("Image generation finished", "message", result.Message)
		for _, msg := range result.Errors {
			slog.Warn("Scene failed", "error", msg)
		}
		out.Images = &result
	}

	if storyboardOut != "" {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(storyboardOut, data, 0644); err != nil {
			return err
		}
		slog.Info("Storyboard written", "path", storyboardOut)
	}

	return nil
}

func resolveModel(cfg *config.Config, name string) string {
	switch name {
	case "ultra":
		return cfg.Imagen.UltraModel
	case "", "preview":
		return cfg.Imagen.PreviewModel
	default:
		return name
	}
}
