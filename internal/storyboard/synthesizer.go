package storyboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"adspark/internal/gemini"
	"adspark/internal/project"
	"adspark/pkg/prompts"
)

const sceneCount = 4

// Matches the first bracketed array in a free-form model reply, across
// newlines; models habitually wrap JSON in prose or code fences.
var arrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

type Generator interface {
	Generate(ctx context.Context, req gemini.Request) (string, error)
}

// Synthesizer turns a project context into exactly four ordered scenes.
// The model path is best-effort; any failure falls back to a
// deterministic scene set so storyboard creation never stalls.
type Synthesizer struct {
	gen     Generator
	store   project.Store
	prompts *prompts.Prompts
	logger  *slog.Logger
}

type Params struct {
	ProjectID   string
	Title       string
	Description string
	AssetCount  int
	Regenerate  bool
}

type rawScene struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func NewSynthesizer(gen Generator, store project.Store, p *prompts.Prompts, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{gen: gen, store: store, prompts: p, logger: logger}
}

// Synthesize produces the scene set and, when params carry a project id,
// persists it with status in-progress. Only persistence can fail; the
// synthesis itself always yields four scenes.
func (s *Synthesizer) Synthesize(ctx context.Context, params Params) ([]project.Scene, error) {
	scenes := s.generate(ctx, params)

	if params.ProjectID != "" && s.store != nil {
		if err := s.store.UpdateScenes(ctx, params.ProjectID, scenes, project.StatusInProgress); err != nil {
			return nil, fmt.Errorf("persist scenes: %w", err)
		}
	}
	return scenes, nil
}

func (s *Synthesizer) generate(ctx context.Context, params Params) []project.Scene {
	userPrompt, err := s.prompts.RenderSceneUser(prompts.SceneParams{
		Title:       params.Title,
		Description: params.Description,
		AssetCount:  params.AssetCount,
		Regenerate:  params.Regenerate,
	})
	if err != nil {
		s.logger.Warn("scene prompt render failed, using fallback scenes", "error", err)
		return Fallback(params.Title)
	}

	text, err := s.gen.Generate(ctx, gemini.Request{
		SystemPrompt: s.prompts.Scenes.System,
		Turns:        []gemini.Turn{{Role: "user", Content: userPrompt}},
	})
	if err != nil {
		s.logger.Warn("scene generation failed, using fallback scenes", "error", err)
		return Fallback(params.Title)
	}

	raw, err := parseScenes(text)
	if err != nil {
		s.logger.Warn("scene reply unparsable, using fallback scenes", "error", err)
		return Fallback(params.Title)
	}
	if len(raw) < sceneCount {
		s.logger.Warn("scene reply too short, using fallback scenes", "got", len(raw))
		return Fallback(params.Title)
	}

	scenes := make([]project.Scene, sceneCount)
	for i, r := range raw[:sceneCount] {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = fmt.Sprintf("Scene %d", i+1)
		}
		description := strings.TrimSpace(r.Description)
		if description == "" {
			description = fmt.Sprintf("A key visual moment of the %s advertisement.", params.Title)
		}
		scenes[i] = project.Scene{
			ID:          uuid.NewString(),
			Title:       title,
			Description: description,
			Order:       i + 1,
		}
	}
	return scenes
}

func parseScenes(text string) ([]rawScene, error) {
	candidate := arrayPattern.FindString(text)
	if candidate == "" {
		candidate = strings.TrimSpace(text)
	}

	var raw []rawScene
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		return nil, fmt.Errorf("parse scene array: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty scene array")
	}
	return raw, nil
}
