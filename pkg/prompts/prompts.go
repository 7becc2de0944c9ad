package prompts

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultPromptsPath = "prompts.yaml"

const defaultChatSystem = "You are a helpful AI assistant specializing in advertising and marketing. " +
	"Provide creative, insightful, and actionable advice for ad creation."

const defaultChatAck = "I understand. I'll help you with advertising and marketing advice."

const defaultScenesSystem = `You are a creative director planning an advertisement storyboard.
Respond with a JSON array of exactly 4 objects and nothing else. Each object must have
a "title" field (a short scene name) and a "description" field (a detailed visual
description suitable as an image generation prompt). The four scenes should tell a
complete story for the advertisement: introduce the product, show it in a lifestyle
context, highlight its key benefits, and close with a call to action.`

const defaultScenesUser = `Create the 4 storyboard scenes for this advertisement{{if .Regenerate}} (this is a regeneration, take a fresh angle){{end}}.

Product / campaign title: {{.Title}}
Campaign description: {{.Description}}
Uploaded reference assets: {{.AssetCount}}`

const defaultEnhance = `You are an expert advertising strategist and creative director. Your job is to help refine and enhance advertising ideas to make them more compelling, targeted, and effective.

When analyzing an advertising idea, consider:
1. Target audience demographics and psychographics
2. Unique value proposition and competitive advantages
3. Emotional triggers and psychological appeals
4. Clear call-to-action and desired outcomes
5. Brand positioning and messaging consistency
6. Platform-specific considerations (social media, video, print, etc.)
7. Budget and resource optimization
8. Measurable success metrics

Provide specific, actionable suggestions to improve the concept while maintaining the core creative vision.

Please analyze and enhance this advertising idea:

ORIGINAL IDEA: "{{.Idea}}"

{{if .Context}}ADDITIONAL CONTEXT: {{.Context}}{{end}}

Please provide:
1. A refined version of the idea with specific improvements
2. Target audience insights and recommendations
3. Key messaging suggestions
4. Platform and format recommendations
5. Potential challenges and solutions
6. Next steps for development

Be creative, strategic, and actionable in your response.`

type Prompts struct {
	Chat    ChatPrompts    `yaml:"chat"`
	Scenes  ScenePrompts   `yaml:"scenes"`
	Enhance EnhancePrompts `yaml:"enhance"`
}

type ChatPrompts struct {
	System string `yaml:"system"`
	Ack    string `yaml:"ack"`
}

type ScenePrompts struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type EnhancePrompts struct {
	Analyze string `yaml:"analyze"`
}

type SceneParams struct {
	Title       string
	Description string
	AssetCount  int
	Regenerate  bool
}

type EnhanceParams struct {
	Idea    string
	Context string
}

// Default returns the built-in prompt set.
func Default() *Prompts {
	return &Prompts{
		Chat:    ChatPrompts{System: defaultChatSystem, Ack: defaultChatAck},
		Scenes:  ScenePrompts{System: defaultScenesSystem, User: defaultScenesUser},
		Enhance: EnhancePrompts{Analyze: defaultEnhance},
	}
}

// Load returns the defaults, overlaid with prompts.yaml if one exists in the
// working directory.
func Load() (*Prompts, error) {
	p := Default()
	data, err := os.ReadFile(defaultPromptsPath)
	if err != nil {
		return p, nil
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	return p, nil
}

func LoadFrom(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	return p, nil
}

func (p *Prompts) RenderSceneUser(params SceneParams) (string, error) {
	return render(p.Scenes.User, params)
}

func (p *Prompts) RenderEnhance(params EnhanceParams) (string, error) {
	return render(p.Enhance.Analyze, params)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
