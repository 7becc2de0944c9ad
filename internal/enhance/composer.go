package enhance

import (
	"context"
	"fmt"

	"adspark/internal/gemini"
	"adspark/pkg/prompts"
)

const defaultThinkingBudget = 2048

type Generator interface {
	Generate(ctx context.Context, req gemini.Request) (string, error)
}

// Composer forwards one freeform idea through the strategist analysis
// prompt. The reply is returned verbatim, no structured parsing.
type Composer struct {
	gen            Generator
	prompts        *prompts.Prompts
	thinkingBudget int
}

// NewComposer wires the generator. thinkingBudget biases the model
// toward deeper reasoning; zero selects the default, which is larger
// than the chat budget.
func NewComposer(gen Generator, p *prompts.Prompts, thinkingBudget int) *Composer {
	if thinkingBudget <= 0 {
		thinkingBudget = defaultThinkingBudget
	}
	return &Composer{gen: gen, prompts: p, thinkingBudget: thinkingBudget}
}

func (c *Composer) Enhance(ctx context.Context, idea, ideaContext string) (string, error) {
	prompt, err := c.prompts.RenderEnhance(prompts.EnhanceParams{
		Idea:    idea,
		Context: ideaContext,
	})
	if err != nil {
		return "", fmt.Errorf("render enhancement prompt: %w", err)
	}

	// One flat turn: the persona and checklist are part of the prompt
	// itself, not a system instruction.
	return c.gen.Generate(ctx, gemini.Request{
		Turns:          []gemini.Turn{{Role: "user", Content: prompt}},
		ThinkingBudget: c.thinkingBudget,
	})
}
