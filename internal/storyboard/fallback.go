package storyboard

import (
	"fmt"

	"github.com/google/uuid"

	"adspark/internal/project"
)

var fallbackTemplates = []struct {
	title       string
	description string
}{
	{"Product Introduction", "Open with a bold shot that introduces %s and establishes the brand."},
	{"Lifestyle Context", "Show %s in an everyday setting where the target audience naturally uses it."},
	{"Key Benefits", "Highlight the standout benefits of %s with clear, focused visuals."},
	{"Call to Action", "Close with %s front and center and a direct invitation to act."},
}

// Fallback derives four scenes from the project title alone. Given the
// same title the titles and descriptions are identical across calls;
// only the ids are fresh.
func Fallback(title string) []project.Scene {
	if title == "" {
		title = "the product"
	}

	scenes := make([]project.Scene, len(fallbackTemplates))
	for i, tpl := range fallbackTemplates {
		scenes[i] = project.Scene{
			ID:          uuid.NewString(),
			Title:       tpl.title,
			Description: fmt.Sprintf(tpl.description, title),
			Order:       i + 1,
		}
	}
	return scenes
}
