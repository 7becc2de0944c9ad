package imagen

import (
	"encoding/base64"
	"fmt"

	"adspark/internal/project"
)

const demoSVG = `<svg width="800" height="450" xmlns="http://www.w3.org/2000/svg">
  <defs>
    <linearGradient id="grad" x1="0%%" y1="0%%" x2="100%%" y2="100%%">
      <stop offset="0%%" style="stop-color:#3b82f6;stop-opacity:1" />
      <stop offset="100%%" style="stop-color:#1e40af;stop-opacity:1" />
    </linearGradient>
  </defs>
  <rect width="100%%" height="100%%" fill="url(#grad)"/>
  <text x="50%%" y="40%%" text-anchor="middle" fill="white" font-family="Arial" font-size="24" font-weight="bold">%s</text>
  <text x="50%%" y="60%%" text-anchor="middle" fill="#e2e8f0" font-family="Arial" font-size="14">%s (Demo Mode)</text>
  <text x="50%%" y="75%%" text-anchor="middle" fill="#cbd5e1" font-family="Arial" font-size="12">Set up Google Cloud authentication for real generation</text>
</svg>`

const errorSVG = `<svg width="800" height="450" xmlns="http://www.w3.org/2000/svg">
  <rect width="100%%" height="100%%" fill="#ef4444"/>
  <text x="50%%" y="40%%" text-anchor="middle" fill="white" font-family="Arial" font-size="18">Generation Failed: %s</text>
  <text x="50%%" y="60%%" text-anchor="middle" fill="white" font-family="Arial" font-size="12">%s</text>
</svg>`

// DemoPlaceholder is the image substituted for every scene when no
// backend project is configured.
func DemoPlaceholder(scene project.Scene, model string) Image {
	svg := fmt.Sprintf(demoSVG, scene.Title, model)
	return placeholderImage(scene, svg)
}

// ErrorPlaceholder is the image substituted for a single scene whose
// generation failed after all retries.
func ErrorPlaceholder(scene project.Scene, quota bool) Image {
	reason := "API Error"
	if quota {
		reason = "Quota Exceeded"
	}
	svg := fmt.Sprintf(errorSVG, scene.Title, reason)
	return placeholderImage(scene, svg)
}

func placeholderImage(scene project.Scene, svg string) Image {
	return Image{
		SceneID:  scene.ID,
		ImageURL: "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg)),
		MimeType: "image/svg+xml",
		Prompt:   scene.Description,
	}
}
