package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for AdSpark",
	Long:  `Configure API keys and Google Cloud resources for AdSpark.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("✨ AdSpark Setup"))

	if _, err := os.Stat(".env"); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	env := make(map[string]string)

	if err := configureGeminiKey(env); err != nil {
		return err
	}
	if err := configureGCP(env); err != nil {
		return err
	}

	return writeEnvFile(env)
}

func configureGeminiKey(env map[string]string) error {
	var apiKey string
	if err := huh.NewInput().
		Title("Gemini API Key").
		Description("https://aistudio.google.com/apikey - required for chat and scene generation").
		EchoMode(huh.EchoModePassword).
		Value(&apiKey).
		Validate(required("Gemini API Key")).
		Run(); err != nil {
		return err
	}

	env["GEMINI_API_KEY"] = strings.TrimSpace(apiKey)
	return nil
}

func configureGCP(env map[string]string) error {
	var setupGCP bool
	if err := huh.NewConfirm().
		Title("Setup Google Cloud?").
		Description("Required for real image generation and persistence; skip for demo mode").
		Value(&setupGCP).
		Run(); err != nil {
		return err
	}

	if !setupGCP {
		fmt.Println(infoStyle.Render("Skipped: AdSpark will run in demo mode with placeholder images"))
		return nil
	}

	var projectID string
	if existing := getActiveProject(); existing != "" {
		projectID = existing
	}
	if err := huh.NewInput().
		Title("Google Cloud Project ID").
		Value(&projectID).
		Validate(required("Project ID")).
		Run(); err != nil {
		return err
	}
	env["GOOGLE_CLOUD_PROJECT_ID"] = strings.TrimSpace(projectID)

	if commandExists("gcloud") {
		if err := enableGCPAPIs(projectID); err != nil {
			fmt.Println(warnStyle.Render(fmt.Sprintf("API enablement failed: %v", err)))
		}
	} else {
		fmt.Println(warnStyle.Render("gcloud CLI not found - enable Vertex AI and Firestore APIs manually"))
	}

	if err := configureServiceAccount(env); err != nil {
		return err
	}
	if err := configureBucket(env); err != nil {
		return err
	}

	return nil
}

func configureServiceAccount(env map[string]string) error {
	var keyPath string
	if err := huh.NewInput().
		Title("Service account key file (optional)").
		Description("Path to a JSON key; leave empty to use application-default credentials").
		Value(&keyPath).
		Run(); err != nil {
		return err
	}

	keyPath = strings.TrimSpace(keyPath)
	if keyPath == "" {
		return nil
	}

	data, err := os.ReadFile(keyPath)
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Could not read key file: %v", err)))
		return nil
	}
	env["GOOGLE_SERVICE_ACCOUNT_KEY"] = string(bytes.TrimSpace(data))
	return nil
}

func configureBucket(env map[string]string) error {
	var bucket string
	if err := huh.NewInput().
		Title("Cloud Storage bucket (optional)").
		Description("For uploaded reference assets; leave empty to keep assets in memory").
		Value(&bucket).
		Run(); err != nil {
		return err
	}

	bucket = strings.TrimSpace(bucket)
	if bucket != "" {
		env["GCS_BUCKET"] = bucket
	}
	return nil
}

func enableGCPAPIs(project string) error {
	apis := []string{
		"aiplatform.googleapis.com",
		"firestore.googleapis.com",
		"secretmanager.googleapis.com",
		"storage.googleapis.com",
	}

	return runWithSpinner("Enabling APIs", func() error {
		args := append([]string{"services", "enable"}, apis...)
		args = append(args, "--project", project)
		return runSetupCmd("gcloud", args...)
	})
}

func getActiveProject() string {
	out, err := exec.Command("gcloud", "config", "get-value", "project").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func writeEnvFile(env map[string]string) error {
	f, err := os.Create(".env")
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	order := []string{
		"GEMINI_API_KEY",
		"GOOGLE_CLOUD_PROJECT_ID",
		"GOOGLE_SERVICE_ACCOUNT_KEY",
		"GCS_BUCKET",
	}

	for _, key := range order {
		if val, ok := env[key]; ok && val != "" {
			_, _ = fmt.Fprintf(f, "%s=%s\n", key, val)
		}
	}

	fmt.Println(successStyle.Render("✓ Created .env file"))
	printNextSteps()
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Run: adspark serve")
	fmt.Println("  2. Or try it once: adspark storyboard -t \"your campaign\" --images")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runSetupCmd(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s", err, stderr.String())
	}
	return nil
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}
