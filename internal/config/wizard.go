package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to the given path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to perch! Let's configure your bot.")
	fmt.Println()

	cfg := DefaultConfig()

	consumerKey, err := (&promptui.Prompt{Label: "Consumer key"}).Run()
	if err != nil {
		return nil, fmt.Errorf("consumer key prompt: %w", err)
	}
	cfg.ConsumerKey = consumerKey

	consumerSecret, err := (&promptui.Prompt{Label: "Consumer secret", Mask: '*'}).Run()
	if err != nil {
		return nil, fmt.Errorf("consumer secret prompt: %w", err)
	}
	cfg.ConsumerSecret = consumerSecret

	_, modelStr, err := (&promptui.Select{
		Label: "Reply model",
		Items: []string{"gpt-4o-mini", "gpt-4o", "gpt-4"},
	}).Run()
	if err != nil {
		return nil, fmt.Errorf("model selection: %w", err)
	}
	cfg.Model = modelStr

	interval, err := (&promptui.Prompt{
		Label:   "Poll interval (seconds)",
		Default: strconv.Itoa(cfg.PollInterval),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return fmt.Errorf("must be a positive integer")
			}
			return nil
		},
	}).Run()
	if err != nil {
		return nil, fmt.Errorf("poll interval prompt: %w", err)
	}
	cfg.PollInterval, _ = strconv.Atoi(interval)

	githubUser, err := (&promptui.Prompt{
		Label:   "GitHub user to announce commits for (empty to disable)",
		Default: "",
	}).Run()
	if err != nil {
		return nil, fmt.Errorf("github user prompt: %w", err)
	}
	cfg.GitHubUser = githubUser

	if err := cfg.Save(path); err != nil {
		return nil, err
	}
	fmt.Printf("\nConfiguration written to %s.\n", path)
	fmt.Println("Run `perch auth` next to obtain access credentials.")

	return cfg, nil
}
