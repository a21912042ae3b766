package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .stockrag.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to stockrag! Let's configure your pipeline.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Embedding provider.
	providerPrompt := promptui.Select{
		Label: "Select embedding provider",
		Items: []string{"clova", "openai"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Data directories.
	dailyData, err := promptString("Daily corpus data directory", cfg.Stores.Daily.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.Stores.Daily.DataDir = dailyData

	followupData, err := promptString("Follow-up corpus data directory", cfg.Stores.Followup.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.Stores.Followup.DataDir = followupData

	// 3. Request delay.
	delayStr, err := promptString("Seconds to wait between embedding calls", strconv.Itoa(cfg.Embedding.RequestDelaySeconds))
	if err != nil {
		return nil, err
	}
	delay, err := strconv.Atoi(delayStr)
	if err != nil || delay < 0 {
		return nil, fmt.Errorf("invalid delay %q", delayStr)
	}
	cfg.Embedding.RequestDelaySeconds = delay

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("wizard produced invalid config: %w", err)
	}

	if err := cfg.Save(".stockrag.yml"); err != nil {
		return nil, err
	}
	fmt.Println("\nConfiguration saved to .stockrag.yml")

	return cfg, nil
}

func promptString(label, def string) (string, error) {
	p := promptui.Prompt{
		Label:   label,
		Default: def,
	}
	v, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("%s: %w", label, err)
	}
	return v, nil
}
