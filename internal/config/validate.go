package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for values the pipeline cannot work with.
func (c *Config) Validate() error {
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	if c.Paths.CredentialsPath == "" {
		return errors.New("paths.credentials_path must be set")
	}
	if err := c.validateCorrector(); err != nil {
		return err
	}
	return c.validateExport()
}

func (c *Config) validateCorrector() error {
	switch c.Corrector.Provider {
	case "openai", "deepseek", "ollama":
	default:
		return fmt.Errorf("corrector.provider: unsupported value %q (expected openai, deepseek, or ollama)", c.Corrector.Provider)
	}
	if c.Corrector.Provider == "ollama" {
		return nil
	}
	if c.Corrector.Enabled && c.Corrector.APIKey == "" {
		return fmt.Errorf("corrector.api_key required for provider %q (set BILITEXT_LLM_API_KEY or disable correction)", c.Corrector.Provider)
	}
	return nil
}

func (c *Config) validateExport() error {
	switch c.Export.PartialContentPolicy {
	case PartialSkip, PartialForce, PartialPrompt:
		return nil
	default:
		return fmt.Errorf("export.partial_content_policy: unsupported value %q (expected skip, force, or prompt)", c.Export.PartialContentPolicy)
	}
}
