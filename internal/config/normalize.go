package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBilibili()
	c.normalizeTools()
	c.normalizeCorrector()
	c.normalizeExport()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.CredentialsPath, err = expandPath(c.Paths.CredentialsPath); err != nil {
		return fmt.Errorf("paths.credentials_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeBilibili() {
	c.Bilibili.BaseURL = strings.TrimRight(strings.TrimSpace(c.Bilibili.BaseURL), "/")
	if c.Bilibili.BaseURL == "" {
		c.Bilibili.BaseURL = defaultBilibiliBaseURL
	}
	if c.Bilibili.TimeoutSeconds <= 0 {
		c.Bilibili.TimeoutSeconds = defaultBilibiliTimeout
	}
	if c.Bilibili.PageSize <= 0 {
		c.Bilibili.PageSize = defaultBilibiliPageSize
	}
}

func (c *Config) normalizeTools() {
	c.Downloader.Binary = strings.TrimSpace(c.Downloader.Binary)
	if c.Downloader.Binary == "" {
		c.Downloader.Binary = defaultDownloaderBinary
	}
	if c.Downloader.TimeoutSeconds <= 0 {
		c.Downloader.TimeoutSeconds = defaultDownloaderTimeout
	}
	c.Whisper.Binary = strings.TrimSpace(c.Whisper.Binary)
	if c.Whisper.Binary == "" {
		c.Whisper.Binary = defaultWhisperBinary
	}
	c.Whisper.Model = strings.TrimSpace(c.Whisper.Model)
	if c.Whisper.Model == "" {
		c.Whisper.Model = defaultWhisperModel
	}
	if c.Whisper.TimeoutSeconds <= 0 {
		c.Whisper.TimeoutSeconds = defaultWhisperTimeout
	}
}

func (c *Config) normalizeCorrector() {
	c.Corrector.Provider = strings.ToLower(strings.TrimSpace(c.Corrector.Provider))
	if c.Corrector.Provider == "" {
		c.Corrector.Provider = defaultCorrectorProvider
	}
	c.Corrector.Model = strings.TrimSpace(c.Corrector.Model)
	if c.Corrector.Model == "" {
		c.Corrector.Model = defaultCorrectorModel
	}
	c.Corrector.BaseURL = strings.TrimRight(strings.TrimSpace(c.Corrector.BaseURL), "/")
	if c.Corrector.BaseURL == "" {
		switch c.Corrector.Provider {
		case "ollama":
			c.Corrector.BaseURL = defaultOllamaBaseURL
		case "deepseek":
			c.Corrector.BaseURL = defaultDeepSeekBaseURL
		}
	}
	if c.Corrector.APIKey == "" {
		c.Corrector.APIKey = strings.TrimSpace(os.Getenv("BILITEXT_LLM_API_KEY"))
	}
	if c.Corrector.TimeoutSeconds <= 0 {
		c.Corrector.TimeoutSeconds = defaultCorrectorTimeout
	}
}

func (c *Config) normalizeExport() {
	c.Export.PartialContentPolicy = strings.ToLower(strings.TrimSpace(c.Export.PartialContentPolicy))
	if c.Export.PartialContentPolicy == "" {
		c.Export.PartialContentPolicy = PartialSkip
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
