package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"bilitext/internal/bili"
	"bilitext/internal/config"
	"bilitext/internal/credentials"
	"bilitext/internal/credentials/browser"
	"bilitext/internal/logging"
	"bilitext/internal/pipeline"
	"bilitext/internal/resolver"
	"bilitext/internal/services/corrector"
	"bilitext/internal/services/whisper"
	"bilitext/internal/services/ytdlp"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		// Secrets like the LLM API key may live in a local .env file.
		_ = godotenv.Load()

		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

func (c *commandContext) loggerValue() *slog.Logger {
	if c.logger == nil {
		return logging.NewNop()
	}
	return c.logger
}

// platformClient builds the API client, attaching the given cookies when
// present.
func (c *commandContext) platformClient(cookies map[string]string) (*bili.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := bili.New(cfg.Bilibili.BaseURL,
		bili.WithPageSize(cfg.Bilibili.PageSize),
		bili.WithTimeout(time.Duration(cfg.Bilibili.TimeoutSeconds)*time.Second))
	if err != nil {
		return nil, err
	}
	if len(cookies) > 0 {
		client.SetCookies(cookies)
	}
	return client, nil
}

func (c *commandContext) credentialStore() (*credentials.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return credentials.NewStore(cfg.Paths.CredentialsPath, c.loggerValue()), nil
}

// resolveCredentials fetches cookies for the named browser (cache first) and
// materializes a cookie jar for downloader runs. An empty browser name means
// anonymous: no cookies, no jar.
func (c *commandContext) resolveCredentials(browserName string, forceRefresh bool) (map[string]string, string, error) {
	if strings.TrimSpace(browserName) == "" {
		return nil, "", nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, "", err
	}
	store, err := c.credentialStore()
	if err != nil {
		return nil, "", err
	}
	extractor, err := browser.ForName(browserName)
	if err != nil {
		return nil, "", err
	}
	cookies, err := store.Cookies(browserName, extractor, forceRefresh)
	if err != nil {
		return nil, "", err
	}
	if len(cookies) == 0 {
		return nil, "", fmt.Errorf("no usable session cookies found in %s; log in to bilibili.com there first", browserName)
	}
	jar, err := store.CookieJar(cfg.Paths.WorkDir, browserName, cookies)
	if err != nil {
		return nil, "", err
	}
	return cookies, jar, nil
}

// buildPipeline assembles the resolver chain and optional corrector.
func (c *commandContext) buildPipeline(client *bili.Client) (*pipeline.Coordinator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.loggerValue()

	downloadService := ytdlp.NewService(cfg.Downloader.Binary,
		time.Duration(cfg.Downloader.TimeoutSeconds)*time.Second, logger)
	transcribeService := whisper.NewService(cfg.Whisper.Binary, cfg.Whisper.Model,
		time.Duration(cfg.Whisper.TimeoutSeconds)*time.Second, logger)

	resolvers := []resolver.Resolver{
		resolver.NewAPI(client, logger),
		resolver.NewDownloader(downloadService, logger),
		resolver.NewASR(downloadService, transcribeService, logger),
	}

	var fixer *corrector.Corrector
	if cfg.Corrector.Enabled {
		provider, err := buildProvider(cfg.Corrector)
		if err != nil {
			return nil, err
		}
		fixer = corrector.New(provider, logger)
	}

	return pipeline.New(pipeline.Options{
		Resolvers:            resolvers,
		Corrector:            fixer,
		WorkRoot:             cfg.Paths.WorkDir,
		PartialContentPolicy: cfg.Export.PartialContentPolicy,
		Logger:               logger,
	})
}

func buildProvider(cfg config.Corrector) (corrector.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "ollama":
		return corrector.NewOllamaClient(cfg.BaseURL, cfg.Model, cfg.TimeoutSeconds), nil
	default:
		return corrector.NewChatClient(corrector.ChatConfig{
			Provider:       cfg.Provider,
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Model,
			TimeoutSeconds: cfg.TimeoutSeconds,
		})
	}
}
