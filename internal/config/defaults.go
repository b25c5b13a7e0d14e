package config

const (
	defaultWorkDir           = "~/.local/share/bilitext/videos"
	defaultLogDir            = "~/.local/share/bilitext/logs"
	defaultCredentialsPath   = "~/.config/bilitext/credentials.json"
	defaultBilibiliBaseURL   = "https://api.bilibili.com"
	defaultBilibiliTimeout   = 15
	defaultBilibiliPageSize  = 30
	defaultDownloaderBinary  = "yt-dlp"
	defaultDownloaderTimeout = 600
	defaultWhisperBinary     = "whisper"
	defaultWhisperModel      = "medium"
	defaultWhisperTimeout    = 1800
	defaultCorrectorProvider = "openai"
	defaultCorrectorModel    = "gpt-4.1-nano"
	defaultCorrectorTimeout  = 120
	defaultOllamaBaseURL     = "http://localhost:11434"
	defaultDeepSeekBaseURL   = "https://api.deepseek.com"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:         defaultWorkDir,
			LogDir:          defaultLogDir,
			CredentialsPath: defaultCredentialsPath,
		},
		Bilibili: Bilibili{
			BaseURL:        defaultBilibiliBaseURL,
			TimeoutSeconds: defaultBilibiliTimeout,
			PageSize:       defaultBilibiliPageSize,
		},
		Downloader: Downloader{
			Binary:         defaultDownloaderBinary,
			TimeoutSeconds: defaultDownloaderTimeout,
		},
		Whisper: Whisper{
			Binary:         defaultWhisperBinary,
			Model:          defaultWhisperModel,
			TimeoutSeconds: defaultWhisperTimeout,
		},
		Corrector: Corrector{
			Enabled:        true,
			Provider:       defaultCorrectorProvider,
			Model:          defaultCorrectorModel,
			TimeoutSeconds: defaultCorrectorTimeout,
		},
		Export: Export{
			PartialContentPolicy: PartialSkip,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
