package config

const (
	defaultConfigPath            = "~/.config/waybackfill/config.toml"
	projectConfigName            = "waybackfill.toml"
	defaultDatasetPath           = "data/upworthy_exploratory.csv"
	defaultOutputPath            = "data/wayback_urls.jsonl"
	defaultLogDir                = "~/.local/share/waybackfill/logs"
	defaultIndexURL              = "http://web.archive.org/cdx/search/cdx"
	defaultReplayBaseURL         = "http://web.archive.org"
	defaultSiteURL               = "https://www.upworthy.com"
	defaultUserAgent             = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"
	defaultRequestTimeoutSeconds = 30
	defaultRetryMultiplier       = 1
	defaultRetryMinDelay         = 4
	defaultRetryMaxDelay         = 10
	defaultRetryMaxAttempts      = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Dataset: defaultDatasetPath,
			Output:  defaultOutputPath,
			LogDir:  defaultLogDir,
		},
		Archive: Archive{
			IndexURL:              defaultIndexURL,
			ReplayBaseURL:         defaultReplayBaseURL,
			SiteURL:               defaultSiteURL,
			UserAgent:             defaultUserAgent,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Retry: Retry{
			MultiplierSeconds: defaultRetryMultiplier,
			MinDelaySeconds:   defaultRetryMinDelay,
			MaxDelaySeconds:   defaultRetryMaxDelay,
			MaxAttempts:       defaultRetryMaxAttempts,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
