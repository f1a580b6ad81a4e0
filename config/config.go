package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Port   string `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"bestdeal.db"`

	// Sites to fan each query across, by registry ID
	Sites []string `env:"SITES" envSeparator:"," envDefault:"amazon-eg,noon-eg,carrefour-eg"`

	// Matching configuration
	Match struct {
		// Minimum similarity score for two listings to join the same cluster
		Threshold float64 `env:"MATCH_THRESHOLD" envDefault:"0.5"`

		// Score ceiling when model hints disagree
		ConflictCap float64 `env:"MATCH_CONFLICT_CAP" envDefault:"0.4"`
	}

	// Fetching configuration
	Fetch struct {
		// Maximum number of fetch attempts per site before giving up
		MaxAttempts int `env:"FETCH_MAX_ATTEMPTS" envDefault:"3"`

		// Delay before the first retry; doubles on each subsequent attempt
		BaseDelay time.Duration `env:"FETCH_BASE_DELAY" envDefault:"2s"`

		// Run the browser headless
		Headless bool `env:"FETCH_HEADLESS" envDefault:"true"`
	}

	// Pipeline configuration
	Pipeline struct {
		// Buffer size of the comparison job queue
		QueueBuffer int `env:"QUEUE_BUFFER" envDefault:"32"`

		// Number of concurrent job processors
		ProcessorCount int `env:"PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed jobs
		MaxRetries int `env:"PROCESS_MAX_RETRIES" envDefault:"3"`

		// Delay between retries
		RetryDelay time.Duration `env:"PROCESS_RETRY_DELAY" envDefault:"5s"`

		// Interval between automatic re-checks of stored products; 0 disables
		RecheckInterval time.Duration `env:"RECHECK_INTERVAL" envDefault:"0"`
	}

	// Telegram deal notifications; disabled when the token is empty
	Telegram struct {
		BotToken string `env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `env:"TELEGRAM_CHAT_ID"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
