package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppConfig     *AppConfig
	AIConfig      *AIConfig
	BrowserConfig *BrowserConfig
}

type AppConfig struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type AIConfig struct {
	APIKey             string `envconfig:"OPENAI_API_KEY" required:"true"`
	Model              string `envconfig:"OPENAI_MODEL" default:"gpt-4o"`
	MaxIterations      int    `envconfig:"AGENT_MAX_ITERATIONS" default:"50"`
	MaxContextMessages int    `envconfig:"AGENT_MAX_CONTEXT_MESSAGES" default:"30"`
}

type BrowserConfig struct {
	Headless       bool   `envconfig:"BROWSER_HEADLESS" default:"false"`
	SlowMo         int    `envconfig:"BROWSER_SLOW_MO" default:"0"`
	Timeout        int    `envconfig:"BROWSER_TIMEOUT" default:"30000"`
	ExecutablePath string `envconfig:"PLAYWRIGHT_CHROMIUM_EXECUTABLE_PATH" default:""`
	UseScreenshots bool   `envconfig:"BROWSER_USE_SCREENSHOTS" default:"false"`
	ScreenshotDir  string `envconfig:"BROWSER_SCREENSHOT_DIR" default:"./screenshots"`
}

func GetConfig() (*Config, error) {
	_ = godotenv.Load()

	var conf Config

	if err := envconfig.Process("", &conf); err != nil {
		return nil, fmt.Errorf("read config from env vars: %w", err)
	}

	return &conf, nil
}
