package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	conf, err := GetConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", conf.AppConfig.LogLevel)
	assert.Equal(t, "sk-test", conf.AIConfig.APIKey)
	assert.Equal(t, "gpt-4o", conf.AIConfig.Model)
	assert.Equal(t, 50, conf.AIConfig.MaxIterations)
	assert.Equal(t, 30, conf.AIConfig.MaxContextMessages)
	assert.Equal(t, 30000, conf.BrowserConfig.Timeout)
}

func TestGetConfigOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("BROWSER_HEADLESS", "true")
	t.Setenv("AGENT_MAX_ITERATIONS", "5")

	conf, err := GetConfig()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", conf.AIConfig.Model)
	assert.True(t, conf.BrowserConfig.Headless)
	assert.Equal(t, 5, conf.AIConfig.MaxIterations)
}
