package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetEnv(t *testing.T) {
	t.Helper()
	Reset()
	t.Cleanup(Reset)
	for _, name := range []string{
		"MERIDIAN_ENV", "MERIDIAN_DATABASE_URL", "MERIDIAN_REDIS_URL", "MERIDIAN_LOG_LEVEL",
		"MERIDIAN_OPENROUTER_API_KEY", "MERIDIAN_FRED_API_KEY",
		"MERIDIAN_SCHEDULER_TIMEZONE", "MERIDIAN_SCHEDULER_RSS_MINUTES",
		"MERIDIAN_SCHEDULER_DIGEST_HOUR",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	resetEnv(t)

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "local", s.Env)
	assert.Equal(t, defaultDatabaseURL, s.DatabaseURL)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, defaultOpenRouterModel, s.OpenRouterModel)
	assert.Equal(t, defaultFredBaseURL, s.FredBaseURL)
	assert.Empty(t, s.FredAPIKey)

	assert.Equal(t, "UTC", s.Scheduler.Timezone)
	assert.Equal(t, 15, s.Scheduler.RSSIntervalMinutes)
	assert.Equal(t, 1440, s.Scheduler.PricesIntervalMinutes)
	assert.Equal(t, 6, s.Scheduler.DigestHour)
	assert.Equal(t, 30, s.Scheduler.DigestMinute)
}

func TestLoadReadsEnvironment(t *testing.T) {
	resetEnv(t)
	t.Setenv("MERIDIAN_ENV", "production")
	t.Setenv("MERIDIAN_DATABASE_URL", "postgres://meridian@db:5432/meridian")
	t.Setenv("MERIDIAN_OPENROUTER_API_KEY", "sk-test")
	t.Setenv("MERIDIAN_SCHEDULER_TIMEZONE", "America/New_York")
	t.Setenv("MERIDIAN_SCHEDULER_RSS_MINUTES", "5")
	t.Setenv("MERIDIAN_SCHEDULER_DIGEST_HOUR", "7")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", s.Env)
	assert.Equal(t, "postgres://meridian@db:5432/meridian", s.DatabaseURL)
	assert.Equal(t, "sk-test", s.OpenRouterAPIKey)
	assert.Equal(t, "America/New_York", s.Scheduler.Timezone)
	assert.Equal(t, 5, s.Scheduler.RSSIntervalMinutes)
	assert.Equal(t, 7, s.Scheduler.DigestHour)
}

func TestEnvListSplitsAndTrims(t *testing.T) {
	t.Setenv("MERIDIAN_TELEGRAM_CHAT_IDS", " 12345 ,,67890")
	assert.Equal(t, []string{"12345", "67890"}, envList("MERIDIAN_TELEGRAM_CHAT_IDS"))

	t.Setenv("MERIDIAN_TELEGRAM_CHAT_IDS", "")
	assert.Nil(t, envList("MERIDIAN_TELEGRAM_CHAT_IDS"))
}

func TestLoadRejectsNonPostgresURL(t *testing.T) {
	resetEnv(t)
	t.Setenv("MERIDIAN_DATABASE_URL", "mysql://root@localhost/meridian")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid settings")
}

func TestLoadCachesSettings(t *testing.T) {
	resetEnv(t)

	first, err := Load()
	require.NoError(t, err)

	// Later environment changes are not observed until Reset.
	t.Setenv("MERIDIAN_ENV", "staging")
	second, err := Load()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, "local", second.Env)
}

func TestEnvIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("MERIDIAN_TEST_INT", "not-a-number")
	assert.Equal(t, 42, envInt("MERIDIAN_TEST_INT", 42))

	t.Setenv("MERIDIAN_TEST_INT", "17")
	assert.Equal(t, 17, envInt("MERIDIAN_TEST_INT", 42))
}
