// batchspoof/config/config_test.go
package config_test

import (
	"reflect"
	"testing"
	"time"

	"batchspoof/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("loads default values correctly", func(t *testing.T) {
		// Empty values are ignored by viper, so these clear anything lingering.
		t.Setenv("BATCHSPOOF_PORT", "")
		t.Setenv("BATCHSPOOF_MAX_ATTEMPTS", "")
		t.Setenv("BATCHSPOOF_RETRY_DELAY", "")
		t.Setenv("BATCHSPOOF_THROTTLE_FREEDISK", "")
		t.Setenv("BATCHSPOOF_AUTH_ENABLE", "")

		cfg, err := config.Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)

		def := config.Default()
		assert.Equal(t, def.Port, cfg.Port)
		assert.Equal(t, 3, cfg.MaxAttempts)
		assert.Equal(t, time.Second, cfg.RetryDelay)
		assert.Equal(t, 500*time.Millisecond, cfg.PausePoll)
		assert.Equal(t, "ffmpeg", cfg.FFBin)
		assert.Equal(t, "ffprobe", cfg.FFProbeBin)
		assert.Equal(t, "128k", cfg.AudioBitrate)
		assert.Equal(t, int64(200*1024*1024), cfg.ThrottleFreeDisk)
		assert.False(t, cfg.AuthEnable)
	})

	t.Run("load without overrides equals Default", func(t *testing.T) {
		typ := reflect.TypeOf(config.Config{})
		for i := 0; i < typ.NumField(); i++ {
			t.Setenv("BATCHSPOOF_"+typ.Field(i).Tag.Get("mapstructure"), "")
		}

		cfg, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, config.Default(), cfg)
	})

	t.Run("overrides defaults with environment variables", func(t *testing.T) {
		t.Setenv("BATCHSPOOF_PORT", "9999")
		t.Setenv("BATCHSPOOF_MAX_ATTEMPTS", "5")
		t.Setenv("BATCHSPOOF_RETRY_DELAY", "250ms")
		t.Setenv("BATCHSPOOF_THROTTLE_FREEDISK", "1GB")
		t.Setenv("BATCHSPOOF_AUTH_ENABLE", "true")
		t.Setenv("BATCHSPOOF_AUTH_KEY", "newsecret")
		t.Setenv("BATCHSPOOF_EXTRA_ARGS", "-preset veryfast")

		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, "9999", cfg.Port)
		assert.Equal(t, 5, cfg.MaxAttempts)
		assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
		assert.Equal(t, int64(1024*1024*1024), cfg.ThrottleFreeDisk)
		assert.True(t, cfg.AuthEnable)
		assert.Equal(t, "newsecret", cfg.AuthKey)
		assert.Equal(t, "-preset veryfast", cfg.ExtraArgs)
	})

	t.Run("clamps attempts to at least one", func(t *testing.T) {
		t.Setenv("BATCHSPOOF_MAX_ATTEMPTS", "0")

		cfg, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, 1, cfg.MaxAttempts)
	})
}
