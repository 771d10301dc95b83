package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	unsetEnvWithCleanup(t, "PORT")
	unsetEnvWithCleanup(t, "REDIS_RATE_LIMIT_PREFIX")
	unsetEnvWithCleanup(t, "WITHDRAWAL_RATE_LIMIT_PER_MINUTE")
	unsetEnvWithCleanup(t, "DEFAULT_WITHDRAWAL_CURRENCY")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default ServerPort 8080, got %q", cfg.ServerPort)
	}
	if cfg.RedisRateLimitPrefix != "funding:rate_limit" {
		t.Fatalf("expected default rate limit prefix, got %q", cfg.RedisRateLimitPrefix)
	}
	if cfg.WithdrawalRateLimitPerMinute != 10 {
		t.Fatalf("expected default withdrawal rate limit 10, got %d", cfg.WithdrawalRateLimitPerMinute)
	}
	if cfg.DefaultWithdrawalCurrency != "USD" {
		t.Fatalf("expected default withdrawal currency USD, got %q", cfg.DefaultWithdrawalCurrency)
	}
}

func TestLoadConfig_PortEnvOverridesServerPort(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "8080")
	setEnvWithCleanup(t, "PORT", "9090")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Fatalf("expected PORT to override SERVER_PORT, got %q", cfg.ServerPort)
	}
}

func TestLoadConfig_NegativeWithdrawalRateLimitCoercedToZero(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "WITHDRAWAL_RATE_LIMIT_PER_MINUTE", "-5")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.WithdrawalRateLimitPerMinute != 0 {
		t.Fatalf("expected negative rate limit coerced to 0, got %d", cfg.WithdrawalRateLimitPerMinute)
	}
}

func TestLoadConfig_CurrencyIsNormalizedToUpperCase(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "DEFAULT_WITHDRAWAL_CURRENCY", " eur ")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DefaultWithdrawalCurrency != "EUR" {
		t.Fatalf("expected currency normalized to EUR, got %q", cfg.DefaultWithdrawalCurrency)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
