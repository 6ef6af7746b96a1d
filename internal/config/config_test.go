package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "uptrace-dsn=https://token@api.uptrace.dev/123")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev/123" {
		t.Fatalf("unexpected UptraceDSN: %q", cfg.UptraceDSN)
	}
}

func TestLoad_RequiresAtLeastOneSource(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UFC_ENABLED", "false")
	t.Setenv("TAPOLOGY_ENABLED", "false")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when all sources are disabled")
	}
}

func TestLoad_SourceURLValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UFC_ENABLED", "true")
	t.Setenv("UFC_EVENTS_URL", "not a url")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed UFC_EVENTS_URL")
	}
}

func TestLoad_SourceDefaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UFC_ENABLED", "")
	t.Setenv("TAPOLOGY_ENABLED", "")
	t.Setenv("TAPOLOGY_MAX_EVENTS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.Sources.UFCEnabled {
		t.Fatalf("expected UFCEnabled=true by default")
	}
	if cfg.Sources.TapologyEnabled {
		t.Fatalf("expected TapologyEnabled=false by default")
	}
	if cfg.Sources.TapologyMaxEvents != 5 {
		t.Fatalf("unexpected default TapologyMaxEvents: %d", cfg.Sources.TapologyMaxEvents)
	}
}

func TestLoad_RunTimeoutParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("default", func(t *testing.T) {
		t.Setenv("RUN_TIMEOUT", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.RunTimeout != 10*time.Minute {
			t.Fatalf("unexpected default run timeout: %s", cfg.RunTimeout)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Setenv("RUN_TIMEOUT", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid RUN_TIMEOUT")
		}
	})

	t.Run("non-positive", func(t *testing.T) {
		t.Setenv("RUN_TIMEOUT", "-1m")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for non-positive RUN_TIMEOUT")
		}
	})
}

func TestLoad_FetchConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("FETCH_TIMEOUT", "")
		t.Setenv("FETCH_MAX_RETRIES", "")
		t.Setenv("FETCH_REQUESTS_PER_SECOND", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.FetchTimeout != 20*time.Second {
			t.Fatalf("unexpected default fetch timeout: %s", cfg.FetchTimeout)
		}
		if cfg.FetchMaxRetries != 2 {
			t.Fatalf("unexpected default fetch retries: %d", cfg.FetchMaxRetries)
		}
		if cfg.FetchRequestsPerSecond != 1.0 {
			t.Fatalf("unexpected default fetch rps: %v", cfg.FetchRequestsPerSecond)
		}
	})

	t.Run("fractional rate", func(t *testing.T) {
		t.Setenv("FETCH_REQUESTS_PER_SECOND", "0.5")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.FetchRequestsPerSecond != 0.5 {
			t.Fatalf("unexpected fetch rps: %v", cfg.FetchRequestsPerSecond)
		}
	})

	t.Run("invalid rate", func(t *testing.T) {
		t.Setenv("FETCH_REQUESTS_PER_SECOND", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for zero FETCH_REQUESTS_PER_SECOND")
		}
	})
}

func TestLoad_AssetDelayDefaultsByEnv(t *testing.T) {
	t.Run("prod defaults to polite pacing", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvProd)
		t.Setenv("ASSET_INTER_REQUEST_DELAY", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.AssetInterRequestDelay != time.Second {
			t.Fatalf("unexpected prod asset delay: %s", cfg.AssetInterRequestDelay)
		}
	})

	t.Run("dev defaults to fast pacing", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDev)
		t.Setenv("ASSET_INTER_REQUEST_DELAY", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.AssetInterRequestDelay != 100*time.Millisecond {
			t.Fatalf("unexpected dev asset delay: %s", cfg.AssetInterRequestDelay)
		}
	})
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("APP_SERVICE_NAME", "fighting-tomatoes-scraper-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "fighting-tomatoes-scraper-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_DBDisablePreparedBinaryResultParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("default true", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.DBDisablePreparedBinary {
			t.Fatalf("expected DBDisablePreparedBinary=true by default")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "not-bool")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid DB_DISABLE_PREPARED_BINARY_RESULT")
		}
	})
}

func TestLoad_EnrichWorkersValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("ENRICH_WORKERS", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for ENRICH_WORKERS < 1")
	}
}
