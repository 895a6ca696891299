package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, "memory", cfg.StoreDriver)
	require.Equal(t, 10*time.Second, cfg.LotDuration)
	require.Equal(t, 10*time.Minute, cfg.MaxLotDuration)
	require.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	require.Empty(t, cfg.KafkaBrokers)
	require.Empty(t, cfg.RedisAddr)
	require.Equal(t, "info", cfg.LogLevel)

	ec := cfg.Engine()
	require.Equal(t, cfg.LotDuration, ec.LotDuration)
	require.Equal(t, cfg.MaxLotDuration, ec.MaxLotDuration)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load([]string{
		"--http.addr=:9090",
		"--store.driver=SQLITE",
		"--store.sqlite_path=/tmp/a.db",
		"--lot.duration=15s",
		"--lot.max_duration_minutes=0",
		"--kafka.brokers=k1:9092,k2:9092",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.Equal(t, "sqlite", cfg.StoreDriver)
	require.Equal(t, 15*time.Second, cfg.LotDuration)
	require.Zero(t, cfg.MaxLotDuration, "zero disables the ceiling")
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_EnvAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":7070"
lot:
  duration: 20s
redis:
  addr: "localhost:6379"
log:
  level: debug
`), 0o600))

	t.Setenv("AUCTION_CONFIG", path)
	t.Setenv("AUCTION_LOG_LEVEL", "warn")
	t.Setenv("AUCTION_KAFKA_BROKERS", "b1:9092,b2:9092")

	cfg, err := Load([]string{"--http.addr=:6060"})
	require.NoError(t, err)
	require.Equal(t, ":6060", cfg.HTTPAddr, "flags win over the file")
	require.Equal(t, 20*time.Second, cfg.LotDuration)
	require.Equal(t, "localhost:6379", cfg.RedisAddr)
	require.Equal(t, "warn", cfg.LogLevel, "environment wins over the file")
	require.Equal(t, []string{"b1:9092", "b2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load([]string{"--no-such-flag"})
	require.Error(t, err)

	_, err = Load([]string{"--config=/does/not/exist.yaml"})
	require.Error(t, err)

	_, err = Load([]string{"--store.driver=postgres"})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestAppConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := func() AppConfig {
		return AppConfig{
			HTTPAddr:        ":8080",
			StoreDriver:     "memory",
			LotDuration:     10 * time.Second,
			MaxLotDuration:  10 * time.Minute,
			TickInterval:    time.Second,
			EventBuffer:     16,
			RateLimitBids:   5,
			RateLimitWindow: time.Second,
			KafkaTopic:      "events",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{name: "no_ceiling", mutate: func(c *AppConfig) { c.MaxLotDuration = 0 }},
		{name: "rate_limit_disabled", mutate: func(c *AppConfig) { c.RateLimitBids, c.RateLimitWindow = 0, 0 }},
		{name: "empty_addr", mutate: func(c *AppConfig) { c.HTTPAddr = "" }, wantErr: true},
		{name: "unknown_driver", mutate: func(c *AppConfig) { c.StoreDriver = "mongo" }, wantErr: true},
		{name: "sqlite_without_path", mutate: func(c *AppConfig) { c.StoreDriver = "sqlite" }, wantErr: true},
		{name: "zero_duration", mutate: func(c *AppConfig) { c.LotDuration = 0 }, wantErr: true},
		{name: "ceiling_below_duration", mutate: func(c *AppConfig) { c.MaxLotDuration = 5 * time.Second }, wantErr: true},
		{name: "zero_tick", mutate: func(c *AppConfig) { c.TickInterval = 0 }, wantErr: true},
		{name: "zero_buffer", mutate: func(c *AppConfig) { c.EventBuffer = 0 }, wantErr: true},
		{name: "limit_without_window", mutate: func(c *AppConfig) { c.RateLimitWindow = 0 }, wantErr: true},
		{
			name: "brokers_without_topic",
			mutate: func(c *AppConfig) {
				c.KafkaBrokers = []string{"k:9092"}
				c.KafkaTopic = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}
