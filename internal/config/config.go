package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"auction-engine/internal/engine"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned when a loaded value fails validation
var ErrInvalidConfig = errors.New("invalid configuration")

// AppConfig is the runtime configuration of the auction server
type AppConfig struct {
	HTTPAddr string

	StoreDriver string // memory | sqlite
	SQLitePath  string

	LotDuration    time.Duration
	MaxLotDuration time.Duration
	TickInterval   time.Duration

	EventBuffer int

	RedisAddr          string
	RedisDB            int
	RedisChannelPrefix string

	KafkaBrokers []string
	KafkaTopic   string

	RateLimitBids   int
	RateLimitWindow time.Duration

	LogLevel string
}

// Engine returns the engine timing parameters
func (c AppConfig) Engine() engine.Config {
	return engine.Config{
		LotDuration:    c.LotDuration,
		MaxLotDuration: c.MaxLotDuration,
		TickInterval:   c.TickInterval,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.sqlite_path", "auction.db")
	v.SetDefault("lot.duration", "10s")
	v.SetDefault("lot.max_duration_minutes", 10)
	v.SetDefault("engine.tick_interval", "250ms")
	v.SetDefault("events.buffer", 1024)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel_prefix", "auction")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "auction-events")
	v.SetDefault("ratelimit.bids", 20)
	v.SetDefault("ratelimit.window", "1s")
	v.SetDefault("log.level", "info")
}

func flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file")
	fs.String("http.addr", ":8080", "HTTP listen address")
	fs.String("store.driver", "memory", "store driver: memory or sqlite")
	fs.String("store.sqlite_path", "auction.db", "sqlite database file")
	fs.Duration("lot.duration", 10*time.Second, "countdown restored on every accepted bid")
	fs.Int("lot.max_duration_minutes", 10, "hard ceiling on a lot's live time in minutes, 0 disables it")
	fs.Duration("engine.tick_interval", 250*time.Millisecond, "scheduler tick")
	fs.Int("events.buffer", 1024, "event dispatcher queue size")
	fs.String("redis.addr", "", "redis address, empty disables redis")
	fs.Int("redis.db", 0, "redis database")
	fs.String("redis.channel_prefix", "auction", "pub/sub channel prefix")
	fs.StringSlice("kafka.brokers", nil, "kafka brokers, empty disables the event log")
	fs.String("kafka.topic", "auction-events", "kafka topic for auction events")
	fs.Int("ratelimit.bids", 20, "bids per bidder per window, 0 disables the limit")
	fs.Duration("ratelimit.window", time.Second, "rate limit window")
	fs.String("log.level", "info", "log level")
	return fs
}

// Load reads configuration from flags, AUCTION_* environment variables and an optional YAML file.
// Flags win over the environment, the environment wins over the file.
func Load(args []string) (AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	fs := flags("auction-engine")
	if err := fs.Parse(args); err != nil {
		return AppConfig{}, fmt.Errorf("config: parse flags: %w", err)
	}
	fs.VisitAll(func(f *pflag.Flag) {
		// only flags given on the command line override lower layers
		if f.Changed {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	v.SetEnvPrefix("AUCTION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, _ := fs.GetString("config")
	if path == "" {
		path = v.GetString("config")
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return AppConfig{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := AppConfig{
		HTTPAddr:           v.GetString("http.addr"),
		StoreDriver:        strings.ToLower(v.GetString("store.driver")),
		SQLitePath:         v.GetString("store.sqlite_path"),
		LotDuration:        v.GetDuration("lot.duration"),
		MaxLotDuration:     time.Duration(v.GetInt("lot.max_duration_minutes")) * time.Minute,
		TickInterval:       v.GetDuration("engine.tick_interval"),
		EventBuffer:        v.GetInt("events.buffer"),
		RedisAddr:          v.GetString("redis.addr"),
		RedisDB:            v.GetInt("redis.db"),
		RedisChannelPrefix: v.GetString("redis.channel_prefix"),
		KafkaBrokers:       brokers(v.GetStringSlice("kafka.brokers")),
		KafkaTopic:         v.GetString("kafka.topic"),
		RateLimitBids:      v.GetInt("ratelimit.bids"),
		RateLimitWindow:    v.GetDuration("ratelimit.window"),
		LogLevel:           v.GetString("log.level"),
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// brokers accepts both list values and a single comma separated env value
func brokers(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		for _, b := range strings.Split(r, ",") {
			if b = strings.TrimSpace(b); b != "" {
				out = append(out, b)
			}
		}
	}
	return out
}

// Validate checks the loaded values for consistency
func (c AppConfig) Validate() error {
	switch {
	case c.HTTPAddr == "":
		return fmt.Errorf("config: %w - http.addr is empty", ErrInvalidConfig)
	case c.StoreDriver != "memory" && c.StoreDriver != "sqlite":
		return fmt.Errorf("config: %w - unknown store driver %q", ErrInvalidConfig, c.StoreDriver)
	case c.StoreDriver == "sqlite" && c.SQLitePath == "":
		return fmt.Errorf("config: %w - store.sqlite_path is empty", ErrInvalidConfig)
	case c.LotDuration <= 0:
		return fmt.Errorf("config: %w - lot.duration must be positive", ErrInvalidConfig)
	case c.MaxLotDuration < 0:
		return fmt.Errorf("config: %w - lot.max_duration_minutes must not be negative", ErrInvalidConfig)
	case c.MaxLotDuration > 0 && c.MaxLotDuration < c.LotDuration:
		return fmt.Errorf("config: %w - lot ceiling %s below lot duration %s", ErrInvalidConfig, c.MaxLotDuration, c.LotDuration)
	case c.TickInterval <= 0:
		return fmt.Errorf("config: %w - engine.tick_interval must be positive", ErrInvalidConfig)
	case c.EventBuffer <= 0:
		return fmt.Errorf("config: %w - events.buffer must be positive", ErrInvalidConfig)
	case c.RateLimitBids < 0:
		return fmt.Errorf("config: %w - ratelimit.bids must not be negative", ErrInvalidConfig)
	case c.RateLimitBids > 0 && c.RateLimitWindow <= 0:
		return fmt.Errorf("config: %w - ratelimit.window must be positive", ErrInvalidConfig)
	case len(c.KafkaBrokers) > 0 && c.KafkaTopic == "":
		return fmt.Errorf("config: %w - kafka.topic is empty", ErrInvalidConfig)
	}
	return nil
}
