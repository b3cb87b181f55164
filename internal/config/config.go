package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Eventyay EventyayConfig
	Badge    BadgeConfig
	Printer  PrinterConfig
	Redis    RedisConfig
	Server   ServerConfig
}

type EventyayConfig struct {
	APIURL      string `mapstructure:"api_url"`
	DeviceToken string `mapstructure:"device_token"`
	Organizer   string `mapstructure:"organizer"`
	EventSlug   string `mapstructure:"event_slug"`
	TimeoutSec  int    `mapstructure:"timeout_sec"`
}

type BadgeConfig struct {
	PollAttempts   int `mapstructure:"poll_attempts"`
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
}

type PrinterConfig struct {
	Mode     string   `mapstructure:"mode"`
	Command  string   `mapstructure:"command"`
	Args     []string `mapstructure:"args"`
	SpoolDir string   `mapstructure:"spool_dir"`
	WorkDir  string   `mapstructure:"work_dir"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	Channel  string `mapstructure:"channel"`
}

type ServerConfig struct {
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

const (
	PrinterModeCommand = "command"
	PrinterModeSpool   = "spool"
)

// Timeout is the per-request HTTP timeout for the eventyay API.
func (c EventyayConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// PollInterval is the wait between badge fetch attempts.
func (c BadgeConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Load reads configuration from defaults, an optional YAML file and the
// environment (a .env file in the working directory is honored). When
// configFile is empty, config.yaml is looked up in . and /app.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// Defaults
	v.SetDefault("eventyay.timeout_sec", 30)
	v.SetDefault("badge.poll_attempts", 6)
	v.SetDefault("badge.poll_interval_ms", 1000)
	v.SetDefault("printer.mode", PrinterModeCommand)
	v.SetDefault("printer.command", "lp")
	v.SetDefault("redis.channel", "checkin:state")
	v.SetDefault("server.port", 8080)

	// Config file (optional unless given explicitly)
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/app")
		_ = v.ReadInConfig()
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit env bindings
	bindings := map[string]string{
		"eventyay.api_url":       "EVENTYAY_API_URL",
		"eventyay.device_token":  "EVENTYAY_DEVICE_TOKEN",
		"eventyay.organizer":     "EVENTYAY_ORGANIZER",
		"eventyay.event_slug":    "EVENTYAY_EVENT_SLUG",
		"eventyay.timeout_sec":   "EVENTYAY_TIMEOUT_SEC",
		"badge.poll_attempts":    "BADGE_POLL_ATTEMPTS",
		"badge.poll_interval_ms": "BADGE_POLL_INTERVAL_MS",
		"printer.mode":           "PRINTER_MODE",
		"printer.command":        "PRINTER_COMMAND",
		"printer.args":           "PRINTER_ARGS",
		"printer.spool_dir":      "PRINTER_SPOOL_DIR",
		"printer.work_dir":       "PRINTER_WORK_DIR",
		"redis.addr":             "REDIS_ADDR",
		"redis.password":         "REDIS_PASSWORD",
		"redis.channel":          "REDIS_CHANNEL",
		"server.port":            "PORT",
		"server.api_key":         "KIOSK_API_KEY",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	type req struct {
		val  string
		name string
	}
	for _, r := range []req{
		{c.Eventyay.APIURL, "EVENTYAY_API_URL"},
		{c.Eventyay.DeviceToken, "EVENTYAY_DEVICE_TOKEN"},
		{c.Eventyay.Organizer, "EVENTYAY_ORGANIZER"},
		{c.Eventyay.EventSlug, "EVENTYAY_EVENT_SLUG"},
	} {
		if r.val == "" {
			return fmt.Errorf("required config missing: %s", r.name)
		}
	}
	if c.Badge.PollAttempts < 1 {
		return fmt.Errorf("BADGE_POLL_ATTEMPTS must be at least 1")
	}
	if c.Badge.PollIntervalMs < 0 {
		return fmt.Errorf("BADGE_POLL_INTERVAL_MS must not be negative")
	}
	switch c.Printer.Mode {
	case PrinterModeCommand:
		if c.Printer.Command == "" {
			return fmt.Errorf("required config missing: PRINTER_COMMAND")
		}
	case PrinterModeSpool:
		if c.Printer.SpoolDir == "" {
			return fmt.Errorf("required config missing: PRINTER_SPOOL_DIR")
		}
	default:
		return fmt.Errorf("unknown PRINTER_MODE %q", c.Printer.Mode)
	}
	return nil
}
