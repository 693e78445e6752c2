package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"EngineGate/pkg/util"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development" validate:"required"`
	Server      ServerConfig     `yaml:"server"`
	Log         LogConfig        `yaml:"log"`
	Webhook     WebhookConfig    `yaml:"webhook"`
	Audit       AuditConfig      `yaml:"audit"`
	State       StateConfig      `yaml:"state"`
	Rules       RulesConfig      `yaml:"rules"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Telegram    TelegramConfig   `yaml:"telegram"`
	Relay       RelayConfig      `yaml:"relay"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8000" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	BodyLimit       string        `yaml:"body_limit" default:"1M"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout"`
}

type WebhookConfig struct {
	Path string `yaml:"path" default:"/tv" validate:"startswith=/"`
	// Secret is shared with alert senders. Empty means every delivery is refused.
	Secret            string   `yaml:"secret"`
	EngineLock        bool     `yaml:"engine_lock" default:"true"`
	Timezone          string   `yaml:"timezone" default:"America/Montreal"`
	KnownEngines      []string `yaml:"known_engines" default:"[\"COINM_SHORT\",\"USDTM_LONG\",\"GOLD_CFD_LONG\",\"TV_TEST\",\"NGROK_TEST\"]" validate:"min=1"`
	AggressiveEngines []string `yaml:"aggressive_engines" default:"[\"COINM_SHORT\",\"USDTM_LONG\"]"`
}

type AuditConfig struct {
	RawLogPath  string `yaml:"raw_log_path" default:"/opt/trading/logs/tv_webhooks.jsonl" validate:"required"`
	JournalPath string `yaml:"journal_path" default:"/opt/trading/journal.md" validate:"required"`
	Kafka       struct {
		Enabled bool   `yaml:"enabled"`
		Topic   string `yaml:"topic" default:"enginegate.audit"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled bool   `yaml:"enabled"`
		Table   string `yaml:"table" default:"webhook_raw"`
	} `yaml:"clickhouse"`
}

type StateConfig struct {
	Backend string `yaml:"backend" default:"file" validate:"oneof=file redis"`
	Path    string `yaml:"path" default:"/opt/trading/state/router_state.json"`
	Redis   struct {
		Addr        string `yaml:"addr" default:"localhost:6379"`
		Password    string `yaml:"password"`
		DB          int    `yaml:"db"`
		Key         string `yaml:"key" default:"enginegate:router_state"`
		MaxAttempts int    `yaml:"max_attempts" default:"16" validate:"gte=1"`
		PoolSize    int    `yaml:"pool_size" default:"10"`
	} `yaml:"redis"`
}

type RulesConfig struct {
	LeaderSymbol string        `yaml:"leader_symbol" default:"BTCUSDT.P"`
	Catalog      []CatalogRule `yaml:"catalog"`
}

type CatalogRule struct {
	Symbol            string    `yaml:"symbol"`
	Engine            string    `yaml:"engine"`
	EntryLow          float64   `yaml:"entry_low"`
	EntryHigh         float64   `yaml:"entry_high"`
	InvalidationLevel float64   `yaml:"invalidation_level"`
	InvalidationTF    string    `yaml:"invalidation_tf"`
	TakeProfits       []float64 `yaml:"take_profits"`
}

type KafkaConfig struct {
	Brokers      []string `yaml:"brokers"`
	RequiredAcks int      `yaml:"required_acks" default:"-1"`
	Compression  string   `yaml:"compression" default:"snappy"`
	Producer     struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"5"`
		Linger       time.Duration `yaml:"linger" default:"10ms"`
		BatchBytes   int           `yaml:"batch_bytes"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"5s"`
	} `yaml:"producer"`
	Consumer struct {
		GroupID    string        `yaml:"group_id" default:"enginegate"`
		Workers    int           `yaml:"workers" default:"1"`
		BufferSize int           `yaml:"buffer_size" default:"64"`
		RetryMax   int           `yaml:"retry_max" default:"3"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
		DLQTopic   string        `yaml:"dlq_topic"`
		MinBytes   int           `yaml:"min_bytes" default:"1"`
		MaxBytes   int           `yaml:"max_bytes" default:"1048576"`
	} `yaml:"consumer"`
	// Inbound lets alert senders deliver through a topic instead of HTTP.
	Inbound struct {
		Enabled bool   `yaml:"enabled"`
		Topic   string `yaml:"topic" default:"enginegate.webhooks"`
	} `yaml:"inbound"`
}

type ClickHouseConfig struct {
	Host         string        `yaml:"host" default:"localhost"`
	Port         int           `yaml:"port" default:"9000"`
	Database     string        `yaml:"database" default:"default"`
	User         string        `yaml:"user" default:"default"`
	Password     string        `yaml:"password"`
	UseHTTP      bool          `yaml:"use_http"`
	AsyncInsert  bool          `yaml:"async_insert"`
	WaitForAsync bool          `yaml:"wait_for_async_insert"`
	DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
}

type TelegramConfig struct {
	Enabled bool          `yaml:"enabled"`
	Token   string        `yaml:"token"`
	ChatID  int64         `yaml:"chat_id"`
	Timeout time.Duration `yaml:"timeout" default:"5s"`
}

type RelayConfig struct {
	WebhookURL   string        `yaml:"webhook_url" default:"http://127.0.0.1:8000/tv"`
	Key          string        `yaml:"key"`
	Engine       string        `yaml:"engine" default:"COINM_SHORT"`
	Symbol       string        `yaml:"symbol" default:"BTCUSDT"`
	ProductType  string        `yaml:"product_type" default:"usdt-futures"`
	TFSeconds    int           `yaml:"tf_seconds" default:"300" validate:"oneof=60 180 300 900 1800 3600 14400"`
	PollInterval time.Duration `yaml:"poll_interval" default:"5s"`
	SLPoints     float64       `yaml:"sl_points" default:"10"`
	ForceSignal  string        `yaml:"force_signal" default:"AUTO" validate:"oneof=AUTO BUY SELL"`
	DryRun       bool          `yaml:"dry_run"`
	OneShot      bool          `yaml:"one_shot"`
	StateFile    string        `yaml:"state_file" default:"/opt/trading/state/relay_state.json"`
	BaseURL      string        `yaml:"base_url" default:"https://api.bitget.com"`
	Timeout      time.Duration `yaml:"timeout" default:"10s"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("WEBHOOK_SECRET"); v != "" {
		c.Webhook.Secret = v
	}
	if v := getenv("TZ"); v != "" {
		c.Webhook.Timezone = v
	}
	if v := getenv("ENGINE_LOCK"); v != "" {
		c.Webhook.EngineLock = util.ParseFlag(v, c.Webhook.EngineLock)
	}
	if v := getenv("JOURNAL_PATH"); v != "" {
		c.Audit.JournalPath = v
	}
	if v := getenv("RAW_LOG_PATH"); v != "" {
		c.Audit.RawLogPath = v
	}
	if v := getenv("STATE_PATH"); v != "" {
		c.State.Path = v
	}
	if v := getenv("STATE_BACKEND"); v != "" {
		c.State.Backend = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.State.Redis.Addr = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = id
		}
	}
	if getenv("TELEGRAM_BOT_TOKEN") != "" && c.Telegram.ChatID != 0 {
		c.Telegram.Enabled = true
	}

	// Relay settings keep the variable names alert tooling already uses.
	if v := getenv("TV_WEBHOOK_URL"); v != "" {
		c.Relay.WebhookURL = v
	}
	if v := getenv("TV_WEBHOOK_KEY"); v != "" {
		c.Relay.Key = v
	}
	if v := getenv("TV_ENGINE"); v != "" {
		c.Relay.Engine = v
	}
	if v := getenv("SYMBOL"); v != "" {
		c.Relay.Symbol = v
	}
	if v := getenv("TF_SEC"); v != "" {
		c.Relay.TFSeconds = util.ParseIntDefault(v, c.Relay.TFSeconds)
	}
	if v := getenv("POLL_S"); v != "" {
		c.Relay.PollInterval = time.Duration(util.ParseFloatDefault(v, c.Relay.PollInterval.Seconds()) * float64(time.Second))
	}
	if v := getenv("SL_PTS"); v != "" {
		c.Relay.SLPoints = util.ParseFloatDefault(v, c.Relay.SLPoints)
	}
	if v := getenv("FORCE_SIGNAL"); v != "" {
		c.Relay.ForceSignal = v
	}
	if v := getenv("DRY_RUN"); v != "" {
		c.Relay.DryRun = util.ParseFlag(v, c.Relay.DryRun)
	}
	if v := getenv("ONE_SHOT"); v != "" {
		c.Relay.OneShot = util.ParseFlag(v, c.Relay.OneShot)
	}
	if v := getenv("STATE_FILE"); v != "" {
		c.Relay.StateFile = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	known := make(map[string]bool, len(c.Webhook.KnownEngines))
	for _, e := range c.Webhook.KnownEngines {
		known[e] = true
	}
	for _, e := range c.Webhook.AggressiveEngines {
		if !known[e] {
			return fmt.Errorf("webhook.aggressive_engines: %s is not a known engine", e)
		}
	}

	if _, err := util.LoadLocation(c.Webhook.Timezone); err != nil {
		return fmt.Errorf("webhook.timezone: %w", err)
	}

	switch c.State.Backend {
	case "file":
		if c.State.Path == "" {
			return fmt.Errorf("state.path is required for the file backend")
		}
	case "redis":
		if c.State.Redis.Addr == "" {
			return fmt.Errorf("state.redis.addr is required for the redis backend")
		}
	}

	if (c.Audit.Kafka.Enabled || c.Kafka.Inbound.Enabled) && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when a kafka feature is enabled")
	}
	if c.Telegram.Enabled && (c.Telegram.Token == "" || c.Telegram.ChatID == 0) {
		return fmt.Errorf("telegram.token and telegram.chat_id are required when telegram is enabled")
	}
	return nil
}

// ValidateRelay checks the settings the bar-close relay needs on top of Validate.
func (c *Config) ValidateRelay() error {
	if c.Relay.Key == "" {
		return fmt.Errorf("relay.key is required")
	}
	if c.Relay.WebhookURL == "" {
		return fmt.Errorf("relay.webhook_url is required")
	}
	if c.Relay.PollInterval <= 0 {
		return fmt.Errorf("relay.poll_interval must be positive")
	}
	return nil
}

// HasSecret reports whether webhook deliveries can be authenticated at all.
func (c *Config) HasSecret() bool {
	return c.Webhook.Secret != ""
}
