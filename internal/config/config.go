package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Hub       HubConfig       `mapstructure:"hub"`
	Poll      PollConfig      `mapstructure:"poll"`
	Normalize NormalizeConfig `mapstructure:"normalize"`
	Classify  ClassifyConfig  `mapstructure:"classify"`
	Control   ControlConfig   `mapstructure:"control"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json
	File   string `mapstructure:"file"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	// Operator account synced at startup. Empty Username disables seeding.
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type HubConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
}

type PollConfig struct {
	Interval            time.Duration `mapstructure:"interval"`
	MissedPollTolerance int           `mapstructure:"missed_poll_tolerance"`
	MaxRetries          int           `mapstructure:"max_retries"`
	RetryBackoff        time.Duration `mapstructure:"retry_backoff"`
}

type NormalizeConfig struct {
	TempMin float64 `mapstructure:"temp_min"`
	TempMax float64 `mapstructure:"temp_max"`
	// Extra raw type names, lower-case, mapped to Thermostat or Socket.
	TypeAliases map[string]string `mapstructure:"type_aliases"`
}

type ClassifyConfig struct {
	ReadingMin          float64 `mapstructure:"reading_min"`
	ReadingMax          float64 `mapstructure:"reading_max"`
	LowBatteryThreshold float64 `mapstructure:"low_battery_threshold"`
}

type ControlConfig struct {
	MinSetpoint float64 `mapstructure:"min_setpoint"`
	MaxSetpoint float64 `mapstructure:"max_setpoint"`
}

type NotifyConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type MetricsConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	StatsdAddr string   `mapstructure:"statsd_addr"`
	Namespace  string   `mapstructure:"namespace"`
	Tags       []string `mapstructure:"tags"`
}

const envPrefix = "NEOHUB"

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("db.path", "neohub.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.username", "")
	v.SetDefault("auth.password", "")

	v.SetDefault("hub.base_url", "https://neohub.co.uk/")
	v.SetDefault("hub.username", "")
	v.SetDefault("hub.password", "")
	v.SetDefault("hub.request_timeout", 15*time.Second)
	v.SetDefault("hub.session_ttl", 30*time.Minute)

	v.SetDefault("poll.interval", 60*time.Second)
	v.SetDefault("poll.missed_poll_tolerance", 3)
	v.SetDefault("poll.max_retries", 2)
	v.SetDefault("poll.retry_backoff", 2*time.Second)

	v.SetDefault("normalize.temp_min", -40.0)
	v.SetDefault("normalize.temp_max", 100.0)

	v.SetDefault("classify.reading_min", 0.0)
	v.SetDefault("classify.reading_max", 50.0)
	v.SetDefault("classify.low_battery_threshold", 0.2)

	v.SetDefault("control.min_setpoint", 5.0)
	v.SetDefault("control.max_setpoint", 30.0)

	v.SetDefault("notify.timeout", 5*time.Second)
	v.SetDefault("notify.mqtt.enabled", false)
	v.SetDefault("notify.mqtt.broker", "")
	v.SetDefault("notify.mqtt.client_id", "neohub-monitor")
	v.SetDefault("notify.mqtt.topic_prefix", "neohub")
	v.SetDefault("notify.kafka.enabled", false)
	v.SetDefault("notify.kafka.topic", "neohub.alerts")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.statsd_addr", "")
	v.SetDefault("metrics.namespace", "neohub")
}

// Load reads the config file (if any) at path, overlays NEOHUB_* environment
// variables and validates the result. An empty path searches ./configs/config.yml.
func Load(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and required relationships between settings.
func (c Config) Validate() error {
	var errs []error
	if c.Poll.Interval <= 0 {
		errs = append(errs, errors.New("poll.interval must be > 0"))
	}
	if c.Poll.MissedPollTolerance < 0 {
		errs = append(errs, errors.New("poll.missed_poll_tolerance must be >= 0"))
	}
	if c.Poll.MaxRetries < 0 {
		errs = append(errs, errors.New("poll.max_retries must be >= 0"))
	}
	if c.Normalize.TempMin >= c.Normalize.TempMax {
		errs = append(errs, errors.New("normalize.temp_min must be below normalize.temp_max"))
	}
	if c.Classify.ReadingMin >= c.Classify.ReadingMax {
		errs = append(errs, errors.New("classify.reading_min must be below classify.reading_max"))
	}
	if c.Classify.LowBatteryThreshold < 0 || c.Classify.LowBatteryThreshold > 1 {
		errs = append(errs, errors.New("classify.low_battery_threshold must be within [0, 1]"))
	}
	if c.Control.MinSetpoint >= c.Control.MaxSetpoint {
		errs = append(errs, errors.New("control.min_setpoint must be below control.max_setpoint"))
	}
	if strings.TrimSpace(c.Auth.Username) != "" && strings.TrimSpace(c.Auth.Password) == "" {
		errs = append(errs, errors.New("auth.password is required when auth.username is set"))
	}
	if c.Hub.BaseURL == "" {
		errs = append(errs, errors.New("hub.base_url is required"))
	}
	if c.Notify.MQTT.Enabled && c.Notify.MQTT.Broker == "" {
		errs = append(errs, errors.New("notify.mqtt.broker is required when mqtt is enabled"))
	}
	if c.Notify.Kafka.Enabled && len(c.Notify.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("notify.kafka.brokers is required when kafka is enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
