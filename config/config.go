package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	ModeDirect  = "direct"
	ModeTwoTier = "two-tier"
)

const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

const envPrefix = "LINKPULSE"

// DefaultProbeHeaders mimic a desktop browser so that bot filters do not
// turn a healthy site into a false negative.
var DefaultProbeHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36 (linkpulse/1.0)",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "zh-CN,zh;q=0.9",
	"Connection":      "keep-alive",
	"X-Check-Flink":   "1.0",
}

// DefaultSourceHeaders are sent to the manifest endpoint and the delegated
// status API.
var DefaultSourceHeaders = map[string]string{
	"Accept":             "application/json",
	"Accept-Language":    "zh-CN,zh;q=0.9",
	"sec-ch-ua":          `"Chromium";v="122", "Not(A:Brand";v="24", "Google Chrome";v="122"`,
	"sec-ch-ua-mobile":   "?0",
	"sec-ch-ua-platform": `"Windows"`,
	"X-Check-Flink":      "1.0",
}

type AppConfig struct {
	Environment         string `mapstructure:"environment"`
	TimezoneOffsetHours int    `mapstructure:"timezone_offset_hours"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type SourceConfig struct {
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
	Timeout string            `mapstructure:"timeout"`
}

type StatusBand struct {
	Min int `mapstructure:"min"`
	Max int `mapstructure:"max"`
}

type ProbeConfig struct {
	Mode          string            `mapstructure:"mode"`
	Timeout       string            `mapstructure:"timeout"`
	Headers       map[string]string `mapstructure:"headers"`
	SuccessStatus StatusBand        `mapstructure:"success_status"`
	RateLimit     float64           `mapstructure:"rate_limit"`
}

type BreakerConfig struct {
	Threshold    int    `mapstructure:"threshold"`
	ResetTimeout string `mapstructure:"reset_timeout"`
}

type DelegatedConfig struct {
	Endpoint string            `mapstructure:"endpoint"`
	Headers  map[string]string `mapstructure:"headers"`
	Breaker  BreakerConfig     `mapstructure:"breaker"`
}

type RetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MaxAttempts int    `mapstructure:"max_attempts"`
	Delay       string `mapstructure:"delay"`
}

type BatchConfig struct {
	Size  int    `mapstructure:"size"`
	Delay string `mapstructure:"delay"`
}

type OutputConfig struct {
	Dir           string `mapstructure:"dir"`
	Diagnostics   bool   `mapstructure:"diagnostics"`
	StatusFile    string `mapstructure:"status_file"`
	DirectFile    string `mapstructure:"direct_file"`
	DelegatedFile string `mapstructure:"delegated_file"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

type ErrorCounterConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Backend  string         `mapstructure:"backend"`
	File     string         `mapstructure:"file"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

type ServeConfig struct {
	Address string `mapstructure:"address"`
}

type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Source       SourceConfig       `mapstructure:"source"`
	Probe        ProbeConfig        `mapstructure:"probe"`
	Delegated    DelegatedConfig    `mapstructure:"delegated"`
	Retry        RetryConfig        `mapstructure:"retry"`
	Batch        BatchConfig        `mapstructure:"batch"`
	Output       OutputConfig       `mapstructure:"output"`
	ErrorCounter ErrorCounterConfig `mapstructure:"error_counter"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Serve        ServeConfig        `mapstructure:"serve"`
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"output":    "output.dir",
	"mode":      "probe.mode",
	"log-level": "logging.level",
	"source":    "source.url",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", EnvDev)
	v.SetDefault("app.timezone_offset_hours", 8)
	v.SetDefault("logging.level", LogLevelInfo)

	v.SetDefault("source.url", "https://www.xrbk.cn/api/links.json")
	v.SetDefault("source.headers", DefaultSourceHeaders)
	v.SetDefault("source.timeout", "30s")

	v.SetDefault("probe.mode", ModeTwoTier)
	v.SetDefault("probe.timeout", "30s")
	v.SetDefault("probe.headers", DefaultProbeHeaders)
	v.SetDefault("probe.success_status.min", 200)
	v.SetDefault("probe.success_status.max", 200)
	v.SetDefault("probe.rate_limit", 0)

	v.SetDefault("delegated.endpoint", "https://v2.xxapi.cn/api/status")
	v.SetDefault("delegated.headers", DefaultSourceHeaders)
	v.SetDefault("delegated.breaker.threshold", 5)
	v.SetDefault("delegated.breaker.reset_timeout", "1m")

	v.SetDefault("retry.enabled", true)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.delay", "1s")

	v.SetDefault("batch.size", 10)
	v.SetDefault("batch.delay", "200ms")

	v.SetDefault("output.dir", "./output")
	v.SetDefault("output.diagnostics", true)
	v.SetDefault("output.status_file", "status.json")
	v.SetDefault("output.direct_file", "status-direct.json")
	v.SetDefault("output.delegated_file", "status-delegated.json")

	v.SetDefault("error_counter.enabled", true)
	v.SetDefault("error_counter.backend", BackendFile)
	v.SetDefault("error_counter.file", "error-count.json")
	v.SetDefault("error_counter.redis.addr", "localhost:6379")
	v.SetDefault("error_counter.redis.password", "")
	v.SetDefault("error_counter.redis.db", 0)
	v.SetDefault("error_counter.redis.key", "linkpulse:error-count")
	v.SetDefault("error_counter.postgres.url", "")

	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "linkpulse")

	v.SetDefault("serve.address", ":8080")
}

// Load reads the configuration. An explicit path wins over the search paths;
// flags, when given, override both the file and the environment.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.App),
		validation.Field(&c.Logging),
		validation.Field(&c.Source),
		validation.Field(&c.Probe),
		validation.Field(&c.Delegated,
			validation.When(c.Probe.Mode == ModeTwoTier, validation.By(validateDelegated)),
		),
		validation.Field(&c.Retry),
		validation.Field(&c.Batch),
		validation.Field(&c.Output),
		validation.Field(&c.ErrorCounter),
		validation.Field(&c.Metrics),
		validation.Field(&c.Serve),
	)
}

func (a AppConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Environment, validation.Required, validation.In(EnvDev, EnvStaging, EnvProd)),
		validation.Field(&a.TimezoneOffsetHours, validation.Min(-12), validation.Max(14)),
	)
}

func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level,
			validation.Required,
			validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
		),
	)
}

func (s SourceConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.URL, validation.Required, validation.By(validateURL)),
		validation.Field(&s.Timeout, validation.Required, validation.By(validateDuration)),
	)
}

func (p ProbeConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Mode, validation.Required, validation.In(ModeDirect, ModeTwoTier)),
		validation.Field(&p.Timeout, validation.Required, validation.By(validateDuration)),
		validation.Field(&p.SuccessStatus),
		validation.Field(&p.RateLimit, validation.Min(0.0)),
	)
}

func (b StatusBand) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Min, validation.Required, validation.Min(100), validation.Max(599)),
		validation.Field(&b.Max, validation.Required, validation.Min(b.Min), validation.Max(599)),
	)
}

func (r RetryConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MaxAttempts, validation.When(r.Enabled, validation.Required, validation.Min(1))),
		validation.Field(&r.Delay, validation.Required, validation.By(validateDuration)),
	)
}

func (b BatchConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Size, validation.Required, validation.Min(1)),
		validation.Field(&b.Delay, validation.Required, validation.By(validateDuration)),
	)
}

func (o OutputConfig) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Dir, validation.Required),
		validation.Field(&o.StatusFile, validation.Required),
		validation.Field(&o.DirectFile, validation.When(o.Diagnostics, validation.Required)),
		validation.Field(&o.DelegatedFile, validation.When(o.Diagnostics, validation.Required)),
	)
}

func (e ErrorCounterConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Backend,
			validation.When(e.Enabled, validation.Required, validation.In(BackendFile, BackendRedis, BackendPostgres)),
		),
		validation.Field(&e.File, validation.When(e.Enabled && e.Backend == BackendFile, validation.Required)),
		validation.Field(&e.Redis, validation.When(e.Enabled && e.Backend == BackendRedis, validation.By(validateRedis))),
		validation.Field(&e.Postgres, validation.When(e.Enabled && e.Backend == BackendPostgres, validation.By(validatePostgres))),
	)
}

func (m MetricsConfig) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.PushgatewayURL, is.URL),
		validation.Field(&m.Job, validation.When(m.PushgatewayURL != "", validation.Required)),
	)
}

func (s ServeConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Address, validation.Required, validation.By(validateHostPort)),
	)
}

// Location is the fixed zone used to format report timestamps.
func (a AppConfig) Location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", a.TimezoneOffsetHours), a.TimezoneOffsetHours*3600)
}

func (s SourceConfig) TimeoutDuration() time.Duration { return duration(s.Timeout) }

func (p ProbeConfig) TimeoutDuration() time.Duration { return duration(p.Timeout) }

func (b BreakerConfig) ResetTimeoutDuration() time.Duration { return duration(b.ResetTimeout) }

func (b BatchConfig) DelayDuration() time.Duration { return duration(b.Delay) }

// Attempts is the total number of probe attempts per link, 1 when retry is off.
func (r RetryConfig) Attempts() int {
	if !r.Enabled || r.MaxAttempts < 1 {
		return 1
	}
	return r.MaxAttempts
}

func (r RetryConfig) DelayDuration() time.Duration { return duration(r.Delay) }

// duration assumes the value already passed validateDuration.
func duration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

func validateDelegated(value interface{}) error {
	dc, ok := value.(DelegatedConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a DelegatedConfig")
	}
	return validation.ValidateStruct(&dc,
		validation.Field(&dc.Endpoint, validation.Required, validation.By(validateURL)),
		validation.Field(&dc.Breaker, validation.By(func(value interface{}) error {
			bc, ok := value.(BreakerConfig)
			if !ok {
				return validation.NewError("validation_invalid_type", "must be a BreakerConfig")
			}
			return validation.ValidateStruct(&bc,
				validation.Field(&bc.Threshold, validation.Min(0)),
				validation.Field(&bc.ResetTimeout, validation.Required, validation.By(validateDuration)),
			)
		})),
	)
}

func validateRedis(value interface{}) error {
	rc, ok := value.(RedisConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a RedisConfig")
	}
	return validation.ValidateStruct(&rc,
		validation.Field(&rc.Addr, validation.Required, validation.By(validateHostPort)),
		validation.Field(&rc.DB, validation.Min(0)),
		validation.Field(&rc.Key, validation.Required),
	)
}

func validatePostgres(value interface{}) error {
	pc, ok := value.(PostgresConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a PostgresConfig")
	}
	return validation.ValidateStruct(&pc,
		validation.Field(&pc.URL, validation.Required),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 200ms, 2s, 5m)")
	}

	if d < 0 {
		return validation.NewError("validation_negative_duration", "must not be negative")
	}

	return nil
}

func validateURL(value interface{}) error {
	rawURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if rawURL == "" {
		return validation.NewError("validation_empty_url", "URL cannot be empty")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}
