package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment variable names of the required credentials.
const (
	EnvFirecrawlKey = "FIRECRAWL_API_KEY"
	EnvAIKey        = "GROQ_API_KEY"
)

// DefaultEnvFile is the credentials file read at startup.
const DefaultEnvFile = ".env"

// Config holds the full application configuration.
type Config struct {
	Firecrawl FirecrawlConfig `yaml:"firecrawl" mapstructure:"firecrawl"`
	AI        AIConfig        `yaml:"ai" mapstructure:"ai"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Session   SessionConfig   `yaml:"session" mapstructure:"session"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// FirecrawlConfig holds Firecrawl API settings.
type FirecrawlConfig struct {
	Key             string `yaml:"key" mapstructure:"key"`
	BaseURL         string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs     int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	PollIntervalMs  int    `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
	PollTimeoutSecs int    `yaml:"poll_timeout_secs" mapstructure:"poll_timeout_secs"`
	RatePerMinute   int    `yaml:"rate_per_minute" mapstructure:"rate_per_minute"`
	// MaxAttempts above 1 enables retries of transient failures.
	MaxAttempts     int    `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// AIConfig holds the inference provider credential. It is validated at
// startup but not used by the extraction flow.
type AIConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// ExtractConfig configures extraction behavior.
type ExtractConfig struct {
	ValidateResults bool `yaml:"validate_results" mapstructure:"validate_results"`
}

// SessionConfig configures browser sessions.
type SessionConfig struct {
	CookieName       string `yaml:"cookie_name" mapstructure:"cookie_name"`
	IdleTTLMinutes   int    `yaml:"idle_ttl_minutes" mapstructure:"idle_ttl_minutes"`
	JanitorIntervalS int    `yaml:"janitor_interval_secs" mapstructure:"janitor_interval_secs"`
}

// ServerConfig configures the web server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables already set in the environment win. A missing file is not an
// error; credentials are checked later by Validate.
func LoadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return eris.Wrapf(err, "config: load env file %s", path)
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EXTRACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials keep their conventional names.
	if err := v.BindEnv("firecrawl.key", EnvFirecrawlKey); err != nil {
		return nil, eris.Wrap(err, "config: bind firecrawl key")
	}
	if err := v.BindEnv("ai.key", EnvAIKey); err != nil {
		return nil, eris.Wrap(err, "config: bind ai key")
	}

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8501)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("firecrawl.timeout_secs", 60)
	v.SetDefault("firecrawl.poll_interval_ms", 2000)
	v.SetDefault("firecrawl.poll_timeout_secs", 300)
	v.SetDefault("firecrawl.rate_per_minute", 0)
	v.SetDefault("firecrawl.max_attempts", 1)
	v.SetDefault("extract.validate_results", true)
	v.SetDefault("session.cookie_name", "extract_session")
	v.SetDefault("session.idle_ttl_minutes", 120)
	v.SetDefault("session.janitor_interval_secs", 60)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that every required credential is present.
func (c *Config) Validate() error {
	var missing []string
	if c.AI.Key == "" {
		missing = append(missing, EnvAIKey)
	}
	if c.Firecrawl.Key == "" {
		missing = append(missing, EnvFirecrawlKey)
	}
	if len(missing) > 0 {
		return eris.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return eris.Errorf("config: invalid server.port %d", c.Server.Port)
	}
	return nil
}

// MaskSecret hides all but the first and last two characters of a secret.
// Values of four characters or fewer are returned unchanged.
func MaskSecret(v string) string {
	if len(v) <= 4 {
		return v
	}
	return v[:2] + strings.Repeat("*", len(v)-4) + v[len(v)-2:]
}

// LogLoaded writes the masked credentials to the global logger.
func (c *Config) LogLoaded() {
	zap.L().Info("configuration loaded",
		zap.String(EnvAIKey, MaskSecret(c.AI.Key)),
		zap.String(EnvFirecrawlKey, MaskSecret(c.Firecrawl.Key)),
		zap.String("firecrawl_base_url", c.Firecrawl.BaseURL),
	)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
