package restclient

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/restclient/logger"
)

const (
	// defaultTimeout applies when neither the config nor the pre-request hook
	// sets one.
	defaultTimeout = 60 * time.Second

	envPrefix = "RESTCLIENT"
)

// Config configures the client. The client is immutable after construction;
// mutating a Config after passing it to New has no effect.
type Config struct {
	// BaseURL is prefixed verbatim to every request path.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Timeout is the default per-request timeout. Defaults to 60s. The
	// pre-request hook can override it per call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Headers are default headers applied to all requests. Per-request
	// headers and the pre-request hook override them key by key.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Debug enables verbose tracing of outgoing descriptors and decoded
	// payloads through the configured logger.
	Debug bool `yaml:"debug" mapstructure:"debug"`

	// DownloadDir is where Download persists files when the default saver is
	// in use. Defaults to the working directory.
	DownloadDir string `yaml:"download_dir" mapstructure:"download_dir"`

	// Logging configures the default logger when none is injected.
	Logging logger.Config `yaml:"logging" mapstructure:"logging" validate:"-"`

	// ErrorHook observes every Error before it surfaces. Optional.
	ErrorHook ErrorHook `yaml:"-" mapstructure:"-"`

	// PreRequestHook augments headers/timeout before dispatch. Optional.
	PreRequestHook PreRequestHook `yaml:"-" mapstructure:"-"`

	// PostResponseHook transforms successfully decoded bodies. Optional.
	PostResponseHook PostResponseHook `yaml:"-" mapstructure:"-"`

	// HTTPClient is the transport capability. Defaults to a client with a
	// fresh cookie jar so credentials are always carried.
	HTTPClient *http.Client `yaml:"-" mapstructure:"-" validate:"-"`

	// Saver is the save-bytes-as-file capability used by Download. Defaults
	// to a DirSaver rooted at DownloadDir.
	Saver FileSaver `yaml:"-" mapstructure:"-" validate:"-"`

	// Logger overrides the logger built from Logging.
	Logger *logger.Logger `yaml:"-" mapstructure:"-" validate:"-"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.DownloadDir == "" {
		c.DownloadDir = "."
	}
	c.Logging.ApplyDefaults()
	if c.Debug && c.Logging.Level != "trace" {
		c.Logging.Level = "debug"
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("restclient: config field %s failed %q validation", f.Field(), f.Tag())
		}
		return fmt.Errorf("restclient: invalid config: %w", err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("restclient: timeout must be positive")
	}
	return c.Logging.Validate()
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the singleton validator instance.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

// LoadConfig reads a Config from a YAML file with environment overrides.
// Environment variables use the RESTCLIENT_ prefix with underscores for
// nesting (RESTCLIENT_BASE_URL, RESTCLIENT_LOGGING_LEVEL, ...). A .env file
// in the working directory is loaded first if present. Pass an empty path to
// configure from the environment alone.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return cfg, fmt.Errorf("restclient: loading .env: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Keys must be registered for AutomaticEnv to pick them up without a file.
	for _, key := range []string{"base_url", "timeout", "debug", "download_dir", "logging.level", "logging.format", "logging.output"} {
		if err := v.BindEnv(key); err != nil {
			return cfg, fmt.Errorf("restclient: binding env key %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("restclient: reading config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("restclient: unmarshaling config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
