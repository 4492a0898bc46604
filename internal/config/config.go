// ABOUTME: Configuration loader for the quickpoll client
// ABOUTME: Layers defaults, config.yaml, .env, QUICKPOLL_* environment variables and flags

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/markalston/quickpoll/internal/store"
)

const (
	DefaultAPIURL       = "http://localhost:8001"
	DefaultShareBaseURL = "http://localhost:3000"
	DefaultTimeout      = 30 * time.Second
	DefaultPageSize     = 20

	// EnvPrefix namespaces the environment variables the client reads
	EnvPrefix = "QUICKPOLL_"

	// FileName is the optional YAML file inside the config directory
	FileName = "config.yaml"
)

// Config holds resolved client settings
type Config struct {
	APIURL       string        `validate:"required,http_url"`
	Timeout      time.Duration `validate:"gt=0"`
	ConfigDir    string
	PageSize     int    `validate:"gt=0,lte=100"`
	ShareBaseURL string `validate:"required,http_url"`
	LogLevel     string `validate:"oneof=debug info warn warning error"`
	LogFormat    string `validate:"oneof=text json"`
}

// Overrides are command-line values. Zero values leave lower layers alone.
type Overrides struct {
	APIURL    string
	ConfigDir string
	EnvFile   string
	Timeout   time.Duration
	PageSize  int
	LogLevel  string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load resolves configuration. Priority, lowest first: defaults, config.yaml in
// the config dir, .env (never overriding set variables), QUICKPOLL_* env, flags.
func Load(o Overrides) (*Config, error) {
	envFile := o.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	dir := o.ConfigDir
	if dir == "" {
		dir = os.Getenv(EnvPrefix + "CONFIG_DIR")
	}
	if dir == "" {
		dir = store.DefaultDir()
	}

	k := koanf.New(".")
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			// QUICKPOLL_API_URL -> api_url
			return strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{
		APIURL:       stringValue(k, "api_url", DefaultAPIURL),
		ConfigDir:    dir,
		ShareBaseURL: stringValue(k, "share_base_url", DefaultShareBaseURL),
		LogLevel:     strings.ToLower(stringValue(k, "log_level", "info")),
		LogFormat:    strings.ToLower(stringValue(k, "log_format", "text")),
	}

	var err error
	if cfg.Timeout, err = durationValue(k, "timeout", DefaultTimeout); err != nil {
		return nil, err
	}
	if cfg.PageSize, err = intValue(k, "page_size", DefaultPageSize); err != nil {
		return nil, err
	}

	if o.APIURL != "" {
		cfg.APIURL = o.APIURL
	}
	if o.Timeout != 0 {
		cfg.Timeout = o.Timeout
	}
	if o.PageSize != 0 {
		cfg.PageSize = o.PageSize
	}
	if o.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(o.LogLevel)
	}

	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.ShareBaseURL = strings.TrimRight(cfg.ShareBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and names the offending setting
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Field() {
	case "APIURL":
		return fmt.Errorf("api_url must be an http(s) URL, got %q", c.APIURL)
	case "ShareBaseURL":
		return fmt.Errorf("share_base_url must be an http(s) URL, got %q", c.ShareBaseURL)
	case "Timeout":
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	case "PageSize":
		return fmt.Errorf("page_size must be between 1 and 100, got %d", c.PageSize)
	case "LogLevel":
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel)
	case "LogFormat":
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	default:
		return fmt.Errorf("invalid %s", fe.Field())
	}
}

func stringValue(k *koanf.Koanf, key, def string) string {
	if v := strings.TrimSpace(k.String(key)); v != "" {
		return v
	}
	return def
}

func intValue(k *koanf.Koanf, key string, def int) (int, error) {
	if !k.Exists(key) {
		return def, nil
	}
	raw := strings.TrimSpace(fmt.Sprint(k.Get(key)))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return n, nil
}

// durationValue accepts Go durations ("45s") or bare seconds ("45")
func durationValue(k *koanf.Koanf, key string, def time.Duration) (time.Duration, error) {
	if !k.Exists(key) {
		return def, nil
	}
	raw := strings.TrimSpace(fmt.Sprint(k.Get(key)))
	if raw == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30s, got %q", key, raw)
	}
	return d, nil
}
