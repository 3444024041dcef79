package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const (
	defaultAPIBase          = "http://localhost:7071"
	defaultLogLevel         = "info"
	defaultEnv              = EnvLocal
	defaultConfigDir        = ".mincadmin"
	defaultRequestTimeoutMS = 20000
	defaultSessionTimeoutMS = 15 * 60 * 1000
	defaultSearchDebounceMS = 250
	defaultAllowedDomains   = "mihirmobile.com,vegu.me"
	defaultSandboxAddress   = "localhost:7071"
)

type Config struct {
	Env            string        `mapstructure:"app_env"`
	APIBase        string        `mapstructure:"api_base"`
	APIKey         string        `mapstructure:"api_key"`
	LogLevel       string        `mapstructure:"log_level"`
	ConfigDir      string        `mapstructure:"config_dir"`
	DataPath       string        `mapstructure:"data_path"`
	RequestTimeout time.Duration `mapstructure:"request_timeout_ms"`
	SessionTimeout time.Duration `mapstructure:"session_timeout_ms"`
	SearchDebounce time.Duration `mapstructure:"search_debounce_ms"`
	AllowedDomains []string      `mapstructure:"allowed_email_domains"`
	RequireOTP     bool          `mapstructure:"otp_required"`
	Sandbox        Sandbox       `mapstructure:"sandbox"`
}

// Sandbox configures the local stand-in API.
type Sandbox struct {
	Address  string `mapstructure:"sandbox_address"`
	FixedOTP string `mapstructure:"otp_fixed"`
}

// MustLoad loads .env (if any) and the process environment into the global
// viper instance and panics on an invalid result.
func MustLoad() *Config {
	LoadDotenv()

	cfg, err := Load(viper.GetViper())
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

// LoadDotenv loads .env from the working directory or its parent, if any.
// Variables already set in the environment win.
func LoadDotenv() {
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		}
	}
}

// Load reads the configuration from v, applying defaults. The config
// directory is created if missing.
func Load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", defaultEnv)
	v.SetDefault("API_BASE", defaultAPIBase)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("CONFIG_DIR", defaultConfigDir)
	v.SetDefault("REQUEST_TIMEOUT_MS", defaultRequestTimeoutMS)
	v.SetDefault("SESSION_TIMEOUT_MS", defaultSessionTimeoutMS)
	v.SetDefault("SEARCH_DEBOUNCE_MS", defaultSearchDebounceMS)
	v.SetDefault("ALLOWED_EMAIL_DOMAINS", defaultAllowedDomains)
	v.SetDefault("OTP_REQUIRED", true)
	v.SetDefault("SANDBOX_ADDRESS", defaultSandboxAddress)

	configDir := v.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		configDir = filepath.Join(home, configDir)
	}
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	dataPath := v.GetString("DATA_PATH")
	if dataPath == "" {
		dataPath = filepath.Join(configDir, "mincadmin.db")
	}

	cfg := &Config{
		Env:            v.GetString("APP_ENV"),
		APIBase:        strings.TrimRight(v.GetString("API_BASE"), "/"),
		APIKey:         v.GetString("API_KEY"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		ConfigDir:      configDir,
		DataPath:       dataPath,
		RequestTimeout: time.Duration(v.GetInt("REQUEST_TIMEOUT_MS")) * time.Millisecond,
		SessionTimeout: time.Duration(v.GetInt("SESSION_TIMEOUT_MS")) * time.Millisecond,
		SearchDebounce: time.Duration(v.GetInt("SEARCH_DEBOUNCE_MS")) * time.Millisecond,
		AllowedDomains: splitList(v.GetString("ALLOWED_EMAIL_DOMAINS")),
		RequireOTP:     v.GetBool("OTP_REQUIRED"),
		Sandbox: Sandbox{
			Address:  v.GetString("SANDBOX_ADDRESS"),
			FixedOTP: v.GetString("OTP_FIXED"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}

func (c *Config) validate() error {
	if c.APIBase == "" {
		return fmt.Errorf("api_base must not be empty")
	}
	u, err := url.Parse(c.APIBase)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_base %q is not an absolute URL", c.APIBase)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout_ms must be positive")
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("session_timeout_ms must be positive")
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("search_debounce_ms must not be negative")
	}
	if len(c.AllowedDomains) == 0 {
		return fmt.Errorf("allowed_email_domains must not be empty")
	}
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown app_env %q", c.Env)
	}
	return nil
}

// SetAPIBase overrides the API base, e.g. from the --server flag.
func (c *Config) SetAPIBase(base string) error {
	prev := c.APIBase
	c.APIBase = strings.TrimRight(base, "/")
	if err := c.validate(); err != nil {
		c.APIBase = prev
		return err
	}
	return nil
}

func (c *Config) IsProd() bool {
	return c.Env == EnvProd
}

func (c *Config) IsDev() bool {
	return c.Env == EnvDev
}

func (c *Config) IsLocal() bool {
	return c.Env == EnvLocal || c.Env == ""
}
