package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"github.com/vpnda/bling-margin/pkg/models"
)

const (
	DefaultConfigPath   = "config.yaml"
	defaultBaseURL      = "https://api.bling.com.br/Api/v3"
	defaultGateInterval = 350
	defaultAddr         = ":8080"
	defaultSettingsURL  = "/settings"
)

var defaultRetryDelays = []int{1000, 2000, 4000}

type BlingAccountOptions struct {
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
}

type BlingOptions struct {
	BaseURL     string              `yaml:"baseUrl"`
	RedirectURI string              `yaml:"redirectUri"`
	Account1    BlingAccountOptions `yaml:"account1"`
	Account2    BlingAccountOptions `yaml:"account2"`

	// Durations are in milliseconds.
	GateIntervalMs   int   `yaml:"gateIntervalMs"`
	RetryDelaysMs    []int `yaml:"retryDelaysMs"`
	RequestTimeoutMs int   `yaml:"requestTimeoutMs"`

	// DebugHTTP dumps every upstream exchange to the debug log.
	DebugHTTP bool `yaml:"debugHttp"`
}

type ServerOptions struct {
	Addr string `yaml:"addr"`
	// SettingsURL is where the OAuth callback sends the browser back to.
	SettingsURL string `yaml:"settingsUrl"`
}

// Config holds the application configuration
type Config struct {
	DatabasePath string        `yaml:"databasePath"`
	Bling        BlingOptions  `yaml:"bling"`
	Server       ServerOptions `yaml:"server"`
}

var (
	// Global configuration instance
	globalConfig *Config
	// Mutex to ensure thread-safe access to the global configuration
	configMutex sync.RWMutex
	// Flag to track if the configuration has been loaded
	configLoaded bool
)

// LoadEnv loads .env files into the process environment. Missing files are
// ignored and variables already set are kept.
func LoadEnv(paths ...string) error {
	existing := lo.Filter(paths, func(p string, _ int) bool {
		_, err := os.Stat(p)
		return err == nil
	})
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("error loading env file: %w", err)
	}
	return nil
}

// LoadConfig loads the configuration from the specified YAML file
func LoadConfig(configPath string) (*Config, error) {
	// Read the configuration file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse the YAML data
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	config.applyDefaults()
	config.applyEnv()
	return &config, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	c.applyEnv()
	return c
}

func (c *Config) applyDefaults() {
	if c.Bling.BaseURL == "" {
		c.Bling.BaseURL = defaultBaseURL
	}
	if c.Bling.GateIntervalMs == 0 {
		c.Bling.GateIntervalMs = defaultGateInterval
	}
	if c.Bling.RetryDelaysMs == nil {
		c.Bling.RetryDelaysMs = append([]int{}, defaultRetryDelays...)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.SettingsURL == "" {
		c.Server.SettingsURL = defaultSettingsURL
	}
}

// applyEnv lets the environment override secrets, matching the variable
// names of the Bling app registration.
func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&c.Bling.Account1.ClientID, "BLING_CLIENT_ID_1")
	override(&c.Bling.Account1.ClientSecret, "BLING_CLIENT_SECRET_1")
	override(&c.Bling.Account2.ClientID, "BLING_CLIENT_ID_2")
	override(&c.Bling.Account2.ClientSecret, "BLING_CLIENT_SECRET_2")
	override(&c.Bling.RedirectURI, "BLING_REDIRECT_URI")
	override(&c.DatabasePath, "BLING_MARGIN_DB")
}

// InitGlobalConfig initializes the global configuration from the specified file
func InitGlobalConfig(configPath string) error {
	config, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	globalConfig = config
	configLoaded = true
	return nil
}

// GetConfig returns the global configuration instance
// If the configuration hasn't been loaded yet, it attempts to load it from
// the default location (./config.yaml), writing a default file if needed.
func GetConfig() (*Config, error) {
	configMutex.RLock()
	if configLoaded {
		defer configMutex.RUnlock()
		return globalConfig, nil
	}
	configMutex.RUnlock()

	if err := InitGlobalConfig(DefaultConfigPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}

		defaultConfig := Default()
		if err := writeConfig(DefaultConfigPath, defaultConfig); err != nil {
			return nil, err
		}

		configMutex.Lock()
		globalConfig = defaultConfig
		configLoaded = true
		configMutex.Unlock()
		return defaultConfig, nil
	}

	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig, nil
}

func writeConfig(configPath string, config *Config) error {
	dir := filepath.Dir(configPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}
	}

	// secrets come from the environment and are never written back
	stripped := *config
	stripped.Bling.Account1.ClientSecret = ""
	stripped.Bling.Account2.ClientSecret = ""

	data, err := yaml.Marshal(&stripped)
	if err != nil {
		return fmt.Errorf("error creating default config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing default config: %w", err)
	}
	return nil
}

// GetBlingCredentials returns the OAuth client of every account with a
// client id configured.
func GetBlingCredentials() (map[models.AccountID]BlingAccountOptions, error) {
	config, err := GetConfig()
	if err != nil {
		return nil, err
	}

	creds := map[models.AccountID]BlingAccountOptions{}
	if config.Bling.Account1.ClientID != "" {
		creds[models.Account1] = config.Bling.Account1
	}
	if config.Bling.Account2.ClientID != "" {
		creds[models.Account2] = config.Bling.Account2
	}
	if len(creds) == 0 {
		return nil, fmt.Errorf("error: no Bling client credentials set in configuration")
	}
	return creds, nil
}

func (b BlingOptions) GateInterval() time.Duration {
	return time.Duration(b.GateIntervalMs) * time.Millisecond
}

func (b BlingOptions) RetryDelays() []time.Duration {
	return lo.Map(b.RetryDelaysMs, func(ms int, _ int) time.Duration {
		return time.Duration(ms) * time.Millisecond
	})
}

func (b BlingOptions) RequestTimeout() time.Duration {
	return time.Duration(b.RequestTimeoutMs) * time.Millisecond
}
