package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

const (
	configDirName  = "kmllinks"
	configFileName = "config.json"
)

func DefaultConfig() Config {
	return Config{
		PortalURL:   DefaultPortalURL,
		ItemID:      DefaultItemID,
		Theme:       "dark",
		AutoRefresh: true,
		MaxDepth:    4,
		Concurrency: 4,
		Timeout:     30 * time.Second,
		CacheTTL:    5 * time.Minute,
		MinRefresh:  5 * time.Second,
		LogLevel:    "info",
	}
}

func ConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, configDirName, configFileName), nil
}

func LoadConfig() (Config, error) {
	config := DefaultConfig()
	path, err := ConfigPath()
	if err != nil {
		return config, err
	}
	return LoadConfigFile(config, path)
}

// LoadConfigFile merges the file at path over base. A missing file is not an error.
func LoadConfigFile(base Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return base, err
	}
	var stored fileConfig
	if err := json.Unmarshal(data, &stored); err != nil {
		return base, fmt.Errorf("parse %s: %w", path, err)
	}
	return mergeConfig(base, stored), nil
}

func SaveConfig(config Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveConfigFile(config, path)
}

func SaveConfigFile(config Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	stored := fileConfig{
		PortalURL:   &config.PortalURL,
		ItemID:      &config.ItemID,
		URL:         &config.URL,
		Theme:       &config.Theme,
		AutoRefresh: &config.AutoRefresh,
		MaxDepth:    &config.MaxDepth,
		Concurrency: &config.Concurrency,
		Timeout:     durationString(config.Timeout),
		CacheTTL:    durationString(config.CacheTTL),
		MinRefresh:  durationString(config.MinRefresh),
		LogLevel:    &config.LogLevel,
		LogFile:     &config.LogFile,
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate reports settings the loader cannot work with.
func (config Config) Validate() error {
	if config.MaxDepth <= 0 {
		return fmt.Errorf("maxDepth must be positive, got %d", config.MaxDepth)
	}
	if config.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", config.Concurrency)
	}
	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", config.Timeout)
	}
	if config.Demo {
		return nil
	}
	if config.URL != "" {
		if isRemote(config.URL) && !govalidator.IsURL(config.URL) {
			return fmt.Errorf("invalid url %q", config.URL)
		}
		return nil
	}
	if !govalidator.IsURL(config.PortalURL) {
		return fmt.Errorf("invalid portal url %q", config.PortalURL)
	}
	if strings.TrimSpace(config.ItemID) == "" {
		return fmt.Errorf("an item id or url is required")
	}
	return nil
}

func isRemote(value string) bool {
	lower := strings.ToLower(value)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func mergeConfig(base Config, stored fileConfig) Config {
	merged := base
	if stored.PortalURL != nil {
		merged.PortalURL = *stored.PortalURL
	}
	if stored.ItemID != nil {
		merged.ItemID = *stored.ItemID
	}
	if stored.URL != nil {
		merged.URL = *stored.URL
	}
	if stored.Theme != nil {
		merged.Theme = themeName(*stored.Theme, base.Theme)
	}
	if stored.AutoRefresh != nil {
		merged.AutoRefresh = *stored.AutoRefresh
	}
	if stored.MaxDepth != nil && *stored.MaxDepth > 0 {
		merged.MaxDepth = *stored.MaxDepth
	}
	if stored.Concurrency != nil && *stored.Concurrency > 0 {
		merged.Concurrency = *stored.Concurrency
	}
	merged.Timeout = parseDuration(stored.Timeout, base.Timeout)
	merged.CacheTTL = parseDuration(stored.CacheTTL, base.CacheTTL)
	merged.MinRefresh = parseDuration(stored.MinRefresh, base.MinRefresh)
	if stored.LogLevel != nil {
		merged.LogLevel = *stored.LogLevel
	}
	if stored.LogFile != nil {
		merged.LogFile = *stored.LogFile
	}
	return merged
}

func themeName(value string, fallback string) string {
	switch strings.ToLower(value) {
	case "dark", "light":
		return strings.ToLower(value)
	default:
		return fallback
	}
}

func parseDuration(value *string, fallback time.Duration) time.Duration {
	if value == nil {
		return fallback
	}
	parsed, err := time.ParseDuration(*value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func durationString(value time.Duration) *string {
	text := value.String()
	return &text
}
