package config

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

const envPrefix = "KMLLINKS_"

// ApplyEnv overrides fields from KMLLINKS_* environment variables.
func ApplyEnv(base Config) Config {
	base.PortalURL = envOr("PORTAL_URL", base.PortalURL)
	base.ItemID = envOr("ITEM_ID", base.ItemID)
	base.URL = envOr("URL", base.URL)
	base.Theme = themeName(envOr("THEME", base.Theme), base.Theme)
	base.AutoRefresh = envBool("AUTO_REFRESH", base.AutoRefresh)
	base.MaxDepth = envInt("MAX_DEPTH", base.MaxDepth)
	base.Concurrency = envInt("CONCURRENCY", base.Concurrency)
	base.Timeout = envDuration("TIMEOUT", base.Timeout)
	base.CacheTTL = envDuration("CACHE_TTL", base.CacheTTL)
	base.MinRefresh = envDuration("MIN_REFRESH", base.MinRefresh)
	base.LogLevel = envOr("LOG_LEVEL", base.LogLevel)
	base.LogFile = envOr("LOG_FILE", base.LogFile)
	return base
}

// BindFlags registers flags on flags whose defaults come from base.
// Parsed values are written back into base.
func BindFlags(flags *pflag.FlagSet, base *Config) {
	flags.StringVar(&base.URL, "url", base.URL, "KML or KMZ document URL or path (skips the portal lookup)")
	flags.StringVar(&base.PortalURL, "portal", base.PortalURL, "Portal base URL")
	flags.StringVar(&base.ItemID, "item", base.ItemID, "Portal item id of the KML dataset")
	flags.BoolVar(&base.Demo, "demo", base.Demo, "Load a built-in demo document instead of fetching")
	flags.BoolVar(&base.AutoRefresh, "auto-refresh", base.AutoRefresh, "Reload when network link refresh intervals elapse")
	flags.IntVar(&base.MaxDepth, "max-depth", base.MaxDepth, "Maximum network link nesting to resolve")
	flags.IntVar(&base.Concurrency, "concurrency", base.Concurrency, "Concurrent network link fetches")
	flags.DurationVar(&base.Timeout, "timeout", base.Timeout, "Timeout for a single load")
	flags.DurationVar(&base.CacheTTL, "cache-ttl", base.CacheTTL, "How long fetched documents without a refresh interval are cached")
	flags.DurationVar(&base.MinRefresh, "min-refresh", base.MinRefresh, "Shortest delay between automatic reloads")
	flags.StringVar(&base.LogLevel, "log-level", base.LogLevel, "Log level (debug, info, warn, error)")
	flags.StringVar(&base.LogFile, "log-file", base.LogFile, "Log file path")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(envPrefix + key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(envPrefix + key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(envPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
