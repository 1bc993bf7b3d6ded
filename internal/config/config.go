package config

import "time"

const (
	DefaultPortalURL = "https://www.arcgis.com"
	DefaultItemID    = "5d56deb77c0d424799a522d8a13f079e"
)

type Config struct {
	PortalURL   string        `json:"portalUrl"`
	ItemID      string        `json:"itemId"`
	URL         string        `json:"url"`
	Demo        bool          `json:"-"`
	Theme       string        `json:"theme"`
	AutoRefresh bool          `json:"autoRefresh"`
	MaxDepth    int           `json:"maxDepth"`
	Concurrency int           `json:"concurrency"`
	Timeout     time.Duration `json:"timeout"`
	CacheTTL    time.Duration `json:"cacheTtl"`
	MinRefresh  time.Duration `json:"minRefresh"`
	LogLevel    string        `json:"logLevel"`
	LogFile     string        `json:"logFile"`
}

type fileConfig struct {
	PortalURL   *string `json:"portalUrl"`
	ItemID      *string `json:"itemId"`
	URL         *string `json:"url"`
	Theme       *string `json:"theme"`
	AutoRefresh *bool   `json:"autoRefresh"`
	MaxDepth    *int    `json:"maxDepth"`
	Concurrency *int    `json:"concurrency"`
	Timeout     *string `json:"timeout"`
	CacheTTL    *string `json:"cacheTtl"`
	MinRefresh  *string `json:"minRefresh"`
	LogLevel    *string `json:"logLevel"`
	LogFile     *string `json:"logFile"`
}
