package config

import (
	"time"

	"github.com/anatolykoptev/go-imagebot"
)

type Config struct {
	Server ServerConfig `koanf:"server"`
	Log    LogConfig    `koanf:"log"`
	Line   LineConfig   `koanf:"line"`
	Azure  AzureConfig  `koanf:"azure"`
	Google GoogleConfig `koanf:"google"`
	Cache  CacheConfig  `koanf:"cache"`
	Images ImagesConfig `koanf:"images"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type LineConfig struct {
	ChannelAccessToken string `koanf:"channel_access_token"`
	ChannelSecret      string `koanf:"channel_secret"`
}

type AzureConfig struct {
	Endpoint   string `koanf:"endpoint"`
	Key        string `koanf:"key"`
	Deployment string `koanf:"deployment"`
	APIVersion string `koanf:"api_version"`
}

type GoogleConfig struct {
	APIKey    string `koanf:"api_key"`
	EngineID  string `koanf:"engine_id"`
	SearchURL string `koanf:"search_url"`
}

type CacheConfig struct {
	Size int           `koanf:"size"`
	TTL  time.Duration `koanf:"ttl"`
}

type ImagesConfig struct {
	WikimediaAPIURL   string   `koanf:"wikimedia_api_url"`
	RestrictedDomains []string `koanf:"restricted_domains"`
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: 5000},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Google: GoogleConfig{
			SearchURL: "https://www.googleapis.com/customsearch/v1",
		},
		Cache: CacheConfig{
			Size: imagebot.DefaultCacheSize,
			TTL:  imagebot.DefaultCacheTTL,
		},
		Images: ImagesConfig{
			WikimediaAPIURL:   imagebot.DefaultWikimediaAPIURL,
			RestrictedDomains: imagebot.DefaultRestrictedDomains,
		},
	}
}

// envKeys maps the deployment's environment variable names to config keys.
// Variables not listed here are ignored.
var envKeys = map[string]string{
	"PORT":       "server.port",
	"LOG_LEVEL":  "log.level",
	"LOG_FORMAT": "log.format",

	"LINE_CHANNEL_ACCESS_TOKEN": "line.channel_access_token",
	"LINE_CHANNEL_SECRET":       "line.channel_secret",

	"AZURE_OPENAI_ENDPOINT":        "azure.endpoint",
	"AZURE_OPENAI_KEY":             "azure.key",
	"AZURE_OPENAI_DEPLOYMENT_NAME": "azure.deployment",
	"AZURE_OPENAI_API_VERSION":     "azure.api_version",

	"GOOGLE_API_KEY":        "google.api_key",
	"CSE_ID":                "google.engine_id",
	"GOOGLE_SEARCH_API_URL": "google.search_url",

	"CACHE_SIZE": "cache.size",
	"CACHE_TTL":  "cache.ttl",

	"WIKIMEDIA_API_URL":  "images.wikimedia_api_url",
	"RESTRICTED_DOMAINS": "images.restricted_domains",
}
