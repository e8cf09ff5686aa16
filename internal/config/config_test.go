package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "line-token")
	t.Setenv("LINE_CHANNEL_SECRET", "line-secret")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_KEY", "azure-key")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt-4o-mini")
	t.Setenv("AZURE_OPENAI_API_VERSION", "2024-02-15-preview")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("CSE_ID", "engine-1")
	t.Setenv("GOOGLE_SEARCH_API_URL", "https://www.googleapis.com/customsearch/v1")
}

func TestLoad_FromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("CACHE_SIZE", "50")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("RESTRICTED_DOMAINS", "fbsbx.com,cdn.example.net")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("expected port 8081, got %d", cfg.Server.Port)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected log format json, got %q", cfg.Log.Format)
	}
	if cfg.Line.ChannelSecret != "line-secret" {
		t.Errorf("expected channel secret, got %q", cfg.Line.ChannelSecret)
	}
	if cfg.Azure.Deployment != "gpt-4o-mini" {
		t.Errorf("expected deployment gpt-4o-mini, got %q", cfg.Azure.Deployment)
	}
	if cfg.Google.EngineID != "engine-1" {
		t.Errorf("expected engine id engine-1, got %q", cfg.Google.EngineID)
	}
	if cfg.Cache.Size != 50 || cfg.Cache.TTL != 90*time.Second {
		t.Errorf("expected cache 50/90s, got %d/%s", cfg.Cache.Size, cfg.Cache.TTL)
	}
	if got := strings.Join(cfg.Images.RestrictedDomains, ","); got != "fbsbx.com,cdn.example.net" {
		t.Errorf("expected restricted domains from env, got %q", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("expected default ttl 5m, got %s", cfg.Cache.TTL)
	}
	if cfg.Images.WikimediaAPIURL != "https://commons.wikimedia.org/w/api.php" {
		t.Errorf("unexpected wikimedia url %q", cfg.Images.WikimediaAPIURL)
	}
	if len(cfg.Images.RestrictedDomains) != 1 || cfg.Images.RestrictedDomains[0] != "fbsbx.com" {
		t.Errorf("unexpected restricted domains %v", cfg.Images.RestrictedDomains)
	}
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("LOG_LEVEL", "warn")

	flags := SetupFlags()
	if err := flags.Parse([]string{"--server.port=9090", "--cache.ttl=30s"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected flag port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("expected flag ttl 30s, got %s", cfg.Cache.TTL)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("unset flag must not override env, got level %q", cfg.Log.Level)
	}
}

func validConfig() *Config {
	cfg := Defaults()
	cfg.Line = LineConfig{ChannelAccessToken: "t", ChannelSecret: "s"}
	cfg.Azure = AzureConfig{
		Endpoint:   "https://example.openai.azure.com",
		Key:        "k",
		Deployment: "d",
		APIVersion: "2024-02-15-preview",
	}
	cfg.Google.APIKey = "g"
	cfg.Google.EngineID = "cx"
	return cfg
}

func TestValidate_MissingRequired(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "line token", mutate: func(c *Config) { c.Line.ChannelAccessToken = "" }},
		{name: "line secret", mutate: func(c *Config) { c.Line.ChannelSecret = "" }},
		{name: "azure endpoint", mutate: func(c *Config) { c.Azure.Endpoint = "" }},
		{name: "azure endpoint not a url", mutate: func(c *Config) { c.Azure.Endpoint = "not a url" }},
		{name: "azure key", mutate: func(c *Config) { c.Azure.Key = "" }},
		{name: "azure deployment", mutate: func(c *Config) { c.Azure.Deployment = "" }},
		{name: "azure api version", mutate: func(c *Config) { c.Azure.APIVersion = "" }},
		{name: "google key", mutate: func(c *Config) { c.Google.APIKey = "" }},
		{name: "cse id", mutate: func(c *Config) { c.Google.EngineID = "" }},
		{name: "search url", mutate: func(c *Config) { c.Google.SearchURL = "" }},
		{name: "port", mutate: func(c *Config) { c.Server.Port = 70000 }},
		{name: "log level", mutate: func(c *Config) { c.Log.Level = "trace" }},
		{name: "cache size", mutate: func(c *Config) { c.Cache.Size = 0 }},
		{name: "cache ttl", mutate: func(c *Config) { c.Cache.TTL = time.Millisecond }},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestValidate_Valid(t *testing.T) {
	t.Parallel()

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateSearch_IgnoresChatCredentials(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Line = LineConfig{}
	cfg.Azure = AzureConfig{}
	if err := cfg.ValidateSearch(); err != nil {
		t.Errorf("ValidateSearch failed: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should still require chat credentials")
	}
}
