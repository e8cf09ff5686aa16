package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Load layers defaults, a .env file, the process environment and flags, in
// that order. It does not validate; call Validate or ValidateSearch for the
// command being run.
func Load(flags *pflag.FlagSet) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(defaultsProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// 2. Environment
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	// 3. CLI flags
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
	}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

type defaultsProviderStruct struct {
	defaults *Config
}

func defaultsProvider(defaults *Config) *defaultsProviderStruct {
	return &defaultsProviderStruct{defaults: defaults}
}

func (d *defaultsProviderStruct) ReadBytes() ([]byte, error) {
	return nil, nil
}

func (d *defaultsProviderStruct) Read() (map[string]interface{}, error) {
	return map[string]interface{}{
		"server": map[string]interface{}{
			"port": d.defaults.Server.Port,
		},
		"log": map[string]interface{}{
			"level":  d.defaults.Log.Level,
			"format": d.defaults.Log.Format,
		},
		"google": map[string]interface{}{
			"search_url": d.defaults.Google.SearchURL,
		},
		"cache": map[string]interface{}{
			"size": d.defaults.Cache.Size,
			"ttl":  d.defaults.Cache.TTL.String(),
		},
		"images": map[string]interface{}{
			"wikimedia_api_url":  d.defaults.Images.WikimediaAPIURL,
			"restricted_domains": d.defaults.Images.RestrictedDomains,
		},
	}, nil
}

// SetupFlags returns a standalone flag set carrying the config flags.
func SetupFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("imagebot", pflag.ContinueOnError)
	AddFlags(flags)
	return flags
}

// AddFlags registers the config flags on flags. Flag names are the config
// keys, so a flag that is set overrides the environment.
func AddFlags(flags *pflag.FlagSet) {
	flags.Int("server.port", 0, "Webhook server port")
	flags.String("log.level", "", "Log level: debug, info, warn, error")
	flags.String("log.format", "", "Log format: text or json")
	flags.Int("cache.size", 0, "Maximum number of cached search results")
	flags.Duration("cache.ttl", 0, "How long a search result stays cached")
	flags.String("google.search_url", "", "Custom Search JSON API URL")
	flags.String("images.wikimedia_api_url", "", "Wikimedia Commons API URL")
	flags.StringSlice("images.restricted_domains", nil, "Image hosts that are never sent")
}
