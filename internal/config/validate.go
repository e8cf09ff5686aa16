package config

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Validate checks everything the webhook server needs. Missing credentials
// fail here, before any listener is opened.
func (c *Config) Validate() error {
	if err := c.validateCommon(); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Line,
		validation.Field(&c.Line.ChannelAccessToken, validation.Required),
		validation.Field(&c.Line.ChannelSecret, validation.Required),
	); err != nil {
		return fmt.Errorf("line: %w", err)
	}
	if err := validation.ValidateStruct(&c.Azure,
		validation.Field(&c.Azure.Endpoint, validation.Required, is.URL),
		validation.Field(&c.Azure.Key, validation.Required),
		validation.Field(&c.Azure.Deployment, validation.Required),
		validation.Field(&c.Azure.APIVersion, validation.Required),
	); err != nil {
		return fmt.Errorf("azure: %w", err)
	}
	return c.validateGoogle()
}

// ValidateSearch checks what a one-off search needs: no chat or LLM
// credentials.
func (c *Config) ValidateSearch() error {
	if err := c.validateCommon(); err != nil {
		return err
	}
	return c.validateGoogle()
}

func (c *Config) validateGoogle() error {
	if err := validation.ValidateStruct(&c.Google,
		validation.Field(&c.Google.APIKey, validation.Required),
		validation.Field(&c.Google.EngineID, validation.Required),
		validation.Field(&c.Google.SearchURL, validation.Required, is.URL),
	); err != nil {
		return fmt.Errorf("google: %w", err)
	}
	return nil
}

func (c *Config) validateCommon() error {
	if err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validation.ValidateStruct(&c.Log,
		validation.Field(&c.Log.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Log.Format, validation.In("text", "json")),
	); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := validation.ValidateStruct(&c.Cache,
		validation.Field(&c.Cache.Size, validation.Required, validation.Min(1)),
		validation.Field(&c.Cache.TTL, validation.Required, validation.Min(time.Second)),
	); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := validation.ValidateStruct(&c.Images,
		validation.Field(&c.Images.WikimediaAPIURL, validation.Required, is.URL),
	); err != nil {
		return fmt.Errorf("images: %w", err)
	}
	return nil
}
