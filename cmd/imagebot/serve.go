package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/anatolykoptev/go-imagebot"
	"github.com/anatolykoptev/go-imagebot/internal/line"
	"github.com/anatolykoptev/go-imagebot/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the LINE webhook server",
	Long: `Start the HTTP server that receives LINE webhooks on POST /callback.
All LINE, Azure OpenAI and Google credentials must be configured.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	replier, err := line.NewReplier(cfg.Line.ChannelAccessToken)
	if err != nil {
		return err
	}
	describer := imagebot.NewDescriptionClient(
		cfg.Azure.Endpoint, cfg.Azure.Key, cfg.Azure.Deployment, cfg.Azure.APIVersion, nil)

	bot, err := newBot(ctx, describer, replier)
	if err != nil {
		return err
	}

	router := server.NewRouter(line.NewHandler(cfg.Line.ChannelSecret, bot.Dispatcher))
	if err := server.New(cfg.Server.Port, router).Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// newBot wires the search pipeline from the loaded config.
func newBot(ctx context.Context, describer imagebot.Describer, replier imagebot.Replier) (*imagebot.Bot, error) {
	provider, err := imagebot.NewGoogleProvider(ctx,
		cfg.Google.APIKey, cfg.Google.EngineID, cfg.Google.SearchURL, nil)
	if err != nil {
		return nil, err
	}
	return imagebot.New(imagebot.Config{
		Provider:          provider,
		Describer:         describer,
		Replier:           replier,
		CacheSize:         cfg.Cache.Size,
		CacheTTL:          cfg.Cache.TTL,
		RestrictedDomains: cfg.Images.RestrictedDomains,
		WikimediaAPIURL:   cfg.Images.WikimediaAPIURL,
		OnPanic: func(tag string, r any) {
			slog.Error("recovered panic", "tag", tag, "panic", r)
		},
	}), nil
}
