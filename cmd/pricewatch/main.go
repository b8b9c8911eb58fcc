package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raykavin/pricewatch"
	"github.com/raykavin/pricewatch/pkg/config"
	"github.com/raykavin/pricewatch/pkg/core"
	"github.com/raykavin/pricewatch/pkg/feed"
	"github.com/raykavin/pricewatch/pkg/logger"
	"github.com/raykavin/pricewatch/pkg/notification"
	"github.com/raykavin/pricewatch/pkg/storage"
	"github.com/spf13/cobra"
)

// Command line flags
var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:     "pricewatch",
		Short:   "Telegram bot that tracks the BTC price against your last trade",
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (yaml, json or toml)")

	rootCmd.AddCommand(buildRunCmd(), buildPriceCmd(), buildStatusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the Telegram bot",
		RunE:  runBot,
	}
}

func buildPriceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "price",
		Short: "Print the current price",
		RunE:  runPrice,
	}
}

func buildStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Compare the recorded trade with the current price",
		RunE:  runStatus,
	}
}

// setup loads the configuration and builds the logger it describes
func setup() (*config.AppConfig, logger.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}

	log, err := pricewatch.NewLogger(pricewatch.LogOptions{
		Level:      cfg.Log.Level,
		Backend:    cfg.Log.Backend,
		TimeFormat: cfg.Log.TimeFormat,
		Colored:    cfg.Log.Color,
		JSON:       cfg.Log.JSON,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log settings: %w", err)
	}

	pricewatch.DefaultLog = log
	return cfg, log, nil
}

func newFeed(cfg *config.AppConfig) *feed.CoinGecko {
	return feed.NewCoinGecko(
		feed.WithBaseURL(cfg.Feed.BaseURL),
		feed.WithAsset(cfg.Feed.Coin, cfg.Feed.Currency),
		feed.WithTimeout(cfg.Feed.Timeout),
	)
}

func newStore(ctx context.Context, cfg *config.AppConfig, log logger.Logger) (core.PositionStore, error) {
	return storage.New(ctx, storage.Config{
		Backend: cfg.Storage.Backend,
		Path:    cfg.Storage.Path,
		Redis:   cfg.Storage.Redis,
		Log:     log,
	})
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	options := []pricewatch.Option{
		pricewatch.WithLogger(log),
		pricewatch.WithStorage(store),
		pricewatch.WithFeed(newFeed(cfg)),
	}

	if cfg.Mail.Enabled {
		options = append(options, pricewatch.WithNotifier(notification.NewMail(notification.MailParams{
			SMTPServerAddress: cfg.Mail.Host,
			SMTPServerPort:    cfg.Mail.Port,
			From:              cfg.Mail.From,
			To:                cfg.Mail.To,
			Password:          cfg.Mail.Password,
			Subject:           fmt.Sprintf("%s price alert", cfg.Feed.Symbol),
		})))
	}

	if cfg.Watch.AutoStart {
		options = append(options, pricewatch.WithAutoStart(cfg.Telegram.ChatID))
	}

	bot, err := pricewatch.NewBot(ctx, cfg.Settings(), options...)
	if err != nil {
		_ = store.Close()
		return err
	}

	log.WithFields(map[string]any{
		"storage":   cfg.Storage.Backend,
		"interval":  cfg.Watch.Interval.String(),
		"threshold": cfg.Watch.Threshold,
	}).Info("pricewatch running")

	return bot.Run(ctx)
}

func runPrice(cmd *cobra.Command, _ []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}

	quote, err := newFeed(cfg).LastQuote(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", cfg.Feed.Symbol, core.FormatPrice(quote.Value), cfg.Feed.Currency)
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	store, err := newStore(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	return reportStatus(cmd.Context(), cmd.OutOrStdout(), store, newFeed(cfg), cfg.Feed.Symbol)
}
