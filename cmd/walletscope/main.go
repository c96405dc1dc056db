package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"walletScope/internal/bot"
	"walletScope/internal/chain"
	"walletScope/internal/config"
	"walletScope/internal/journal"
	"walletScope/internal/notify"
	"walletScope/internal/portfolio"
	"walletScope/internal/pricing"
	"walletScope/internal/scanner"
	"walletScope/internal/subs"
	"walletScope/internal/tokenlist"
)

func main() {
	// .env is optional; real env vars win through viper.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "walletscope",
		Short:        "Ethereum wallet activity monitor",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the Telegram bot and the scan loop",
		RunE:  runMonitor,
	}
	addCommonFlags(runCmd)
	runCmd.Flags().String("telegram-token", "", "Telegram bot token")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN for subscriptions (empty = in-memory)")
	runCmd.Flags().Duration("poll-interval", 10*time.Second, "scan tick interval")
	runCmd.Flags().Uint64("lookback", 100, "blocks behind head to start scanning from")
	runCmd.Flags().Duration("rpc-timeout", 10*time.Second, "bound on each chain call in the scan loop")
	runCmd.Flags().String("journal", "./data/events.jsonl", "event journal JSONL path")
	runCmd.Flags().Bool("journal-enabled", false, "append emitted events to the journal")
	root.AddCommand(runCmd)

	balanceCmd := &cobra.Command{
		Use:   "balance <address>",
		Short: "Print a one-shot portfolio snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runBalance,
	}
	addCommonFlags(balanceCmd)
	balanceCmd.Flags().String("token", "", "single token contract to check")
	balanceCmd.Flags().Bool("all", false, "scan all tokens")
	root.AddCommand(balanceCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "Ethereum RPC URL")
	cmd.Flags().String("price-url", "", "price service base URL")
	cmd.Flags().Duration("price-timeout", 10*time.Second, "price lookup timeout")
	cmd.Flags().String("token-list", "", "curated token table JSON path (empty = built-in)")
	cmd.Flags().Int("probe-concurrency", 8, "parallel curated token probes")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.TelegramToken == "" {
		return fmt.Errorf("telegram token is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	// Refuse to start without a working chain connection.
	if err := chainClient.WaitReachable(ctx, 3, time.Second); err != nil {
		return fmt.Errorf("rpc endpoint unreachable: %w", err)
	}

	list, err := loadTokenList(cfg.TokenListPath)
	if err != nil {
		return err
	}

	var store subs.Store
	if cfg.PGDSN != "" {
		pgStore, err := subs.NewPostgresStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return err
		}
		store = pgStore
	} else {
		logger.Warn("no pg-dsn configured, subscriptions will not survive a restart")
		store = subs.NewMemoryStore()
	}
	index := subs.NewIndex(store)

	resolver := pricing.NewResolver(pricing.Config{
		BaseURL: cfg.PriceBaseURL,
		Timeout: cfg.PriceTimeout,
	}, list, logger)

	aggregator := portfolio.NewAggregator(
		chainClient,
		resolver,
		portfolio.NewProviderDiscovery(chainClient, logger),
		portfolio.NewCuratedDiscovery(chainClient, list, cfg.ProbeConcurrency, logger),
		logger,
	)

	api, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramToken, tgbotapi.APIEndpoint, notify.APIClient())
	if err != nil {
		return fmt.Errorf("telegram auth: %w", err)
	}

	transport := notify.NewTelegramTransport(api, logger)
	dispatcher := notify.NewDispatcher(index, transport, logger)

	var eventJournal scanner.Journal
	if cfg.JournalEnabled {
		eventJournal = journal.NewJSONL(cfg.JournalPath)
	}

	scan := scanner.NewScanner(scanner.Config{
		Interval:    cfg.PollInterval,
		Lookback:    cfg.Lookback,
		CallTimeout: cfg.RPCTimeout,
	}, chainClient, index, dispatcher, eventJournal, logger)

	if err := scan.Init(ctx); err != nil {
		return err
	}

	logger.Info("walletscope start",
		zap.String("rpc", cfg.RPCURL),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Uint64("lookback", cfg.Lookback),
		zap.Bool("postgres", cfg.PGDSN != ""),
		zap.Bool("journal_enabled", cfg.JournalEnabled),
	)

	scanDone := make(chan error, 1)
	go func() { scanDone <- scan.Run(ctx) }()

	frontend := bot.New(api, transport, store, aggregator, scan, chainClient, logger)
	err = frontend.Run(ctx)

	<-scanDone
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runBalance(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	tokenContract, _ := cmd.Flags().GetString("token")
	scanAll, _ := cmd.Flags().GetBool("all")

	query := portfolio.Query{Mode: portfolio.ModeNativeOnly}
	if scanAll {
		query.Mode = portfolio.ModeFullScan
	} else if tokenContract != "" {
		query.Mode = portfolio.ModeSingleToken
		query.Contract = tokenContract
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	list, err := loadTokenList(cfg.TokenListPath)
	if err != nil {
		return err
	}

	resolver := pricing.NewResolver(pricing.Config{
		BaseURL: cfg.PriceBaseURL,
		Timeout: cfg.PriceTimeout,
	}, list, logger)

	aggregator := portfolio.NewAggregator(
		chainClient,
		resolver,
		portfolio.NewProviderDiscovery(chainClient, logger),
		portfolio.NewCuratedDiscovery(chainClient, list, cfg.ProbeConcurrency, logger),
		logger,
	)

	snapshot, err := aggregator.Snapshot(ctx, args[0], query)
	if err != nil {
		return err
	}

	fmt.Printf("Address: %s\n", snapshot.Address)
	fmt.Printf("ETH: %.6f\n", snapshot.EthBalance)
	for _, h := range snapshot.Holdings {
		fmt.Printf("%s (%s): %f (~%.6f ETH)\n", h.Symbol, h.Contract, h.Balance, h.EthValue)
	}
	fmt.Printf("Total: ~%.6f ETH\n", snapshot.TotalEth)
	return nil
}

func loadTokenList(path string) (*tokenlist.List, error) {
	if path == "" {
		return tokenlist.Default(), nil
	}
	return tokenlist.LoadFile(path)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
