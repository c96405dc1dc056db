// Package bot is the Telegram command front end. It validates input,
// canonicalizes addresses, and hands work to the monitoring core; malformed
// commands are answered synchronously and never reach the core.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"walletScope/internal/chain"
	"walletScope/internal/model"
	"walletScope/internal/notify"
	"walletScope/internal/portfolio"
	"walletScope/internal/scanner"
	"walletScope/internal/subs"
)

const helpText = `*walletScope* watches Ethereum addresses and notifies you about activity.

*Commands*
/add_wallet <address> <name> - watch an address under a private name
/remove_wallet <address> - stop watching an address
/list_wallets - your watched addresses
/balance <address> [contract|all] - portfolio snapshot
/check - scan for new transactions now
/status - connection and scan status`

// Bot runs the Telegram update loop.
type Bot struct {
	api        *tgbotapi.BotAPI
	transport  notify.Transport
	store      subs.Store
	aggregator *portfolio.Aggregator
	scanner    *scanner.Scanner
	chain      *chain.Client
	logger     *zap.Logger
}

func New(
	api *tgbotapi.BotAPI,
	transport notify.Transport,
	store subs.Store,
	aggregator *portfolio.Aggregator,
	sc *scanner.Scanner,
	chainClient *chain.Client,
	logger *zap.Logger,
) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:        api,
		transport:  transport,
		store:      store,
		aggregator: aggregator,
		scanner:    sc,
		chain:      chainClient,
		logger:     logger,
	}
}

// Run consumes updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())

	var err error
	switch msg.Command() {
	case "start", "help":
		err = b.reply(ctx, chatID, helpText)
	case "add_wallet":
		err = b.handleAdd(ctx, chatID, args)
	case "remove_wallet":
		err = b.handleRemove(ctx, chatID, args)
	case "list_wallets":
		err = b.handleList(ctx, chatID)
	case "balance":
		err = b.handleBalance(ctx, chatID, args)
	case "check":
		b.scanner.Kick()
		err = b.reply(ctx, chatID, "🔍 Checking for new transactions on watched wallets...")
	case "status":
		err = b.handleStatus(ctx, chatID)
	default:
		err = b.reply(ctx, chatID, "Unknown command. Try /help.")
	}

	if err != nil {
		b.logger.Warn("command handling failed",
			zap.String("command", msg.Command()),
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, args []string) error {
	if len(args) < 2 {
		return b.reply(ctx, chatID, "Usage: /add_wallet <address> <name>")
	}

	address, err := model.CanonicalAddress(args[0])
	if err != nil {
		return b.reply(ctx, chatID, "❌ Invalid address format.")
	}
	label := strings.Join(args[1:], " ")

	added, err := b.store.AddSubscription(ctx, chatID, address, label)
	if err != nil {
		return fmt.Errorf("add subscription: %w", err)
	}
	if !added {
		return b.reply(ctx, chatID, fmt.Sprintf("You are already watching `%s`.", address))
	}
	return b.reply(ctx, chatID, fmt.Sprintf("✅ Watching `%s` as *%s*.", address, notify.EscapeMarkdown(label)))
}

func (b *Bot) handleRemove(ctx context.Context, chatID int64, args []string) error {
	if len(args) != 1 {
		return b.reply(ctx, chatID, "Usage: /remove_wallet <address>")
	}

	address, err := model.CanonicalAddress(args[0])
	if err != nil {
		return b.reply(ctx, chatID, "❌ Invalid address format.")
	}

	removed, err := b.store.RemoveSubscription(ctx, chatID, address)
	if err != nil {
		return fmt.Errorf("remove subscription: %w", err)
	}
	if !removed {
		return b.reply(ctx, chatID, fmt.Sprintf("`%s` was not on your watch list.", address))
	}
	return b.reply(ctx, chatID, fmt.Sprintf("🗑 No longer watching `%s`.", address))
}

func (b *Bot) handleList(ctx context.Context, chatID int64) error {
	subscriptions, err := b.store.SubscriptionsOf(ctx, chatID)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subscriptions) == 0 {
		return b.reply(ctx, chatID, "You are not watching any wallets yet. Use /add_wallet.")
	}

	var sb strings.Builder
	sb.WriteString("*Your watched wallets*\n\n")
	for _, sub := range subscriptions {
		fmt.Fprintf(&sb, "• *%s*\n  `%s`\n", notify.EscapeMarkdown(sub.Label), sub.Address)
	}
	fmt.Fprintf(&sb, "\nTotal: %d wallet(s) 📊", len(subscriptions))
	return b.reply(ctx, chatID, sb.String())
}

func (b *Bot) handleBalance(ctx context.Context, chatID int64, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return b.reply(ctx, chatID, "Usage: /balance <address> [token-contract|all]")
	}
	if !model.IsValidAddress(args[0]) {
		return b.reply(ctx, chatID, "❌ Invalid address format.")
	}

	query := portfolio.Query{Mode: portfolio.ModeNativeOnly}
	if len(args) == 2 {
		switch {
		case strings.EqualFold(args[1], "all"):
			query.Mode = portfolio.ModeFullScan
		case model.IsValidAddress(args[1]):
			query.Mode = portfolio.ModeSingleToken
			query.Contract = args[1]
		default:
			return b.reply(ctx, chatID, "❌ Second argument must be a token contract or `all`.")
		}
	}

	if err := b.reply(ctx, chatID, "⏳ Fetching balance..."); err != nil {
		return err
	}

	queryCtx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()

	snapshot, err := b.aggregator.Snapshot(queryCtx, args[0], query)
	if err != nil {
		b.logger.Warn("balance query failed", zap.String("address", args[0]), zap.Error(err))
		return b.reply(ctx, chatID, "❌ Could not fetch the balance right now. Try again later.")
	}

	return b.reply(ctx, chatID, FormatSnapshot(snapshot))
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64) error {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	reachable := b.chain.IsReachable(probeCtx)
	state := "🔴 disconnected"
	var head uint64
	if reachable {
		state = "🟢 connected"
		if h, err := b.chain.LatestBlockNumber(probeCtx); err == nil {
			head = h
		}
	}

	var sb strings.Builder
	sb.WriteString("*Status*\n\n")
	fmt.Fprintf(&sb, "• Node: %s\n", state)
	if head > 0 {
		fmt.Fprintf(&sb, "• Chain head: %d\n", head)
	}
	fmt.Fprintf(&sb, "• Scanned up to block: %d", b.scanner.Watermark())
	return b.reply(ctx, chatID, sb.String())
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) error {
	return b.transport.Send(ctx, chatID, text)
}
