package notify

import (
	"fmt"
	"strings"

	"walletScope/internal/model"
)

// FormatTransfer renders one transfer notification in Telegram Markdown,
// substituting the subscriber's own label for the address.
func FormatTransfer(label string, ev model.TransferEvent) string {
	icon, verb := "📥", "Received"
	if ev.Direction == model.DirectionOutgoing {
		icon, verb = "📤", "Sent"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s Transfer - %s*\n\n", icon, strings.ToUpper(string(ev.Kind)), EscapeMarkdown(label))
	fmt.Fprintf(&b, "*Type:* %s %s\n", verb, ev.Symbol)
	fmt.Fprintf(&b, "*Amount:* %s %s\n", model.FormatEther(ev.Amount), ev.Symbol)
	fmt.Fprintf(&b, "*From:* `%s`\n", ev.From)
	if ev.To != "" {
		fmt.Fprintf(&b, "*To:* `%s`\n", ev.To)
	} else {
		b.WriteString("*To:* contract creation\n")
	}
	fmt.Fprintf(&b, "*Time:* %s\n", ev.BlockTime.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "*Hash:* `%s`\n", ev.TxHash)
	fmt.Fprintf(&b, "*Block:* %d", ev.Block)
	return b.String()
}

// EscapeMarkdown escapes Telegram Markdown control characters in
// subscriber-owned text.
func EscapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
		"[", "\\[",
		"]", "\\]",
	)
	return replacer.Replace(text)
}

// StripMarkdown removes Markdown control characters for the plain-text
// fallback path.
func StripMarkdown(text string) string {
	replacer := strings.NewReplacer("*", "", "`", "", "_", "", "\\", "")
	return replacer.Replace(text)
}
