package bot

import (
	"fmt"
	"strings"

	"walletScope/internal/model"
	"walletScope/internal/notify"
)

// FormatSnapshot renders a portfolio snapshot in Telegram Markdown.
func FormatSnapshot(s *model.PortfolioSnapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 *Balance for* `%s`\n\n", s.Address)
	fmt.Fprintf(&sb, "*ETH:* %.6f\n", s.EthBalance)

	if len(s.Holdings) > 0 {
		fmt.Fprintf(&sb, "\n*Tokens (%d)*\n", len(s.Holdings))
		for _, h := range s.Holdings {
			fmt.Fprintf(&sb, "• %s: %s", notify.EscapeMarkdown(h.Symbol), formatBalance(h.Balance))
			if h.EthValue > 0 {
				fmt.Fprintf(&sb, " (~%.6f ETH)", h.EthValue)
			}
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "\n*Tokens total:* ~%.6f ETH\n", s.TokenEthValue)
	}

	fmt.Fprintf(&sb, "\n*Portfolio total:* ~%.6f ETH", s.TotalEth)
	return sb.String()
}

// formatBalance trims trailing zeros from a fixed-precision balance.
func formatBalance(v float64) string {
	formatted := strings.TrimRight(fmt.Sprintf("%.6f", v), "0")
	return strings.TrimRight(formatted, ".")
}
