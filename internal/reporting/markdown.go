package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Trade Activity Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.WindowStart > 0 {
		sb.WriteString(fmt.Sprintf("Window: %s to %s\n\n",
			time.UnixMilli(r.WindowStart).UTC().Format(time.RFC3339),
			time.UnixMilli(r.WindowEnd).UTC().Format(time.RFC3339)))
	}

	// Totals
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", r.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Buys | %d |\n", r.TotalBuys))
	sb.WriteString(fmt.Sprintf("| Sells | %d |\n", r.TotalSells))
	sb.WriteString(fmt.Sprintf("| SOL Volume | %.4f |\n", r.TotalSolVolume))
	sb.WriteString(fmt.Sprintf("| Tokens | %d |\n", len(r.Tokens)))
	sb.WriteString("\n")

	// Tokens
	sb.WriteString("## Tokens\n\n")
	if len(r.Tokens) > 0 {
		sb.WriteString("| Mint | Trades | Buys | Sells | Traders | SOL Volume | Last MC (SOL) | Max MC (SOL) | First Seen | Last Seen |\n")
		sb.WriteString("|------|--------|------|-------|---------|------------|---------------|--------------|------------|----------|\n")
		for _, tok := range r.Tokens {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d | %.4f | %.4f | %.4f | %s | %s |\n",
				tok.Mint, tok.Trades, tok.Buys, tok.Sells, tok.UniqueTraders,
				tok.SolVolume, tok.LastMarketCap, tok.MaxMarketCap,
				time.UnixMilli(tok.FirstSeenMs).UTC().Format(time.RFC3339),
				time.UnixMilli(tok.LastSeenMs).UTC().Format(time.RFC3339)))
		}
	} else {
		sb.WriteString("No trades recorded in this window.\n")
	}
	sb.WriteString("\n")

	// Traders
	sb.WriteString("## Top Traders\n\n")
	if len(r.Traders) > 0 {
		sb.WriteString("| Trader | Type | Trades | Buys | Sells | SOL Volume | Net SOL Flow |\n")
		sb.WriteString("|--------|------|--------|------|-------|------------|--------------|\n")
		for _, tr := range r.Traders {
			kind := "pda"
			if tr.Wallet {
				kind = "wallet"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d | %.4f | %+.4f |\n",
				tr.TraderPublicKey, kind, tr.Trades, tr.Buys, tr.Sells, tr.SolVolume, tr.NetSolFlow))
		}
	} else {
		sb.WriteString("No trader activity available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
