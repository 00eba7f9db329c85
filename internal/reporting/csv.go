package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders per-token summaries as a CSV string.
func RenderCSV(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("mint,trades,buys,sells,unique_traders,sol_volume,last_market_cap_sol,max_market_cap_sol,first_seen_ms,last_seen_ms\n")

	// Rows
	for _, tok := range r.Tokens {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%d,%d,%.6f,%.6f,%.6f,%d,%d\n",
			tok.Mint,
			tok.Trades,
			tok.Buys,
			tok.Sells,
			tok.UniqueTraders,
			tok.SolVolume,
			tok.LastMarketCap,
			tok.MaxMarketCap,
			tok.FirstSeenMs,
			tok.LastSeenMs,
		))
	}

	return sb.String()
}
