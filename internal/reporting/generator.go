package reporting

import (
	"context"
	"sort"
	"time"

	"pumpstream/internal/domain"
	"pumpstream/internal/solana"
	"pumpstream/internal/storage"
)

// Options filters report content.
type Options struct {
	// Since limits the window to trades received within this duration.
	// Zero means all recorded trades.
	Since time.Duration

	// MinMarketCapSol drops tokens whose latest reported market cap is
	// below the threshold. Zero keeps everything.
	MinMarketCapSol float64

	// TopTraders caps the trader table. Zero keeps everything.
	TopTraders int
}

// Generator produces reports from the trade ledger.
type Generator struct {
	store storage.TradeStore
	now   func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(store storage.TradeStore) *Generator {
	return &Generator{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate aggregates ledger trades into a Report.
func (g *Generator) Generate(ctx context.Context, opts Options) (*Report, error) {
	generatedAt := g.now()
	end := generatedAt.UnixMilli() + 1
	start := int64(0)
	if opts.Since > 0 {
		start = generatedAt.UnixMilli() - opts.Since.Milliseconds()
	}

	trades, err := g.store.GetByTimeRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	report := &Report{
		GeneratedAt: generatedAt,
		WindowStart: start,
		WindowEnd:   end,
	}

	tokens := make(map[string]*TokenSummary)
	traders := make(map[string]*TraderActivity)
	tokenTraders := make(map[string]map[string]struct{})

	for _, t := range trades {
		report.TotalTrades++
		report.TotalSolVolume += t.SolAmount
		if t.TxType == domain.DirectionBuy {
			report.TotalBuys++
		} else {
			report.TotalSells++
		}

		tok := tokens[t.Mint]
		if tok == nil {
			tok = &TokenSummary{Mint: t.Mint, FirstSeenMs: t.ReceivedAt}
			tokens[t.Mint] = tok
		}
		tok.Trades++
		tok.SolVolume += t.SolAmount
		if t.TxType == domain.DirectionBuy {
			tok.Buys++
		} else {
			tok.Sells++
		}
		if t.ReceivedAt < tok.FirstSeenMs {
			tok.FirstSeenMs = t.ReceivedAt
		}
		if t.ReceivedAt >= tok.LastSeenMs {
			tok.LastSeenMs = t.ReceivedAt
			tok.LastMarketCap = t.MarketCapSol
		}
		if t.MarketCapSol > tok.MaxMarketCap {
			tok.MaxMarketCap = t.MarketCapSol
		}

		if t.TraderPublicKey != "" {
			if tokenTraders[t.Mint] == nil {
				tokenTraders[t.Mint] = make(map[string]struct{})
			}
			tokenTraders[t.Mint][t.TraderPublicKey] = struct{}{}

			tr := traders[t.TraderPublicKey]
			if tr == nil {
				onCurve, err := solana.IsOnCurve(t.TraderPublicKey)
				tr = &TraderActivity{
					TraderPublicKey: t.TraderPublicKey,
					Wallet:          err == nil && onCurve,
				}
				traders[t.TraderPublicKey] = tr
			}
			tr.Trades++
			tr.SolVolume += t.SolAmount
			if t.TxType == domain.DirectionBuy {
				tr.Buys++
				tr.NetSolFlow += t.SolAmount
			} else {
				tr.Sells++
				tr.NetSolFlow -= t.SolAmount
			}
		}
	}

	for _, tok := range tokens {
		if opts.MinMarketCapSol > 0 && tok.LastMarketCap < opts.MinMarketCapSol {
			continue
		}
		tok.UniqueTraders = len(tokenTraders[tok.Mint])
		report.Tokens = append(report.Tokens, *tok)
	}
	sort.Slice(report.Tokens, func(i, j int) bool {
		if report.Tokens[i].SolVolume != report.Tokens[j].SolVolume {
			return report.Tokens[i].SolVolume > report.Tokens[j].SolVolume
		}
		return report.Tokens[i].Mint < report.Tokens[j].Mint
	})

	for _, tr := range traders {
		report.Traders = append(report.Traders, *tr)
	}
	sort.Slice(report.Traders, func(i, j int) bool {
		if report.Traders[i].SolVolume != report.Traders[j].SolVolume {
			return report.Traders[i].SolVolume > report.Traders[j].SolVolume
		}
		return report.Traders[i].TraderPublicKey < report.Traders[j].TraderPublicKey
	})
	if opts.TopTraders > 0 && len(report.Traders) > opts.TopTraders {
		report.Traders = report.Traders[:opts.TopTraders]
	}

	return report, nil
}
