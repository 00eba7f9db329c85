// Package bootstrap assembles the initial watchlist from seed sources.
// The monitor unions a seed file with mints already present in the
// ledger so a restart re-subscribes to every previously seen token.
package bootstrap

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"pumpstream/internal/solana"
	"pumpstream/internal/storage"
)

// SeedSource supplies mint addresses for the initial watchlist.
type SeedSource interface {
	// Name identifies the source in logs.
	Name() string

	// Seeds returns the mint addresses contributed by this source.
	Seeds(ctx context.Context) ([]string, error)
}

// FileSeeds reads mint addresses from a plain text file, one per line.
// Blank lines and lines starting with # are skipped. A missing file is
// not an error; the source simply contributes nothing.
type FileSeeds struct {
	Path string
}

// Name implements SeedSource.
func (f FileSeeds) Name() string {
	return fmt.Sprintf("file:%s", f.Path)
}

// Seeds implements SeedSource.
func (f FileSeeds) Seeds(ctx context.Context) ([]string, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open seed file %s: %w", f.Path, err)
	}
	defer file.Close()

	var mints []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !solana.ValidAddress(line) {
			return nil, fmt.Errorf("seed file %s: invalid mint address %q", f.Path, line)
		}
		mints = append(mints, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", f.Path, err)
	}
	return mints, nil
}

// LedgerSeeds contributes every mint that already has trades recorded.
type LedgerSeeds struct {
	Store storage.TradeStore
}

// Name implements SeedSource.
func (l LedgerSeeds) Name() string {
	return "ledger"
}

// Seeds implements SeedSource.
func (l LedgerSeeds) Seeds(ctx context.Context) ([]string, error) {
	mints, err := l.Store.DistinctMints(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger mints: %w", err)
	}
	return mints, nil
}
