package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/vitos/crypto_price_tracker/internal/domain"
	"github.com/vitos/crypto_price_tracker/internal/format"
	"github.com/vitos/crypto_price_tracker/internal/infrastructure/config"
	"github.com/vitos/crypto_price_tracker/internal/infrastructure/exchange"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	only := flag.String("assets", "", "comma-separated asset IDs (default: all)")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	assets := domain.Assets()
	if *only != "" {
		assets = nil
		for _, id := range strings.Split(*only, ",") {
			a, ok := domain.LookupAsset(strings.TrimSpace(id))
			if !ok {
				fmt.Printf("Unknown asset: %s\n", id)
				os.Exit(1)
			}
			assets = append(assets, a)
		}
	}

	client := exchange.NewHTTPClient(cfg.Sources.Timeout)
	sources := []domain.PriceSource{
		exchange.NewBinanceAdapter(cfg.Sources.BinanceURL, client),
		exchange.NewCoinGeckoAdapter(cfg.Sources.ProxyURL, cfg.Sources.CoinGeckoURL, exchange.HighLowPolicy(cfg.Sources.HighLowPolicy), client),
		exchange.NewKrakenAdapter(cfg.Sources.KrakenURL, client),
	}

	// 2. Probe every source for every asset
	ctx := context.Background()
	failed := 0
	for _, asset := range assets {
		fmt.Printf("%s (%s)\n", asset.Name, asset.Symbol)
		for _, src := range sources {
			rec, err := src.Fetch(ctx, asset)
			if err != nil {
				failed++
				fmt.Printf("  ❌ %-10s %v\n", src.Name(), err)
				continue
			}
			v := format.View(*rec)
			fmt.Printf("  ✅ %-10s price=%s change=%s (%s) high=%s low=%s cap=%s vol=%s\n",
				src.Name(), v.Price, v.Change, v.ChangePercent, v.High24h, v.Low24h, v.MarketCap, v.Volume24h)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}
