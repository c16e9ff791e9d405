// Command fetch-season downloads the season summary CSV and stores it where
// miya reads it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/miya/internal/adapters/source/season"
	"github.com/okian/miya/internal/config"
	"github.com/okian/miya/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = logger.SetLevelString(cfg.LogLevel)

	year := flag.Int("year", cfg.SeasonYear, "season year to download")
	out := flag.String("out", cfg.SeasonFile, "destination CSV path")
	flag.Parse()

	if err := fetch(ctx, cfg, *year, *out); err != nil {
		logger.Get().Error(ctx, "fetch failed", logger.Error(err))
		os.Exit(1)
	}
}

func fetch(ctx context.Context, cfg *config.Config, year int, out string) error {
	f := season.NewFetcher(cfg.SeasonURL,
		season.WithRate(cfg.FetchRatePerSec),
		season.WithTimeout(time.Duration(cfg.FetchTimeoutMS)*time.Millisecond),
		season.WithLogger(logger.Get()),
	)
	n, err := f.Save(ctx, year, out)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %d teams for %d to %s\n", n, year, out)
	return nil
}
