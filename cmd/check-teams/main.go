// Command check-teams reports game log files whose team has no row in the
// season summary, and optionally normalizes game log file names.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/okian/miya/internal/adapters/repository"
	"github.com/okian/miya/internal/adapters/source/gamelog"
	"github.com/okian/miya/internal/adapters/source/season"
	"github.com/okian/miya/internal/config"
	"github.com/okian/miya/internal/domain/teamname"
	"github.com/okian/miya/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = logger.SetLevelString(cfg.LogLevel)

	rename := flag.Bool("rename", false, "replace spaces with underscores in game log file names first")
	flag.Parse()

	missing, err := check(cfg, *rename, os.Stdout)
	if err != nil {
		logger.Get().Error(ctx, "check failed", logger.Error(err))
		os.Exit(1)
	}
	if missing > 0 {
		os.Exit(3)
	}
}

// check prints the unmatched team files and returns how many there are.
func check(cfg *config.Config, rename bool, out io.Writer) (int, error) {
	if rename {
		renamed, err := gamelog.NormalizeFileNames(cfg.TeamDataDir)
		if err != nil {
			return 0, err
		}
		olds := make([]string, 0, len(renamed))
		for old := range renamed {
			olds = append(olds, old)
		}
		slices.Sort(olds)
		for _, old := range olds {
			fmt.Fprintf(out, "Renamed: %q to %q\n", old, renamed[old])
		}
	}

	rows, err := season.LoadFile(cfg.SeasonFile)
	if err != nil {
		return 0, err
	}
	table, err := repository.NewSeasonTable(rows)
	if err != nil {
		return 0, err
	}
	fileTeams, err := gamelog.NewDirSource(cfg.TeamDataDir).Teams()
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(out, "Found %d team files in %s\n", len(fileTeams), cfg.TeamDataDir)

	missing := teamname.Unmatched(fileTeams, table.Teams())
	if len(missing) == 0 {
		fmt.Fprintln(out, "All team files have matching entries in the season summary.")
		return 0, nil
	}
	fmt.Fprintf(out, "%d team files have no match in the season summary:\n", len(missing))
	for _, team := range missing {
		fmt.Fprintf(out, "  - %s\n", team)
	}
	return len(missing), nil
}
