package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/miya/internal/adapters/report"
	"github.com/okian/miya/internal/adapters/repository"
	"github.com/okian/miya/internal/adapters/source/gamelog"
	"github.com/okian/miya/internal/adapters/source/matchups"
	"github.com/okian/miya/internal/adapters/source/season"
	app "github.com/okian/miya/internal/app"
	"github.com/okian/miya/internal/config"
	"github.com/okian/miya/internal/domain/model"
	"github.com/okian/miya/pkg/logger"
	"github.com/okian/miya/pkg/metrics"
)

// options are the command-line choices layered over config.
type options struct {
	team1       string
	team2       string
	matchups    string
	interactive bool
	// runs and run read stored batches back instead of predicting.
	runs bool
	run  string
}

var errNoDatabase = errors.New("stored runs need db_path")

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("miya", flag.ContinueOnError)
	fs.StringVar(&o.team1, "team1", "", "first team of a single matchup")
	fs.StringVar(&o.team2, "team2", "", "second team of a single matchup")
	fs.StringVar(&o.matchups, "matchups", "", "matchup file (csv or yaml); defaults to matchups_file")
	fs.BoolVar(&o.interactive, "interactive", false, "read team pairs from stdin until 'quit'")
	fs.BoolVar(&o.runs, "runs", false, "list stored batch runs, newest first")
	fs.StringVar(&o.run, "run", "", "print a stored batch run by id in output_format")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.runs && o.run != "" {
		return o, errors.New("-runs and -run are exclusive")
	}
	if (o.team1 == "") != (o.team2 == "") {
		return o, errors.New("-team1 and -team2 must be given together")
	}
	return o, nil
}

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, opts, os.Stdin, os.Stdout); err != nil {
		logger.Get().Error(ctx, "run failed", logger.Error(err))
		os.Exit(1)
	}
}

// run loads the season and game logs, computes metrics, and answers the
// requested matchups.
func run(ctx context.Context, cfg *config.Config, opts options, in io.Reader, out io.Writer) (err error) {
	log := logger.Get().Named("miya")

	defer func() {
		if cfg.MetricsFile == "" {
			return
		}
		if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
			log.Warn(ctx, "metrics textfile not written", logger.Error(werr))
		}
	}()

	if opts.runs || opts.run != "" {
		return showHistory(ctx, cfg, opts, out)
	}

	rows, err := season.LoadFile(cfg.SeasonFile)
	if err != nil {
		return fmt.Errorf("season summary: %w", err)
	}
	table, err := repository.NewSeasonTable(rows)
	if err != nil {
		return fmt.Errorf("season summary: %w", err)
	}
	log.Info(ctx, "season summary loaded", logger.String("file", cfg.SeasonFile), logger.Int("teams", table.Len()))

	svcOpts := []app.Option{
		app.WithLogger(logger.Get()),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
	}
	if cfg.DBPath != "" {
		store, err := repository.OpenSQLiteStore(ctx, cfg.DBPath, repository.WithSQLiteLogger(log))
		if err != nil {
			return fmt.Errorf("prediction store: %w", err)
		}
		defer func() { _ = store.Close() }()
		svcOpts = append(svcOpts, app.WithPredictionStore(store))
	}

	games := gamelog.NewDirSource(cfg.TeamDataDir, gamelog.WithLogger(log))
	svc := app.New(table, games, svcOpts...)

	summary, err := svc.LoadMetrics(ctx, nil)
	if err != nil {
		return fmt.Errorf("load metrics: %w", err)
	}
	for team, ferr := range summary.Failures {
		log.Warn(ctx, "team has no metrics", logger.Team(team), logger.Error(ferr))
	}
	if summary.Backpressure > 0 {
		log.Debug(ctx, "metrics queue was full", logger.Int("waits", summary.Backpressure))
	}
	defer func() {
		log.Info(ctx, "service stats", logger.Any("stats", svc.GetStats(ctx)))
	}()

	switch {
	case opts.interactive:
		return svc.Interactive(ctx, in, out)
	case opts.team1 != "":
		p, err := svc.Predict(ctx, opts.team1, opts.team2)
		if err != nil {
			_ = report.WriteError(out, err)
			return nil
		}
		return report.WriteMatchup(out, p)
	default:
		path := opts.matchups
		if path == "" {
			path = cfg.MatchupsFile
		}
		list, err := matchups.Load(path)
		if err != nil {
			return err
		}
		return runBatch(ctx, cfg, svc, list, out)
	}
}

func runBatch(ctx context.Context, cfg *config.Config, svc *app.Service, list []model.Matchup, out io.Writer) error {
	batch, saveErr := svc.RunBatch(ctx, list)

	w := out
	if cfg.OutputFile != "" {
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	if err := report.Write(w, cfg.OutputFormat, batch); err != nil {
		return err
	}

	if cfg.ChartFile != "" {
		if err := report.RenderChartFile(cfg.ChartFile, batch, report.DefaultChartConfig()); err != nil {
			logger.Get().Warn(ctx, "chart not written", logger.Error(err))
		}
	}
	return saveErr
}

// showHistory lists stored runs or prints one of them.
func showHistory(ctx context.Context, cfg *config.Config, opts options, out io.Writer) error {
	if cfg.DBPath == "" {
		return errNoDatabase
	}
	store, err := repository.OpenSQLiteStore(ctx, cfg.DBPath, repository.WithSQLiteLogger(logger.Get()))
	if err != nil {
		return fmt.Errorf("prediction store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if opts.run != "" {
		b, err := store.LoadBatch(ctx, opts.run)
		if err != nil {
			return err
		}
		return report.Write(out, cfg.OutputFormat, b)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	for _, r := range runs {
		if _, err := fmt.Fprintf(out, "%s  %s  %d ok  %d failed\n", r.RunID, r.StartedAt, r.OK, r.Failed); err != nil {
			return err
		}
	}
	return nil
}
