package service_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	service "github.com/okian/miya/internal/app"
	"github.com/okian/miya/internal/adapters/repository"
	"github.com/okian/miya/internal/domain/model"
	"github.com/okian/miya/internal/domain/types"
	"github.com/okian/miya/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeGames struct {
	logs   map[string][]model.Game
	broken map[string]error
}

func (f *fakeGames) Teams() ([]string, error) {
	var out []string
	for t := range f.logs {
		out = append(out, t)
	}
	for t := range f.broken {
		out = append(out, t)
	}
	slices.Sort(out)
	return out, nil
}

func (f *fakeGames) GameLog(_ context.Context, team string) (model.GameLog, error) {
	if err, ok := f.broken[team]; ok {
		return model.GameLog{}, err
	}
	for t, games := range f.logs {
		if strings.EqualFold(t, team) {
			return model.GameLog{Team: t, Games: games}, nil
		}
	}
	return model.GameLog{}, fmt.Errorf("%w: %s", model.ErrGameLogNotFound, team)
}

func game(opp string, rank int, venue model.Venue, result model.Result, ts, os int) model.Game {
	g, err := model.NewGame(opp, rank, venue, result, ts, os)
	if err != nil {
		panic(err)
	}
	return g
}

func fixtures() (*repository.SeasonTable, *fakeGames) {
	season, err := repository.NewSeasonTable([]model.SeasonSummary{
		{Team: "Duke", Rank: 1, Conference: "ACC", Wins: 25, Losses: 5, AdjOE: 110, AdjDE: 95, Barthag: 0.85},
		{Team: "Houston", Rank: 2, Conference: "B12", Wins: 20, Losses: 10, AdjOE: 105, AdjDE: 100, Barthag: 0.70},
		{Team: "Gonzaga", Rank: 9, Conference: "WCC", Wins: 20, Losses: 10, AdjOE: 105, AdjDE: 100, Barthag: 0.70},
	})
	if err != nil {
		panic(err)
	}
	games := &fakeGames{
		logs: map[string][]model.Game{
			"Duke": {
				game("Houston", 2, model.VenueNeutral, model.Win, 70, 68),
				game("Army", 0, model.VenueHome, model.Win, 80, 60),
			},
			"Houston": {
				game("Duke", 1, model.VenueNeutral, model.Loss, 68, 70),
				game("Army", 0, model.VenueAway, model.Win, 75, 73),
			},
		},
		broken: map[string]error{"Broken": errors.New("corrupt file")},
	}
	return season, games
}

func TestService_LoadMetrics(t *testing.T) {
	Convey("Given a service over fixture data", t, func() {
		season, games := fixtures()
		svc := service.New(season, games, service.WithWorkerCount(2), service.WithLogger(logger.Get()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When predicting before loading", func() {
			_, err := svc.Predict(ctx, "Duke", "Houston")
			So(errors.Is(err, service.ErrNotLoaded), ShouldBeTrue)
		})

		Convey("When loading every team with a game log", func() {
			summary, err := svc.LoadMetrics(ctx, nil)

			Convey("Then good teams are computed and the broken one is isolated", func() {
				So(err, ShouldBeNil)
				So(summary.Requested, ShouldEqual, 3)
				So(summary.Computed, ShouldEqual, 2)
				So(summary.Failures, ShouldContainKey, "Broken")
				So(svc.MetricsFor("Broken").Available(), ShouldBeFalse)
			})

			Convey("Then WORTH only counts opponents with a game log", func() {
				duke, ok := svc.MetricsFor("duke").Get()
				So(ok, ShouldBeTrue)
				So(duke, ShouldResemble, model.CompositeMetrics{Worth: 1, Prime: 0.2, Road: 0, Nerve: 1})
				houston, _ := svc.MetricsFor("Houston").Get()
				So(houston, ShouldResemble, model.CompositeMetrics{Worth: 0, Prime: 0, Road: 0.5, Nerve: 0.5})
			})

			Convey("Then a second load is refused", func() {
				_, err := svc.LoadMetrics(ctx, nil)
				So(errors.Is(err, repository.ErrSealed), ShouldBeTrue)
			})
		})

		Convey("When the team list repeats a team in another case", func() {
			summary, err := svc.LoadMetrics(ctx, []string{"Duke", "DUKE", "Houston"})

			Convey("Then the duplicate is skipped before it reaches the queue", func() {
				So(err, ShouldBeNil)
				So(summary.Duplicates, ShouldEqual, 1)
				So(summary.Computed, ShouldEqual, 2)
				So(summary.Failures, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a queue smaller than the team list", t, func() {
		season, games := fixtures()
		svc := service.New(season, games, service.WithWorkerCount(1), service.WithQueueSize(1))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When loading every team", func() {
			summary, err := svc.LoadMetrics(ctx, []string{"Duke", "Houston", "Broken"})

			Convey("Then a full queue makes the loader wait instead of dropping teams", func() {
				So(err, ShouldBeNil)
				So(summary.Computed, ShouldEqual, 2)
				So(summary.Failures, ShouldHaveLength, 1)
				So(summary.Backpressure, ShouldBeBetweenOrEqual, 0, 2)
			})
		})
	})
}

func TestService_Predict(t *testing.T) {
	Convey("Given loaded metrics", t, func() {
		season, games := fixtures()
		svc := service.New(season, games, service.WithWorkerCount(1))
		ctx := context.Background()
		_, err := svc.LoadMetrics(ctx, nil)
		So(err, ShouldBeNil)

		Convey("When both teams have metrics", func() {
			p, err := svc.Predict(ctx, "Duke", "Houston")

			Convey("Then the metric advantages move the probability", func() {
				So(err, ShouldBeNil)
				So(p.Winner, ShouldEqual, "Duke")
				So(p.CloseGame, ShouldBeFalse)
				So(p.Team1Probability, ShouldAlmostEqual, 0.625833, 1e-5)
				So(p.ScoreLine(), ShouldEqual, "78-77")
			})
		})

		Convey("When one team has no game log", func() {
			p, err := svc.Predict(ctx, "Houston", "Gonzaga")

			Convey("Then the absent side is treated as zero without failing", func() {
				So(err, ShouldBeNil)
				So(p.Team2.Metrics.Available(), ShouldBeFalse)
				_, ok := p.Advantages()
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a team is unknown", func() {
			_, err := svc.Predict(ctx, "Zzyzx State", "Duke")
			So(errors.Is(err, model.ErrTeamNotFound), ShouldBeTrue)
		})
	})
}

func TestService_RunBatch(t *testing.T) {
	Convey("Given loaded metrics and a mixed matchup list", t, func() {
		season, games := fixtures()
		svc := service.New(season, games)
		ctx := context.Background()
		_, err := svc.LoadMetrics(ctx, nil)
		So(err, ShouldBeNil)

		batch, err := svc.RunBatch(ctx, []model.Matchup{
			{Team1: "Duke", Team2: "Houston", Seed1: 1, Seed2: 4},
			{Team1: "Zzyzx State", Team2: "Duke"},
			{Team1: "", Team2: "Duke"},
			{Team1: "Houston", Team2: "Gonzaga"},
		})

		Convey("Then every matchup has a row in input order", func() {
			So(err, ShouldBeNil)
			So(batch.RunID, ShouldNotBeEmpty)
			So(batch.Rows, ShouldHaveLength, 4)
			So(batch.OK, ShouldEqual, 2)
			So(batch.Failed, ShouldEqual, 2)
			for i, row := range batch.Rows {
				So(row.Index, ShouldEqual, i)
			}
		})

		Convey("Then failures carry their reason", func() {
			So(batch.Rows[1].Status, ShouldEqual, types.StatusError)
			So(batch.Rows[1].Error, ShouldContainSubstring, "Zzyzx State")
			So(batch.Rows[2].Status, ShouldEqual, types.StatusError)
		})

		Convey("Then advantages appear only when both teams have metrics", func() {
			So(batch.Rows[0].WorthAdv, ShouldNotBeNil)
			So(*batch.Rows[0].WorthAdv, ShouldEqual, 1)
			So(batch.Rows[3].WorthAdv, ShouldBeNil)
		})

		Convey("Then predicted scores never tie", func() {
			for _, row := range batch.Rows {
				if row.OK() {
					So(row.Team1Score, ShouldNotEqual, row.Team2Score)
				}
			}
		})
	})
}

func TestService_Interactive(t *testing.T) {
	Convey("Given an interactive session", t, func() {
		season, games := fixtures()
		svc := service.New(season, games)
		ctx := context.Background()
		_, err := svc.LoadMetrics(ctx, nil)
		So(err, ShouldBeNil)

		in := strings.NewReader("Duke\nHouston\nNowhere\nDuke\nquit\n")
		var out strings.Builder
		err = svc.Interactive(ctx, in, &out)

		Convey("Then each pair is answered until quit", func() {
			So(err, ShouldBeNil)
			text := out.String()
			So(text, ShouldContainSubstring, "MATCHUP: #1 Duke (25-5) vs #2 Houston (20-10)")
			So(text, ShouldContainSubstring, "Error: team not found")
			So(strings.Count(text, "Team 1: "), ShouldEqual, 3)
		})
	})

	Convey("Given input that ends without quit", t, func() {
		season, games := fixtures()
		svc := service.New(season, games)
		_, err := svc.LoadMetrics(context.Background(), nil)
		So(err, ShouldBeNil)
		var out strings.Builder

		So(svc.Interactive(context.Background(), strings.NewReader("Duke\n"), &out), ShouldBeNil)
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a fresh service", t, func() {
		season, games := fixtures()
		svc := service.New(season, games, service.WithWorkerCount(3), service.WithQueueSize(16), service.WithDedupeSize(8))
		stats := svc.GetStats(context.Background())

		Convey("Then the configuration is reported", func() {
			So(stats["loaded"], ShouldEqual, false)
			So(stats["workerCount"], ShouldEqual, 3)
			So(stats["queueSize"], ShouldEqual, 16)
			So(stats["teamsTracked"], ShouldEqual, 0)
		})
	})
}
